// Package application provides the cache and rate-limit engines built on
// the domain model and the durable store port.
package application

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/bulwarklib/bulwark/domain/cache"
	"github.com/bulwarklib/bulwark/infrastructure/logging"
	"github.com/bulwarklib/bulwark/infrastructure/observability"
)

// PutOptions configures how a value is stored.
type PutOptions struct {
	// TTL overrides the configured default TTL. Zero falls back to the
	// default; if both are zero the entry never expires.
	TTL time.Duration

	// Metadata is attached to the entry verbatim.
	Metadata map[string]string
}

// memRecord wraps a memory-tier entry with its serialized size, used for
// byte-capacity accounting.
type memRecord[V any] struct {
	entry cache.Entry[V]
	size  int64
}

// CacheEngine is a two-tier cache: a fast in-memory map backed by an
// optional durable store. Values are serialized as JSON entries for the
// durable tier; the memory tier is authoritative for reads within the
// process lifetime.
//
// All exported methods are safe for concurrent use. The engine must be
// initialized before use; operations on an uninitialized or closed
// engine fail with cache.ErrNotInitialized.
type CacheEngine[V any] struct {
	mu    sync.Mutex
	cfg   cache.Config
	items map[string]*memRecord[V]
	order []string // insertion order, for stable eviction tie-breaking
	bytes int64

	// durKeys mirrors the durable tier's record names and sizes, seeded
	// from List at Initialize and maintained best-effort afterwards.
	durKeys  map[string]int64
	durBytes int64

	stats cache.Statistics
	store cache.DurableStore
	rng   *rand.Rand

	initialized bool
	stop        chan struct{}
	wg          sync.WaitGroup

	hits      observability.Counter
	misses    observability.Counter
	evictions observability.Counter
	cleanups  observability.Counter
}

// CacheOption configures the cache engine.
type CacheOption[V any] func(*CacheEngine[V])

// WithDurableStore attaches a durable tier backend. The engine only uses
// it when the configuration enables the durable tier.
func WithDurableStore[V any](store cache.DurableStore) CacheOption[V] {
	return func(e *CacheEngine[V]) {
		e.store = store
	}
}

// WithCacheMeter attaches a metrics meter. Defaults to a noop meter.
func WithCacheMeter[V any](meter observability.Meter) CacheOption[V] {
	return func(e *CacheEngine[V]) {
		e.hits = meter.Counter(observability.MetricCacheHits, "cache hits")
		e.misses = meter.Counter(observability.MetricCacheMisses, "cache misses")
		e.evictions = meter.Counter(observability.MetricCacheEvictions, "cache evictions")
		e.cleanups = meter.Counter(observability.MetricCacheCleanups, "entries removed by cleanup sweeps")
	}
}

// NewCacheEngine creates a cache engine with the given configuration.
// The configuration is validated here, not inside operations.
func NewCacheEngine[V any](cfg cache.Config, opts ...CacheOption[V]) (*CacheEngine[V], error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	now := time.Now()
	e := &CacheEngine[V]{
		cfg:     cfg,
		items:   make(map[string]*memRecord[V]),
		durKeys: make(map[string]int64),
		stats:   cache.NewStatistics(now),
		rng:     rand.New(rand.NewSource(now.UnixNano())),
	}
	WithCacheMeter[V](observability.NewNoopMeter())(e)
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Initialize prepares the durable tier and starts the background cleanup
// task. It is idempotent and must be called before any other operation.
func (e *CacheEngine[V]) Initialize(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.initialized {
		return nil
	}

	if e.durableEnabled() {
		if err := e.store.Create(ctx); err != nil {
			return fmt.Errorf("create durable store: %w", err)
		}
		names, err := e.store.List(ctx)
		if err == nil {
			for _, name := range names {
				e.durKeys[name] = 0
			}
		}
	}

	e.initialized = true

	if e.cfg.AutoCleanupEnabled {
		e.startCleanupLocked()
	}

	logging.Debug().
		Add(logging.Component("cache")).
		Add(logging.Policy(string(e.cfg.EvictionPolicy))).
		Msg("cache engine initialized")
	return nil
}

// Close stops the cleanup task and marks the engine uninitialized, so
// further calls fail fast instead of racing a cancelled timer.
func (e *CacheEngine[V]) Close() error {
	e.mu.Lock()
	if !e.initialized {
		e.mu.Unlock()
		return nil
	}
	e.initialized = false
	e.stopCleanupLocked()
	e.mu.Unlock()

	e.wg.Wait()
	return nil
}

// Get retrieves a value by key, consulting the memory tier first and
// falling back to the durable tier. A miss is a normal outcome, not an
// error. Durable hits are promoted into memory.
func (e *CacheEngine[V]) Get(ctx context.Context, key string) (V, bool, error) {
	var zero V
	if err := ctx.Err(); err != nil {
		return zero, false, err
	}

	now := time.Now()

	e.mu.Lock()
	if !e.initialized {
		e.mu.Unlock()
		return zero, false, cache.ErrNotInitialized
	}

	if e.cfg.MemoryEnabled {
		if rec, ok := e.items[key]; ok {
			if rec.entry.IsExpired(now) {
				e.removeMemoryLocked(key)
			} else {
				rec.entry.Touch(now)
				value := rec.entry.Value
				e.recordStat(func(s cache.Statistics) cache.Statistics { return s.WithHit(now) })
				e.mu.Unlock()
				e.hits.Add(ctx, 1)
				return value, true, nil
			}
		}
	}

	durable := e.durableEnabled()
	e.mu.Unlock()

	if durable {
		if entry, size, ok := e.readDurable(ctx, key, now); ok {
			entry.Touch(now)
			e.mu.Lock()
			if e.initialized && e.cfg.MemoryEnabled {
				e.insertMemoryLocked(ctx, entry, size, now)
			}
			e.recordStat(func(s cache.Statistics) cache.Statistics { return s.WithHit(now) })
			e.mu.Unlock()
			e.hits.Add(ctx, 1)
			return entry.Value, true, nil
		}
	}

	e.mu.Lock()
	e.recordStat(func(s cache.Statistics) cache.Statistics { return s.WithMiss(now) })
	e.mu.Unlock()
	e.misses.Add(ctx, 1)
	return zero, false, nil
}

// Put stores a value in both enabled tiers. The tiers are written
// independently: a durable write failure does not roll back the memory
// write.
func (e *CacheEngine[V]) Put(ctx context.Context, key string, value V, opts PutOptions) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if key == "" {
		return cache.ErrInvalidKey
	}

	ttl := opts.TTL
	if ttl == 0 {
		ttl = e.cfg.DefaultTTL
	}

	now := time.Now()
	entry := cache.NewEntry(key, value, ttl, opts.Metadata)

	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("serialize cache entry: %w", err)
	}
	size := int64(len(data))

	e.mu.Lock()
	if !e.initialized {
		e.mu.Unlock()
		return cache.ErrNotInitialized
	}

	if e.cfg.MemoryEnabled {
		e.insertMemoryLocked(ctx, entry, size, now)
	}
	e.recordStat(func(s cache.Statistics) cache.Statistics { return s.WithPut(now) })
	durable := e.durableEnabled() && e.durableAdmitsLocked(key, size)
	e.mu.Unlock()

	if durable {
		if werr := e.store.Write(ctx, key, data); werr != nil {
			// Memory tier stays authoritative; the durable tier is
			// best-effort.
			logging.Warn().
				Add(logging.Component("cache")).
				Add(logging.CacheKey(key)).
				Add(logging.ErrorField(werr)).
				Msg("durable write failed")
		} else {
			e.mu.Lock()
			e.durBytes += size - e.durKeys[key]
			e.durKeys[key] = size
			e.mu.Unlock()
		}
	}
	return nil
}

// Remove deletes a key from both tiers and reports whether it was
// present in either.
func (e *CacheEngine[V]) Remove(ctx context.Context, key string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	now := time.Now()

	e.mu.Lock()
	if !e.initialized {
		e.mu.Unlock()
		return false, cache.ErrNotInitialized
	}

	_, inMemory := e.items[key]
	if inMemory {
		e.removeMemoryLocked(key)
	}
	_, inDurable := e.durKeys[key]
	present := inMemory || inDurable
	if present {
		e.recordStat(func(s cache.Statistics) cache.Statistics { return s.WithDelete(now) })
	}
	durable := e.durableEnabled()
	e.mu.Unlock()

	if durable {
		e.deleteDurable(ctx, key)
	}
	return present, nil
}

// Clear empties both tiers. Calling Clear on an empty cache is a no-op.
func (e *CacheEngine[V]) Clear(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	now := time.Now()

	e.mu.Lock()
	if !e.initialized {
		e.mu.Unlock()
		return cache.ErrNotInitialized
	}

	e.items = make(map[string]*memRecord[V])
	e.order = nil
	e.bytes = 0
	names := make([]string, 0, len(e.durKeys))
	for name := range e.durKeys {
		names = append(names, name)
	}
	e.recordStat(func(s cache.Statistics) cache.Statistics { return s.WithClear(now) })
	durable := e.durableEnabled()
	e.mu.Unlock()

	if durable {
		for _, name := range names {
			e.deleteDurable(ctx, name)
		}
	}
	return nil
}

// ContainsKey reports whether a live entry exists in either tier. It is
// side-effect-free except for expiry cleanup of the inspected entry.
func (e *CacheEngine[V]) ContainsKey(ctx context.Context, key string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	now := time.Now()

	e.mu.Lock()
	if !e.initialized {
		e.mu.Unlock()
		return false, cache.ErrNotInitialized
	}

	if e.cfg.MemoryEnabled {
		if rec, ok := e.items[key]; ok {
			if !rec.entry.IsExpired(now) {
				e.mu.Unlock()
				return true, nil
			}
			e.removeMemoryLocked(key)
		}
	}
	durable := e.durableEnabled()
	e.mu.Unlock()

	if durable {
		if _, _, ok := e.readDurable(ctx, key, now); ok {
			return true, nil
		}
	}
	return false, nil
}

// Keys returns the union of memory and durable keys.
func (e *CacheEngine[V]) Keys(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.initialized {
		return nil, cache.ErrNotInitialized
	}

	seen := make(map[string]struct{}, len(e.items)+len(e.durKeys))
	keys := make([]string, 0, len(e.items)+len(e.durKeys))
	for k := range e.items {
		seen[k] = struct{}{}
		keys = append(keys, k)
	}
	for k := range e.durKeys {
		if _, ok := seen[k]; !ok {
			keys = append(keys, k)
		}
	}
	return keys, nil
}

// CleanupExpired scans both tiers and removes every expired entry,
// returning the number removed. It is safe to call concurrently with
// other operations.
func (e *CacheEngine[V]) CleanupExpired(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	now := time.Now()
	removed := 0

	e.mu.Lock()
	if !e.initialized {
		e.mu.Unlock()
		return 0, cache.ErrNotInitialized
	}

	for key, rec := range e.items {
		if rec.entry.IsExpired(now) {
			e.removeMemoryLocked(key)
			removed++
		}
	}
	names := make([]string, 0, len(e.durKeys))
	for name := range e.durKeys {
		names = append(names, name)
	}
	durable := e.durableEnabled()
	e.mu.Unlock()

	if durable {
		// Durable I/O happens outside the critical section; readDurable
		// deletes expired and corrupt records as it goes.
		for _, name := range names {
			if _, _, ok := e.readDurable(ctx, name, now); !ok {
				e.mu.Lock()
				if _, tracked := e.durKeys[name]; !tracked {
					removed++
				}
				e.mu.Unlock()
			}
		}
	}

	if removed > 0 {
		e.mu.Lock()
		e.recordStat(func(s cache.Statistics) cache.Statistics { return s.WithEvictions(removed, now) })
		e.mu.Unlock()
		e.cleanups.Add(ctx, int64(removed))

		logging.Debug().
			Add(logging.Component("cache")).
			Add(logging.Removed(removed)).
			Msg("expired entries removed")
	}
	return removed, nil
}

// Statistics returns the current snapshot merged with live tier sizes.
func (e *CacheEngine[V]) Statistics() cache.Statistics {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.stats.WithSizes(len(e.items), e.bytes, len(e.durKeys), e.durBytes)
}

// ResetStatistics starts a fresh statistics epoch.
func (e *CacheEngine[V]) ResetStatistics() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.stats = cache.NewStatistics(time.Now())
}

// Reconfigure replaces the configuration. The cleanup task is restarted
// to pick up a changed interval, and the memory tier is shrunk if the
// new capacity is smaller.
func (e *CacheEngine[V]) Reconfigure(cfg cache.Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	restart := e.initialized &&
		(cfg.AutoCleanupEnabled != e.cfg.AutoCleanupEnabled || cfg.CleanupInterval != e.cfg.CleanupInterval)

	e.cfg = cfg

	if cfg.MaxMemoryEntries > 0 && len(e.items) > cfg.MaxMemoryEntries {
		n := e.evictLocked(len(e.items) - cfg.MaxMemoryEntries)
		e.recordStat(func(s cache.Statistics) cache.Statistics { return s.WithEvictions(n, time.Now()) })
	}

	if restart {
		e.stopCleanupLocked()
		if cfg.AutoCleanupEnabled {
			e.startCleanupLocked()
		}
	}
	return nil
}

// Config returns the current configuration.
func (e *CacheEngine[V]) Config() cache.Config {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cfg
}

func (e *CacheEngine[V]) durableEnabled() bool {
	return e.cfg.DurableEnabled && e.store != nil
}

// durableAdmitsLocked applies the durable capacity caps. The durable
// tier is best-effort: writes over capacity are skipped, not evicted.
func (e *CacheEngine[V]) durableAdmitsLocked(key string, size int64) bool {
	if _, exists := e.durKeys[key]; exists {
		return true
	}
	if e.cfg.MaxDurableEntries > 0 && len(e.durKeys) >= e.cfg.MaxDurableEntries {
		return false
	}
	if e.cfg.MaxDurableBytes > 0 && e.durBytes+size > e.cfg.MaxDurableBytes {
		return false
	}
	return true
}

// readDurable reads and decodes one durable record. Expired and corrupt
// records are deleted and reported as absent; I/O errors are swallowed
// and reported as absent (the record may still exist).
func (e *CacheEngine[V]) readDurable(ctx context.Context, key string, now time.Time) (cache.Entry[V], int64, bool) {
	data, err := e.store.Read(ctx, key)
	if err != nil {
		return cache.Entry[V]{}, 0, false
	}

	var entry cache.Entry[V]
	if err := json.Unmarshal(data, &entry); err != nil {
		logging.Warn().
			Add(logging.Component("cache")).
			Add(logging.CacheKey(key)).
			Add(logging.ErrorField(cache.ErrCorruptRecord)).
			Msg("deleting undecodable durable record")
		e.deleteDurable(ctx, key)
		return cache.Entry[V]{}, 0, false
	}
	if entry.IsExpired(now) {
		e.deleteDurable(ctx, key)
		return cache.Entry[V]{}, 0, false
	}
	return entry, int64(len(data)), true
}

func (e *CacheEngine[V]) deleteDurable(ctx context.Context, key string) {
	if err := e.store.Delete(ctx, key); err != nil {
		logging.Warn().
			Add(logging.Component("cache")).
			Add(logging.CacheKey(key)).
			Add(logging.ErrorField(err)).
			Msg("durable delete failed")
	}
	e.mu.Lock()
	if size, ok := e.durKeys[key]; ok {
		e.durBytes -= size
		delete(e.durKeys, key)
	}
	e.mu.Unlock()
}

// insertMemoryLocked admits an entry into the memory tier, evicting per
// policy first when at capacity.
func (e *CacheEngine[V]) insertMemoryLocked(ctx context.Context, entry cache.Entry[V], size int64, now time.Time) {
	if old, exists := e.items[entry.Key]; exists {
		e.bytes -= old.size
		old.entry = entry
		old.size = size
		e.bytes += size
		return
	}

	evicted := 0
	if e.cfg.MaxMemoryEntries > 0 && len(e.items) >= e.cfg.MaxMemoryEntries {
		evicted += e.evictLocked(len(e.items) + 1 - e.cfg.MaxMemoryEntries)
	}
	if e.cfg.MaxMemoryBytes > 0 {
		for e.bytes+size > e.cfg.MaxMemoryBytes && len(e.items) > 0 {
			evicted += e.evictLocked(1)
		}
	}
	if evicted > 0 {
		e.recordStat(func(s cache.Statistics) cache.Statistics { return s.WithEvictions(evicted, now) })
		e.evictions.Add(ctx, int64(evicted))
	}

	e.items[entry.Key] = &memRecord[V]{entry: entry, size: size}
	e.order = append(e.order, entry.Key)
	e.bytes += size
}

// evictLocked removes n victims chosen by the configured policy and
// returns how many were removed.
func (e *CacheEngine[V]) evictLocked(n int) int {
	candidates := make([]cache.Candidate, 0, len(e.order))
	for _, key := range e.order {
		rec := e.items[key]
		candidates = append(candidates, cache.Candidate{
			Key:            key,
			CreatedAt:      rec.entry.CreatedAt,
			ExpiresAt:      rec.entry.ExpiresAt,
			LastAccessedAt: rec.entry.LastAccessedAt,
			AccessCount:    rec.entry.AccessCount,
		})
	}

	victims := cache.SelectVictims(e.cfg.EvictionPolicy, candidates, n, e.rng)
	for _, key := range victims {
		e.removeMemoryLocked(key)
	}
	return len(victims)
}

func (e *CacheEngine[V]) removeMemoryLocked(key string) {
	rec, ok := e.items[key]
	if !ok {
		return
	}
	e.bytes -= rec.size
	delete(e.items, key)
	for i, k := range e.order {
		if k == key {
			e.order = append(e.order[:i], e.order[i+1:]...)
			break
		}
	}
}

// recordStat applies a copy-on-write statistics update when statistics
// are enabled. Callers hold the engine lock.
func (e *CacheEngine[V]) recordStat(update func(cache.Statistics) cache.Statistics) {
	if !e.cfg.StatisticsEnabled {
		return
	}
	e.stats = update(e.stats)
}

func (e *CacheEngine[V]) startCleanupLocked() {
	stop := make(chan struct{})
	e.stop = stop
	interval := e.cfg.CleanupInterval

	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				if _, err := e.CleanupExpired(context.Background()); err != nil {
					return
				}
			}
		}
	}()
}

func (e *CacheEngine[V]) stopCleanupLocked() {
	if e.stop != nil {
		close(e.stop)
		e.stop = nil
	}
}
