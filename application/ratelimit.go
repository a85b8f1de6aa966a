package application

import (
	"context"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/bulwarklib/bulwark/domain/ratelimit"
	"github.com/bulwarklib/bulwark/infrastructure/logging"
	"github.com/bulwarklib/bulwark/infrastructure/observability"
)

// defaultIdleAfter is how long an unblocked identifier with no remaining
// history is kept before the cleanup sweep purges it.
const defaultIdleAfter = 24 * time.Hour

// bucketState carries the continuous counters for the token and leaky
// bucket algorithms. One per identifier, purged together with its entry.
type bucketState struct {
	tokens     float64
	level      float64
	lastUpdate time.Time
}

// RateLimitEngine decides, per identifier, whether a request is allowed,
// applying blacklist/whitelist overrides, temporary and permanent blocks,
// progressive penalties, and the configured counting algorithm.
//
// State is guarded by a single table lock: simple, and it guarantees that
// concurrent checks for one identifier cannot admit more than the limit.
type RateLimitEngine struct {
	mu        sync.Mutex
	cfg       ratelimit.Config
	entries   map[string]*ratelimit.Entry
	buckets   map[string]*bucketState
	stats     ratelimit.Statistics
	idleAfter time.Duration

	initialized bool
	stop        chan struct{}
	wg          sync.WaitGroup

	allowed    observability.Counter
	blocked    observability.Counter
	violations observability.Counter
	cleanups   observability.Counter
}

// RateLimitOption configures the rate-limit engine.
type RateLimitOption func(*RateLimitEngine)

// WithRateLimitMeter attaches a metrics meter. Defaults to a noop meter.
func WithRateLimitMeter(meter observability.Meter) RateLimitOption {
	return func(e *RateLimitEngine) {
		e.allowed = meter.Counter(observability.MetricLimitAllowed, "allowed rate limit checks")
		e.blocked = meter.Counter(observability.MetricLimitBlocked, "blocked rate limit checks")
		e.violations = meter.Counter(observability.MetricLimitViolations, "rate limit violations")
		e.cleanups = meter.Counter(observability.MetricLimitCleanups, "entries removed by cleanup sweeps")
	}
}

// WithIdlePurgeAfter overrides the idle threshold after which quiet,
// unblocked identifiers are purged by the cleanup sweep.
func WithIdlePurgeAfter(d time.Duration) RateLimitOption {
	return func(e *RateLimitEngine) {
		e.idleAfter = d
	}
}

// NewRateLimitEngine creates a rate-limit engine with the given
// configuration. The configuration is validated here, not inside
// operations.
func NewRateLimitEngine(cfg ratelimit.Config, opts ...RateLimitOption) (*RateLimitEngine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	e := &RateLimitEngine{
		cfg:       cfg.Clone(),
		entries:   make(map[string]*ratelimit.Entry),
		buckets:   make(map[string]*bucketState),
		stats:     ratelimit.NewStatistics(time.Now()),
		idleAfter: defaultIdleAfter,
	}
	WithRateLimitMeter(observability.NewNoopMeter())(e)
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Initialize starts the background cleanup task. It is idempotent and
// must be called before any other operation.
func (e *RateLimitEngine) Initialize(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.initialized {
		return nil
	}
	e.initialized = true

	if e.cfg.AutoCleanupEnabled {
		e.startCleanupLocked()
	}

	logging.Debug().
		Add(logging.Component("ratelimit")).
		Add(logging.Algorithm(string(e.cfg.Algorithm))).
		Msg("rate limit engine initialized")
	return nil
}

// Dispose stops the cleanup task and marks the engine uninitialized, so
// further calls fail fast with ratelimit.ErrNotInitialized.
func (e *RateLimitEngine) Dispose() error {
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

// CheckRequest evaluates a request for an identifier. The evaluation
// order is strict: blacklist, whitelist, active block, then the
// configured algorithm; the outcome is recorded against the identifier's
// history unless the identifier is listed.
func (e *RateLimitEngine) CheckRequest(ctx context.Context, identifier string, metadata map[string]string) (ratelimit.Result, error) {
	if err := ctx.Err(); err != nil {
		return ratelimit.Result{}, err
	}
	if identifier == "" {
		return ratelimit.Result{}, ratelimit.ErrInvalidIdentifier
	}

	now := time.Now()

	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.initialized {
		return ratelimit.Result{}, ratelimit.ErrNotInitialized
	}

	if e.cfg.IsBlacklisted(identifier) {
		e.recordStat(func(s ratelimit.Statistics) ratelimit.Statistics { return s.WithBlocked(now) })
		e.blocked.Add(ctx, 1)
		return ratelimit.Result{
			Allowed: false,
			Reason:  ratelimit.ReasonBlacklisted,
			Limit:   e.cfg.MaxRequests,
		}, nil
	}

	if e.cfg.IsWhitelisted(identifier) {
		e.recordStat(func(s ratelimit.Statistics) ratelimit.Statistics { return s.WithAllowed(now) })
		e.allowed.Add(ctx, 1)
		return ratelimit.Result{
			Allowed:   true,
			Remaining: e.cfg.MaxRequests,
			Limit:     e.cfg.MaxRequests,
		}, nil
	}

	entry := e.entryLocked(identifier, now)

	if entry.BlockActive(now) {
		e.recordStat(func(s ratelimit.Statistics) ratelimit.Statistics { return s.WithBlocked(now) })
		e.blocked.Add(ctx, 1)
		return ratelimit.Result{
			Allowed:      false,
			Reason:       ratelimit.ReasonTemporaryBlock,
			Limit:        e.cfg.MaxRequests,
			RetryAfter:   entry.BlockExpiresAt,
			CurrentCount: entry.CountSince(now.Add(-e.cfg.WindowDuration)),
		}, nil
	}

	result := e.evaluateLocked(entry, now, true)
	e.recordLocked(ctx, entry, result.Allowed, metadata, now)

	if result.Allowed {
		e.recordStat(func(s ratelimit.Statistics) ratelimit.Statistics { return s.WithAllowed(now) })
		e.allowed.Add(ctx, 1)
	} else {
		e.recordStat(func(s ratelimit.Statistics) ratelimit.Statistics { return s.WithBlocked(now) })
		e.blocked.Add(ctx, 1)
	}
	return result, nil
}

// RecordRequest records a request outcome for an identifier without
// evaluating it. Whitelisted identifiers accumulate no history.
func (e *RateLimitEngine) RecordRequest(ctx context.Context, identifier string, wasAllowed bool, metadata map[string]string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if identifier == "" {
		return ratelimit.ErrInvalidIdentifier
	}

	now := time.Now()

	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.initialized {
		return ratelimit.ErrNotInitialized
	}
	if e.cfg.IsWhitelisted(identifier) {
		return nil
	}

	entry := e.entryLocked(identifier, now)
	e.recordLocked(ctx, entry, wasAllowed, metadata, now)

	if wasAllowed {
		e.recordStat(func(s ratelimit.Statistics) ratelimit.Statistics { return s.WithAllowed(now) })
	} else {
		e.recordStat(func(s ratelimit.Statistics) ratelimit.Statistics { return s.WithBlocked(now) })
	}
	return nil
}

// GetStatus returns the current state for an identifier without
// recording a request. Unknown identifiers report a full quota.
func (e *RateLimitEngine) GetStatus(ctx context.Context, identifier string) (ratelimit.Result, error) {
	if err := ctx.Err(); err != nil {
		return ratelimit.Result{}, err
	}
	if identifier == "" {
		return ratelimit.Result{}, ratelimit.ErrInvalidIdentifier
	}

	now := time.Now()

	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.initialized {
		return ratelimit.Result{}, ratelimit.ErrNotInitialized
	}

	if e.cfg.IsBlacklisted(identifier) {
		return ratelimit.Result{
			Allowed: false,
			Reason:  ratelimit.ReasonBlacklisted,
			Limit:   e.cfg.MaxRequests,
		}, nil
	}
	if e.cfg.IsWhitelisted(identifier) {
		return ratelimit.Result{
			Allowed:   true,
			Remaining: e.cfg.MaxRequests,
			Limit:     e.cfg.MaxRequests,
		}, nil
	}

	entry, ok := e.entries[identifier]
	if !ok {
		return ratelimit.Result{
			Allowed:   true,
			Remaining: e.cfg.MaxRequests,
			Limit:     e.cfg.MaxRequests,
		}, nil
	}

	if entry.BlockActive(now) {
		return ratelimit.Result{
			Allowed:      false,
			Reason:       ratelimit.ReasonTemporaryBlock,
			Limit:        e.cfg.MaxRequests,
			RetryAfter:   entry.BlockExpiresAt,
			CurrentCount: entry.CountSince(now.Add(-e.cfg.WindowDuration)),
		}, nil
	}
	return e.evaluateLocked(entry, now, false), nil
}

// BlockIdentifier applies an administrative block. A zero duration uses
// the configured block duration; a negative duration blocks until the
// identifier is unblocked manually.
func (e *RateLimitEngine) BlockIdentifier(ctx context.Context, identifier string, duration time.Duration, reason string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if identifier == "" {
		return ratelimit.ErrInvalidIdentifier
	}

	now := time.Now()

	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.initialized {
		return ratelimit.ErrNotInitialized
	}

	if duration == 0 {
		duration = e.cfg.BlockDuration
	}
	var expiresAt time.Time
	if duration > 0 {
		expiresAt = now.Add(duration)
	}

	entry := e.entryLocked(identifier, now)
	entry.Block(expiresAt, now)

	logging.Info().
		Add(logging.Component("ratelimit")).
		Add(logging.Identifier(identifier)).
		Add(logging.Reason(reason)).
		Add(logging.BlockedUntil(expiresAt)).
		Msg("identifier blocked")
	return nil
}

// UnblockIdentifier clears an identifier's block state; unknown or
// unblocked identifiers are a no-op.
func (e *RateLimitEngine) UnblockIdentifier(ctx context.Context, identifier string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.initialized {
		return ratelimit.ErrNotInitialized
	}

	entry, ok := e.entries[identifier]
	if !ok || !entry.Blocked {
		return nil
	}
	entry.Unblock(time.Now())

	logging.Info().
		Add(logging.Component("ratelimit")).
		Add(logging.Identifier(identifier)).
		Msg("identifier unblocked")
	return nil
}

// AddToWhitelist adds an identifier to the whitelist. The configuration
// is replaced, not mutated, so outstanding references stay valid.
func (e *RateLimitEngine) AddToWhitelist(identifier string) {
	e.mutateConfig(func(cfg *ratelimit.Config) {
		if cfg.Whitelist == nil {
			cfg.Whitelist = make(map[string]struct{})
		}
		cfg.Whitelist[identifier] = struct{}{}
	})
}

// RemoveFromWhitelist removes an identifier from the whitelist.
func (e *RateLimitEngine) RemoveFromWhitelist(identifier string) {
	e.mutateConfig(func(cfg *ratelimit.Config) {
		delete(cfg.Whitelist, identifier)
	})
}

// AddToBlacklist adds an identifier to the blacklist.
func (e *RateLimitEngine) AddToBlacklist(identifier string) {
	e.mutateConfig(func(cfg *ratelimit.Config) {
		if cfg.Blacklist == nil {
			cfg.Blacklist = make(map[string]struct{})
		}
		cfg.Blacklist[identifier] = struct{}{}
	})
}

// RemoveFromBlacklist removes an identifier from the blacklist.
func (e *RateLimitEngine) RemoveFromBlacklist(identifier string) {
	e.mutateConfig(func(cfg *ratelimit.Config) {
		delete(cfg.Blacklist, identifier)
	})
}

// IsWhitelisted reports whitelist membership.
func (e *RateLimitEngine) IsWhitelisted(identifier string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cfg.IsWhitelisted(identifier)
}

// IsBlacklisted reports blacklist membership.
func (e *RateLimitEngine) IsBlacklisted(identifier string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cfg.IsBlacklisted(identifier)
}

// GetBlockedIdentifiers returns all identifiers inside an active block
// window, sorted for determinism.
func (e *RateLimitEngine) GetBlockedIdentifiers() []string {
	now := time.Now()

	e.mu.Lock()
	defer e.mu.Unlock()

	ids := make([]string, 0)
	for id, entry := range e.entries {
		if entry.BlockActive(now) {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

// Clear drops all per-identifier state. Configuration is untouched.
func (e *RateLimitEngine) Clear() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.entries = make(map[string]*ratelimit.Entry)
	e.buckets = make(map[string]*bucketState)
}

// CleanupExpired clears lapsed blocks, prunes timestamps outside the
// current window, and deletes identifiers that have been idle past the
// idle threshold. It returns the number of fully deleted entries.
func (e *RateLimitEngine) CleanupExpired(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	now := time.Now()

	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.initialized {
		return 0, ratelimit.ErrNotInitialized
	}

	windowCutoff := now.Add(-e.cfg.WindowDuration)
	idleCutoff := now.Add(-e.idleAfter)
	removed := 0

	for id, entry := range e.entries {
		if entry.Blocked && !entry.BlockExpiresAt.IsZero() && !now.Before(entry.BlockExpiresAt) {
			entry.Unblock(now)
		}
		entry.PruneBefore(windowCutoff)
		if entry.Idle(idleCutoff) {
			delete(e.entries, id)
			delete(e.buckets, id)
			removed++
		}
	}

	if removed > 0 {
		e.cleanups.Add(ctx, int64(removed))
		logging.Debug().
			Add(logging.Component("ratelimit")).
			Add(logging.Removed(removed)).
			Msg("idle identifiers purged")
	}
	return removed, nil
}

// GetStatistics returns the current snapshot merged with live gauges.
func (e *RateLimitEngine) GetStatistics() ratelimit.Statistics {
	now := time.Now()

	e.mu.Lock()
	defer e.mu.Unlock()

	currently, permanently := 0, 0
	offenders := make([]ratelimit.BlockedIdentifier, 0, len(e.entries))
	for id, entry := range e.entries {
		if entry.BlockActive(now) {
			currently++
			if entry.BlockExpiresAt.IsZero() {
				permanently++
			}
		}
		if entry.ViolationCount > 0 {
			offenders = append(offenders, ratelimit.BlockedIdentifier{
				Identifier: id,
				Violations: entry.ViolationCount,
			})
		}
	}
	sort.Slice(offenders, func(i, j int) bool {
		if offenders[i].Violations != offenders[j].Violations {
			return offenders[i].Violations > offenders[j].Violations
		}
		return offenders[i].Identifier < offenders[j].Identifier
	})
	if len(offenders) > 10 {
		offenders = offenders[:10]
	}

	return e.stats.WithGauges(currently, permanently, len(e.entries), offenders)
}

// ResetStatistics starts a fresh statistics epoch.
func (e *RateLimitEngine) ResetStatistics() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.stats = ratelimit.NewStatistics(time.Now())
}

// UpdateConfig replaces the configuration. The cleanup task is restarted
// to pick up a changed interval.
func (e *RateLimitEngine) UpdateConfig(cfg ratelimit.Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	restart := e.initialized &&
		(cfg.AutoCleanupEnabled != e.cfg.AutoCleanupEnabled || cfg.CleanupInterval != e.cfg.CleanupInterval)

	e.cfg = cfg.Clone()

	if restart {
		e.stopCleanupLocked()
		if e.cfg.AutoCleanupEnabled {
			e.startCleanupLocked()
		}
	}
	return nil
}

// GetConfig returns a copy of the current configuration.
func (e *RateLimitEngine) GetConfig() ratelimit.Config {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cfg.Clone()
}

func (e *RateLimitEngine) mutateConfig(mutate func(*ratelimit.Config)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	cfg := e.cfg.Clone()
	mutate(&cfg)
	e.cfg = cfg
}

func (e *RateLimitEngine) entryLocked(identifier string, now time.Time) *ratelimit.Entry {
	entry, ok := e.entries[identifier]
	if !ok {
		entry = ratelimit.NewEntry(identifier, now)
		e.entries[identifier] = entry
	}
	return entry
}

// recordLocked appends the request to the identifier's history and
// applies violation accounting, escalating to a progressive-penalty
// block for repeat violators.
func (e *RateLimitEngine) recordLocked(ctx context.Context, entry *ratelimit.Entry, wasAllowed bool, metadata map[string]string, now time.Time) {
	entry.Record(now)
	if len(metadata) > 0 {
		if entry.Metadata == nil {
			entry.Metadata = make(map[string]string, len(metadata))
		}
		for k, v := range metadata {
			entry.Metadata[k] = v
		}
	}

	if wasAllowed {
		return
	}

	entry.ViolationCount++
	e.recordStat(func(s ratelimit.Statistics) ratelimit.Statistics { return s.WithViolation(now) })
	e.violations.Add(ctx, 1)

	if e.cfg.ProgressivePenalties && entry.ViolationCount > 1 && e.cfg.BlockDuration > 0 {
		multiplier := e.cfg.PenaltyMultiplier
		if multiplier < 1 {
			multiplier = 1
		}
		scale := math.Pow(multiplier, float64(entry.ViolationCount-1))
		duration := time.Duration(math.Round(float64(e.cfg.BlockDuration) * scale))
		entry.Block(now.Add(duration), now)

		logging.Warn().
			Add(logging.Component("ratelimit")).
			Add(logging.Identifier(entry.Identifier)).
			Add(logging.Violations(entry.ViolationCount)).
			Add(logging.Duration(duration)).
			Msg("progressive penalty applied")
	}
}

// evaluateLocked runs the configured algorithm. With consume=false it is
// a pure projection; with consume=true the bucket algorithms spend a
// token (window algorithms consume via the subsequent record).
func (e *RateLimitEngine) evaluateLocked(entry *ratelimit.Entry, now time.Time, consume bool) ratelimit.Result {
	switch e.cfg.Algorithm {
	case ratelimit.FixedWindow:
		return e.fixedWindowLocked(entry, now)
	case ratelimit.TokenBucket:
		return e.tokenBucketLocked(entry, now, consume)
	case ratelimit.LeakyBucket:
		return e.leakyBucketLocked(entry, now, consume)
	default:
		return e.slidingWindowLocked(entry, now)
	}
}

func (e *RateLimitEngine) slidingWindowLocked(entry *ratelimit.Entry, now time.Time) ratelimit.Result {
	count := entry.CountSince(now.Add(-e.cfg.WindowDuration))
	result := ratelimit.Result{
		Allowed:      count < e.cfg.MaxRequests,
		Remaining:    clampNonNegative(e.cfg.MaxRequests - count),
		Limit:        e.cfg.MaxRequests,
		CurrentCount: count,
	}
	if !result.Allowed {
		result.Reason = ratelimit.ReasonRateLimitExceeded
		result.Remaining = 0
		if oldest, ok := e.oldestInWindow(entry, now); ok {
			result.RetryAfter = oldest.Add(e.cfg.WindowDuration)
		}
	}
	return result
}

func (e *RateLimitEngine) fixedWindowLocked(entry *ratelimit.Entry, now time.Time) ratelimit.Result {
	boundary := now.Truncate(e.cfg.WindowDuration)
	count := entry.CountSince(boundary)
	result := ratelimit.Result{
		Allowed:       count < e.cfg.MaxRequests,
		Remaining:     clampNonNegative(e.cfg.MaxRequests - count),
		Limit:         e.cfg.MaxRequests,
		WindowResetAt: boundary.Add(e.cfg.WindowDuration),
		CurrentCount:  count,
	}
	if !result.Allowed {
		result.Reason = ratelimit.ReasonRateLimitExceeded
		result.Remaining = 0
		result.RetryAfter = result.WindowResetAt
	}
	return result
}

func (e *RateLimitEngine) tokenBucketLocked(entry *ratelimit.Entry, now time.Time, consume bool) ratelimit.Result {
	bucket := e.bucketLocked(entry.Identifier, now)
	rate := e.refillRate()
	capacity := e.bucketCapacity()

	elapsed := now.Sub(bucket.lastUpdate).Seconds()
	bucket.tokens = math.Min(float64(capacity), bucket.tokens+elapsed*rate)
	bucket.lastUpdate = now

	result := ratelimit.Result{
		Limit:        e.cfg.MaxRequests,
		CurrentCount: entry.CountSince(now.Add(-e.cfg.WindowDuration)),
	}
	if bucket.tokens >= 1 {
		if consume {
			bucket.tokens--
		}
		result.Allowed = true
		result.Remaining = int(bucket.tokens)
		return result
	}

	result.Reason = ratelimit.ReasonBurstExceeded
	result.Remaining = 0
	wait := (1 - bucket.tokens) / rate
	result.RetryAfter = now.Add(time.Duration(wait * float64(time.Second)))
	return result
}

func (e *RateLimitEngine) leakyBucketLocked(entry *ratelimit.Entry, now time.Time, consume bool) ratelimit.Result {
	bucket := e.bucketLocked(entry.Identifier, now)
	rate := e.refillRate()
	capacity := float64(e.bucketCapacity())

	elapsed := now.Sub(bucket.lastUpdate).Seconds()
	bucket.level = math.Max(0, bucket.level-elapsed*rate)
	bucket.lastUpdate = now

	result := ratelimit.Result{
		Limit:        e.cfg.MaxRequests,
		CurrentCount: entry.CountSince(now.Add(-e.cfg.WindowDuration)),
	}
	if bucket.level+1 <= capacity {
		if consume {
			bucket.level++
		}
		result.Allowed = true
		result.Remaining = clampNonNegative(int(capacity - bucket.level))
		return result
	}

	result.Reason = ratelimit.ReasonBurstExceeded
	result.Remaining = 0
	wait := (bucket.level + 1 - capacity) / rate
	result.RetryAfter = now.Add(time.Duration(wait * float64(time.Second)))
	return result
}

// bucketLocked fetches or creates the bucket for an identifier. Token
// buckets start full: a new identifier may burst to capacity.
func (e *RateLimitEngine) bucketLocked(identifier string, now time.Time) *bucketState {
	bucket, ok := e.buckets[identifier]
	if !ok {
		bucket = &bucketState{
			tokens:     float64(e.bucketCapacity()),
			lastUpdate: now,
		}
		e.buckets[identifier] = bucket
	}
	return bucket
}

// refillRate is the sustained rate in requests per second.
func (e *RateLimitEngine) refillRate() float64 {
	return float64(e.cfg.MaxRequests) / e.cfg.WindowDuration.Seconds()
}

func (e *RateLimitEngine) bucketCapacity() int {
	if e.cfg.BurstCapacity > 0 {
		return e.cfg.BurstCapacity
	}
	return e.cfg.MaxRequests
}

func (e *RateLimitEngine) oldestInWindow(entry *ratelimit.Entry, now time.Time) (time.Time, bool) {
	cutoff := now.Add(-e.cfg.WindowDuration)
	for _, ts := range entry.RequestTimestamps {
		if !ts.Before(cutoff) {
			return ts, true
		}
	}
	return time.Time{}, false
}

// recordStat applies a copy-on-write statistics update when statistics
// are enabled. Callers hold the engine lock.
func (e *RateLimitEngine) recordStat(update func(ratelimit.Statistics) ratelimit.Statistics) {
	if !e.cfg.StatisticsEnabled {
		return
	}
	e.stats = update(e.stats)
}

func (e *RateLimitEngine) startCleanupLocked() {
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

func (e *RateLimitEngine) stopCleanupLocked() {
	if e.stop != nil {
		close(e.stop)
		e.stop = nil
	}
}

func clampNonNegative(n int) int {
	if n < 0 {
		return 0
	}
	return n
}
