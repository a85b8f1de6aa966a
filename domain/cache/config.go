package cache

import (
	"fmt"
	"time"
)

// EvictionPolicy selects how victims are chosen when a tier is full.
type EvictionPolicy string

const (
	// EvictLRU evicts the least recently accessed entries first.
	EvictLRU EvictionPolicy = "lru"
	// EvictLFU evicts the least frequently accessed entries first.
	EvictLFU EvictionPolicy = "lfu"
	// EvictFIFO evicts the oldest entries first.
	EvictFIFO EvictionPolicy = "fifo"
	// EvictTTL evicts the entries closest to expiry first.
	// Entries without an expiry are evicted last.
	EvictTTL EvictionPolicy = "ttl"
	// EvictRandom evicts uniformly random entries.
	EvictRandom EvictionPolicy = "random"
)

// Valid reports whether the policy is one of the supported values.
func (p EvictionPolicy) Valid() bool {
	switch p {
	case EvictLRU, EvictLFU, EvictFIFO, EvictTTL, EvictRandom:
		return true
	}
	return false
}

// Config holds the cache engine configuration. It is set once at engine
// construction and replaced wholesale via Reconfigure.
// A limit of zero means unlimited for that dimension.
type Config struct {
	// MaxMemoryEntries caps the number of entries in the memory tier.
	MaxMemoryEntries int
	// MaxMemoryBytes caps the serialized size of the memory tier.
	MaxMemoryBytes int64
	// MaxDurableEntries caps the number of records in the durable tier.
	MaxDurableEntries int
	// MaxDurableBytes caps the serialized size of the durable tier.
	MaxDurableBytes int64

	// DefaultTTL applies to entries put without an explicit TTL.
	// Zero means no default expiry.
	DefaultTTL time.Duration

	// CleanupInterval is the period of the background expiry sweep.
	CleanupInterval time.Duration

	MemoryEnabled      bool
	DurableEnabled     bool
	AutoCleanupEnabled bool
	StatisticsEnabled  bool

	EvictionPolicy EvictionPolicy
}

// DefaultConfig returns a configuration with sensible defaults:
// memory tier only, LRU eviction, five minute cleanup.
func DefaultConfig() Config {
	return Config{
		MaxMemoryEntries:   1000,
		CleanupInterval:    5 * time.Minute,
		MemoryEnabled:      true,
		AutoCleanupEnabled: true,
		StatisticsEnabled:  true,
		EvictionPolicy:     EvictLRU,
	}
}

// Validate rejects invalid configurations at construction time.
func (c Config) Validate() error {
	if c.MaxMemoryEntries < 0 {
		return fmt.Errorf("%w: max memory entries must be >= 0, got %d", ErrInvalidConfig, c.MaxMemoryEntries)
	}
	if c.MaxMemoryBytes < 0 {
		return fmt.Errorf("%w: max memory bytes must be >= 0, got %d", ErrInvalidConfig, c.MaxMemoryBytes)
	}
	if c.MaxDurableEntries < 0 {
		return fmt.Errorf("%w: max durable entries must be >= 0, got %d", ErrInvalidConfig, c.MaxDurableEntries)
	}
	if c.MaxDurableBytes < 0 {
		return fmt.Errorf("%w: max durable bytes must be >= 0, got %d", ErrInvalidConfig, c.MaxDurableBytes)
	}
	if c.DefaultTTL < 0 {
		return fmt.Errorf("%w: default TTL must be >= 0, got %v", ErrInvalidConfig, c.DefaultTTL)
	}
	if c.CleanupInterval < 0 {
		return fmt.Errorf("%w: cleanup interval must be >= 0, got %v", ErrInvalidConfig, c.CleanupInterval)
	}
	if c.AutoCleanupEnabled && c.CleanupInterval == 0 {
		return fmt.Errorf("%w: auto cleanup requires a cleanup interval", ErrInvalidConfig)
	}
	if !c.EvictionPolicy.Valid() {
		return fmt.Errorf("%w: unknown eviction policy %q", ErrInvalidConfig, c.EvictionPolicy)
	}
	if !c.MemoryEnabled && !c.DurableEnabled {
		return fmt.Errorf("%w: at least one tier must be enabled", ErrInvalidConfig)
	}
	return nil
}
