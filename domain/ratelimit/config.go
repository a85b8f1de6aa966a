package ratelimit

import (
	"fmt"
	"time"
)

// Algorithm selects how request history is counted against the limit.
type Algorithm string

const (
	// FixedWindow counts requests in clock-aligned windows.
	FixedWindow Algorithm = "fixed_window"
	// SlidingWindow counts requests in the trailing window.
	SlidingWindow Algorithm = "sliding_window"
	// TokenBucket accrues tokens continuously up to BurstCapacity.
	TokenBucket Algorithm = "token_bucket"
	// LeakyBucket drains a queue at a constant rate up to BurstCapacity.
	LeakyBucket Algorithm = "leaky_bucket"
)

// Valid reports whether the algorithm is one of the supported values.
func (a Algorithm) Valid() bool {
	switch a {
	case FixedWindow, SlidingWindow, TokenBucket, LeakyBucket:
		return true
	}
	return false
}

// Config holds the rate-limit engine configuration. It is immutable: list
// mutations and UpdateConfig replace the whole value rather than editing
// it in place.
type Config struct {
	// MaxRequests allowed per WindowDuration.
	MaxRequests int
	// WindowDuration is the counting window.
	WindowDuration time.Duration
	// BurstCapacity bounds the token/leaky bucket algorithms.
	BurstCapacity int
	// BlockDuration is the base duration of a temporary block.
	BlockDuration time.Duration

	Algorithm Algorithm

	AutoCleanupEnabled bool
	CleanupInterval    time.Duration
	StatisticsEnabled  bool

	// Whitelist identifiers bypass all counting and recording.
	Whitelist map[string]struct{}
	// Blacklist identifiers are always blocked.
	Blacklist map[string]struct{}

	// ProgressivePenalties escalates block durations for repeat
	// violators by PenaltyMultiplier^(violations-1).
	ProgressivePenalties bool
	PenaltyMultiplier    float64
}

// DefaultConfig returns a configuration with sensible defaults: 100
// requests per minute, sliding window, one minute blocks, doubling
// penalties.
func DefaultConfig() Config {
	return Config{
		MaxRequests:          100,
		WindowDuration:       time.Minute,
		BurstCapacity:        100,
		BlockDuration:        time.Minute,
		Algorithm:            SlidingWindow,
		AutoCleanupEnabled:   true,
		CleanupInterval:      5 * time.Minute,
		StatisticsEnabled:    true,
		ProgressivePenalties: true,
		PenaltyMultiplier:    2.0,
	}
}

// Validate rejects invalid configurations at construction or update time.
func (c Config) Validate() error {
	if c.MaxRequests <= 0 {
		return fmt.Errorf("%w: max requests must be > 0, got %d", ErrInvalidConfig, c.MaxRequests)
	}
	if c.WindowDuration <= 0 {
		return fmt.Errorf("%w: window duration must be > 0, got %v", ErrInvalidConfig, c.WindowDuration)
	}
	if c.BurstCapacity < 0 {
		return fmt.Errorf("%w: burst capacity must be >= 0, got %d", ErrInvalidConfig, c.BurstCapacity)
	}
	if c.BlockDuration < 0 {
		return fmt.Errorf("%w: block duration must be >= 0, got %v", ErrInvalidConfig, c.BlockDuration)
	}
	if !c.Algorithm.Valid() {
		return fmt.Errorf("%w: unknown algorithm %q", ErrInvalidConfig, c.Algorithm)
	}
	if c.AutoCleanupEnabled && c.CleanupInterval <= 0 {
		return fmt.Errorf("%w: auto cleanup requires a cleanup interval", ErrInvalidConfig)
	}
	if c.PenaltyMultiplier != 0 && c.PenaltyMultiplier < 1.0 {
		return fmt.Errorf("%w: penalty multiplier must be >= 1.0, got %v", ErrInvalidConfig, c.PenaltyMultiplier)
	}
	return nil
}

// Clone returns a deep copy, so a mutated copy can replace the original
// without aliasing the list sets.
func (c Config) Clone() Config {
	out := c
	out.Whitelist = cloneSet(c.Whitelist)
	out.Blacklist = cloneSet(c.Blacklist)
	return out
}

// IsWhitelisted reports membership in the whitelist.
func (c Config) IsWhitelisted(identifier string) bool {
	_, ok := c.Whitelist[identifier]
	return ok
}

// IsBlacklisted reports membership in the blacklist.
func (c Config) IsBlacklisted(identifier string) bool {
	_, ok := c.Blacklist[identifier]
	return ok
}

func cloneSet(s map[string]struct{}) map[string]struct{} {
	out := make(map[string]struct{}, len(s))
	for k := range s {
		out[k] = struct{}{}
	}
	return out
}

// NewSet builds an identifier set from a list, for config construction.
func NewSet(ids ...string) map[string]struct{} {
	s := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}
