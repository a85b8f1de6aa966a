package ratelimit_test

import (
	"errors"
	"testing"

	"github.com/bulwarklib/bulwark/domain/ratelimit"
)

func TestConfig_Validate(t *testing.T) {
	t.Parallel()

	t.Run("default config is valid", func(t *testing.T) {
		t.Parallel()

		if err := ratelimit.DefaultConfig().Validate(); err != nil {
			t.Errorf("Validate() error = %v", err)
		}
	})

	t.Run("zero max requests rejected", func(t *testing.T) {
		t.Parallel()

		cfg := ratelimit.DefaultConfig()
		cfg.MaxRequests = 0
		if err := cfg.Validate(); !errors.Is(err, ratelimit.ErrInvalidConfig) {
			t.Errorf("Validate() error = %v, want ErrInvalidConfig", err)
		}
	})

	t.Run("unknown algorithm rejected", func(t *testing.T) {
		t.Parallel()

		cfg := ratelimit.DefaultConfig()
		cfg.Algorithm = "grace_window"
		if err := cfg.Validate(); !errors.Is(err, ratelimit.ErrInvalidConfig) {
			t.Errorf("Validate() error = %v, want ErrInvalidConfig", err)
		}
	})

	t.Run("penalty multiplier below one rejected", func(t *testing.T) {
		t.Parallel()

		cfg := ratelimit.DefaultConfig()
		cfg.PenaltyMultiplier = 0.5
		if err := cfg.Validate(); !errors.Is(err, ratelimit.ErrInvalidConfig) {
			t.Errorf("Validate() error = %v, want ErrInvalidConfig", err)
		}
	})
}

func TestConfig_Clone(t *testing.T) {
	t.Parallel()

	cfg := ratelimit.DefaultConfig()
	cfg.Whitelist = ratelimit.NewSet("a")
	cfg.Blacklist = ratelimit.NewSet("b")

	clone := cfg.Clone()
	clone.Whitelist["c"] = struct{}{}
	delete(clone.Blacklist, "b")

	if cfg.IsWhitelisted("c") {
		t.Error("clone whitelist must not alias the original")
	}
	if !cfg.IsBlacklisted("b") {
		t.Error("clone blacklist must not alias the original")
	}
}
