package cache_test

import (
	"errors"
	"testing"

	"github.com/bulwarklib/bulwark/domain/cache"
)

func TestConfig_Validate(t *testing.T) {
	t.Parallel()

	t.Run("default config is valid", func(t *testing.T) {
		t.Parallel()

		if err := cache.DefaultConfig().Validate(); err != nil {
			t.Errorf("Validate() error = %v", err)
		}
	})

	t.Run("negative limits rejected", func(t *testing.T) {
		t.Parallel()

		cfg := cache.DefaultConfig()
		cfg.MaxMemoryEntries = -1
		if err := cfg.Validate(); !errors.Is(err, cache.ErrInvalidConfig) {
			t.Errorf("Validate() error = %v, want ErrInvalidConfig", err)
		}
	})

	t.Run("unknown eviction policy rejected", func(t *testing.T) {
		t.Parallel()

		cfg := cache.DefaultConfig()
		cfg.EvictionPolicy = "weighted"
		if err := cfg.Validate(); !errors.Is(err, cache.ErrInvalidConfig) {
			t.Errorf("Validate() error = %v, want ErrInvalidConfig", err)
		}
	})

	t.Run("auto cleanup requires interval", func(t *testing.T) {
		t.Parallel()

		cfg := cache.DefaultConfig()
		cfg.CleanupInterval = 0
		if err := cfg.Validate(); !errors.Is(err, cache.ErrInvalidConfig) {
			t.Errorf("Validate() error = %v, want ErrInvalidConfig", err)
		}
	})

	t.Run("both tiers disabled rejected", func(t *testing.T) {
		t.Parallel()

		cfg := cache.DefaultConfig()
		cfg.MemoryEnabled = false
		cfg.DurableEnabled = false
		if err := cfg.Validate(); !errors.Is(err, cache.ErrInvalidConfig) {
			t.Errorf("Validate() error = %v, want ErrInvalidConfig", err)
		}
	})
}
