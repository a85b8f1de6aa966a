package config_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/bulwarklib/bulwark/domain/cache"
	"github.com/bulwarklib/bulwark/domain/ratelimit"
	"github.com/bulwarklib/bulwark/infrastructure/config"
)

const sampleYAML = `
cache:
  max_memory_entries: 500
  default_ttl: 5m
  eviction_policy: lfu
  store:
    backend: badger
    dir: /var/lib/bulwark
    resilient: true
ratelimit:
  max_requests: 60
  window_duration: 1m
  algorithm: token_bucket
  burst_capacity: 100
  whitelist: [health-checker]
logging:
  level: debug
  format: json
`

func TestLoader_YAML(t *testing.T) {
	t.Parallel()

	file, err := config.NewLoader().LoadString(sampleYAML, config.FormatYAML)
	if err != nil {
		t.Fatalf("LoadString: %v", err)
	}

	cacheCfg := file.CacheConfig()
	if cacheCfg.MaxMemoryEntries != 500 {
		t.Errorf("MaxMemoryEntries = %d, want 500", cacheCfg.MaxMemoryEntries)
	}
	if cacheCfg.DefaultTTL != 5*time.Minute {
		t.Errorf("DefaultTTL = %v, want 5m", cacheCfg.DefaultTTL)
	}
	if cacheCfg.EvictionPolicy != cache.EvictLFU {
		t.Errorf("EvictionPolicy = %q, want lfu", cacheCfg.EvictionPolicy)
	}

	limitCfg := file.RateLimitConfig()
	if limitCfg.MaxRequests != 60 {
		t.Errorf("MaxRequests = %d, want 60", limitCfg.MaxRequests)
	}
	if limitCfg.Algorithm != ratelimit.TokenBucket {
		t.Errorf("Algorithm = %q, want token_bucket", limitCfg.Algorithm)
	}
	if !limitCfg.IsWhitelisted("health-checker") {
		t.Error("health-checker should be whitelisted")
	}

	if file.Cache.Store.Backend != "badger" || !file.Cache.Store.Resilient {
		t.Errorf("Store = %+v", file.Cache.Store)
	}
	if file.Logging.Level != "debug" || file.Logging.Format != "json" {
		t.Errorf("Logging = %+v", file.Logging)
	}
}

func TestLoader_JSON(t *testing.T) {
	t.Parallel()

	content := `{"ratelimit": {"max_requests": 10, "window_duration": "30s"}}`
	file, err := config.NewLoader().LoadString(content, config.FormatJSON)
	if err != nil {
		t.Fatalf("LoadString: %v", err)
	}

	cfg := file.RateLimitConfig()
	if cfg.MaxRequests != 10 {
		t.Errorf("MaxRequests = %d, want 10", cfg.MaxRequests)
	}
	if cfg.WindowDuration != 30*time.Second {
		t.Errorf("WindowDuration = %v, want 30s", cfg.WindowDuration)
	}
}

func TestLoader_UnsetFieldsKeepDefaults(t *testing.T) {
	t.Parallel()

	file, err := config.NewLoader().LoadString("cache: {max_memory_entries: 5}", config.FormatYAML)
	if err != nil {
		t.Fatalf("LoadString: %v", err)
	}

	defaults := cache.DefaultConfig()
	cfg := file.CacheConfig()
	if cfg.MaxMemoryEntries != 5 {
		t.Errorf("MaxMemoryEntries = %d, want 5", cfg.MaxMemoryEntries)
	}
	if cfg.EvictionPolicy != defaults.EvictionPolicy {
		t.Errorf("EvictionPolicy = %q, want default %q", cfg.EvictionPolicy, defaults.EvictionPolicy)
	}
	if cfg.MemoryEnabled != defaults.MemoryEnabled {
		t.Errorf("MemoryEnabled = %v, want default %v", cfg.MemoryEnabled, defaults.MemoryEnabled)
	}
}

func TestLoader_ExplicitFalseOverridesDefault(t *testing.T) {
	t.Parallel()

	file, err := config.NewLoader().LoadString("cache: {auto_cleanup: false}", config.FormatYAML)
	if err != nil {
		t.Fatalf("LoadString: %v", err)
	}
	if file.CacheConfig().AutoCleanupEnabled {
		t.Error("auto_cleanup: false should disable cleanup")
	}
}

func TestLoader_RejectsInvalidConfig(t *testing.T) {
	t.Parallel()

	_, err := config.NewLoader().LoadString("ratelimit: {max_requests: -1}", config.FormatYAML)
	if err == nil {
		t.Fatal("expected validation error for negative max_requests")
	}
}

func TestLoader_ValidationCanBeDisabled(t *testing.T) {
	t.Parallel()

	loader := config.NewLoaderWithOptions(config.WithValidation(false))
	if _, err := loader.LoadString("ratelimit: {max_requests: -1}", config.FormatYAML); err != nil {
		t.Errorf("LoadString with validation off: %v", err)
	}
}

func TestLoader_RejectsMalformedContent(t *testing.T) {
	t.Parallel()

	_, err := config.NewLoader().LoadString("cache: [not: a: map", config.FormatYAML)
	if !errors.Is(err, config.ErrInvalidFormat) {
		t.Errorf("error = %v, want ErrInvalidFormat", err)
	}
}

func TestLoader_LoadFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(sampleYAML), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	file, err := config.NewLoader().LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if file.Cache.Store.Backend != "badger" {
		t.Errorf("Backend = %q, want badger", file.Cache.Store.Backend)
	}
}

func TestLoader_LoadFileMissing(t *testing.T) {
	t.Parallel()

	_, err := config.NewLoader().LoadFile(filepath.Join(t.TempDir(), "absent.yaml"))
	if !errors.Is(err, config.ErrConfigNotFound) {
		t.Errorf("error = %v, want ErrConfigNotFound", err)
	}
}

func TestLoader_LoadFileUnknownExtension(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("x = 1"), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	_, err := config.NewLoader().LoadFile(path)
	if !errors.Is(err, config.ErrUnsupportedFormat) {
		t.Errorf("error = %v, want ErrUnsupportedFormat", err)
	}
}

func TestDuration_NumberIsNanoseconds(t *testing.T) {
	t.Parallel()

	file, err := config.NewLoader().LoadString(
		`{"cache": {"default_ttl": 60000000000}}`, config.FormatJSON)
	if err != nil {
		t.Fatalf("LoadString: %v", err)
	}
	if got := file.CacheConfig().DefaultTTL; got != time.Minute {
		t.Errorf("DefaultTTL = %v, want 1m", got)
	}
}
