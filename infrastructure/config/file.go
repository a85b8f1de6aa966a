// Package config loads the bulwark configuration file and maps it onto
// the domain configurations.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/bulwarklib/bulwark/domain/cache"
	"github.com/bulwarklib/bulwark/domain/ratelimit"
)

var (
	// ErrConfigNotFound marks a missing configuration file.
	ErrConfigNotFound = errors.New("config: file not found")
	// ErrInvalidFormat marks unparseable configuration content.
	ErrInvalidFormat = errors.New("config: invalid format")
	// ErrUnsupportedFormat marks an unknown file extension.
	ErrUnsupportedFormat = errors.New("config: unsupported format")
	// ErrMissingEnvVar marks a required environment variable that is unset.
	ErrMissingEnvVar = errors.New("config: missing environment variable")
)

// Duration parses from YAML and JSON as a Go duration string ("5m",
// "1h30m") or a number of nanoseconds.
type Duration time.Duration

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw any
	if err := value.Decode(&raw); err != nil {
		return err
	}
	return d.decode(raw)
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *Duration) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	return d.decode(raw)
}

func (d *Duration) decode(raw any) error {
	switch v := raw.(type) {
	case string:
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidFormat, err)
		}
		*d = Duration(parsed)
	case int:
		*d = Duration(v)
	case int64:
		*d = Duration(v)
	case float64:
		*d = Duration(int64(v))
	default:
		return fmt.Errorf("%w: duration must be a string or number", ErrInvalidFormat)
	}
	return nil
}

// StoreConfig selects and configures the durable backend.
type StoreConfig struct {
	// Backend is one of "memory", "filesystem", "badger", "redis",
	// "sqlite", "postgres". Empty means memory.
	Backend string `yaml:"backend" json:"backend"`

	// Dir is the data directory for filesystem and badger backends.
	Dir string `yaml:"dir,omitempty" json:"dir,omitempty"`

	// DSN is the data source name for the sqlite and postgres backends.
	DSN string `yaml:"dsn,omitempty" json:"dsn,omitempty"`

	// Address is the server address for the redis backend.
	Address string `yaml:"address,omitempty" json:"address,omitempty"`

	// Password is the redis password.
	Password string `yaml:"password,omitempty" json:"password,omitempty"`

	// KeyPrefix namespaces the records in shared backends.
	KeyPrefix string `yaml:"key_prefix,omitempty" json:"key_prefix,omitempty"`

	// Resilient wraps the backend with retry and circuit breaking.
	Resilient bool `yaml:"resilient,omitempty" json:"resilient,omitempty"`
}

// CacheFileConfig is the cache section of the configuration file.
type CacheFileConfig struct {
	MaxMemoryEntries  int         `yaml:"max_memory_entries" json:"max_memory_entries"`
	MaxMemoryBytes    int64       `yaml:"max_memory_bytes" json:"max_memory_bytes"`
	MaxDurableEntries int         `yaml:"max_durable_entries" json:"max_durable_entries"`
	MaxDurableBytes   int64       `yaml:"max_durable_bytes" json:"max_durable_bytes"`
	DefaultTTL        Duration    `yaml:"default_ttl" json:"default_ttl"`
	CleanupInterval   Duration    `yaml:"cleanup_interval" json:"cleanup_interval"`
	MemoryEnabled     *bool       `yaml:"memory_enabled" json:"memory_enabled"`
	DurableEnabled    *bool       `yaml:"durable_enabled" json:"durable_enabled"`
	AutoCleanup       *bool       `yaml:"auto_cleanup" json:"auto_cleanup"`
	Statistics        *bool       `yaml:"statistics" json:"statistics"`
	EvictionPolicy    string      `yaml:"eviction_policy" json:"eviction_policy"`
	Store             StoreConfig `yaml:"store" json:"store"`
}

// RateLimitFileConfig is the rate-limit section of the configuration file.
type RateLimitFileConfig struct {
	MaxRequests          int      `yaml:"max_requests" json:"max_requests"`
	WindowDuration       Duration `yaml:"window_duration" json:"window_duration"`
	BurstCapacity        int      `yaml:"burst_capacity" json:"burst_capacity"`
	BlockDuration        Duration `yaml:"block_duration" json:"block_duration"`
	Algorithm            string   `yaml:"algorithm" json:"algorithm"`
	AutoCleanup          *bool    `yaml:"auto_cleanup" json:"auto_cleanup"`
	CleanupInterval      Duration `yaml:"cleanup_interval" json:"cleanup_interval"`
	Statistics           *bool    `yaml:"statistics" json:"statistics"`
	Whitelist            []string `yaml:"whitelist" json:"whitelist"`
	Blacklist            []string `yaml:"blacklist" json:"blacklist"`
	ProgressivePenalties *bool    `yaml:"progressive_penalties" json:"progressive_penalties"`
	PenaltyMultiplier    float64  `yaml:"penalty_multiplier" json:"penalty_multiplier"`
}

// LoggingFileConfig is the logging section of the configuration file.
type LoggingFileConfig struct {
	Level  string `yaml:"level" json:"level"`
	Format string `yaml:"format" json:"format"`
}

// File is the root of the configuration file.
type File struct {
	Cache     CacheFileConfig     `yaml:"cache" json:"cache"`
	RateLimit RateLimitFileConfig `yaml:"ratelimit" json:"ratelimit"`
	Logging   LoggingFileConfig   `yaml:"logging" json:"logging"`
}

// CacheConfig maps the cache section onto the domain configuration,
// starting from defaults so unset fields keep their default values.
func (f *File) CacheConfig() cache.Config {
	cfg := cache.DefaultConfig()
	c := f.Cache

	if c.MaxMemoryEntries != 0 {
		cfg.MaxMemoryEntries = c.MaxMemoryEntries
	}
	if c.MaxMemoryBytes != 0 {
		cfg.MaxMemoryBytes = c.MaxMemoryBytes
	}
	if c.MaxDurableEntries != 0 {
		cfg.MaxDurableEntries = c.MaxDurableEntries
	}
	if c.MaxDurableBytes != 0 {
		cfg.MaxDurableBytes = c.MaxDurableBytes
	}
	if c.DefaultTTL != 0 {
		cfg.DefaultTTL = c.DefaultTTL.Std()
	}
	if c.CleanupInterval != 0 {
		cfg.CleanupInterval = c.CleanupInterval.Std()
	}
	if c.MemoryEnabled != nil {
		cfg.MemoryEnabled = *c.MemoryEnabled
	}
	if c.DurableEnabled != nil {
		cfg.DurableEnabled = *c.DurableEnabled
	}
	if c.AutoCleanup != nil {
		cfg.AutoCleanupEnabled = *c.AutoCleanup
	}
	if c.Statistics != nil {
		cfg.StatisticsEnabled = *c.Statistics
	}
	if c.EvictionPolicy != "" {
		cfg.EvictionPolicy = cache.EvictionPolicy(c.EvictionPolicy)
	}
	return cfg
}

// RateLimitConfig maps the rate-limit section onto the domain
// configuration, starting from defaults.
func (f *File) RateLimitConfig() ratelimit.Config {
	cfg := ratelimit.DefaultConfig()
	r := f.RateLimit

	if r.MaxRequests != 0 {
		cfg.MaxRequests = r.MaxRequests
	}
	if r.WindowDuration != 0 {
		cfg.WindowDuration = r.WindowDuration.Std()
	}
	if r.BurstCapacity != 0 {
		cfg.BurstCapacity = r.BurstCapacity
	}
	if r.BlockDuration != 0 {
		cfg.BlockDuration = r.BlockDuration.Std()
	}
	if r.Algorithm != "" {
		cfg.Algorithm = ratelimit.Algorithm(r.Algorithm)
	}
	if r.AutoCleanup != nil {
		cfg.AutoCleanupEnabled = *r.AutoCleanup
	}
	if r.CleanupInterval != 0 {
		cfg.CleanupInterval = r.CleanupInterval.Std()
	}
	if r.Statistics != nil {
		cfg.StatisticsEnabled = *r.Statistics
	}
	if len(r.Whitelist) > 0 {
		cfg.Whitelist = ratelimit.NewSet(r.Whitelist...)
	}
	if len(r.Blacklist) > 0 {
		cfg.Blacklist = ratelimit.NewSet(r.Blacklist...)
	}
	if r.ProgressivePenalties != nil {
		cfg.ProgressivePenalties = *r.ProgressivePenalties
	}
	if r.PenaltyMultiplier != 0 {
		cfg.PenaltyMultiplier = r.PenaltyMultiplier
	}
	return cfg
}

// Validate checks both mapped domain configurations.
func (f *File) Validate() error {
	if err := f.CacheConfig().Validate(); err != nil {
		return err
	}
	return f.RateLimitConfig().Validate()
}
