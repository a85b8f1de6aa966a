// Package observability provides the metrics port used by the engines,
// with an OpenTelemetry adapter and a noop default.
package observability

import "context"

// Attribute is a key/value dimension attached to a metric point.
type Attribute struct {
	Key   string
	Value string
}

// Counter is a monotonically increasing metric.
type Counter interface {
	Add(ctx context.Context, value int64, attrs ...Attribute)
}

// Gauge reports a current value.
type Gauge interface {
	Record(ctx context.Context, value float64, attrs ...Attribute)
}

// Meter creates named instruments. Implementations must be safe for
// concurrent use.
type Meter interface {
	Counter(name, description string) Counter
	Gauge(name, description string) Gauge
}

// Engine metric names.
const (
	MetricCacheHits        = "bulwark.cache.hits"
	MetricCacheMisses      = "bulwark.cache.misses"
	MetricCacheEvictions   = "bulwark.cache.evictions"
	MetricCacheCleanups    = "bulwark.cache.cleanup.removed"
	MetricLimitAllowed     = "bulwark.ratelimit.allowed"
	MetricLimitBlocked     = "bulwark.ratelimit.blocked"
	MetricLimitViolations  = "bulwark.ratelimit.violations"
	MetricLimitCleanups    = "bulwark.ratelimit.cleanup.removed"
	MetricStoreFailures    = "bulwark.store.failures"
	MetricMemoryEntryCount = "bulwark.cache.memory.entries"
)
