// Package resilience wraps a DurableStore with retry, circuit breaker,
// and bulkhead patterns using fortify.
package resilience

import (
	"context"
	"errors"
	"time"

	"github.com/felixgeelhaar/fortify/bulkhead"
	"github.com/felixgeelhaar/fortify/circuitbreaker"
	"github.com/felixgeelhaar/fortify/retry"

	"github.com/bulwarklib/bulwark/domain/cache"
	"github.com/bulwarklib/bulwark/infrastructure/observability"
)

// Config configures the resilient store decorator.
type Config struct {
	// MaxConcurrent limits concurrent store operations.
	MaxConcurrent int

	// CircuitBreakerThreshold is the number of consecutive failures
	// before the circuit opens.
	CircuitBreakerThreshold int

	// CircuitBreakerTimeout is how long the circuit stays open.
	CircuitBreakerTimeout time.Duration

	// RetryMaxAttempts is the maximum number of attempts per operation.
	RetryMaxAttempts int

	// RetryInitialDelay is the initial delay between retries.
	RetryInitialDelay time.Duration

	// RetryBackoffMultiplier is the exponential backoff multiplier.
	RetryBackoffMultiplier float64

	// OperationTimeout bounds each store operation.
	OperationTimeout time.Duration
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() Config {
	return Config{
		MaxConcurrent:           10,
		CircuitBreakerThreshold: 5,
		CircuitBreakerTimeout:   30 * time.Second,
		RetryMaxAttempts:        3,
		RetryInitialDelay:       100 * time.Millisecond,
		RetryBackoffMultiplier:  2.0,
		OperationTimeout:        5 * time.Second,
	}
}

// Option configures the decorator.
type Option func(*Config)

// WithMaxConcurrent sets the maximum concurrent operations.
func WithMaxConcurrent(n int) Option {
	return func(c *Config) { c.MaxConcurrent = n }
}

// WithCircuitBreakerThreshold sets the consecutive-failure threshold.
func WithCircuitBreakerThreshold(n int) Option {
	return func(c *Config) { c.CircuitBreakerThreshold = n }
}

// WithCircuitBreakerTimeout sets the circuit open duration.
func WithCircuitBreakerTimeout(d time.Duration) Option {
	return func(c *Config) { c.CircuitBreakerTimeout = d }
}

// WithRetryAttempts sets the maximum attempts per operation.
func WithRetryAttempts(n int) Option {
	return func(c *Config) { c.RetryMaxAttempts = n }
}

// WithRetryDelay sets the initial retry delay.
func WithRetryDelay(d time.Duration) Option {
	return func(c *Config) { c.RetryInitialDelay = d }
}

// WithOperationTimeout sets the per-operation timeout.
func WithOperationTimeout(d time.Duration) Option {
	return func(c *Config) { c.OperationTimeout = d }
}

// Store decorates a cache.DurableStore so transient backend failures
// are retried and a persistently failing backend is cut off instead of
// stalling cache operations.
//
// Composition order per operation: bulkhead, timeout, circuit breaker,
// retry. cache.ErrRecordNotFound is a normal outcome and is never
// retried or counted as a failure.
type Store struct {
	inner    cache.DurableStore
	bulkhead bulkhead.Bulkhead[[]byte]
	breaker  circuitbreaker.CircuitBreaker[[]byte]
	retry    retry.Retry[[]byte]
	timeout  time.Duration
	failures observability.Counter
}

// NewStore wraps inner with the given resilience configuration.
func NewStore(inner cache.DurableStore, cfg Config, opts ...Option) *Store {
	for _, opt := range opts {
		opt(&cfg)
	}

	maxConcurrent := cfg.MaxConcurrent
	if maxConcurrent <= 0 {
		maxConcurrent = DefaultConfig().MaxConcurrent
	}
	threshold := cfg.CircuitBreakerThreshold
	if threshold <= 0 {
		threshold = DefaultConfig().CircuitBreakerThreshold
	}

	return &Store{
		inner: inner,
		bulkhead: bulkhead.New[[]byte](bulkhead.Config{
			MaxConcurrent: maxConcurrent,
		}),
		breaker: circuitbreaker.New[[]byte](circuitbreaker.Config{
			MaxRequests: uint32(maxConcurrent), // #nosec G115 -- bounds checked above
			Interval:    cfg.CircuitBreakerTimeout,
			Timeout:     cfg.CircuitBreakerTimeout,
			ReadyToTrip: func(counts circuitbreaker.Counts) bool {
				return counts.ConsecutiveFailures >= uint32(threshold) // #nosec G115 -- bounds checked above
			},
		}),
		retry: retry.New[[]byte](retry.Config{
			MaxAttempts:   cfg.RetryMaxAttempts,
			InitialDelay:  cfg.RetryInitialDelay,
			BackoffPolicy: retry.BackoffExponential,
			Multiplier:    cfg.RetryBackoffMultiplier,
		}),
		timeout:  cfg.OperationTimeout,
		failures: observability.NewNoopMeter().Counter(observability.MetricStoreFailures, ""),
	}
}

// WithMeter attaches a metrics meter counting store failures.
func (s *Store) WithMeter(meter observability.Meter) *Store {
	s.failures = meter.Counter(observability.MetricStoreFailures, "durable store operation failures")
	return s
}

// execute runs op through the resilience pipeline. A missing record is
// a normal outcome: it is masked before the pipeline sees it, so it is
// neither retried nor counted as a breaker failure, then restored.
func (s *Store) execute(ctx context.Context, op func(ctx context.Context) ([]byte, error)) ([]byte, error) {
	var notFound bool
	masked := func(ctx context.Context) ([]byte, error) {
		data, err := op(ctx)
		if errors.Is(err, cache.ErrRecordNotFound) {
			notFound = true
			return nil, nil
		}
		notFound = false
		return data, err
	}

	data, err := s.bulkhead.Execute(ctx, func(ctx context.Context) ([]byte, error) {
		if s.timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, s.timeout)
			defer cancel()
		}
		return s.breaker.Execute(ctx, func(ctx context.Context) ([]byte, error) {
			return s.retry.Do(ctx, masked)
		})
	})
	if err != nil {
		s.failures.Add(ctx, 1)
		return nil, err
	}
	if notFound {
		return nil, cache.ErrRecordNotFound
	}
	return data, nil
}

// Create implements cache.DurableStore.
func (s *Store) Create(ctx context.Context) error {
	_, err := s.execute(ctx, func(ctx context.Context) ([]byte, error) {
		return nil, s.inner.Create(ctx)
	})
	return err
}

// Exists implements cache.DurableStore.
func (s *Store) Exists(ctx context.Context, name string) (bool, error) {
	var exists bool
	_, err := s.execute(ctx, func(ctx context.Context) ([]byte, error) {
		var opErr error
		exists, opErr = s.inner.Exists(ctx, name)
		return nil, opErr
	})
	return exists, err
}

// List implements cache.DurableStore.
func (s *Store) List(ctx context.Context) ([]string, error) {
	var names []string
	_, err := s.execute(ctx, func(ctx context.Context) ([]byte, error) {
		var opErr error
		names, opErr = s.inner.List(ctx)
		return nil, opErr
	})
	return names, err
}

// Read implements cache.DurableStore.
func (s *Store) Read(ctx context.Context, name string) ([]byte, error) {
	return s.execute(ctx, func(ctx context.Context) ([]byte, error) {
		return s.inner.Read(ctx, name)
	})
}

// Write implements cache.DurableStore.
func (s *Store) Write(ctx context.Context, name string, data []byte) error {
	_, err := s.execute(ctx, func(ctx context.Context) ([]byte, error) {
		return nil, s.inner.Write(ctx, name, data)
	})
	return err
}

// Delete implements cache.DurableStore.
func (s *Store) Delete(ctx context.Context, name string) error {
	_, err := s.execute(ctx, func(ctx context.Context) ([]byte, error) {
		return nil, s.inner.Delete(ctx, name)
	})
	return err
}

// CircuitBreakerState returns the current breaker state.
func (s *Store) CircuitBreakerState() circuitbreaker.State {
	return s.breaker.State()
}

var _ cache.DurableStore = (*Store)(nil)
