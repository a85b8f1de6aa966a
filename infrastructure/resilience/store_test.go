package resilience_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bulwarklib/bulwark/domain/cache"
	"github.com/bulwarklib/bulwark/infrastructure/resilience"
	"github.com/bulwarklib/bulwark/infrastructure/storage/memory"
)

var errBackendDown = errors.New("backend down")

// flakyStore fails reads until failuresLeft is exhausted.
type flakyStore struct {
	cache.DurableStore
	failuresLeft int
	calls        int
}

func (f *flakyStore) Read(ctx context.Context, name string) ([]byte, error) {
	f.calls++
	if f.failuresLeft > 0 {
		f.failuresLeft--
		return nil, errBackendDown
	}
	return f.DurableStore.Read(ctx, name)
}

func fastConfig() resilience.Config {
	cfg := resilience.DefaultConfig()
	cfg.RetryMaxAttempts = 3
	cfg.RetryInitialDelay = time.Millisecond
	cfg.CircuitBreakerThreshold = 2
	cfg.CircuitBreakerTimeout = 50 * time.Millisecond
	return cfg
}

func TestStore_PassesThroughOnSuccess(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	inner := memory.NewStore()
	store := resilience.NewStore(inner, fastConfig())

	if err := store.Write(ctx, "key", []byte("value")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	data, err := store.Read(ctx, "key")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(data) != "value" {
		t.Errorf("Read = %q", data)
	}
	if inner.Len() != 1 {
		t.Errorf("inner Len = %d, want 1", inner.Len())
	}
}

func TestStore_RetriesTransientFailures(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	inner := memory.NewStore()
	if err := inner.Write(ctx, "key", []byte("value")); err != nil {
		t.Fatalf("seed: %v", err)
	}

	flaky := &flakyStore{DurableStore: inner, failuresLeft: 2}
	store := resilience.NewStore(flaky, fastConfig())

	data, err := store.Read(ctx, "key")
	if err != nil {
		t.Fatalf("Read after transient failures: %v", err)
	}
	if string(data) != "value" {
		t.Errorf("Read = %q", data)
	}
	if flaky.calls != 3 {
		t.Errorf("backend calls = %d, want 3 (two failures plus success)", flaky.calls)
	}
}

func TestStore_NotFoundIsNotRetried(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	inner := memory.NewStore()
	flaky := &flakyStore{DurableStore: inner}
	store := resilience.NewStore(flaky, fastConfig())

	_, err := store.Read(ctx, "absent")
	if !errors.Is(err, cache.ErrRecordNotFound) {
		t.Fatalf("Read error = %v, want ErrRecordNotFound", err)
	}
	if flaky.calls != 1 {
		t.Errorf("backend calls = %d, want 1 (not-found must not be retried)", flaky.calls)
	}
}

func TestStore_BreakerOpensOnPersistentFailure(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	flaky := &flakyStore{DurableStore: memory.NewStore(), failuresLeft: 1000}

	cfg := fastConfig()
	cfg.RetryMaxAttempts = 1
	store := resilience.NewStore(flaky, cfg)

	// Exhaust the breaker threshold.
	for i := 0; i < cfg.CircuitBreakerThreshold; i++ {
		if _, err := store.Read(ctx, "key"); err == nil {
			t.Fatal("expected failure while backend is down")
		}
	}

	callsBefore := flaky.calls
	if _, err := store.Read(ctx, "key"); err == nil {
		t.Fatal("expected failure with circuit open")
	}
	if flaky.calls != callsBefore {
		t.Errorf("backend reached %d times with circuit open, want 0", flaky.calls-callsBefore)
	}
}

func TestStore_BreakerRecovers(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	inner := memory.NewStore()
	if err := inner.Write(ctx, "key", []byte("value")); err != nil {
		t.Fatalf("seed: %v", err)
	}
	flaky := &flakyStore{DurableStore: inner, failuresLeft: 2}

	cfg := fastConfig()
	cfg.RetryMaxAttempts = 1
	cfg.CircuitBreakerTimeout = 20 * time.Millisecond
	store := resilience.NewStore(flaky, cfg)

	for i := 0; i < 2; i++ {
		_, _ = store.Read(ctx, "key")
	}

	// After the open interval the breaker half-opens and the now
	// healthy backend closes it again.
	time.Sleep(40 * time.Millisecond)

	data, err := store.Read(ctx, "key")
	if err != nil {
		t.Fatalf("Read after recovery: %v", err)
	}
	if string(data) != "value" {
		t.Errorf("Read = %q", data)
	}
}
