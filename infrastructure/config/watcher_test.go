package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/bulwarklib/bulwark/infrastructure/config"
)

func TestWatcher_ReloadsOnChange(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("ratelimit: {max_requests: 10}"), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	changes := make(chan *config.File, 4)
	watcher, err := config.NewWatcher(path, nil, func(f *config.File) {
		changes <- f
	})
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}
	t.Cleanup(func() { _ = watcher.Close() })

	if err := os.WriteFile(path, []byte("ratelimit: {max_requests: 99}"), 0o600); err != nil {
		t.Fatalf("rewrite: %v", err)
	}

	select {
	case file := <-changes:
		if got := file.RateLimitConfig().MaxRequests; got != 99 {
			t.Errorf("reloaded MaxRequests = %d, want 99", got)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for reload")
	}
}

func TestWatcher_KeepsLastGoodConfigOnBadWrite(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("ratelimit: {max_requests: 10}"), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	changes := make(chan *config.File, 4)
	watcher, err := config.NewWatcher(path, nil, func(f *config.File) {
		changes <- f
	})
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}
	t.Cleanup(func() { _ = watcher.Close() })

	// An invalid write must not reach the callback.
	if err := os.WriteFile(path, []byte("ratelimit: {max_requests: -5}"), 0o600); err != nil {
		t.Fatalf("bad rewrite: %v", err)
	}

	select {
	case file := <-changes:
		t.Errorf("callback fired for invalid config: %+v", file.RateLimit)
	case <-time.After(time.Second):
	}

	// A subsequent valid write still goes through.
	if err := os.WriteFile(path, []byte("ratelimit: {max_requests: 25}"), 0o600); err != nil {
		t.Fatalf("good rewrite: %v", err)
	}

	select {
	case file := <-changes:
		if got := file.RateLimitConfig().MaxRequests; got != 25 {
			t.Errorf("reloaded MaxRequests = %d, want 25", got)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for recovery reload")
	}
}
