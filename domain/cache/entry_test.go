package cache_test

import (
	"testing"
	"time"

	"github.com/bulwarklib/bulwark/domain/cache"
)

func TestNewEntry(t *testing.T) {
	t.Parallel()

	t.Run("sets key and value", func(t *testing.T) {
		t.Parallel()

		e := cache.NewEntry("k", "v", 0, nil)
		if e.Key != "k" {
			t.Errorf("Key = %q, want k", e.Key)
		}
		if e.Value != "v" {
			t.Errorf("Value = %q, want v", e.Value)
		}
		if e.CreatedAt.IsZero() {
			t.Error("CreatedAt should be set")
		}
	})

	t.Run("zero ttl means no expiry", func(t *testing.T) {
		t.Parallel()

		e := cache.NewEntry("k", 42, 0, nil)
		if !e.ExpiresAt.IsZero() {
			t.Error("ExpiresAt should be zero for ttl=0")
		}
		if e.IsExpired(time.Now().Add(time.Hour)) {
			t.Error("entry without expiry should never expire")
		}
	})

	t.Run("positive ttl sets expiry after creation", func(t *testing.T) {
		t.Parallel()

		e := cache.NewEntry("k", 42, time.Minute, nil)
		if e.ExpiresAt.Before(e.CreatedAt) {
			t.Error("ExpiresAt should not precede CreatedAt")
		}
	})
}

func TestEntry_IsExpired(t *testing.T) {
	t.Parallel()

	e := cache.NewEntry("k", "v", 50*time.Millisecond, nil)

	if e.IsExpired(time.Now()) {
		t.Error("entry should not be expired immediately")
	}
	if !e.IsExpired(time.Now().Add(time.Second)) {
		t.Error("entry should be expired after the ttl")
	}
}

func TestEntry_Touch(t *testing.T) {
	t.Parallel()

	e := cache.NewEntry("k", "v", 0, nil)
	before := e.LastAccessedAt

	now := before.Add(time.Second)
	e.Touch(now)
	e.Touch(now.Add(time.Second))

	if e.AccessCount != 2 {
		t.Errorf("AccessCount = %d, want 2", e.AccessCount)
	}
	if !e.LastAccessedAt.After(before) {
		t.Error("LastAccessedAt should advance")
	}
}
