package ratelimit_test

import (
	"testing"
	"time"

	"github.com/bulwarklib/bulwark/domain/ratelimit"
)

func TestEntry_BlockActive(t *testing.T) {
	t.Parallel()

	now := time.Now()

	t.Run("unblocked entry is not active", func(t *testing.T) {
		t.Parallel()

		e := ratelimit.NewEntry("x", now)
		if e.BlockActive(now) {
			t.Error("fresh entry should not be blocked")
		}
	})

	t.Run("block without expiry never lapses", func(t *testing.T) {
		t.Parallel()

		e := ratelimit.NewEntry("x", now)
		e.Block(time.Time{}, now)
		if !e.BlockActive(now.Add(100 * 365 * 24 * time.Hour)) {
			t.Error("permanent block must stay active")
		}
	})

	t.Run("block lapses at expiry", func(t *testing.T) {
		t.Parallel()

		e := ratelimit.NewEntry("x", now)
		e.Block(now.Add(time.Second), now)
		if !e.BlockActive(now) {
			t.Error("block should be active before expiry")
		}
		if e.BlockActive(now.Add(2 * time.Second)) {
			t.Error("block should lapse after expiry")
		}
	})

	t.Run("unblock clears state", func(t *testing.T) {
		t.Parallel()

		e := ratelimit.NewEntry("x", now)
		e.Block(time.Time{}, now)
		e.Unblock(now)
		if e.Blocked || !e.BlockExpiresAt.IsZero() {
			t.Error("Unblock should clear block state")
		}
	})
}

func TestEntry_CountSince(t *testing.T) {
	t.Parallel()

	now := time.Now()
	e := ratelimit.NewEntry("x", now)
	for i := 0; i < 5; i++ {
		e.Record(now.Add(time.Duration(i) * time.Second))
	}

	if got := e.CountSince(now.Add(2 * time.Second)); got != 3 {
		t.Errorf("CountSince = %d, want 3", got)
	}
	if got := e.CountSince(now.Add(time.Minute)); got != 0 {
		t.Errorf("CountSince = %d, want 0", got)
	}
	if e.RequestCount != 5 {
		t.Errorf("RequestCount = %d, want 5", e.RequestCount)
	}
}

func TestEntry_PruneBefore(t *testing.T) {
	t.Parallel()

	now := time.Now()
	e := ratelimit.NewEntry("x", now)
	for i := 0; i < 4; i++ {
		e.Record(now.Add(time.Duration(i) * time.Second))
	}

	removed := e.PruneBefore(now.Add(2 * time.Second))
	if removed != 2 {
		t.Errorf("PruneBefore removed = %d, want 2", removed)
	}
	if len(e.RequestTimestamps) != 2 {
		t.Errorf("remaining timestamps = %d, want 2", len(e.RequestTimestamps))
	}
	// RequestCount is monotonic, pruning does not rewind it.
	if e.RequestCount != 4 {
		t.Errorf("RequestCount = %d, want 4", e.RequestCount)
	}
}

func TestEntry_Idle(t *testing.T) {
	t.Parallel()

	now := time.Now()

	t.Run("blocked entry is never idle", func(t *testing.T) {
		t.Parallel()

		e := ratelimit.NewEntry("x", now)
		e.Block(time.Time{}, now)
		if e.Idle(now.Add(48 * time.Hour)) {
			t.Error("blocked entry must not be considered idle")
		}
	})

	t.Run("entry with timestamps is not idle", func(t *testing.T) {
		t.Parallel()

		e := ratelimit.NewEntry("x", now)
		e.Record(now)
		if e.Idle(now.Add(48 * time.Hour)) {
			t.Error("entry with history must not be idle")
		}
	})

	t.Run("quiet unblocked entry is idle", func(t *testing.T) {
		t.Parallel()

		e := ratelimit.NewEntry("x", now)
		e.Record(now)
		e.PruneBefore(now.Add(time.Second))
		if !e.Idle(now.Add(48 * time.Hour)) {
			t.Error("entry should be idle past the cutoff")
		}
	})
}
