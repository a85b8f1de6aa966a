package ratelimit_test

import (
	"testing"
	"time"

	"github.com/bulwarklib/bulwark/domain/ratelimit"
)

func TestStatistics_CopyOnWrite(t *testing.T) {
	t.Parallel()

	now := time.Now()
	base := ratelimit.NewStatistics(now)
	updated := base.WithAllowed(now).WithBlocked(now).WithViolation(now)

	if base.TotalChecks != 0 || base.Violations != 0 {
		t.Error("original snapshot must not be mutated")
	}
	if updated.TotalChecks != 2 || updated.Allowed != 1 || updated.Blocked != 1 || updated.Violations != 1 {
		t.Errorf("updated snapshot = %+v", updated)
	}
}

func TestStatistics_Ratios(t *testing.T) {
	t.Parallel()

	now := time.Now()

	s := ratelimit.NewStatistics(now)
	if s.AllowRatio() != 0 || s.BlockRatio() != 0 {
		t.Error("empty snapshot ratios should be zero")
	}

	s = s.WithAllowed(now).WithAllowed(now).WithAllowed(now).WithBlocked(now)
	if got := s.AllowRatio(); got != 0.75 {
		t.Errorf("AllowRatio = %v, want 0.75", got)
	}
	if got := s.BlockRatio(); got != 0.25 {
		t.Errorf("BlockRatio = %v, want 0.25", got)
	}
}

func TestStatistics_HourlyRing(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 8, 24, 13, 0, 0, 0, time.UTC)
	s := ratelimit.NewStatistics(now).WithBlocked(now).WithBlocked(now)

	if s.HourlyRequests[13] != 2 {
		t.Errorf("HourlyRequests[13] = %d, want 2", s.HourlyRequests[13])
	}
	if s.Blocked != 2 || s.TotalChecks != 2 {
		t.Errorf("Blocked = %d, TotalChecks = %d, want 2 and 2", s.Blocked, s.TotalChecks)
	}
}

func TestStatistics_WithGauges(t *testing.T) {
	t.Parallel()

	top := []ratelimit.BlockedIdentifier{{Identifier: "x", Violations: 9}}
	s := ratelimit.NewStatistics(time.Now()).WithGauges(3, 1, 12, top)

	if s.CurrentlyBlocked != 3 || s.PermanentlyBlocked != 1 || s.UniqueIdentifiers != 12 {
		t.Errorf("gauges = %+v", s)
	}
	if len(s.TopBlocked) != 1 || s.TopBlocked[0].Identifier != "x" {
		t.Errorf("TopBlocked = %v", s.TopBlocked)
	}
}
