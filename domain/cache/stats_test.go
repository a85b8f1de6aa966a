package cache_test

import (
	"testing"
	"time"

	"github.com/bulwarklib/bulwark/domain/cache"
)

func TestStatistics_Ratios(t *testing.T) {
	t.Parallel()

	t.Run("zero gets yields zero ratios", func(t *testing.T) {
		t.Parallel()

		s := cache.NewStatistics(time.Now())
		if s.HitRatio() != 0 {
			t.Errorf("HitRatio = %v, want 0", s.HitRatio())
		}
		if s.MissRatio() != 0 {
			t.Errorf("MissRatio = %v, want 0", s.MissRatio())
		}
	})

	t.Run("ratios reflect hits and misses", func(t *testing.T) {
		t.Parallel()

		now := time.Now()
		s := cache.NewStatistics(now)
		s = s.WithHit(now).WithHit(now).WithHit(now).WithMiss(now)

		if got := s.HitRatio(); got != 0.75 {
			t.Errorf("HitRatio = %v, want 0.75", got)
		}
		if got := s.MissRatio(); got != 0.25 {
			t.Errorf("MissRatio = %v, want 0.25", got)
		}
	})
}

func TestStatistics_CopyOnWrite(t *testing.T) {
	t.Parallel()

	now := time.Now()
	base := cache.NewStatistics(now)
	updated := base.WithHit(now).WithPut(now).WithEvictions(3, now)

	if base.Hits != 0 || base.Puts != 0 || base.Evictions != 0 {
		t.Error("original snapshot must not be mutated")
	}
	if updated.Hits != 1 || updated.Puts != 1 || updated.Evictions != 3 {
		t.Errorf("updated snapshot = %+v", updated)
	}
}

func TestStatistics_Totals(t *testing.T) {
	t.Parallel()

	s := cache.NewStatistics(time.Now()).WithSizes(2, 100, 3, 200)
	if s.TotalEntries() != 5 {
		t.Errorf("TotalEntries = %d, want 5", s.TotalEntries())
	}
	if s.TotalBytes() != 300 {
		t.Errorf("TotalBytes = %d, want 300", s.TotalBytes())
	}
}

func TestStatistics_OpsPerSecond(t *testing.T) {
	t.Parallel()

	start := time.Now()
	s := cache.NewStatistics(start)
	s = s.WithHit(start.Add(time.Second)).WithMiss(start.Add(2 * time.Second))

	if got := s.OpsPerSecond(); got != 1 {
		t.Errorf("OpsPerSecond = %v, want 1", got)
	}
}
