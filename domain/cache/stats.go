package cache

import "time"

// Statistics is an immutable snapshot of cache counters. Every mutating
// operation derives a new snapshot; snapshots are never modified in place,
// so concurrent readers can hold one without locking.
type Statistics struct {
	TotalGets int64 `json:"total_gets"`
	Hits      int64 `json:"hits"`
	Misses    int64 `json:"misses"`
	Puts      int64 `json:"puts"`
	Deletes   int64 `json:"deletes"`
	Clears    int64 `json:"clears"`
	Evictions int64 `json:"evictions"`

	MemoryEntryCount  int   `json:"memory_entry_count"`
	MemoryByteSize    int64 `json:"memory_byte_size"`
	DurableEntryCount int   `json:"durable_entry_count"`
	DurableByteSize   int64 `json:"durable_byte_size"`

	StartedAt time.Time `json:"started_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewStatistics returns an empty snapshot anchored at now.
func NewStatistics(now time.Time) Statistics {
	return Statistics{StartedAt: now, UpdatedAt: now}
}

// HitRatio is hits over total gets, or zero when nothing was looked up.
func (s Statistics) HitRatio() float64 {
	if s.TotalGets == 0 {
		return 0
	}
	return float64(s.Hits) / float64(s.TotalGets)
}

// MissRatio is misses over total gets, or zero when nothing was looked up.
func (s Statistics) MissRatio() float64 {
	if s.TotalGets == 0 {
		return 0
	}
	return float64(s.Misses) / float64(s.TotalGets)
}

// TotalEntries is the combined entry count of both tiers.
func (s Statistics) TotalEntries() int {
	return s.MemoryEntryCount + s.DurableEntryCount
}

// TotalBytes is the combined serialized size of both tiers.
func (s Statistics) TotalBytes() int64 {
	return s.MemoryByteSize + s.DurableByteSize
}

// OpsPerSecond is the rate of all recorded operations since StartedAt.
func (s Statistics) OpsPerSecond() float64 {
	elapsed := s.UpdatedAt.Sub(s.StartedAt).Seconds()
	if elapsed <= 0 {
		return 0
	}
	ops := s.TotalGets + s.Puts + s.Deletes + s.Clears
	return float64(ops) / elapsed
}

// WithHit returns a snapshot with one more hit recorded.
func (s Statistics) WithHit(now time.Time) Statistics {
	s.TotalGets++
	s.Hits++
	s.UpdatedAt = now
	return s
}

// WithMiss returns a snapshot with one more miss recorded.
func (s Statistics) WithMiss(now time.Time) Statistics {
	s.TotalGets++
	s.Misses++
	s.UpdatedAt = now
	return s
}

// WithPut returns a snapshot with one more put recorded.
func (s Statistics) WithPut(now time.Time) Statistics {
	s.Puts++
	s.UpdatedAt = now
	return s
}

// WithDelete returns a snapshot with one more delete recorded.
func (s Statistics) WithDelete(now time.Time) Statistics {
	s.Deletes++
	s.UpdatedAt = now
	return s
}

// WithClear returns a snapshot with one more clear recorded.
func (s Statistics) WithClear(now time.Time) Statistics {
	s.Clears++
	s.UpdatedAt = now
	return s
}

// WithEvictions returns a snapshot with n more evictions recorded.
func (s Statistics) WithEvictions(n int, now time.Time) Statistics {
	s.Evictions += int64(n)
	s.UpdatedAt = now
	return s
}

// WithSizes returns a snapshot carrying the current live tier sizes.
func (s Statistics) WithSizes(memCount int, memBytes int64, durCount int, durBytes int64) Statistics {
	s.MemoryEntryCount = memCount
	s.MemoryByteSize = memBytes
	s.DurableEntryCount = durCount
	s.DurableByteSize = durBytes
	return s
}
