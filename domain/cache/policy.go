package cache

import (
	"math/rand"
	"sort"
	"time"
)

// Candidate is the eviction-relevant view of a memory-tier entry.
// Callers pass candidates in insertion order; ties sort stably, so
// insertion order breaks them.
type Candidate struct {
	Key            string
	CreatedAt      time.Time
	ExpiresAt      time.Time
	LastAccessedAt time.Time
	AccessCount    int64
}

// lessFunc orders candidates so that victims sort first.
type lessFunc func(a, b Candidate) bool

// comparators is the eviction strategy table. New policies register here
// without touching engine internals.
var comparators = map[EvictionPolicy]lessFunc{
	EvictLRU: func(a, b Candidate) bool {
		return a.LastAccessedAt.Before(b.LastAccessedAt)
	},
	EvictLFU: func(a, b Candidate) bool {
		return a.AccessCount < b.AccessCount
	},
	EvictFIFO: func(a, b Candidate) bool {
		return a.CreatedAt.Before(b.CreatedAt)
	},
	EvictTTL: func(a, b Candidate) bool {
		// No expiry sorts last.
		if a.ExpiresAt.IsZero() {
			return false
		}
		if b.ExpiresAt.IsZero() {
			return true
		}
		return a.ExpiresAt.Before(b.ExpiresAt)
	},
}

// SelectVictims returns the keys of up to n candidates chosen by policy.
// Unknown policies fall back to LRU.
func SelectVictims(policy EvictionPolicy, candidates []Candidate, n int, rng *rand.Rand) []string {
	if n <= 0 || len(candidates) == 0 {
		return nil
	}
	if n > len(candidates) {
		n = len(candidates)
	}

	if policy == EvictRandom {
		victims := make([]string, 0, n)
		for _, i := range rng.Perm(len(candidates))[:n] {
			victims = append(victims, candidates[i].Key)
		}
		return victims
	}

	less, ok := comparators[policy]
	if !ok {
		less = comparators[EvictLRU]
	}

	sorted := make([]Candidate, len(candidates))
	copy(sorted, candidates)
	sort.SliceStable(sorted, func(i, j int) bool {
		return less(sorted[i], sorted[j])
	})

	victims := make([]string, 0, n)
	for _, c := range sorted[:n] {
		victims = append(victims, c.Key)
	}
	return victims
}
