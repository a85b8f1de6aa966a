// Package cache provides the domain model for the two-tier cache:
// entries, configuration, eviction policies, statistics, and the durable
// store port implemented by the storage backends.
package cache

import "time"

// Entry is one cached record with expiry and access metadata.
// A zero ExpiresAt means the entry never expires.
type Entry[V any] struct {
	Key            string            `json:"key"`
	Value          V                 `json:"value"`
	CreatedAt      time.Time         `json:"created_at"`
	ExpiresAt      time.Time         `json:"expires_at"`
	LastAccessedAt time.Time         `json:"last_accessed_at"`
	AccessCount    int64             `json:"access_count"`
	Metadata       map[string]string `json:"metadata,omitempty"`
}

// NewEntry creates an entry for key/value. A ttl of zero means no expiry.
func NewEntry[V any](key string, value V, ttl time.Duration, metadata map[string]string) Entry[V] {
	now := time.Now()
	e := Entry[V]{
		Key:            key,
		Value:          value,
		CreatedAt:      now,
		LastAccessedAt: now,
		Metadata:       metadata,
	}
	if ttl > 0 {
		e.ExpiresAt = now.Add(ttl)
	}
	return e
}

// IsExpired reports whether the entry has expired at the given instant.
func (e *Entry[V]) IsExpired(now time.Time) bool {
	if e.ExpiresAt.IsZero() {
		return false
	}
	return now.After(e.ExpiresAt)
}

// Touch records a successful read.
func (e *Entry[V]) Touch(now time.Time) {
	e.LastAccessedAt = now
	e.AccessCount++
}
