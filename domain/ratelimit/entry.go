// Package ratelimit provides the domain model for per-identifier rate
// limiting: entries, configuration, check results, and statistics.
package ratelimit

import "time"

// Entry tracks the request history, violations, and block state for one
// identifier (IP, user ID, API key). A Blocked entry with a zero
// BlockExpiresAt is blocked until it is unblocked manually; the engine
// never auto-expires such a block.
type Entry struct {
	Identifier        string            `json:"identifier"`
	RequestCount      int64             `json:"request_count"`
	RequestTimestamps []time.Time       `json:"request_timestamps"`
	ViolationCount    int               `json:"violation_count"`
	Blocked           bool              `json:"blocked"`
	BlockExpiresAt    time.Time         `json:"block_expires_at"`
	CreatedAt         time.Time         `json:"created_at"`
	UpdatedAt         time.Time         `json:"updated_at"`
	LastRequestAt     time.Time         `json:"last_request_at"`
	Metadata          map[string]string `json:"metadata,omitempty"`
}

// NewEntry creates an entry for an identifier observed for the first time.
func NewEntry(identifier string, now time.Time) *Entry {
	return &Entry{
		Identifier: identifier,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// BlockActive reports whether the entry is inside an active block window.
func (e *Entry) BlockActive(now time.Time) bool {
	if !e.Blocked {
		return false
	}
	if e.BlockExpiresAt.IsZero() {
		return true
	}
	return now.Before(e.BlockExpiresAt)
}

// CountSince returns the number of recorded requests at or after cutoff.
// Timestamps are appended chronologically, so the scan walks backwards.
func (e *Entry) CountSince(cutoff time.Time) int {
	count := 0
	for i := len(e.RequestTimestamps) - 1; i >= 0; i-- {
		if e.RequestTimestamps[i].Before(cutoff) {
			break
		}
		count++
	}
	return count
}

// Record appends a request timestamp.
func (e *Entry) Record(now time.Time) {
	e.RequestTimestamps = append(e.RequestTimestamps, now)
	e.RequestCount++
	e.LastRequestAt = now
	e.UpdatedAt = now
}

// Block applies a block. A zero expiresAt blocks until manual unblock.
func (e *Entry) Block(expiresAt time.Time, now time.Time) {
	e.Blocked = true
	e.BlockExpiresAt = expiresAt
	e.UpdatedAt = now
}

// Unblock clears any block state.
func (e *Entry) Unblock(now time.Time) {
	e.Blocked = false
	e.BlockExpiresAt = time.Time{}
	e.UpdatedAt = now
}

// PruneBefore drops timestamps older than cutoff and reports how many
// were removed.
func (e *Entry) PruneBefore(cutoff time.Time) int {
	idx := 0
	for idx < len(e.RequestTimestamps) && e.RequestTimestamps[idx].Before(cutoff) {
		idx++
	}
	if idx == 0 {
		return 0
	}
	e.RequestTimestamps = append([]time.Time(nil), e.RequestTimestamps[idx:]...)
	return idx
}

// Idle reports whether the entry carries no state worth keeping: no
// remaining timestamps, no active block, and no request since cutoff.
func (e *Entry) Idle(cutoff time.Time) bool {
	if e.Blocked || len(e.RequestTimestamps) > 0 {
		return false
	}
	return e.LastRequestAt.Before(cutoff)
}
