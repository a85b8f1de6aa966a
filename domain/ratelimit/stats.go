package ratelimit

import "time"

// HoursPerDay is the size of the hourly request ring.
const HoursPerDay = 24

// BlockedIdentifier pairs an identifier with its violation count for the
// top-blocked ranking.
type BlockedIdentifier struct {
	Identifier string `json:"identifier"`
	Violations int    `json:"violations"`
}

// Statistics is an immutable snapshot of rate-limit counters, following
// the same copy-on-write discipline as the cache statistics. The gauge
// fields (blocked counts, unique identifiers, top blocked) describe the
// entry table at snapshot time.
type Statistics struct {
	TotalChecks int64 `json:"total_checks"`
	Allowed     int64 `json:"allowed"`
	Blocked     int64 `json:"blocked"`
	Violations  int64 `json:"violations"`

	CurrentlyBlocked   int `json:"currently_blocked"`
	PermanentlyBlocked int `json:"permanently_blocked"`
	UniqueIdentifiers  int `json:"unique_identifiers"`

	// TopBlocked holds at most the ten identifiers with the highest
	// violation counts.
	TopBlocked []BlockedIdentifier `json:"top_blocked"`

	// HourlyRequests is a 24-slot ring keyed by hour of day, bumped
	// whenever a request is denied.
	HourlyRequests [HoursPerDay]int64 `json:"hourly_requests"`

	StartedAt time.Time `json:"started_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewStatistics returns an empty snapshot anchored at now.
func NewStatistics(now time.Time) Statistics {
	return Statistics{StartedAt: now, UpdatedAt: now}
}

// AllowRatio is allowed checks over total checks, or zero when nothing
// was checked.
func (s Statistics) AllowRatio() float64 {
	if s.TotalChecks == 0 {
		return 0
	}
	return float64(s.Allowed) / float64(s.TotalChecks)
}

// BlockRatio is blocked checks over total checks, or zero when nothing
// was checked.
func (s Statistics) BlockRatio() float64 {
	if s.TotalChecks == 0 {
		return 0
	}
	return float64(s.Blocked) / float64(s.TotalChecks)
}

// WithAllowed returns a snapshot with one more allowed check recorded.
func (s Statistics) WithAllowed(now time.Time) Statistics {
	s.TotalChecks++
	s.Allowed++
	s.UpdatedAt = now
	return s
}

// WithBlocked returns a snapshot with one more blocked check recorded,
// including the hour-of-day ring slot for now.
func (s Statistics) WithBlocked(now time.Time) Statistics {
	s.TotalChecks++
	s.Blocked++
	s.HourlyRequests[now.Hour()]++
	s.UpdatedAt = now
	return s
}

// WithViolation returns a snapshot with one more violation recorded.
func (s Statistics) WithViolation(now time.Time) Statistics {
	s.Violations++
	s.UpdatedAt = now
	return s
}

// WithGauges returns a snapshot carrying the current entry-table gauges.
func (s Statistics) WithGauges(currently, permanently, unique int, top []BlockedIdentifier) Statistics {
	s.CurrentlyBlocked = currently
	s.PermanentlyBlocked = permanently
	s.UniqueIdentifiers = unique
	s.TopBlocked = top
	return s
}
