package ratelimit

import "time"

// BlockReason explains why a request was denied.
type BlockReason string

const (
	// ReasonRateLimitExceeded marks a window limit overrun.
	ReasonRateLimitExceeded BlockReason = "rate_limit_exceeded"
	// ReasonBlacklisted marks a permanently denied identifier.
	ReasonBlacklisted BlockReason = "blacklisted"
	// ReasonTemporaryBlock marks an identifier inside a block window.
	ReasonTemporaryBlock BlockReason = "temporary_block"
	// ReasonBurstExceeded marks bucket capacity exhaustion.
	ReasonBurstExceeded BlockReason = "burst_exceeded"
	// ReasonCustom marks an administrative block.
	ReasonCustom BlockReason = "custom"
)

// Result is the outcome of a rate-limit check. It is a pure output value,
// never stored. Reason is empty when the request is allowed. Zero
// WindowResetAt / RetryAfter mean "not applicable".
type Result struct {
	Allowed       bool              `json:"allowed"`
	Reason        BlockReason       `json:"reason,omitempty"`
	Remaining     int               `json:"remaining"`
	Limit         int               `json:"limit"`
	WindowResetAt time.Time         `json:"window_reset_at"`
	RetryAfter    time.Time         `json:"retry_after"`
	CurrentCount  int               `json:"current_count"`
	Metadata      map[string]string `json:"metadata,omitempty"`
}
