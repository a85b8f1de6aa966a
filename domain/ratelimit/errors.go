package ratelimit

import "errors"

// Domain errors for rate-limit operations.
var (
	// ErrNotInitialized is returned when an engine operation is invoked
	// before Initialize, or after Dispose.
	ErrNotInitialized = errors.New("rate limit engine not initialized")

	// ErrInvalidIdentifier is returned when an identifier is invalid
	// (e.g., empty).
	ErrInvalidIdentifier = errors.New("invalid rate limit identifier")

	// ErrInvalidConfig is returned when a configuration fails validation.
	ErrInvalidConfig = errors.New("invalid rate limit configuration")
)
