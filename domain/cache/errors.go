package cache

import "errors"

// Domain errors for cache operations.
var (
	// ErrNotInitialized is returned when an engine operation is invoked
	// before Initialize, or after Close.
	ErrNotInitialized = errors.New("cache engine not initialized")

	// ErrInvalidKey is returned when a key is invalid (e.g., empty).
	ErrInvalidKey = errors.New("invalid cache key")

	// ErrInvalidConfig is returned when a configuration fails validation.
	ErrInvalidConfig = errors.New("invalid cache configuration")

	// ErrRecordNotFound is returned by durable stores when a record
	// does not exist.
	ErrRecordNotFound = errors.New("durable record not found")

	// ErrCorruptRecord marks a durable record that failed to decode.
	// The engine deletes such records and treats them as misses; the
	// error never reaches callers of Get or Put.
	ErrCorruptRecord = errors.New("corrupt durable record")

	// ErrStoreUnavailable is returned when a durable store backend
	// cannot be reached.
	ErrStoreUnavailable = errors.New("durable store unavailable")
)
