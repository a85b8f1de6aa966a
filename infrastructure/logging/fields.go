package logging

import (
	"time"

	"github.com/felixgeelhaar/bolt/v3"
)

// Field is a function that applies structured data to a log event.
type Field func(*bolt.Event) *bolt.Event

// Common field constructors for cache and rate-limit logging.

// CacheKey adds a cache key field.
func CacheKey(key string) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("key", key)
	}
}

// Identifier adds a rate-limit identifier field.
func Identifier(id string) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("identifier", id)
	}
}

// Tier adds a cache tier field (memory or durable).
func Tier(tier string) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("tier", tier)
	}
}

// Policy adds an eviction policy field.
func Policy(p string) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("policy", p)
	}
}

// Algorithm adds a rate-limit algorithm field.
func Algorithm(a string) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("algorithm", a)
	}
}

// Reason adds a block reason field.
func Reason(reason string) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("reason", reason)
	}
}

// Backend adds a storage backend field.
func Backend(name string) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("backend", name)
	}
}

// Component adds a component field for categorization.
func Component(name string) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("component", name)
	}
}

// Removed adds a removed-count field for cleanup sweeps.
func Removed(count int) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Int("removed", count)
	}
}

// Count adds a generic count field.
func Count(count int) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Int("count", count)
	}
}

// Violations adds a violation count field.
func Violations(count int) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Int("violations", count)
	}
}

// Duration adds a duration field in milliseconds.
func Duration(d time.Duration) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Int64("duration_ms", d.Milliseconds())
	}
}

// BlockedUntil adds a block expiry field; permanent blocks log "manual".
func BlockedUntil(t time.Time) Field {
	return func(e *bolt.Event) *bolt.Event {
		if t.IsZero() {
			return e.Str("blocked_until", "manual")
		}
		return e.Str("blocked_until", t.Format(time.RFC3339))
	}
}

// ErrorField adds an error field.
func ErrorField(err error) Field {
	return func(e *bolt.Event) *bolt.Event {
		if err == nil {
			return e
		}
		return e.Err(err)
	}
}

// Str adds a string field with custom key.
func Str(key, value string) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str(key, value)
	}
}

// Int adds an int field with custom key.
func Int(key string, value int) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Int(key, value)
	}
}
