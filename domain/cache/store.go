package cache

import "context"

// DurableStore is the port consumed by the cache engine's durable tier:
// a flat namespace of named records holding opaque bytes. Any backend that
// satisfies these six operations is substitutable; the repository ships
// filesystem, BadgerDB, SQLite, PostgreSQL, Redis, and in-memory
// implementations.
//
// Read returns ErrRecordNotFound for missing records. Delete of a missing
// record is a no-op. Record names are arbitrary strings; backends that map
// names onto a constrained namespace (e.g. filenames) must encode them
// collision-free.
type DurableStore interface {
	// Create prepares the backing location (directory, schema, connection).
	// It is idempotent and called by the engine during Initialize.
	Create(ctx context.Context) error

	// Exists reports whether a record is present.
	Exists(ctx context.Context, name string) (bool, error)

	// List enumerates all record names.
	List(ctx context.Context) ([]string, error)

	// Read returns a record's payload.
	Read(ctx context.Context, name string) ([]byte, error)

	// Write creates or replaces a record.
	Write(ctx context.Context, name string, data []byte) error

	// Delete removes a record if present.
	Delete(ctx context.Context, name string) error
}
