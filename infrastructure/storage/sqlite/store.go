package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite driver

	"github.com/bulwarklib/bulwark/domain/cache"
)

// Store is a SQLite-backed implementation of cache.DurableStore.
// Records live in a single table keyed by prefixed name.
type Store struct {
	db        *sql.DB
	keyPrefix string
}

// NewStore opens a SQLite store with the given configuration. The
// schema is created by Create, not here.
func NewStore(cfg Config, opts ...Option) (*Store, error) {
	for _, opt := range opts {
		opt(&cfg)
	}

	db, err := openDB(cfg)
	if err != nil {
		return nil, err
	}
	return &Store{db: db, keyPrefix: cfg.KeyPrefix}, nil
}

// NewStoreFromDB wraps an existing database connection.
func NewStoreFromDB(db *sql.DB, keyPrefix string) *Store {
	return &Store{db: db, keyPrefix: keyPrefix}
}

func (s *Store) recordKey(name string) string {
	return s.keyPrefix + name
}

// Create implements cache.DurableStore, creating the records table if
// it does not exist.
func (s *Store) Create(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	schema := `
		CREATE TABLE IF NOT EXISTS records (
			name TEXT PRIMARY KEY,
			data BLOB NOT NULL,
			created_at INTEGER NOT NULL,
			updated_at INTEGER NOT NULL
		);
	`
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return errors.Join(ErrMigrationFailed, err)
	}
	return nil
}

// Exists implements cache.DurableStore.
func (s *Store) Exists(ctx context.Context, name string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	var one int
	err := s.db.QueryRowContext(ctx,
		"SELECT 1 FROM records WHERE name = ?",
		s.recordKey(name),
	).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// List implements cache.DurableStore.
func (s *Store) List(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT name FROM records WHERE name LIKE ? ESCAPE '\\'",
		escapeLike(s.keyPrefix)+"%",
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name[len(s.keyPrefix):])
	}
	return names, rows.Err()
}

// Read implements cache.DurableStore. Missing records return
// cache.ErrRecordNotFound.
func (s *Store) Read(ctx context.Context, name string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var data []byte
	err := s.db.QueryRowContext(ctx,
		"SELECT data FROM records WHERE name = ?",
		s.recordKey(name),
	).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, cache.ErrRecordNotFound
	}
	if err != nil {
		return nil, err
	}
	return data, nil
}

// Write implements cache.DurableStore, upserting the record.
func (s *Store) Write(ctx context.Context, name string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	now := time.Now().Unix()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO records (name, data, created_at, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at
	`, s.recordKey(name), data, now, now)
	return err
}

// Delete implements cache.DurableStore. Deleting an absent record is a
// no-op.
func (s *Store) Delete(ctx context.Context, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx,
		"DELETE FROM records WHERE name = ?",
		s.recordKey(name),
	)
	return err
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying database connection.
func (s *Store) DB() *sql.DB {
	return s.db
}

// escapeLike escapes LIKE wildcards in a literal prefix.
func escapeLike(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '%', '_', '\\':
			out = append(out, '\\')
		}
		out = append(out, s[i])
	}
	return string(out)
}

var _ cache.DurableStore = (*Store)(nil)
