package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/bulwarklib/bulwark/domain/cache"
)

// Store errors.
var (
	// ErrConnectionFailed indicates the database could not be reached.
	ErrConnectionFailed = errors.New("postgres: connection failed")
	// ErrMigrationFailed indicates the schema could not be created.
	ErrMigrationFailed = errors.New("postgres: migration failed")
)

// Store is a PostgreSQL-backed implementation of cache.DurableStore.
// Records live in a single table inside the configured schema.
type Store struct {
	pool   *pgxpool.Pool
	schema string
}

// NewStore connects to PostgreSQL and returns a store. The connection
// is verified with a ping bounded by cfg.ConnectTimeout.
func NewStore(ctx context.Context, cfg Config, opts ...Option) (*Store, error) {
	for _, opt := range opts {
		opt(&cfg)
	}

	pool, err := pgxpool.New(ctx, cfg.ConnectionString())
	if err != nil {
		return nil, errors.Join(ErrConnectionFailed, err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, errors.Join(ErrConnectionFailed, err)
	}

	return NewStoreFromPool(pool, cfg.Schema), nil
}

// NewStoreFromPool wraps an existing connection pool.
func NewStoreFromPool(pool *pgxpool.Pool, schema string) *Store {
	if schema == "" {
		schema = "public"
	}
	return &Store{pool: pool, schema: schema}
}

func (s *Store) tableName() string {
	return fmt.Sprintf("%s.records", s.schema)
}

// Create implements cache.DurableStore, creating the records table if
// it does not exist.
func (s *Store) Create(ctx context.Context) error {
	schema := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			name TEXT PRIMARY KEY,
			data BYTEA NOT NULL,
			created_at TIMESTAMPTZ NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL
		)
	`, s.tableName())

	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return errors.Join(ErrMigrationFailed, err)
	}
	return nil
}

// Exists implements cache.DurableStore.
func (s *Store) Exists(ctx context.Context, name string) (bool, error) {
	query := fmt.Sprintf("SELECT 1 FROM %s WHERE name = $1", s.tableName())

	var one int
	err := s.pool.QueryRow(ctx, query, name).Scan(&one)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, s.wrapError(err)
	}
	return true, nil
}

// List implements cache.DurableStore.
func (s *Store) List(ctx context.Context) ([]string, error) {
	query := fmt.Sprintf("SELECT name FROM %s ORDER BY name", s.tableName())

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, s.wrapError(err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// Read implements cache.DurableStore. Missing records return
// cache.ErrRecordNotFound.
func (s *Store) Read(ctx context.Context, name string) ([]byte, error) {
	query := fmt.Sprintf("SELECT data FROM %s WHERE name = $1", s.tableName())

	var data []byte
	err := s.pool.QueryRow(ctx, query, name).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, cache.ErrRecordNotFound
	}
	if err != nil {
		return nil, s.wrapError(err)
	}
	return data, nil
}

// Write implements cache.DurableStore, upserting the record.
func (s *Store) Write(ctx context.Context, name string, data []byte) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (name, data, created_at, updated_at)
		VALUES ($1, $2, $3, $3)
		ON CONFLICT (name) DO UPDATE SET data = EXCLUDED.data, updated_at = EXCLUDED.updated_at
	`, s.tableName())

	_, err := s.pool.Exec(ctx, query, name, data, time.Now())
	return s.wrapError(err)
}

// Delete implements cache.DurableStore. Deleting an absent record is a
// no-op.
func (s *Store) Delete(ctx context.Context, name string) error {
	query := fmt.Sprintf("DELETE FROM %s WHERE name = $1", s.tableName())

	_, err := s.pool.Exec(ctx, query, name)
	return s.wrapError(err)
}

// Close closes the connection pool.
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

// Pool returns the underlying connection pool.
func (s *Store) Pool() *pgxpool.Pool {
	return s.pool
}

func (s *Store) wrapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return err
	}
	return errors.Join(ErrConnectionFailed, err)
}

var _ cache.DurableStore = (*Store)(nil)
