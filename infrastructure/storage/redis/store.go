package redis

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"

	"github.com/bulwarklib/bulwark/domain/cache"
)

const recordNamespace = "record:"

// Store is a Redis-backed implementation of cache.DurableStore. Records
// are plain string keys under a prefix, so several stores can share one
// Redis database.
type Store struct {
	client    *redis.Client
	keyPrefix string
}

// NewStore connects to Redis with the given configuration. The
// connection is verified with a ping before the store is returned.
func NewStore(cfg Config, opts ...ConfigOption) (*Store, error) {
	for _, opt := range opts {
		opt(&cfg)
	}

	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Address,
		Password:     cfg.Password,
		DB:           cfg.DB,
		MaxRetries:   cfg.MaxRetries,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
	})

	ctx, cancel := context.WithTimeout(context.Background(), cfg.DialTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, errors.Join(cache.ErrStoreUnavailable, err)
	}

	return &Store{client: client, keyPrefix: cfg.KeyPrefix}, nil
}

// NewStoreFromClient wraps an existing Redis client.
func NewStoreFromClient(client *redis.Client, keyPrefix string) *Store {
	return &Store{client: client, keyPrefix: keyPrefix}
}

func (s *Store) recordKey(name string) string {
	return s.keyPrefix + recordNamespace + name
}

// Create implements cache.DurableStore. Redis needs no schema; this is
// a connectivity check.
func (s *Store) Create(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.client.Ping(ctx).Err(); err != nil {
		return errors.Join(cache.ErrStoreUnavailable, err)
	}
	return nil
}

// Exists implements cache.DurableStore.
func (s *Store) Exists(ctx context.Context, name string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	n, err := s.client.Exists(ctx, s.recordKey(name)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// List implements cache.DurableStore, scanning the record namespace.
func (s *Store) List(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	prefix := s.keyPrefix + recordNamespace
	iter := s.client.Scan(ctx, 0, prefix+"*", 100).Iterator()

	var names []string
	for iter.Next(ctx) {
		names = append(names, iter.Val()[len(prefix):])
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}
	return names, nil
}

// Read implements cache.DurableStore. Missing records return
// cache.ErrRecordNotFound.
func (s *Store) Read(ctx context.Context, name string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := s.client.Get(ctx, s.recordKey(name)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, cache.ErrRecordNotFound
		}
		return nil, err
	}
	return data, nil
}

// Write implements cache.DurableStore.
func (s *Store) Write(ctx context.Context, name string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.client.Set(ctx, s.recordKey(name), data, 0).Err()
}

// Delete implements cache.DurableStore. Deleting an absent record is a
// no-op.
func (s *Store) Delete(ctx context.Context, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.client.Del(ctx, s.recordKey(name)).Err()
}

// Ping checks the Redis connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close closes the Redis connection.
func (s *Store) Close() error {
	return s.client.Close()
}

// Client returns the underlying Redis client.
func (s *Store) Client() *redis.Client {
	return s.client
}

var _ cache.DurableStore = (*Store)(nil)
