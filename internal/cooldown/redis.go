package cooldown

import (
	"context"
	"fmt"
	"time"

	backend "github.com/redis/go-redis/v9"
)

// RedisStore implements Store using Redis. Records are written with a TTL
// equal to the cooldown window, so stale entries expire on their own and
// the keyspace stays bounded by the action table.
type RedisStore struct {
	client backend.UniversalClient
	prefix string
	ttl    func(action string) time.Duration
}

type RedisOption func(*RedisStore)

// WithPrefix sets the key prefix for cooldown records.
func WithPrefix(prefix string) RedisOption {
	return func(s *RedisStore) {
		s.prefix = prefix
	}
}

// WithTTL sets the per-action record expiration. A zero duration keeps the
// record until it is overwritten.
func WithTTL(ttl func(action string) time.Duration) RedisOption {
	return func(s *RedisStore) {
		s.ttl = ttl
	}
}

// NewRedis creates a Redis store with options.
func NewRedis(addr, username, password string, db int, opts ...RedisOption) *RedisStore {
	client := backend.NewClient(&backend.Options{
		Addr:     addr,
		Username: username,
		Password: password,
		DB:       db,
	})
	return NewRedisFromClient(client, opts...)
}

// NewRedisFromClient creates a Redis store from an existing client.
func NewRedisFromClient(client backend.UniversalClient, opts ...RedisOption) *RedisStore {
	store := &RedisStore{
		client: client,
		prefix: "boilerwatch:cooldown:",
		ttl:    func(string) time.Duration { return 0 },
	}
	for _, opt := range opts {
		opt(store)
	}
	return store
}

func (s *RedisStore) key(action string) string {
	return s.prefix + action
}

// Last returns the stamp for the action, or false when none exists.
func (s *RedisStore) Last(ctx context.Context, action string) (time.Time, bool, error) {
	val, err := s.client.Get(ctx, s.key(action)).Result()
	if err == backend.Nil {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, fmt.Errorf("get cooldown record: %w", err)
	}
	at, err := time.Parse(time.RFC3339Nano, val)
	if err != nil {
		// An unreadable record is treated as absent; the next
		// successful trigger overwrites it.
		return time.Time{}, false, nil
	}
	return at, true, nil
}

// Record stamps the action, overwriting any previous record.
func (s *RedisStore) Record(ctx context.Context, action string, at time.Time) error {
	err := s.client.Set(ctx, s.key(action), at.UTC().Format(time.RFC3339Nano), s.ttl(action)).Err()
	if err != nil {
		return fmt.Errorf("set cooldown record: %w", err)
	}
	return nil
}

// Acquire claims the window for the action using SET NX PX, so concurrent
// callers cannot both win the same window.
func (s *RedisStore) Acquire(ctx context.Context, action string, window time.Duration) (bool, error) {
	ok, err := s.client.SetNX(ctx, s.key(action), time.Now().UTC().Format(time.RFC3339Nano), window).Result()
	if err != nil {
		return false, fmt.Errorf("acquire cooldown window: %w", err)
	}
	return ok, nil
}

// Release drops a record claimed by Acquire.
func (s *RedisStore) Release(ctx context.Context, action string) error {
	if err := s.client.Del(ctx, s.key(action)).Err(); err != nil {
		return fmt.Errorf("release cooldown window: %w", err)
	}
	return nil
}

// Close closes the redis client.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
