package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Santhosh121805/based.credit/core"
	"github.com/redis/go-redis/v9"
)

// incrScript increments a counter and sets its expiry only when the
// increment created it, so later increments never extend the window.
var incrScript = redis.NewScript(`
local current = redis.call("INCR", KEYS[1])
if current == 1 then
	redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return current
`)

// RedisStore is a Redis implementation of the KVStore interface
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore creates a new Redis store on a shared client
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// Set stores value under key with expiration
func (s *RedisStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := s.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w: %w", key, core.ErrStoreUnavailable, err)
	}
	return nil
}

// Get retrieves the value stored under key
func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, error) {
	val, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, core.ErrNotFound
		}
		return nil, fmt.Errorf("redis get %s: %w: %w", key, core.ErrStoreUnavailable, err)
	}
	return val, nil
}

// Delete removes key
func (s *RedisStore) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("redis del %s: %w: %w", key, core.ErrStoreUnavailable, err)
	}
	return nil
}

// Exists checks if key is present
func (s *RedisStore) Exists(ctx context.Context, key string) (bool, error) {
	n, err := s.client.Exists(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("redis exists %s: %w: %w", key, core.ErrStoreUnavailable, err)
	}
	return n > 0, nil
}

// IncrementWithExpiryOnCreate atomically increments key via a Lua script
func (s *RedisStore) IncrementWithExpiryOnCreate(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	n, err := incrScript.Run(ctx, s.client, []string{key}, ttl.Milliseconds()).Int64()
	if err != nil {
		return 0, fmt.Errorf("redis incr %s: %w: %w", key, core.ErrStoreUnavailable, err)
	}
	return n, nil
}

// Ping checks connectivity
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Client returns the Redis client.
// It is shared with the Watermill publisher and subscriber.
func (s *RedisStore) Client() *redis.Client {
	return s.client
}

// Close closes the Redis connection
func (s *RedisStore) Close() error {
	return s.client.Close()
}
