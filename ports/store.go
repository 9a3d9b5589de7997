package ports

import (
	"context"
	"time"
)

// KVStore is a namespaced key-value backend with TTL and atomic increment.
// Get returns core.ErrNotFound for absent keys.
type KVStore interface {
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Get(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)

	// IncrementWithExpiryOnCreate atomically increments key and applies ttl
	// only when the increment created the key.
	IncrementWithExpiryOnCreate(ctx context.Context, key string, ttl time.Duration) (int64, error)

	Ping(ctx context.Context) error
	Close() error
}
