// Package cache layers key namespacing, JSON serialization and the
// read/write failure policy over a ports.KVStore backend.
//
// Reads never fail: absent keys, backend errors and values that do not
// decode into the requested schema all report a miss. Writes propagate
// backend errors because callers use them to gate security decisions.
package cache

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Santhosh121805/based.credit/core"
	"github.com/Santhosh121805/based.credit/observability"
	"github.com/Santhosh121805/based.credit/ports"
)

// Common TTLs
const (
	TTLShort  = time.Minute
	TTLMedium = 5 * time.Minute
	TTLDay    = 24 * time.Hour
)

// Cache is a namespaced JSON cache with an atomic counter primitive
type Cache struct {
	store     ports.KVStore
	namespace string
	logger    *slog.Logger
}

// New creates a cache on store. Every key is prefixed with namespace + ":".
func New(store ports.KVStore, namespace string, logger *slog.Logger) *Cache {
	return &Cache{store: store, namespace: namespace, logger: logger}
}

// Key returns the fully qualified backend key
func (c *Cache) Key(key string) string {
	if c.namespace == "" {
		return key
	}
	return c.namespace + ":" + key
}

// Set serializes value as JSON and stores it with ttl
func (c *Cache) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode cache value %s: %w", key, err)
	}
	if err := c.store.Set(ctx, c.Key(key), payload, ttl); err != nil {
		c.logger.Error("cache set failed", slog.String("key", key), slog.Any("error", err))
		return err
	}
	c.logger.Debug("cache set", slog.String("key", key), slog.Duration("ttl", ttl))
	return nil
}

// Get decodes the value under key into dest and reports whether it was found.
// Unknown fields are rejected so a value of an unexpected shape is a miss.
func (c *Cache) Get(ctx context.Context, key string, dest any) bool {
	payload, err := c.store.Get(ctx, c.Key(key))
	if err != nil {
		if !errors.Is(err, core.ErrNotFound) {
			observability.CacheReadFailuresTotal.WithLabelValues("get").Inc()
			c.logger.Error("cache get failed", slog.String("key", key), slog.Any("error", err))
		} else {
			c.logger.Debug("cache miss", slog.String("key", key))
		}
		return false
	}

	dec := json.NewDecoder(bytes.NewReader(payload))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dest); err != nil {
		observability.CacheReadFailuresTotal.WithLabelValues("decode").Inc()
		c.logger.Warn("cache value rejected", slog.String("key", key), slog.Any("error", err))
		return false
	}
	c.logger.Debug("cache hit", slog.String("key", key))
	return true
}

// Delete removes key
func (c *Cache) Delete(ctx context.Context, key string) error {
	if err := c.store.Delete(ctx, c.Key(key)); err != nil {
		c.logger.Error("cache delete failed", slog.String("key", key), slog.Any("error", err))
		return err
	}
	return nil
}

// Exists reports whether key is present. Backend errors read as absent.
func (c *Cache) Exists(ctx context.Context, key string) bool {
	ok, err := c.store.Exists(ctx, c.Key(key))
	if err != nil {
		observability.CacheReadFailuresTotal.WithLabelValues("exists").Inc()
		c.logger.Error("cache exists check failed", slog.String("key", key), slog.Any("error", err))
		return false
	}
	return ok
}

// IncrementWithExpiryOnCreate atomically increments the counter under key.
// ttl is applied only when the counter is created.
func (c *Cache) IncrementWithExpiryOnCreate(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	n, err := c.store.IncrementWithExpiryOnCreate(ctx, c.Key(key), ttl)
	if err != nil {
		c.logger.Error("cache increment failed", slog.String("key", key), slog.Any("error", err))
		return 0, err
	}
	return n, nil
}

// Ping checks the backend
func (c *Cache) Ping(ctx context.Context) error {
	return c.store.Ping(ctx)
}
