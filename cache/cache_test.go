package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Santhosh121805/based.credit/adapters/store"
	"github.com/Santhosh121805/based.credit/core"
	"github.com/Santhosh121805/based.credit/logging"
)

// failingStore fails every operation
type failingStore struct{}

var errDown = errors.New("connection refused")

func (failingStore) Set(context.Context, string, []byte, time.Duration) error { return errDown }
func (failingStore) Get(context.Context, string) ([]byte, error)              { return nil, errDown }
func (failingStore) Delete(context.Context, string) error                     { return errDown }
func (failingStore) Exists(context.Context, string) (bool, error)             { return false, errDown }
func (failingStore) IncrementWithExpiryOnCreate(context.Context, string, time.Duration) (int64, error) {
	return 0, errDown
}
func (failingStore) Ping(context.Context) error { return errDown }
func (failingStore) Close() error               { return nil }

type profile struct {
	Name   string            `json:"name"`
	Score  float64           `json:"score"`
	Tags   []string          `json:"tags"`
	Nested map[string][]int  `json:"nested"`
	Meta   map[string]string `json:"meta"`
}

func newCache() (*Cache, *store.MemoryStore) {
	backend := store.NewMemoryStore()
	return New(backend, "trustai:test", logging.Discard()), backend
}

func TestRoundTrip(t *testing.T) {
	c, _ := newCache()
	ctx := context.Background()

	t.Run("string", func(t *testing.T) {
		require.NoError(t, c.Set(ctx, "s", "hello", TTLShort))
		var got string
		require.True(t, c.Get(ctx, "s", &got))
		assert.Equal(t, "hello", got)
	})

	t.Run("number", func(t *testing.T) {
		require.NoError(t, c.Set(ctx, "n", 42.5, TTLShort))
		var got float64
		require.True(t, c.Get(ctx, "n", &got))
		assert.Equal(t, 42.5, got)
	})

	t.Run("array", func(t *testing.T) {
		in := []string{"a", "b", "c"}
		require.NoError(t, c.Set(ctx, "a", in, TTLShort))
		var got []string
		require.True(t, c.Get(ctx, "a", &got))
		assert.Equal(t, in, got)
	})

	t.Run("nested object", func(t *testing.T) {
		in := profile{
			Name:   "alice",
			Score:  712,
			Tags:   []string{"verified"},
			Nested: map[string][]int{"loans": {1, 2, 3}},
			Meta:   map[string]string{"tier": "gold"},
		}
		require.NoError(t, c.Set(ctx, "p", in, TTLShort))
		var got profile
		require.True(t, c.Get(ctx, "p", &got))
		assert.Equal(t, in, got)
	})

	t.Run("untyped object", func(t *testing.T) {
		in := map[string]any{"list": []any{1.0, "two"}, "obj": map[string]any{"k": true}}
		require.NoError(t, c.Set(ctx, "m", in, TTLShort))
		var got map[string]any
		require.True(t, c.Get(ctx, "m", &got))
		assert.Equal(t, in, got)
	})
}

func TestNamespacing(t *testing.T) {
	c, backend := newCache()
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", "v", TTLShort))
	ok, err := backend.Exists(ctx, "trustai:test:k")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestUnexpectedShapeIsMiss(t *testing.T) {
	c, _ := newCache()
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, NonceKey("0xabc"), map[string]any{"nonce": "n1", "admin": true}, TTLShort))

	var rec NonceRecord
	assert.False(t, c.Get(ctx, NonceKey("0xabc"), &rec))
}

func TestReadsFailOpenWritesFailLoud(t *testing.T) {
	c := New(failingStore{}, "ns", logging.Discard())
	ctx := context.Background()

	var v string
	assert.False(t, c.Get(ctx, "k", &v))
	assert.False(t, c.Exists(ctx, "k"))

	assert.ErrorIs(t, c.Set(ctx, "k", "v", TTLShort), errDown)
	assert.ErrorIs(t, c.Delete(ctx, "k"), errDown)
	_, err := c.IncrementWithExpiryOnCreate(ctx, "k", TTLShort)
	assert.ErrorIs(t, err, errDown)
}

func TestSessions(t *testing.T) {
	c, _ := newCache()
	sessions := NewSessions(c)
	ctx := context.Background()

	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	s := core.Session{
		ID:            "sess-1",
		UserID:        "u1",
		WalletAddress: "0xabcdef0123456789abcdef0123456789abcdef01",
		IssuedAt:      now,
		ExpiresAt:     now.Add(TTLDay),
	}

	require.NoError(t, sessions.Create(ctx, s))
	assert.True(t, sessions.Exists(ctx, "sess-1"))

	got, ok := sessions.Get(ctx, "sess-1")
	require.True(t, ok)
	assert.Equal(t, s, got)

	s.ExpiresAt = now.Add(2 * TTLDay)
	require.NoError(t, sessions.Update(ctx, s))
	got, _ = sessions.Get(ctx, "sess-1")
	assert.Equal(t, s.ExpiresAt, got.ExpiresAt)

	require.NoError(t, sessions.Destroy(ctx, "sess-1"))
	assert.False(t, sessions.Exists(ctx, "sess-1"))
}
