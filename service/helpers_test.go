package service

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/require"

	"github.com/Santhosh121805/based.credit/adapters/store"
	"github.com/Santhosh121805/based.credit/cache"
	"github.com/Santhosh121805/based.credit/logging"
)

var errDown = errors.New("connection refused")

type testClock struct {
	mu sync.Mutex
	t  time.Time
}

func newTestClock() *testClock {
	return &testClock{t: time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func (c *testClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = t
}

// spyStore counts calls reaching the backend
type spyStore struct {
	*store.MemoryStore
	mu    sync.Mutex
	calls int
	fail  bool
}

func (s *spyStore) hit() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.fail {
		return errDown
	}
	return nil
}

func (s *spyStore) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func (s *spyStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := s.hit(); err != nil {
		return err
	}
	return s.MemoryStore.Set(ctx, key, value, ttl)
}

func (s *spyStore) Get(ctx context.Context, key string) ([]byte, error) {
	if err := s.hit(); err != nil {
		return nil, err
	}
	return s.MemoryStore.Get(ctx, key)
}

func (s *spyStore) Delete(ctx context.Context, key string) error {
	if err := s.hit(); err != nil {
		return err
	}
	return s.MemoryStore.Delete(ctx, key)
}

func (s *spyStore) Exists(ctx context.Context, key string) (bool, error) {
	if err := s.hit(); err != nil {
		return false, err
	}
	return s.MemoryStore.Exists(ctx, key)
}

func (s *spyStore) IncrementWithExpiryOnCreate(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	if err := s.hit(); err != nil {
		return 0, err
	}
	return s.MemoryStore.IncrementWithExpiryOnCreate(ctx, key, ttl)
}

func newSpyCache(clock *testClock) (*cache.Cache, *spyStore) {
	backend := &spyStore{MemoryStore: store.NewMemoryStore().WithClock(clock.Now)}
	return cache.New(backend, "trustai:test", logging.Discard()), backend
}

// recordingActivity collects tracked updates
type recordingActivity struct {
	mu    sync.Mutex
	users []string
}

func (r *recordingActivity) Track(userID string, _ time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users = append(r.users, userID)
}

func (r *recordingActivity) Tracked() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.users...)
}

type publishedLogout struct {
	Address string
	TokenID string
}

type publishedActivity struct {
	UserID string
	At     time.Time
}

// fakePublisher records published events
type fakePublisher struct {
	mu       sync.Mutex
	logouts  []publishedLogout
	activity []publishedActivity
	err      error
}

func (p *fakePublisher) PublishLogout(_ context.Context, address, tokenID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.logouts = append(p.logouts, publishedLogout{Address: address, TokenID: tokenID})
	return p.err
}

func (p *fakePublisher) PublishActivity(_ context.Context, userID string, at time.Time) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.activity = append(p.activity, publishedActivity{UserID: userID, At: at})
	return p.err
}

func (p *fakePublisher) Activity() []publishedActivity {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]publishedActivity(nil), p.activity...)
}

func (p *fakePublisher) Logouts() []publishedLogout {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]publishedLogout(nil), p.logouts...)
}

func signPersonal(t *testing.T, key *ecdsa.PrivateKey, message string) string {
	t.Helper()
	sig, err := crypto.Sign(accounts.TextHash([]byte(message)), key)
	require.NoError(t, err)
	sig[crypto.RecoveryIDOffset] += 27
	return hexutil.Encode(sig)
}
