package repository

import (
	"context"
	"sync"
	"time"

	"github.com/Santhosh121805/based.credit/core"
	"github.com/Santhosh121805/based.credit/ports"
)

// MemoryUserRepository is an in-memory user store for tests and local runs.
type MemoryUserRepository struct {
	mu    sync.RWMutex
	users map[string]core.Identity
}

var _ ports.UserRepository = (*MemoryUserRepository)(nil)

// NewMemoryUserRepository builds an in-memory repository seeded with users.
func NewMemoryUserRepository(users ...core.Identity) *MemoryUserRepository {
	r := &MemoryUserRepository{users: make(map[string]core.Identity, len(users))}
	for _, u := range users {
		r.Put(u)
	}
	return r
}

// Put inserts or replaces a user.
func (r *MemoryUserRepository) Put(user core.Identity) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user.WalletAddress = core.NormalizeAddress(user.WalletAddress)
	r.users[user.ID] = user
}

func (r *MemoryUserRepository) FindUserByID(_ context.Context, id string) (*core.Identity, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	user, ok := r.users[id]
	if !ok {
		return nil, core.ErrUserNotFound
	}
	return &user, nil
}

func (r *MemoryUserRepository) FindUserByWallet(_ context.Context, address string) (*core.Identity, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	address = core.NormalizeAddress(address)
	for _, user := range r.users {
		if user.WalletAddress == address {
			return &user, nil
		}
	}
	return nil, core.ErrUserNotFound
}

func (r *MemoryUserRepository) UpdateLastActive(_ context.Context, id string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return core.ErrUserNotFound
	}
	user.LastActiveAt = at.UTC()
	r.users[id] = user
	return nil
}

func (r *MemoryUserRepository) Ping(context.Context) error { return nil }
