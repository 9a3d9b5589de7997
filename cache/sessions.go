package cache

import (
	"context"

	"github.com/Santhosh121805/based.credit/core"
)

// Sessions stores login sessions in the cache
type Sessions struct {
	cache *Cache
}

// NewSessions creates a session store on c
func NewSessions(c *Cache) *Sessions {
	return &Sessions{cache: c}
}

func sessionKey(id string) string {
	return SessionPrefix + id
}

// Create stores a new session for TTLDay
func (s *Sessions) Create(ctx context.Context, session core.Session) error {
	return s.cache.Set(ctx, sessionKey(session.ID), session, TTLDay)
}

// Get loads a session
func (s *Sessions) Get(ctx context.Context, id string) (core.Session, bool) {
	var session core.Session
	ok := s.cache.Get(ctx, sessionKey(id), &session)
	return session, ok
}

// Update overwrites a session and refreshes its TTL
func (s *Sessions) Update(ctx context.Context, session core.Session) error {
	return s.cache.Set(ctx, sessionKey(session.ID), session, TTLDay)
}

// Destroy removes a session
func (s *Sessions) Destroy(ctx context.Context, id string) error {
	return s.cache.Delete(ctx, sessionKey(id))
}

// Exists reports whether a session is present
func (s *Sessions) Exists(ctx context.Context, id string) bool {
	return s.cache.Exists(ctx, sessionKey(id))
}
