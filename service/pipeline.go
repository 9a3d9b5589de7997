package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/Santhosh121805/based.credit/cache"
	"github.com/Santhosh121805/based.credit/core"
	"github.com/Santhosh121805/based.credit/observability"
	"github.com/Santhosh121805/based.credit/ports"
)

// ActivityRecorder schedules last-active updates without blocking
type ActivityRecorder interface {
	Track(userID string, at time.Time)
}

// Pipeline authenticates inbound requests
type Pipeline struct {
	tokens   ports.Tokenizer
	cache    *cache.Cache
	users    ports.UserRepository
	activity ActivityRecorder
	logger   *slog.Logger
	now      func() time.Time
}

// NewPipeline creates an authentication pipeline
func NewPipeline(
	tokens ports.Tokenizer,
	c *cache.Cache,
	users ports.UserRepository,
	activity ActivityRecorder,
	logger *slog.Logger,
) *Pipeline {
	return &Pipeline{
		tokens:   tokens,
		cache:    c,
		users:    users,
		activity: activity,
		logger:   logger,
		now:      time.Now,
	}
}

// WithClock replaces the time source used for activity timestamps
func (p *Pipeline) WithClock(now func() time.Time) *Pipeline {
	p.now = now
	return p
}

// Authenticate resolves the caller of a request. Requests without a bearer
// credential are returned unauthenticated with a fallback wallet address.
// Any presented credential must be well formed, unrevoked and valid, and
// must belong to an active user whose wallet matches the token.
func (p *Pipeline) Authenticate(ctx context.Context, meta core.RequestMeta) (*core.AuthContext, error) {
	header := meta.Header.Get(authorizationHeader)
	if header == "" {
		wallet, _ := ResolveWallet(meta, p.tokens)
		observability.AuthAttemptsTotal.WithLabelValues("anonymous").Inc()
		return &core.AuthContext{State: core.Unauthenticated, WalletAddress: wallet}, nil
	}

	token, ok := bearerToken(header)
	if !ok {
		return nil, p.fail("malformed_header", core.Unauthorized("Invalid authorization header format", core.ErrTokenMalformed))
	}

	if p.cache.Exists(ctx, cache.RevokedKey(token)) {
		return nil, p.fail("revoked", core.Unauthorized("Token has been revoked", core.ErrTokenRevoked))
	}

	claims, err := p.tokens.Verify(token)
	if err != nil {
		if errors.Is(err, core.ErrTokenExpired) {
			return nil, p.fail("expired", core.Unauthorized("Token expired", err))
		}
		return nil, p.fail("invalid_token", core.Unauthorized("Invalid token", err))
	}

	user, err := p.users.FindUserByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, core.ErrUserNotFound) {
			return nil, p.fail("user_not_found", core.Unauthorized("User not found", err))
		}
		return nil, p.fail("error", core.Internal("Token verification failed", err))
	}
	if user.Status != core.StatusActive {
		return nil, p.fail("inactive", core.Forbidden("User account is not active", nil))
	}
	if !core.SameAddress(user.WalletAddress, claims.WalletAddress) {
		return nil, p.fail("wallet_mismatch", core.Unauthorized("Invalid token", core.ErrInvalidClaims))
	}

	p.activity.Track(user.ID, p.now())
	observability.AuthAttemptsTotal.WithLabelValues("success").Inc()

	return &core.AuthContext{
		State:         core.Authenticated,
		Identity:      user,
		WalletAddress: core.NormalizeAddress(user.WalletAddress),
		Token:         token,
		Claims:        &claims,
	}, nil
}

// AuthenticateOptional behaves like Authenticate but degrades every failure
// to an unauthenticated context carrying the resolver's fallback wallet
func (p *Pipeline) AuthenticateOptional(ctx context.Context, meta core.RequestMeta) *core.AuthContext {
	ac, err := p.Authenticate(ctx, meta)
	if err == nil {
		return ac
	}

	p.logger.Debug("Optional authentication failed", slog.Any("error", err))
	wallet, _ := ResolveWallet(meta, p.tokens)
	return &core.AuthContext{State: core.Unauthenticated, WalletAddress: wallet}
}

func (p *Pipeline) fail(outcome string, err error) error {
	observability.AuthAttemptsTotal.WithLabelValues(outcome).Inc()
	return err
}
