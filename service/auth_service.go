package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/Santhosh121805/based.credit/cache"
	"github.com/Santhosh121805/based.credit/core"
	"github.com/Santhosh121805/based.credit/ports"
)

// DefaultAccessTTL is the bearer credential lifetime when none is configured
const DefaultAccessTTL = 24 * time.Hour

// LoginResult is returned by a successful login
type LoginResult struct {
	Token     string
	ExpiresAt time.Time
	SessionID string
	User      *core.Identity
}

// AuthService handles authentication business logic
type AuthService struct {
	challenges *ChallengeService
	tokenizer  ports.Tokenizer
	users      ports.UserRepository
	cache      *cache.Cache
	sessions   *cache.Sessions
	eventPub   ports.EventPublisher
	logger     *slog.Logger

	accessTTL time.Duration
	now       func() time.Time
}

// NewAuthService creates a new authentication service
func NewAuthService(
	challenges *ChallengeService,
	tokenizer ports.Tokenizer,
	users ports.UserRepository,
	c *cache.Cache,
	eventPub ports.EventPublisher,
	logger *slog.Logger,
	accessTTL time.Duration,
) *AuthService {
	if accessTTL <= 0 {
		accessTTL = DefaultAccessTTL
	}
	return &AuthService{
		challenges: challenges,
		tokenizer:  tokenizer,
		users:      users,
		cache:      c,
		sessions:   cache.NewSessions(c),
		eventPub:   eventPub,
		logger:     logger,
		accessTTL:  accessTTL,
		now:        time.Now,
	}
}

// WithClock replaces the time source
func (s *AuthService) WithClock(now func() time.Time) *AuthService {
	s.now = now
	return s
}

// CreateChallenge generates a new authentication challenge
func (s *AuthService) CreateChallenge(ctx context.Context, address string) (core.Challenge, error) {
	return s.challenges.IssueChallenge(ctx, address)
}

// Login exchanges a signed challenge for a bearer credential and a session
func (s *AuthService) Login(ctx context.Context, message, signature, address string) (*LoginResult, error) {
	if !core.IsValidAddress(address) {
		return nil, core.BadRequest("Invalid wallet address", core.ErrInvalidAddress)
	}
	wallet := core.NormalizeAddress(address)

	if !s.challenges.Verify(ctx, message, signature, wallet) {
		return nil, core.Unauthorized("Invalid signature", core.ErrSignatureInvalid)
	}

	user, err := s.users.FindUserByWallet(ctx, wallet)
	if err != nil {
		if errors.Is(err, core.ErrUserNotFound) {
			return nil, core.Unauthorized("User not found", err)
		}
		return nil, core.Internal("failed to load user", err)
	}
	if user.Status != core.StatusActive {
		return nil, core.Forbidden("User account is not active", nil)
	}

	issuedAt := s.now().UTC().Truncate(time.Second)
	token, err := s.tokenizer.Issue(core.TokenClaims{
		Subject:       user.ID,
		WalletAddress: user.WalletAddress,
		IssuedAt:      issuedAt,
	}, s.accessTTL)
	if err != nil {
		return nil, core.Internal("failed to create access token", err)
	}

	session := core.Session{
		ID:            uuid.NewString(),
		UserID:        user.ID,
		WalletAddress: user.WalletAddress,
		IssuedAt:      issuedAt,
		ExpiresAt:     issuedAt.Add(s.accessTTL),
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, core.Internal("failed to create session", err)
	}

	s.logger.Info("User authenticated",
		slog.String("user_id", user.ID),
		slog.String("wallet", user.WalletAddress),
		slog.String("session_id", session.ID))

	return &LoginResult{
		Token:     token,
		ExpiresAt: session.ExpiresAt,
		SessionID: session.ID,
		User:      user,
	}, nil
}

// Logout revokes the credential of ac for the rest of its lifetime and
// destroys sessionID when given
func (s *AuthService) Logout(ctx context.Context, ac *core.AuthContext, sessionID string) error {
	if !ac.IsAuthenticated() || ac.Claims == nil {
		return core.Unauthorized("Authentication required", nil)
	}

	now := s.now()
	ttl := ac.Claims.ExpiresAt.Sub(now)
	if ttl < time.Second {
		ttl = time.Second
	}

	record := cache.RevocationRecord{RevokedAt: now.UTC(), Reason: "logout"}
	if err := s.cache.Set(ctx, cache.RevokedKey(ac.Token), record, ttl); err != nil {
		return core.Internal("failed to revoke token", err)
	}

	if sessionID != "" {
		if session, ok := s.sessions.Get(ctx, sessionID); ok && session.UserID == ac.Identity.ID {
			if err := s.sessions.Destroy(ctx, sessionID); err != nil {
				s.logger.Warn("Failed to destroy session",
					slog.String("session_id", sessionID),
					slog.Any("error", err))
			}
		}
	}

	// Token is already revoked; a lost event only delays other instances
	if err := s.eventPub.PublishLogout(ctx, ac.WalletAddress, tokenFingerprint(ac.Token)); err != nil {
		s.logger.Warn("Failed to publish logout event", slog.Any("error", err))
	}

	return nil
}

// Me loads the current profile of the authenticated identity
func (s *AuthService) Me(ctx context.Context, ac *core.AuthContext) (*core.Identity, error) {
	if !ac.IsAuthenticated() {
		return nil, core.Unauthorized("Authentication required", nil)
	}
	return s.FindUser(ctx, ac.Identity.ID)
}

// FindUser loads a user by id
func (s *AuthService) FindUser(ctx context.Context, id string) (*core.Identity, error) {
	user, err := s.users.FindUserByID(ctx, id)
	if err != nil {
		if errors.Is(err, core.ErrUserNotFound) {
			return nil, core.NotFound("User not found", err)
		}
		return nil, core.Internal("failed to load user", err)
	}
	return user, nil
}

// tokenFingerprint identifies a credential in events without exposing it
func tokenFingerprint(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
