package service

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"log/slog"
	"time"

	"github.com/Santhosh121805/based.credit/adapters/tokenizer"
	"github.com/Santhosh121805/based.credit/cache"
	"github.com/Santhosh121805/based.credit/core"
	"github.com/Santhosh121805/based.credit/observability"
)

const (
	// ChallengeTTL is how long an issued nonce stays valid
	ChallengeTTL = cache.TTLMedium

	challengeStatement = "Sign this message to authenticate with Trust AI Weave."
)

// ChallengeConfig describes the relying party embedded in sign-in messages
type ChallengeConfig struct {
	Domain  string
	URI     string
	ChainID int64
}

// ChallengeService issues wallet sign-in challenges and verifies their signatures
type ChallengeService struct {
	cache  *cache.Cache
	cfg    ChallengeConfig
	logger *slog.Logger
	now    func() time.Time
}

// NewChallengeService creates a new challenge service
func NewChallengeService(c *cache.Cache, cfg ChallengeConfig, logger *slog.Logger) *ChallengeService {
	if cfg.URI == "" {
		cfg.URI = "https://" + cfg.Domain
	}
	if cfg.ChainID == 0 {
		cfg.ChainID = 1
	}
	return &ChallengeService{cache: c, cfg: cfg, logger: logger, now: time.Now}
}

// WithClock replaces the time source
func (s *ChallengeService) WithClock(now func() time.Time) *ChallengeService {
	s.now = now
	return s
}

// IssueChallenge generates a nonce for walletAddress, stores it for
// ChallengeTTL and returns the message the wallet must sign
func (s *ChallengeService) IssueChallenge(ctx context.Context, walletAddress string) (core.Challenge, error) {
	if !core.IsValidAddress(walletAddress) {
		return core.Challenge{}, core.BadRequest("Invalid wallet address", core.ErrInvalidAddress)
	}
	wallet := core.NormalizeAddress(walletAddress)

	nonce, err := newNonce()
	if err != nil {
		return core.Challenge{}, core.Internal("failed to generate nonce", err)
	}

	issuedAt := s.now().UTC().Truncate(time.Second)
	expiresAt := issuedAt.Add(ChallengeTTL)

	message, err := tokenizer.SIWEMessage{
		Domain:         s.cfg.Domain,
		Address:        wallet,
		Statement:      challengeStatement,
		URI:            s.cfg.URI,
		Version:        tokenizer.SIWEVersion,
		ChainID:        s.cfg.ChainID,
		Nonce:          nonce,
		IssuedAt:       issuedAt,
		ExpirationTime: expiresAt,
	}.Render()
	if err != nil {
		return core.Challenge{}, core.Internal("failed to build challenge message", err)
	}

	record := cache.NonceRecord{Nonce: nonce, IssuedAt: issuedAt, ExpiresAt: expiresAt}
	if err := s.cache.Set(ctx, cache.NonceKey(wallet), record, ChallengeTTL); err != nil {
		return core.Challenge{}, core.Internal("failed to store challenge", err)
	}

	s.logger.Info("Authentication challenge generated", slog.String("wallet", wallet))

	return core.Challenge{
		WalletAddress: wallet,
		Nonce:         nonce,
		Message:       message,
		IssuedAt:      issuedAt,
		ExpiresAt:     expiresAt,
	}, nil
}

// Verify reports whether signature over message proves ownership of
// claimedAddress for an outstanding challenge. It never returns an error;
// every rejection is logged with its reason. A successful verification
// consumes the nonce.
func (s *ChallengeService) Verify(ctx context.Context, message, signature, claimedAddress string) bool {
	wallet := core.NormalizeAddress(claimedAddress)
	reject := func(reason string, err error) bool {
		observability.ChallengeVerificationsTotal.WithLabelValues("rejected").Inc()
		attrs := []any{slog.String("wallet", wallet), slog.String("reason", reason)}
		if err != nil {
			attrs = append(attrs, slog.Any("error", err))
		}
		s.logger.Warn("Wallet signature verification failed", attrs...)
		return false
	}

	if !core.IsValidAddress(wallet) {
		return reject("invalid claimed address", core.ErrInvalidAddress)
	}

	parsed, err := tokenizer.ParseSIWEMessage(message)
	if err != nil {
		return reject("unparseable message", err)
	}
	if !core.SameAddress(parsed.Address, wallet) {
		return reject("message address mismatch", nil)
	}
	if parsed.Domain != s.cfg.Domain {
		return reject("domain mismatch", nil)
	}
	if parsed.URI != s.cfg.URI {
		return reject("uri mismatch", nil)
	}
	if parsed.ChainID != s.cfg.ChainID {
		return reject("chain id mismatch", nil)
	}

	now := s.now()
	if err := parsed.ValidAt(now); err != nil {
		return reject("message expired", err)
	}

	var record cache.NonceRecord
	if !s.cache.Get(ctx, cache.NonceKey(wallet), &record) {
		return reject("no outstanding challenge", nil)
	}
	if subtle.ConstantTimeCompare([]byte(record.Nonce), []byte(parsed.Nonce)) != 1 {
		return reject("nonce mismatch", nil)
	}
	if !now.Before(record.ExpiresAt) {
		return reject("challenge expired", nil)
	}

	if err := parsed.VerifySignature(signature, wallet); err != nil {
		return reject("signature does not match address", err)
	}

	if err := s.cache.Delete(ctx, cache.NonceKey(wallet)); err != nil {
		return reject("failed to consume nonce", err)
	}

	observability.ChallengeVerificationsTotal.WithLabelValues("verified").Inc()
	return true
}

func newNonce() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("read random: %w", err)
	}
	return hex.EncodeToString(b), nil
}
