package tokenizer

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/Santhosh121805/based.credit/core"
)

const (
	Issuer   = "trust-ai-weave"
	Audience = "trust-ai-weave-users"
)

// JWTTokenizer implements the Tokenizer interface using HS256 JWTs
type JWTTokenizer struct {
	secret []byte
	now    func() time.Time
}

// Option configures a JWTTokenizer
type Option func(*JWTTokenizer)

// WithClock replaces the time source used for issuing and validation
func WithClock(now func() time.Time) Option {
	return func(j *JWTTokenizer) {
		j.now = now
	}
}

// NewJWTTokenizer creates a new JWT tokenizer
func NewJWTTokenizer(secret []byte, opts ...Option) *JWTTokenizer {
	j := &JWTTokenizer{secret: secret, now: time.Now}
	for _, opt := range opts {
		opt(j)
	}
	return j
}

// Issue signs claims into a bearer credential. Issuer and audience are
// always overwritten with the service constants. IssuedAt and the derived
// expiry are truncated to whole seconds, the precision of a JWT NumericDate.
func (j *JWTTokenizer) Issue(claims core.TokenClaims, ttl time.Duration) (string, error) {
	if claims.Subject == "" {
		return "", fmt.Errorf("missing subject: %w", core.ErrInvalidClaims)
	}
	if !core.IsValidAddress(claims.WalletAddress) {
		return "", fmt.Errorf("wallet %q: %w", claims.WalletAddress, core.ErrInvalidAddress)
	}

	issuedAt := claims.IssuedAt
	if issuedAt.IsZero() {
		issuedAt = j.now()
	}
	issuedAt = issuedAt.Truncate(time.Second)
	expiresAt := issuedAt.Add(ttl).Truncate(time.Second)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, AccessClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   claims.Subject,
			Issuer:    Issuer,
			Audience:  jwt.ClaimStrings{Audience},
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		UserID:        claims.Subject,
		WalletAddress: core.NormalizeAddress(claims.WalletAddress),
	})

	signedToken, err := token.SignedString(j.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return signedToken, nil
}

// Verify parses and validates a bearer credential. Expiry is checked before
// the signature so an expired token always reports core.ErrTokenExpired.
func (j *JWTTokenizer) Verify(tokenStr string) (core.TokenClaims, error) {
	unverified := &AccessClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(tokenStr, unverified); err != nil {
		return core.TokenClaims{}, fmt.Errorf("%w: %w", core.ErrTokenMalformed, err)
	}
	if unverified.ExpiresAt == nil {
		return core.TokenClaims{}, fmt.Errorf("missing exp: %w", core.ErrInvalidClaims)
	}
	if !j.now().Before(unverified.ExpiresAt.Time) {
		return core.TokenClaims{}, core.ErrTokenExpired
	}

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(Issuer),
		jwt.WithAudience(Audience),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(j.now),
	)

	// Parse token
	token, err := parser.ParseWithClaims(tokenStr, &AccessClaims{}, func(token *jwt.Token) (interface{}, error) {
		// Validate the signing method
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return j.secret, nil
	})
	if err != nil {
		return core.TokenClaims{}, classify(err)
	}

	// Validate token
	if !token.Valid {
		return core.TokenClaims{}, core.ErrSignatureInvalid
	}

	// Extract claims
	claims, ok := token.Claims.(*AccessClaims)
	if !ok {
		return core.TokenClaims{}, fmt.Errorf("invalid claims type: %w", core.ErrInvalidClaims)
	}

	return toCore(claims)
}

// toCore validates the claim schema and converts it to core.TokenClaims
func toCore(claims *AccessClaims) (core.TokenClaims, error) {
	if claims.Subject == "" {
		return core.TokenClaims{}, fmt.Errorf("missing sub: %w", core.ErrInvalidClaims)
	}
	if claims.UserID != "" && claims.UserID != claims.Subject {
		return core.TokenClaims{}, fmt.Errorf("userId does not match sub: %w", core.ErrInvalidClaims)
	}
	if !core.IsValidAddress(claims.WalletAddress) {
		return core.TokenClaims{}, fmt.Errorf("walletAddress: %w", core.ErrInvalidClaims)
	}
	if claims.IssuedAt == nil || claims.ExpiresAt == nil || len(claims.Audience) != 1 {
		return core.TokenClaims{}, core.ErrInvalidClaims
	}

	return core.TokenClaims{
		Subject:       claims.Subject,
		WalletAddress: core.NormalizeAddress(claims.WalletAddress),
		IssuedAt:      claims.IssuedAt.Time.UTC(),
		ExpiresAt:     claims.ExpiresAt.Time.UTC(),
		Issuer:        claims.Issuer,
		Audience:      claims.Audience[0],
	}, nil
}

// classify maps jwt library errors onto the core token errors
func classify(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return core.ErrTokenExpired
	case errors.Is(err, jwt.ErrTokenMalformed):
		return fmt.Errorf("%w: %w", core.ErrTokenMalformed, err)
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
		return fmt.Errorf("%w: %w", core.ErrSignatureInvalid, err)
	default:
		return fmt.Errorf("%w: %w", core.ErrInvalidClaims, err)
	}
}
