package core

import (
	"net/http"
	"net/url"
	"time"
)

// Role is the authorization role of an identity
type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

// Status is the account status of an identity
type Status string

const (
	StatusActive    Status = "ACTIVE"
	StatusSuspended Status = "SUSPENDED"
	StatusBanned    Status = "BANNED"
)

// Identity is a user record loaded from the persistent repository.
// It is loaded fresh on every request and never cached.
type Identity struct {
	ID            string    `json:"id"`
	WalletAddress string    `json:"walletAddress"`
	Role          Role      `json:"role"`
	Verified      bool      `json:"isVerified"`
	Status        Status    `json:"status"`
	LastActiveAt  time.Time `json:"lastActiveAt,omitempty"`
}

// TokenClaims are the claims carried by a bearer credential
type TokenClaims struct {
	Subject       string    // User ID
	WalletAddress string    // Canonical lowercase wallet address
	IssuedAt      time.Time // When the token was issued
	ExpiresAt     time.Time // When the token expires
	Issuer        string
	Audience      string
}

// Challenge represents a wallet sign-in challenge
type Challenge struct {
	WalletAddress string    // Wallet the challenge was issued for
	Nonce         string    // Random nonce to be signed
	Message       string    // Human readable message embedding the nonce
	IssuedAt      time.Time // When the challenge was created
	ExpiresAt     time.Time // When the challenge expires
}

// Session represents an authenticated user session
type Session struct {
	ID            string    `json:"id"`
	UserID        string    `json:"userId"`
	WalletAddress string    `json:"walletAddress"`
	IssuedAt      time.Time `json:"issuedAt"`
	ExpiresAt     time.Time `json:"expiresAt"`
}

// RequestMeta is the transport independent view of an inbound request
type RequestMeta struct {
	Header   http.Header
	Query    url.Values
	RemoteIP string
}

// AuthState is the position of a request in the auth state machine
type AuthState int

const (
	Unauthenticated AuthState = iota
	Authenticated
	Authorized
)

func (s AuthState) String() string {
	switch s {
	case Authenticated:
		return "authenticated"
	case Authorized:
		return "authorized"
	default:
		return "unauthenticated"
	}
}

// AuthContext is the outcome of running the authentication pipeline
type AuthContext struct {
	State         AuthState
	Identity      *Identity
	WalletAddress string
	Token         string
	Claims        *TokenClaims
}

// IsAuthenticated reports whether an identity has been attached
func (a *AuthContext) IsAuthenticated() bool {
	return a != nil && a.Identity != nil && a.State >= Authenticated
}

// RateLimitResult is the outcome of a single rate limit check
type RateLimitResult struct {
	Identifier string
	Window     int64
	Count      int64
	Limit      int64
	Remaining  int64
	Allowed    bool
	ResetTime  time.Time
}
