package cache

import "time"

// Key prefixes
const (
	NoncePrefix     = "auth:nonce:"
	RevokedPrefix   = "blacklist:"
	SessionPrefix   = "session:"
	RateLimitPrefix = "rate_limit:"
)

// NonceRecord is the cached state of an issued challenge
type NonceRecord struct {
	Nonce     string    `json:"nonce"`
	IssuedAt  time.Time `json:"issuedAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// RevocationRecord marks a bearer credential as revoked
type RevocationRecord struct {
	RevokedAt time.Time `json:"revokedAt"`
	Reason    string    `json:"reason"`
}

// NonceKey returns the cache key of the nonce issued to wallet
func NonceKey(wallet string) string {
	return NoncePrefix + wallet
}

// RevokedKey returns the cache key of the revocation record for token
func RevokedKey(token string) string {
	return RevokedPrefix + token
}
