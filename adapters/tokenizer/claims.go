package tokenizer

import "github.com/golang-jwt/jwt/v5"

// AccessClaims combines standard claims with wallet-specific ones
type AccessClaims struct {
	jwt.RegisteredClaims
	UserID        string `json:"userId"`
	WalletAddress string `json:"walletAddress"`
}
