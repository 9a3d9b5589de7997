package service

import (
	"strings"

	"github.com/Santhosh121805/based.credit/core"
	"github.com/Santhosh121805/based.credit/ports"
)

const (
	WalletHeader     = "X-Wallet-Address"
	WalletQueryParam = "wallet"

	authorizationHeader = "Authorization"
	bearerPrefix        = "Bearer "
)

// ResolveWallet extracts a candidate wallet address from request metadata.
// Sources in priority order: the wallet header, the wallet claim of a bearer
// token that verifies, the wallet query parameter. The result is lowercase
// and is not checked against any store.
func ResolveWallet(meta core.RequestMeta, tokens ports.Tokenizer) (string, bool) {
	if wallet := strings.TrimSpace(meta.Header.Get(WalletHeader)); wallet != "" {
		return core.NormalizeAddress(wallet), true
	}

	if token, ok := bearerToken(meta.Header.Get(authorizationHeader)); ok && tokens != nil {
		if claims, err := tokens.Verify(token); err == nil && claims.WalletAddress != "" {
			return core.NormalizeAddress(claims.WalletAddress), true
		}
	}

	if wallet := strings.TrimSpace(meta.Query.Get(WalletQueryParam)); wallet != "" {
		return core.NormalizeAddress(wallet), true
	}

	return "", false
}

func bearerToken(header string) (string, bool) {
	token, ok := strings.CutPrefix(header, bearerPrefix)
	if !ok || token == "" {
		return "", false
	}
	return token, true
}
