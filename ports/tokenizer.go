package ports

import (
	"time"

	"github.com/Santhosh121805/based.credit/core"
)

// Tokenizer converts between token claims and bearer credentials
type Tokenizer interface {
	// Issue signs claims into a bearer credential valid for ttl
	Issue(claims core.TokenClaims, ttl time.Duration) (string, error)

	// Verify checks the credential and returns its claims
	Verify(token string) (core.TokenClaims, error)
}
