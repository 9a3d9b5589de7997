package ports

import (
	"context"
	"time"

	"github.com/Santhosh121805/based.credit/core"
)

// UserRepository is the persistent user store.
// Lookups return core.ErrUserNotFound when no user matches.
type UserRepository interface {
	FindUserByID(ctx context.Context, id string) (*core.Identity, error)
	FindUserByWallet(ctx context.Context, address string) (*core.Identity, error)
	UpdateLastActive(ctx context.Context, id string, at time.Time) error
	Ping(ctx context.Context) error
}
