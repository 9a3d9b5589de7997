package service

import "github.com/Santhosh121805/based.credit/core"

// Guard is a single authorization predicate over an AuthContext
type Guard func(ac *core.AuthContext) error

// Chain is an ordered list of guards evaluated until the first failure
type Chain []Guard

// Authorize runs the guards in order and returns the first failure. An
// authenticated context that passes every guard moves to core.Authorized.
func (c Chain) Authorize(ac *core.AuthContext) error {
	for _, guard := range c {
		if err := guard(ac); err != nil {
			return err
		}
	}
	if ac.IsAuthenticated() {
		ac.State = core.Authorized
	}
	return nil
}

// RequireAuthenticated fails Unauthorized when no identity is attached
func RequireAuthenticated() Guard {
	return requireAuthenticated
}

func requireAuthenticated(ac *core.AuthContext) error {
	if !ac.IsAuthenticated() {
		return core.Unauthorized("Authentication required", nil)
	}
	return nil
}

// RequireRole fails Forbidden unless the identity holds one of roles.
// Unauthenticated requests fail Unauthorized first.
func RequireRole(roles ...core.Role) Guard {
	allowed := make(map[core.Role]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}
	return func(ac *core.AuthContext) error {
		if err := requireAuthenticated(ac); err != nil {
			return err
		}
		if _, ok := allowed[ac.Identity.Role]; !ok {
			return core.Forbidden("Insufficient permissions", nil)
		}
		return nil
	}
}

// RequireVerifiedWallet fails Forbidden unless the identity's wallet is
// verified. Unauthenticated requests fail Unauthorized first.
func RequireVerifiedWallet() Guard {
	return func(ac *core.AuthContext) error {
		if err := requireAuthenticated(ac); err != nil {
			return err
		}
		if !ac.Identity.Verified {
			return core.Forbidden("Wallet verification required", nil)
		}
		return nil
	}
}
