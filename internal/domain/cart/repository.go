package cart

import (
	"context"
	"errors"
	"time"
)

var ErrNoCart = errors.New("cart: no cart for session")

// Store keeps one cart per session. Acquire hands out the cart locked for
// exclusive use until the returned release func is called.
type Store interface {
	// Acquire blocks until the session's cart is free. With create=false a
	// missing cart yields ErrNoCart.
	Acquire(ctx context.Context, sessionID string, create bool) (*Cart, func(), error)
	// Drop forgets the session's cart. The caller must hold it.
	Drop(sessionID string)
	// IdleSessions lists sessions whose cart was last touched before cutoff.
	IdleSessions(cutoff time.Time) []string
}
