package inventory

import (
	"context"
)

// Ledger is the authoritative stock and reservation book. Every mutating call
// on one product is atomic with respect to the others on that product.
type Ledger interface {
	Reserve(ctx context.Context, productID string, quantity int, sessionID string) (Reservation, error)
	Release(ctx context.Context, reservationID string) (Reservation, error)
	Commit(ctx context.Context, reservationID string) (Reservation, error)
	Revert(ctx context.Context, committed Reservation) error
	Lookup(ctx context.Context, reservationID string) (Reservation, error)
	Availability(ctx context.Context, productID string) (Availability, error)
}
