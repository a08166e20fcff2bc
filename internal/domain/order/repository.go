package order

import "context"

// Repository persists orders. Save is create-if-absent keyed by order id and
// returns ErrConflict when the id is taken.
type Repository interface {
	Save(ctx context.Context, order *Order) error
	Exists(ctx context.Context, id string) (bool, error)
	FindByID(ctx context.Context, id string) (*Order, error)
	Update(ctx context.Context, order *Order) error
}
