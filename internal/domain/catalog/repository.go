package catalog

import "context"

// Repository is the read side of the catalog. Implementations keep insertion
// order for List.
type Repository interface {
	Get(ctx context.Context, id string) (Product, error)
	List(ctx context.Context, filter Filter) ([]Product, error)
}
