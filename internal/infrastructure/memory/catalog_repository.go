package memory

import (
	"context"
	"sync"

	domain "github.com/Zhima-Mochi/minishop-storefront/internal/domain/catalog"
)

// CatalogRepository is a read-mostly product table that remembers insertion
// order.
type CatalogRepository struct {
	mu       sync.RWMutex
	products map[string]domain.Product
	order    []string
}

var _ domain.Repository = (*CatalogRepository)(nil)

func NewCatalogRepository(products ...domain.Product) (*CatalogRepository, error) {
	r := &CatalogRepository{products: make(map[string]domain.Product, len(products))}
	for _, p := range products {
		if err := r.Add(p); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func (r *CatalogRepository) Add(p domain.Product) error {
	if _, err := domain.NewProduct(p.ID, p.Name, p.Price, p.Stock, p.Category); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.products[p.ID]; exists {
		return domain.ErrDuplicateID
	}
	r.products[p.ID] = p
	r.order = append(r.order, p.ID)
	return nil
}

func (r *CatalogRepository) Get(ctx context.Context, id string) (domain.Product, error) {
	_ = ctx

	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.products[id]
	if !ok {
		return domain.Product{}, domain.ErrNotFound
	}
	return p, nil
}

func (r *CatalogRepository) List(ctx context.Context, filter domain.Filter) ([]domain.Product, error) {
	_ = ctx

	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.Product, 0, len(r.order))
	for _, id := range r.order {
		if p := r.products[id]; filter.Match(p) {
			out = append(out, p)
		}
	}
	return out, nil
}
