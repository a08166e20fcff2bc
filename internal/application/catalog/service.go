package catalog

import (
	"context"
	"errors"

	"github.com/Zhima-Mochi/minishop-storefront/internal/application"
	domcatalog "github.com/Zhima-Mochi/minishop-storefront/internal/domain/catalog"
	dominv "github.com/Zhima-Mochi/minishop-storefront/internal/domain/inventory"
)

// StockReader is the slice of the inventory service the catalog needs.
type StockReader interface {
	Availability(ctx context.Context, productID string) (dominv.Availability, error)
}

// ProductView is a product with its live availability.
type ProductView struct {
	domcatalog.Product
	Available int
}

// Service answers catalog reads. Stock figures come from the ledger, not the
// load-time snapshot on the product.
type Service struct {
	repo  domcatalog.Repository
	stock StockReader
}

func NewService(repo domcatalog.Repository, stock StockReader) *Service {
	return &Service{repo: repo, stock: stock}
}

func (s *Service) Get(ctx context.Context, id string) (ProductView, error) {
	p, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, domcatalog.ErrNotFound) {
			return ProductView{}, application.Wrap(application.ErrProductNotFound, err)
		}
		return ProductView{}, err
	}
	return s.view(ctx, p), nil
}

func (s *Service) List(ctx context.Context, filter domcatalog.Filter) ([]ProductView, error) {
	products, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	out := make([]ProductView, 0, len(products))
	for _, p := range products {
		out = append(out, s.view(ctx, p))
	}
	return out, nil
}

func (s *Service) view(ctx context.Context, p domcatalog.Product) ProductView {
	v := ProductView{Product: p, Available: p.Stock}
	if s.stock == nil {
		return v
	}
	if a, err := s.stock.Availability(ctx, p.ID); err == nil {
		v.Stock = a.Stock
		v.Available = a.Available
	}
	return v
}
