package catalog

import (
	"errors"
	"strings"
)

var (
	ErrNotFound     = errors.New("catalog: product not found")
	ErrInvalidPrice = errors.New("catalog: price must be zero or greater")
	ErrInvalidStock = errors.New("catalog: stock must be zero or greater")
	ErrDuplicateID  = errors.New("catalog: duplicate product id")
)

type Category string

const (
	CategoryVegPickles    Category = "veg-pickles"
	CategoryNonVegPickles Category = "nonveg-pickles"
	CategorySnacks        Category = "snacks"
)

// Product is a catalog entry. Price is in the smallest currency unit.
// Stock holds the units on hand when the catalog was loaded; the live figure
// is owned by the inventory ledger.
type Product struct {
	ID       string
	Name     string
	Price    int64
	Stock    int
	Category Category
	Image    string
}

func NewProduct(id, name string, price int64, stock int, category Category) (Product, error) {
	if id == "" {
		return Product{}, errors.New("catalog: product id is required")
	}
	if price < 0 {
		return Product{}, ErrInvalidPrice
	}
	if stock < 0 {
		return Product{}, ErrInvalidStock
	}
	return Product{
		ID:       id,
		Name:     name,
		Price:    price,
		Stock:    stock,
		Category: category,
	}, nil
}

// Filter narrows a listing. Zero values match everything.
type Filter struct {
	Category Category
	Prefix   string
}

func (f Filter) Match(p Product) bool {
	if f.Category != "" && p.Category != f.Category {
		return false
	}
	if f.Prefix != "" && !strings.HasPrefix(p.ID, f.Prefix) {
		return false
	}
	return true
}
