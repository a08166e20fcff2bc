package inventory

import (
	"errors"
	"time"
)

var (
	ErrNotFound          = errors.New("inventory: reservation not found")
	ErrProductNotFound   = errors.New("inventory: product not found")
	ErrInvalidQuantity   = errors.New("inventory: quantity must be greater than zero")
	ErrInsufficientStock = errors.New("inventory: out of stock")
)

// Item is the stock ledger of a single product. Stock counts units on hand,
// Reserved the units held by active reservations. Stock-Reserved never goes
// negative.
type Item struct {
	ProductID string
	Stock     int
	Reserved  int
	UpdatedAt time.Time
}

func NewItem(productID string, stock int) (*Item, error) {
	if stock < 0 {
		return nil, ErrInvalidQuantity
	}
	return &Item{
		ProductID: productID,
		Stock:     stock,
		UpdatedAt: time.Now().UTC(),
	}, nil
}

func (i *Item) Available() int {
	return i.Stock - i.Reserved
}

// Hold moves quantity from available into reserved.
func (i *Item) Hold(quantity int) error {
	if quantity <= 0 {
		return ErrInvalidQuantity
	}
	if quantity > i.Available() {
		return ErrInsufficientStock
	}
	i.Reserved += quantity
	i.touch()
	return nil
}

// Unhold returns reserved units to the available pool.
func (i *Item) Unhold(quantity int) {
	i.Reserved -= quantity
	i.touch()
}

// Consume turns reserved units into a permanent decrement.
func (i *Item) Consume(quantity int) {
	i.Reserved -= quantity
	i.Stock -= quantity
	i.touch()
}

// Restore undoes Consume: the units come back on hand and held again.
func (i *Item) Restore(quantity int) {
	i.Stock += quantity
	i.Reserved += quantity
	i.touch()
}

func (i *Item) touch() {
	i.UpdatedAt = time.Now().UTC()
}

// Reservation is stock provisionally held for a cart line.
type Reservation struct {
	ID        string
	ProductID string
	Quantity  int
	SessionID string
	CreatedAt time.Time
}

// Availability is a point-in-time view of one product ledger.
type Availability struct {
	ProductID string
	Stock     int
	Reserved  int
	Available int
}
