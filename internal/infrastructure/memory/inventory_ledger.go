package memory

import (
	"context"
	"sync"
	"time"

	domain "github.com/Zhima-Mochi/minishop-storefront/internal/domain/inventory"
	"github.com/google/uuid"
)

// productLedger guards one product's stock and its open reservations.
type productLedger struct {
	mu           sync.Mutex
	item         *domain.Item
	reservations map[string]*domain.Reservation
}

// InventoryLedger keeps stock per product behind its own lock, so operations
// on different products never contend.
type InventoryLedger struct {
	mu       sync.RWMutex
	products map[string]*productLedger

	// index maps reservation id to product id. Lock order: product, then index.
	indexMu sync.Mutex
	index   map[string]string

	now func() time.Time
}

var _ domain.Ledger = (*InventoryLedger)(nil)

func NewInventoryLedger() *InventoryLedger {
	return &InventoryLedger{
		products: make(map[string]*productLedger),
		index:    make(map[string]string),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Stock sets the on-hand count of a product, registering it when unknown.
// Units already reserved stay reserved.
func (l *InventoryLedger) Stock(productID string, stock int) error {
	if stock < 0 {
		return domain.ErrInvalidQuantity
	}

	l.mu.Lock()
	p, ok := l.products[productID]
	if !ok {
		item, err := domain.NewItem(productID, stock)
		if err != nil {
			l.mu.Unlock()
			return err
		}
		l.products[productID] = &productLedger{
			item:         item,
			reservations: make(map[string]*domain.Reservation),
		}
		l.mu.Unlock()
		return nil
	}
	l.mu.Unlock()

	p.mu.Lock()
	defer p.mu.Unlock()
	if stock < p.item.Reserved {
		return domain.ErrInsufficientStock
	}
	p.item.Stock = stock
	p.item.UpdatedAt = l.now()
	return nil
}

func (l *InventoryLedger) product(productID string) (*productLedger, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	p, ok := l.products[productID]
	if !ok {
		return nil, domain.ErrProductNotFound
	}
	return p, nil
}

func (l *InventoryLedger) productFor(reservationID string) (*productLedger, error) {
	l.indexMu.Lock()
	productID, ok := l.index[reservationID]
	l.indexMu.Unlock()
	if !ok {
		return nil, domain.ErrNotFound
	}
	return l.product(productID)
}

func (l *InventoryLedger) Reserve(ctx context.Context, productID string, quantity int, sessionID string) (domain.Reservation, error) {
	if err := ctx.Err(); err != nil {
		return domain.Reservation{}, err
	}
	if quantity <= 0 {
		return domain.Reservation{}, domain.ErrInvalidQuantity
	}
	p, err := l.product(productID)
	if err != nil {
		return domain.Reservation{}, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.item.Hold(quantity); err != nil {
		return domain.Reservation{}, err
	}
	res := &domain.Reservation{
		ID:        uuid.NewString(),
		ProductID: productID,
		Quantity:  quantity,
		SessionID: sessionID,
		CreatedAt: l.now(),
	}
	p.reservations[res.ID] = res

	l.indexMu.Lock()
	l.index[res.ID] = productID
	l.indexMu.Unlock()

	return *res, nil
}

// take removes an open reservation under the product lock. A concurrent
// Release/Commit of the same id loses and sees ErrNotFound.
func (l *InventoryLedger) take(reservationID string, apply func(item *domain.Item, qty int)) (domain.Reservation, error) {
	p, err := l.productFor(reservationID)
	if err != nil {
		return domain.Reservation{}, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	res, ok := p.reservations[reservationID]
	if !ok {
		return domain.Reservation{}, domain.ErrNotFound
	}
	apply(p.item, res.Quantity)
	delete(p.reservations, reservationID)

	l.indexMu.Lock()
	delete(l.index, reservationID)
	l.indexMu.Unlock()

	return *res, nil
}

func (l *InventoryLedger) Release(ctx context.Context, reservationID string) (domain.Reservation, error) {
	_ = ctx
	return l.take(reservationID, (*domain.Item).Unhold)
}

func (l *InventoryLedger) Commit(ctx context.Context, reservationID string) (domain.Reservation, error) {
	_ = ctx
	return l.take(reservationID, (*domain.Item).Consume)
}

// Revert undoes a Commit: stock returns and the reservation is open again
// under its original id.
func (l *InventoryLedger) Revert(ctx context.Context, committed domain.Reservation) error {
	_ = ctx
	if committed.Quantity <= 0 {
		return domain.ErrInvalidQuantity
	}
	p, err := l.product(committed.ProductID)
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if _, open := p.reservations[committed.ID]; open {
		return nil
	}
	p.item.Restore(committed.Quantity)
	res := committed
	p.reservations[res.ID] = &res

	l.indexMu.Lock()
	l.index[res.ID] = res.ProductID
	l.indexMu.Unlock()
	return nil
}

func (l *InventoryLedger) Lookup(ctx context.Context, reservationID string) (domain.Reservation, error) {
	_ = ctx
	p, err := l.productFor(reservationID)
	if err != nil {
		return domain.Reservation{}, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	res, ok := p.reservations[reservationID]
	if !ok {
		return domain.Reservation{}, domain.ErrNotFound
	}
	return *res, nil
}

func (l *InventoryLedger) Availability(ctx context.Context, productID string) (domain.Availability, error) {
	_ = ctx
	p, err := l.product(productID)
	if err != nil {
		return domain.Availability{}, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	return domain.Availability{
		ProductID: productID,
		Stock:     p.item.Stock,
		Reserved:  p.item.Reserved,
		Available: p.item.Available(),
	}, nil
}
