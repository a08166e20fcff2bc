package memory

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	domain "github.com/Zhima-Mochi/minishop-storefront/internal/domain/inventory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLedger(t *testing.T, stock map[string]int) *InventoryLedger {
	t.Helper()
	l := NewInventoryLedger()
	for id, n := range stock {
		require.NoError(t, l.Stock(id, n))
	}
	return l
}

func available(t *testing.T, l *InventoryLedger, productID string) domain.Availability {
	t.Helper()
	a, err := l.Availability(context.Background(), productID)
	require.NoError(t, err)
	return a
}

func TestReserveHoldsStock(t *testing.T) {
	ctx := context.Background()
	l := newLedger(t, map[string]int{"mango": 10})

	res, err := l.Reserve(ctx, "mango", 3, "s1")
	require.NoError(t, err)
	assert.NotEmpty(t, res.ID)
	assert.Equal(t, 3, res.Quantity)

	a := available(t, l, "mango")
	assert.Equal(t, 10, a.Stock)
	assert.Equal(t, 3, a.Reserved)
	assert.Equal(t, 7, a.Available)
}

func TestReserveFailuresChangeNothing(t *testing.T) {
	ctx := context.Background()
	l := newLedger(t, map[string]int{"mango": 2})

	_, err := l.Reserve(ctx, "mango", 3, "s1")
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)

	_, err = l.Reserve(ctx, "mango", 0, "s1")
	assert.ErrorIs(t, err, domain.ErrInvalidQuantity)

	_, err = l.Reserve(ctx, "durian", 1, "s1")
	assert.ErrorIs(t, err, domain.ErrProductNotFound)

	assert.Equal(t, 2, available(t, l, "mango").Available)
}

func TestConcurrentReservesNeverOversell(t *testing.T) {
	ctx := context.Background()
	l := newLedger(t, map[string]int{"mango": 10})

	const workers = 50
	var ok, outOfStock atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := l.Reserve(ctx, "mango", 1, "s")
			switch {
			case err == nil:
				ok.Add(1)
			case assert.ErrorIs(t, err, domain.ErrInsufficientStock):
				outOfStock.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.EqualValues(t, 10, ok.Load())
	assert.EqualValues(t, workers-10, outOfStock.Load())
	assert.Equal(t, 0, available(t, l, "mango").Available)
}

func TestConcurrentMixedQuantitiesNeverOversell(t *testing.T) {
	ctx := context.Background()
	l := newLedger(t, map[string]int{"fish": 6})

	var reserved atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		qty := i%3 + 1
		wg.Add(1)
		go func() {
			defer wg.Done()
			if res, err := l.Reserve(ctx, "fish", qty, "s"); err == nil {
				reserved.Add(int32(res.Quantity))
			}
		}()
	}
	wg.Wait()

	a := available(t, l, "fish")
	assert.LessOrEqual(t, int(reserved.Load()), 6)
	assert.Equal(t, int(reserved.Load()), a.Reserved)
	assert.GreaterOrEqual(t, a.Available, 0)
}

func TestReleaseIsIdempotent(t *testing.T) {
	ctx := context.Background()
	l := newLedger(t, map[string]int{"mango": 10})

	res, err := l.Reserve(ctx, "mango", 4, "s1")
	require.NoError(t, err)

	_, err = l.Release(ctx, res.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, available(t, l, "mango").Available)

	_, err = l.Release(ctx, res.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Equal(t, 10, available(t, l, "mango").Available, "quantity returned exactly once")

	_, err = l.Release(ctx, "unknown")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCommitTwiceDecrementsOnce(t *testing.T) {
	ctx := context.Background()
	l := newLedger(t, map[string]int{"mango": 10})

	res, err := l.Reserve(ctx, "mango", 2, "s1")
	require.NoError(t, err)

	_, err = l.Commit(ctx, res.ID)
	require.NoError(t, err)

	_, err = l.Commit(ctx, res.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	a := available(t, l, "mango")
	assert.Equal(t, 8, a.Stock)
	assert.Equal(t, 0, a.Reserved)
	assert.Equal(t, 8, a.Available)
}

func TestConcurrentReleaseAndCommitOneWins(t *testing.T) {
	ctx := context.Background()
	l := newLedger(t, map[string]int{"mango": 10})

	res, err := l.Reserve(ctx, "mango", 2, "s1")
	require.NoError(t, err)

	var wg sync.WaitGroup
	var released, committed atomic.Bool
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, err := l.Release(ctx, res.ID)
		released.Store(err == nil)
	}()
	go func() {
		defer wg.Done()
		_, err := l.Commit(ctx, res.ID)
		committed.Store(err == nil)
	}()
	wg.Wait()

	assert.NotEqual(t, released.Load(), committed.Load(), "exactly one of release/commit succeeds")
	a := available(t, l, "mango")
	if committed.Load() {
		assert.Equal(t, 8, a.Stock)
	} else {
		assert.Equal(t, 10, a.Stock)
	}
	assert.Equal(t, 0, a.Reserved)
}

func TestRevertRestoresReservation(t *testing.T) {
	ctx := context.Background()
	l := newLedger(t, map[string]int{"mango": 10})

	res, err := l.Reserve(ctx, "mango", 2, "s1")
	require.NoError(t, err)
	committed, err := l.Commit(ctx, res.ID)
	require.NoError(t, err)

	require.NoError(t, l.Revert(ctx, committed))
	a := available(t, l, "mango")
	assert.Equal(t, 10, a.Stock)
	assert.Equal(t, 2, a.Reserved)

	got, err := l.Lookup(ctx, res.ID)
	require.NoError(t, err)
	assert.Equal(t, res, got)

	// A second revert of the same commit is a no-op.
	require.NoError(t, l.Revert(ctx, committed))
	assert.Equal(t, 10, available(t, l, "mango").Stock)

	_, err = l.Release(ctx, res.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, available(t, l, "mango").Available)
}

func TestStockCannotDropBelowReserved(t *testing.T) {
	ctx := context.Background()
	l := newLedger(t, map[string]int{"mango": 10})
	_, err := l.Reserve(ctx, "mango", 6, "s1")
	require.NoError(t, err)

	assert.ErrorIs(t, l.Stock("mango", 5), domain.ErrInsufficientStock)
	require.NoError(t, l.Stock("mango", 8))
	assert.Equal(t, 2, available(t, l, "mango").Available)
}

func TestProductsDoNotInterfere(t *testing.T) {
	ctx := context.Background()
	l := newLedger(t, map[string]int{"mango": 1, "lemon": 1})

	_, err := l.Reserve(ctx, "mango", 1, "s1")
	require.NoError(t, err)
	_, err = l.Reserve(ctx, "lemon", 1, "s1")
	require.NoError(t, err)

	assert.Equal(t, 0, available(t, l, "mango").Available)
	assert.Equal(t, 0, available(t, l, "lemon").Available)
}
