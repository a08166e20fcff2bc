package memory

import (
	"context"
	"testing"

	domain "github.com/Zhima-Mochi/minishop-storefront/internal/domain/order"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newOrder(t *testing.T, id string) *domain.Order {
	t.Helper()
	o, err := domain.New(id, "s1", domain.Customer{
		Name: "Asha", Email: "asha@example.com", Phone: "1", Address: "Road",
	}, domain.PaymentUPI, []domain.Line{{ProductID: "mango", Name: "Mango Pickle", UnitPrice: 200, Quantity: 2}})
	require.NoError(t, err)
	return o
}

func TestOrderRepositorySaveIsCreateIfAbsent(t *testing.T) {
	ctx := context.Background()
	r := NewOrderRepository()

	o := newOrder(t, "ABCD1234")
	require.NoError(t, r.Save(ctx, o))
	assert.ErrorIs(t, r.Save(ctx, newOrder(t, "ABCD1234")), domain.ErrConflict)

	exists, err := r.Exists(ctx, "ABCD1234")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = r.Exists(ctx, "ZZZZ0000")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestOrderRepositoryReturnsCopies(t *testing.T) {
	ctx := context.Background()
	r := NewOrderRepository()
	o := newOrder(t, "A")
	require.NoError(t, r.Save(ctx, o))

	o.Lines[0].Quantity = 99
	got, err := r.FindByID(ctx, "A")
	require.NoError(t, err)
	assert.Equal(t, 2, got.Lines[0].Quantity)
}

func TestOrderRepositoryUpdate(t *testing.T) {
	ctx := context.Background()
	r := NewOrderRepository()

	o := newOrder(t, "A")
	assert.ErrorIs(t, r.Update(ctx, o), domain.ErrNotFound)

	require.NoError(t, r.Save(ctx, o))
	require.NoError(t, o.MarkFailed("not_found"))
	require.NoError(t, r.Update(ctx, o))

	got, err := r.FindByID(ctx, "A")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusFailed, got.Status)

	_, err = r.FindByID(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
