package catalog

import (
	"context"
	"testing"

	"github.com/Zhima-Mochi/minishop-storefront/internal/application"
	domcatalog "github.com/Zhima-Mochi/minishop-storefront/internal/domain/catalog"
	"github.com/Zhima-Mochi/minishop-storefront/internal/infrastructure/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProductViewsShowLiveStock(t *testing.T) {
	ctx := context.Background()
	products := domcatalog.DefaultProducts()
	repo, err := memory.NewCatalogRepository(products...)
	require.NoError(t, err)
	ledger := memory.NewInventoryLedger()
	for _, p := range products {
		require.NoError(t, ledger.Stock(p.ID, p.Stock))
	}
	svc := NewService(repo, ledger)

	res, err := ledger.Reserve(ctx, "mango", 3, "s1")
	require.NoError(t, err)
	_, err = ledger.Commit(ctx, res.ID)
	require.NoError(t, err)
	_, err = ledger.Reserve(ctx, "mango", 2, "s2")
	require.NoError(t, err)

	v, err := svc.Get(ctx, "mango")
	require.NoError(t, err)
	assert.Equal(t, 7, v.Stock)
	assert.Equal(t, 5, v.Available)
	assert.Equal(t, int64(200), v.Price)

	_, err = svc.Get(ctx, "durian")
	assert.ErrorIs(t, err, application.ErrProductNotFound)

	list, err := svc.List(ctx, domcatalog.Filter{Category: domcatalog.CategoryNonVegPickles})
	require.NoError(t, err)
	ids := make([]string, 0, len(list))
	for _, p := range list {
		ids = append(ids, p.ID)
	}
	assert.Equal(t, []string{"chicken", "fish", "mutton"}, ids)
}

func TestViewWithoutLedgerFallsBackToSeed(t *testing.T) {
	repo, err := memory.NewCatalogRepository(domcatalog.DefaultProducts()...)
	require.NoError(t, err)

	v, err := NewService(repo, nil).Get(context.Background(), "fish")
	require.NoError(t, err)
	assert.Equal(t, 6, v.Available)
}
