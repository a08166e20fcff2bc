package inventory

import (
	"context"
	"strings"
	"testing"

	"github.com/Zhima-Mochi/minishop-storefront/internal/application"
	"github.com/Zhima-Mochi/minishop-storefront/internal/infrastructure/memory"
	obsprovider "github.com/Zhima-Mochi/minishop-storefront/internal/infrastructure/observability"
	"github.com/Zhima-Mochi/minishop-storefront/internal/infrastructure/observability/prometrics"
	"github.com/Zhima-Mochi/minishop-storefront/internal/observability"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newService(t *testing.T) (*Service, *prometheus.Registry) {
	t.Helper()
	ledger := memory.NewInventoryLedger()
	require.NoError(t, ledger.Stock("mango", 10))

	reg := prometheus.NewRegistry()
	tel := obsprovider.NewPrometheus(prometrics.New(reg, "", ""), nil, observability.NopLogger())
	return NewService(ledger, tel), reg
}

func TestReserveCommitCountsMovements(t *testing.T) {
	ctx := context.Background()
	svc, reg := newService(t)

	res, err := svc.Reserve(ctx, "mango", 2, "s1")
	require.NoError(t, err)
	_, err = svc.Commit(ctx, res.ID)
	require.NoError(t, err)

	a, err := svc.Availability(ctx, "mango")
	require.NoError(t, err)
	assert.Equal(t, 8, a.Stock)

	expected := `
# HELP inventory_stock_movements_total Units moved through the inventory ledger.
# TYPE inventory_stock_movements_total counter
inventory_stock_movements_total{kind="commit",product="mango"} 2
inventory_stock_movements_total{kind="reserve",product="mango"} 2
`
	assert.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "inventory_stock_movements_total"))
}

func TestErrorsCarryApplicationKinds(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)

	_, err := svc.Reserve(ctx, "mango", 11, "s1")
	assert.ErrorIs(t, err, application.ErrOutOfStock)

	_, err = svc.Reserve(ctx, "durian", 1, "s1")
	assert.ErrorIs(t, err, application.ErrProductNotFound)
	assert.ErrorIs(t, err, application.ErrNotFound)

	_, err = svc.Reserve(ctx, "mango", 0, "s1")
	assert.ErrorIs(t, err, application.ErrInvalidQuantity)

	_, err = svc.Release(ctx, "missing")
	assert.ErrorIs(t, err, application.ErrNotFound)

	_, err = svc.Commit(ctx, "missing")
	assert.ErrorIs(t, err, application.ErrNotFound)
}

func TestRevertAfterCommit(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)

	res, err := svc.Reserve(ctx, "mango", 3, "s1")
	require.NoError(t, err)
	committed, err := svc.Commit(ctx, res.ID)
	require.NoError(t, err)
	require.NoError(t, svc.Revert(ctx, committed))

	got, err := svc.Lookup(ctx, res.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, got.Quantity)

	a, err := svc.Availability(ctx, "mango")
	require.NoError(t, err)
	assert.Equal(t, 10, a.Stock)
	assert.Equal(t, 7, a.Available)
}

func TestNilObservability(t *testing.T) {
	ledger := memory.NewInventoryLedger()
	require.NoError(t, ledger.Stock("mango", 1))
	svc := NewService(ledger, nil)

	_, err := svc.Reserve(context.Background(), "mango", 1, "s1")
	assert.NoError(t, err)
}
