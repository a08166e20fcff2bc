package redisstore

import (
	"context"
	"os"
	"testing"

	domain "github.com/Zhima-Mochi/minishop-storefront/internal/domain/order"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestRepository connects to REDIS_URL and isolates keys per test.
func newTestRepository(t *testing.T) *OrderRepository {
	t.Helper()
	url := os.Getenv("REDIS_URL")
	if url == "" {
		t.Skip("REDIS_URL not set")
	}
	client, err := Open(context.Background(), url)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	prefix := "minishop:test:" + uuid.NewString() + ":"
	t.Cleanup(func() {
		ctx := context.Background()
		keys, _ := client.Keys(ctx, prefix+"*").Result()
		if len(keys) > 0 {
			client.Del(ctx, keys...)
		}
	})
	return NewOrderRepository(client, prefix)
}

func sampleOrder(t *testing.T, id string) *domain.Order {
	t.Helper()
	o, err := domain.New(id, "s1", domain.Customer{
		Name: "Asha", Email: "asha@example.com", Phone: "1", Address: "Road", Notes: "ring twice",
	}, domain.PaymentCashOnDelivery, []domain.Line{
		{ProductID: "mango", Name: "Mango Pickle", UnitPrice: 200, Quantity: 2},
	})
	require.NoError(t, err)
	return o
}

func TestRedisOrderRepositoryRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t)

	o := sampleOrder(t, "ABCD1234")
	require.NoError(t, repo.Save(ctx, o))
	assert.ErrorIs(t, repo.Save(ctx, o), domain.ErrConflict)

	exists, err := repo.Exists(ctx, o.ID)
	require.NoError(t, err)
	assert.True(t, exists)

	got, err := repo.FindByID(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, o.Customer, got.Customer)
	assert.Equal(t, o.Lines, got.Lines)
	assert.Equal(t, int64(400), got.Amount)
	assert.Equal(t, domain.StatusPlaced, got.Status)
}

func TestRedisOrderRepositoryUpdate(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t)

	o := sampleOrder(t, "EFGH5678")
	assert.ErrorIs(t, repo.Update(ctx, o), domain.ErrNotFound)

	require.NoError(t, repo.Save(ctx, o))
	require.NoError(t, o.MarkFailed("not_found"))
	require.NoError(t, repo.Update(ctx, o))

	got, err := repo.FindByID(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusFailed, got.Status)
	assert.Equal(t, "not_found", got.FailureReason)

	_, err = repo.FindByID(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestRecordConversionKeepsFields(t *testing.T) {
	o := sampleOrder(t, "IJKL9012")
	got := toRecord(o).toDomain()

	assert.Equal(t, o.ID, got.ID)
	assert.Equal(t, o.SessionID, got.SessionID)
	assert.Equal(t, o.Customer, got.Customer)
	assert.Equal(t, o.Lines, got.Lines)
	assert.Equal(t, o.PaymentMethod, got.PaymentMethod)
	assert.Equal(t, o.Amount, got.Amount)
}
