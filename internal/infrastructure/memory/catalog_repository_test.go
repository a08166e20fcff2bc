package memory

import (
	"context"
	"testing"

	domain "github.com/Zhima-Mochi/minishop-storefront/internal/domain/catalog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatalogRepositoryListKeepsOrder(t *testing.T) {
	r, err := NewCatalogRepository(domain.DefaultProducts()...)
	require.NoError(t, err)

	all, err := r.List(context.Background(), domain.Filter{})
	require.NoError(t, err)
	require.Len(t, all, 9)
	assert.Equal(t, "mango", all[0].ID)
	assert.Equal(t, "chekka_pakodi", all[8].ID)

	snacks, err := r.List(context.Background(), domain.Filter{Category: domain.CategorySnacks})
	require.NoError(t, err)
	ids := make([]string, 0, len(snacks))
	for _, p := range snacks {
		ids = append(ids, p.ID)
	}
	assert.Equal(t, []string{"banana_chips", "ama_papad", "chekka_pakodi"}, ids)
}

func TestCatalogRepositoryGet(t *testing.T) {
	r, err := NewCatalogRepository(domain.DefaultProducts()...)
	require.NoError(t, err)

	p, err := r.Get(context.Background(), "mango")
	require.NoError(t, err)
	assert.Equal(t, int64(200), p.Price)

	_, err = r.Get(context.Background(), "durian")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCatalogRepositoryRejectsDuplicates(t *testing.T) {
	p := domain.Product{ID: "mango", Name: "Mango", Price: 1, Stock: 1}
	_, err := NewCatalogRepository(p, p)
	assert.ErrorIs(t, err, domain.ErrDuplicateID)
}
