package inventory

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestItemLifecycle(t *testing.T) {
	item, err := NewItem("mango", 10)
	require.NoError(t, err)

	require.NoError(t, item.Hold(3))
	assert.Equal(t, 7, item.Available())

	assert.ErrorIs(t, item.Hold(8), ErrInsufficientStock)
	assert.ErrorIs(t, item.Hold(0), ErrInvalidQuantity)
	assert.Equal(t, 3, item.Reserved, "failed holds change nothing")

	item.Consume(2)
	assert.Equal(t, 8, item.Stock)
	assert.Equal(t, 1, item.Reserved)

	item.Restore(2)
	assert.Equal(t, 10, item.Stock)
	assert.Equal(t, 3, item.Reserved)

	item.Unhold(3)
	assert.Equal(t, 10, item.Available())
}

func TestNewItemRejectsNegativeStock(t *testing.T) {
	_, err := NewItem("mango", -1)
	assert.ErrorIs(t, err, ErrInvalidQuantity)
}

func TestFailureReason(t *testing.T) {
	assert.Equal(t, FailureReasonInsufficientStock, FailureReason(ErrInsufficientStock))
	assert.Equal(t, FailureReasonNotFound, FailureReason(ErrNotFound))
	assert.Equal(t, FailureReasonProductNotFound, FailureReason(ErrProductNotFound))
	assert.Equal(t, "boom", FailureReason(errors.New("boom")))
}
