package inventory

import "errors"

const (
	FailureReasonNotFound          = "not_found"
	FailureReasonProductNotFound   = "product_not_found"
	FailureReasonInsufficientStock = "insufficient_stock"
	FailureReasonInvalidQuantity   = "invalid_quantity"
)

// Movement kinds, used as the "kind" label of stock movement metrics.
const (
	MovementReserve = "reserve"
	MovementRelease = "release"
	MovementCommit  = "commit"
	MovementRevert  = "revert"
)

func FailureReason(err error) string {
	switch {
	case errors.Is(err, ErrNotFound):
		return FailureReasonNotFound
	case errors.Is(err, ErrProductNotFound):
		return FailureReasonProductNotFound
	case errors.Is(err, ErrInsufficientStock):
		return FailureReasonInsufficientStock
	case errors.Is(err, ErrInvalidQuantity):
		return FailureReasonInvalidQuantity
	default:
		return err.Error()
	}
}
