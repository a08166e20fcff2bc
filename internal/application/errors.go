package application

import (
	"errors"
	"fmt"
)

// Error kinds surfaced to the presentation layer. Services wrap the domain
// cause with one of these so callers can branch with errors.Is.
var (
	ErrNotFound        = errors.New("not found")
	ErrOutOfStock      = errors.New("out of stock")
	ErrValidation      = errors.New("validation failed")
	ErrPersistence     = errors.New("persistence failure")
	ErrConflict        = errors.New("conflict")
	ErrInvalidQuantity = errors.New("quantity must be greater than zero")

	ErrProductNotFound = fmt.Errorf("%w: product", ErrNotFound)
	ErrEmptyCart       = fmt.Errorf("%w: cart is empty", ErrNotFound)
)

// Wrap tags cause with kind unless it already carries it.
func Wrap(kind, cause error) error {
	if cause == nil {
		return nil
	}
	if errors.Is(cause, kind) {
		return cause
	}
	return fmt.Errorf("%w: %w", kind, cause)
}
