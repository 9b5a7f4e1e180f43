package cart

import (
	"fmt"

	"github.com/go-faster/errors"
)

// Error kinds. Use errors.Is against these; the concrete errors below carry
// the offending identifiers.
var (
	ErrNotFound        = errors.New("not found")
	ErrInvalidQuantity = errors.New("invalid quantity")
	ErrOutOfStock      = errors.New("out of stock")
	ErrOwnerRequired   = errors.New("cart owner required")
)

// NotFoundError reports an unknown product, or a cart entry that does not exist.
type NotFoundError struct {
	Kind string // "product" or "cart item"
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Kind, e.ID)
}

// Is makes NotFoundError match ErrNotFound.
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// QuantityError reports a quantity that is not a positive integer.
type QuantityError struct {
	ProductID string
	Quantity  int
}

func (e *QuantityError) Error() string {
	return fmt.Sprintf("quantity must be greater than 0 for product %s, got %d", e.ProductID, e.Quantity)
}

// Is makes QuantityError match ErrInvalidQuantity.
func (e *QuantityError) Is(target error) bool {
	return target == ErrInvalidQuantity
}

// StockError reports that the requested quantity exceeds available stock.
type StockError struct {
	ProductID string
	Requested int
	Available int
}

func (e *StockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %s: requested %d, available %d",
		e.ProductID, e.Requested, e.Available)
}

// Is makes StockError match ErrOutOfStock.
func (e *StockError) Is(target error) bool {
	return target == ErrOutOfStock
}
