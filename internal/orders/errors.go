package orders

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidInput    = errors.New("invalid order input")
	ErrProductNotFound = errors.New("product not found")
	ErrOrderNotFound   = errors.New("order not found")
)

// InsufficientStockError menunjuk product pertama (urutan input) yang
// stoknya kurang dari qty yang diminta.
type InsufficientStockError struct {
	ProductID string
	Requested int
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %s: requested %d, available %d",
		e.ProductID, e.Requested, e.Available)
}
