package orders

import (
	"time"

	"github.com/shopspring/decimal"
)

type Product struct {
	ID          string
	Name        string
	Description string
	Price       decimal.Decimal
	Quantity    int
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type Order struct {
	ID        string
	Total     decimal.Decimal
	Status    Status // lihat status.go
	CreatedAt time.Time
}

type OrderItem struct {
	ID        string
	OrderID   string
	ProductID string
	Quantity  int
	Price     decimal.Decimal // snapshot harga saat order dibuat
}

// LineRequest: satu pasangan (product, qty) dari request place-order.
type LineRequest struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}
