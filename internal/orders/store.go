package orders

import (
	"context"

	"github.com/shopspring/decimal"
)

// Tx adalah satu atomic scope: semua read/write di dalamnya commit bareng
// atau rollback bareng. ProductForUpdate harus lock row product sampai
// scope selesai supaya read-then-write stok tidak kena lost update.
type Tx interface {
	// Stock ledger
	ProductForUpdate(ctx context.Context, productID string) (Product, error)
	DecrementStock(ctx context.Context, productID string, qty int) error

	// Order store
	InsertOrder(ctx context.Context, o Order) error
	InsertOrderItem(ctx context.Context, it OrderItem) error
}

// Store menjalankan fn di dalam satu Tx. Return error dari fn -> rollback,
// return nil -> commit. Error saat commit juga dikembalikan ke caller.
type Store interface {
	RunTx(ctx context.Context, fn func(tx Tx) error) error
}

// CatalogStore: operasi single-row di luar core transaction (CRUD product,
// lookup order). Tidak butuh atomic scope lintas entity.
type CatalogStore interface {
	CreateProduct(ctx context.Context, p Product) error
	GetProduct(ctx context.Context, id string) (Product, error)
	ListProducts(ctx context.Context) ([]Product, error)
	UpdateProduct(ctx context.Context, id, name, description string, price decimal.Decimal) (Product, error)
	DeleteProduct(ctx context.Context, id string) error
	SetQuantity(ctx context.Context, id string, qty int) (Product, error)
	GetOrder(ctx context.Context, id string) (Order, []OrderItem, error)
}
