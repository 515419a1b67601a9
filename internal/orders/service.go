package orders

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// Service adalah core order placement. Satu call = satu atomic scope:
// validasi stok, hitung total, tulis order + items, kurangi stok.
// Commit semua atau tidak sama sekali.
type Service struct {
	Store Store
	Log   zerolog.Logger
}

// PlaceOrder memproses daftar line request secara berurutan.
//
// Validasi malformed input terjadi sebelum menyentuh storage. Di dalam
// transaction, tiap product dibaca sekali (locked) dan line berikutnya
// untuk product yang sama divalidasi terhadap sisa stok setelah line
// sebelumnya di request yang sama. Line pertama yang stoknya kurang
// langsung abort; tidak ada pengumpulan semua kegagalan.
func (s *Service) PlaceOrder(ctx context.Context, lines []LineRequest) (orderID string, total decimal.Decimal, err error) {
	if len(lines) == 0 {
		return "", decimal.Zero, ErrInvalidInput
	}
	for _, l := range lines {
		if l.ProductID == "" || l.Quantity <= 0 {
			return "", decimal.Zero, ErrInvalidInput
		}
	}

	orderID = uuid.NewString()
	total = decimal.Zero

	err = s.Store.RunTx(ctx, func(tx Tx) error {
		// pass 1: baca + validasi, harga diambil dari row yang sudah di-lock
		products := make(map[string]Product, len(lines))
		remaining := make(map[string]int, len(lines))

		for _, l := range lines {
			p, ok := products[l.ProductID]
			if !ok {
				var err error
				p, err = tx.ProductForUpdate(ctx, l.ProductID)
				if errors.Is(err, ErrProductNotFound) {
					// product hilang = tidak bisa memenuhi qty berapapun
					return &InsufficientStockError{ProductID: l.ProductID, Requested: l.Quantity}
				}
				if err != nil {
					return err
				}
				products[l.ProductID] = p
				remaining[l.ProductID] = p.Quantity
			}
			if remaining[l.ProductID] < l.Quantity {
				return &InsufficientStockError{
					ProductID: l.ProductID,
					Requested: l.Quantity,
					Available: remaining[l.ProductID],
				}
			}
			remaining[l.ProductID] -= l.Quantity
			total = total.Add(p.Price.Mul(decimal.NewFromInt(int64(l.Quantity))))
		}

		// pass 2: tulis order header, lalu item + decrement per line
		if err := tx.InsertOrder(ctx, Order{
			ID:        orderID,
			Total:     total,
			Status:    StatusCompleted,
			CreatedAt: time.Now().UTC(),
		}); err != nil {
			return err
		}

		for _, l := range lines {
			p := products[l.ProductID]
			if err := tx.InsertOrderItem(ctx, OrderItem{
				ID:        uuid.NewString(),
				OrderID:   orderID,
				ProductID: l.ProductID,
				Quantity:  l.Quantity,
				Price:     p.Price,
			}); err != nil {
				return err
			}
			if err := tx.DecrementStock(ctx, l.ProductID, l.Quantity); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return "", decimal.Zero, err
	}

	s.Log.Info().
		Str("order_id", orderID).
		Str("total", total.StringFixed(2)).
		Int("lines", len(lines)).
		Msg("order placed")
	return orderID, total, nil
}
