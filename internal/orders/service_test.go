package orders

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService() (*Service, *MemStore) {
	store := NewMemStore()
	return &Service{Store: store, Log: zerolog.Nop()}, store
}

func seed(t *testing.T, store *MemStore, id, price string, qty int) {
	t.Helper()
	require.NoError(t, store.CreateProduct(context.Background(), Product{
		ID:        id,
		Name:      "product " + id,
		Price:     decimal.RequireFromString(price),
		Quantity:  qty,
		CreatedAt: time.Now().UTC(),
	}))
}

func TestPlaceOrderSuccess(t *testing.T) {
	svc, store := newTestService()
	seed(t, store, "A", "10.00", 5)
	seed(t, store, "B", "5.00", 2)

	orderID, total, err := svc.PlaceOrder(context.Background(), []LineRequest{
		{ProductID: "A", Quantity: 2},
		{ProductID: "B", Quantity: 2},
	})

	require.NoError(t, err)
	require.NotEmpty(t, orderID)
	assert.Equal(t, "30.00", total.StringFixed(2))

	a, _ := store.GetProduct(context.Background(), "A")
	b, _ := store.GetProduct(context.Background(), "B")
	assert.Equal(t, 3, a.Quantity)
	assert.Equal(t, 0, b.Quantity)

	o, items, err := store.GetOrder(context.Background(), orderID)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, o.Status)
	assert.Equal(t, "30.00", o.Total.StringFixed(2))
	require.Len(t, items, 2)
	assert.Equal(t, "A", items[0].ProductID)
	assert.Equal(t, 2, items[0].Quantity)
	assert.Equal(t, "10.00", items[0].Price.StringFixed(2))
	assert.Equal(t, "B", items[1].ProductID)
	assert.Equal(t, "5.00", items[1].Price.StringFixed(2))
}

func TestPlaceOrderInsufficientStock(t *testing.T) {
	svc, store := newTestService()
	seed(t, store, "A", "10.00", 5)
	seed(t, store, "B", "5.00", 2)

	_, _, err := svc.PlaceOrder(context.Background(), []LineRequest{
		{ProductID: "A", Quantity: 2},
		{ProductID: "B", Quantity: 3},
	})

	var stockErr *InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, "B", stockErr.ProductID)
	assert.Equal(t, 3, stockErr.Requested)
	assert.Equal(t, 2, stockErr.Available)

	// rollback total: stok A juga tidak berubah
	a, _ := store.GetProduct(context.Background(), "A")
	b, _ := store.GetProduct(context.Background(), "B")
	assert.Equal(t, 5, a.Quantity)
	assert.Equal(t, 2, b.Quantity)
}

func TestPlaceOrderReportsFirstOffendingLine(t *testing.T) {
	svc, store := newTestService()
	seed(t, store, "A", "1.00", 0)
	seed(t, store, "B", "1.00", 0)

	_, _, err := svc.PlaceOrder(context.Background(), []LineRequest{
		{ProductID: "B", Quantity: 1},
		{ProductID: "A", Quantity: 1},
	})

	var stockErr *InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, "B", stockErr.ProductID)
}

func TestPlaceOrderUnknownProduct(t *testing.T) {
	svc, store := newTestService()
	seed(t, store, "A", "10.00", 5)

	_, _, err := svc.PlaceOrder(context.Background(), []LineRequest{
		{ProductID: "A", Quantity: 1},
		{ProductID: "ghost", Quantity: 1},
	})

	var stockErr *InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, "ghost", stockErr.ProductID)

	a, _ := store.GetProduct(context.Background(), "A")
	assert.Equal(t, 5, a.Quantity)
}

// Store yang menolak dipanggil; memastikan input malformed tidak pernah
// menyentuh storage.
type refusingStore struct{ t *testing.T }

func (s *refusingStore) RunTx(ctx context.Context, fn func(tx Tx) error) error {
	s.t.Fatal("storage accessed for malformed input")
	return nil
}

func TestPlaceOrderInvalidInput(t *testing.T) {
	svc := &Service{Store: &refusingStore{t: t}, Log: zerolog.Nop()}

	cases := map[string][]LineRequest{
		"nil lines":    nil,
		"empty lines":  {},
		"zero qty":     {{ProductID: "A", Quantity: 0}},
		"negative qty": {{ProductID: "A", Quantity: -1}},
		"missing id":   {{ProductID: "", Quantity: 1}},
	}
	for name, lines := range cases {
		t.Run(name, func(t *testing.T) {
			_, _, err := svc.PlaceOrder(context.Background(), lines)
			assert.ErrorIs(t, err, ErrInvalidInput)
		})
	}
}

func TestPlaceOrderDuplicateLines(t *testing.T) {
	t.Run("sum exceeds stock", func(t *testing.T) {
		svc, store := newTestService()
		seed(t, store, "A", "10.00", 5)

		// tiap line muat sendiri-sendiri, jumlahnya tidak
		_, _, err := svc.PlaceOrder(context.Background(), []LineRequest{
			{ProductID: "A", Quantity: 3},
			{ProductID: "A", Quantity: 3},
		})

		var stockErr *InsufficientStockError
		require.ErrorAs(t, err, &stockErr)
		assert.Equal(t, "A", stockErr.ProductID)
		assert.Equal(t, 2, stockErr.Available) // sisa setelah line pertama

		a, _ := store.GetProduct(context.Background(), "A")
		assert.Equal(t, 5, a.Quantity)
	})

	t.Run("sum fits", func(t *testing.T) {
		svc, store := newTestService()
		seed(t, store, "A", "10.00", 5)

		orderID, total, err := svc.PlaceOrder(context.Background(), []LineRequest{
			{ProductID: "A", Quantity: 3},
			{ProductID: "A", Quantity: 2},
		})

		require.NoError(t, err)
		assert.Equal(t, "50.00", total.StringFixed(2))

		a, _ := store.GetProduct(context.Background(), "A")
		assert.Equal(t, 0, a.Quantity)

		_, items, err := store.GetOrder(context.Background(), orderID)
		require.NoError(t, err)
		require.Len(t, items, 2) // duplikat tetap jadi line terpisah
	})
}

func TestPlaceOrderFailureIsIdempotent(t *testing.T) {
	svc, store := newTestService()
	seed(t, store, "A", "10.00", 1)

	for i := 0; i < 2; i++ {
		_, _, err := svc.PlaceOrder(context.Background(), []LineRequest{
			{ProductID: "A", Quantity: 2},
		})
		var stockErr *InsufficientStockError
		require.ErrorAs(t, err, &stockErr)
		assert.Equal(t, 1, stockErr.Available)
	}

	a, _ := store.GetProduct(context.Background(), "A")
	assert.Equal(t, 1, a.Quantity)
}

// Tx wrapper yang gagal di InsertOrderItem; semua write sebelumnya harus
// ikut di-rollback.
type failingStore struct{ inner *MemStore }

type failingTx struct{ Tx }

func (t *failingTx) InsertOrderItem(ctx context.Context, it OrderItem) error {
	return errors.New("constraint violation")
}

func (s *failingStore) RunTx(ctx context.Context, fn func(tx Tx) error) error {
	return s.inner.RunTx(ctx, func(tx Tx) error {
		return fn(&failingTx{Tx: tx})
	})
}

func TestPlaceOrderInternalFailureRollsBack(t *testing.T) {
	store := NewMemStore()
	seed(t, store, "A", "10.00", 5)
	svc := &Service{Store: &failingStore{inner: store}, Log: zerolog.Nop()}

	_, _, err := svc.PlaceOrder(context.Background(), []LineRequest{
		{ProductID: "A", Quantity: 2},
	})

	require.Error(t, err)
	var stockErr *InsufficientStockError
	assert.False(t, errors.As(err, &stockErr))
	assert.NotErrorIs(t, err, ErrInvalidInput)

	a, _ := store.GetProduct(context.Background(), "A")
	assert.Equal(t, 5, a.Quantity)
}

func TestPlaceOrderCancelledContext(t *testing.T) {
	svc, store := newTestService()
	seed(t, store, "A", "10.00", 5)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := svc.PlaceOrder(ctx, []LineRequest{{ProductID: "A", Quantity: 1}})
	require.Error(t, err)

	a, _ := store.GetProduct(context.Background(), "A")
	assert.Equal(t, 5, a.Quantity)
}

func TestPlaceOrderLastUnitRace(t *testing.T) {
	svc, store := newTestService()
	seed(t, store, "A", "10.00", 1)

	var wg sync.WaitGroup
	results := make(chan error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, err := svc.PlaceOrder(context.Background(), []LineRequest{
				{ProductID: "A", Quantity: 1},
			})
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	var successes, stockFails int
	for err := range results {
		if err == nil {
			successes++
			continue
		}
		var stockErr *InsufficientStockError
		require.ErrorAs(t, err, &stockErr)
		stockFails++
	}
	assert.Equal(t, 1, successes)
	assert.Equal(t, 1, stockFails)

	a, _ := store.GetProduct(context.Background(), "A")
	assert.Equal(t, 0, a.Quantity)
}

func TestPlaceOrderTotalUsesSnapshotPrice(t *testing.T) {
	svc, store := newTestService()
	seed(t, store, "A", "2.50", 10)

	orderID, total, err := svc.PlaceOrder(context.Background(), []LineRequest{
		{ProductID: "A", Quantity: 3},
	})
	require.NoError(t, err)
	assert.Equal(t, "7.50", total.StringFixed(2))

	// harga product berubah setelah order; snapshot di item tidak ikut
	_, err = store.UpdateProduct(context.Background(), "A", "product A", "", decimal.RequireFromString("99.99"))
	require.NoError(t, err)

	_, items, err := store.GetOrder(context.Background(), orderID)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "2.50", items[0].Price.StringFixed(2))
}
