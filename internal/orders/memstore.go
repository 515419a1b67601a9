package orders

import (
	"context"
	"fmt"
	"sync"

	"github.com/shopspring/decimal"
)

// MemStore: implementasi Store + CatalogStore in-memory untuk test dan
// local dev. Tidak ada row lock; sebagai gantinya satu mutex men-serialize
// seluruh transaction, jadi properti isolasi sama dengan PgStore.
type MemStore struct {
	mu       sync.Mutex
	products map[string]Product
	orders   map[string]Order
	items    map[string][]OrderItem // keyed by order id
}

func NewMemStore() *MemStore {
	return &MemStore{
		products: make(map[string]Product),
		orders:   make(map[string]Order),
		items:    make(map[string][]OrderItem),
	}
}

func (s *MemStore) RunTx(ctx context.Context, fn func(tx Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t := &memTx{store: s, staged: make(map[string]Product)}
	if err := fn(t); err != nil {
		return err // staged changes dibuang
	}
	if err := ctx.Err(); err != nil {
		return err // cancel sebelum commit -> tidak ada perubahan
	}

	// commit: apply staged state ke store
	for id, p := range t.staged {
		s.products[id] = p
	}
	for _, o := range t.orders {
		s.orders[o.ID] = o
	}
	for _, it := range t.items {
		s.items[it.OrderID] = append(s.items[it.OrderID], it)
	}
	return nil
}

type memTx struct {
	store  *MemStore
	staged map[string]Product // read + uncommitted decrement per product
	orders []Order
	items  []OrderItem
}

func (t *memTx) ProductForUpdate(ctx context.Context, productID string) (Product, error) {
	if p, ok := t.staged[productID]; ok {
		return p, nil
	}
	p, ok := t.store.products[productID]
	if !ok {
		return Product{}, ErrProductNotFound
	}
	t.staged[productID] = p
	return p, nil
}

func (t *memTx) DecrementStock(ctx context.Context, productID string, qty int) error {
	p, ok := t.staged[productID]
	if !ok {
		p, ok = t.store.products[productID]
		if !ok {
			return ErrProductNotFound
		}
	}
	if p.Quantity < qty {
		return fmt.Errorf("stock decrement rejected for product %s", productID)
	}
	p.Quantity -= qty
	t.staged[productID] = p
	return nil
}

func (t *memTx) InsertOrder(ctx context.Context, o Order) error {
	t.orders = append(t.orders, o)
	return nil
}

func (t *memTx) InsertOrderItem(ctx context.Context, it OrderItem) error {
	t.items = append(t.items, it)
	return nil
}

// ---- catalog ----

func (s *MemStore) CreateProduct(ctx context.Context, p Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.products[p.ID] = p
	return nil
}

func (s *MemStore) GetProduct(ctx context.Context, id string) (Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.products[id]
	if !ok {
		return Product{}, ErrProductNotFound
	}
	return p, nil
}

func (s *MemStore) ListProducts(ctx context.Context) ([]Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Product, 0, len(s.products))
	for _, p := range s.products {
		out = append(out, p)
	}
	return out, nil
}

func (s *MemStore) UpdateProduct(ctx context.Context, id, name, description string, price decimal.Decimal) (Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.products[id]
	if !ok {
		return Product{}, ErrProductNotFound
	}
	p.Name, p.Description, p.Price = name, description, price
	s.products[id] = p
	return p, nil
}

func (s *MemStore) DeleteProduct(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.products[id]; !ok {
		return ErrProductNotFound
	}
	delete(s.products, id)
	return nil
}

func (s *MemStore) SetQuantity(ctx context.Context, id string, qty int) (Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.products[id]
	if !ok {
		return Product{}, ErrProductNotFound
	}
	p.Quantity = qty
	s.products[id] = p
	return p, nil
}

func (s *MemStore) GetOrder(ctx context.Context, id string) (Order, []OrderItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	if !ok {
		return Order{}, nil, ErrOrderNotFound
	}
	items := append([]OrderItem(nil), s.items[id]...)
	return o, items, nil
}
