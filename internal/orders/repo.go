package orders

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// PgStore: implementasi Store + CatalogStore di atas pgx.
type PgStore struct{ DB *pgxpool.Pool }

func (s *PgStore) RunTx(ctx context.Context, fn func(tx Tx) error) error {
	tx, err := s.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(&pgTx{tx: tx}); err != nil {
		return err // rollback via defer
	}
	return tx.Commit(ctx)
}

type pgTx struct{ tx pgx.Tx }

// Lock row product (FOR UPDATE) supaya dua placement konkuren untuk unit
// terakhir serialize di row: satu sukses, satu insufficient-stock.
func (t *pgTx) ProductForUpdate(ctx context.Context, productID string) (Product, error) {
	var p Product
	err := t.tx.QueryRow(ctx, `
		SELECT id, name, description, price, quantity, created_at, updated_at
		FROM products WHERE id=$1 FOR UPDATE`, productID).
		Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.Quantity, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Product{}, ErrProductNotFound
	}
	if err != nil {
		return Product{}, err
	}
	return p, nil
}

func (t *pgTx) DecrementStock(ctx context.Context, productID string, qty int) error {
	ct, err := t.tx.Exec(ctx, `
		UPDATE products SET quantity = quantity - $2, updated_at = now()
		WHERE id=$1 AND quantity >= $2`, productID, qty)
	if err != nil {
		return err
	}
	if ct.RowsAffected() != 1 {
		return fmt.Errorf("stock decrement rejected for product %s", productID)
	}
	return nil
}

func (t *pgTx) InsertOrder(ctx context.Context, o Order) error {
	_, err := t.tx.Exec(ctx, `
		INSERT INTO orders(id, total, status, created_at)
		VALUES ($1, $2, $3, $4)`, o.ID, o.Total, string(o.Status), o.CreatedAt)
	return err
}

func (t *pgTx) InsertOrderItem(ctx context.Context, it OrderItem) error {
	_, err := t.tx.Exec(ctx, `
		INSERT INTO order_items(id, order_id, product_id, quantity, price)
		VALUES ($1, $2, $3, $4, $5)`, it.ID, it.OrderID, it.ProductID, it.Quantity, it.Price)
	return err
}

// ---- catalog (single-row, di luar core transaction) ----

func (s *PgStore) CreateProduct(ctx context.Context, p Product) error {
	_, err := s.DB.Exec(ctx, `
		INSERT INTO products(id, name, description, price, quantity, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $6)`,
		p.ID, p.Name, p.Description, p.Price, p.Quantity, p.CreatedAt)
	return err
}

func (s *PgStore) GetProduct(ctx context.Context, id string) (Product, error) {
	var p Product
	err := s.DB.QueryRow(ctx, `
		SELECT id, name, description, price, quantity, created_at, updated_at
		FROM products WHERE id=$1`, id).
		Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.Quantity, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Product{}, ErrProductNotFound
	}
	return p, err
}

func (s *PgStore) ListProducts(ctx context.Context) ([]Product, error) {
	rows, err := s.DB.Query(ctx, `
		SELECT id, name, description, price, quantity, created_at, updated_at
		FROM products ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Product
	for rows.Next() {
		var p Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.Quantity, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *PgStore) UpdateProduct(ctx context.Context, id, name, description string, price decimal.Decimal) (Product, error) {
	ct, err := s.DB.Exec(ctx, `
		UPDATE products SET name=$2, description=$3, price=$4, updated_at=now()
		WHERE id=$1`, id, name, description, price)
	if err != nil {
		return Product{}, err
	}
	if ct.RowsAffected() == 0 {
		return Product{}, ErrProductNotFound
	}
	return s.GetProduct(ctx, id)
}

func (s *PgStore) DeleteProduct(ctx context.Context, id string) error {
	ct, err := s.DB.Exec(ctx, `DELETE FROM products WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrProductNotFound
	}
	return nil
}

func (s *PgStore) SetQuantity(ctx context.Context, id string, qty int) (Product, error) {
	ct, err := s.DB.Exec(ctx, `
		UPDATE products SET quantity=$2, updated_at=now() WHERE id=$1`, id, qty)
	if err != nil {
		return Product{}, err
	}
	if ct.RowsAffected() == 0 {
		return Product{}, ErrProductNotFound
	}
	return s.GetProduct(ctx, id)
}

func (s *PgStore) GetOrder(ctx context.Context, id string) (Order, []OrderItem, error) {
	var o Order
	var status string
	err := s.DB.QueryRow(ctx, `
		SELECT id, total, status, created_at FROM orders WHERE id=$1`, id).
		Scan(&o.ID, &o.Total, &status, &o.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Order{}, nil, ErrOrderNotFound
	}
	if err != nil {
		return Order{}, nil, err
	}
	o.Status = Status(status)

	rows, err := s.DB.Query(ctx, `
		SELECT id, order_id, product_id, quantity, price
		FROM order_items WHERE order_id=$1`, id)
	if err != nil {
		return Order{}, nil, err
	}
	defer rows.Close()

	var items []OrderItem
	for rows.Next() {
		var it OrderItem
		if err := rows.Scan(&it.ID, &it.OrderID, &it.ProductID, &it.Quantity, &it.Price); err != nil {
			return Order{}, nil, err
		}
		items = append(items, it)
	}
	return o, items, rows.Err()
}
