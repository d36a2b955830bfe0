package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/egannguyen/jewellery-storefront/internal/entity"
	"github.com/egannguyen/jewellery-storefront/internal/repository"
)

type orderRepository struct {
	db *sql.DB
}

// NewOrderRepository creates a new OrderRepository backed by Postgres.
func NewOrderRepository(db *sql.DB) repository.OrderRepository {
	return &orderRepository{db: db}
}

// UpdateOrderProjection folds an order event into the orders/order_items tables.
func (r *orderRepository) UpdateOrderProjection(ctx context.Context, event entity.Event) error {
	switch e := event.(type) {
	case entity.OrderPlaced:
		return r.insertPlaced(ctx, e)
	case entity.OrderConfirmed:
		res, err := r.db.ExecContext(ctx, "UPDATE orders SET status = $1 WHERE id = $2", entity.OrderStatusConfirmed, e.OrderID)
		if err != nil {
			return fmt.Errorf("failed to confirm order: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return fmt.Errorf("%w: %s", entity.ErrOrderNotFound, e.OrderID)
		}
		return nil
	default:
		return fmt.Errorf("unknown event for order projection: %s", event.EventType())
	}
}

func (r *orderRepository) insertPlaced(ctx context.Context, e entity.OrderPlaced) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	// ON CONFLICT keeps redelivered events idempotent.
	var inserted bool
	err = tx.QueryRowContext(ctx,
		`INSERT INTO orders (id, session_id, total_price, currency, status, payment_session_id, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7) ON CONFLICT (id) DO NOTHING RETURNING true`,
		e.OrderID, e.SessionID, e.TotalPrice, e.Currency, entity.OrderStatusPending, e.PaymentSessionID, e.PlacedAt,
	).Scan(&inserted)
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to insert order: %w", err)
	}

	for _, item := range e.Items {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO order_items (order_id, line_id, product_slug, variant_key, label, unit_price, quantity, engraving)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			e.OrderID, item.LineID, item.ProductSlug, item.VariantKey, item.Label, item.UnitPrice, item.Quantity, item.Engraving,
		)
		if err != nil {
			return fmt.Errorf("failed to insert order item: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

const orderColumns = "id, session_id, total_price, currency, status, payment_session_id, created_at"

func scanOrder(row rowScanner) (entity.Order, error) {
	var o entity.Order
	err := row.Scan(&o.ID, &o.SessionID, &o.TotalPrice, &o.Currency, &o.Status, &o.PaymentSessionID, &o.CreatedAt)
	return o, err
}

func (r *orderRepository) FindRecent(ctx context.Context, limit int) ([]entity.Order, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT "+orderColumns+" FROM orders ORDER BY created_at DESC LIMIT $1", limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}
	defer rows.Close()

	var orders []entity.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating order rows: %w", err)
	}

	for i := range orders {
		items, err := r.loadItems(ctx, orders[i].ID)
		if err != nil {
			return nil, err
		}
		orders[i].Items = items
	}

	return orders, nil
}

func (r *orderRepository) FindByID(ctx context.Context, orderID string) (*entity.Order, error) {
	o, err := scanOrder(r.db.QueryRowContext(ctx, "SELECT "+orderColumns+" FROM orders WHERE id = $1", orderID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load order %s: %w", orderID, err)
	}
	if o.Items, err = r.loadItems(ctx, orderID); err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *orderRepository) loadItems(ctx context.Context, orderID string) ([]entity.OrderItem, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT line_id, product_slug, variant_key, label, unit_price, quantity, engraving FROM order_items WHERE order_id = $1 ORDER BY id",
		orderID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query order items: %w", err)
	}
	defer rows.Close()

	var items []entity.OrderItem
	for rows.Next() {
		var item entity.OrderItem
		if err := rows.Scan(&item.LineID, &item.ProductSlug, &item.VariantKey, &item.Label, &item.UnitPrice, &item.Quantity, &item.Engraving); err != nil {
			return nil, fmt.Errorf("failed to scan order item: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}
