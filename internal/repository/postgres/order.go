package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/utafrali/order-confirmation/internal/domain"
	"github.com/utafrali/order-confirmation/pkg/database"
	apperrors "github.com/utafrali/order-confirmation/pkg/errors"
)

// OrderRepository implements repository.OrderRepository using PostgreSQL.
type OrderRepository struct {
	pool database.DBTX
}

// NewOrderRepository creates a new PostgreSQL-backed order repository.
func NewOrderRepository(pool database.DBTX) *OrderRepository {
	return &OrderRepository{pool: pool}
}

// GetStatus returns the current status shared by the line items of an order.
func (r *OrderRepository) GetStatus(ctx context.Context, orderID string) (string, error) {
	query := `
		SELECT status
		FROM orders
		WHERE order_id = $1
		LIMIT 1`

	ctx, end := database.TraceQuery(ctx, "GetOrderStatus", query)
	var status string
	err := r.pool.QueryRow(ctx, query, orderID).Scan(&status)
	end(err)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", apperrors.ErrNotFound
		}
		return "", fmt.Errorf("get order status: %w", err)
	}

	return status, nil
}

// ListByOrderID returns all line items belonging to an order.
func (r *OrderRepository) ListByOrderID(ctx context.Context, orderID string) ([]domain.OrderLineItem, error) {
	query := `
		SELECT id, order_id, user_id, product_id, quantity, status, created_at, updated_at
		FROM orders
		WHERE order_id = $1
		ORDER BY created_at ASC`

	ctx, end := database.TraceQuery(ctx, "ListOrderLineItems", query)
	rows, err := r.pool.Query(ctx, query, orderID)
	if err != nil {
		end(err)
		return nil, fmt.Errorf("list order line items: %w", err)
	}
	defer rows.Close()

	var items []domain.OrderLineItem
	for rows.Next() {
		var item domain.OrderLineItem
		if err := rows.Scan(
			&item.ID,
			&item.OrderID,
			&item.UserID,
			&item.ProductID,
			&item.Quantity,
			&item.Status,
			&item.CreatedAt,
			&item.UpdatedAt,
		); err != nil {
			end(err)
			return nil, fmt.Errorf("scan order line item: %w", err)
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		end(err)
		return nil, fmt.Errorf("iterate order line item rows: %w", err)
	}
	end(nil)

	if items == nil {
		items = []domain.OrderLineItem{}
	}

	return items, nil
}

// CompareAndSetStatus transitions all line items of an order from one status
// to another. The WHERE clause on the source status makes the transition
// conditional: under concurrent requests only one caller observes a changed
// row, so terminal statuses are never overwritten.
func (r *OrderRepository) CompareAndSetStatus(ctx context.Context, orderID, from, to string) (bool, error) {
	query := `
		UPDATE orders
		SET status = $3, updated_at = NOW()
		WHERE order_id = $1 AND status = $2`

	ctx, end := database.TraceQuery(ctx, "CompareAndSetOrderStatus", query)
	ct, err := r.pool.Exec(ctx, query, orderID, from, to)
	end(err)
	if err != nil {
		return false, fmt.Errorf("update order status: %w", err)
	}

	return ct.RowsAffected() > 0, nil
}
