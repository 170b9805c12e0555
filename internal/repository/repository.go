package repository

import (
	"context"

	"github.com/utafrali/order-confirmation/internal/domain"
)

// UserRepository defines the interface for user lookups.
type UserRepository interface {
	// GetByID retrieves a user by its unique identifier.
	GetByID(ctx context.Context, id string) (*domain.User, error)
}

// OrderRepository defines the interface for order persistence operations.
type OrderRepository interface {
	// GetStatus returns the current status shared by the line items of an order.
	GetStatus(ctx context.Context, orderID string) (string, error)

	// ListByOrderID returns all line items belonging to an order.
	ListByOrderID(ctx context.Context, orderID string) ([]domain.OrderLineItem, error)

	// CompareAndSetStatus transitions all line items of an order from one
	// status to another in a single conditional update. It returns true if at
	// least one row changed, false if the order was already out of the source
	// status (e.g. a concurrent request won the transition).
	CompareAndSetStatus(ctx context.Context, orderID, from, to string) (bool, error)
}

// ProductRepository defines the interface for product stock operations.
type ProductRepository interface {
	// RestoreStock atomically adds quantity back to the product's stock and
	// marks it available again. It returns ErrNotFound when no product row
	// matches.
	RestoreStock(ctx context.Context, productID string, quantity int) error
}
