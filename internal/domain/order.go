package domain

import "time"

// Order status constants. An order starts pending and moves to exactly one of
// the terminal statuses; terminal statuses are never re-entered.
const (
	OrderStatusPending   = "pending"
	OrderStatusCompleted = "completed"
	OrderStatusCancelled = "cancelled"
)

// OrderLineItem is one ordered product within a checkout. All line items
// created by the same checkout share an order_id and move through the status
// lifecycle together.
type OrderLineItem struct {
	ID        string    `json:"id"`
	OrderID   string    `json:"order_id"`
	UserID    string    `json:"user_id"`
	ProductID string    `json:"product_id"`
	Quantity  int       `json:"quantity"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ValidStatuses returns all valid order statuses.
func ValidStatuses() []string {
	return []string{
		OrderStatusPending,
		OrderStatusCompleted,
		OrderStatusCancelled,
	}
}

// IsValidStatus checks if a status string is valid.
func IsValidStatus(status string) bool {
	for _, s := range ValidStatuses() {
		if s == status {
			return true
		}
	}
	return false
}

// IsTerminalStatus reports whether the status ends the order lifecycle.
func IsTerminalStatus(status string) bool {
	return status == OrderStatusCompleted || status == OrderStatusCancelled
}

// AllowedTransitions defines which status transitions are valid.
func AllowedTransitions() map[string][]string {
	return map[string][]string{
		OrderStatusPending:   {OrderStatusCompleted, OrderStatusCancelled},
		OrderStatusCompleted: {},
		OrderStatusCancelled: {},
	}
}

// CanTransitionTo checks if the line item can transition to the target status.
func (o *OrderLineItem) CanTransitionTo(target string) bool {
	allowed, ok := AllowedTransitions()[o.Status]
	if !ok {
		return false
	}
	for _, s := range allowed {
		if s == target {
			return true
		}
	}
	return false
}
