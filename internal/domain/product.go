package domain

import "time"

// Product status constants.
const (
	ProductStatusAvailable  = "available"
	ProductStatusReserved   = "reserved"
	ProductStatusOutOfStock = "out_of_stock"
)

// Product represents a sellable product and its current stock level.
// Stock never goes negative; the database enforces this with a CHECK constraint.
type Product struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Status    string    `json:"status"`
	Stock     int       `json:"stock"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
