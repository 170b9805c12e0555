package postgres

import (
	"context"
	"fmt"

	"github.com/utafrali/order-confirmation/pkg/database"
	apperrors "github.com/utafrali/order-confirmation/pkg/errors"
)

// ProductRepository implements repository.ProductRepository using PostgreSQL.
type ProductRepository struct {
	pool database.DBTX
}

// NewProductRepository creates a new PostgreSQL-backed product repository.
func NewProductRepository(pool database.DBTX) *ProductRepository {
	return &ProductRepository{pool: pool}
}

// RestoreStock atomically adds quantity back to the product's stock and marks
// it available again. The increment happens inside the database so concurrent
// restorations for different orders never lose updates.
func (r *ProductRepository) RestoreStock(ctx context.Context, productID string, quantity int) error {
	query := `
		UPDATE products
		SET stock = stock + $1, status = 'available', updated_at = NOW()
		WHERE id = $2`

	ctx, end := database.TraceQuery(ctx, "RestoreProductStock", query)
	ct, err := r.pool.Exec(ctx, query, quantity, productID)
	end(err)
	if err != nil {
		return fmt.Errorf("restore product stock: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("product", productID)
	}

	return nil
}
