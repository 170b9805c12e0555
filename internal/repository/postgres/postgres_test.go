package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/order-confirmation/internal/domain"
	"github.com/utafrali/order-confirmation/pkg/database"
	apperrors "github.com/utafrali/order-confirmation/pkg/errors"
)

// ---------------------------------------------------------------------------
// helpers
// ---------------------------------------------------------------------------

func setupMock(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := database.NewMockPool()
	require.NoError(t, err)
	return mock
}

var userColumns = []string{"id", "email", "name", "created_at", "updated_at"}

var lineItemColumns = []string{
	"id", "order_id", "user_id", "product_id",
	"quantity", "status", "created_at", "updated_at",
}

func sampleUser() domain.User {
	return domain.User{
		ID:        "3f2c2ea0-7d8a-4b1a-9f40-111111111111",
		Email:     "buyer@example.com",
		Name:      "Buyer One",
		CreatedAt: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		UpdatedAt: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func sampleLineItem() domain.OrderLineItem {
	return domain.OrderLineItem{
		ID:        "9a1a2b3c-0000-4d5e-8f90-222222222222",
		OrderID:   "7b6c5d4e-0000-4a3b-9c8d-333333333333",
		UserID:    "3f2c2ea0-7d8a-4b1a-9f40-111111111111",
		ProductID: "5e4d3c2b-0000-4f6a-8b7c-444444444444",
		Quantity:  3,
		Status:    domain.OrderStatusPending,
		CreatedAt: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		UpdatedAt: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func sampleProduct() domain.Product {
	return domain.Product{
		ID:        "5e4d3c2b-0000-4f6a-8b7c-444444444444",
		Name:      "Widget",
		Status:    domain.ProductStatusReserved,
		Stock:     5,
		CreatedAt: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		UpdatedAt: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

// ---------------------------------------------------------------------------
// UserRepository.GetByID
// ---------------------------------------------------------------------------

func TestUserRepository_GetByID_Success(t *testing.T) {
	mock := setupMock(t)
	defer mock.Close()
	repo := NewUserRepository(mock)

	u := sampleUser()
	mock.ExpectQuery("SELECT .+ FROM users WHERE").
		WithArgs(u.ID).
		WillReturnRows(
			pgxmock.NewRows(userColumns).
				AddRow(u.ID, u.Email, u.Name, u.CreatedAt, u.UpdatedAt),
		)

	result, err := repo.GetByID(context.Background(), u.ID)
	require.NoError(t, err)
	assert.Equal(t, u.ID, result.ID)
	assert.Equal(t, u.Email, result.Email)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_GetByID_NotFound(t *testing.T) {
	mock := setupMock(t)
	defer mock.Close()
	repo := NewUserRepository(mock)

	mock.ExpectQuery("SELECT .+ FROM users WHERE").
		WithArgs("missing-id").
		WillReturnError(pgx.ErrNoRows)

	result, err := repo.GetByID(context.Background(), "missing-id")
	assert.Nil(t, result)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_GetByID_QueryError(t *testing.T) {
	mock := setupMock(t)
	defer mock.Close()
	repo := NewUserRepository(mock)

	mock.ExpectQuery("SELECT .+ FROM users WHERE").
		WithArgs("any-id").
		WillReturnError(errors.New("connection reset"))

	result, err := repo.GetByID(context.Background(), "any-id")
	assert.Nil(t, result)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "get user by id")
	assert.NoError(t, mock.ExpectationsWereMet())
}

// ---------------------------------------------------------------------------
// OrderRepository.GetStatus
// ---------------------------------------------------------------------------

func TestOrderRepository_GetStatus_Success(t *testing.T) {
	mock := setupMock(t)
	defer mock.Close()
	repo := NewOrderRepository(mock)

	item := sampleLineItem()
	mock.ExpectQuery("SELECT status FROM orders WHERE").
		WithArgs(item.OrderID).
		WillReturnRows(pgxmock.NewRows([]string{"status"}).AddRow(domain.OrderStatusPending))

	status, err := repo.GetStatus(context.Background(), item.OrderID)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusPending, status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderRepository_GetStatus_NotFound(t *testing.T) {
	mock := setupMock(t)
	defer mock.Close()
	repo := NewOrderRepository(mock)

	mock.ExpectQuery("SELECT status FROM orders WHERE").
		WithArgs("no-such-order").
		WillReturnError(pgx.ErrNoRows)

	status, err := repo.GetStatus(context.Background(), "no-such-order")
	assert.Empty(t, status)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// ---------------------------------------------------------------------------
// OrderRepository.ListByOrderID
// ---------------------------------------------------------------------------

func TestOrderRepository_ListByOrderID_Success(t *testing.T) {
	mock := setupMock(t)
	defer mock.Close()
	repo := NewOrderRepository(mock)

	i1 := sampleLineItem()
	i2 := sampleLineItem()
	i2.ID = "9a1a2b3c-0000-4d5e-8f90-555555555555"
	i2.ProductID = "5e4d3c2b-0000-4f6a-8b7c-666666666666"
	i2.Quantity = 1

	mock.ExpectQuery("SELECT .+ FROM orders WHERE order_id").
		WithArgs(i1.OrderID).
		WillReturnRows(
			pgxmock.NewRows(lineItemColumns).
				AddRow(i1.ID, i1.OrderID, i1.UserID, i1.ProductID, i1.Quantity, i1.Status, i1.CreatedAt, i1.UpdatedAt).
				AddRow(i2.ID, i2.OrderID, i2.UserID, i2.ProductID, i2.Quantity, i2.Status, i2.CreatedAt, i2.UpdatedAt),
		)

	items, err := repo.ListByOrderID(context.Background(), i1.OrderID)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, i1.ID, items[0].ID)
	assert.Equal(t, i2.ID, items[1].ID)
	assert.Equal(t, 1, items[1].Quantity)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderRepository_ListByOrderID_Empty(t *testing.T) {
	mock := setupMock(t)
	defer mock.Close()
	repo := NewOrderRepository(mock)

	mock.ExpectQuery("SELECT .+ FROM orders WHERE order_id").
		WithArgs("no-such-order").
		WillReturnRows(pgxmock.NewRows(lineItemColumns))

	items, err := repo.ListByOrderID(context.Background(), "no-such-order")
	require.NoError(t, err)
	assert.Equal(t, []domain.OrderLineItem{}, items)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// ---------------------------------------------------------------------------
// OrderRepository.CompareAndSetStatus
// ---------------------------------------------------------------------------

func TestOrderRepository_CompareAndSetStatus_Applied(t *testing.T) {
	mock := setupMock(t)
	defer mock.Close()
	repo := NewOrderRepository(mock)

	item := sampleLineItem()
	mock.ExpectExec("UPDATE orders").
		WithArgs(item.OrderID, domain.OrderStatusPending, domain.OrderStatusCompleted).
		WillReturnResult(pgxmock.NewResult("UPDATE", 2))

	applied, err := repo.CompareAndSetStatus(context.Background(), item.OrderID, domain.OrderStatusPending, domain.OrderStatusCompleted)
	require.NoError(t, err)
	assert.True(t, applied)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderRepository_CompareAndSetStatus_AlreadyTransitioned(t *testing.T) {
	mock := setupMock(t)
	defer mock.Close()
	repo := NewOrderRepository(mock)

	item := sampleLineItem()
	// A concurrent request already moved the order out of pending.
	mock.ExpectExec("UPDATE orders").
		WithArgs(item.OrderID, domain.OrderStatusPending, domain.OrderStatusCancelled).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	applied, err := repo.CompareAndSetStatus(context.Background(), item.OrderID, domain.OrderStatusPending, domain.OrderStatusCancelled)
	require.NoError(t, err)
	assert.False(t, applied)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderRepository_CompareAndSetStatus_Error(t *testing.T) {
	mock := setupMock(t)
	defer mock.Close()
	repo := NewOrderRepository(mock)

	mock.ExpectExec("UPDATE orders").
		WithArgs("order-1", domain.OrderStatusPending, domain.OrderStatusCompleted).
		WillReturnError(errors.New("db write error"))

	applied, err := repo.CompareAndSetStatus(context.Background(), "order-1", domain.OrderStatusPending, domain.OrderStatusCompleted)
	assert.False(t, applied)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "update order status")
	assert.NoError(t, mock.ExpectationsWereMet())
}

// ---------------------------------------------------------------------------
// ProductRepository.RestoreStock
// ---------------------------------------------------------------------------

func TestProductRepository_RestoreStock_Success(t *testing.T) {
	mock := setupMock(t)
	defer mock.Close()
	repo := NewProductRepository(mock)

	p := sampleProduct()
	mock.ExpectExec("UPDATE products").
		WithArgs(3, p.ID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	err := repo.RestoreStock(context.Background(), p.ID, 3)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductRepository_RestoreStock_NotFound(t *testing.T) {
	mock := setupMock(t)
	defer mock.Close()
	repo := NewProductRepository(mock)

	mock.ExpectExec("UPDATE products").
		WithArgs(3, "missing-product").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := repo.RestoreStock(context.Background(), "missing-product", 3)
	assert.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductRepository_RestoreStock_Error(t *testing.T) {
	mock := setupMock(t)
	defer mock.Close()
	repo := NewProductRepository(mock)

	mock.ExpectExec("UPDATE products").
		WithArgs(3, "product-1").
		WillReturnError(errors.New("db write error"))

	err := repo.RestoreStock(context.Background(), "product-1", 3)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "restore product stock")
	assert.NoError(t, mock.ExpectationsWereMet())
}
