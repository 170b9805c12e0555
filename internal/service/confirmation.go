package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/utafrali/order-confirmation/internal/domain"
	"github.com/utafrali/order-confirmation/internal/repository"
	apperrors "github.com/utafrali/order-confirmation/pkg/errors"
)

var confirmationOutcomes = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "order_confirmation_outcomes_total",
		Help: "Total confirmation requests by outcome",
	},
	[]string{"outcome"},
)

// Outcome label values for the confirmation counter.
const (
	outcomeCompleted    = "completed"
	outcomeCancelled    = "cancelled"
	outcomeAlreadyFinal = "already_final"
	outcomeUserNotFound = "user_not_found"
	outcomeNotFound     = "order_not_found"
	outcomeError        = "error"
)

// CancelReasonNotCompleted is recorded when an order is reversed because the
// confirmation carried a non-completed status.
const CancelReasonNotCompleted = "confirmation status was not completed"

// ConfirmInput holds the parameters of a confirmation request.
type ConfirmInput struct {
	UserID  string
	OrderID string
	Status  string
}

// RestoredItem describes one line item whose stock was returned to inventory.
type RestoredItem struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

// ConfirmResult is the outcome of processing a confirmation.
type ConfirmResult struct {
	OrderID      string         `json:"order_id"`
	Status       string         `json:"status"`
	AlreadyFinal bool           `json:"already_final"`
	Restored     []RestoredItem `json:"restored,omitempty"`
}

// EventPublisher publishes confirmation outcome events. It is satisfied by
// event.Producer; declaring it here keeps the event package depending on the
// service, never the other way around.
type EventPublisher interface {
	PublishOrderCompleted(ctx context.Context, orderID, userID string) error
	PublishOrderCancelled(ctx context.Context, orderID, userID, reason string) error
	PublishInventoryRestored(ctx context.Context, orderID, productID string, quantity int) error
}

// ConfirmationService finalizes or reverses pending orders based on the
// confirmation status reported for them.
type ConfirmationService struct {
	users    repository.UserRepository
	orders   repository.OrderRepository
	products repository.ProductRepository
	producer EventPublisher
	logger   *slog.Logger
}

// NewConfirmationService creates a new confirmation service.
func NewConfirmationService(
	users repository.UserRepository,
	orders repository.OrderRepository,
	products repository.ProductRepository,
	producer EventPublisher,
	logger *slog.Logger,
) *ConfirmationService {
	return &ConfirmationService{
		users:    users,
		orders:   orders,
		products: products,
		producer: producer,
		logger:   logger,
	}
}

// Confirm processes a confirmation for an order. A "completed" status
// finalizes the order; any other status reverses it, cancelling the order and
// returning its line item quantities to product stock. Both transitions only
// apply to pending orders: an order already in a terminal status is left
// untouched and reported as such, which makes redelivered confirmations safe.
func (s *ConfirmationService) Confirm(ctx context.Context, input ConfirmInput) (*ConfirmResult, error) {
	if err := validateInput(input); err != nil {
		confirmationOutcomes.WithLabelValues(outcomeError).Inc()
		return nil, err
	}

	// The user must exist before any order state is touched.
	user, err := s.users.GetByID(ctx, input.UserID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			confirmationOutcomes.WithLabelValues(outcomeUserNotFound).Inc()
			return nil, apperrors.NotFound("user", input.UserID)
		}
		confirmationOutcomes.WithLabelValues(outcomeError).Inc()
		return nil, fmt.Errorf("get user: %w", err)
	}

	if input.Status == domain.OrderStatusCompleted {
		return s.finalize(ctx, input.OrderID, user.ID)
	}

	// Anything other than a completed confirmation reverses the order.
	return s.reverse(ctx, input.OrderID, user.ID, input.Status)
}

// finalize transitions a pending order to completed.
func (s *ConfirmationService) finalize(ctx context.Context, orderID, userID string) (*ConfirmResult, error) {
	applied, err := s.orders.CompareAndSetStatus(ctx, orderID, domain.OrderStatusPending, domain.OrderStatusCompleted)
	if err != nil {
		confirmationOutcomes.WithLabelValues(outcomeError).Inc()
		return nil, fmt.Errorf("complete order: %w", err)
	}

	if !applied {
		return s.resultForUnchanged(ctx, orderID)
	}

	if err := s.producer.PublishOrderCompleted(ctx, orderID, userID); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish order.completed event",
			slog.String("order_id", orderID),
			slog.String("error", err.Error()),
		)
		// Do not fail the operation if event publishing fails.
	}

	s.logger.InfoContext(ctx, "order completed",
		slog.String("order_id", orderID),
		slog.String("user_id", userID),
	)

	confirmationOutcomes.WithLabelValues(outcomeCompleted).Inc()
	return &ConfirmResult{OrderID: orderID, Status: domain.OrderStatusCompleted}, nil
}

// reverse cancels a pending order and returns its line item quantities to
// product stock. The cancel happens first: winning the conditional status
// update is what grants this caller the right to restore stock, so a
// redelivered or concurrent confirmation can never restore twice.
func (s *ConfirmationService) reverse(ctx context.Context, orderID, userID, reportedStatus string) (*ConfirmResult, error) {
	applied, err := s.orders.CompareAndSetStatus(ctx, orderID, domain.OrderStatusPending, domain.OrderStatusCancelled)
	if err != nil {
		confirmationOutcomes.WithLabelValues(outcomeError).Inc()
		return nil, fmt.Errorf("cancel order: %w", err)
	}

	if !applied {
		return s.resultForUnchanged(ctx, orderID)
	}

	items, err := s.orders.ListByOrderID(ctx, orderID)
	if err != nil {
		confirmationOutcomes.WithLabelValues(outcomeError).Inc()
		return nil, fmt.Errorf("list line items for restock: %w", err)
	}

	restored := make([]RestoredItem, 0, len(items))
	var restoreErrs []error
	for _, item := range items {
		if err := s.products.RestoreStock(ctx, item.ProductID, item.Quantity); err != nil {
			// A line item referencing a product that no longer exists cannot
			// be restored; skip it and keep processing the siblings.
			if errors.Is(err, apperrors.ErrNotFound) {
				s.logger.WarnContext(ctx, "product not found during stock restore, skipping line item",
					slog.String("order_id", orderID),
					slog.String("product_id", item.ProductID),
					slog.Int("quantity", item.Quantity),
				)
				continue
			}
			s.logger.ErrorContext(ctx, "failed to restore stock for line item",
				slog.String("order_id", orderID),
				slog.String("product_id", item.ProductID),
				slog.Int("quantity", item.Quantity),
				slog.String("error", err.Error()),
			)
			restoreErrs = append(restoreErrs, fmt.Errorf("restore stock for product %s: %w", item.ProductID, err))
			continue
		}

		restored = append(restored, RestoredItem{ProductID: item.ProductID, Quantity: item.Quantity})

		if err := s.producer.PublishInventoryRestored(ctx, orderID, item.ProductID, item.Quantity); err != nil {
			s.logger.ErrorContext(ctx, "failed to publish inventory.restored event",
				slog.String("order_id", orderID),
				slog.String("product_id", item.ProductID),
				slog.String("error", err.Error()),
			)
		}
	}

	if err := s.producer.PublishOrderCancelled(ctx, orderID, userID, CancelReasonNotCompleted); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish order.cancelled event",
			slog.String("order_id", orderID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "order cancelled and stock restored",
		slog.String("order_id", orderID),
		slog.String("user_id", userID),
		slog.String("reported_status", reportedStatus),
		slog.Int("items_restored", len(restored)),
	)

	if len(restoreErrs) > 0 {
		confirmationOutcomes.WithLabelValues(outcomeError).Inc()
		return &ConfirmResult{OrderID: orderID, Status: domain.OrderStatusCancelled, Restored: restored},
			apperrors.Internal(errors.Join(restoreErrs...))
	}

	confirmationOutcomes.WithLabelValues(outcomeCancelled).Inc()
	return &ConfirmResult{OrderID: orderID, Status: domain.OrderStatusCancelled, Restored: restored}, nil
}

// resultForUnchanged handles the case where the conditional update changed no
// rows: either the order does not exist, or it already reached a terminal
// status (a duplicate delivery or a lost race).
func (s *ConfirmationService) resultForUnchanged(ctx context.Context, orderID string) (*ConfirmResult, error) {
	status, err := s.orders.GetStatus(ctx, orderID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			confirmationOutcomes.WithLabelValues(outcomeNotFound).Inc()
			return nil, apperrors.NotFound("order", orderID)
		}
		confirmationOutcomes.WithLabelValues(outcomeError).Inc()
		return nil, fmt.Errorf("get order status: %w", err)
	}

	s.logger.InfoContext(ctx, "order already in terminal status, skipping",
		slog.String("order_id", orderID),
		slog.String("status", status),
	)

	confirmationOutcomes.WithLabelValues(outcomeAlreadyFinal).Inc()
	return &ConfirmResult{OrderID: orderID, Status: status, AlreadyFinal: true}, nil
}

func validateInput(input ConfirmInput) error {
	if input.UserID == "" {
		return apperrors.InvalidInput("user_id is required")
	}
	if _, err := uuid.Parse(input.UserID); err != nil {
		return apperrors.InvalidInput("user_id must be a valid UUID")
	}
	if input.OrderID == "" {
		return apperrors.InvalidInput("order_id is required")
	}
	if _, err := uuid.Parse(input.OrderID); err != nil {
		return apperrors.InvalidInput("order_id must be a valid UUID")
	}
	if input.Status == "" {
		return apperrors.InvalidInput("status is required")
	}
	return nil
}
