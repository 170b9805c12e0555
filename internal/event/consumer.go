package event

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/utafrali/order-confirmation/internal/service"
	apperrors "github.com/utafrali/order-confirmation/pkg/errors"
	pkgkafka "github.com/utafrali/order-confirmation/pkg/kafka"
)

// ConfirmationService defines the interface required by the event consumer.
type ConfirmationService interface {
	Confirm(ctx context.Context, input service.ConfirmInput) (*service.ConfirmResult, error)
}

// OrderConfirmationData is the expected payload of an order.confirmation event.
type OrderConfirmationData struct {
	UserID  string `json:"user_id"`
	OrderID string `json:"order_id"`
	Status  string `json:"status"`
}

// Consumer processes incoming Kafka events for the confirmation service.
type Consumer struct {
	logger  *slog.Logger
	service ConfirmationService
}

// NewConsumer creates a new event consumer for the confirmation service.
func NewConsumer(svc ConfirmationService, logger *slog.Logger) *Consumer {
	return &Consumer{
		service: svc,
		logger:  logger,
	}
}

// HandleOrderConfirmation processes order.confirmation events by finalizing or
// reversing the referenced order. Malformed payloads and lookups that miss are
// swallowed after logging: redelivering them cannot succeed, so returning an
// error would only cycle the message through retries into the DLQ.
func (c *Consumer) HandleOrderConfirmation(ctx context.Context, event *pkgkafka.Event) error {
	var data OrderConfirmationData
	if err := json.Unmarshal(event.Data, &data); err != nil {
		return fmt.Errorf("unmarshal order.confirmation data: %w", err)
	}

	c.logger.InfoContext(ctx, "processing order.confirmation event",
		slog.String("order_id", data.OrderID),
		slog.String("user_id", data.UserID),
		slog.String("status", data.Status),
	)

	result, err := c.service.Confirm(ctx, service.ConfirmInput{
		UserID:  data.UserID,
		OrderID: data.OrderID,
		Status:  data.Status,
	})
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) || errors.Is(err, apperrors.ErrInvalidInput) {
			c.logger.WarnContext(ctx, "dropping unprocessable confirmation",
				slog.String("order_id", data.OrderID),
				slog.String("user_id", data.UserID),
				slog.String("error", err.Error()),
			)
			return nil
		}
		return fmt.Errorf("confirm order %s: %w", data.OrderID, err)
	}

	c.logger.InfoContext(ctx, "confirmation processed",
		slog.String("order_id", result.OrderID),
		slog.String("status", result.Status),
		slog.Bool("already_final", result.AlreadyFinal),
		slog.Int("items_restored", len(result.Restored)),
	)

	return nil
}
