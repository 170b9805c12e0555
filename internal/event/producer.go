package event

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/utafrali/order-confirmation/internal/service"
	pkgkafka "github.com/utafrali/order-confirmation/pkg/kafka"
)

// Kafka topic constants for confirmation outcome events.
const (
	TopicOrderCompleted     = "ecommerce.order.completed"
	TopicOrderCancelled     = "ecommerce.order.cancelled"
	TopicInventoryRestored  = "ecommerce.inventory.restored"
	TopicOrderConfirmations = "ecommerce.order.confirmation"
)

// Aggregate type constants.
const (
	AggregateTypeOrder   = "order"
	AggregateTypeProduct = "product"
)

// Source identifier for events originating from this service.
const SourceConfirmationService = "order-confirmation-service"

// OrderCompletedData is the payload for an order.completed event.
type OrderCompletedData struct {
	OrderID string `json:"order_id"`
	UserID  string `json:"user_id"`
}

// OrderCancelledData is the payload for an order.cancelled event.
type OrderCancelledData struct {
	OrderID string `json:"order_id"`
	UserID  string `json:"user_id"`
	Reason  string `json:"reason"`
}

// InventoryRestoredData is the payload for an inventory.restored event.
type InventoryRestoredData struct {
	OrderID   string `json:"order_id"`
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

// Producer publishes confirmation outcome events to Kafka.
type Producer struct {
	kafka  *pkgkafka.Producer
	logger *slog.Logger
}

var _ service.EventPublisher = (*Producer)(nil)

// NewProducer creates a new event producer for the confirmation service.
func NewProducer(kafka *pkgkafka.Producer, logger *slog.Logger) *Producer {
	return &Producer{
		kafka:  kafka,
		logger: logger,
	}
}

// PublishOrderCompleted publishes an order.completed event.
func (p *Producer) PublishOrderCompleted(ctx context.Context, orderID, userID string) error {
	data := OrderCompletedData{
		OrderID: orderID,
		UserID:  userID,
	}

	event, err := pkgkafka.NewEvent(TopicOrderCompleted, orderID, AggregateTypeOrder, SourceConfirmationService, data)
	if err != nil {
		return fmt.Errorf("create order.completed event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicOrderCompleted, event); err != nil {
		return fmt.Errorf("publish order.completed event: %w", err)
	}

	p.logger.DebugContext(ctx, "published order.completed event",
		slog.String("order_id", orderID),
		slog.String("user_id", userID),
	)

	return nil
}

// PublishOrderCancelled publishes an order.cancelled event.
func (p *Producer) PublishOrderCancelled(ctx context.Context, orderID, userID, reason string) error {
	data := OrderCancelledData{
		OrderID: orderID,
		UserID:  userID,
		Reason:  reason,
	}

	event, err := pkgkafka.NewEvent(TopicOrderCancelled, orderID, AggregateTypeOrder, SourceConfirmationService, data)
	if err != nil {
		return fmt.Errorf("create order.cancelled event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicOrderCancelled, event); err != nil {
		return fmt.Errorf("publish order.cancelled event: %w", err)
	}

	p.logger.DebugContext(ctx, "published order.cancelled event",
		slog.String("order_id", orderID),
		slog.String("reason", reason),
	)

	return nil
}

// PublishInventoryRestored publishes an inventory.restored event for a single
// line item whose stock was returned.
func (p *Producer) PublishInventoryRestored(ctx context.Context, orderID, productID string, quantity int) error {
	data := InventoryRestoredData{
		OrderID:   orderID,
		ProductID: productID,
		Quantity:  quantity,
	}

	event, err := pkgkafka.NewEvent(TopicInventoryRestored, productID, AggregateTypeProduct, SourceConfirmationService, data)
	if err != nil {
		return fmt.Errorf("create inventory.restored event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicInventoryRestored, event); err != nil {
		return fmt.Errorf("publish inventory.restored event: %w", err)
	}

	p.logger.DebugContext(ctx, "published inventory.restored event",
		slog.String("order_id", orderID),
		slog.String("product_id", productID),
		slog.Int("quantity", quantity),
	)

	return nil
}
