package event

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/order-confirmation/internal/service"
	apperrors "github.com/utafrali/order-confirmation/pkg/errors"
	pkgkafka "github.com/utafrali/order-confirmation/pkg/kafka"
)

// --- Mock ConfirmationService ---

type mockConfirmationService struct {
	mock.Mock
}

func (m *mockConfirmationService) Confirm(ctx context.Context, input service.ConfirmInput) (*service.ConfirmResult, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.ConfirmResult), args.Error(1)
}

// --- Test helpers ---

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newTestEvent(data any) *pkgkafka.Event {
	dataBytes, _ := json.Marshal(data)
	return &pkgkafka.Event{
		EventID:       "evt-test-123",
		EventType:     TopicOrderConfirmations,
		AggregateID:   "agg-test-456",
		AggregateType: "order",
		Version:       1,
		Timestamp:     time.Now().UTC(),
		Source:        "test-service",
		Data:          dataBytes,
	}
}

// --- Tests ---

func TestHandleOrderConfirmation_Completed(t *testing.T) {
	svc := new(mockConfirmationService)
	consumer := NewConsumer(svc, newTestLogger())
	ctx := context.Background()

	payload := OrderConfirmationData{
		UserID:  "3f2c2ea0-7d8a-4b1a-9f40-111111111111",
		OrderID: "7b6c5d4e-0000-4a3b-9c8d-333333333333",
		Status:  "completed",
	}

	svc.On("Confirm", ctx, service.ConfirmInput{
		UserID:  payload.UserID,
		OrderID: payload.OrderID,
		Status:  payload.Status,
	}).Return(&service.ConfirmResult{OrderID: payload.OrderID, Status: "completed"}, nil)

	err := consumer.HandleOrderConfirmation(ctx, newTestEvent(payload))
	require.NoError(t, err)
	svc.AssertExpectations(t)
}

func TestHandleOrderConfirmation_MalformedPayload(t *testing.T) {
	svc := new(mockConfirmationService)
	consumer := NewConsumer(svc, newTestLogger())

	event := &pkgkafka.Event{
		EventID: "evt-bad",
		Data:    json.RawMessage(`{"user_id": 42}`),
	}

	err := consumer.HandleOrderConfirmation(context.Background(), event)
	assert.Error(t, err)
	svc.AssertNotCalled(t, "Confirm", mock.Anything, mock.Anything)
}

func TestHandleOrderConfirmation_NotFoundDropped(t *testing.T) {
	svc := new(mockConfirmationService)
	consumer := NewConsumer(svc, newTestLogger())
	ctx := context.Background()

	payload := OrderConfirmationData{
		UserID:  "3f2c2ea0-7d8a-4b1a-9f40-111111111111",
		OrderID: "7b6c5d4e-0000-4a3b-9c8d-333333333333",
		Status:  "completed",
	}

	svc.On("Confirm", ctx, mock.Anything).Return(nil, apperrors.NotFound("user", payload.UserID))

	// Not-found is permanent: the handler must not ask for a retry.
	err := consumer.HandleOrderConfirmation(ctx, newTestEvent(payload))
	assert.NoError(t, err)
}

func TestHandleOrderConfirmation_InvalidInputDropped(t *testing.T) {
	svc := new(mockConfirmationService)
	consumer := NewConsumer(svc, newTestLogger())
	ctx := context.Background()

	payload := OrderConfirmationData{UserID: "not-a-uuid", OrderID: "also-bad", Status: "completed"}

	svc.On("Confirm", ctx, mock.Anything).Return(nil, apperrors.InvalidInput("user_id must be a valid UUID"))

	err := consumer.HandleOrderConfirmation(ctx, newTestEvent(payload))
	assert.NoError(t, err)
}

func TestHandleOrderConfirmation_TransientErrorRetried(t *testing.T) {
	svc := new(mockConfirmationService)
	consumer := NewConsumer(svc, newTestLogger())
	ctx := context.Background()

	payload := OrderConfirmationData{
		UserID:  "3f2c2ea0-7d8a-4b1a-9f40-111111111111",
		OrderID: "7b6c5d4e-0000-4a3b-9c8d-333333333333",
		Status:  "cancelled",
	}

	svc.On("Confirm", ctx, mock.Anything).Return(nil, errors.New("dial tcp: connection refused"))

	// Store faults must propagate so the consumer retries and eventually
	// dead-letters the message.
	err := consumer.HandleOrderConfirmation(ctx, newTestEvent(payload))
	assert.Error(t, err)
}
