package kafka

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestMemoryIdempotencyStore_AddAndContains(t *testing.T) {
	store := NewMemoryIdempotencyStore(time.Hour)
	ctx := context.Background()

	exists, err := store.Contains(ctx, "evt-1")
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, store.Add(ctx, "evt-1"))

	exists, err = store.Contains(ctx, "evt-1")
	require.NoError(t, err)
	assert.True(t, exists)
	assert.Equal(t, 1, store.Len())
}

func TestMemoryIdempotencyStore_Expiry(t *testing.T) {
	store := NewMemoryIdempotencyStore(10 * time.Millisecond)
	ctx := context.Background()

	require.NoError(t, store.Add(ctx, "evt-1"))
	time.Sleep(20 * time.Millisecond)

	exists, err := store.Contains(ctx, "evt-1")
	require.NoError(t, err)
	assert.False(t, exists)
	// Expired entry is removed on access.
	assert.Equal(t, 0, store.Len())
}

func TestIdempotentHandler_SkipsDuplicates(t *testing.T) {
	store := NewMemoryIdempotencyStore(time.Hour)
	calls := 0
	handler := IdempotentHandler(store, func(ctx context.Context, event *Event) error {
		calls++
		return nil
	}, testLogger())

	event := &Event{EventID: "evt-dup", EventType: "test.event"}
	ctx := context.Background()

	require.NoError(t, handler(ctx, event))
	require.NoError(t, handler(ctx, event))

	assert.Equal(t, 1, calls)
}

func TestIdempotentHandler_NoEventIDPassesThrough(t *testing.T) {
	store := NewMemoryIdempotencyStore(time.Hour)
	calls := 0
	handler := IdempotentHandler(store, func(ctx context.Context, event *Event) error {
		calls++
		return nil
	}, testLogger())

	event := &Event{EventType: "test.event"}
	ctx := context.Background()

	require.NoError(t, handler(ctx, event))
	require.NoError(t, handler(ctx, event))

	// Without an event ID there is nothing to deduplicate on.
	assert.Equal(t, 2, calls)
}

func TestIdempotentHandler_FailedHandlerNotRecorded(t *testing.T) {
	store := NewMemoryIdempotencyStore(time.Hour)
	calls := 0
	handler := IdempotentHandler(store, func(ctx context.Context, event *Event) error {
		calls++
		if calls == 1 {
			return errors.New("transient failure")
		}
		return nil
	}, testLogger())

	event := &Event{EventID: "evt-retry", EventType: "test.event"}
	ctx := context.Background()

	assert.Error(t, handler(ctx, event))
	// A failed attempt must not mark the event as processed.
	require.NoError(t, handler(ctx, event))
	assert.Equal(t, 2, calls)
}

type failingStore struct{}

func (failingStore) Contains(context.Context, string) (bool, error) {
	return false, errors.New("store unavailable")
}

func (failingStore) Add(context.Context, string) error {
	return errors.New("store unavailable")
}

func TestIdempotentHandler_StoreFailureProcessesAnyway(t *testing.T) {
	calls := 0
	handler := IdempotentHandler(failingStore{}, func(ctx context.Context, event *Event) error {
		calls++
		return nil
	}, testLogger())

	event := &Event{EventID: "evt-1", EventType: "test.event"}

	require.NoError(t, handler(context.Background(), event))
	assert.Equal(t, 1, calls)
}
