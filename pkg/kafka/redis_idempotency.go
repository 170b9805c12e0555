package kafka

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisIdempotencyStore is a Redis-backed implementation of IdempotencyStore.
// Event IDs are stored as keys with a TTL so deduplication survives restarts
// and works across multiple consumer instances sharing a group.
type RedisIdempotencyStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisIdempotencyStore creates a Redis-backed idempotency store. The prefix
// namespaces keys per consumer group so different services can share a Redis
// instance without collisions.
func NewRedisIdempotencyStore(client *redis.Client, prefix string, ttl time.Duration) *RedisIdempotencyStore {
	return &RedisIdempotencyStore{
		client: client,
		prefix: prefix,
		ttl:    ttl,
	}
}

func (s *RedisIdempotencyStore) key(eventID string) string {
	return fmt.Sprintf("%s:processed:%s", s.prefix, eventID)
}

// Contains returns true if the event ID has already been processed.
func (s *RedisIdempotencyStore) Contains(ctx context.Context, eventID string) (bool, error) {
	n, err := s.client.Exists(ctx, s.key(eventID)).Result()
	if err != nil {
		return false, fmt.Errorf("redis exists: %w", err)
	}
	return n > 0, nil
}

// Add marks the event ID as processed with the configured TTL.
func (s *RedisIdempotencyStore) Add(ctx context.Context, eventID string) error {
	if err := s.client.Set(ctx, s.key(eventID), 1, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}
