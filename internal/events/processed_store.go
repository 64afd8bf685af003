package events

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const processedKeyPrefix = "padel:events:processed:"

// RedisProcessedStore remembers handled event ids so redelivered queue
// messages are not acted on twice.
type RedisProcessedStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisProcessedStore keeps markers for ttl (24h when zero).
func NewRedisProcessedStore(client *redis.Client, ttl time.Duration) *RedisProcessedStore {
	if client == nil {
		panic("events: redis client required")
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &RedisProcessedStore{client: client, ttl: ttl}
}

// AlreadyProcessed reports whether eventID has been marked.
func (s *RedisProcessedStore) AlreadyProcessed(ctx context.Context, eventID string) (bool, error) {
	n, err := s.client.Exists(ctx, processedKeyPrefix+eventID).Result()
	if err != nil {
		return false, fmt.Errorf("events: check processed: %w", err)
	}
	return n > 0, nil
}

// MarkProcessed records eventID. It returns false when the id was already marked.
func (s *RedisProcessedStore) MarkProcessed(ctx context.Context, eventID string) (bool, error) {
	ok, err := s.client.SetNX(ctx, processedKeyPrefix+eventID, time.Now().UTC().Format(time.RFC3339), s.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("events: mark processed: %w", err)
	}
	return ok, nil
}
