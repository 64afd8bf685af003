package schedule

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache stores the most recent generated snapshot. Writes are guarded by a
// generation that Invalidate bumps, so a snapshot built before an
// invalidation can never land after it.
type Cache interface {
	Get(ctx context.Context) ([]Day, bool, error)
	Generation(ctx context.Context) (int64, error)
	SetIfGeneration(ctx context.Context, days []Day, gen int64) (bool, error)
	Invalidate(ctx context.Context) error
}

const defaultCacheKey = "padel:schedule:snapshot"

// KEYS[1] snapshot, KEYS[2] generation; ARGV[1] expected generation,
// ARGV[2] payload, ARGV[3] ttl in ms (0 keeps it forever).
var setIfGenerationScript = redis.NewScript(`
local current = tonumber(redis.call("GET", KEYS[2]) or "0")
if current ~= tonumber(ARGV[1]) then
  return 0
end
if tonumber(ARGV[3]) > 0 then
  redis.call("SET", KEYS[1], ARGV[2], "PX", ARGV[3])
else
  redis.call("SET", KEYS[1], ARGV[2])
end
return 1
`)

// RedisCache keeps the snapshot as a JSON blob with a TTL.
type RedisCache struct {
	client *redis.Client
	key    string
	genKey string
	ttl    time.Duration
}

// NewRedisCache wraps client. A non-positive ttl means entries never expire
// on their own and only Invalidate clears them.
func NewRedisCache(client *redis.Client, ttl time.Duration) *RedisCache {
	if client == nil {
		panic("schedule: redis client required")
	}
	return &RedisCache{client: client, key: defaultCacheKey, genKey: defaultCacheKey + ":gen", ttl: ttl}
}

func (c *RedisCache) Get(ctx context.Context) ([]Day, bool, error) {
	data, err := c.client.Get(ctx, c.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("schedule: cache get: %w", err)
	}
	var days []Day
	if err := json.Unmarshal(data, &days); err != nil {
		return nil, false, fmt.Errorf("schedule: cache decode: %w", err)
	}
	return days, true, nil
}

// Generation returns the current invalidation counter; 0 before the first
// Invalidate.
func (c *RedisCache) Generation(ctx context.Context) (int64, error) {
	gen, err := c.client.Get(ctx, c.genKey).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("schedule: cache generation: %w", err)
	}
	return gen, nil
}

// SetIfGeneration stores days only while the counter still equals gen. It
// reports whether the write happened.
func (c *RedisCache) SetIfGeneration(ctx context.Context, days []Day, gen int64) (bool, error) {
	data, err := json.Marshal(days)
	if err != nil {
		return false, fmt.Errorf("schedule: cache encode: %w", err)
	}
	ttl := c.ttl.Milliseconds()
	if ttl < 0 {
		ttl = 0
	}
	stored, err := setIfGenerationScript.Run(ctx, c.client, []string{c.key, c.genKey}, gen, data, ttl).Int()
	if err != nil {
		return false, fmt.Errorf("schedule: cache set: %w", err)
	}
	return stored == 1, nil
}

// Invalidate bumps the generation and drops the snapshot in one transaction.
func (c *RedisCache) Invalidate(ctx context.Context) error {
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, c.genKey)
		pipe.Del(ctx, c.key)
		return nil
	})
	if err != nil {
		return fmt.Errorf("schedule: cache invalidate: %w", err)
	}
	return nil
}
