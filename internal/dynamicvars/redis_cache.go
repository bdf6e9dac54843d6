package dynamicvars

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "dynvars:"

// RedisCache shares variable sets between the API and worker processes.
// Expiry is delegated to Redis via SET EX.
type RedisCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisCache(rdb *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{rdb: rdb, ttl: ttl}
}

func (c *RedisCache) Get(ctx context.Context, conversationID string) (Variables, bool, error) {
	raw, err := c.rdb.Get(ctx, redisKeyPrefix+conversationID).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("variable cache get: %w", err)
	}

	var vars Variables
	if err := json.Unmarshal(raw, &vars); err != nil {
		return nil, false, fmt.Errorf("variable cache decode: %w", err)
	}
	return vars, true, nil
}

func (c *RedisCache) Set(ctx context.Context, conversationID string, vars Variables) error {
	raw, err := json.Marshal(vars)
	if err != nil {
		return fmt.Errorf("variable cache encode: %w", err)
	}
	if err := c.rdb.Set(ctx, redisKeyPrefix+conversationID, raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("variable cache set: %w", err)
	}
	return nil
}

var _ Cache = (*RedisCache)(nil)
