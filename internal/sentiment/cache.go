package sentiment

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"sentiment-aura/internal/common/database"
)

// Cache stores normalized results keyed by provider and prepared text.
type Cache interface {
	Get(ctx context.Context, key string) (*Result, bool, error)
	Set(ctx context.Context, key string, result Result) error
}

// CacheKey hashes the provider and the text actually sent to it.
func CacheKey(provider, prepared string) string {
	sum := sha256.Sum256([]byte(provider + "\x00" + prepared))
	return hex.EncodeToString(sum[:])
}

// RedisCache keeps results in redis with a fixed TTL.
type RedisCache struct {
	client *database.RedisClient
	ttl    time.Duration
	prefix string
}

func NewRedisCache(client *database.RedisClient, ttl time.Duration, prefix string) *RedisCache {
	return &RedisCache{client: client, ttl: ttl, prefix: prefix}
}

func (c *RedisCache) Get(ctx context.Context, key string) (*Result, bool, error) {
	raw, err := c.client.Get(ctx, c.prefix+key)
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("cache get: %w", err)
	}

	// entries go through Repair like any provider reply
	var obj map[string]interface{}
	if err := json.Unmarshal([]byte(raw), &obj); err != nil {
		return nil, false, fmt.Errorf("cache decode: %w", err)
	}
	result := Repair(obj)
	return &result, true, nil
}

func (c *RedisCache) Set(ctx context.Context, key string, result Result) error {
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("cache encode: %w", err)
	}
	if err := c.client.Set(ctx, c.prefix+key, data, c.ttl); err != nil {
		return fmt.Errorf("cache set: %w", err)
	}
	return nil
}
