package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mikey/scam-sentinel/internal/core"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const redisKeyPrefix = "scam-sentinel:reputation:"

// RedisCache is a Redis implementation of the ReputationCache interface,
// letting multiple pipeline instances share one reputation cache
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewRedisCache creates a new Redis reputation cache
func NewRedisCache(addr string, ttl time.Duration, logger *zap.Logger) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisCache{
		client: client,
		ttl:    ttl,
		logger: logger,
	}, nil
}

// Get returns a cached report for a normalized URL, if still fresh
func (c *RedisCache) Get(ctx context.Context, normalizedURL string) (*core.URLReport, bool) {
	payload, err := c.client.Get(ctx, redisKeyPrefix+normalizedURL).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.Warn("Failed to read reputation cache", zap.Error(err))
		}
		return nil, false
	}

	var report core.URLReport
	if err := json.Unmarshal(payload, &report); err != nil {
		c.logger.Warn("Discarding malformed reputation cache entry", zap.Error(err))
		return nil, false
	}
	return &report, true
}

// Set stores a report for a normalized URL; Redis owns the TTL
func (c *RedisCache) Set(ctx context.Context, normalizedURL string, report *core.URLReport) {
	payload, err := json.Marshal(report)
	if err != nil {
		c.logger.Error("Failed to encode reputation cache entry", zap.Error(err))
		return
	}
	if err := c.client.Set(ctx, redisKeyPrefix+normalizedURL, payload, c.ttl).Err(); err != nil {
		c.logger.Warn("Failed to write reputation cache", zap.Error(err))
	}
}

// Stop closes the Redis connection
func (c *RedisCache) Stop() {
	if err := c.client.Close(); err != nil {
		c.logger.Error("Failed to close Redis client", zap.Error(err))
	}
}
