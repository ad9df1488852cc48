// Package cache is a JSON cache over Redis. A Cache without a client is
// valid and behaves as an always-empty cache, so callers never branch on
// whether Redis is configured.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gearshare-backend/internal/config"
	"gearshare-backend/internal/logger"
	"gearshare-backend/internal/metrics"

	"github.com/redis/go-redis/v9"
)

// DashboardKey holds the cached dashboard summary.
const DashboardKey = "gearshare:dashboard:summary"

type Cache struct {
	client *redis.Client
}

// New connects to cfg.Addr. An empty address returns a disabled cache. A
// failed ping also returns a disabled cache, together with the error so the
// caller can log it.
func New(ctx context.Context, cfg config.RedisConfig) (*Cache, error) {
	if cfg.Addr == "" {
		return &Cache{}, nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return &Cache{}, fmt.Errorf("redis ping %s: %w", cfg.Addr, err)
	}
	return &Cache{client: client}, nil
}

// NewWithClient wraps an existing client; nil gives a disabled cache.
func NewWithClient(client *redis.Client) *Cache {
	return &Cache{client: client}
}

func (c *Cache) Enabled() bool {
	return c != nil && c.client != nil
}

// GetJSON decodes key into dest and reports whether it was found. Redis
// errors count as a miss.
func (c *Cache) GetJSON(ctx context.Context, key string, dest any) bool {
	if !c.Enabled() {
		return false
	}
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			logger.WarnContext(ctx, "Cache read failed", "key", key, "error", err)
		}
		metrics.DashboardCacheTotal.WithLabelValues("miss").Inc()
		return false
	}
	if err := json.Unmarshal(data, dest); err != nil {
		logger.WarnContext(ctx, "Discarding undecodable cache entry", "key", key, "error", err)
		metrics.DashboardCacheTotal.WithLabelValues("miss").Inc()
		return false
	}
	metrics.DashboardCacheTotal.WithLabelValues("hit").Inc()
	return true
}

// SetJSON stores v under key for ttl. Failures are logged only.
func (c *Cache) SetJSON(ctx context.Context, key string, v any, ttl time.Duration) {
	if !c.Enabled() {
		return
	}
	data, err := json.Marshal(v)
	if err != nil {
		logger.WarnContext(ctx, "Cache encode failed", "key", key, "error", err)
		return
	}
	if err := c.client.Set(ctx, key, data, ttl).Err(); err != nil {
		logger.WarnContext(ctx, "Cache write failed", "key", key, "error", err)
	}
}

// Invalidate removes keys.
func (c *Cache) Invalidate(ctx context.Context, keys ...string) {
	if !c.Enabled() || len(keys) == 0 {
		return
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		logger.WarnContext(ctx, "Cache invalidate failed", "keys", keys, "error", err)
	}
}

func (c *Cache) Close() error {
	if !c.Enabled() {
		return nil
	}
	return c.client.Close()
}
