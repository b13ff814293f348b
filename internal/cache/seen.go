// Package cache provides the optional Redis-backed seen-URL cache. It keeps
// repeat discovery runs from re-crawling and re-extracting the same pages.
package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/scholarscout/discovery-cli/internal/config"
)

const seenKeyPrefix = "discovery:seen:"

// SeenCache tracks processed URLs with a TTL. All operations are
// best-effort: a Redis outage degrades to "never seen".
type SeenCache struct {
	client *redis.Client
	ttl    time.Duration
}

// New connects to Redis using the configured URL. The rediss:// scheme in
// the URL enables TLS.
func New(ctx context.Context, cfg config.CacheConfig) (*SeenCache, error) {
	if cfg.RedisURL == "" {
		return nil, eris.New("cache: redis_url not configured")
	}

	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, eris.Wrap(err, "cache: parse redis url")
	}
	opts.ReadTimeout = 5 * time.Second
	opts.WriteTimeout = 5 * time.Second

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, eris.Wrap(err, "cache: ping redis")
	}

	ttl := time.Duration(cfg.TTLHours) * time.Hour
	if ttl <= 0 {
		ttl = 72 * time.Hour
	}
	return &SeenCache{client: client, ttl: ttl}, nil
}

// NewWithClient wraps an existing client. Used by tests.
func NewWithClient(client *redis.Client, ttl time.Duration) *SeenCache {
	return &SeenCache{client: client, ttl: ttl}
}

// Seen reports whether the URL was processed within the TTL window.
func (c *SeenCache) Seen(ctx context.Context, url string) bool {
	n, err := c.client.Exists(ctx, seenKeyPrefix+url).Result()
	if err != nil {
		zap.L().Warn("cache: seen lookup failed", zap.String("url", url), zap.Error(err))
		return false
	}
	return n > 0
}

// Mark records the URL as processed.
func (c *SeenCache) Mark(ctx context.Context, url string) {
	if err := c.client.Set(ctx, seenKeyPrefix+url, "1", c.ttl).Err(); err != nil {
		zap.L().Warn("cache: mark failed", zap.String("url", url), zap.Error(err))
	}
}

// Close releases the Redis connection.
func (c *SeenCache) Close() error {
	return c.client.Close()
}
