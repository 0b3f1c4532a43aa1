package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/subletme/sublet-api/internal/config"
)

// BadgeTTL bounds how long counters survive without a refresh. Reads and
// writes both bump it, so active users keep warm counters.
const BadgeTTL = time.Hour

type RedisCache struct {
	Client *redis.Client
}

// NewRedisCache initializes a Redis client from config.
// Only Addr is mandatory, Password/DB are optional.
func NewRedisCache(cfg *config.Config) *RedisCache {
	opts := &redis.Options{
		Addr: cfg.Redis.Addr,
	}
	if cfg.Redis.Password != "" {
		opts.Password = cfg.Redis.Password
	}
	if cfg.Redis.DB != 0 {
		opts.DB = cfg.Redis.DB
	}
	return &RedisCache{Client: redis.NewClient(opts)}
}

func (c *RedisCache) Ping(ctx context.Context) error {
	return c.Client.Ping(ctx).Err()
}

// KeyForUnreadBadge is the per-user total of unread messages across all
// conversations, shown as the app icon badge.
func (c *RedisCache) KeyForUnreadBadge(userID uint64) string {
	return fmt.Sprintf("unread:badge:%d", userID)
}

// KeyForPropertyLikes counts pending+approved likes on a property.
func (c *RedisCache) KeyForPropertyLikes(propertyID uint64) string {
	return fmt.Sprintf("property:likes:%d", propertyID)
}

// GetCount reads a counter. A cache miss is (0, false, nil), not an error.
func (c *RedisCache) GetCount(ctx context.Context, key string) (int64, bool, error) {
	val, err := c.Client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	// refresh TTL on access
	_ = c.Client.Expire(ctx, key, BadgeTTL).Err()

	n, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, false, err
	}
	return n, true, nil
}

// SetCount writes a counter with a fresh TTL.
func (c *RedisCache) SetCount(ctx context.Context, key string, n int64) error {
	return c.Client.Set(ctx, key, n, BadgeTTL).Err()
}

// Bump adjusts a counter by delta and refreshes its TTL. A missing key is
// left missing: bumping a cold counter would drift from the DB truth.
func (c *RedisCache) Bump(ctx context.Context, key string, delta int64) error {
	exists, err := c.Client.Exists(ctx, key).Result()
	if err != nil || exists == 0 {
		return err
	}
	if err := c.Client.IncrBy(ctx, key, delta).Err(); err != nil {
		return err
	}
	return c.Client.Expire(ctx, key, BadgeTTL).Err()
}

// Invalidate drops a counter so the next read falls through to the DB.
func (c *RedisCache) Invalidate(ctx context.Context, key string) error {
	return c.Client.Del(ctx, key).Err()
}
