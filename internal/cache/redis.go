package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/okanb/health-tracker/internal/config"
)

// countTTL bounds staleness of cached per-user record counts.
const countTTL = time.Hour

type RedisCache struct {
	Client *redis.Client
}

// NewRedisCache initializes Redis client from config.
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

// incrIfExists bumps a counter and refreshes its TTL only when the key is
// already cached, atomically. A missing key returns -1 and stays absent, so
// a counter never starts from a bogus 1 after a cache miss.
var incrIfExists = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 0 then
	return -1
end
local v = redis.call('INCR', KEYS[1])
redis.call('PEXPIRE', KEYS[1], ARGV[1])
return v
`)

// KeyForRecordCount generates the Redis key for a user's record count.
func (c *RedisCache) KeyForRecordCount(userID uint64) string {
	return fmt.Sprintf("records:count:%d", userID)
}

// UpdateRecordCount stores a user's record count with a fresh TTL.
func (c *RedisCache) UpdateRecordCount(ctx context.Context, userID uint64, count int64) error {
	return c.Client.Set(ctx, c.KeyForRecordCount(userID), count, countTTL).Err()
}

// GetRecordCount reads a cached count. A miss is (0, false, nil).
// TTL is refreshed on access.
func (c *RedisCache) GetRecordCount(ctx context.Context, userID uint64) (int64, bool, error) {
	key := c.KeyForRecordCount(userID)
	val, err := c.Client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil // cache miss
	} else if err != nil {
		return 0, false, err
	}
	n, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, false, nil // unreadable entry, treat as miss
	}
	_ = c.Client.Expire(ctx, key, countTTL).Err()
	return n, true, nil
}

// IncrRecordCount atomically increments an already-cached count and
// refreshes its TTL. A miss is (0, false, nil): the key is left absent and
// the next GetRecordCount fallback repopulates it from the DB.
func (c *RedisCache) IncrRecordCount(ctx context.Context, userID uint64) (int64, bool, error) {
	key := c.KeyForRecordCount(userID)
	n, err := incrIfExists.Run(ctx, c.Client, []string{key}, countTTL.Milliseconds()).Int64()
	if err != nil {
		return 0, false, err
	}
	if n < 0 {
		return 0, false, nil
	}
	return n, true, nil
}

// InvalidateRecordCount drops the cached count, e.g. after a profile delete.
func (c *RedisCache) InvalidateRecordCount(ctx context.Context, userID uint64) error {
	return c.Client.Del(ctx, c.KeyForRecordCount(userID)).Err()
}
