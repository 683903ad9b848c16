package workspace

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// Redis key prefix for cached workspace existence.
const redisExistsPrefix = "ledger:ws:exists:"

// RedisCache is a shared workspace existence cache for multi-instance
// deployments, where an in-process Cache would be cold on every replica.
//
// Like Cache, only positive results are stored; misses always fall through
// to the wrapped checker.
type RedisCache struct {
	next Checker
	rdb  goredis.UniversalClient
	ttl  time.Duration
}

// NewRedisCache wraps next with a Redis-backed existence cache.
func NewRedisCache(next Checker, rdb goredis.UniversalClient, ttl time.Duration) *RedisCache {
	return &RedisCache{
		next: next,
		rdb:  rdb,
		ttl:  ttl,
	}
}

// WorkspaceExists implements Checker.
func (c *RedisCache) WorkspaceExists(ctx context.Context, wsID string) (bool, error) {
	key := redisExistsPrefix + wsID

	n, err := c.rdb.Exists(ctx, key).Result()
	if err == nil && n > 0 {
		return true, nil
	}
	// Redis being down degrades to a store check, it never fails the write.

	exists, nextErr := c.next.WorkspaceExists(ctx, wsID)
	if nextErr != nil {
		return false, nextErr
	}

	if exists {
		if setErr := c.rdb.Set(ctx, key, "1", c.ttl).Err(); setErr != nil {
			return true, nil //nolint:nilerr // cache write failure is not a lookup failure
		}
	}

	return exists, nil
}

// Invalidate drops a cached workspace from Redis.
func (c *RedisCache) Invalidate(ctx context.Context, wsID string) error {
	if err := c.rdb.Del(ctx, redisExistsPrefix+wsID).Err(); err != nil {
		return fmt.Errorf("workspace: invalidate %q: %w", wsID, err)
	}
	return nil
}
