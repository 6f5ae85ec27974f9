package roles

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/trois-dimensions/site-backend/pkg/logging"
)

const defaultCacheTTL = time.Minute

// CachedChecker is a Redis read-through cache in front of another Checker.
// Both positive and negative answers are cached for the TTL. Redis errors
// fall through to the underlying checker.
type CachedChecker struct {
	next   Checker
	redis  *redis.Client
	ttl    time.Duration
	logger *logging.Logger
}

// NewCachedChecker wraps next. A nil redis client returns next unchanged.
func NewCachedChecker(next Checker, client *redis.Client, ttl time.Duration, logger *logging.Logger) Checker {
	if client == nil {
		return next
	}
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &CachedChecker{next: next, redis: client, ttl: ttl, logger: logger}
}

func cacheKey(userID, role string) string {
	return "roles:" + role + ":" + userID
}

// HasRole answers from cache when possible.
func (c *CachedChecker) HasRole(ctx context.Context, userID, role string) (bool, error) {
	key := cacheKey(userID, role)
	val, err := c.redis.Get(ctx, key).Result()
	switch {
	case err == nil:
		return val == "1", nil
	case errors.Is(err, redis.Nil):
	default:
		c.logger.Warn("role cache read failed", "error", err)
	}

	ok, err := c.next.HasRole(ctx, userID, role)
	if err != nil {
		return false, err
	}
	val = "0"
	if ok {
		val = "1"
	}
	if err := c.redis.Set(ctx, key, val, c.ttl).Err(); err != nil {
		c.logger.Warn("role cache write failed", "error", err)
	}
	return ok, nil
}

// Invalidate drops the cached answer for userID and role so a grant made
// outside the API takes effect before the TTL expires.
func Invalidate(ctx context.Context, client *redis.Client, userID, role string) error {
	if client == nil {
		return nil
	}
	return client.Del(ctx, cacheKey(userID, role)).Err()
}
