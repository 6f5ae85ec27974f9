package bootstrap

import (
	"context"
	"crypto/tls"
	"strings"

	"github.com/redis/go-redis/v9"

	appconfig "github.com/trois-dimensions/site-backend/internal/config"
	"github.com/trois-dimensions/site-backend/internal/roles"
	"github.com/trois-dimensions/site-backend/pkg/logging"
)

// BuildRedisClient returns a configured Redis client or nil when disabled.
// When verify is true, a ping is issued and failures return nil.
func BuildRedisClient(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger, verify bool) *redis.Client {
	if cfg == nil || strings.TrimSpace(cfg.RedisAddr) == "" {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	if ctx == nil {
		ctx = context.Background()
	}

	redisOptions := &redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	}
	if cfg.RedisTLS {
		redisOptions.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	client := redis.NewClient(redisOptions)
	if !verify {
		return client
	}
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("redis not available; role cache disabled", "error", err)
		_ = client.Close()
		return nil
	}
	return client
}

// BuildRoleChecker puts the optional Redis cache in front of the role store.
// It returns nil when the storage backend has no role table.
func BuildRoleChecker(store *roles.SQLStore, redisClient *redis.Client, cfg *appconfig.Config, logger *logging.Logger) roles.Checker {
	if store == nil {
		return nil
	}
	if redisClient == nil || cfg == nil {
		return store
	}
	return roles.NewCachedChecker(store, redisClient, cfg.RoleCacheTTL, logger)
}
