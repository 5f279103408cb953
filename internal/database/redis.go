package database

import (
	"context"
	"fmt"
	"time"

	"github.com/irfndi/timeseries-dashboard/internal/config"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// RedisClient holds the connection backing the session store.
type RedisClient struct {
	Client *redis.Client
	logger *logrus.Logger
}

// NewRedisConnection dials Redis and verifies it with PINGs
// following policy.
//
// Parameters:
//   - cfg: Redis connection settings.
//   - logger: Logger for connection events; nil uses the logrus standard logger.
//   - policy: Retry behaviour for the initial PING; the zero value tries once.
//
// Returns:
//   - *RedisClient: The connected client.
//   - error: Error if the server is unreachable.
func NewRedisConnection(cfg config.RedisConfig, logger *logrus.Logger, policy RetryPolicy) (*RedisClient, error) {
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	rdb.AddHook(NewRedisSentryHook("session_store"))

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	err := ExecuteWithRetry(ctx, policy, logger, "redis_connect", func(ctx context.Context) error {
		return rdb.Ping(ctx).Err()
	})
	if err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logger.WithField("addr", rdb.Options().Addr).Info("Successfully connected to Redis")

	return &RedisClient{Client: rdb, logger: logger}, nil
}

func (r *RedisClient) Close() {
	if r.Client != nil {
		if err := r.Client.Close(); err != nil && r.logger != nil {
			r.logger.WithError(err).Warn("Error closing Redis connection")
			return
		}
		if r.logger != nil {
			r.logger.Info("Redis connection closed")
		}
	}
}

func (r *RedisClient) HealthCheck(ctx context.Context) error {
	if r.Client == nil {
		return fmt.Errorf("redis client not initialized")
	}
	return r.Client.Ping(ctx).Err()
}
