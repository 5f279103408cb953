package database

import (
	"context"
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/irfndi/timeseries-dashboard/internal/config"
)

func miniredisConfig(t *testing.T) (*miniredis.Miniredis, config.RedisConfig) {
	t.Helper()
	mr := miniredis.RunT(t)
	port, err := strconv.Atoi(mr.Port())
	require.NoError(t, err)
	return mr, config.RedisConfig{Enabled: true, Host: mr.Host(), Port: port}
}

func TestNewRedisConnection(t *testing.T) {
	mr, cfg := miniredisConfig(t)
	logger, hook := test.NewNullLogger()

	client, err := NewRedisConnection(cfg, logger, RetryPolicy{})
	require.NoError(t, err)
	defer client.Close()

	assert.NoError(t, client.HealthCheck(context.Background()))
	assert.Equal(t, "Successfully connected to Redis", hook.LastEntry().Message)

	// The Sentry hook leaves command results untouched, including misses.
	require.NoError(t, client.Client.Set(context.Background(), "k", "v", 0).Err())
	got, err := mr.Get("k")
	require.NoError(t, err)
	assert.Equal(t, "v", got)
	_, err = client.Client.Get(context.Background(), "missing").Result()
	assert.ErrorIs(t, err, redis.Nil)
}

func TestNewRedisConnection_Unreachable(t *testing.T) {
	logger, _ := test.NewNullLogger()
	_, err := NewRedisConnection(config.RedisConfig{Host: "127.0.0.1", Port: 1}, logger, RetryPolicy{})
	assert.ErrorContains(t, err, "failed to connect to Redis")
}

func TestNewRedisConnection_RetriesBeforeGivingUp(t *testing.T) {
	logger, hook := test.NewNullLogger()
	policy := RetryPolicy{MaxRetries: 2, InitialDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond, BackoffFactor: 2}

	_, err := NewRedisConnection(config.RedisConfig{Host: "127.0.0.1", Port: 1}, logger, policy)
	require.Error(t, err)

	warnings := 0
	for _, entry := range hook.AllEntries() {
		if entry.Level == logrus.WarnLevel {
			warnings++
		}
	}
	assert.Equal(t, 2, warnings)
}

func TestRedisClient_HealthCheckWithoutClient(t *testing.T) {
	assert.Error(t, (&RedisClient{}).HealthCheck(context.Background()))
}

func TestExecuteWithRetry(t *testing.T) {
	policy := RetryPolicy{MaxRetries: 3, InitialDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond, BackoffFactor: 2}
	logger, hook := test.NewNullLogger()

	t.Run("recovers", func(t *testing.T) {
		hook.Reset()
		calls := 0
		err := ExecuteWithRetry(context.Background(), policy, logger, "op", func(context.Context) error {
			calls++
			if calls < 3 {
				return errors.New("not yet")
			}
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, 3, calls)
		assert.Equal(t, logrus.InfoLevel, hook.LastEntry().Level)
	})

	t.Run("gives up with the last error", func(t *testing.T) {
		calls := 0
		err := ExecuteWithRetry(context.Background(), policy, logger, "op", func(context.Context) error {
			calls++
			return errors.New("still down")
		})
		assert.EqualError(t, err, "still down")
		assert.Equal(t, 4, calls)
	})

	t.Run("zero policy tries once", func(t *testing.T) {
		calls := 0
		err := ExecuteWithRetry(context.Background(), RetryPolicy{}, logger, "op", func(context.Context) error {
			calls++
			return errors.New("down")
		})
		assert.Error(t, err)
		assert.Equal(t, 1, calls)
	})

	t.Run("stops on cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		err := ExecuteWithRetry(ctx, policy, logger, "op", func(context.Context) error {
			t.Fatal("operation must not run")
			return nil
		})
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestDefaultRetryPolicy(t *testing.T) {
	p := DefaultRetryPolicy()
	assert.Equal(t, 3, p.MaxRetries)
	assert.True(t, p.JitterEnabled)
	assert.Greater(t, p.MaxDelay, p.InitialDelay)
}
