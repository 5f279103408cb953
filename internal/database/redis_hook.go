package database

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/redis/go-redis/v9"
)

// slowCommand is the latency above which a command leaves a breadcrumb.
const slowCommand = 100 * time.Millisecond

// RedisSentryHook implements redis.Hook for Sentry error tracking and tracing
// of session store commands.
type RedisSentryHook struct {
	serviceName string
}

func NewRedisSentryHook(serviceName string) *RedisSentryHook {
	if serviceName == "" {
		serviceName = "redis"
	}
	return &RedisSentryHook{serviceName: serviceName}
}

// DialHook is called when a new connection is established.
func (h *RedisSentryHook) DialHook(next redis.DialHook) redis.DialHook {
	return func(ctx context.Context, network, addr string) (net.Conn, error) {
		span := sentry.StartSpan(ctx, "db.redis.dial")
		span.Description = fmt.Sprintf("Redis dial %s", addr)
		span.SetTag("db.system", "redis")
		defer span.Finish()

		conn, err := next(ctx, network, addr)
		if err != nil {
			span.Status = sentry.SpanStatusInternalError
			captureRedisError(ctx, err, "dial")
		} else {
			span.Status = sentry.SpanStatusOK
		}
		return conn, err
	}
}

// ProcessHook wraps every command in a span. A missing key is not an error.
func (h *RedisSentryHook) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		span := sentry.StartSpan(ctx, "db.redis")
		span.Description = cmd.Name()
		span.SetTag("db.system", "redis")
		span.SetTag("db.operation", cmd.Name())
		span.SetTag("service", h.serviceName)

		start := time.Now()
		err := next(ctx, cmd)
		duration := time.Since(start)
		span.SetData("db.duration_ms", duration.Milliseconds())

		if err != nil && !errors.Is(err, redis.Nil) {
			span.Status = sentry.SpanStatusInternalError
			span.SetData("error.message", err.Error())
			captureRedisError(ctx, err, cmd.Name())
		} else {
			span.Status = sentry.SpanStatusOK
		}
		span.Finish()

		if duration > slowCommand {
			addRedisBreadcrumb(ctx, cmd.Name(), fmt.Sprintf("slow command: %dms", duration.Milliseconds()))
		}
		return err
	}
}

// ProcessPipelineHook passes pipelines through; the session store sends none.
func (h *RedisSentryHook) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return next
}

func captureRedisError(ctx context.Context, err error, operation string) {
	hub := sentry.GetHubFromContext(ctx)
	if hub == nil {
		hub = sentry.CurrentHub()
	}
	hub.WithScope(func(scope *sentry.Scope) {
		scope.SetTag("db.system", "redis")
		scope.SetTag("db.operation", operation)
		hub.CaptureException(err)
	})
}

func addRedisBreadcrumb(ctx context.Context, operation, message string) {
	hub := sentry.GetHubFromContext(ctx)
	if hub == nil {
		hub = sentry.CurrentHub()
	}
	hub.AddBreadcrumb(&sentry.Breadcrumb{
		Category: "redis",
		Message:  operation + ": " + message,
		Level:    sentry.LevelInfo,
	}, nil)
}
