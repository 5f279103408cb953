package middleware

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/irfndi/timeseries-dashboard/internal/telemetry"
)

// Package middleware provides HTTP middleware components for sessions,
// telemetry, request logging and other cross-cutting concerns.

// healthPaths are served by HealthCheckTelemetryMiddleware instead of otelgin.
var healthPaths = map[string]bool{"/health": true, "/ready": true, "/live": true}

// TracingMiddleware starts the server span for every request outside the health checks.
func TracingMiddleware(serviceName string) gin.HandlerFunc {
	return otelgin.Middleware(serviceName, otelgin.WithFilter(func(r *http.Request) bool {
		return !healthPaths[r.URL.Path]
	}))
}

// TelemetryMiddleware annotates the request span with dashboard details
// once the handler has run.
func TelemetryMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if healthPaths[c.Request.URL.Path] {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()

		span := trace.SpanFromContext(c.Request.Context())
		if !span.IsRecording() {
			return
		}

		statusCode := c.Writer.Status()
		span.SetAttributes(
			attribute.Int64("http.response.time_ms", time.Since(start).Milliseconds()),
			attribute.Int64("http.response.size_bytes", int64(c.Writer.Size())),
		)
		if sessionID := SessionID(c); sessionID != "" {
			span.SetAttributes(attribute.String("dashboard.session_id", sessionID))
		}
		if tab := c.Query("tab"); tab != "" {
			span.SetAttributes(attribute.String("dashboard.tab", tab))
		}
		if contentType := c.Writer.Header().Get("Content-Type"); contentType != "" {
			span.SetAttributes(attribute.String("http.response.header.content_type", contentType))
		}
		if statusCode >= 500 {
			span.SetStatus(codes.Error, fmt.Sprintf("HTTP %d", statusCode))
		}
	}
}

// RecordError records an error on the current span
func RecordError(c *gin.Context, err error, description string) {
	span := trace.SpanFromContext(c.Request.Context())
	if span.IsRecording() {
		span.RecordError(err)
		span.SetStatus(codes.Error, description)
	}
}

// AddSpanAttribute adds an attribute to the current span
func AddSpanAttribute(c *gin.Context, key string, value interface{}) {
	span := trace.SpanFromContext(c.Request.Context())
	if span.IsRecording() {
		switch v := value.(type) {
		case string:
			span.SetAttributes(attribute.String(key, v))
		case int:
			span.SetAttributes(attribute.Int(key, v))
		case int64:
			span.SetAttributes(attribute.Int64(key, v))
		case float64:
			span.SetAttributes(attribute.Float64(key, v))
		case bool:
			span.SetAttributes(attribute.Bool(key, v))
		case []string:
			span.SetAttributes(attribute.StringSlice(key, v))
		default:
			span.SetAttributes(attribute.String(key, fmt.Sprintf("%v", value)))
		}
	}
}

// StartSpan starts an internal child span on tracer and threads it into the request.
func StartSpan(c *gin.Context, tracer trace.Tracer, name string) (context.Context, trace.Span) {
	ctx, span := tracer.Start(c.Request.Context(), name, trace.WithSpanKind(trace.SpanKindInternal))
	c.Request = c.Request.WithContext(ctx)
	return ctx, span
}

// HealthCheckTelemetryMiddleware adds telemetry specifically for health check endpoints
func HealthCheckTelemetryMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		tracer := telemetry.GetHTTPTracer()

		ctx, span := tracer.Start(
			c.Request.Context(),
			fmt.Sprintf("Health %s", c.Request.URL.Path),
			trace.WithSpanKind(trace.SpanKindServer),
		)
		defer span.End()

		span.SetAttributes(
			attribute.String("http.method", c.Request.Method),
			attribute.String("http.url", c.Request.URL.String()),
			attribute.String("http.host", c.Request.Host),
			attribute.String("span.type", "health_check"),
		)

		c.Request = c.Request.WithContext(ctx)
		start := time.Now()

		c.Next()

		statusCode := c.Writer.Status()
		span.SetAttributes(
			attribute.Int("http.status_code", statusCode),
			attribute.Int64("http.response.time_ms", time.Since(start).Milliseconds()),
			attribute.String("health.status", getHealthStatusFromCode(statusCode)),
		)

		if statusCode >= 400 {
			span.SetStatus(codes.Error, fmt.Sprintf("Health check failed: HTTP %d", statusCode))
			span.RecordError(fmt.Errorf("health check endpoint returned %d", statusCode))
		} else {
			span.SetStatus(codes.Ok, fmt.Sprintf("Health check passed: HTTP %d", statusCode))
		}
	}
}

// getHealthStatusFromCode returns a human-readable status based on HTTP code
func getHealthStatusFromCode(code int) string {
	switch {
	case code >= 200 && code < 300:
		return "healthy"
	case code >= 400 && code < 500:
		return "client_error"
	case code >= 500:
		return "server_error"
	default:
		return "unknown"
	}
}
