// Package pipeline talks to the analysis backend that produces results
// payloads.
package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
	"golang.org/x/time/rate"

	"github.com/irfndi/timeseries-dashboard/internal/config"
	"github.com/irfndi/timeseries-dashboard/internal/models"
	"github.com/irfndi/timeseries-dashboard/internal/telemetry"
)

const runPipelinePath = "/api/v1/run_pipeline"

// ErrRateLimited is returned when submissions arrive faster than the
// configured rate.
var ErrRateLimited = errors.New("pipeline submissions are rate limited")

// Error is a non-2xx answer from the backend. Body is passed through to the
// caller unchanged.
type Error struct {
	Status int
	Body   string
}

func (e *Error) Error() string {
	return fmt.Sprintf("pipeline backend error (%d): %s", e.Status, e.Body)
}

// Client posts pipeline runs to the backend.
type Client struct {
	HTTPClient *http.Client
	baseURL    string
	limiter    *rate.Limiter
	breaker    *Breaker
	logger     *slog.Logger
}

// NewClient creates a client from the pipeline configuration. A zero rate
// limit disables limiting.
func NewClient(cfg *config.PipelineConfig, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	limit := rate.Inf
	if cfg.RateLimit > 0 {
		limit = rate.Limit(cfg.RateLimit)
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}

	breaker := NewBreaker("pipeline", BreakerConfig{
		FailureThreshold: cfg.BreakerFailures,
		Timeout:          cfg.GetBreakerCooldown(),
	}, logger)

	return &Client{
		HTTPClient: &http.Client{Timeout: cfg.GetTimeout()},
		baseURL:    cfg.GetBaseURL(),
		limiter:    rate.NewLimiter(limit, burst),
		breaker:    breaker,
		logger:     logger,
	}
}

// Breaker exposes the circuit breaker guarding the backend.
func (c *Client) Breaker() *Breaker {
	return c.breaker
}

// BaseURL returns the backend base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// HealthCheck reports whether the backend answers on its root path. An
// open circuit is reported without a request.
func (c *Client) HealthCheck(ctx context.Context) error {
	if c.breaker.State() == Open {
		return ErrCircuitOpen
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/", nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to reach pipeline backend: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("pipeline backend returned status: %d", resp.StatusCode)
	}
	return nil
}

// Run submits a typed pipeline request and returns the raw response body.
func (c *Client) Run(ctx context.Context, req *models.PipelineRequest) ([]byte, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal pipeline request: %w", err)
	}
	return c.RunRaw(ctx, body)
}

// RunRaw forwards an already encoded JSON request body.
func (c *Client) RunRaw(ctx context.Context, body []byte) ([]byte, error) {
	if !c.limiter.Allow() {
		return nil, ErrRateLimited
	}
	if err := c.breaker.Allow(); err != nil {
		return nil, err
	}

	ctx, span := telemetry.StartSpan(ctx, telemetry.GetPipelineTracer(), "pipeline.run",
		attribute.Int("pipeline.request_bytes", len(body)),
		attribute.String("pipeline.breaker_state", c.breaker.State().String()),
	)
	defer span.End()

	respBody, err := c.post(ctx, body)
	telemetry.RecordError(span, err)
	// Rejections the backend answers with a 4xx say nothing about its health.
	var backendErr *Error
	c.breaker.Record(err == nil || (errors.As(err, &backendErr) && backendErr.Status < http.StatusInternalServerError))
	return respBody, err
}

func (c *Client) post(ctx context.Context, body []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+runPipelinePath, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "timeseries-dashboard/1.0")
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	c.logger.Info("Forwarding pipeline request to backend", "url", req.URL.String(), "bytes", len(body))

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to reach pipeline backend: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			c.logger.Warn("Error closing pipeline response body", "error", err)
		}
	}()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read pipeline response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		c.logger.Error("Pipeline execution failed", "status", resp.StatusCode, "body", string(respBody))
		return nil, &Error{Status: resp.StatusCode, Body: string(respBody)}
	}

	c.logger.Info("Pipeline executed successfully", "bytes", len(respBody))
	return respBody, nil
}
