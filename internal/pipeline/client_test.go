package pipeline

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/irfndi/timeseries-dashboard/internal/config"
	"github.com/irfndi/timeseries-dashboard/internal/models"
)

func newTestClient(t *testing.T, handler http.HandlerFunc, cfg config.PipelineConfig) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	cfg.BaseURL = server.URL + "/"
	return NewClient(&cfg, nil)
}

func TestClient_RunPostsToRunPipeline(t *testing.T) {
	var got models.PipelineRequest
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v1/run_pipeline", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = io.WriteString(w, `{"symbols":["AAPL"]}`)
	}, config.PipelineConfig{})

	body, err := client.Run(context.Background(), &models.PipelineRequest{Symbols: []string{"AAPL"}, ScalingMethod: "standardize"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"symbols":["AAPL"]}`, string(body))
	assert.Equal(t, []string{"AAPL"}, got.Symbols)
	assert.Equal(t, "standardize", got.ScalingMethod)
}

func TestClient_BackendErrorKeepsStatusAndBody(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = io.WriteString(w, `{"detail":"bad symbols"}`)
	}, config.PipelineConfig{})

	_, err := client.RunRaw(context.Background(), []byte(`{}`))
	require.Error(t, err)

	var perr *Error
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, http.StatusUnprocessableEntity, perr.Status)
	assert.Equal(t, `{"detail":"bad symbols"}`, perr.Body)
}

func TestClient_RateLimited(t *testing.T) {
	calls := 0
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		_, _ = io.WriteString(w, `{}`)
	}, config.PipelineConfig{RateLimit: 0.001, Burst: 1})

	_, err := client.RunRaw(context.Background(), []byte(`{}`))
	require.NoError(t, err)
	_, err = client.RunRaw(context.Background(), []byte(`{}`))
	assert.ErrorIs(t, err, ErrRateLimited)
	assert.Equal(t, 1, calls)
}

func TestClient_Unreachable(t *testing.T) {
	cfg := config.PipelineConfig{BaseURL: "http://127.0.0.1:1", Timeout: 1}
	client := NewClient(&cfg, nil)
	_, err := client.RunRaw(context.Background(), []byte(`{}`))
	assert.ErrorContains(t, err, "failed to reach pipeline backend")
}

func TestNewClient_Defaults(t *testing.T) {
	client := NewClient(&config.PipelineConfig{BaseURL: "http://backend:8001/"}, nil)
	assert.Equal(t, "http://backend:8001", client.BaseURL())
	assert.Equal(t, float64(160), client.HTTPClient.Timeout.Seconds())
}

func TestClient_HealthCheck(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/", r.URL.Path)
		_, _ = io.WriteString(w, "ok")
	}, config.PipelineConfig{})
	assert.NoError(t, client.HealthCheck(context.Background()))

	failing := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}, config.PipelineConfig{})
	err := failing.HealthCheck(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}

func TestClient_RunIsTracedAndPropagated(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	prevTP, prevProp := otel.GetTracerProvider(), otel.GetTextMapPropagator()
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.TraceContext{})
	t.Cleanup(func() {
		otel.SetTracerProvider(prevTP)
		otel.SetTextMapPropagator(prevProp)
		_ = tp.Shutdown(context.Background())
	})

	var traceparent string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		traceparent = r.Header.Get("Traceparent")
		w.WriteHeader(http.StatusBadGateway)
	}, config.PipelineConfig{})

	_, err := client.RunRaw(context.Background(), []byte(`{}`))
	require.Error(t, err)

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "pipeline.run", spans[0].Name())
	assert.Contains(t, traceparent, spans[0].SpanContext().TraceID().String())
}
