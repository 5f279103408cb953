package telemetry

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/irfndi/timeseries-dashboard/internal/config"
)

const (
	// Instrumentation scope names
	ServiceName     = "github.com/irfndi/timeseries-dashboard"
	httpScope       = ServiceName + "/http"
	renderScope     = ServiceName + "/render"
	pipelineScope   = ServiceName + "/pipeline"
	sessionScope    = ServiceName + "/session"
	tracesURLSuffix = "/v1/traces"
)

// GetTracer returns a named tracer from the global provider.
func GetTracer(name string) trace.Tracer {
	return otel.Tracer(name)
}

func GetHTTPTracer() trace.Tracer {
	return GetTracer(httpScope)
}

func GetRenderTracer() trace.Tracer {
	return GetTracer(renderScope)
}

func GetPipelineTracer() trace.Tracer {
	return GetTracer(pipelineScope)
}

func GetSessionTracer() trace.Tracer {
	return GetTracer(sessionScope)
}

// Provider holds the tracer provider installed by InitTracing.
type Provider struct {
	tp *sdktrace.TracerProvider
}

// Shutdown flushes pending spans. A disabled provider is a no-op.
func (p *Provider) Shutdown(ctx context.Context) error {
	if p == nil || p.tp == nil {
		return nil
	}
	return p.tp.Shutdown(ctx)
}

// InitTracing installs the global tracer provider and propagators.
// When tracing is disabled the global no-op provider stays in place.
func InitTracing(ctx context.Context, cfg config.TelemetryConfig, environment string) (*Provider, error) {
	if !cfg.Enabled {
		return &Provider{}, nil
	}

	exporter, err := newExporter(ctx, cfg)
	if err != nil {
		return nil, err
	}

	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = "timeseries-dashboard"
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(serviceName),
			semconv.ServiceVersion(cfg.ServiceVersion),
			semconv.DeploymentEnvironment(environment),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	return &Provider{tp: tp}, nil
}

func newExporter(ctx context.Context, cfg config.TelemetryConfig) (sdktrace.SpanExporter, error) {
	if cfg.StdoutTraces {
		exporter, err := stdouttrace.New(stdouttrace.WithPrettyPrint())
		if err != nil {
			return nil, fmt.Errorf("failed to create stdout exporter: %w", err)
		}
		return exporter, nil
	}

	hostport, urlPath, insecure, _, err := normalizeOTLPEndpoint(cfg.OTLPEndpoint)
	if err != nil {
		return nil, err
	}

	opts := []otlptracehttp.Option{
		otlptracehttp.WithEndpoint(hostport),
		otlptracehttp.WithURLPath(urlPath),
	}
	if insecure {
		opts = append(opts, otlptracehttp.WithInsecure())
	}

	exporter, err := otlptracehttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create OTLP exporter: %w", err)
	}
	return exporter, nil
}

// normalizeOTLPEndpoint splits a collector address into the pieces the
// exporter wants. Bare host:port values are treated as plain http.
func normalizeOTLPEndpoint(endpoint string) (hostport, urlPath string, insecure bool, resolved string, err error) {
	endpoint = strings.TrimSpace(endpoint)
	if endpoint == "" {
		return "", "", false, "", errors.New("otlp endpoint is empty")
	}
	if !strings.Contains(endpoint, "://") {
		endpoint = "http://" + endpoint
	}

	u, err := url.Parse(endpoint)
	if err != nil {
		return "", "", false, "", fmt.Errorf("invalid otlp endpoint %q: %w", endpoint, err)
	}
	if u.Host == "" {
		return "", "", false, "", fmt.Errorf("invalid otlp endpoint %q: missing host", endpoint)
	}

	switch u.Scheme {
	case "http":
		insecure = true
	case "https":
	default:
		return "", "", false, "", fmt.Errorf("unsupported otlp scheme %q", u.Scheme)
	}

	urlPath = strings.TrimRight(u.Path, "/")
	if !strings.HasSuffix(urlPath, tracesURLSuffix) {
		urlPath += tracesURLSuffix
	}

	resolved = u.Scheme + "://" + u.Host + urlPath
	return u.Host, urlPath, insecure, resolved, nil
}

// StartSpan starts a child span on tracer.
func StartSpan(ctx context.Context, tracer trace.Tracer, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

// RecordError marks span as failed. A nil error is ignored.
func RecordError(span trace.Span, err error) {
	if err == nil {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
