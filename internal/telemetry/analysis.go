package telemetry

import (
	"context"
	"time"

	"github.com/getsentry/sentry-go"
)

// AnalysisTracer records dashboard activity as Sentry spans so slow
// pipeline runs and render passes show up next to captured errors.
type AnalysisTracer struct{}

func NewAnalysisTracer() *AnalysisTracer {
	return &AnalysisTracer{}
}

// TracePipelineRun starts a span around one backend pipeline call.
func (at *AnalysisTracer) TracePipelineRun(ctx context.Context, symbols []string, source string) (context.Context, *sentry.Span) {
	span := sentry.StartSpan(ctx, "pipeline.run")
	span.SetTag("source", source)
	span.SetData("symbols", symbols)
	return span.Context(), span
}

// RecordPipelineOutcome closes out a pipeline span.
func (at *AnalysisTracer) RecordPipelineOutcome(span *sentry.Span, outcome PipelineOutcome) {
	span.SetData("status_code", outcome.StatusCode)
	span.SetData("response_bytes", outcome.ResponseBytes)
	span.SetData("duration_ms", outcome.Duration.Milliseconds())
	setSpanResult(span, outcome.Err)
}

// TraceRenderPass starts a span around one full results render.
func (at *AnalysisTracer) TraceRenderPass(ctx context.Context, layout string) (context.Context, *sentry.Span) {
	span := sentry.StartSpan(ctx, "results.render")
	span.SetTag("layout", layout)
	return span.Context(), span
}

// RecordRenderOutcome closes out a render span.
func (at *AnalysisTracer) RecordRenderOutcome(span *sentry.Span, outcome RenderOutcome) {
	span.SetData("sections", outcome.Sections)
	span.SetData("filled_containers", outcome.FilledContainers)
	span.SetData("duration_ms", outcome.Duration.Milliseconds())
	setSpanResult(span, outcome.Err)
}

// TraceExport starts a span around a CSV or JSON download.
func (at *AnalysisTracer) TraceExport(ctx context.Context, format string, dataset string) (context.Context, *sentry.Span) {
	span := sentry.StartSpan(ctx, "results.export")
	span.SetTag("format", format)
	if dataset != "" {
		span.SetTag("dataset", dataset)
	}
	return span.Context(), span
}

// RecordExportResult closes out an export span.
func (at *AnalysisTracer) RecordExportResult(span *sentry.Span, rows int, err error) {
	span.SetData("rows", rows)
	setSpanResult(span, err)
}

func setSpanResult(span *sentry.Span, err error) {
	if err != nil {
		span.SetTag("error", err.Error())
		span.Status = sentry.SpanStatusInternalError
		return
	}
	span.Status = sentry.SpanStatusOK
}

// PipelineOutcome is what a pipeline span records on completion.
type PipelineOutcome struct {
	StatusCode    int
	ResponseBytes int
	Duration      time.Duration
	Err           error
}

// RenderOutcome is what a render span records on completion.
type RenderOutcome struct {
	Sections         int
	FilledContainers int
	Duration         time.Duration
	Err              error
}
