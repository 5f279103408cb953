package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/irfndi/timeseries-dashboard/internal/logging"
	"github.com/irfndi/timeseries-dashboard/internal/middleware"
	"github.com/irfndi/timeseries-dashboard/internal/pipeline"
	"github.com/irfndi/timeseries-dashboard/internal/services"
	"github.com/irfndi/timeseries-dashboard/internal/session"
	"github.com/irfndi/timeseries-dashboard/internal/telemetry"
	"github.com/irfndi/timeseries-dashboard/internal/utils"
)

// AnalysisHandler serves the configuration form and forwards submissions
// to the pipeline backend.
type AnalysisHandler struct {
	runner    PipelineRunner
	store     session.Store
	iteration *services.IterationService
	history   *services.HistoryService
	tracer    *telemetry.AnalysisTracer
	logger    logging.Logger
}

type analysisPage struct {
	Prefill      *services.FormPrefill
	ChangeEvents []string
	Error        string
}

// proxyEnvelope is the part of a JSON submission used for logging and tracing.
type proxyEnvelope struct {
	Symbols []string `json:"symbols"`
	Source  string   `json:"source_actual_or_synthetic_data"`
}

func NewAnalysisHandler(
	runner PipelineRunner,
	store session.Store,
	iteration *services.IterationService,
	history *services.HistoryService,
	logger logging.Logger,
) *AnalysisHandler {
	return &AnalysisHandler{
		runner:    runner,
		store:     store,
		iteration: iteration,
		history:   history,
		tracer:    telemetry.NewAnalysisTracer(),
		logger:    logger,
	}
}

// Form renders the analysis form, pre-filled from a pending iteration.
func (h *AnalysisHandler) Form(c *gin.Context) {
	sid := middleware.SessionID(c)

	prefill, err := h.iteration.Consume(c.Request.Context(), sid)
	if err != nil {
		h.logger.WithSession(sid).Warn("Failed to read iteration config", "error", err.Error())
	}

	page := analysisPage{Prefill: prefill}
	if prefill != nil {
		page.ChangeEvents = prefill.ChangeEvents
	}
	c.HTML(http.StatusOK, pageAnalysis, page)
}

// Run handles the form-encoded submission and redirects to the results page.
func (h *AnalysisHandler) Run(c *gin.Context) {
	if err := c.Request.ParseForm(); err != nil {
		c.HTML(http.StatusBadRequest, pageAnalysis, analysisPage{Error: "Could not read the submitted form."})
		return
	}

	req, err := pipeline.ParseForm(c.Request.PostForm)
	if err != nil {
		c.HTML(http.StatusBadRequest, pageAnalysis, analysisPage{Error: err.Error()})
		return
	}

	_, err = h.submit(c, req.Symbols, req.SourceType, func(ctx context.Context) ([]byte, error) {
		return h.runner.Run(ctx, req)
	})
	if err != nil {
		status, message := errorStatus(err)
		_ = c.Error(err)
		c.HTML(status, pageAnalysis, analysisPage{Error: message})
		return
	}

	c.Redirect(http.StatusSeeOther, "/results/")
}

// Proxy forwards a JSON submission unchanged and echoes the backend response.
func (h *AnalysisHandler) Proxy(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		abortJSON(c, http.StatusBadRequest, "failed to read request body", err)
		return
	}

	var envelope proxyEnvelope
	if !json.Valid(body) || !bytes.HasPrefix(bytes.TrimSpace(body), []byte("{")) || json.Unmarshal(body, &envelope) != nil {
		err := utils.NewValidationError("request body must be a JSON object")
		status, message := errorStatus(err)
		abortJSON(c, status, message, err)
		return
	}

	payload, err := h.submit(c, envelope.Symbols, envelope.Source, func(ctx context.Context) ([]byte, error) {
		return h.runner.RunRaw(ctx, body)
	})
	if err != nil {
		status, message := errorStatus(err)
		abortJSON(c, status, message, err)
		return
	}

	c.Data(http.StatusOK, "application/json", payload)
}

// submit runs the pipeline and makes a successful response the session's
// current results. History failures are logged, not returned.
func (h *AnalysisHandler) submit(c *gin.Context, symbols []string, source string, run func(context.Context) ([]byte, error)) ([]byte, error) {
	sid := middleware.SessionID(c)
	ctx, span := h.tracer.TracePipelineRun(c.Request.Context(), symbols, source)
	defer span.Finish()

	start := time.Now()
	payload, err := run(ctx)
	duration := time.Since(start)

	status := http.StatusOK
	if err != nil {
		status, _ = errorStatus(err)
	}
	h.tracer.RecordPipelineOutcome(span, telemetry.PipelineOutcome{
		StatusCode:    status,
		ResponseBytes: len(payload),
		Duration:      duration,
		Err:           err,
	})
	h.logger.LogPipelineRun(status, duration.Milliseconds(), symbols)
	if err != nil {
		if status >= http.StatusInternalServerError {
			telemetry.CaptureException(ctx, err)
		}
		return nil, err
	}

	if err := session.SaveRawResponse(ctx, h.store, sid, payload); err != nil {
		return nil, err
	}
	if _, err := h.history.Record(ctx, sid, payload); err != nil {
		h.logger.WithSession(sid).Warn("Failed to record analysis run", "error", err.Error())
	}
	return payload, nil
}
