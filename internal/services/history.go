package services

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"

	"github.com/google/uuid"
	"github.com/irfndi/timeseries-dashboard/internal/models"
	"github.com/irfndi/timeseries-dashboard/internal/session"
	"github.com/irfndi/timeseries-dashboard/internal/utils"
)

// RunStore persists analysis runs. *database.RunRepository implements it.
type RunStore interface {
	Create(ctx context.Context, run *models.AnalysisRun) error
	ListBySession(ctx context.Context, sessionID string, limit int) ([]models.AnalysisRun, error)
	GetForSession(ctx context.Context, id uuid.UUID, sessionID string) (*models.AnalysisRun, error)
}

// HistoryService records completed runs and restores them into a session.
// With no RunStore configured every call is a no-op.
type HistoryService struct {
	runs       RunStore
	store      session.Store
	normalizer *Normalizer
	logger     *slog.Logger
}

func NewHistoryService(runs RunStore, store session.Store, normalizer *Normalizer, logger *slog.Logger) *HistoryService {
	if logger == nil {
		logger = slog.Default()
	}
	return &HistoryService{runs: runs, store: store, normalizer: normalizer, logger: logger}
}

// Enabled reports whether runs are persisted.
func (h *HistoryService) Enabled() bool {
	return h != nil && h.runs != nil
}

// Record saves a backend payload for the session.
func (h *HistoryService) Record(ctx context.Context, sid string, payload []byte) (*models.AnalysisRun, error) {
	if !h.Enabled() {
		return nil, nil
	}
	raw, err := models.ParseRawResponse(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to parse run payload: %w", err)
	}

	run := h.Summarize(raw)
	run.SessionID = sid
	run.RawResponse = payload
	if err := h.runs.Create(ctx, run); err != nil {
		return nil, err
	}
	h.logger.Info("Recorded analysis run", "run_id", run.ID.String(), "symbols", len(run.Symbols))
	return run, nil
}

func (h *HistoryService) List(ctx context.Context, sid string, limit int) ([]models.AnalysisRun, error) {
	if !h.Enabled() {
		return nil, nil
	}
	return h.runs.ListBySession(ctx, sid, limit)
}

// Restore makes a stored run the session's current results.
func (h *HistoryService) Restore(ctx context.Context, sid string, id uuid.UUID) error {
	if !h.Enabled() {
		return fmt.Errorf("run history is not configured")
	}
	run, err := h.runs.GetForSession(ctx, id, sid)
	if err != nil {
		return err
	}
	return session.SaveRawResponse(ctx, h.store, sid, run.RawResponse)
}

// Summarize derives the list columns of a run from its payload.
func (h *HistoryService) Summarize(raw *models.RawResponse) *models.AnalysisRun {
	pr := h.normalizer.Normalize(raw)
	run := &models.AnalysisRun{Symbols: []string{}}

	if pr.Overview != nil && pr.Overview.ExecutiveSummary != nil && pr.Overview.ExecutiveSummary.SymbolsList != "" {
		run.Symbols = strings.Split(pr.Overview.ExecutiveSummary.SymbolsList, ", ")
	}

	if pr.StatisticalTests != nil && len(pr.StatisticalTests.Stationarity) > 0 {
		run.IsStationary = true
		for _, res := range pr.StatisticalTests.Stationarity {
			if !res.IsStationary {
				run.IsStationary = false
				break
			}
		}
	}

	if pr.Models != nil {
		run.ARIMASummary = summarizeARIMA(pr.Models.ARIMA)
		if n := len(pr.Models.GARCH); n > 0 {
			run.GARCHSummary = fmt.Sprintf("%d models fitted", n)
		}
	}
	return run
}

// summarizeARIMA reports the model count and the symbol with the lowest AIC.
func summarizeARIMA(arima map[string]map[string]any) string {
	if len(arima) == 0 {
		return ""
	}
	best, bestAIC := "", math.Inf(1)
	for _, symbol := range models.SortedKeys(arima) {
		aic, ok := arimaStat(arima[symbol], "aic")
		if ok && aic < bestAIC {
			best, bestAIC = symbol, aic
		}
	}
	if best == "" {
		return fmt.Sprintf("%d models fitted", len(arima))
	}
	return fmt.Sprintf("%d models fitted, best AIC %s (%s)", len(arima), best, utils.ToFixed(bestAIC, 2))
}

// arimaStat reads a fit statistic from summary_stats, then summary.
func arimaStat(result map[string]any, name string) (float64, bool) {
	for _, section := range []string{"summary_stats", "summary"} {
		if v, ok := models.Lookup(result, section, name); ok {
			if f, ok := models.AsFloat(v); ok {
				return f, true
			}
		}
	}
	return 0, false
}
