package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/irfndi/timeseries-dashboard/internal/database"
	"github.com/irfndi/timeseries-dashboard/internal/logging"
	"github.com/irfndi/timeseries-dashboard/internal/middleware"
	"github.com/irfndi/timeseries-dashboard/internal/services"
)

const historyLimit = 20

// HistoryHandler lists a session's previous runs and restores one of them.
type HistoryHandler struct {
	history *services.HistoryService
	logger  logging.Logger
}

type historyRow struct {
	CreatedAt    string
	Symbols      string
	IsStationary bool
	ARIMASummary string
	GARCHSummary string
	RestoreURL   string
}

type historyPage struct {
	Enabled bool
	Runs    []historyRow
}

func NewHistoryHandler(history *services.HistoryService, logger logging.Logger) *HistoryHandler {
	return &HistoryHandler{history: history, logger: logger}
}

func (h *HistoryHandler) List(c *gin.Context) {
	page := historyPage{Enabled: h.history.Enabled()}
	if !page.Enabled {
		c.HTML(http.StatusOK, pageHistory, page)
		return
	}

	runs, err := h.history.List(c.Request.Context(), middleware.SessionID(c), historyLimit)
	if err != nil {
		abortJSON(c, http.StatusInternalServerError, "failed to load run history", err)
		return
	}
	for _, run := range runs {
		page.Runs = append(page.Runs, historyRow{
			CreatedAt:    run.CreatedAt.UTC().Format("2006-01-02 15:04:05 MST"),
			Symbols:      strings.Join(run.Symbols, ", "),
			IsStationary: run.IsStationary,
			ARIMASummary: run.ARIMASummary,
			GARCHSummary: run.GARCHSummary,
			RestoreURL:   "/results/history/" + run.ID.String() + "/restore",
		})
	}
	c.HTML(http.StatusOK, pageHistory, page)
}

// Restore makes a previous run current and shows it.
func (h *HistoryHandler) Restore(c *gin.Context) {
	if !h.history.Enabled() {
		abortJSON(c, http.StatusNotFound, "run history is not configured", nil)
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		abortJSON(c, http.StatusBadRequest, "invalid run id", nil)
		return
	}

	sid := middleware.SessionID(c)
	if err := h.history.Restore(c.Request.Context(), sid, id); err != nil {
		if errors.Is(err, database.ErrRunNotFound) {
			abortJSON(c, http.StatusNotFound, err.Error(), nil)
			return
		}
		abortJSON(c, http.StatusInternalServerError, "failed to restore run", err)
		return
	}
	h.logger.WithSession(sid).Info("Restored analysis run", "run_id", id.String())
	c.Redirect(http.StatusSeeOther, "/results/")
}
