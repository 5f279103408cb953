package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/irfndi/timeseries-dashboard/internal/pipeline"
	"github.com/irfndi/timeseries-dashboard/internal/session"
)

// AdminHandler exposes runtime counters for the session store and the
// pipeline circuit breaker.
type AdminHandler struct {
	store   session.StatsReporter
	breaker *pipeline.Breaker
}

// NewAdminHandler creates an admin handler. Either source may be nil when
// the running configuration does not have it.
func NewAdminHandler(store session.StatsReporter, breaker *pipeline.Breaker) *AdminHandler {
	return &AdminHandler{store: store, breaker: breaker}
}

// BreakerStatus is the state and counters of the pipeline circuit breaker.
type BreakerStatus struct {
	State string                `json:"state"`
	Stats pipeline.BreakerStats `json:"stats"`
}

// StatsResponse groups the runtime counters.
type StatsResponse struct {
	SessionStore    *session.Stats `json:"session_store,omitempty"`
	PipelineBreaker *BreakerStatus `json:"pipeline_breaker,omitempty"`
}

// GetStats returns session store traffic and circuit breaker statistics.
func (h *AdminHandler) GetStats(c *gin.Context) {
	var resp StatsResponse
	if h.store != nil {
		stats := h.store.Stats()
		resp.SessionStore = &stats
	}
	if h.breaker != nil {
		resp.PipelineBreaker = &BreakerStatus{
			State: h.breaker.State().String(),
			Stats: h.breaker.Stats(),
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    resp,
	})
}

// ResetBreaker manually closes the pipeline circuit breaker.
func (h *AdminHandler) ResetBreaker(c *gin.Context) {
	if h.breaker == nil {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error":   "circuit breaker not configured",
		})
		return
	}

	h.breaker.Reset()
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "circuit breaker reset successfully",
		"state":   h.breaker.State().String(),
	})
}
