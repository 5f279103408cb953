package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/irfndi/timeseries-dashboard/internal/models"
	"github.com/irfndi/timeseries-dashboard/internal/pipeline"
	"github.com/irfndi/timeseries-dashboard/internal/utils"
)

// PipelineRunner submits analysis runs. *pipeline.Client implements it.
type PipelineRunner interface {
	Run(ctx context.Context, req *models.PipelineRequest) ([]byte, error)
	RunRaw(ctx context.Context, body []byte) ([]byte, error)
}

// errorStatus maps a submission failure to the status returned to the caller
// and the message shown to them. Backend failures keep the backend's status
// and body.
func errorStatus(err error) (int, string) {
	var backendErr *pipeline.Error
	switch {
	case errors.As(err, &backendErr):
		return backendErr.Status, backendErr.Body
	case errors.Is(err, pipeline.ErrRateLimited):
		return http.StatusTooManyRequests, err.Error()
	case errors.Is(err, pipeline.ErrCircuitOpen):
		return http.StatusServiceUnavailable, err.Error()
	case utils.IsValidationError(err):
		return http.StatusBadRequest, err.Error()
	default:
		return http.StatusInternalServerError, err.Error()
	}
}

// abortJSON writes the standard error body and records err on the context.
func abortJSON(c *gin.Context, status int, message string, err error) {
	if err != nil {
		_ = c.Error(err)
	}
	c.AbortWithStatusJSON(status, gin.H{"error": message})
}
