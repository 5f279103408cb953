package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/irfndi/timeseries-dashboard/internal/logging"
)

// RequestIDHeader carries the request id in both directions.
const RequestIDHeader = "X-Request-ID"

// RequestLogger tags each request with an id and logs it on completion.
// Health check endpoints are not logged.
func RequestLogger(logger logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Set("request_id", requestID)
		c.Header(RequestIDHeader, requestID)

		start := time.Now()
		c.Next()

		if healthPaths[c.Request.URL.Path] {
			return
		}
		logger.LogAPIRequest(c.Request.Method, c.Request.URL.Path, c.Writer.Status(),
			time.Since(start).Milliseconds(), SessionID(c))
		for _, err := range c.Errors {
			logger.WithRequestID(requestID).Error("request error", "error", err.Error())
		}
	}
}
