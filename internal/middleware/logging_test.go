package middleware

import (
	"bytes"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/irfndi/timeseries-dashboard/internal/logging"
)

func TestRequestLogger(t *testing.T) {
	gin.SetMode(gin.TestMode)
	var buf bytes.Buffer
	logger := logging.NewStandardLogger("info", "test", logging.WithWriter(&buf))

	router := gin.New()
	router.Use(RequestLogger(logger))
	router.GET("/results/", func(c *gin.Context) {
		assert.NotEmpty(t, c.GetString("request_id"))
		c.Status(http.StatusOK)
	})
	router.GET("/fail", func(c *gin.Context) {
		_ = c.Error(errors.New("store unavailable"))
		c.Status(http.StatusInternalServerError)
	})
	router.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })

	t.Run("generates a request id", func(t *testing.T) {
		buf.Reset()
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/results/", nil))

		assert.NotEmpty(t, w.Header().Get(RequestIDHeader))
		assert.Contains(t, buf.String(), "/results/")
	})

	t.Run("keeps the caller's request id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/results/", nil)
		req.Header.Set(RequestIDHeader, "req-123")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, "req-123", w.Header().Get(RequestIDHeader))
	})

	t.Run("logs handler errors", func(t *testing.T) {
		buf.Reset()
		req := httptest.NewRequest(http.MethodGet, "/fail", nil)
		req.Header.Set(RequestIDHeader, "req-err")
		router.ServeHTTP(httptest.NewRecorder(), req)

		require.Contains(t, buf.String(), "store unavailable")
		assert.Contains(t, buf.String(), "req-err")
	})

	t.Run("skips health checks", func(t *testing.T) {
		buf.Reset()
		router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))
		assert.Empty(t, buf.String())
	})
}
