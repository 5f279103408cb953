package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/irfndi/timeseries-dashboard/internal/api/handlers"
	"github.com/irfndi/timeseries-dashboard/internal/config"
	"github.com/irfndi/timeseries-dashboard/internal/logging"
	"github.com/irfndi/timeseries-dashboard/internal/session"
)

func testConfig() *config.Config {
	return &config.Config{
		Environment: "test",
		LogLevel:    "error",
		Server:      config.ServerConfig{Port: 8080},
		Pipeline:    config.PipelineConfig{Timeout: 120},
		Session:     config.SessionConfig{TTL: "2h"},
	}
}

func testLogger() *logging.StandardLogger {
	logger, _ := newLogger(testConfig())
	return logger
}

func TestNewHTTPServer(t *testing.T) {
	cfg := testConfig()
	srv := newHTTPServer(cfg, http.NotFoundHandler())

	assert.Equal(t, ":8080", srv.Addr)
	assert.Equal(t, 5*time.Second, srv.ReadHeaderTimeout)
	assert.Greater(t, srv.WriteTimeout, cfg.Pipeline.GetTimeout())
}

func TestNewSessionStore_RedisDisabled(t *testing.T) {
	required := map[string]handlers.HealthChecker{}

	store, closeStore := newSessionStore(testConfig(), testLogger(), required)
	defer closeStore()

	assert.IsType(t, &session.MemoryStore{}, store)
	assert.Empty(t, required)
}

func TestNewSessionStore_Redis(t *testing.T) {
	mr := miniredis.RunT(t)
	port, err := strconv.Atoi(mr.Port())
	require.NoError(t, err)

	cfg := testConfig()
	cfg.Redis = config.RedisConfig{Enabled: true, Host: mr.Host(), Port: port}
	required := map[string]handlers.HealthChecker{}

	store, closeStore := newSessionStore(cfg, testLogger(), required)
	defer closeStore()

	assert.IsType(t, &session.RedisStore{}, store)
	require.Contains(t, required, "session_store")
	assert.NoError(t, required["session_store"].HealthCheck(context.Background()))

	require.NoError(t, store.Set(context.Background(), "sid", session.KeyAnalysisResults, `{}`))
	assert.Len(t, mr.Keys(), 1)
}

func TestNewSessionStore_RedisUnreachable(t *testing.T) {
	cfg := testConfig()
	cfg.Redis = config.RedisConfig{Enabled: true, Host: "127.0.0.1", Port: 1}
	required := map[string]handlers.HealthChecker{}

	store, closeStore := newSessionStore(cfg, testLogger(), required)
	defer closeStore()

	assert.IsType(t, &session.MemoryStore{}, store)
}

func TestNewRunStore_Disabled(t *testing.T) {
	required := map[string]handlers.HealthChecker{}

	runs, closeRuns := newRunStore(context.Background(), testConfig(), testLogger(), required)
	defer closeRuns()

	assert.Nil(t, runs)
	assert.Empty(t, required)
}

func TestNewRouter_Recovers(t *testing.T) {
	router := newRouter(testConfig())
	router.GET("/panic", func(*gin.Context) { panic("boom") })

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/panic", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestLogOutput(t *testing.T) {
	cfg := testConfig()
	assert.Equal(t, os.Stdout, logOutput(cfg))

	cfg.Logging.Output = "stderr"
	assert.Equal(t, os.Stderr, logOutput(cfg))
}

func TestNewLogger_FallsBackToConfigLevel(t *testing.T) {
	cfg := testConfig()
	logger, otlp := newLogger(cfg)
	require.NotNil(t, logger)
	assert.Nil(t, otlp)
	assert.NoError(t, logger.Close())
}
