package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/irfndi/timeseries-dashboard/internal/api"
	"github.com/irfndi/timeseries-dashboard/internal/api/handlers"
	"github.com/irfndi/timeseries-dashboard/internal/config"
	"github.com/irfndi/timeseries-dashboard/internal/database"
	"github.com/irfndi/timeseries-dashboard/internal/logging"
	"github.com/irfndi/timeseries-dashboard/internal/pipeline"
	"github.com/irfndi/timeseries-dashboard/internal/render"
	"github.com/irfndi/timeseries-dashboard/internal/services"
	"github.com/irfndi/timeseries-dashboard/internal/session"
	"github.com/irfndi/timeseries-dashboard/internal/telemetry"
)

const serviceName = "timeseries-dashboard"

// main serves as the entry point for the application.
// It delegates execution to the run function and handles exit codes based on success or failure.
func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Application failed: %v\n", err)
		os.Exit(1)
	}
}

// run orchestrates the startup sequence of the server.
// It loads configuration, initializes telemetry, storage, services, and the HTTP server.
// It also manages graceful shutdown upon receiving termination signals.
//
// Returns:
//   - An error if initialization fails at any critical step.
func run() error {
	// A missing .env file is normal outside local development.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	if err := telemetry.InitSentry(cfg.Sentry, cfg.Telemetry.ServiceVersion, cfg.Environment); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize Sentry: %v\n", err)
	}
	defer telemetry.Flush(context.Background())

	logger, otlpLogger := newLogger(cfg)
	defer func() {
		if otlpLogger != nil {
			_ = otlpLogger.Shutdown(context.Background())
		}
		_ = logger.Close()
	}()

	ctx := context.Background()
	tracing, err := telemetry.InitTracing(ctx, cfg.Telemetry, cfg.Environment)
	if err != nil {
		logger.WithError(err).Warn("Tracing disabled")
	}
	defer func() {
		_ = tracing.Shutdown(context.Background())
	}()

	checks := api.HealthChecks{
		Required: map[string]handlers.HealthChecker{},
		Optional: map[string]handlers.HealthChecker{},
	}

	store, closeStore := newSessionStore(cfg, logger, checks.Required)
	defer closeStore()

	runs, closeRuns := newRunStore(ctx, cfg, logger, checks.Required)
	defer closeRuns()

	pipelineClient := pipeline.NewClient(&cfg.Pipeline, logger.WithComponent("pipeline"))
	checks.Optional["pipeline"] = pipelineClient

	normalizer := services.NewNormalizer(logger.WithComponent("normalizer"))
	iteration := services.NewIterationService(store, logger.WithComponent("iteration"))
	history := services.NewHistoryService(runs, store, normalizer, logger.WithComponent("history"))

	layouts, err := render.LoadLayouts()
	if err != nil {
		return fmt.Errorf("failed to load dashboard layouts: %w", err)
	}

	router := newRouter(cfg)
	api.SetupRoutes(router, cfg, store, pipelineClient, normalizer, iteration, history, layouts, checks, logger)

	srv := newHTTPServer(cfg, router)

	// Start server in a goroutine
	serverErr := make(chan error, 1)
	go func() {
		logger.LogStartup(serviceName, cfg.Telemetry.ServiceVersion, cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
		logger.LogShutdown(serviceName, "signal received")
	case err := <-serverErr:
		return fmt.Errorf("server failed: %w", err)
	}

	// Give outstanding requests a deadline for completion
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	logger.Logger().Info("Server exited gracefully")
	return nil
}

// newLogger builds the service logger with the optional file and OTLP sinks.
func newLogger(cfg *config.Config) (*logging.StandardLogger, *logging.OTLPLogger) {
	logLevel := cfg.Telemetry.LogLevel
	if logLevel == "" {
		logLevel = cfg.LogLevel
	}

	opts := []logging.Option{
		logging.WithWriter(logOutput(cfg)),
		logging.WithFileSink(logging.FileSinkConfig{
			Path:       cfg.Logging.FilePath,
			MaxSizeMB:  cfg.Logging.MaxSizeMB,
			MaxBackups: cfg.Logging.MaxBackups,
			MaxAgeDays: cfg.Logging.MaxAgeDays,
			Compress:   cfg.Logging.Compress,
		}),
	}

	if !cfg.Telemetry.Enabled || cfg.Telemetry.StdoutTraces {
		return logging.NewStandardLogger(logLevel, cfg.Environment, opts...), nil
	}
	return logging.NewStandardOTLPLogger(logging.OTLPConfig{
		Enabled:        true,
		Endpoint:       cfg.Telemetry.OTLPEndpoint,
		ServiceName:    cfg.Telemetry.ServiceName,
		ServiceVersion: cfg.Telemetry.ServiceVersion,
		Environment:    cfg.Environment,
		LogLevel:       logLevel,
	}, opts...)
}

func logOutput(cfg *config.Config) io.Writer {
	if cfg.Logging.Output == "stderr" {
		return os.Stderr
	}
	return os.Stdout
}

// newSessionStore connects the Redis-backed session store, falling back to
// process memory when Redis is disabled or unreachable.
func newSessionStore(cfg *config.Config, logger *logging.StandardLogger, required map[string]handlers.HealthChecker) (session.Store, func()) {
	ttl := cfg.Session.SessionTTL()
	if !cfg.Redis.Enabled {
		logger.WithComponent("session").Warn("Redis disabled, sessions are kept in memory")
		return session.NewMemoryStore(ttl), func() {}
	}

	redisClient, err := database.NewRedisConnection(cfg.Redis, logger.Logrus(), database.DefaultRetryPolicy())
	if err != nil {
		logger.WithError(err).Error("Failed to connect to Redis - sessions are kept in memory")
		return session.NewMemoryStore(ttl), func() {}
	}

	required["session_store"] = redisClient
	return session.NewRedisStore(redisClient.Client, ttl), redisClient.Close
}

// newRunStore opens the run history database. History is disabled when the
// database is not configured; a configured but unreachable database is
// reported by the health check instead of failing startup.
func newRunStore(ctx context.Context, cfg *config.Config, logger *logging.StandardLogger, required map[string]handlers.HealthChecker) (services.RunStore, func()) {
	if !cfg.Database.Enabled {
		return nil, func() {}
	}

	db, err := database.NewPostgresConnection(cfg.Database, logger.Logrus())
	if err != nil {
		logger.WithError(err).Error("Failed to connect to database - run history disabled")
		required["database"] = handlers.HealthCheckFunc(func(context.Context) error { return err })
		return nil, func() {}
	}
	required["database"] = db

	repo := database.NewRunRepository(database.NewTracedPool(db.Pool))
	if err := repo.EnsureSchema(ctx); err != nil {
		logger.WithError(err).Error("Failed to prepare run history schema - run history disabled")
		return nil, db.Close
	}
	return repo, db.Close
}

func newRouter(cfg *config.Config) *gin.Engine {
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	if telemetry.SentryEnabled(cfg.Sentry) {
		router.Use(sentrygin.New(sentrygin.Options{
			Repanic:         true,
			WaitForDelivery: false,
			Timeout:         2 * time.Second,
		}))
	}
	router.Use(gin.Recovery())
	return router
}

// newHTTPServer applies the security timeouts. Writes must outlive the
// pipeline backend timeout since the run handlers wait on it.
func newHTTPServer(cfg *config.Config, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           handler,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      cfg.Pipeline.GetTimeout() + 30*time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}
