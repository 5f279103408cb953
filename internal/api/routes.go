package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/irfndi/timeseries-dashboard/internal/api/handlers"
	"github.com/irfndi/timeseries-dashboard/internal/config"
	"github.com/irfndi/timeseries-dashboard/internal/logging"
	"github.com/irfndi/timeseries-dashboard/internal/middleware"
	"github.com/irfndi/timeseries-dashboard/internal/pipeline"
	"github.com/irfndi/timeseries-dashboard/internal/render"
	"github.com/irfndi/timeseries-dashboard/internal/services"
	"github.com/irfndi/timeseries-dashboard/internal/session"
)

// HealthChecks groups the dependencies checked by the health endpoints.
// Required checks gate readiness; optional ones only degrade /health.
type HealthChecks struct {
	Required map[string]handlers.HealthChecker
	Optional map[string]handlers.HealthChecker
}

// SetupRoutes configures all the HTTP routes for the dashboard.
// It installs the request middleware, the health endpoints, the HTML pages
// and the JSON pipeline proxy.
//
// Parameters:
//
//	router: The Gin engine instance to register routes on.
//	cfg: Application configuration (session, render and server sections are used).
//	store: Per-session storage for results and iteration configs.
//	runner: Client for the analysis pipeline backend.
//	normalizer: Converts raw pipeline responses into processed results.
//	iteration: Captures and replays run configurations for the analysis form.
//	history: Optional run history; a nil service disables the history pages.
//	layouts: Parsed dashboard layout variants.
//	checks: Dependencies reported by /health and /ready.
//	logger: Application logger.
func SetupRoutes(
	router *gin.Engine,
	cfg *config.Config,
	store session.Store,
	runner handlers.PipelineRunner,
	normalizer *services.Normalizer,
	iteration *services.IterationService,
	history *services.HistoryService,
	layouts *render.Layouts,
	checks HealthChecks,
	logger logging.Logger,
) {
	router.SetHTMLTemplate(handlers.PageTemplates())

	router.Use(middleware.RequestLogger(logger))
	router.Use(middleware.TracingMiddleware(cfg.Telemetry.ServiceName))
	router.Use(middleware.TelemetryMiddleware())

	// Health check endpoints with telemetry, outside the session cookie
	healthHandler := handlers.NewHealthHandler(checks.Required, checks.Optional, cfg.Telemetry.ServiceVersion)
	healthGroup := router.Group("/")
	healthGroup.Use(middleware.HealthCheckTelemetryMiddleware())
	{
		healthGroup.GET("/health", healthHandler.HealthCheck)
		healthGroup.HEAD("/health", healthHandler.HealthCheck)
		healthGroup.GET("/ready", healthHandler.ReadinessCheck)
		healthGroup.GET("/live", healthHandler.LivenessCheck)
	}

	sessionMiddleware := middleware.NewSessionMiddleware(cfg.Session, logger.WithComponent("session"))
	apiKeyMiddleware := middleware.NewAPIKeyMiddleware(cfg.Server.APIKey)

	analysisHandler := handlers.NewAnalysisHandler(runner, store, iteration, history, logger)
	resultsHandler := handlers.NewResultsHandler(
		store,
		normalizer,
		iteration,
		layouts,
		cfg.Render.DefaultLayout,
		render.OptionsFromConfig(cfg.Render),
		logger,
	)
	exportHandler := handlers.NewExportHandler(store, normalizer, logger)
	historyHandler := handlers.NewHistoryHandler(history, logger)
	adminHandler := handlers.NewAdminHandler(storeStats(store), runnerBreaker(runner))

	// Operator endpoints carry no session.
	admin := router.Group("/api/admin")
	admin.Use(apiKeyMiddleware.RequireAPIKey())
	{
		admin.GET("/stats", adminHandler.GetStats)
		admin.POST("/circuit-breaker/reset", adminHandler.ResetBreaker)
	}

	pages := router.Group("/")
	pages.Use(sessionMiddleware.Handler())
	{
		pages.GET("/", func(c *gin.Context) {
			c.Redirect(http.StatusFound, "/analysis/")
		})

		analysis := pages.Group("/analysis")
		{
			analysis.GET("/", analysisHandler.Form)
			analysis.POST("/run", analysisHandler.Run)
		}

		results := pages.Group("/results")
		{
			results.GET("/", resultsHandler.Show)
			results.POST("/iterate", resultsHandler.Iterate)
			results.GET("/export/:dataset", exportHandler.DatasetCSV)
			results.GET("/api-response", exportHandler.ViewAPIResponse)
			results.GET("/api-response/download", exportHandler.DownloadAPIResponse)
			results.GET("/history", historyHandler.List)
			results.POST("/history/:id/restore", historyHandler.Restore)
		}

		// The JSON proxy shares the browser session so its response becomes
		// the current results.
		pipelineAPI := pages.Group("/api")
		pipelineAPI.Use(apiKeyMiddleware.RequireAPIKey())
		{
			pipelineAPI.POST("/run_pipeline", analysisHandler.Proxy)
		}
	}
}

func storeStats(store session.Store) session.StatsReporter {
	if r, ok := store.(session.StatsReporter); ok {
		return r
	}
	return nil
}

// runnerBreaker returns the circuit breaker of runners that have one.
func runnerBreaker(runner handlers.PipelineRunner) *pipeline.Breaker {
	if b, ok := runner.(interface{ Breaker() *pipeline.Breaker }); ok {
		return b.Breaker()
	}
	return nil
}
