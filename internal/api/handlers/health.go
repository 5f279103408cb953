package handlers

import (
	"context"
	"net/http"
	"os"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
	"github.com/shirou/gopsutil/v3/process"
)

var startTime = time.Now()

// HealthChecker is anything that can report its own health.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// HealthCheckFunc adapts a function to HealthChecker.
type HealthCheckFunc func(ctx context.Context) error

func (f HealthCheckFunc) HealthCheck(ctx context.Context) error {
	return f(ctx)
}

type HealthHandler struct {
	required map[string]HealthChecker
	optional map[string]HealthChecker
	version  string
	timeout  time.Duration
}

type HealthResponse struct {
	Status    string            `json:"status"`
	Timestamp time.Time         `json:"timestamp"`
	Services  map[string]string `json:"services"`
	Version   string            `json:"version"`
	Uptime    string            `json:"uptime"`
	System    *SystemStats      `json:"system,omitempty"`
}

// SystemStats is a best-effort snapshot; fields the host cannot report stay zero.
type SystemStats struct {
	Goroutines      int     `json:"goroutines"`
	CPUPercent      float64 `json:"cpu_percent"`
	MemoryPercent   float64 `json:"memory_percent"`
	ProcessRSSBytes uint64  `json:"process_rss_bytes"`
	ProcessFDs      int32   `json:"process_num_fds"`
}

// NewHealthHandler takes the checks that gate readiness and the ones that
// only degrade health (the pipeline backend).
func NewHealthHandler(required, optional map[string]HealthChecker, version string) *HealthHandler {
	return &HealthHandler{
		required: required,
		optional: optional,
		version:  version,
		timeout:  3 * time.Second,
	}
}

// HealthCheck reports every dependency plus host statistics.
func (h *HealthHandler) HealthCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	services := make(map[string]string)
	status := "healthy"
	if !runChecks(ctx, h.required, services) {
		status = "unhealthy"
	}
	if !runChecks(ctx, h.optional, services) && status == "healthy" {
		status = "degraded"
	}

	response := HealthResponse{
		Status:    status,
		Timestamp: time.Now(),
		Services:  services,
		Version:   h.version,
		Uptime:    time.Since(startTime).String(),
		System:    collectSystemStats(ctx),
	}

	code := http.StatusOK
	if status == "unhealthy" {
		code = http.StatusServiceUnavailable
	}
	c.JSON(code, response)
}

// ReadinessCheck only looks at required dependencies.
func (h *HealthHandler) ReadinessCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	services := make(map[string]string)
	if !runChecks(ctx, h.required, services) {
		c.JSON(http.StatusServiceUnavailable, gin.H{"ready": false, "services": services})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ready": true, "services": services})
}

// LivenessCheck answers as long as the process is serving requests.
func (h *HealthHandler) LivenessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "alive",
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

func runChecks(ctx context.Context, checks map[string]HealthChecker, out map[string]string) bool {
	ok := true
	for name, check := range checks {
		if check == nil {
			continue
		}
		if err := check.HealthCheck(ctx); err != nil {
			out[name] = "unhealthy: " + err.Error()
			ok = false
			continue
		}
		out[name] = "healthy"
	}
	return ok
}

func collectSystemStats(ctx context.Context) *SystemStats {
	stats := &SystemStats{Goroutines: runtime.NumGoroutine()}

	if percents, err := cpu.PercentWithContext(ctx, 0, false); err == nil && len(percents) > 0 {
		stats.CPUPercent = percents[0]
	}
	if vm, err := mem.VirtualMemoryWithContext(ctx); err == nil {
		stats.MemoryPercent = vm.UsedPercent
	}
	if proc, err := process.NewProcessWithContext(ctx, int32(os.Getpid())); err == nil {
		if info, err := proc.MemoryInfoWithContext(ctx); err == nil {
			stats.ProcessRSSBytes = info.RSS
		}
		if fds, err := proc.NumFDsWithContext(ctx); err == nil {
			stats.ProcessFDs = fds
		}
	}
	return stats
}
