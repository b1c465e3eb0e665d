package health

import (
	"context"
	"net/http"
	"runtime"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/insight-tracker/server-go/internal/config"
	"github.com/insight-tracker/server-go/internal/version"
)

// probeTimeout bounds each store probe so one hung store cannot stall the
// endpoint.
const probeTimeout = 5 * time.Second

// Checker is the slice of a store client the probes call. All three clients
// report health as a bool; the reason for a failed probe is in their logs.
type Checker interface {
	HealthCheck(ctx context.Context) bool
}

// Handler handles health check requests
type Handler struct {
	mongo   Checker
	graph   Checker
	kv      Checker
	cfg     *config.Config
	startAt time.Time
}

// NewHandler creates a new health handler over the three store clients
func NewHandler(mongo, graphStore, kvStore Checker, cfg *config.Config) *Handler {
	return &Handler{
		mongo:   mongo,
		graph:   graphStore,
		kv:      kvStore,
		cfg:     cfg,
		startAt: time.Now(),
	}
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string           `json:"status"`
	Timestamp string           `json:"timestamp"`
	Uptime    string           `json:"uptime"`
	Version   string           `json:"version"`
	Checks    map[string]Check `json:"checks"`
}

// Check represents an individual store check result
type Check struct {
	Status string `json:"status"`
}

func (h *Handler) probe(ctx context.Context, c Checker) Check {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()
	if c.HealthCheck(ctx) {
		return Check{Status: "healthy"}
	}
	return Check{Status: "unhealthy"}
}

func (h *Handler) checkAll(ctx context.Context) (map[string]Check, bool) {
	checks := map[string]Check{
		"mongodb": h.probe(ctx, h.mongo),
		"neo4j":   h.probe(ctx, h.graph),
		"redis":   h.probe(ctx, h.kv),
	}
	healthy := true
	for _, check := range checks {
		if check.Status != "healthy" {
			healthy = false
		}
	}
	return checks, healthy
}

// Health returns the overall service health: every store is probed and any
// unhealthy store degrades the whole response to 503.
func (h *Handler) Health(c echo.Context) error {
	checks, healthy := h.checkAll(c.Request().Context())

	status := "healthy"
	statusCode := http.StatusOK
	if !healthy {
		status = "unhealthy"
		statusCode = http.StatusServiceUnavailable
	}

	return c.JSON(statusCode, HealthResponse{
		Status:    status,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Uptime:    time.Since(h.startAt).String(),
		Version:   version.Version,
		Checks:    checks,
	})
}

// Healthz returns a simple health check (for k8s liveness probe)
func (h *Handler) Healthz(c echo.Context) error {
	return c.String(http.StatusOK, "OK")
}

// Ready returns readiness status (for k8s readiness probe): ready only when
// all three stores answer their probe.
func (h *Handler) Ready(c echo.Context) error {
	checks, healthy := h.checkAll(c.Request().Context())
	if !healthy {
		return c.JSON(http.StatusServiceUnavailable, map[string]any{
			"status": "not_ready",
			"checks": checks,
		})
	}
	return c.JSON(http.StatusOK, map[string]any{
		"status": "ready",
	})
}

// Debug returns runtime information (only outside production)
func (h *Handler) Debug(c echo.Context) error {
	if h.cfg.IsProduction() {
		return echo.NewHTTPError(http.StatusNotFound, "Not found")
	}

	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	return c.JSON(http.StatusOK, map[string]any{
		"environment": h.cfg.Environment,
		"debug":       h.cfg.Debug,
		"go_version":  runtime.Version(),
		"goroutines":  runtime.NumGoroutine(),
		"uptime":      time.Since(h.startAt).String(),
		"build":       version.Info(),
		"memory": map[string]any{
			"alloc_mb":       mem.Alloc / 1024 / 1024,
			"total_alloc_mb": mem.TotalAlloc / 1024 / 1024,
			"sys_mb":         mem.Sys / 1024 / 1024,
			"num_gc":         mem.NumGC,
		},
		"stores": map[string]any{
			"mongo_db":   h.cfg.Mongo.Database,
			"neo4j_uri":  h.cfg.Neo4j.URI,
			"redis_addr": h.cfg.Redis.Addr,
		},
	})
}
