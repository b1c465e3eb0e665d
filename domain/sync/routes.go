package sync

import (
	"github.com/labstack/echo/v4"
)

// RegisterRoutes registers the engine's maintenance routes
func RegisterRoutes(e *echo.Echo, h *Handler) {
	g := e.Group("/api/admin")

	// Run one full reconciliation sweep
	g.POST("/reconcile", h.Reconcile)

	// Replay an entity sync with an explicit intent
	g.POST("/insights/:id/sync", h.SyncInsight)

	// Check and repair a single entity
	g.POST("/insights/:id/repair", h.RepairInsight)
}
