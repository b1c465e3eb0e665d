package insights

import (
	"github.com/labstack/echo/v4"
)

// RegisterRoutes registers the insight record routes
func RegisterRoutes(e *echo.Echo, h *Handler) {
	g := e.Group("/api/insights")

	// Create an insight
	g.POST("", h.Create)

	// List an owner's insights
	g.GET("", h.List)

	// Get a single insight
	g.GET("/:id", h.Get)

	// Update an insight
	g.PUT("/:id", h.Update)

	// Delete an insight
	g.DELETE("/:id", h.Delete)
}
