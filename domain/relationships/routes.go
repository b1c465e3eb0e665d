package relationships

import (
	"github.com/labstack/echo/v4"
)

// RegisterRoutes registers the relationship routes
func RegisterRoutes(e *echo.Echo, h *Handler) {
	g := e.Group("/api/relationships")

	// Link two insights
	g.POST("", h.Create)

	// Get a single relationship
	g.GET("/:id", h.Get)

	// Unlink two insights
	g.DELETE("/:id", h.Delete)

	// List every relationship touching an insight
	g.GET("/insight/:id", h.ListForInsight)

	// Traversal view around an insight
	g.GET("/mindmap/:id", h.Mindmap)
}
