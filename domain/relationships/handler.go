package relationships

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/insight-tracker/server-go/pkg/apperror"
)

// Handler exposes the relationship API.
type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// Create handles POST /api/relationships
func (h *Handler) Create(c echo.Context) error {
	var req CreateRelationshipRequest
	if err := c.Bind(&req); err != nil {
		return apperror.ErrBadRequest.WithMessage("invalid request body")
	}

	rel, err := h.svc.Create(c.Request().Context(), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, rel)
}

// Get handles GET /api/relationships/:id
func (h *Handler) Get(c echo.Context) error {
	id := c.Param("id")
	if id == "" {
		return apperror.ErrBadRequest.WithMessage("relationship id is required")
	}

	rel, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, rel)
}

// Delete handles DELETE /api/relationships/:id
func (h *Handler) Delete(c echo.Context) error {
	id := c.Param("id")
	if id == "" {
		return apperror.ErrBadRequest.WithMessage("relationship id is required")
	}

	if err := h.svc.Delete(c.Request().Context(), id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// ListForInsight handles GET /api/relationships/insight/:id
func (h *Handler) ListForInsight(c echo.Context) error {
	id := c.Param("id")
	if id == "" {
		return apperror.ErrBadRequest.WithMessage("insight id is required")
	}

	resp, err := h.svc.ListForInsight(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, resp)
}

// Mindmap handles GET /api/relationships/mindmap/:id?depth=
func (h *Handler) Mindmap(c echo.Context) error {
	id := c.Param("id")
	if id == "" {
		return apperror.ErrBadRequest.WithMessage("insight id is required")
	}

	depth := defaultMindmapDepth
	if raw := c.QueryParam("depth"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil {
			return apperror.ErrBadRequest.WithMessage("depth must be an integer")
		}
		depth = v
	}

	mindmap, err := h.svc.Mindmap(c.Request().Context(), id, depth)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, mindmap)
}
