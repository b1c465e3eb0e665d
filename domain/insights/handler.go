package insights

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/insight-tracker/server-go/pkg/apperror"
)

// Handler exposes the insight record API.
type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// Create handles POST /api/insights
func (h *Handler) Create(c echo.Context) error {
	var req CreateInsightRequest
	if err := c.Bind(&req); err != nil {
		return apperror.ErrBadRequest.WithMessage("invalid request body")
	}

	ins, err := h.svc.Create(c.Request().Context(), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, ins)
}

// Get handles GET /api/insights/:id
func (h *Handler) Get(c echo.Context) error {
	id := c.Param("id")
	if id == "" {
		return apperror.ErrBadRequest.WithMessage("insight id is required")
	}

	ins, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, ins)
}

// List handles GET /api/insights?owner_id=&skip=&limit=
func (h *Handler) List(c echo.Context) error {
	ownerID := c.QueryParam("owner_id")
	if ownerID == "" {
		return apperror.ErrBadRequest.WithMessage("owner_id query parameter is required")
	}
	skip, err := intQueryParam(c, "skip", 0)
	if err != nil {
		return err
	}
	limit, err := intQueryParam(c, "limit", defaultPageSize)
	if err != nil {
		return err
	}

	resp, err := h.svc.List(c.Request().Context(), ownerID, skip, limit)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, resp)
}

// Update handles PUT /api/insights/:id
func (h *Handler) Update(c echo.Context) error {
	id := c.Param("id")
	if id == "" {
		return apperror.ErrBadRequest.WithMessage("insight id is required")
	}

	var req UpdateInsightRequest
	if err := c.Bind(&req); err != nil {
		return apperror.ErrBadRequest.WithMessage("invalid request body")
	}

	ins, err := h.svc.Update(c.Request().Context(), id, req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, ins)
}

// Delete handles DELETE /api/insights/:id
func (h *Handler) Delete(c echo.Context) error {
	id := c.Param("id")
	if id == "" {
		return apperror.ErrBadRequest.WithMessage("insight id is required")
	}

	if err := h.svc.Delete(c.Request().Context(), id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func intQueryParam(c echo.Context, name string, fallback int) (int, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperror.ErrBadRequest.WithMessage(name + " must be an integer")
	}
	return v, nil
}
