package sync

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/insight-tracker/server-go/pkg/apperror"
)

// Handler exposes the engine's maintenance operations. These endpoints exist
// for operators; the regular write path triggers syncs itself.
type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// SyncResponse reports the outcome of one triggered sync.
type SyncResponse struct {
	InsightID string  `json:"insight_id"`
	Intent    Intent  `json:"intent"`
	Outcome   Outcome `json:"outcome"`
}

// RepairResponse reports the repair a per-entity check performed.
type RepairResponse struct {
	InsightID string       `json:"insight_id"`
	Action    RepairAction `json:"action"`
}

// Reconcile handles POST /api/admin/reconcile
// Runs one full sweep and returns its repair counts.
func (h *Handler) Reconcile(c echo.Context) error {
	result, err := h.svc.RunFullReconciliation(c.Request().Context())
	if err != nil {
		if errors.Is(err, ErrReconcileRunning) {
			return apperror.ErrConflict.WithMessage("a reconciliation sweep is already running")
		}
		return err
	}
	return c.JSON(http.StatusOK, result)
}

// SyncInsight handles POST /api/admin/insights/:id/sync?intent=create|update|delete
// Replays one entity sync with the given intent.
func (h *Handler) SyncInsight(c echo.Context) error {
	id := c.Param("id")
	if id == "" {
		return apperror.ErrBadRequest.WithMessage("insight id is required")
	}
	intent, err := ParseIntent(c.QueryParam("intent"))
	if err != nil {
		return apperror.NewBadRequest(err.Error())
	}

	outcome, err := h.svc.SyncInsight(c.Request().Context(), id, intent)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, SyncResponse{
		InsightID: id,
		Intent:    intent,
		Outcome:   outcome,
	})
}

// RepairInsight handles POST /api/admin/insights/:id/repair
// Checks one entity across both stores and repairs whichever side diverged.
func (h *Handler) RepairInsight(c echo.Context) error {
	id := c.Param("id")
	if id == "" {
		return apperror.ErrBadRequest.WithMessage("insight id is required")
	}

	action, err := h.svc.CheckInsight(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, RepairResponse{
		InsightID: id,
		Action:    action,
	})
}
