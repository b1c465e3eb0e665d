package health

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/insight-tracker/server-go/internal/config"
)

type fakeChecker bool

func (f fakeChecker) HealthCheck(ctx context.Context) bool { return bool(f) }

func newTestHandler(mongoUp, graphUp, kvUp bool) *Handler {
	cfg := &config.Config{Environment: "local"}
	return NewHandler(fakeChecker(mongoUp), fakeChecker(graphUp), fakeChecker(kvUp), cfg)
}

func invoke(t *testing.T, h echo.HandlerFunc) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	require.NoError(t, h(e.NewContext(req, rec)))
	return rec
}

func TestHealthAllStoresUp(t *testing.T) {
	rec := invoke(t, newTestHandler(true, true, true).Health)

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "healthy", resp.Status)
	assert.Len(t, resp.Checks, 3)
	for store, check := range resp.Checks {
		assert.Equal(t, "healthy", check.Status, store)
	}
}

func TestHealthDegradesWhenStoreDown(t *testing.T) {
	rec := invoke(t, newTestHandler(true, false, true).Health)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var resp HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "unhealthy", resp.Status)
	assert.Equal(t, "unhealthy", resp.Checks["neo4j"].Status)
	assert.Equal(t, "healthy", resp.Checks["mongodb"].Status)
	assert.Equal(t, "healthy", resp.Checks["redis"].Status)
}

func TestReady(t *testing.T) {
	t.Run("all stores up", func(t *testing.T) {
		rec := invoke(t, newTestHandler(true, true, true).Ready)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "ready")
	})

	t.Run("store down", func(t *testing.T) {
		rec := invoke(t, newTestHandler(true, true, false).Ready)
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
		assert.Contains(t, rec.Body.String(), "not_ready")
	})
}

func TestHealthz(t *testing.T) {
	// Liveness must not depend on the stores.
	rec := invoke(t, newTestHandler(false, false, false).Healthz)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())
}

func TestDebugHiddenInProduction(t *testing.T) {
	cfg := &config.Config{Environment: "production"}
	h := NewHandler(fakeChecker(true), fakeChecker(true), fakeChecker(true), cfg)

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/debug", nil)
	rec := httptest.NewRecorder()

	err := h.Debug(e.NewContext(req, rec))
	require.Error(t, err)

	var httpErr *echo.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusNotFound, httpErr.Code)
}
