// handlers_health.go - Health check and store status handlers
package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/plc-assistant/backend/internal/store"
)

// HealthHandlerImpl implements the HealthHandler interface
type HealthHandlerImpl struct {
	version string
	store   *store.PlcDataStore
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(version string, s *store.PlcDataStore) HealthHandler {
	return &HealthHandlerImpl{
		version: version,
		store:   s,
	}
}

// HandleHealth returns server health status
func (h *HealthHandlerImpl) HandleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":  "ok",
		"version": h.version,
		"store":   h.store.Stats(),
	})
}

// HandleStoreStats returns the size of each store collection
func (h *HealthHandlerImpl) HandleStoreStats(c echo.Context) error {
	return c.JSON(http.StatusOK, h.store.Stats())
}
