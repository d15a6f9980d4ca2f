// handlers_health.go - Health check and navigation handlers
package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rcm-webdev/insight-lens/internal/router"
)

// HealthHandlerImpl implements the HealthHandler interface
type HealthHandlerImpl struct {
	version string
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(version string) HealthHandler {
	return &HealthHandlerImpl{
		version: version,
	}
}

// HandleHealth returns server health status
func (h *HealthHandlerImpl) HandleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":  "ok",
		"version": h.version,
	})
}

// HandleGetRoutes returns the dashboard route table
func (h *HealthHandlerImpl) HandleGetRoutes(c echo.Context) error {
	return c.JSON(http.StatusOK, router.Routes())
}
