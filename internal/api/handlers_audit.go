// handlers_audit.go - Audit trail handlers
package api

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/rcm-webdev/insight-lens/internal/audit"
	"github.com/rcm-webdev/insight-lens/internal/models"
)

const maxAuditLimit = 1000

// AuditHandlerImpl implements the AuditHandler interface
type AuditHandlerImpl struct {
	log audit.Log
}

// NewAuditHandler creates a new audit handler
func NewAuditHandler(log audit.Log) AuditHandler {
	return &AuditHandlerImpl{log: log}
}

// HandleListAudit returns audit entries, newest first
func (h *AuditHandlerImpl) HandleListAudit(c echo.Context) error {
	q := audit.Query{Limit: audit.DefaultLimit}

	switch kind := models.AuditKind(c.QueryParam("kind")); kind {
	case "":
	case models.AuditKindIntake, models.AuditKindSelection:
		q.Kind = kind
	default:
		return NewValidationError("kind", nil)
	}

	if raw := c.QueryParam("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit <= 0 {
			return NewValidationError("limit", err)
		}
		q.Limit = min(limit, maxAuditLimit)
	}

	entries, err := h.log.List(c.Request().Context(), q)
	if err != nil {
		return NewInternalError("failed to list audit entries", err)
	}
	return c.JSON(http.StatusOK, entries)
}
