// handlers_catalog.go - Model catalog handlers
package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rcm-webdev/insight-lens/internal/audit"
	"github.com/rcm-webdev/insight-lens/internal/catalog"
	"github.com/rcm-webdev/insight-lens/internal/models"
	"github.com/vmihailenco/msgpack/v5"
)

// MIMEApplicationMsgpack is the negotiated binary encoding
const MIMEApplicationMsgpack = "application/msgpack"

// CatalogHandlerImpl implements the CatalogHandler interface
type CatalogHandlerImpl struct {
	catalog ModelCatalog
	audit   audit.Log
	now     func() time.Time
}

// NewCatalogHandler creates a new catalog handler
func NewCatalogHandler(cat ModelCatalog, log audit.Log) CatalogHandler {
	return &CatalogHandlerImpl{
		catalog: cat,
		audit:   log,
		now:     time.Now,
	}
}

// HandleListModels returns every model in catalog order
func (h *CatalogHandlerImpl) HandleListModels(c echo.Context) error {
	return respond(c, http.StatusOK, h.catalog.ListModels())
}

// HandleGetModel returns a single model
func (h *CatalogHandlerImpl) HandleGetModel(c echo.Context) error {
	id := c.Param("id")
	m, err := h.catalog.Get(id)
	if err != nil {
		return NewNotFoundError("model", id)
	}
	return respond(c, http.StatusOK, m)
}

// HandleListCategories returns the model categories with their members
func (h *CatalogHandlerImpl) HandleListCategories(c echo.Context) error {
	return respond(c, http.StatusOK, h.catalog.ListCategories())
}

// HandleSelectModel selects a model for analysis with optional parameters
func (h *CatalogHandlerImpl) HandleSelectModel(c echo.Context) error {
	id := c.Param("id")

	var params *models.ModelParameters
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return NewBadRequestError("failed to read request body", err)
	}
	if len(bytes.TrimSpace(body)) > 0 {
		params = &models.ModelParameters{}
		dec := json.NewDecoder(bytes.NewReader(body))
		dec.DisallowUnknownFields()
		if err := dec.Decode(params); err != nil {
			return NewBadRequestError("invalid parameters body", err)
		}
	}

	sel, err := h.catalog.Select(id, params, h.now())
	switch {
	case errors.Is(err, catalog.ErrModelNotFound):
		return NewNotFoundError("model", id)
	case errors.Is(err, catalog.ErrModelUnavailable):
		return NewConflictError("model is not available", err)
	case errors.Is(err, models.ErrInvalidParameters):
		return NewValidationError("parameters", err)
	case err != nil:
		return NewInternalError("failed to select model", err)
	}

	if err := audit.RecordSelection(c.Request().Context(), h.audit, sel); err != nil {
		slog.Error("failed to record model selection", "model", id, "err", err)
	}

	return c.JSON(http.StatusOK, sel)
}

// respond encodes v as msgpack when the client asks for it, JSON otherwise
func respond(c echo.Context, status int, v interface{}) error {
	if !strings.Contains(c.Request().Header.Get(echo.HeaderAccept), MIMEApplicationMsgpack) {
		return c.JSON(status, v)
	}

	data, err := msgpack.Marshal(v)
	if err != nil {
		return NewInternalError("failed to encode msgpack", err)
	}
	return c.Blob(status, MIMEApplicationMsgpack, data)
}
