// handlers_policy.go - Upload policy handlers
package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rcm-webdev/insight-lens/internal/intake"
	"github.com/rcm-webdev/insight-lens/internal/models"
	"github.com/rcm-webdev/insight-lens/internal/upload"
)

// PolicyHandlerImpl implements the PolicyHandler interface
type PolicyHandlerImpl struct {
	policy *upload.PolicyStore
}

// NewPolicyHandler creates a new policy handler
func NewPolicyHandler(policy *upload.PolicyStore) PolicyHandler {
	return &PolicyHandlerImpl{policy: policy}
}

// HandleGetUploadPolicy returns the active admission policy
func (h *PolicyHandlerImpl) HandleGetUploadPolicy(c echo.Context) error {
	return c.JSON(http.StatusOK, h.policy.Get())
}

// HandleUpdateUploadPolicy replaces the admission policy
func (h *PolicyHandlerImpl) HandleUpdateUploadPolicy(c echo.Context) error {
	var req models.UploadConfig
	if err := c.Bind(&req); err != nil {
		return NewBadRequestError("invalid JSON body", err)
	}

	cfg, err := h.policy.Update(req)
	if err != nil {
		return NewValidationError("uploadPolicy", err)
	}
	return c.JSON(http.StatusOK, cfg)
}

// HandleValidateUpload checks file metadata against the policy without queueing
func (h *PolicyHandlerImpl) HandleValidateUpload(c echo.Context) error {
	var req validateUploadRequest
	if err := c.Bind(&req); err != nil {
		return NewBadRequestError("invalid JSON body", err)
	}
	if err := req.validate(); err != nil {
		return err
	}

	return c.JSON(http.StatusOK, intake.Validate(req.Metadata, req.QueueLength, h.policy.Get()))
}

// Request/Response types

type validateUploadRequest struct {
	Metadata    models.FileMetadata `json:"metadata"`
	QueueLength int                 `json:"queueLength"`
}

func (r *validateUploadRequest) validate() error {
	if r.Metadata.Name == "" {
		return NewValidationError("metadata.name", nil)
	}
	if r.Metadata.Size < 0 {
		return NewValidationError("metadata.size", nil)
	}
	if r.QueueLength < 0 {
		return NewValidationError("queueLength", nil)
	}
	return nil
}
