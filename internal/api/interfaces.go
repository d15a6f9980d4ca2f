// interfaces.go - Handler interface definitions for clean separation of concerns
package api

import (
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rcm-webdev/insight-lens/internal/models"
	"github.com/rcm-webdev/insight-lens/internal/upload"
)

// HealthHandler handles health check and navigation operations
type HealthHandler interface {
	HandleHealth(c echo.Context) error
	HandleGetRoutes(c echo.Context) error
}

// CatalogHandler handles model catalog operations
type CatalogHandler interface {
	HandleListModels(c echo.Context) error
	HandleGetModel(c echo.Context) error
	HandleListCategories(c echo.Context) error
	HandleSelectModel(c echo.Context) error
}

// PolicyHandler handles upload policy operations
type PolicyHandler interface {
	HandleGetUploadPolicy(c echo.Context) error
	HandleUpdateUploadPolicy(c echo.Context) error
	HandleValidateUpload(c echo.Context) error
}

// QueueHandler handles upload queue operations
type QueueHandler interface {
	HandleCreateQueue(c echo.Context) error
	HandleGetQueue(c echo.Context) error
	HandleDeleteQueue(c echo.Context) error
	HandleAddFile(c echo.Context) error
	HandleDismissFile(c echo.Context) error
	HandleListFiles(c echo.Context) error
	HandleGetFileContent(c echo.Context) error
}

// AuditHandler handles audit log queries
type AuditHandler interface {
	HandleListAudit(c echo.Context) error
}

// QueueStreamHandler streams queue snapshots
type QueueStreamHandler interface {
	HandleQueueStream(c echo.Context) error
}

// ModelCatalog defines the catalog operations the API needs.
// This allows mocking in tests
type ModelCatalog interface {
	ListModels() []models.AIModel
	ListCategories() []models.ModelCategory
	Get(id string) (models.AIModel, error)
	Select(id string, params *models.ModelParameters, now time.Time) (*models.ModelSelection, error)
}

// QueueManager defines the upload queue operations the API needs
type QueueManager interface {
	Policy() *upload.PolicyStore
	CreateQueue() upload.QueueSnapshot
	Queue(id string) (upload.QueueSnapshot, error)
	DeleteQueue(id string) error
	Admit(queueID string, meta models.FileMetadata, content []byte) (*models.UploadFile, models.ValidationResult, error)
	Dismiss(queueID, fileID string) error
}
