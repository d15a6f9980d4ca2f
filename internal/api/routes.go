// routes.go - Route registration helpers
// This file provides a clean way to register all API routes
package api

import (
	"github.com/labstack/echo/v4"
	"github.com/rcm-webdev/insight-lens/internal/audit"
	"github.com/rcm-webdev/insight-lens/internal/storage"
)

// Dependencies holds all handler dependencies
type Dependencies struct {
	Store   storage.Store
	Catalog ModelCatalog
	Uploads QueueManager
	Audit   audit.Log
	Version string
}

// Handlers holds all handler instances
type Handlers struct {
	Health      HealthHandler
	Catalog     CatalogHandler
	Policy      PolicyHandler
	Queue       QueueHandler
	Audit       AuditHandler
	QueueStream QueueStreamHandler
}

// NewHandlers creates all handler instances
func NewHandlers(deps *Dependencies) *Handlers {
	return &Handlers{
		Health:      NewHealthHandler(deps.Version),
		Catalog:     NewCatalogHandler(deps.Catalog, deps.Audit),
		Policy:      NewPolicyHandler(deps.Uploads.Policy()),
		Queue:       NewQueueHandler(deps.Uploads, deps.Store),
		Audit:       NewAuditHandler(deps.Audit),
		QueueStream: NewQueueStreamHandler(deps.Uploads),
	}
}

// RegisterRoutes registers all API routes with the Echo instance
func RegisterRoutes(e *echo.Echo, handlers *Handlers) {
	apiGroup := e.Group("/api")

	// Health check and navigation
	apiGroup.GET("/health", handlers.Health.HandleHealth)
	apiGroup.GET("/routes", handlers.Health.HandleGetRoutes)

	// Model catalog
	apiGroup.GET("/models", handlers.Catalog.HandleListModels)
	apiGroup.GET("/models/:id", handlers.Catalog.HandleGetModel)
	apiGroup.POST("/models/:id/select", handlers.Catalog.HandleSelectModel)
	apiGroup.GET("/categories", handlers.Catalog.HandleListCategories)

	// Upload policy
	apiGroup.GET("/config/upload-policy", handlers.Policy.HandleGetUploadPolicy)
	apiGroup.PUT("/config/upload-policy", handlers.Policy.HandleUpdateUploadPolicy)
	apiGroup.POST("/uploads/validate", handlers.Policy.HandleValidateUpload)

	// Upload queues
	queueGroup := apiGroup.Group("/queues")
	queueGroup.POST("", handlers.Queue.HandleCreateQueue)
	queueGroup.GET("/:id", handlers.Queue.HandleGetQueue)
	queueGroup.DELETE("/:id", handlers.Queue.HandleDeleteQueue)
	queueGroup.POST("/:id/files", handlers.Queue.HandleAddFile)
	queueGroup.DELETE("/:id/files/:fileId", handlers.Queue.HandleDismissFile)
	apiGroup.GET("/files", handlers.Queue.HandleListFiles)
	apiGroup.GET("/files/:id/content", handlers.Queue.HandleGetFileContent)

	// Audit trail
	apiGroup.GET("/audit", handlers.Audit.HandleListAudit)

	// WebSocket streams
	apiGroup.GET("/ws/queues/:id", handlers.QueueStream.HandleQueueStream)
}

// PreviewURL is the content URL for a stored file id
func PreviewURL(fileID string) string {
	return "/api/files/" + fileID + "/content"
}
