// handlers_queue.go - Upload queue handlers
package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rcm-webdev/insight-lens/internal/storage"
	"github.com/rcm-webdev/insight-lens/internal/upload"
)

const (
	defaultFileListLimit = 100
	maxFileListLimit     = 1000
)

// QueueHandlerImpl implements the QueueHandler interface
type QueueHandlerImpl struct {
	uploads QueueManager
	store   storage.Store
}

// NewQueueHandler creates a new queue handler
func NewQueueHandler(uploads QueueManager, store storage.Store) QueueHandler {
	return &QueueHandlerImpl{
		uploads: uploads,
		store:   store,
	}
}

// HandleCreateQueue starts a new upload queue
func (h *QueueHandlerImpl) HandleCreateQueue(c echo.Context) error {
	return c.JSON(http.StatusCreated, h.uploads.CreateQueue())
}

// HandleGetQueue returns the current state of a queue
func (h *QueueHandlerImpl) HandleGetQueue(c echo.Context) error {
	id := c.Param("id")
	snap, err := h.uploads.Queue(id)
	if err != nil {
		return NewNotFoundError("queue", id)
	}
	return c.JSON(http.StatusOK, snap)
}

// HandleDeleteQueue discards a queue
func (h *QueueHandlerImpl) HandleDeleteQueue(c echo.Context) error {
	id := c.Param("id")
	if err := h.uploads.DeleteQueue(id); err != nil {
		return NewNotFoundError("queue", id)
	}
	return c.NoContent(http.StatusNoContent)
}

// HandleAddFile admits a multipart file into a queue. Rejected files get a
// 422 carrying the validation result.
func (h *QueueHandlerImpl) HandleAddFile(c echo.Context) error {
	queueID := c.Param("id")

	fh, err := c.FormFile("file")
	if err != nil {
		return NewValidationError("file", err)
	}

	lastModified := time.Now()
	if raw := c.FormValue("lastModified"); raw != "" {
		ms, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return NewValidationError("lastModified", err)
		}
		lastModified = time.UnixMilli(ms)
	}

	src, err := fh.Open()
	if err != nil {
		return NewBadRequestError("failed to open uploaded file", err)
	}
	defer src.Close()

	meta := upload.ExtractMetadata(fh.Filename, fh.Header.Get(echo.HeaderContentType), src, fh.Size, lastModified)

	// Oversized content is never read; intake rejects it on size alone.
	// The multipart temp file goes away with the request, so admitted
	// content is copied before the background store starts.
	readContent := func() ([]byte, error) {
		return io.ReadAll(io.NewSectionReader(src, 0, fh.Size))
	}
	var content []byte
	if fh.Size <= h.uploads.Policy().Get().MaxFileSize {
		if content, err = readContent(); err != nil {
			return NewBadRequestError("failed to read uploaded file", err)
		}
	}

	file, result, err := h.uploads.Admit(queueID, meta, content)
	if content == nil && fh.Size > 0 && errors.Is(err, upload.ErrContentMismatch) {
		// the policy limit was raised after the size check above
		if content, err = readContent(); err != nil {
			return NewBadRequestError("failed to read uploaded file", err)
		}
		file, result, err = h.uploads.Admit(queueID, meta, content)
	}
	switch {
	case errors.Is(err, upload.ErrQueueNotFound):
		return NewNotFoundError("queue", queueID)
	case errors.Is(err, upload.ErrContentMismatch):
		return NewBadRequestError("uploaded content is incomplete", err)
	case err != nil:
		return NewInternalError("failed to admit file", err)
	}

	if file == nil {
		return respondRejected(c, result)
	}
	return c.JSON(http.StatusCreated, file)
}

// HandleDismissFile removes a file from its queue
func (h *QueueHandlerImpl) HandleDismissFile(c echo.Context) error {
	queueID := c.Param("id")
	fileID := c.Param("fileId")

	err := h.uploads.Dismiss(queueID, fileID)
	switch {
	case errors.Is(err, upload.ErrQueueNotFound):
		return NewNotFoundError("queue", queueID)
	case errors.Is(err, upload.ErrFileNotFound):
		return NewNotFoundError("file", fileID)
	case err != nil:
		return NewInternalError("failed to dismiss file", err)
	}
	return c.NoContent(http.StatusNoContent)
}

// HandleListFiles returns stored files, newest first
func (h *QueueHandlerImpl) HandleListFiles(c echo.Context) error {
	limit := defaultFileListLimit
	if raw := c.QueryParam("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			return NewValidationError("limit", err)
		}
		limit = min(n, maxFileListLimit)
	}

	files, err := h.store.List(limit)
	if err != nil {
		return NewInternalError("failed to list stored files", err)
	}
	return c.JSON(http.StatusOK, files)
}

// HandleGetFileContent serves the stored bytes of an admitted file
func (h *QueueHandlerImpl) HandleGetFileContent(c echo.Context) error {
	id := c.Param("id")
	info, err := h.store.Get(id)
	if err != nil {
		return NewNotFoundError("file", id)
	}

	path, err := h.store.GetFilePath(id)
	if err != nil {
		return NewInternalError("failed to locate file content", err)
	}

	if info.ContentType != "" {
		c.Response().Header().Set(echo.HeaderContentType, info.ContentType)
	}
	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("inline; filename=%q", info.Name))
	return c.File(path)
}
