package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rcm-webdev/insight-lens/internal/audit"
	"github.com/rcm-webdev/insight-lens/internal/intake"
	"github.com/rcm-webdev/insight-lens/internal/models"
	"github.com/rcm-webdev/insight-lens/internal/upload"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createQueue(t *testing.T, s *testServer) upload.QueueSnapshot {
	t.Helper()
	rec := s.do(httptest.NewRequest(http.MethodPost, "/api/queues", nil))
	require.Equal(t, http.StatusCreated, rec.Code)
	var snap upload.QueueSnapshot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snap))
	require.NotEmpty(t, snap.ID)
	return snap
}

func TestQueueHandlers_Lifecycle(t *testing.T) {
	s := newTestServer(t, intake.DefaultUploadConfig())
	q := createQueue(t, s)

	data := pngBytes(t, 32, 24)
	rec := s.do(fileRequest(t, "/api/queues/"+q.ID+"/files", "fundus.png", data))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var file models.UploadFile
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &file))
	assert.Equal(t, models.UploadStatusPending, file.Status)
	assert.Equal(t, "image/png", file.Metadata.Type)
	assert.Equal(t, int64(len(data)), file.Metadata.Size)
	assert.Equal(t, int64(1700000000000), file.Metadata.LastModified)
	require.NotNil(t, file.Metadata.Dimensions)
	assert.Equal(t, models.Dimensions{Width: 32, Height: 24}, *file.Metadata.Dimensions)

	s.uploads.Wait()

	rec = s.do(httptest.NewRequest(http.MethodGet, "/api/queues/"+q.ID, nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var snap upload.QueueSnapshot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snap))
	require.Len(t, snap.Files, 1)
	stored := snap.Files[0]
	assert.Equal(t, models.UploadStatusSuccess, stored.Status)
	assert.Equal(t, float64(100), stored.Progress)
	assert.Equal(t, PreviewURL(stored.FileID), stored.Preview)

	rec = s.do(httptest.NewRequest(http.MethodGet, stored.Preview, nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	assert.Equal(t, data, rec.Body.Bytes())

	rec = s.do(httptest.NewRequest(http.MethodDelete, "/api/queues/"+q.ID+"/files/"+stored.ID, nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = s.do(httptest.NewRequest(http.MethodDelete, "/api/queues/"+q.ID+"/files/"+stored.ID, nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(httptest.NewRequest(http.MethodDelete, "/api/queues/"+q.ID, nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = s.do(httptest.NewRequest(http.MethodGet, "/api/queues/"+q.ID, nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	entries, err := s.audit.List(context.Background(), audit.Query{Kind: models.AuditKindIntake})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "accepted", entries[0].Outcome)
	assert.Equal(t, "fundus.png", entries[0].Subject)
}

func TestQueueHandler_AddFileRejections(t *testing.T) {
	cfg := intake.DefaultUploadConfig()
	cfg.MaxFiles = 1
	cfg.MaxFileSize = 4096

	tests := []struct {
		name       string
		file       string
		data       func(t *testing.T) []byte
		prefill    int
		wantErrors []string
	}{
		{
			name:       "unsupported type",
			file:       "notes.txt",
			data:       func(*testing.T) []byte { return []byte("plain text notes") },
			wantErrors: []string{"unsupported type"},
		},
		{
			name:       "too large",
			file:       "huge.png",
			data:       func(t *testing.T) []byte { return append(pngBytes(t, 4, 4), make([]byte, 8192)...) },
			wantErrors: []string{"file too large"},
		},
		{
			name:       "queue full",
			file:       "second.png",
			data:       func(t *testing.T) []byte { return pngBytes(t, 4, 4) },
			prefill:    1,
			wantErrors: []string{"queue full"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// keep prefilled files in flight so they hold their slot
			release := make(chan struct{})
			s := newTestServerWith(t, cfg, serverOptions{release: release})
			t.Cleanup(func() { close(release) })
			q := createQueue(t, s)
			for i := 0; i < tt.prefill; i++ {
				rec := s.do(fileRequest(t, "/api/queues/"+q.ID+"/files", "first.png", pngBytes(t, 2, 2)))
				require.Equal(t, http.StatusCreated, rec.Code)
			}

			rec := s.do(fileRequest(t, "/api/queues/"+q.ID+"/files", tt.file, tt.data(t)))
			require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

			var body RejectedUpload
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, "UPLOAD_REJECTED", body.Code)
			assert.False(t, body.Result.IsValid)
			assert.Equal(t, tt.wantErrors, body.Result.Errors)

			snap, err := s.uploads.Queue(q.ID)
			require.NoError(t, err)
			assert.Len(t, snap.Files, tt.prefill, "rejected file must not be queued")
		})
	}
}

func TestQueueHandler_CompletedUploadFreesSlot(t *testing.T) {
	cfg := intake.DefaultUploadConfig()
	cfg.MaxFiles = 1
	s := newTestServer(t, cfg)
	q := createQueue(t, s)

	rec := s.do(fileRequest(t, "/api/queues/"+q.ID+"/files", "first.png", pngBytes(t, 2, 2)))
	require.Equal(t, http.StatusCreated, rec.Code)
	s.uploads.Wait()

	rec = s.do(fileRequest(t, "/api/queues/"+q.ID+"/files", "second.png", pngBytes(t, 3, 3)))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	s.uploads.Wait()

	snap, err := s.uploads.Queue(q.ID)
	require.NoError(t, err)
	require.Len(t, snap.Files, 2)
	for _, f := range snap.Files {
		assert.Equal(t, models.UploadStatusSuccess, f.Status)
	}
}

// raiseLimitOnAdmit raises the size limit between the handler's size check
// and the first admission, like a concurrent policy update would.
type raiseLimitOnAdmit struct {
	*upload.Manager
	limit int64
	once  sync.Once
}

func (r *raiseLimitOnAdmit) Admit(queueID string, meta models.FileMetadata, content []byte) (*models.UploadFile, models.ValidationResult, error) {
	r.once.Do(func() {
		cfg := r.Policy().Get()
		cfg.MaxFileSize = r.limit
		_, _ = r.Policy().Update(cfg)
	})
	return r.Manager.Admit(queueID, meta, content)
}

func TestQueueHandler_AddFileAfterLimitRaised(t *testing.T) {
	cfg := intake.DefaultUploadConfig()
	cfg.MaxFileSize = 16
	s := newTestServerWith(t, cfg, serverOptions{
		wrapUploads: func(m *upload.Manager) QueueManager {
			return &raiseLimitOnAdmit{Manager: m, limit: intake.DefaultMaxFileSize}
		},
	})
	q := createQueue(t, s)

	data := pngBytes(t, 8, 8)
	require.Greater(t, len(data), 16)

	rec := s.do(fileRequest(t, "/api/queues/"+q.ID+"/files", "scan.png", data))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	s.uploads.Wait()

	snap, err := s.uploads.Queue(q.ID)
	require.NoError(t, err)
	require.Len(t, snap.Files, 1)
	assert.Equal(t, models.UploadStatusSuccess, snap.Files[0].Status)

	rec = s.do(httptest.NewRequest(http.MethodGet, snap.Files[0].Preview, nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, data, rec.Body.Bytes())
}

func TestQueueHandler_ListFiles(t *testing.T) {
	s := newTestServer(t, intake.DefaultUploadConfig())
	q := createQueue(t, s)

	for _, name := range []string{"a.png", "b.png", "c.png"} {
		rec := s.do(fileRequest(t, "/api/queues/"+q.ID+"/files", name, pngBytes(t, 2, 2)))
		require.Equal(t, http.StatusCreated, rec.Code)
		s.uploads.Wait()
		time.Sleep(2 * time.Millisecond)
	}

	rec := s.do(httptest.NewRequest(http.MethodGet, "/api/files", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var files []models.FileInfo
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &files))
	require.Len(t, files, 3)
	assert.Equal(t, "c.png", files[0].Name)
	assert.Equal(t, "image/png", files[0].ContentType)

	rec = s.do(httptest.NewRequest(http.MethodGet, "/api/files?limit=2", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &files))
	assert.Len(t, files, 2)

	for _, bad := range []string{"0", "-3", "many"} {
		rec = s.do(httptest.NewRequest(http.MethodGet, "/api/files?limit="+bad, nil))
		assert.Equal(t, http.StatusBadRequest, rec.Code, bad)
		assert.Equal(t, "VALIDATION_ERROR", decodeAPIError(t, rec).Code)
	}
}

func TestQueueHandler_BadRequests(t *testing.T) {
	s := newTestServer(t, intake.DefaultUploadConfig())
	q := createQueue(t, s)

	t.Run("unknown queue", func(t *testing.T) {
		rec := s.do(fileRequest(t, "/api/queues/missing/files", "a.png", pngBytes(t, 2, 2)))
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("missing file part", func(t *testing.T) {
		rec := s.do(jsonRequest(http.MethodPost, "/api/queues/"+q.ID+"/files", `{}`))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "VALIDATION_ERROR", decodeAPIError(t, rec).Code)
	})

	t.Run("bad lastModified", func(t *testing.T) {
		rec := s.do(fileRequestAt(t, "/api/queues/"+q.ID+"/files", "a.png", pngBytes(t, 2, 2), "yesterday"))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "VALIDATION_ERROR", decodeAPIError(t, rec).Code)
	})

	t.Run("unknown content", func(t *testing.T) {
		rec := s.do(httptest.NewRequest(http.MethodGet, PreviewURL("nope"), nil))
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("unknown file in queue", func(t *testing.T) {
		rec := s.do(httptest.NewRequest(http.MethodDelete, "/api/queues/"+q.ID+"/files/nope", nil))
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.True(t, strings.Contains(decodeAPIError(t, rec).Message, "file not found"))
	})
}
