package upload

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rcm-webdev/insight-lens/internal/intake"
	"github.com/rcm-webdev/insight-lens/internal/models"
)

var (
	ErrQueueNotFound   = errors.New("upload queue not found")
	ErrFileNotFound    = errors.New("file not in queue")
	ErrContentMismatch = errors.New("content length does not match metadata")
)

// Store defines the interface needed from storage layer.
type Store interface {
	Save(name, contentType string, r io.Reader) (*models.FileInfo, error)
	Delete(id string) error
}

// Observer is told about every admission decision.
type Observer interface {
	ObserveAdmission(queueID string, meta models.FileMetadata, violations []intake.Violation)
}

// Options tune the manager.
type Options struct {
	// RemoveOnSuccess drops files from their queue once stored.
	RemoveOnSuccess bool
	// PreviewURL builds UploadFile.Preview from a storage id.
	PreviewURL func(fileID string) string
	Observers  []Observer
}

// QueueSnapshot is a point-in-time copy of a queue.
type QueueSnapshot struct {
	ID        string              `json:"id"`
	Files     []models.UploadFile `json:"files"`
	Version   uint64              `json:"version"`
	CreatedAt time.Time           `json:"createdAt"`
	UpdatedAt time.Time           `json:"updatedAt"`
}

type queue struct {
	id        string
	files     []*models.UploadFile
	version   uint64
	inFlight  int
	createdAt time.Time
	updatedAt time.Time
}

func (q *queue) find(fileID string) (int, *models.UploadFile) {
	for i, f := range q.files {
		if f.ID == fileID {
			return i, f
		}
	}
	return -1, nil
}

// occupied counts files holding a queue slot. Successful files stay
// visible until dismissed but no longer take up capacity.
func (q *queue) occupied() int {
	n := 0
	for _, f := range q.files {
		if f.Status != models.UploadStatusSuccess {
			n++
		}
	}
	return n
}

func (q *queue) touch() {
	q.version++
	q.updatedAt = time.Now()
}

// Manager owns the upload queues and stores admitted files asynchronously.
type Manager struct {
	mu     sync.RWMutex
	queues map[string]*queue
	store  Store
	policy *PolicyStore
	opts   Options
	wg     sync.WaitGroup
}

// NewManager creates a new upload queue manager.
func NewManager(store Store, policy *PolicyStore, opts Options) *Manager {
	return &Manager{
		queues: make(map[string]*queue),
		store:  store,
		policy: policy,
		opts:   opts,
	}
}

// Policy returns the policy store used for admission.
func (m *Manager) Policy() *PolicyStore {
	return m.policy
}

// CreateQueue starts an empty queue.
func (m *Manager) CreateQueue() QueueSnapshot {
	now := time.Now()
	q := &queue{id: uuid.New().String(), createdAt: now, updatedAt: now}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.queues[q.id] = q

	return snapshotLocked(q)
}

// Queue returns a snapshot of the queue.
func (m *Manager) Queue(id string) (QueueSnapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	q, ok := m.queues[id]
	if !ok {
		return QueueSnapshot{}, fmt.Errorf("%w: %s", ErrQueueNotFound, id)
	}
	return snapshotLocked(q), nil
}

// DeleteQueue drops a queue. Files still being stored are cleaned up when
// their upload finishes.
func (m *Manager) DeleteQueue(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.queues[id]; !ok {
		return fmt.Errorf("%w: %s", ErrQueueNotFound, id)
	}
	delete(m.queues, id)
	return nil
}

// QueuedFiles returns the number of files holding a queue slot across all
// queues.
func (m *Manager) QueuedFiles() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	total := 0
	for _, q := range m.queues {
		total += q.occupied()
	}
	return total
}

// Admit validates a file against the current policy and, if it passes,
// enqueues it and starts storing content in the background. A rejected file
// returns a nil UploadFile and the failing ValidationResult.
func (m *Manager) Admit(queueID string, meta models.FileMetadata, content []byte) (*models.UploadFile, models.ValidationResult, error) {
	cfg := m.policy.Get()

	m.mu.Lock()
	q, ok := m.queues[queueID]
	if !ok {
		m.mu.Unlock()
		return nil, models.ValidationResult{}, fmt.Errorf("%w: %s", ErrQueueNotFound, queueID)
	}

	violations := intake.Check(meta, q.occupied(), cfg)
	result := intake.Result(violations)
	if !result.IsValid {
		m.mu.Unlock()
		m.notify(queueID, meta, violations)
		return nil, result, nil
	}

	if int64(len(content)) != meta.Size {
		m.mu.Unlock()
		return nil, result, fmt.Errorf("%w: got %d bytes, expected %d", ErrContentMismatch, len(content), meta.Size)
	}

	file := &models.UploadFile{
		ID:       uuid.New().String(),
		Status:   models.UploadStatusPending,
		Progress: 0,
		Metadata: meta,
	}
	q.files = append(q.files, file)
	q.inFlight++
	q.touch()
	out := *file
	m.mu.Unlock()

	m.notify(queueID, meta, nil)

	m.wg.Add(1)
	go m.process(queueID, file.ID, meta, content)

	return &out, result, nil
}

// Dismiss removes a file from a queue.
func (m *Manager) Dismiss(queueID, fileID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	q, ok := m.queues[queueID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrQueueNotFound, queueID)
	}
	i, _ := q.find(fileID)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrFileNotFound, fileID)
	}

	q.files = append(q.files[:i], q.files[i+1:]...)
	q.touch()
	return nil
}

// Wait blocks until all background uploads have finished.
func (m *Manager) Wait() {
	m.wg.Wait()
}

// CleanupQueues removes idle queues not updated within maxAge.
func (m *Manager) CleanupQueues(maxAge time.Duration) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	cutoff := time.Now().Add(-maxAge)
	removed := 0
	for id, q := range m.queues {
		if q.inFlight == 0 && q.updatedAt.Before(cutoff) {
			delete(m.queues, id)
			removed++
		}
	}
	return removed
}

func (m *Manager) notify(queueID string, meta models.FileMetadata, violations []intake.Violation) {
	for _, o := range m.opts.Observers {
		o.ObserveAdmission(queueID, meta, violations)
	}
}

// process stores an admitted file and reports progress on its queue entry.
func (m *Manager) process(queueID, fileID string, meta models.FileMetadata, content []byte) {
	defer m.wg.Done()

	m.update(queueID, fileID, func(f *models.UploadFile) {
		f.Status = models.UploadStatusUploading
	})

	pr := &progressReader{
		r:     bytes.NewReader(content),
		total: int64(len(content)),
		report: func(pct float64) {
			m.update(queueID, fileID, func(f *models.UploadFile) { f.Progress = pct })
		},
	}

	info, err := m.store.Save(meta.Name, meta.Type, pr)

	m.mu.Lock()
	defer m.mu.Unlock()

	q, ok := m.queues[queueID]
	if ok {
		q.inFlight--
	}
	var file *models.UploadFile
	var idx int
	if ok {
		idx, file = q.find(fileID)
	}

	if err != nil {
		slog.Error("upload failed", "queue", queueID, "file", meta.Name, "err", err)
		if file != nil {
			file.Status = models.UploadStatusError
			file.Error = err.Error()
			q.touch()
		}
		return
	}

	if file == nil {
		// dismissed while uploading
		if delErr := m.store.Delete(info.ID); delErr != nil {
			slog.Warn("failed to remove orphaned upload", "id", info.ID, "err", delErr)
		}
		return
	}

	slog.Info("upload stored", "queue", queueID, "file", meta.Name, "id", info.ID, "size", info.Size)

	file.FileID = info.ID
	if m.opts.PreviewURL != nil {
		file.Preview = m.opts.PreviewURL(info.ID)
	}
	file.Status = models.UploadStatusSuccess
	file.Progress = 100
	if m.opts.RemoveOnSuccess {
		q.files = append(q.files[:idx], q.files[idx+1:]...)
	}
	q.touch()
}

// update applies fn to a queued file if it still exists.
func (m *Manager) update(queueID, fileID string, fn func(*models.UploadFile)) {
	m.mu.Lock()
	defer m.mu.Unlock()

	q, ok := m.queues[queueID]
	if !ok {
		return
	}
	if _, f := q.find(fileID); f != nil {
		fn(f)
		q.touch()
	}
}

func snapshotLocked(q *queue) QueueSnapshot {
	files := make([]models.UploadFile, 0, len(q.files))
	for _, f := range q.files {
		files = append(files, *f)
	}
	return QueueSnapshot{
		ID:        q.id,
		Files:     files,
		Version:   q.version,
		CreatedAt: q.createdAt,
		UpdatedAt: q.updatedAt,
	}
}

// progressReader reports read progress, capped at 99 until the store is done.
type progressReader struct {
	r       io.Reader
	total   int64
	read    int64
	lastPct float64
	report  func(float64)
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	p.read += int64(n)
	if p.total > 0 && n > 0 {
		pct := float64(p.read) / float64(p.total) * 100
		if pct > 99 {
			pct = 99
		}
		// report in 5% steps
		if pct-p.lastPct >= 5 || (pct == 99 && p.lastPct != 99) {
			p.lastPct = pct
			p.report(pct)
		}
	}
	return n, err
}
