package audit

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/rcm-webdev/insight-lens/internal/intake"
	"github.com/rcm-webdev/insight-lens/internal/models"
)

const recordTimeout = 2 * time.Second

// IntakeRecorder writes admission decisions to a Log. It satisfies
// upload.Observer.
type IntakeRecorder struct {
	log Log
}

// NewIntakeRecorder wraps l.
func NewIntakeRecorder(l Log) *IntakeRecorder {
	return &IntakeRecorder{log: l}
}

// ObserveAdmission records one decision. Failures are logged, not returned.
func (r *IntakeRecorder) ObserveAdmission(queueID string, meta models.FileMetadata, violations []intake.Violation) {
	entry := models.AuditEntry{
		Kind:    models.AuditKindIntake,
		Subject: meta.Name,
		Outcome: "accepted",
		Detail:  "queue " + queueID,
	}
	if len(violations) > 0 {
		codes := make([]string, 0, len(violations))
		for _, v := range violations {
			codes = append(codes, string(v.Code))
		}
		entry.Outcome = "rejected"
		entry.Detail = strings.Join(codes, ",")
	}

	ctx, cancel := context.WithTimeout(context.Background(), recordTimeout)
	defer cancel()
	if _, err := r.log.Record(ctx, entry); err != nil {
		slog.Error("failed to record intake decision", "file", meta.Name, "err", err)
	}
}

// RecordSelection audits a model selection.
func RecordSelection(ctx context.Context, l Log, sel *models.ModelSelection) error {
	_, err := l.Record(ctx, models.AuditEntry{
		Kind:       models.AuditKindSelection,
		Subject:    sel.ModelID,
		Outcome:    "selected",
		Detail:     sel.Model.Version,
		RecordedAt: sel.SelectedAt,
	})
	return err
}
