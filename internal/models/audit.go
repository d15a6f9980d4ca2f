package models

import "time"

// AuditKind classifies audit entries.
type AuditKind string

const (
	AuditKindIntake    AuditKind = "intake"
	AuditKindSelection AuditKind = "selection"
)

// AuditEntry is a single record in the audit trail.
type AuditEntry struct {
	ID         string    `json:"id"`
	Kind       AuditKind `json:"kind"`
	Subject    string    `json:"subject"` // file name or model id
	Outcome    string    `json:"outcome"` // "accepted", "rejected", "selected"
	Detail     string    `json:"detail,omitempty"`
	RecordedAt time.Time `json:"recordedAt"`
}
