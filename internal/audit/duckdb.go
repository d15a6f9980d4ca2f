// Package audit records intake decisions and model selections.
package audit

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/marcboeker/go-duckdb"
	"github.com/rcm-webdev/insight-lens/internal/models"
)

// DefaultLimit caps List when no limit is given.
const DefaultLimit = 100

// Query filters audit entries.
type Query struct {
	Kind  models.AuditKind // empty matches all kinds
	Limit int
}

// Log is an append-only audit trail.
type Log interface {
	Record(ctx context.Context, entry models.AuditEntry) (models.AuditEntry, error)
	List(ctx context.Context, q Query) ([]models.AuditEntry, error)
	Close() error
}

// DuckLog stores audit entries in DuckDB.
type DuckLog struct {
	db *sql.DB
}

// OpenDuckLog opens (or creates) an audit database at path. An empty path
// keeps the log in memory.
func OpenDuckLog(path string, threads int) (*DuckLog, error) {
	if threads <= 0 {
		threads = 1
	}
	connector, err := duckdb.NewConnector(path, func(execer driver.ExecerContext) error {
		pragmas := []string{
			fmt.Sprintf("PRAGMA threads=%d", threads),
			"PRAGMA enable_progress_bar=false",
		}
		for _, pragma := range pragmas {
			if _, err := execer.ExecContext(context.Background(), pragma, nil); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create DuckDB connector: %w", err)
	}

	db := sql.OpenDB(connector)

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS audit_entries (
			id          VARCHAR PRIMARY KEY,
			kind        VARCHAR NOT NULL,
			subject     VARCHAR NOT NULL,
			outcome     VARCHAR NOT NULL,
			detail      VARCHAR,
			recorded_at BIGINT NOT NULL
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create audit table: %w", err)
	}

	return &DuckLog{db: db}, nil
}

// Record appends an entry. Missing ids and timestamps are filled in.
func (l *DuckLog) Record(ctx context.Context, entry models.AuditEntry) (models.AuditEntry, error) {
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	if entry.RecordedAt.IsZero() {
		entry.RecordedAt = time.Now()
	}

	_, err := l.db.ExecContext(ctx,
		`INSERT INTO audit_entries (id, kind, subject, outcome, detail, recorded_at) VALUES (?, ?, ?, ?, ?, ?)`,
		entry.ID, string(entry.Kind), entry.Subject, entry.Outcome, entry.Detail, entry.RecordedAt.UnixMicro(),
	)
	if err != nil {
		return models.AuditEntry{}, fmt.Errorf("inserting audit entry: %w", err)
	}
	return entry, nil
}

// List returns matching entries, newest first.
func (l *DuckLog) List(ctx context.Context, q Query) ([]models.AuditEntry, error) {
	limit := q.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}

	query := `SELECT id, kind, subject, outcome, COALESCE(detail, ''), recorded_at FROM audit_entries`
	args := []any{}
	if q.Kind != "" {
		query += ` WHERE kind = ?`
		args = append(args, string(q.Kind))
	}
	query += ` ORDER BY recorded_at DESC, id DESC LIMIT ?`
	args = append(args, limit)

	rows, err := l.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying audit entries: %w", err)
	}
	defer rows.Close()

	entries := make([]models.AuditEntry, 0)
	for rows.Next() {
		var (
			e        models.AuditEntry
			kind     string
			recorded int64
		)
		if err := rows.Scan(&e.ID, &kind, &e.Subject, &e.Outcome, &e.Detail, &recorded); err != nil {
			return nil, fmt.Errorf("scanning audit entry: %w", err)
		}
		e.Kind = models.AuditKind(kind)
		e.RecordedAt = time.UnixMicro(recorded)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Close releases the database.
func (l *DuckLog) Close() error {
	return l.db.Close()
}
