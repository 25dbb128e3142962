package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/example/rebarflow/internal/ctxutil"
	"github.com/example/rebarflow/internal/ports/secondary"
)

// AuditWriter implements secondary.AuditLog with SQLite. The table has a
// UNIQUE(entity_id, event_type) constraint and writes ignore conflicts on
// exactly that key, so retried operations never double-log.
type AuditWriter struct {
	db *sql.DB
}

// NewAuditWriter creates a new SQLite audit writer.
func NewAuditWriter(db *sql.DB) *AuditWriter {
	return &AuditWriter{db: db}
}

// Event records an audit event, pulling the actor from context. The next
// AUD- id is computed and inserted in a single statement so concurrent
// writers (parallel dispatch workers) cannot read the same sequence
// number; the conflict clause covers only the dedupe key, so an id
// collision would surface as an error instead of dropping an event.
func (w *AuditWriter) Event(ctx context.Context, entityType, entityID, eventType, detail string) error {
	var actor sql.NullString
	if a := ctxutil.ActorFromContext(ctx); a != "" {
		actor = sql.NullString{String: a, Valid: true}
	}

	var detailCol sql.NullString
	if detail != "" {
		detailCol = sql.NullString{String: detail, Valid: true}
	}

	_, err := w.db.ExecContext(ctx, `
		INSERT INTO audit_events (id, entity_type, entity_id, event_type, actor, detail)
		SELECT 'AUD-' || printf('%03d', COALESCE(MAX(CAST(SUBSTR(id, 5) AS INTEGER)), 0) + 1), ?, ?, ?, ?, ?
		FROM audit_events WHERE true
		ON CONFLICT(entity_id, event_type) DO NOTHING`,
		entityType, entityID, eventType, actor, detailCol,
	)
	if err != nil {
		return fmt.Errorf("failed to record audit event: %w", err)
	}

	return nil
}

// ListByEntity retrieves the events of one entity in record order.
func (w *AuditWriter) ListByEntity(ctx context.Context, entityID string) ([]*secondary.AuditEventRecord, error) {
	rows, err := w.db.QueryContext(ctx,
		"SELECT id, entity_type, entity_id, event_type, actor, detail, created_at FROM audit_events WHERE entity_id = ? ORDER BY id ASC",
		entityID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list audit events: %w", err)
	}
	defer rows.Close()

	var events []*secondary.AuditEventRecord
	for rows.Next() {
		var (
			actor     sql.NullString
			detail    sql.NullString
			createdAt time.Time
		)
		record := &secondary.AuditEventRecord{}
		if err := rows.Scan(&record.ID, &record.EntityType, &record.EntityID, &record.EventType, &actor, &detail, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan audit event: %w", err)
		}
		record.Actor = actor.String
		record.Detail = detail.String
		record.CreatedAt = createdAt.Format(time.RFC3339)
		events = append(events, record)
	}

	return events, nil
}

// Ensure AuditWriter implements the interface
var _ secondary.AuditLog = (*AuditWriter)(nil)
