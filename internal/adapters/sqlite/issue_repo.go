package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/example/rebarflow/internal/ports/secondary"
)

// IssueRepository implements secondary.IssueRepository with SQLite.
// Issues are a derived snapshot: every write path replaces the session's
// previous set wholesale.
type IssueRepository struct {
	db *sql.DB
}

// NewIssueRepository creates a new SQLite issue repository.
func NewIssueRepository(db *sql.DB) *IssueRepository {
	return &IssueRepository{db: db}
}

// ReplaceForSession deletes the session's issues and inserts the given
// set atomically.
func (r *IssueRepository) ReplaceForSession(ctx context.Context, sessionID string, issues []*secondary.IssueRecord) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin issue replace: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM validation_issues WHERE session_id = ?", sessionID); err != nil {
		return fmt.Errorf("failed to clear session issues: %w", err)
	}

	var maxID int
	if err := tx.QueryRowContext(ctx,
		"SELECT COALESCE(MAX(CAST(SUBSTR(id, 5) AS INTEGER)), 0) FROM validation_issues",
	).Scan(&maxID); err != nil {
		return fmt.Errorf("failed to get next issue ID: %w", err)
	}

	for i, issue := range issues {
		issue.ID = fmt.Sprintf("ISS-%03d", maxID+i+1)
		issue.SessionID = sessionID

		var rowID sql.NullString
		if issue.RowID != "" {
			rowID = sql.NullString{String: issue.RowID, Valid: true}
		}

		if _, err := tx.ExecContext(ctx,
			"INSERT INTO validation_issues (id, session_id, row_id, field, severity, message) VALUES (?, ?, ?, ?, ?, ?)",
			issue.ID, sessionID, rowID, issue.Field, issue.Severity, issue.Message,
		); err != nil {
			return fmt.Errorf("failed to insert issue %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit issue replace: %w", err)
	}

	return nil
}

// ListBySession retrieves all issues of a session.
func (r *IssueRepository) ListBySession(ctx context.Context, sessionID string) ([]*secondary.IssueRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT id, session_id, row_id, field, severity, message, created_at FROM validation_issues WHERE session_id = ? ORDER BY id ASC",
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list issues: %w", err)
	}
	defer rows.Close()

	var issues []*secondary.IssueRecord
	for rows.Next() {
		var (
			rowID     sql.NullString
			createdAt time.Time
		)
		record := &secondary.IssueRecord{}
		if err := rows.Scan(&record.ID, &record.SessionID, &rowID, &record.Field, &record.Severity, &record.Message, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan issue: %w", err)
		}
		record.RowID = rowID.String
		record.CreatedAt = createdAt.Format(time.RFC3339)
		issues = append(issues, record)
	}

	return issues, nil
}

// CountBlockers returns the number of blocker-severity issues.
func (r *IssueRepository) CountBlockers(ctx context.Context, sessionID string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM validation_issues WHERE session_id = ? AND severity = 'blocker'",
		sessionID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count blockers: %w", err)
	}
	return count, nil
}

// Ensure IssueRepository implements the interface
var _ secondary.IssueRepository = (*IssueRepository)(nil)
