// Package sqlite contains SQLite implementations of repository interfaces.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/example/rebarflow/internal/core/session"
	"github.com/example/rebarflow/internal/ports/secondary"
)

// SessionRepository implements secondary.SessionRepository with SQLite.
type SessionRepository struct {
	db *sql.DB
}

// NewSessionRepository creates a new SQLite session repository.
func NewSessionRepository(db *sql.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

const sessionSelectCols = "id, tenant_id, name, customer, site_address, manifest_type, target_eta, status, barlist_id, created_at, updated_at"

// scanSession scans a session row into a SessionRecord.
func scanSession(scanner interface {
	Scan(dest ...any) error
}) (*secondary.SessionRecord, error) {
	var (
		customer    sql.NullString
		siteAddress sql.NullString
		targetETA   sql.NullString
		barlistID   sql.NullString
		createdAt   time.Time
		updatedAt   time.Time
	)

	record := &secondary.SessionRecord{}
	err := scanner.Scan(
		&record.ID, &record.TenantID, &record.Name, &customer, &siteAddress,
		&record.ManifestType, &targetETA, &record.Status, &barlistID,
		&createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}

	record.Customer = customer.String
	record.SiteAddress = siteAddress.String
	record.TargetETA = targetETA.String
	record.BarlistID = barlistID.String
	record.CreatedAt = createdAt.Format(time.RFC3339)
	record.UpdatedAt = updatedAt.Format(time.RFC3339)

	return record, nil
}

// Create persists a new session.
func (r *SessionRepository) Create(ctx context.Context, s *secondary.SessionRecord) error {
	var customer, siteAddress, targetETA sql.NullString
	if s.Customer != "" {
		customer = sql.NullString{String: s.Customer, Valid: true}
	}
	if s.SiteAddress != "" {
		siteAddress = sql.NullString{String: s.SiteAddress, Valid: true}
	}
	if s.TargetETA != "" {
		targetETA = sql.NullString{String: s.TargetETA, Valid: true}
	}

	manifestType := s.ManifestType
	if manifestType == "" {
		manifestType = "delivery"
	}

	_, err := r.db.ExecContext(ctx,
		"INSERT INTO extraction_sessions (id, tenant_id, name, customer, site_address, manifest_type, target_eta, status) VALUES (?, ?, ?, ?, ?, ?, ?, ?)",
		s.ID, s.TenantID, s.Name, customer, siteAddress, manifestType, targetETA, session.StatusUploaded,
	)
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}

	return nil
}

// GetByID retrieves a session by its ID.
func (r *SessionRepository) GetByID(ctx context.Context, id string) (*secondary.SessionRecord, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+sessionSelectCols+" FROM extraction_sessions WHERE id = ?",
		id,
	)

	record, err := scanSession(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("session %s: %w", id, session.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	return record, nil
}

// List retrieves sessions matching the given filters.
func (r *SessionRepository) List(ctx context.Context, filters secondary.SessionFilters) ([]*secondary.SessionRecord, error) {
	query := "SELECT " + sessionSelectCols + " FROM extraction_sessions WHERE 1=1"
	args := []any{}

	if filters.TenantID != "" {
		query += " AND tenant_id = ?"
		args = append(args, filters.TenantID)
	}

	if filters.Status != "" {
		query += " AND status = ?"
		args = append(args, filters.Status)
	}

	query += " ORDER BY created_at ASC"

	if filters.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filters.Limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer rows.Close()

	var sessions []*secondary.SessionRecord
	for rows.Next() {
		record, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		sessions = append(sessions, record)
	}

	return sessions, nil
}

// UpdateStatus sets the session status unconditionally.
func (r *SessionRepository) UpdateStatus(ctx context.Context, id, status string) error {
	result, err := r.db.ExecContext(ctx,
		"UPDATE extraction_sessions SET status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?",
		status, id,
	)
	if err != nil {
		return fmt.Errorf("failed to update session status: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return fmt.Errorf("session %s: %w", id, session.ErrNotFound)
	}

	return nil
}

// UpdateStatusIf sets the status only when the current status matches from.
func (r *SessionRepository) UpdateStatusIf(ctx context.Context, id, from, to string) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		"UPDATE extraction_sessions SET status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ? AND status = ?",
		to, id, from,
	)
	if err != nil {
		return false, fmt.Errorf("failed to update session status: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	return rowsAffected > 0, nil
}

// GetNextID returns the next available session ID.
func (r *SessionRepository) GetNextID(ctx context.Context) (string, error) {
	var maxID int
	err := r.db.QueryRowContext(ctx,
		"SELECT COALESCE(MAX(CAST(SUBSTR(id, 5) AS INTEGER)), 0) FROM extraction_sessions",
	).Scan(&maxID)
	if err != nil {
		return "", fmt.Errorf("failed to get next session ID: %w", err)
	}

	return fmt.Sprintf("SES-%03d", maxID+1), nil
}

// Ensure SessionRepository implements the interface
var _ secondary.SessionRepository = (*SessionRepository)(nil)
