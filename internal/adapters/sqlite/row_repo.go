package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/example/rebarflow/internal/core/session"
	"github.com/example/rebarflow/internal/ports/secondary"
)

// dimNames are the named dimension slots, in column order dim_a..dim_l.
var dimNames = []string{"A", "B", "C", "D", "E", "F", "G", "H", "I", "J", "K", "L"}

// RowRepository implements secondary.RowRepository with SQLite.
type RowRepository struct {
	db *sql.DB
}

// NewRowRepository creates a new SQLite row repository.
func NewRowRepository(db *sql.DB) *RowRepository {
	return &RowRepository{db: db}
}

const rowSelectCols = "id, session_id, drawing_ref, mark, quantity, bar_size_raw, grade_raw, shape_code_raw, total_length, " +
	"dim_a, dim_b, dim_c, dim_d, dim_e, dim_f, dim_g, dim_h, dim_i, dim_j, dim_k, dim_l, " +
	"bar_size_mapped, grade_mapped, shape_code_mapped, status, created_at, updated_at"

// scanRow scans an extracted row into a RowRecord.
func scanRow(scanner interface {
	Scan(dest ...any) error
}) (*secondary.RowRecord, error) {
	var (
		drawingRef   sql.NullString
		mark         sql.NullString
		quantity     sql.NullInt64
		barSizeRaw   sql.NullString
		gradeRaw     sql.NullString
		shapeCodeRaw sql.NullString
		totalLength  sql.NullFloat64
		dims         [12]sql.NullFloat64
		barSize      sql.NullString
		grade        sql.NullString
		shapeCode    sql.NullString
		createdAt    time.Time
		updatedAt    time.Time
	)

	record := &secondary.RowRecord{}
	dest := []any{
		&record.ID, &record.SessionID, &drawingRef, &mark, &quantity,
		&barSizeRaw, &gradeRaw, &shapeCodeRaw, &totalLength,
	}
	for i := range dims {
		dest = append(dest, &dims[i])
	}
	dest = append(dest, &barSize, &grade, &shapeCode, &record.Status, &createdAt, &updatedAt)

	if err := scanner.Scan(dest...); err != nil {
		return nil, err
	}

	record.DrawingRef = drawingRef.String
	record.Mark = mark.String
	record.Quantity = int(quantity.Int64)
	record.BarSizeRaw = barSizeRaw.String
	record.GradeRaw = gradeRaw.String
	record.ShapeCodeRaw = shapeCodeRaw.String
	record.TotalLength = totalLength.Float64
	record.BarSizeMapped = barSize.String
	record.GradeMapped = grade.String
	record.ShapeCodeMapped = shapeCode.String
	record.CreatedAt = createdAt.Format(time.RFC3339)
	record.UpdatedAt = updatedAt.Format(time.RFC3339)

	for i, dim := range dims {
		if dim.Valid && dim.Float64 != 0 {
			if record.Dimensions == nil {
				record.Dimensions = make(map[string]float64)
			}
			record.Dimensions[dimNames[i]] = dim.Float64
		}
	}

	return record, nil
}

// ReplaceForSession deletes existing rows for the session and inserts the
// given ones with fresh sequential IDs.
func (r *RowRepository) ReplaceForSession(ctx context.Context, sessionID string, rows []*secondary.RowRecord) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin row replace: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM extracted_rows WHERE session_id = ?", sessionID); err != nil {
		return fmt.Errorf("failed to clear session rows: %w", err)
	}

	var maxID int
	if err := tx.QueryRowContext(ctx,
		"SELECT COALESCE(MAX(CAST(SUBSTR(id, 5) AS INTEGER)), 0) FROM extracted_rows",
	).Scan(&maxID); err != nil {
		return fmt.Errorf("failed to get next row ID: %w", err)
	}

	insert := "INSERT INTO extracted_rows (id, session_id, drawing_ref, mark, quantity, bar_size_raw, grade_raw, shape_code_raw, total_length, " +
		"dim_a, dim_b, dim_c, dim_d, dim_e, dim_f, dim_g, dim_h, dim_i, dim_j, dim_k, dim_l, status) " +
		"VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)"

	for i, row := range rows {
		row.ID = fmt.Sprintf("ROW-%03d", maxID+i+1)
		row.SessionID = sessionID
		row.Status = session.RowStatusExtracted

		args := []any{
			row.ID, sessionID,
			nullString(row.DrawingRef), nullString(row.Mark), row.Quantity,
			nullString(row.BarSizeRaw), nullString(row.GradeRaw), nullString(row.ShapeCodeRaw),
			nullFloat(row.TotalLength),
		}
		for _, name := range dimNames {
			args = append(args, nullFloat(row.Dimensions[name]))
		}
		args = append(args, session.RowStatusExtracted)

		if _, err := tx.ExecContext(ctx, insert, args...); err != nil {
			return fmt.Errorf("failed to insert row %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit row replace: %w", err)
	}

	return nil
}

// ListBySession retrieves all rows of a session in insertion order.
func (r *RowRepository) ListBySession(ctx context.Context, sessionID string) ([]*secondary.RowRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+rowSelectCols+" FROM extracted_rows WHERE session_id = ? ORDER BY id ASC",
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list rows: %w", err)
	}
	defer rows.Close()

	var records []*secondary.RowRecord
	for rows.Next() {
		record, err := scanRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		records = append(records, record)
	}

	return records, nil
}

// CountBySession returns the number of rows in a session.
func (r *RowRepository) CountBySession(ctx context.Context, sessionID string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM extracted_rows WHERE session_id = ?", sessionID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count rows: %w", err)
	}
	return count, nil
}

// UpdateMapped writes the mapped fields and status of one row.
func (r *RowRepository) UpdateMapped(ctx context.Context, row *secondary.RowRecord) error {
	result, err := r.db.ExecContext(ctx,
		"UPDATE extracted_rows SET bar_size_mapped = ?, grade_mapped = ?, shape_code_mapped = ?, status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?",
		nullString(row.BarSizeMapped), nullString(row.GradeMapped), nullString(row.ShapeCodeMapped),
		row.Status, row.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update mapped row: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return fmt.Errorf("row %s: %w", row.ID, session.ErrNotFound)
	}

	return nil
}

// UpdateStatusBySession sets the status of every row in a session.
func (r *RowRepository) UpdateStatusBySession(ctx context.Context, sessionID, status string) error {
	_, err := r.db.ExecContext(ctx,
		"UPDATE extracted_rows SET status = ?, updated_at = CURRENT_TIMESTAMP WHERE session_id = ?",
		status, sessionID,
	)
	if err != nil {
		return fmt.Errorf("failed to update row statuses: %w", err)
	}

	return nil
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func nullFloat(f float64) sql.NullFloat64 {
	if f == 0 {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: f, Valid: true}
}

// Ensure RowRepository implements the interface
var _ secondary.RowRepository = (*RowRepository)(nil)
