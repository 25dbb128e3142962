package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/example/rebarflow/internal/core/session"
	"github.com/example/rebarflow/internal/ports/secondary"
)

// ProductionTaskRepository implements secondary.ProductionTaskRepository
// with SQLite. Tasks are created only by the approval cascade; this
// repository reads and advances them.
type ProductionTaskRepository struct {
	db *sql.DB
}

// NewProductionTaskRepository creates a new SQLite production task repository.
func NewProductionTaskRepository(db *sql.DB) *ProductionTaskRepository {
	return &ProductionTaskRepository{db: db}
}

const taskSelectCols = "id, tenant_id, cut_plan_item_id, type, bar_size, quantity, mark, drawing_ref, cut_length, dimensions, setup_key, status, created_at, updated_at"

func scanTask(scanner interface {
	Scan(dest ...any) error
}) (*secondary.ProductionTaskRecord, error) {
	var (
		mark       sql.NullString
		drawingRef sql.NullString
		cutLength  sql.NullFloat64
		dims       sql.NullString
		createdAt  time.Time
		updatedAt  time.Time
	)

	record := &secondary.ProductionTaskRecord{}
	err := scanner.Scan(
		&record.ID, &record.TenantID, &record.CutPlanItemID, &record.Type,
		&record.BarSize, &record.Quantity, &mark, &drawingRef, &cutLength,
		&dims, &record.SetupKey, &record.Status, &createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}

	record.Mark = mark.String
	record.DrawingRef = drawingRef.String
	record.CutLength = cutLength.Float64
	record.CreatedAt = createdAt.Format(time.RFC3339)
	record.UpdatedAt = updatedAt.Format(time.RFC3339)

	if dims.Valid && dims.String != "" {
		if err := json.Unmarshal([]byte(dims.String), &record.Dimensions); err != nil {
			return nil, fmt.Errorf("failed to decode task dimensions: %w", err)
		}
	}

	return record, nil
}

// GetByID retrieves a task by its ID.
func (r *ProductionTaskRepository) GetByID(ctx context.Context, id string) (*secondary.ProductionTaskRecord, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+taskSelectCols+" FROM production_tasks WHERE id = ?", id,
	)

	record, err := scanTask(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("task %s: %w", id, session.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get task: %w", err)
	}

	return record, nil
}

// List retrieves tasks matching the given filters.
func (r *ProductionTaskRepository) List(ctx context.Context, filters secondary.TaskFilters) ([]*secondary.ProductionTaskRecord, error) {
	query := "SELECT " + taskSelectCols + " FROM production_tasks WHERE 1=1"
	args := []any{}

	if filters.TenantID != "" {
		query += " AND tenant_id = ?"
		args = append(args, filters.TenantID)
	}

	if filters.Status != "" {
		query += " AND status = ?"
		args = append(args, filters.Status)
	}

	if filters.SetupKey != "" {
		query += " AND setup_key = ?"
		args = append(args, filters.SetupKey)
	}

	query += " ORDER BY id ASC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	defer rows.Close()

	var tasks []*secondary.ProductionTaskRecord
	for rows.Next() {
		record, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		tasks = append(tasks, record)
	}

	return tasks, nil
}

// UpdateStatus sets the task status.
func (r *ProductionTaskRepository) UpdateStatus(ctx context.Context, id, status string) error {
	result, err := r.db.ExecContext(ctx,
		"UPDATE production_tasks SET status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?",
		status, id,
	)
	if err != nil {
		return fmt.Errorf("failed to update task status: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return fmt.Errorf("task %s: %w", id, session.ErrNotFound)
	}

	return nil
}

// Ensure ProductionTaskRepository implements the interface
var _ secondary.ProductionTaskRepository = (*ProductionTaskRepository)(nil)
