package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/example/rebarflow/internal/ports/secondary"
)

// QueueRepository implements secondary.QueueRepository with SQLite.
type QueueRepository struct {
	db *sql.DB
}

// NewQueueRepository creates a new SQLite queue repository.
func NewQueueRepository(db *sql.DB) *QueueRepository {
	return &QueueRepository{db: db}
}

const queueSelectCols = "id, machine_id, task_id, position, status, created_at, updated_at"

func scanQueueItem(scanner interface {
	Scan(dest ...any) error
}) (*secondary.QueueItemRecord, error) {
	var createdAt, updatedAt time.Time

	record := &secondary.QueueItemRecord{}
	err := scanner.Scan(&record.ID, &record.MachineID, &record.TaskID, &record.Position, &record.Status, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	record.CreatedAt = createdAt.Format(time.RFC3339)
	record.UpdatedAt = updatedAt.Format(time.RFC3339)

	return record, nil
}

// Enqueue appends the task at the tail of the machine's queue and flips
// the task to queued. The position read and both writes share one
// transaction, so two dispatchers hitting the same machine serialize and
// positions stay strictly increasing.
func (r *QueueRepository) Enqueue(ctx context.Context, machineID, taskID string) (*secondary.QueueItemRecord, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin enqueue: %w", err)
	}
	defer tx.Rollback()

	var position int
	err = tx.QueryRowContext(ctx,
		"SELECT COALESCE(MAX(position), -1) + 1 FROM machine_queue_items WHERE machine_id = ? AND status IN ('queued', 'running')",
		machineID,
	).Scan(&position)
	if err != nil {
		return nil, fmt.Errorf("failed to compute queue position: %w", err)
	}

	var maxID int
	if err := tx.QueryRowContext(ctx,
		"SELECT COALESCE(MAX(CAST(SUBSTR(id, 5) AS INTEGER)), 0) FROM machine_queue_items",
	).Scan(&maxID); err != nil {
		return nil, fmt.Errorf("failed to get next queue item ID: %w", err)
	}

	item := &secondary.QueueItemRecord{
		ID:        fmt.Sprintf("MQI-%03d", maxID+1),
		MachineID: machineID,
		TaskID:    taskID,
		Position:  position,
		Status:    "queued",
	}

	if _, err := tx.ExecContext(ctx,
		"INSERT INTO machine_queue_items (id, machine_id, task_id, position, status) VALUES (?, ?, ?, ?, 'queued')",
		item.ID, machineID, taskID, position,
	); err != nil {
		return nil, fmt.Errorf("failed to insert queue item: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		"UPDATE production_tasks SET status = 'queued', updated_at = CURRENT_TIMESTAMP WHERE id = ?",
		taskID,
	); err != nil {
		return nil, fmt.Errorf("failed to mark task queued: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit enqueue: %w", err)
	}

	return item, nil
}

// ActiveDepth returns the number of queued or running items on a machine.
func (r *QueueRepository) ActiveDepth(ctx context.Context, machineID string) (int, error) {
	var depth int
	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM machine_queue_items WHERE machine_id = ? AND status IN ('queued', 'running')",
		machineID,
	).Scan(&depth)
	if err != nil {
		return 0, fmt.Errorf("failed to count queue depth: %w", err)
	}
	return depth, nil
}

// ListByMachine retrieves a machine's queue in position order.
func (r *QueueRepository) ListByMachine(ctx context.Context, machineID string) ([]*secondary.QueueItemRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+queueSelectCols+" FROM machine_queue_items WHERE machine_id = ? ORDER BY position ASC, id ASC",
		machineID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list queue: %w", err)
	}
	defer rows.Close()

	var items []*secondary.QueueItemRecord
	for rows.Next() {
		record, err := scanQueueItem(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan queue item: %w", err)
		}
		items = append(items, record)
	}

	return items, nil
}

// Ensure QueueRepository implements the interface
var _ secondary.QueueRepository = (*QueueRepository)(nil)
