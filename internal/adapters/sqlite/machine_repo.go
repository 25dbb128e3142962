package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/example/rebarflow/internal/core/session"
	"github.com/example/rebarflow/internal/ports/secondary"
)

// MachineRepository implements secondary.MachineRepository with SQLite.
type MachineRepository struct {
	db *sql.DB
}

// NewMachineRepository creates a new SQLite machine repository.
func NewMachineRepository(db *sql.DB) *MachineRepository {
	return &MachineRepository{db: db}
}

const machineSelectCols = "id, tenant_id, name, status, created_at, updated_at"

func scanMachine(scanner interface {
	Scan(dest ...any) error
}) (*secondary.MachineRecord, error) {
	var createdAt, updatedAt time.Time

	record := &secondary.MachineRecord{}
	err := scanner.Scan(&record.ID, &record.TenantID, &record.Name, &record.Status, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	record.CreatedAt = createdAt.Format(time.RFC3339)
	record.UpdatedAt = updatedAt.Format(time.RFC3339)

	return record, nil
}

// Create persists a new machine.
func (r *MachineRepository) Create(ctx context.Context, machine *secondary.MachineRecord) error {
	status := machine.Status
	if status == "" {
		status = "idle"
	}

	_, err := r.db.ExecContext(ctx,
		"INSERT INTO machines (id, tenant_id, name, status) VALUES (?, ?, ?, ?)",
		machine.ID, machine.TenantID, machine.Name, status,
	)
	if err != nil {
		return fmt.Errorf("failed to create machine: %w", err)
	}

	return nil
}

// GetByID retrieves a machine by its ID.
func (r *MachineRepository) GetByID(ctx context.Context, id string) (*secondary.MachineRecord, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+machineSelectCols+" FROM machines WHERE id = ?", id,
	)

	record, err := scanMachine(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("machine %s: %w", id, session.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get machine: %w", err)
	}

	return record, nil
}

// ListByTenant retrieves all machines of a tenant in creation order.
func (r *MachineRepository) ListByTenant(ctx context.Context, tenantID string) ([]*secondary.MachineRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+machineSelectCols+" FROM machines WHERE tenant_id = ? ORDER BY id ASC",
		tenantID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list machines: %w", err)
	}
	defer rows.Close()

	var machines []*secondary.MachineRecord
	for rows.Next() {
		record, err := scanMachine(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan machine: %w", err)
		}
		machines = append(machines, record)
	}

	return machines, nil
}

// UpdateStatus sets the machine status.
func (r *MachineRepository) UpdateStatus(ctx context.Context, id, status string) error {
	result, err := r.db.ExecContext(ctx,
		"UPDATE machines SET status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?",
		status, id,
	)
	if err != nil {
		return fmt.Errorf("failed to update machine status: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return fmt.Errorf("machine %s: %w", id, session.ErrNotFound)
	}

	return nil
}

// GetNextID returns the next available machine ID.
func (r *MachineRepository) GetNextID(ctx context.Context) (string, error) {
	var maxID int
	err := r.db.QueryRowContext(ctx,
		"SELECT COALESCE(MAX(CAST(SUBSTR(id, 5) AS INTEGER)), 0) FROM machines",
	).Scan(&maxID)
	if err != nil {
		return "", fmt.Errorf("failed to get next machine ID: %w", err)
	}

	return fmt.Sprintf("MCH-%03d", maxID+1), nil
}

// AddCapability declares a machine capable of a process for a bar size.
func (r *MachineRepository) AddCapability(ctx context.Context, cap *secondary.CapabilityRecord) error {
	if cap.ID == "" {
		var maxID int
		err := r.db.QueryRowContext(ctx,
			"SELECT COALESCE(MAX(CAST(SUBSTR(id, 5) AS INTEGER)), 0) FROM machine_capabilities",
		).Scan(&maxID)
		if err != nil {
			return fmt.Errorf("failed to get next capability ID: %w", err)
		}
		cap.ID = fmt.Sprintf("CAP-%03d", maxID+1)
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO machine_capabilities (id, machine_id, process, bar_code, max_bars_per_run)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(machine_id, process, bar_code) DO UPDATE
		 SET max_bars_per_run = excluded.max_bars_per_run`,
		cap.ID, cap.MachineID, cap.Process, cap.BarCode, cap.MaxBarsPerRun,
	)
	if err != nil {
		return fmt.Errorf("failed to add capability: %w", err)
	}

	return nil
}

// ListCapabilities retrieves the capability table of one machine.
func (r *MachineRepository) ListCapabilities(ctx context.Context, machineID string) ([]*secondary.CapabilityRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT id, machine_id, process, bar_code, max_bars_per_run, created_at FROM machine_capabilities WHERE machine_id = ? ORDER BY id ASC",
		machineID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list capabilities: %w", err)
	}
	defer rows.Close()

	var caps []*secondary.CapabilityRecord
	for rows.Next() {
		var createdAt time.Time
		record := &secondary.CapabilityRecord{}
		if err := rows.Scan(&record.ID, &record.MachineID, &record.Process, &record.BarCode, &record.MaxBarsPerRun, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan capability: %w", err)
		}
		record.CreatedAt = createdAt.Format(time.RFC3339)
		caps = append(caps, record)
	}

	return caps, nil
}

// FindCapable retrieves the tenant's machines declared capable of
// (process, barCode). Creation order keeps scoring ties deterministic.
func (r *MachineRepository) FindCapable(ctx context.Context, tenantID, process, barCode string) ([]*secondary.MachineRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT m.id, m.tenant_id, m.name, m.status, m.created_at, m.updated_at
		 FROM machines m
		 JOIN machine_capabilities c ON c.machine_id = m.id
		 WHERE m.tenant_id = ? AND c.process = ? AND c.bar_code = ?
		 ORDER BY m.id ASC`,
		tenantID, process, barCode,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to find capable machines: %w", err)
	}
	defer rows.Close()

	var machines []*secondary.MachineRecord
	for rows.Next() {
		record, err := scanMachine(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan machine: %w", err)
		}
		machines = append(machines, record)
	}

	return machines, nil
}

// Ensure MachineRepository implements the interface
var _ secondary.MachineRepository = (*MachineRepository)(nil)
