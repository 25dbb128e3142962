package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/example/rebarflow/internal/core/session"
	"github.com/example/rebarflow/internal/ports/secondary"
)

// MappingRuleRepository implements secondary.MappingRuleRepository with SQLite.
type MappingRuleRepository struct {
	db *sql.DB
}

// NewMappingRuleRepository creates a new SQLite mapping rule repository.
func NewMappingRuleRepository(db *sql.DB) *MappingRuleRepository {
	return &MappingRuleRepository{db: db}
}

const ruleSelectCols = "id, tenant_id, source_field, source_value, mapped_value, is_auto, created_at, updated_at"

func scanRule(scanner interface {
	Scan(dest ...any) error
}) (*secondary.MappingRuleRecord, error) {
	var (
		isAuto    bool
		createdAt time.Time
		updatedAt time.Time
	)

	record := &secondary.MappingRuleRecord{}
	err := scanner.Scan(
		&record.ID, &record.TenantID, &record.SourceField, &record.SourceValue,
		&record.MappedValue, &isAuto, &createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}

	record.IsAuto = isAuto
	record.CreatedAt = createdAt.Format(time.RFC3339)
	record.UpdatedAt = updatedAt.Format(time.RFC3339)

	return record, nil
}

// ListByTenant retrieves all rules for a tenant.
func (r *MappingRuleRepository) ListByTenant(ctx context.Context, tenantID string) ([]*secondary.MappingRuleRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+ruleSelectCols+" FROM mapping_rules WHERE tenant_id = ? ORDER BY id ASC",
		tenantID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list mapping rules: %w", err)
	}
	defer rows.Close()

	var rules []*secondary.MappingRuleRecord
	for rows.Next() {
		record, err := scanRule(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan mapping rule: %w", err)
		}
		rules = append(rules, record)
	}

	return rules, nil
}

// Upsert inserts a rule or overwrites the mapped value of the existing
// rule with the same (tenant, field, source value) key. Last writer wins.
func (r *MappingRuleRepository) Upsert(ctx context.Context, rule *secondary.MappingRuleRecord) error {
	if rule.ID == "" {
		id, err := r.GetNextID(ctx)
		if err != nil {
			return err
		}
		rule.ID = id
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO mapping_rules (id, tenant_id, source_field, source_value, mapped_value, is_auto)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(tenant_id, source_field, source_value) DO UPDATE
		 SET mapped_value = excluded.mapped_value,
		     is_auto = excluded.is_auto,
		     updated_at = CURRENT_TIMESTAMP`,
		rule.ID, rule.TenantID, rule.SourceField, rule.SourceValue, rule.MappedValue, rule.IsAuto,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert mapping rule: %w", err)
	}

	return nil
}

// Delete removes a rule.
func (r *MappingRuleRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM mapping_rules WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete mapping rule: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return fmt.Errorf("mapping rule %s: %w", id, session.ErrNotFound)
	}

	return nil
}

// GetNextID returns the next available rule ID.
func (r *MappingRuleRepository) GetNextID(ctx context.Context) (string, error) {
	var maxID int
	err := r.db.QueryRowContext(ctx,
		"SELECT COALESCE(MAX(CAST(SUBSTR(id, 6) AS INTEGER)), 0) FROM mapping_rules",
	).Scan(&maxID)
	if err != nil {
		return "", fmt.Errorf("failed to get next rule ID: %w", err)
	}

	return fmt.Sprintf("RULE-%03d", maxID+1), nil
}

// Ensure MappingRuleRepository implements the interface
var _ secondary.MappingRuleRepository = (*MappingRuleRepository)(nil)
