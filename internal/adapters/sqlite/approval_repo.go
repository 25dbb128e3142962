package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/example/rebarflow/internal/core/session"
	"github.com/example/rebarflow/internal/ports/secondary"
)

// ApprovalRepository implements secondary.ApprovalRepository with SQLite.
// The whole production graph is created inside one transaction: either
// every object exists and the session is approved, or nothing changed.
type ApprovalRepository struct {
	db *sql.DB
}

// NewApprovalRepository creates a new SQLite approval repository.
func NewApprovalRepository(db *sql.DB) *ApprovalRepository {
	return &ApprovalRepository{db: db}
}

// CreateProductionGraph materializes the production object graph for a
// validated session. The session status flip carries an optimistic
// WHERE status = 'validated' guard; losing that race rolls the whole
// transaction back, so concurrent approvals cannot double-create.
func (r *ApprovalRepository) CreateProductionGraph(ctx context.Context, graph *secondary.ProductionGraph) (*secondary.ProductionGraphIDs, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin approval: %w", err)
	}
	defer tx.Rollback()

	sess := graph.Session

	// Claim the session first. Anything after this only becomes visible
	// if the claim survives to commit.
	result, err := tx.ExecContext(ctx,
		"UPDATE extraction_sessions SET status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ? AND status = ?",
		session.StatusApproved, sess.ID, session.StatusValidated,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to claim session: %v", session.ErrCascadeWrite, err)
	}
	if affected, _ := result.RowsAffected(); affected == 0 {
		return nil, fmt.Errorf("%w: session %s is not in validated state", session.ErrInvalidTransition, sess.ID)
	}

	ids := &secondary.ProductionGraphIDs{}

	// Step 1-2: resolve or create project and barlist.
	if err := r.resolveProjectAndBarlist(ctx, tx, sess, ids); err != nil {
		return nil, err
	}

	// Step 4: resolve or create the customer and link it to the project.
	if err := r.resolveCustomer(ctx, tx, sess, ids); err != nil {
		return nil, err
	}
	if _, err := tx.ExecContext(ctx,
		"UPDATE projects SET customer_id = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ? AND customer_id IS NULL",
		ids.CustomerID, ids.ProjectID,
	); err != nil {
		return nil, fmt.Errorf("%w: failed to link customer to project: %v", session.ErrCascadeWrite, err)
	}

	// Step 5: order.
	ids.OrderID, err = nextID(ctx, tx, "orders", "ORD")
	if err != nil {
		return nil, err
	}
	if _, err := tx.ExecContext(ctx,
		"INSERT INTO orders (id, tenant_id, customer_id, source_session_id, notes) VALUES (?, ?, ?, ?, ?)",
		ids.OrderID, sess.TenantID, ids.CustomerID, sess.ID,
		fmt.Sprintf("system-generated from session %s", sess.ID),
	); err != nil {
		return nil, fmt.Errorf("%w: failed to create order: %v", session.ErrCascadeWrite, err)
	}

	// Step 6: work order with a human-readable number.
	ids.WorkOrderID, err = nextID(ctx, tx, "work_orders", "WO")
	if err != nil {
		return nil, err
	}
	var workOrderSeq int
	if err := tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM work_orders").Scan(&workOrderSeq); err != nil {
		return nil, fmt.Errorf("%w: failed to number work order: %v", session.ErrCascadeWrite, err)
	}
	ids.WorkOrderNumber = fmt.Sprintf("WO-%d-%04d", time.Now().Year(), workOrderSeq+1)
	if _, err := tx.ExecContext(ctx,
		"INSERT INTO work_orders (id, order_id, barlist_id, project_id, number) VALUES (?, ?, ?, ?, ?)",
		ids.WorkOrderID, ids.OrderID, ids.BarlistID, ids.ProjectID, ids.WorkOrderNumber,
	); err != nil {
		return nil, fmt.Errorf("%w: failed to create work order: %v", session.ErrCascadeWrite, err)
	}

	// Step 7: cut plan.
	ids.CutPlanID, err = nextID(ctx, tx, "cut_plans", "CP")
	if err != nil {
		return nil, err
	}
	if _, err := tx.ExecContext(ctx,
		"INSERT INTO cut_plans (id, project_id, session_id) VALUES (?, ?, ?)",
		ids.CutPlanID, ids.ProjectID, sess.ID,
	); err != nil {
		return nil, fmt.Errorf("%w: failed to create cut plan: %v", session.ErrCascadeWrite, err)
	}

	// Steps 3, 7, 8: per-row barlist items, cut plan items and tasks.
	if err := r.createItems(ctx, tx, sess, graph.Items, ids); err != nil {
		return nil, err
	}

	// Step 9: barlist goes straight to in_production, rows to approved.
	if _, err := tx.ExecContext(ctx,
		"UPDATE barlists SET status = 'in_production', updated_at = CURRENT_TIMESTAMP WHERE id = ?",
		ids.BarlistID,
	); err != nil {
		return nil, fmt.Errorf("%w: failed to mark barlist in production: %v", session.ErrCascadeWrite, err)
	}
	if _, err := tx.ExecContext(ctx,
		"UPDATE extracted_rows SET status = ?, updated_at = CURRENT_TIMESTAMP WHERE session_id = ?",
		session.RowStatusApproved, sess.ID,
	); err != nil {
		return nil, fmt.Errorf("%w: failed to approve rows: %v", session.ErrCascadeWrite, err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("%w: failed to commit approval: %v", session.ErrCascadeWrite, err)
	}

	ids.ItemsApproved = len(graph.Items)
	return ids, nil
}

// resolveProjectAndBarlist reuses the project behind an already-linked
// barlist, or creates project and barlist fresh.
func (r *ApprovalRepository) resolveProjectAndBarlist(ctx context.Context, tx *sql.Tx, sess *secondary.SessionRecord, ids *secondary.ProductionGraphIDs) error {
	if sess.BarlistID != "" {
		var projectID string
		err := tx.QueryRowContext(ctx,
			"SELECT project_id FROM barlists WHERE id = ?", sess.BarlistID,
		).Scan(&projectID)
		if err == nil {
			ids.ProjectID = projectID
			ids.BarlistID = sess.BarlistID
			_, err = tx.ExecContext(ctx,
				"UPDATE barlists SET status = 'approved', updated_at = CURRENT_TIMESTAMP WHERE id = ?",
				sess.BarlistID,
			)
			if err != nil {
				return fmt.Errorf("%w: failed to approve barlist: %v", session.ErrCascadeWrite, err)
			}
			return nil
		}
		if err != sql.ErrNoRows {
			return fmt.Errorf("%w: failed to resolve linked barlist: %v", session.ErrCascadeWrite, err)
		}
	}

	projectName := sess.Name
	if projectName == "" {
		projectName = sess.Customer
	}
	if projectName == "" {
		projectName = sess.ID
	}

	projectID, err := nextID(ctx, tx, "projects", "PROJ")
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		"INSERT INTO projects (id, tenant_id, name) VALUES (?, ?, ?)",
		projectID, sess.TenantID, projectName,
	); err != nil {
		return fmt.Errorf("%w: failed to create project: %v", session.ErrCascadeWrite, err)
	}
	ids.ProjectID = projectID
	ids.ProjectCreated = true

	barlistID, err := nextID(ctx, tx, "barlists", "BL")
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		"INSERT INTO barlists (id, project_id, session_id, name, status) VALUES (?, ?, ?, ?, 'approved')",
		barlistID, projectID, sess.ID, projectName,
	); err != nil {
		return fmt.Errorf("%w: failed to create barlist: %v", session.ErrCascadeWrite, err)
	}
	if _, err := tx.ExecContext(ctx,
		"UPDATE extraction_sessions SET barlist_id = ? WHERE id = ?",
		barlistID, sess.ID,
	); err != nil {
		return fmt.Errorf("%w: failed to back-reference barlist: %v", session.ErrCascadeWrite, err)
	}
	ids.BarlistID = barlistID

	return nil
}

// resolveCustomer matches the session's customer case-insensitively, or
// creates a placeholder named from the session.
func (r *ApprovalRepository) resolveCustomer(ctx context.Context, tx *sql.Tx, sess *secondary.SessionRecord, ids *secondary.ProductionGraphIDs) error {
	name := strings.TrimSpace(sess.Customer)
	if name != "" {
		var customerID string
		err := tx.QueryRowContext(ctx,
			"SELECT id FROM customers WHERE tenant_id = ? AND LOWER(name) = LOWER(?)",
			sess.TenantID, name,
		).Scan(&customerID)
		if err == nil {
			ids.CustomerID = customerID
			return nil
		}
		if err != sql.ErrNoRows {
			return fmt.Errorf("%w: failed to match customer: %v", session.ErrCascadeWrite, err)
		}
	}
	if name == "" {
		name = fmt.Sprintf("Unknown (%s)", sess.Name)
	}

	customerID, err := nextID(ctx, tx, "customers", "CUST")
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		"INSERT INTO customers (id, tenant_id, name) VALUES (?, ?, ?)",
		customerID, sess.TenantID, name,
	); err != nil {
		return fmt.Errorf("%w: failed to create customer: %v", session.ErrCascadeWrite, err)
	}
	ids.CustomerID = customerID
	ids.CustomerCreated = true

	return nil
}

// createItems writes one barlist item, one cut plan item and one
// production task per approved row.
func (r *ApprovalRepository) createItems(ctx context.Context, tx *sql.Tx, sess *secondary.SessionRecord, items []*secondary.GraphItem, ids *secondary.ProductionGraphIDs) error {
	barlistItemID, err := maxSeq(ctx, tx, "barlist_items", "BLI")
	if err != nil {
		return err
	}
	cutPlanItemID, err := maxSeq(ctx, tx, "cut_plan_items", "CPI")
	if err != nil {
		return err
	}
	taskID, err := maxSeq(ctx, tx, "production_tasks", "TASK")
	if err != nil {
		return err
	}

	for _, item := range items {
		dims, err := marshalDims(item.Dimensions)
		if err != nil {
			return fmt.Errorf("%w: failed to encode dimensions: %v", session.ErrCascadeWrite, err)
		}

		barlistItemID++
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO barlist_items (id, barlist_id, mark, quantity, bar_size, grade, shape_code, cut_length, dimensions, source_row_id) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)",
			fmt.Sprintf("BLI-%03d", barlistItemID), ids.BarlistID,
			nullString(item.Mark), item.Quantity, item.BarSize, item.Grade,
			nullString(item.ShapeCode), nullFloat(item.CutLength), dims, nullString(item.SourceRowID),
		); err != nil {
			return fmt.Errorf("%w: failed to create barlist item: %v", session.ErrCascadeWrite, err)
		}

		cutPlanItemID++
		cutPlanItem := fmt.Sprintf("CPI-%03d", cutPlanItemID)
		bend := 0
		if item.Bent {
			bend = 1
		}
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO cut_plan_items (id, cut_plan_id, bar_code, quantity, cut_length, mark, drawing_ref, bend, dimensions) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)",
			cutPlanItem, ids.CutPlanID, item.BarSize, item.Quantity,
			nullFloat(item.CutLength), nullString(item.Mark), nullString(item.DrawingRef), bend, dims,
		); err != nil {
			return fmt.Errorf("%w: failed to create cut plan item: %v", session.ErrCascadeWrite, err)
		}

		taskID++
		task := fmt.Sprintf("TASK-%03d", taskID)
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO production_tasks (id, tenant_id, cut_plan_item_id, type, bar_size, quantity, mark, drawing_ref, cut_length, dimensions, setup_key, status) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 'pending')",
			task, sess.TenantID, cutPlanItem, item.TaskType, item.BarSize, item.Quantity,
			nullString(item.Mark), nullString(item.DrawingRef), nullFloat(item.CutLength), dims, item.SetupKey,
		); err != nil {
			return fmt.Errorf("%w: failed to create production task: %v", session.ErrCascadeWrite, err)
		}
		ids.TaskIDs = append(ids.TaskIDs, task)
	}

	return nil
}

// nextID returns the next prefixed sequential ID for a table within the
// transaction.
func nextID(ctx context.Context, tx *sql.Tx, table, prefix string) (string, error) {
	seq, err := maxSeq(ctx, tx, table, prefix)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s-%03d", prefix, seq+1), nil
}

// maxSeq returns the highest sequence number among a table's prefixed
// ids. The numeric part starts right after "<prefix>-", so the SUBSTR
// offset is derived from the prefix rather than passed by hand.
func maxSeq(ctx context.Context, tx *sql.Tx, table, prefix string) (int, error) {
	var maxID int
	err := tx.QueryRowContext(ctx,
		fmt.Sprintf("SELECT COALESCE(MAX(CAST(SUBSTR(id, %d) AS INTEGER)), 0) FROM %s", len(prefix)+2, table),
	).Scan(&maxID)
	if err != nil {
		return 0, fmt.Errorf("%w: failed to get next %s ID: %v", session.ErrCascadeWrite, table, err)
	}
	return maxID, nil
}

// marshalDims encodes a dimensions map as JSON, NULL when empty.
func marshalDims(dims map[string]float64) (sql.NullString, error) {
	if len(dims) == 0 {
		return sql.NullString{}, nil
	}
	data, err := json.Marshal(dims)
	if err != nil {
		return sql.NullString{}, err
	}
	return sql.NullString{String: string(data), Valid: true}, nil
}

// Ensure ApprovalRepository implements the interface
var _ secondary.ApprovalRepository = (*ApprovalRepository)(nil)
