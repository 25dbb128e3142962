// Package sqlite_test contains integration tests for SQLite repositories.
//
// # Schema Protection
//
// This file is the SINGLE POINT where the database schema is loaded for
// tests. All test setup functions use db.GetSchemaSQL() to ensure tests
// run against the authoritative schema, preventing drift between test and
// production.
//
// DO NOT hardcode CREATE TABLE statements in test files. Use setupTestDB()
// and the seed* helpers instead.
package sqlite_test

import (
	"database/sql"
	"testing"

	_ "github.com/mattn/go-sqlite3"

	"github.com/example/rebarflow/internal/db"
)

// setupTestDB creates an in-memory database with the authoritative schema.
// This is the single shared test database setup function for all
// repository tests. Uses db.GetSchemaSQL() to prevent test schemas from
// drifting.
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	testDB, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}

	// Use the authoritative schema from schema.go
	_, err = testDB.Exec(db.GetSchemaSQL())
	if err != nil {
		t.Fatalf("failed to create schema: %v", err)
	}

	t.Cleanup(func() {
		testDB.Close()
	})

	return testDB
}

// seedSession inserts a test session and returns its ID.
func seedSession(t *testing.T, db *sql.DB, id, status string) string {
	t.Helper()
	if id == "" {
		id = "SES-001"
	}
	if status == "" {
		status = "uploaded"
	}
	_, err := db.Exec(
		"INSERT INTO extraction_sessions (id, tenant_id, name, customer, status) VALUES (?, 'tenant-a', 'Test Session', 'Acme Rebar', ?)",
		id, status,
	)
	if err != nil {
		t.Fatalf("failed to seed session: %v", err)
	}
	return id
}

// seedRow inserts a test extracted row and returns its ID.
func seedRow(t *testing.T, db *sql.DB, id, sessionID, status string) string {
	t.Helper()
	if id == "" {
		id = "ROW-001"
	}
	if sessionID == "" {
		sessionID = "SES-001"
	}
	if status == "" {
		status = "extracted"
	}
	_, err := db.Exec(
		"INSERT INTO extracted_rows (id, session_id, mark, quantity, bar_size_raw, grade_raw, total_length, status) VALUES (?, ?, 'M1', 10, '20M', '400W', 2400, ?)",
		id, sessionID, status,
	)
	if err != nil {
		t.Fatalf("failed to seed row: %v", err)
	}
	return id
}

// seedMachine inserts a test machine and returns its ID.
func seedMachine(t *testing.T, db *sql.DB, id, name, status string) string {
	t.Helper()
	if id == "" {
		id = "MCH-001"
	}
	if name == "" {
		name = "Shearline 1"
	}
	if status == "" {
		status = "idle"
	}
	_, err := db.Exec(
		"INSERT INTO machines (id, tenant_id, name, status) VALUES (?, 'tenant-a', ?, ?)",
		id, name, status,
	)
	if err != nil {
		t.Fatalf("failed to seed machine: %v", err)
	}
	return id
}

// seedTask inserts a pending production task with its cut plan lineage
// and returns the task ID.
func seedTask(t *testing.T, db *sql.DB, id string) string {
	t.Helper()
	if id == "" {
		id = "TASK-001"
	}
	seedProductionLineage(t, db)
	itemID := "CPI-" + id[5:]
	_, err := db.Exec(
		"INSERT INTO cut_plan_items (id, cut_plan_id, bar_code, quantity, cut_length) VALUES (?, 'CP-001', '20M', 10, 2400)",
		itemID,
	)
	if err != nil {
		t.Fatalf("failed to seed cut plan item: %v", err)
	}
	_, err = db.Exec(
		"INSERT INTO production_tasks (id, tenant_id, cut_plan_item_id, type, bar_size, quantity, cut_length, setup_key, status) VALUES (?, 'tenant-a', ?, 'cut', '20M', 10, 2400, '20M|straight', 'pending')",
		id, itemID,
	)
	if err != nil {
		t.Fatalf("failed to seed task: %v", err)
	}
	return id
}

// seedProductionLineage inserts the customer/project/cut plan chain that
// production tasks hang off. Idempotent across calls within one test db.
func seedProductionLineage(t *testing.T, db *sql.DB) {
	t.Helper()
	stmts := []string{
		"INSERT OR IGNORE INTO customers (id, tenant_id, name) VALUES ('CUST-001', 'tenant-a', 'Acme Rebar')",
		"INSERT OR IGNORE INTO projects (id, tenant_id, name, customer_id) VALUES ('PROJ-001', 'tenant-a', 'Test Project', 'CUST-001')",
		"INSERT OR IGNORE INTO cut_plans (id, project_id) VALUES ('CP-001', 'PROJ-001')",
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			t.Fatalf("failed to seed production lineage: %v", err)
		}
	}
}
