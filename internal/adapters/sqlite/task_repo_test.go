package sqlite_test

import (
	"context"
	"errors"
	"testing"

	"github.com/example/rebarflow/internal/adapters/sqlite"
	"github.com/example/rebarflow/internal/core/session"
	"github.com/example/rebarflow/internal/ports/secondary"
)

func TestProductionTaskRepository_ListFilters(t *testing.T) {
	db := setupTestDB(t)
	repo := sqlite.NewProductionTaskRepository(db)
	ctx := context.Background()

	seedTask(t, db, "TASK-001")
	seedTask(t, db, "TASK-002")
	if _, err := db.Exec("UPDATE production_tasks SET status = 'queued' WHERE id = 'TASK-002'"); err != nil {
		t.Fatalf("failed to flip task: %v", err)
	}

	pending, err := repo.List(ctx, secondary.TaskFilters{TenantID: "tenant-a", Status: "pending"})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(pending) != 1 || pending[0].ID != "TASK-001" {
		t.Errorf("expected only TASK-001 pending, got %+v", pending)
	}

	bySetup, err := repo.List(ctx, secondary.TaskFilters{SetupKey: "20M|straight"})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(bySetup) != 2 {
		t.Errorf("expected 2 tasks sharing the setup key, got %d", len(bySetup))
	}
}

func TestProductionTaskRepository_GetByID(t *testing.T) {
	db := setupTestDB(t)
	repo := sqlite.NewProductionTaskRepository(db)
	ctx := context.Background()

	seedTask(t, db, "TASK-001")
	if _, err := db.Exec(`UPDATE production_tasks SET dimensions = '{"A":600,"B":1200}' WHERE id = 'TASK-001'`); err != nil {
		t.Fatalf("failed to set dimensions: %v", err)
	}

	got, err := repo.GetByID(ctx, "TASK-001")
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.Type != "cut" || got.BarSize != "20M" || got.SetupKey != "20M|straight" {
		t.Errorf("task fields not round-tripped: %+v", got)
	}
	if got.Dimensions["A"] != 600 || got.Dimensions["B"] != 1200 {
		t.Errorf("dimensions not decoded: %+v", got.Dimensions)
	}

	_, err = repo.GetByID(ctx, "TASK-999")
	if !errors.Is(err, session.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestProductionTaskRepository_UpdateStatus(t *testing.T) {
	db := setupTestDB(t)
	repo := sqlite.NewProductionTaskRepository(db)
	ctx := context.Background()

	seedTask(t, db, "TASK-001")

	if err := repo.UpdateStatus(ctx, "TASK-001", "running"); err != nil {
		t.Fatalf("UpdateStatus failed: %v", err)
	}

	got, err := repo.GetByID(ctx, "TASK-001")
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.Status != "running" {
		t.Errorf("expected running, got %s", got.Status)
	}

	err = repo.UpdateStatus(ctx, "TASK-999", "complete")
	if !errors.Is(err, session.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
