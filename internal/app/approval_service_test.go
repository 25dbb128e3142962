package app

import (
	"errors"
	"testing"

	"github.com/example/rebarflow/internal/core/session"
	"github.com/example/rebarflow/internal/ports/secondary"
)

type approvalFixture struct {
	svc      *ApprovalServiceImpl
	sessions *mockSessionRepo
	rows     *mockRowRepo
	issues   *mockIssueRepo
	approval *mockApprovalRepo
	tasks    *mockTaskRepo
	machines *mockMachineRepo
	queue    *mockQueueRepo
	audit    *mockAuditLog
}

func newApprovalFixture() *approvalFixture {
	f := &approvalFixture{
		sessions: newMockSessionRepo(),
		rows:     newMockRowRepo(),
		issues:   newMockIssueRepo(),
		tasks:    newMockTaskRepo(),
		machines: newMockMachineRepo(),
		audit:    newMockAuditLog(),
	}
	f.approval = newMockApprovalRepo(f.sessions, f.rows)
	f.queue = newMockQueueRepo(f.tasks)
	dispatcher := NewDispatchService(f.tasks, f.machines, f.queue, f.audit)
	f.svc = NewApprovalService(f.sessions, f.rows, f.issues, f.approval, dispatcher, f.audit)
	return f
}

// seedValidatedSession sets up a validated session with mapped rows: one
// straight 20M cut, one bent 15M bar.
func (f *approvalFixture) seedValidatedSession(t *testing.T) string {
	t.Helper()
	ctx := testCtx()

	err := f.sessions.Create(ctx, &secondary.SessionRecord{
		ID: "SES-001", TenantID: "tenant-a", Name: "Tower Block A", Customer: "Acme Rebar",
		Status: session.StatusValidated,
	})
	if err != nil {
		t.Fatalf("failed to seed session: %v", err)
	}
	f.sessions.sessions["SES-001"].Status = session.StatusValidated

	err = f.rows.ReplaceForSession(ctx, "SES-001", []*secondary.RowRecord{
		{Mark: "M1", Quantity: 10, BarSizeRaw: "20M", TotalLength: 2400},
		{Mark: "M2", Quantity: 4, BarSizeRaw: "15M", TotalLength: 1800},
	})
	if err != nil {
		t.Fatalf("failed to seed rows: %v", err)
	}
	stored, _ := f.rows.ListBySession(ctx, "SES-001")
	for i, row := range stored {
		row.BarSizeMapped = row.BarSizeRaw
		row.GradeMapped = "400W"
		if i == 1 {
			row.ShapeCodeMapped = "T1"
		}
		row.Status = session.RowStatusMapped
		if err := f.rows.UpdateMapped(ctx, row); err != nil {
			t.Fatalf("failed to map seeded row: %v", err)
		}
	}
	return "SES-001"
}

// registerCapableMachines adds an idle shearline for 20M cuts and an idle
// bender for 15M bends.
func (f *approvalFixture) registerCapableMachines(t *testing.T) {
	t.Helper()
	ctx := testCtx()

	for _, m := range []*secondary.MachineRecord{
		{ID: "MCH-001", TenantID: "tenant-a", Name: "Shearline 1", Status: "idle"},
		{ID: "MCH-002", TenantID: "tenant-a", Name: "Bender A", Status: "idle"},
	} {
		if err := f.machines.Create(ctx, m); err != nil {
			t.Fatalf("failed to seed machine: %v", err)
		}
	}
	caps := []*secondary.CapabilityRecord{
		{MachineID: "MCH-001", Process: "cut", BarCode: "20M", MaxBarsPerRun: 40},
		{MachineID: "MCH-002", Process: "bend", BarCode: "15M", MaxBarsPerRun: 12},
	}
	for _, cap := range caps {
		if err := f.machines.AddCapability(ctx, cap); err != nil {
			t.Fatalf("failed to seed capability: %v", err)
		}
	}
}

// registerTasks mirrors the cascade's task IDs into the task repo so the
// dispatcher can find them. The mock approval repo does not write tasks.
func (f *approvalFixture) registerTasks(t *testing.T) {
	t.Helper()
	f.tasks.tasks["TASK-001"] = &secondary.ProductionTaskRecord{
		ID: "TASK-001", TenantID: "tenant-a", Type: "cut", BarSize: "20M",
		Quantity: 10, SetupKey: "20M|straight", Status: "pending",
	}
	f.tasks.tasks["TASK-002"] = &secondary.ProductionTaskRecord{
		ID: "TASK-002", TenantID: "tenant-a", Type: "bend", BarSize: "15M",
		Quantity: 4, SetupKey: "15M|bend", Status: "pending",
	}
}

func TestApprovalService_Approve(t *testing.T) {
	f := newApprovalFixture()
	id := f.seedValidatedSession(t)
	f.registerCapableMachines(t)
	f.registerTasks(t)

	resp, err := f.svc.Approve(testCtx(), id)
	if err != nil {
		t.Fatalf("Approve failed: %v", err)
	}

	if resp.ItemsApproved != 2 {
		t.Errorf("expected 2 items approved, got %d", resp.ItemsApproved)
	}
	if resp.WorkOrderNumber == "" || resp.ProjectID == "" || resp.CutPlanID == "" {
		t.Errorf("cascade IDs missing: %+v", resp)
	}
	if resp.TasksQueued != 2 || resp.TasksPending != 0 {
		t.Errorf("expected both tasks queued, got %d queued %d pending", resp.TasksQueued, resp.TasksPending)
	}

	// The graph handed to the cascade is classified per row.
	items := f.approval.created.Items
	if items[0].TaskType != "cut" || items[0].SetupKey != "20M|straight" || items[0].Bent {
		t.Errorf("straight bar misclassified: %+v", items[0])
	}
	if items[1].TaskType != "bend" || items[1].SetupKey != "15M|bend" || !items[1].Bent {
		t.Errorf("bent bar misclassified: %+v", items[1])
	}

	got, _ := f.sessions.GetByID(testCtx(), id)
	if got.Status != session.StatusApproved {
		t.Errorf("expected approved, got %s", got.Status)
	}
	if !f.audit.hasEvent(id, "approved") {
		t.Error("expected approved audit event")
	}
	if !f.audit.hasEvent(resp.ProjectID, "created") {
		t.Error("expected created audit event for the fresh project")
	}
}

func TestApprovalService_ReusedProjectHasNoCreatedEvent(t *testing.T) {
	f := newApprovalFixture()
	id := f.seedValidatedSession(t)
	f.registerCapableMachines(t)
	f.registerTasks(t)
	f.approval.projectReused = true

	resp, err := f.svc.Approve(testCtx(), id)
	if err != nil {
		t.Fatalf("Approve failed: %v", err)
	}

	if f.audit.hasEvent(resp.ProjectID, "created") {
		t.Error("reused project must not log a created event")
	}
	if !f.audit.hasEvent(id, "approved") {
		t.Error("expected approved audit event")
	}
}

func TestApprovalService_ApproveBlockedByIssues(t *testing.T) {
	f := newApprovalFixture()
	id := f.seedValidatedSession(t)

	err := f.issues.ReplaceForSession(testCtx(), id, []*secondary.IssueRecord{
		{Field: "quantity", Severity: "blocker", Message: "quantity must be greater than zero"},
	})
	if err != nil {
		t.Fatalf("failed to seed issue: %v", err)
	}

	_, err = f.svc.Approve(testCtx(), id)
	if !errors.Is(err, session.ErrValidationBlocked) {
		t.Errorf("expected ErrValidationBlocked, got %v", err)
	}
	if f.approval.created != nil {
		t.Error("cascade must not run while blockers remain")
	}
}

func TestApprovalService_ApproveWrongState(t *testing.T) {
	f := newApprovalFixture()
	id := f.seedValidatedSession(t)
	f.sessions.sessions[id].Status = session.StatusMapping

	_, err := f.svc.Approve(testCtx(), id)
	if !errors.Is(err, session.ErrInvalidTransition) {
		t.Errorf("expected ErrInvalidTransition, got %v", err)
	}
}

func TestApprovalService_ApproveEmptySession(t *testing.T) {
	f := newApprovalFixture()
	ctx := testCtx()

	if err := f.sessions.Create(ctx, &secondary.SessionRecord{
		ID: "SES-001", TenantID: "tenant-a", Name: "empty",
	}); err != nil {
		t.Fatalf("failed to seed session: %v", err)
	}
	f.sessions.sessions["SES-001"].Status = session.StatusValidated

	_, err := f.svc.Approve(ctx, "SES-001")
	if !errors.Is(err, session.ErrEmptySession) {
		t.Errorf("expected ErrEmptySession, got %v", err)
	}
}

func TestApprovalService_SecondApproveLosesRace(t *testing.T) {
	f := newApprovalFixture()
	id := f.seedValidatedSession(t)
	f.registerCapableMachines(t)
	f.registerTasks(t)

	if _, err := f.svc.Approve(testCtx(), id); err != nil {
		t.Fatalf("first Approve failed: %v", err)
	}

	_, err := f.svc.Approve(testCtx(), id)
	if !errors.Is(err, session.ErrInvalidTransition) {
		t.Errorf("expected second approval to fail with ErrInvalidTransition, got %v", err)
	}
}

func TestApprovalService_UndispatchableTasksStayPending(t *testing.T) {
	f := newApprovalFixture()
	id := f.seedValidatedSession(t)
	f.registerTasks(t)

	// No machines at all: every task is skipped, approval still succeeds.
	resp, err := f.svc.Approve(testCtx(), id)
	if err != nil {
		t.Fatalf("Approve failed: %v", err)
	}
	if resp.TasksQueued != 0 || resp.TasksPending != 2 {
		t.Errorf("expected both tasks pending, got %d queued %d pending", resp.TasksQueued, resp.TasksPending)
	}

	pending, _ := f.tasks.List(testCtx(), secondary.TaskFilters{Status: "pending"})
	if len(pending) != 2 {
		t.Errorf("expected skipped tasks left pending, got %d", len(pending))
	}
}

func TestApprovalService_GradeDefaultsWhenUnmapped(t *testing.T) {
	f := newApprovalFixture()
	id := f.seedValidatedSession(t)
	ctx := testCtx()

	stored, _ := f.rows.ListBySession(ctx, id)
	stored[0].GradeMapped = ""
	if err := f.rows.UpdateMapped(ctx, stored[0]); err != nil {
		t.Fatalf("failed to clear grade: %v", err)
	}

	if _, err := f.svc.Approve(ctx, id); err != nil {
		t.Fatalf("Approve failed: %v", err)
	}

	if f.approval.created.Items[0].Grade != "400W" {
		t.Errorf("expected missing grade defaulted to 400W, got %q", f.approval.created.Items[0].Grade)
	}
}
