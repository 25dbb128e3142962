package app

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/example/rebarflow/internal/core/session"
	"github.com/example/rebarflow/internal/ports/secondary"
)

// Ensure mocks implement the interfaces
var _ secondary.SessionRepository = (*mockSessionRepo)(nil)
var _ secondary.RowRepository = (*mockRowRepo)(nil)
var _ secondary.MappingRuleRepository = (*mockRuleRepo)(nil)
var _ secondary.IssueRepository = (*mockIssueRepo)(nil)
var _ secondary.ApprovalRepository = (*mockApprovalRepo)(nil)
var _ secondary.ProductionTaskRepository = (*mockTaskRepo)(nil)
var _ secondary.MachineRepository = (*mockMachineRepo)(nil)
var _ secondary.QueueRepository = (*mockQueueRepo)(nil)
var _ secondary.AuditLog = (*mockAuditLog)(nil)

// mockSessionRepo implements secondary.SessionRepository for testing.
type mockSessionRepo struct {
	sessions map[string]*secondary.SessionRecord
	nextID   int
}

func newMockSessionRepo() *mockSessionRepo {
	return &mockSessionRepo{sessions: make(map[string]*secondary.SessionRecord)}
}

func (m *mockSessionRepo) Create(ctx context.Context, s *secondary.SessionRecord) error {
	copied := *s
	if copied.Status == "" {
		copied.Status = session.StatusUploaded
	}
	if copied.ManifestType == "" {
		copied.ManifestType = "delivery"
	}
	m.sessions[s.ID] = &copied
	return nil
}

func (m *mockSessionRepo) GetByID(ctx context.Context, id string) (*secondary.SessionRecord, error) {
	s, ok := m.sessions[id]
	if !ok {
		return nil, fmt.Errorf("session %s: %w", id, session.ErrNotFound)
	}
	copied := *s
	return &copied, nil
}

func (m *mockSessionRepo) List(ctx context.Context, filters secondary.SessionFilters) ([]*secondary.SessionRecord, error) {
	var ids []string
	for id := range m.sessions {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var out []*secondary.SessionRecord
	for _, id := range ids {
		s := m.sessions[id]
		if filters.TenantID != "" && s.TenantID != filters.TenantID {
			continue
		}
		if filters.Status != "" && s.Status != filters.Status {
			continue
		}
		copied := *s
		out = append(out, &copied)
		if filters.Limit > 0 && len(out) == filters.Limit {
			break
		}
	}
	return out, nil
}

func (m *mockSessionRepo) UpdateStatus(ctx context.Context, id, status string) error {
	s, ok := m.sessions[id]
	if !ok {
		return fmt.Errorf("session %s: %w", id, session.ErrNotFound)
	}
	s.Status = status
	return nil
}

func (m *mockSessionRepo) UpdateStatusIf(ctx context.Context, id, from, to string) (bool, error) {
	s, ok := m.sessions[id]
	if !ok || s.Status != from {
		return false, nil
	}
	s.Status = to
	return true, nil
}

func (m *mockSessionRepo) GetNextID(ctx context.Context) (string, error) {
	m.nextID++
	return fmt.Sprintf("SES-%03d", m.nextID), nil
}

// mockRowRepo implements secondary.RowRepository for testing.
type mockRowRepo struct {
	rows   map[string][]*secondary.RowRecord // keyed by session ID
	nextID int
}

func newMockRowRepo() *mockRowRepo {
	return &mockRowRepo{rows: make(map[string][]*secondary.RowRecord)}
}

func (m *mockRowRepo) ReplaceForSession(ctx context.Context, sessionID string, rows []*secondary.RowRecord) error {
	var stored []*secondary.RowRecord
	for _, row := range rows {
		m.nextID++
		copied := *row
		copied.ID = fmt.Sprintf("ROW-%03d", m.nextID)
		copied.SessionID = sessionID
		copied.Status = session.RowStatusExtracted
		stored = append(stored, &copied)
	}
	m.rows[sessionID] = stored
	return nil
}

func (m *mockRowRepo) ListBySession(ctx context.Context, sessionID string) ([]*secondary.RowRecord, error) {
	var out []*secondary.RowRecord
	for _, row := range m.rows[sessionID] {
		copied := *row
		out = append(out, &copied)
	}
	return out, nil
}

func (m *mockRowRepo) CountBySession(ctx context.Context, sessionID string) (int, error) {
	return len(m.rows[sessionID]), nil
}

func (m *mockRowRepo) UpdateMapped(ctx context.Context, row *secondary.RowRecord) error {
	for _, rows := range m.rows {
		for _, stored := range rows {
			if stored.ID == row.ID {
				stored.BarSizeMapped = row.BarSizeMapped
				stored.GradeMapped = row.GradeMapped
				stored.ShapeCodeMapped = row.ShapeCodeMapped
				stored.Status = row.Status
				return nil
			}
		}
	}
	return fmt.Errorf("row %s: %w", row.ID, session.ErrNotFound)
}

func (m *mockRowRepo) UpdateStatusBySession(ctx context.Context, sessionID, status string) error {
	for _, row := range m.rows[sessionID] {
		row.Status = status
	}
	return nil
}

// mockRuleRepo implements secondary.MappingRuleRepository for testing.
type mockRuleRepo struct {
	rules  map[string]*secondary.MappingRuleRecord // keyed by tenant|field|value
	nextID int
}

func newMockRuleRepo() *mockRuleRepo {
	return &mockRuleRepo{rules: make(map[string]*secondary.MappingRuleRecord)}
}

func ruleMockKey(tenantID, field, value string) string {
	return tenantID + "|" + field + "|" + strings.ToLower(value)
}

func (m *mockRuleRepo) ListByTenant(ctx context.Context, tenantID string) ([]*secondary.MappingRuleRecord, error) {
	var out []*secondary.MappingRuleRecord
	for _, r := range m.rules {
		if r.TenantID == tenantID {
			copied := *r
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *mockRuleRepo) Upsert(ctx context.Context, rule *secondary.MappingRuleRecord) error {
	key := ruleMockKey(rule.TenantID, rule.SourceField, rule.SourceValue)
	if existing, ok := m.rules[key]; ok {
		existing.MappedValue = rule.MappedValue
		existing.IsAuto = rule.IsAuto
		rule.ID = existing.ID
		return nil
	}
	m.nextID++
	if rule.ID == "" {
		rule.ID = fmt.Sprintf("RULE-%03d", m.nextID)
	}
	copied := *rule
	m.rules[key] = &copied
	return nil
}

func (m *mockRuleRepo) Delete(ctx context.Context, id string) error {
	for key, r := range m.rules {
		if r.ID == id {
			delete(m.rules, key)
			return nil
		}
	}
	return fmt.Errorf("mapping rule %s: %w", id, session.ErrNotFound)
}

func (m *mockRuleRepo) GetNextID(ctx context.Context) (string, error) {
	m.nextID++
	return fmt.Sprintf("RULE-%03d", m.nextID), nil
}

// ruleRecord builds a mapping rule record for seeding mocks.
func ruleRecord(tenantID, field, source, mapped string) *secondary.MappingRuleRecord {
	return &secondary.MappingRuleRecord{
		TenantID:    tenantID,
		SourceField: field,
		SourceValue: source,
		MappedValue: mapped,
	}
}

// mockIssueRepo implements secondary.IssueRepository for testing.
type mockIssueRepo struct {
	issues map[string][]*secondary.IssueRecord
	nextID int
}

func newMockIssueRepo() *mockIssueRepo {
	return &mockIssueRepo{issues: make(map[string][]*secondary.IssueRecord)}
}

func (m *mockIssueRepo) ReplaceForSession(ctx context.Context, sessionID string, issues []*secondary.IssueRecord) error {
	var stored []*secondary.IssueRecord
	for _, issue := range issues {
		m.nextID++
		copied := *issue
		copied.ID = fmt.Sprintf("ISS-%03d", m.nextID)
		copied.SessionID = sessionID
		stored = append(stored, &copied)
	}
	m.issues[sessionID] = stored
	return nil
}

func (m *mockIssueRepo) ListBySession(ctx context.Context, sessionID string) ([]*secondary.IssueRecord, error) {
	return m.issues[sessionID], nil
}

func (m *mockIssueRepo) CountBlockers(ctx context.Context, sessionID string) (int, error) {
	count := 0
	for _, issue := range m.issues[sessionID] {
		if issue.Severity == "blocker" {
			count++
		}
	}
	return count, nil
}

// mockApprovalRepo implements secondary.ApprovalRepository for testing.
type mockApprovalRepo struct {
	sessionRepo   *mockSessionRepo
	rowRepo       *mockRowRepo
	created       *secondary.ProductionGraph
	createErr     error
	projectReused bool // cascade found an existing project instead of creating one
}

func newMockApprovalRepo(sessions *mockSessionRepo, rows *mockRowRepo) *mockApprovalRepo {
	return &mockApprovalRepo{sessionRepo: sessions, rowRepo: rows}
}

func (m *mockApprovalRepo) CreateProductionGraph(ctx context.Context, graph *secondary.ProductionGraph) (*secondary.ProductionGraphIDs, error) {
	if m.createErr != nil {
		return nil, m.createErr
	}

	flipped, _ := m.sessionRepo.UpdateStatusIf(ctx, graph.Session.ID, session.StatusValidated, session.StatusApproved)
	if !flipped {
		return nil, fmt.Errorf("%w: session %s is not in validated state", session.ErrInvalidTransition, graph.Session.ID)
	}
	_ = m.rowRepo.UpdateStatusBySession(ctx, graph.Session.ID, session.RowStatusApproved)
	m.created = graph

	ids := &secondary.ProductionGraphIDs{
		ProjectID:       "PROJ-001",
		ProjectCreated:  !m.projectReused,
		CustomerID:      "CUST-001",
		CustomerCreated: true,
		BarlistID:       "BL-001",
		OrderID:         "ORD-001",
		WorkOrderID:     "WO-001",
		WorkOrderNumber: "WO-2026-0001",
		CutPlanID:       "CP-001",
		ItemsApproved:   len(graph.Items),
	}
	for i := range graph.Items {
		ids.TaskIDs = append(ids.TaskIDs, fmt.Sprintf("TASK-%03d", i+1))
	}
	return ids, nil
}

// mockTaskRepo implements secondary.ProductionTaskRepository for testing.
type mockTaskRepo struct {
	mu    sync.Mutex
	tasks map[string]*secondary.ProductionTaskRecord
}

func newMockTaskRepo() *mockTaskRepo {
	return &mockTaskRepo{tasks: make(map[string]*secondary.ProductionTaskRecord)}
}

func (m *mockTaskRepo) GetByID(ctx context.Context, id string) (*secondary.ProductionTaskRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tasks[id]
	if !ok {
		return nil, fmt.Errorf("task %s: %w", id, session.ErrNotFound)
	}
	copied := *t
	return &copied, nil
}

func (m *mockTaskRepo) List(ctx context.Context, filters secondary.TaskFilters) ([]*secondary.ProductionTaskRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var ids []string
	for id := range m.tasks {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var out []*secondary.ProductionTaskRecord
	for _, id := range ids {
		t := m.tasks[id]
		if filters.TenantID != "" && t.TenantID != filters.TenantID {
			continue
		}
		if filters.Status != "" && t.Status != filters.Status {
			continue
		}
		if filters.SetupKey != "" && t.SetupKey != filters.SetupKey {
			continue
		}
		copied := *t
		out = append(out, &copied)
	}
	return out, nil
}

func (m *mockTaskRepo) UpdateStatus(ctx context.Context, id, status string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tasks[id]
	if !ok {
		return fmt.Errorf("task %s: %w", id, session.ErrNotFound)
	}
	t.Status = status
	return nil
}

// mockMachineRepo implements secondary.MachineRepository for testing.
type mockMachineRepo struct {
	machines []*secondary.MachineRecord
	caps     []*secondary.CapabilityRecord
}

func newMockMachineRepo() *mockMachineRepo {
	return &mockMachineRepo{}
}

func (m *mockMachineRepo) Create(ctx context.Context, machine *secondary.MachineRecord) error {
	copied := *machine
	if copied.Status == "" {
		copied.Status = "idle"
	}
	m.machines = append(m.machines, &copied)
	return nil
}

func (m *mockMachineRepo) GetByID(ctx context.Context, id string) (*secondary.MachineRecord, error) {
	for _, machine := range m.machines {
		if machine.ID == id {
			copied := *machine
			return &copied, nil
		}
	}
	return nil, fmt.Errorf("machine %s: %w", id, session.ErrNotFound)
}

func (m *mockMachineRepo) ListByTenant(ctx context.Context, tenantID string) ([]*secondary.MachineRecord, error) {
	var out []*secondary.MachineRecord
	for _, machine := range m.machines {
		if machine.TenantID == tenantID {
			copied := *machine
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (m *mockMachineRepo) UpdateStatus(ctx context.Context, id, status string) error {
	for _, machine := range m.machines {
		if machine.ID == id {
			machine.Status = status
			return nil
		}
	}
	return fmt.Errorf("machine %s: %w", id, session.ErrNotFound)
}

func (m *mockMachineRepo) GetNextID(ctx context.Context) (string, error) {
	return fmt.Sprintf("MCH-%03d", len(m.machines)+1), nil
}

func (m *mockMachineRepo) AddCapability(ctx context.Context, cap *secondary.CapabilityRecord) error {
	copied := *cap
	if copied.ID == "" {
		copied.ID = fmt.Sprintf("CAP-%03d", len(m.caps)+1)
	}
	m.caps = append(m.caps, &copied)
	return nil
}

func (m *mockMachineRepo) ListCapabilities(ctx context.Context, machineID string) ([]*secondary.CapabilityRecord, error) {
	var out []*secondary.CapabilityRecord
	for _, cap := range m.caps {
		if cap.MachineID == machineID {
			copied := *cap
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (m *mockMachineRepo) FindCapable(ctx context.Context, tenantID, process, barCode string) ([]*secondary.MachineRecord, error) {
	var out []*secondary.MachineRecord
	for _, machine := range m.machines {
		if machine.TenantID != tenantID {
			continue
		}
		for _, cap := range m.caps {
			if cap.MachineID == machine.ID && cap.Process == process && cap.BarCode == barCode {
				copied := *machine
				out = append(out, &copied)
				break
			}
		}
	}
	return out, nil
}

// mockQueueRepo implements secondary.QueueRepository for testing.
type mockQueueRepo struct {
	mu         sync.Mutex
	items      []*secondary.QueueItemRecord
	taskRepo   *mockTaskRepo
	enqueueErr error
}

func newMockQueueRepo(tasks *mockTaskRepo) *mockQueueRepo {
	return &mockQueueRepo{taskRepo: tasks}
}

func (m *mockQueueRepo) Enqueue(ctx context.Context, machineID, taskID string) (*secondary.QueueItemRecord, error) {
	if m.enqueueErr != nil {
		return nil, m.enqueueErr
	}

	m.mu.Lock()
	position := 0
	for _, item := range m.items {
		if item.MachineID == machineID && (item.Status == "queued" || item.Status == "running") && item.Position >= position {
			position = item.Position + 1
		}
	}
	item := &secondary.QueueItemRecord{
		ID:        fmt.Sprintf("MQI-%03d", len(m.items)+1),
		MachineID: machineID,
		TaskID:    taskID,
		Position:  position,
		Status:    "queued",
	}
	m.items = append(m.items, item)
	m.mu.Unlock()

	if m.taskRepo != nil {
		if err := m.taskRepo.UpdateStatus(ctx, taskID, "queued"); err != nil {
			return nil, err
		}
	}
	copied := *item
	return &copied, nil
}

func (m *mockQueueRepo) ActiveDepth(ctx context.Context, machineID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	depth := 0
	for _, item := range m.items {
		if item.MachineID == machineID && (item.Status == "queued" || item.Status == "running") {
			depth++
		}
	}
	return depth, nil
}

func (m *mockQueueRepo) ListByMachine(ctx context.Context, machineID string) ([]*secondary.QueueItemRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*secondary.QueueItemRecord
	for _, item := range m.items {
		if item.MachineID == machineID {
			copied := *item
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out, nil
}

// mockAuditLog implements secondary.AuditLog for testing.
type mockAuditLog struct {
	mu     sync.Mutex
	events []*secondary.AuditEventRecord
}

func newMockAuditLog() *mockAuditLog {
	return &mockAuditLog{}
}

func (m *mockAuditLog) Event(ctx context.Context, entityType, entityID, eventType, detail string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.events {
		if e.EntityID == entityID && e.EventType == eventType {
			return nil
		}
	}
	m.events = append(m.events, &secondary.AuditEventRecord{
		ID:         fmt.Sprintf("AUD-%03d", len(m.events)+1),
		EntityType: entityType,
		EntityID:   entityID,
		EventType:  eventType,
		Detail:     detail,
	})
	return nil
}

func (m *mockAuditLog) ListByEntity(ctx context.Context, entityID string) ([]*secondary.AuditEventRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*secondary.AuditEventRecord
	for _, e := range m.events {
		if e.EntityID == entityID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *mockAuditLog) hasEvent(entityID, eventType string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.events {
		if e.EntityID == entityID && e.EventType == eventType {
			return true
		}
	}
	return false
}
