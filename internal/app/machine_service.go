package app

import (
	"context"
	"fmt"

	"github.com/example/rebarflow/internal/core/dispatch"
	"github.com/example/rebarflow/internal/ctxutil"
	"github.com/example/rebarflow/internal/ports/primary"
	"github.com/example/rebarflow/internal/ports/secondary"
)

// MachineServiceImpl implements the MachineService interface.
type MachineServiceImpl struct {
	machineRepo secondary.MachineRepository
	queueRepo   secondary.QueueRepository
	taskRepo    secondary.ProductionTaskRepository
}

// NewMachineService creates a new MachineService with injected dependencies.
func NewMachineService(
	machineRepo secondary.MachineRepository,
	queueRepo secondary.QueueRepository,
	taskRepo secondary.ProductionTaskRepository,
) *MachineServiceImpl {
	return &MachineServiceImpl{
		machineRepo: machineRepo,
		queueRepo:   queueRepo,
		taskRepo:    taskRepo,
	}
}

func validMachineStatus(status string) bool {
	switch status {
	case dispatch.MachineIdle, dispatch.MachineRunning, dispatch.MachineBlocked, dispatch.MachineDown:
		return true
	}
	return false
}

func validProcess(process string) bool {
	switch process {
	case dispatch.ProcessCut, dispatch.ProcessBend, dispatch.ProcessLoad, dispatch.ProcessOther:
		return true
	}
	return false
}

// RegisterMachine adds a machine for the tenant in context.
func (s *MachineServiceImpl) RegisterMachine(ctx context.Context, req primary.RegisterMachineRequest) (*primary.Machine, error) {
	if req.Name == "" {
		return nil, fmt.Errorf("machine name is required")
	}
	if req.Status != "" && !validMachineStatus(req.Status) {
		return nil, fmt.Errorf("invalid machine status %q", req.Status)
	}

	nextID, err := s.machineRepo.GetNextID(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to generate machine ID: %w", err)
	}

	record := &secondary.MachineRecord{
		ID:       nextID,
		TenantID: ctxutil.TenantFromContext(ctx),
		Name:     req.Name,
		Status:   req.Status,
	}

	if err := s.machineRepo.Create(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to create machine: %w", err)
	}

	created, err := s.machineRepo.GetByID(ctx, nextID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch created machine: %w", err)
	}

	return recordToMachine(created), nil
}

// ListMachines lists the tenant's machines.
func (s *MachineServiceImpl) ListMachines(ctx context.Context) ([]*primary.Machine, error) {
	records, err := s.machineRepo.ListByTenant(ctx, ctxutil.TenantFromContext(ctx))
	if err != nil {
		return nil, err
	}

	machines := make([]*primary.Machine, len(records))
	for i, r := range records {
		machines[i] = recordToMachine(r)
	}
	return machines, nil
}

// SetMachineStatus updates a machine's floor status.
func (s *MachineServiceImpl) SetMachineStatus(ctx context.Context, machineID, status string) error {
	if !validMachineStatus(status) {
		return fmt.Errorf("invalid machine status %q", status)
	}
	return s.machineRepo.UpdateStatus(ctx, machineID, status)
}

// AddCapability declares a (process, bar size) capacity for a machine.
func (s *MachineServiceImpl) AddCapability(ctx context.Context, req primary.AddCapabilityRequest) error {
	if !validProcess(req.Process) {
		return fmt.Errorf("invalid process %q", req.Process)
	}
	if req.BarCode == "" {
		return fmt.Errorf("bar code is required")
	}

	// Verify the machine exists before declaring against it.
	if _, err := s.machineRepo.GetByID(ctx, req.MachineID); err != nil {
		return err
	}

	return s.machineRepo.AddCapability(ctx, &secondary.CapabilityRecord{
		MachineID:     req.MachineID,
		Process:       req.Process,
		BarCode:       req.BarCode,
		MaxBarsPerRun: req.MaxBarsPerRun,
	})
}

// ListCapabilities lists a machine's capability table.
func (s *MachineServiceImpl) ListCapabilities(ctx context.Context, machineID string) ([]*primary.Capability, error) {
	records, err := s.machineRepo.ListCapabilities(ctx, machineID)
	if err != nil {
		return nil, err
	}

	caps := make([]*primary.Capability, len(records))
	for i, r := range records {
		caps[i] = &primary.Capability{
			ID:            r.ID,
			MachineID:     r.MachineID,
			Process:       r.Process,
			BarCode:       r.BarCode,
			MaxBarsPerRun: r.MaxBarsPerRun,
		}
	}
	return caps, nil
}

// QueueForMachine lists a machine's queue in position order.
func (s *MachineServiceImpl) QueueForMachine(ctx context.Context, machineID string) ([]*primary.QueueItem, error) {
	records, err := s.queueRepo.ListByMachine(ctx, machineID)
	if err != nil {
		return nil, err
	}

	items := make([]*primary.QueueItem, len(records))
	for i, r := range records {
		items[i] = &primary.QueueItem{
			ID:        r.ID,
			MachineID: r.MachineID,
			TaskID:    r.TaskID,
			Position:  r.Position,
			Status:    r.Status,
		}
	}
	return items, nil
}

// ListTasks lists production tasks, optionally filtered by status.
func (s *MachineServiceImpl) ListTasks(ctx context.Context, status string) ([]*primary.ProductionTask, error) {
	records, err := s.taskRepo.List(ctx, secondary.TaskFilters{
		TenantID: ctxutil.TenantFromContext(ctx),
		Status:   status,
	})
	if err != nil {
		return nil, err
	}

	tasks := make([]*primary.ProductionTask, len(records))
	for i, r := range records {
		tasks[i] = &primary.ProductionTask{
			ID:         r.ID,
			Type:       r.Type,
			BarSize:    r.BarSize,
			Quantity:   r.Quantity,
			Mark:       r.Mark,
			DrawingRef: r.DrawingRef,
			CutLength:  r.CutLength,
			SetupKey:   r.SetupKey,
			Status:     r.Status,
		}
	}
	return tasks, nil
}

func recordToMachine(r *secondary.MachineRecord) *primary.Machine {
	return &primary.Machine{
		ID:        r.ID,
		Name:      r.Name,
		Status:    r.Status,
		CreatedAt: r.CreatedAt,
	}
}

// Ensure MachineServiceImpl implements the interface
var _ primary.MachineService = (*MachineServiceImpl)(nil)
