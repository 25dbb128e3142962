package app

import (
	"context"
	"fmt"

	"github.com/example/rebarflow/internal/core/dispatch"
	"github.com/example/rebarflow/internal/ports/primary"
	"github.com/example/rebarflow/internal/ports/secondary"
)

// DispatchServiceImpl implements the DispatchService interface with the
// greedy single-task scoring heuristic.
type DispatchServiceImpl struct {
	taskRepo    secondary.ProductionTaskRepository
	machineRepo secondary.MachineRepository
	queueRepo   secondary.QueueRepository
	audit       secondary.AuditLog
}

// NewDispatchService creates a new DispatchService with injected dependencies.
func NewDispatchService(
	taskRepo secondary.ProductionTaskRepository,
	machineRepo secondary.MachineRepository,
	queueRepo secondary.QueueRepository,
	audit secondary.AuditLog,
) *DispatchServiceImpl {
	return &DispatchServiceImpl{
		taskRepo:    taskRepo,
		machineRepo: machineRepo,
		queueRepo:   queueRepo,
		audit:       audit,
	}
}

// DispatchTask selects a machine for the task and enqueues it. Skips are
// reported outcomes, never errors: a task nothing can take stays pending
// for manual routing.
func (s *DispatchServiceImpl) DispatchTask(ctx context.Context, taskID string) (*primary.DispatchResult, error) {
	task, err := s.taskRepo.GetByID(ctx, taskID)
	if err != nil {
		return nil, err
	}

	if task.Status != "pending" {
		return &primary.DispatchResult{
			TaskID:  taskID,
			Skipped: true,
			Reason:  fmt.Sprintf("task is %s, only pending tasks dispatch", task.Status),
		}, nil
	}

	process := dispatch.ProcessForTaskType(task.Type)
	machines, err := s.machineRepo.FindCapable(ctx, task.TenantID, process, task.BarSize)
	if err != nil {
		return nil, fmt.Errorf("failed to find capable machines: %w", err)
	}

	candidates := make([]dispatch.Candidate, 0, len(machines))
	for _, m := range machines {
		depth, err := s.queueRepo.ActiveDepth(ctx, m.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to read queue depth of %s: %w", m.ID, err)
		}
		candidates = append(candidates, dispatch.Candidate{
			MachineID:  m.ID,
			Status:     m.Status,
			QueueDepth: depth,
		})
	}

	best, found := dispatch.Select(candidates)
	if !found {
		return &primary.DispatchResult{
			TaskID:  taskID,
			Skipped: true,
			Reason:  fmt.Sprintf("no machine can run %s for %s", process, task.BarSize),
		}, nil
	}

	item, err := s.queueRepo.Enqueue(ctx, best.MachineID, taskID)
	if err != nil {
		return nil, fmt.Errorf("failed to enqueue task: %w", err)
	}

	if err := s.audit.Event(ctx, "task", taskID, "dispatched",
		fmt.Sprintf("machine %s position %d", best.MachineID, item.Position)); err != nil {
		return nil, fmt.Errorf("failed to record audit event: %w", err)
	}

	return &primary.DispatchResult{
		TaskID:    taskID,
		MachineID: best.MachineID,
		Position:  item.Position,
	}, nil
}

// Ensure DispatchServiceImpl implements the interface
var _ primary.DispatchService = (*DispatchServiceImpl)(nil)
