package primary

import "context"

// DispatchService assigns one production task to the best-fit machine.
type DispatchService interface {
	// DispatchTask selects a machine for the task and enqueues it at the
	// tail of that machine's queue. A task no capable machine can take is
	// skipped, not failed: it stays pending for manual routing.
	DispatchTask(ctx context.Context, taskID string) (*DispatchResult, error)
}

// DispatchResult reports one dispatch attempt.
type DispatchResult struct {
	TaskID    string
	Skipped   bool
	Reason    string // set when skipped
	MachineID string
	Position  int
}
