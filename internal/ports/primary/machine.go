package primary

import "context"

// MachineService manages machines, their capability declarations and
// their queues.
type MachineService interface {
	// RegisterMachine adds a machine for the tenant in context.
	RegisterMachine(ctx context.Context, req RegisterMachineRequest) (*Machine, error)

	// ListMachines lists the tenant's machines.
	ListMachines(ctx context.Context) ([]*Machine, error)

	// SetMachineStatus updates a machine's floor status.
	SetMachineStatus(ctx context.Context, machineID, status string) error

	// AddCapability declares a (process, bar size) capacity for a machine.
	AddCapability(ctx context.Context, req AddCapabilityRequest) error

	// ListCapabilities lists a machine's capability table.
	ListCapabilities(ctx context.Context, machineID string) ([]*Capability, error)

	// QueueForMachine lists a machine's queue in position order.
	QueueForMachine(ctx context.Context, machineID string) ([]*QueueItem, error)

	// ListTasks lists production tasks, optionally filtered by status.
	ListTasks(ctx context.Context, status string) ([]*ProductionTask, error)
}

// RegisterMachineRequest adds a machine.
type RegisterMachineRequest struct {
	Name   string
	Status string // defaults to idle
}

// AddCapabilityRequest declares a capability.
type AddCapabilityRequest struct {
	MachineID     string
	Process       string
	BarCode       string
	MaxBarsPerRun int
}

// Machine is the primary-port view of a machine.
type Machine struct {
	ID        string
	Name      string
	Status    string
	CreatedAt string
}

// Capability is the primary-port view of a capability row.
type Capability struct {
	ID            string
	MachineID     string
	Process       string
	BarCode       string
	MaxBarsPerRun int
}

// QueueItem is the primary-port view of a machine queue entry.
type QueueItem struct {
	ID        string
	MachineID string
	TaskID    string
	Position  int
	Status    string
}

// ProductionTask is the primary-port view of a production task.
type ProductionTask struct {
	ID         string
	Type       string
	BarSize    string
	Quantity   int
	Mark       string
	DrawingRef string
	CutLength  float64
	SetupKey   string
	Status     string
}
