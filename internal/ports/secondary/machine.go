package secondary

import "context"

// MachineRepository defines the secondary port for machines and their
// static capability declarations. Capabilities are consulted by the
// scheduler and never mutated by the pipeline.
type MachineRepository interface {
	// Create persists a new machine.
	Create(ctx context.Context, machine *MachineRecord) error

	// GetByID retrieves a machine by its ID.
	GetByID(ctx context.Context, id string) (*MachineRecord, error)

	// ListByTenant retrieves all machines of a tenant in creation order.
	ListByTenant(ctx context.Context, tenantID string) ([]*MachineRecord, error)

	// UpdateStatus sets the machine status.
	UpdateStatus(ctx context.Context, id, status string) error

	// GetNextID returns the next available machine ID.
	GetNextID(ctx context.Context) (string, error)

	// AddCapability declares that a machine can run a process for a bar
	// size. Upserts on (machine, process, bar_code).
	AddCapability(ctx context.Context, cap *CapabilityRecord) error

	// ListCapabilities retrieves the capability table of one machine.
	ListCapabilities(ctx context.Context, machineID string) ([]*CapabilityRecord, error)

	// FindCapable retrieves the tenant's machines declared capable of
	// (process, barCode), in creation order for deterministic scoring.
	FindCapable(ctx context.Context, tenantID, process, barCode string) ([]*MachineRecord, error)
}

// MachineRecord represents a shop-floor machine.
type MachineRecord struct {
	ID        string
	TenantID  string
	Name      string
	Status    string // idle | running | blocked | down
	CreatedAt string
	UpdatedAt string
}

// CapabilityRecord represents one (machine, process, bar size) capacity
// declaration.
type CapabilityRecord struct {
	ID            string
	MachineID     string
	Process       string // cut | bend | load | other
	BarCode       string
	MaxBarsPerRun int
	CreatedAt     string
}

// QueueRepository defines the secondary port for machine queues. The
// scheduler only ever appends; positions grow monotonically per machine.
type QueueRepository interface {
	// Enqueue appends the task at the tail of the machine's queue and
	// flips the task status to queued, both inside one per-machine
	// transaction so concurrent dispatches cannot produce duplicate
	// positions. The new position is one past the highest position among
	// active (queued/running) items, 0 when the queue is empty.
	Enqueue(ctx context.Context, machineID, taskID string) (*QueueItemRecord, error)

	// ActiveDepth returns the number of queued or running items on a
	// machine.
	ActiveDepth(ctx context.Context, machineID string) (int, error)

	// ListByMachine retrieves a machine's queue in position order.
	ListByMachine(ctx context.Context, machineID string) ([]*QueueItemRecord, error)
}

// QueueItemRecord represents one ordered assignment of a task to a
// machine.
type QueueItemRecord struct {
	ID        string
	MachineID string
	TaskID    string
	Position  int
	Status    string // queued | running | complete | failed
	CreatedAt string
	UpdatedAt string
}
