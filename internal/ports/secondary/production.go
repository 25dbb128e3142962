package secondary

import "context"

// ApprovalRepository defines the secondary port for the approval cascade.
// The implementation must create the whole production graph in one
// transaction: a partial graph must never become visible, and the session
// status flip carries an optimistic status guard so concurrent approvals
// cannot double-create the graph.
type ApprovalRepository interface {
	// CreateProductionGraph materializes project, barlist, customer,
	// order, work order, cut plan, items and production tasks for the
	// session, marks the barlist in_production and flips the session and
	// its rows to approved. Returns session.ErrInvalidTransition (wrapped)
	// when the session is no longer in validated state.
	CreateProductionGraph(ctx context.Context, graph *ProductionGraph) (*ProductionGraphIDs, error)
}

// ProductionGraph is the input to the cascade: the approved session plus
// one pre-classified item per extracted row.
type ProductionGraph struct {
	Session *SessionRecord
	Items   []*GraphItem
}

// GraphItem is one row translated into production terms.
type GraphItem struct {
	SourceRowID string
	Mark        string
	DrawingRef  string
	Quantity    int
	BarSize     string
	Grade       string
	ShapeCode   string
	CutLength   float64
	Dimensions  map[string]float64
	Bent        bool   // true when a shape code mapped, i.e. a bend run
	TaskType    string // cut | bend
	SetupKey    string // bar size + bend/straight grouping key
}

// ProductionGraphIDs reports every identifier the cascade generated.
type ProductionGraphIDs struct {
	ProjectID       string
	ProjectCreated  bool
	CustomerID      string
	CustomerCreated bool
	BarlistID       string
	OrderID         string
	WorkOrderID     string
	WorkOrderNumber string
	CutPlanID       string
	TaskIDs         []string
	ItemsApproved   int
}

// ProductionTaskRepository defines the secondary port for production
// tasks once they exist.
type ProductionTaskRepository interface {
	// GetByID retrieves a task by its ID.
	GetByID(ctx context.Context, id string) (*ProductionTaskRecord, error)

	// List retrieves tasks matching the given filters.
	List(ctx context.Context, filters TaskFilters) ([]*ProductionTaskRecord, error)

	// UpdateStatus sets the task status.
	UpdateStatus(ctx context.Context, id, status string) error
}

// ProductionTaskRecord represents one machine task.
type ProductionTaskRecord struct {
	ID            string
	TenantID      string
	CutPlanItemID string
	Type          string // cut | bend
	BarSize       string
	Quantity      int
	Mark          string
	DrawingRef    string
	CutLength     float64
	Dimensions    map[string]float64
	SetupKey      string
	Status        string // pending | queued | running | complete
	CreatedAt     string
	UpdatedAt     string
}

// TaskFilters contains filter options for querying production tasks.
type TaskFilters struct {
	TenantID string
	Status   string
	SetupKey string
}
