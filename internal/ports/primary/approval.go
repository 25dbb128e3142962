package primary

import "context"

// ApprovalService runs the approval cascade: it materializes the
// production object graph from a validated session and hands every new
// task to the dispatcher.
type ApprovalService interface {
	// Approve transactionally creates the production graph and dispatches
	// its tasks. Fails with session.ErrValidationBlocked while blocker
	// issues remain and session.ErrEmptySession when the session has no
	// rows.
	Approve(ctx context.Context, sessionID string) (*ApproveResponse, error)
}

// ApproveResponse reports everything the cascade generated. TasksPending
// counts tasks left undispatched for manual routing; that is a normal,
// reported outcome, never a hidden failure.
type ApproveResponse struct {
	ProjectID       string
	BarlistID       string
	CustomerID      string
	OrderID         string
	WorkOrderID     string
	WorkOrderNumber string
	CutPlanID       string
	ItemsApproved   int
	TasksQueued     int
	TasksPending    int
}
