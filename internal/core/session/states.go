// Package session contains the pure business logic for the extraction
// session lifecycle. Guards are pure functions that evaluate preconditions
// without side effects.
package session

// Session statuses, in strict forward order. Rejected is a terminal exit
// reachable from any non-approved state.
const (
	StatusUploaded   = "uploaded"
	StatusExtracting = "extracting"
	StatusExtracted  = "extracted"
	StatusMapping    = "mapping"
	StatusValidated  = "validated"
	StatusApproved   = "approved"
	StatusRejected   = "rejected"
)

// Row statuses mirror the stage their session has reached.
const (
	RowStatusExtracted = "extracted"
	RowStatusMapped    = "mapped"
	RowStatusApproved  = "approved"
	RowStatusRejected  = "rejected"
)

// forwardOrder positions each non-terminal status on the pipeline.
// Rejected is deliberately absent: it is an exit, not a stage.
var forwardOrder = map[string]int{
	StatusUploaded:   0,
	StatusExtracting: 1,
	StatusExtracted:  2,
	StatusMapping:    3,
	StatusValidated:  4,
	StatusApproved:   5,
}

// IsTerminal reports whether no further transition is possible.
func IsTerminal(status string) bool {
	return status == StatusApproved || status == StatusRejected
}

// CanAdvance reports whether moving from one status to another is a legal
// forward step. Same-status "moves" are allowed so re-running a stage is
// idempotent; backward moves never are.
func CanAdvance(from, to string) bool {
	if from == StatusRejected {
		return false
	}
	if to == StatusRejected {
		return from != StatusApproved
	}
	fromPos, ok := forwardOrder[from]
	if !ok {
		return false
	}
	toPos, ok := forwardOrder[to]
	if !ok {
		return false
	}
	return toPos >= fromPos
}
