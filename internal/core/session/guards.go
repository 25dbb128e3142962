package session

import "fmt"

// GuardResult represents the outcome of a guard evaluation.
type GuardResult struct {
	Allowed bool
	Reason  string
	Cause   error // sentinel from errors.go, set when not allowed
}

// Error converts the guard result to an error if not allowed.
func (r GuardResult) Error() error {
	if r.Allowed {
		return nil
	}
	if r.Cause != nil {
		return fmt.Errorf("%w: %s", r.Cause, r.Reason)
	}
	return fmt.Errorf("%s", r.Reason)
}

func allowed() GuardResult {
	return GuardResult{Allowed: true}
}

func denied(cause error, format string, args ...any) GuardResult {
	return GuardResult{Allowed: false, Reason: fmt.Sprintf(format, args...), Cause: cause}
}

// CanBeginExtraction evaluates whether extraction may start for a session.
// Rules:
// - Session must be in uploaded or extracting (restart of a failed run)
func CanBeginExtraction(status string) GuardResult {
	if status != StatusUploaded && status != StatusExtracting {
		return denied(ErrInvalidTransition, "cannot begin extraction in status %s", status)
	}
	return allowed()
}

// CanRecordExtraction evaluates whether extracted rows may be recorded.
// Recording again in extracted replaces the rows, so a retried collaborator
// callback is safe.
func CanRecordExtraction(status string) GuardResult {
	switch status {
	case StatusUploaded, StatusExtracting, StatusExtracted:
		return allowed()
	}
	return denied(ErrInvalidTransition, "cannot record extraction in status %s", status)
}

// CanApplyMapping evaluates whether the normalizer may run.
// Rules:
// - Rows must exist (extraction completed)
// - Session must not be terminal
func CanApplyMapping(status string, rowCount int) GuardResult {
	switch status {
	case StatusExtracted, StatusMapping, StatusValidated:
	default:
		return denied(ErrInvalidTransition, "cannot apply mapping in status %s", status)
	}
	if rowCount == 0 {
		return denied(ErrEmptySession, "session has no extracted rows")
	}
	return allowed()
}

// CanValidate evaluates whether the validation engine may run.
// Rules:
// - Mapping must have run at least once
// - Re-running from validated is idempotent and allowed
func CanValidate(status string, rowCount int) GuardResult {
	switch status {
	case StatusMapping, StatusValidated:
	default:
		return denied(ErrInvalidTransition, "cannot validate in status %s", status)
	}
	if rowCount == 0 {
		return denied(ErrEmptySession, "session has no extracted rows")
	}
	return allowed()
}

// ApproveContext provides context for approval guards.
type ApproveContext struct {
	Status   string
	RowCount int
	Blockers int
}

// CanApprove evaluates whether the approval cascade may start.
// Rules:
// - Session must be exactly validated
// - Session must have rows
// - No blocker-severity issues may remain
func CanApprove(ctx ApproveContext) GuardResult {
	if ctx.Status != StatusValidated {
		return denied(ErrInvalidTransition, "can only approve validated sessions (current status: %s)", ctx.Status)
	}
	if ctx.RowCount == 0 {
		return denied(ErrEmptySession, "session has no rows to approve")
	}
	if ctx.Blockers > 0 {
		return denied(ErrValidationBlocked, "%d blocking issue(s) outstanding", ctx.Blockers)
	}
	return allowed()
}

// CanReject evaluates whether a session may be rejected.
// Rules:
// - Approved sessions are immutable
func CanReject(status string) GuardResult {
	if status == StatusApproved {
		return denied(ErrInvalidTransition, "cannot reject an approved session")
	}
	return allowed()
}
