// Package primary defines the primary ports (driving adapters) for the
// application: the service interfaces the operation surface calls.
package primary

import "context"

// PipelineService drives an extraction session through its lifecycle up
// to the human decision point. Approval itself lives on ApprovalService.
type PipelineService interface {
	// CreateSession registers an uploaded drawing submission.
	CreateSession(ctx context.Context, req CreateSessionRequest) (*CreateSessionResponse, error)

	// BeginExtraction marks the session as extracting before the
	// collaborator is invoked.
	BeginExtraction(ctx context.Context, sessionID string) error

	// RecordExtraction persists the collaborator's raw rows and advances
	// the session to extracted. Retries replace the rows.
	RecordExtraction(ctx context.Context, sessionID string, rows []RowInput) error

	// ApplyMapping runs the normalizer over all rows of the session.
	ApplyMapping(ctx context.Context, sessionID string) (*MappingResult, error)

	// Validate runs the rule engine, replacing any previous issues.
	Validate(ctx context.Context, sessionID string) (*ValidationResult, error)

	// Reject terminates the session without production side effects.
	Reject(ctx context.Context, req RejectRequest) (*RejectResponse, error)

	// GetSession retrieves a session.
	GetSession(ctx context.Context, sessionID string) (*Session, error)

	// ListSessions lists sessions for the tenant in context.
	ListSessions(ctx context.Context, filters SessionFilters) ([]*Session, error)

	// GetSessionDetail retrieves a session with its rows and issues.
	GetSessionDetail(ctx context.Context, sessionID string) (*SessionDetail, error)
}

// CreateSessionRequest carries the upload metadata.
type CreateSessionRequest struct {
	Name         string
	Customer     string
	SiteAddress  string
	ManifestType string // delivery | pickup, defaults to delivery
	TargetETA    string
}

// CreateSessionResponse returns the created session.
type CreateSessionResponse struct {
	SessionID string
	Session   *Session
}

// RowInput is one raw extracted row handed to RecordExtraction.
type RowInput struct {
	DrawingRef  string
	Mark        string
	Quantity    int
	BarSize     string
	Grade       string
	ShapeCode   string
	TotalLength float64
	Dimensions  map[string]float64
}

// MappingResult summarizes a normalizer run.
type MappingResult struct {
	MappedCount         int
	AutoMappingsCreated int
}

// ValidationResult summarizes a validation run.
type ValidationResult struct {
	TotalRows  int
	Blockers   int
	Warnings   int
	CanApprove bool
}

// RejectRequest terminates a session.
type RejectRequest struct {
	SessionID string
	Reason    string
}

// RejectResponse reports the terminal status.
type RejectResponse struct {
	Status         string
	PreviousStatus string
}

// Session is the primary-port view of an extraction session.
type Session struct {
	ID           string
	TenantID     string
	Name         string
	Customer     string
	SiteAddress  string
	ManifestType string
	TargetETA    string
	Status       string
	BarlistID    string
	CreatedAt    string
	UpdatedAt    string
}

// SessionFilters contains filter options for listing sessions.
type SessionFilters struct {
	Status string
	Limit  int
}

// SessionDetail bundles a session with its rows and current issues.
type SessionDetail struct {
	Session *Session
	Rows    []*Row
	Issues  []*Issue
}

// Row is the primary-port view of an extracted row.
type Row struct {
	ID              string
	DrawingRef      string
	Mark            string
	Quantity        int
	BarSizeRaw      string
	GradeRaw        string
	ShapeCodeRaw    string
	TotalLength     float64
	Dimensions      map[string]float64
	BarSizeMapped   string
	GradeMapped     string
	ShapeCodeMapped string
	Status          string
}

// Issue is the primary-port view of a validation issue.
type Issue struct {
	ID       string
	RowID    string
	Field    string
	Severity string
	Message  string
}
