// Package secondary defines the secondary ports (driven adapters) for the
// application. These are the interfaces through which the application
// drives external systems.
package secondary

import "context"

// SessionRepository defines the secondary port for extraction-session
// persistence.
type SessionRepository interface {
	// Create persists a new session.
	Create(ctx context.Context, session *SessionRecord) error

	// GetByID retrieves a session by its ID.
	GetByID(ctx context.Context, id string) (*SessionRecord, error)

	// List retrieves sessions matching the given filters.
	List(ctx context.Context, filters SessionFilters) ([]*SessionRecord, error)

	// UpdateStatus sets the session status unconditionally.
	UpdateStatus(ctx context.Context, id, status string) error

	// UpdateStatusIf sets the status only when the current status matches
	// from. Returns false without error when the guard did not match.
	UpdateStatusIf(ctx context.Context, id, from, to string) (bool, error)

	// GetNextID returns the next available session ID.
	GetNextID(ctx context.Context) (string, error)
}

// SessionRecord represents an extraction session as stored in persistence.
type SessionRecord struct {
	ID           string
	TenantID     string
	Name         string
	Customer     string
	SiteAddress  string
	ManifestType string // delivery | pickup
	TargetETA    string
	Status       string
	BarlistID    string // back-reference set at approval
	CreatedAt    string
	UpdatedAt    string
}

// SessionFilters contains filter options for querying sessions.
type SessionFilters struct {
	TenantID string
	Status   string
	Limit    int
}

// RowRepository defines the secondary port for extracted-row persistence.
type RowRepository interface {
	// ReplaceForSession deletes any existing rows for the session and
	// inserts the given ones, assigning IDs. Used by the extraction
	// callback so retries are idempotent.
	ReplaceForSession(ctx context.Context, sessionID string, rows []*RowRecord) error

	// ListBySession retrieves all rows of a session in insertion order.
	ListBySession(ctx context.Context, sessionID string) ([]*RowRecord, error)

	// CountBySession returns the number of rows in a session.
	CountBySession(ctx context.Context, sessionID string) (int, error)

	// UpdateMapped writes the mapped fields and row status of one row.
	UpdateMapped(ctx context.Context, row *RowRecord) error

	// UpdateStatusBySession sets the status of every row in a session.
	UpdateStatusBySession(ctx context.Context, sessionID, status string) error
}

// RowRecord represents one extracted row. Raw fields come from the
// extraction collaborator; mapped fields are populated by the normalizer
// and are only trustworthy once the session has reached mapping.
type RowRecord struct {
	ID           string
	SessionID    string
	DrawingRef   string
	Mark         string
	Quantity     int
	BarSizeRaw   string
	GradeRaw     string
	ShapeCodeRaw string
	TotalLength  float64
	// Dimensions holds the named dimension values A through L. Zero and
	// absent values are omitted.
	Dimensions map[string]float64

	BarSizeMapped   string
	GradeMapped     string
	ShapeCodeMapped string

	Status    string
	CreatedAt string
	UpdatedAt string
}

// MappingRuleRepository defines the secondary port for tenant mapping
// rules.
type MappingRuleRepository interface {
	// ListByTenant retrieves all rules for a tenant.
	ListByTenant(ctx context.Context, tenantID string) ([]*MappingRuleRecord, error)

	// Upsert inserts a rule or overwrites the mapped value of an existing
	// rule with the same (tenant, field, source value) key.
	Upsert(ctx context.Context, rule *MappingRuleRecord) error

	// Delete removes a rule.
	Delete(ctx context.Context, id string) error

	// GetNextID returns the next available rule ID.
	GetNextID(ctx context.Context) (string, error)
}

// MappingRuleRecord represents one tenant-scoped mapping rule.
type MappingRuleRecord struct {
	ID          string
	TenantID    string
	SourceField string // bar_size | grade | shape_code
	SourceValue string
	MappedValue string
	IsAuto      bool // learned by a heuristic rather than user-authored
	CreatedAt   string
	UpdatedAt   string
}

// IssueRepository defines the secondary port for validation issues.
// Issues are a derived snapshot: every validation run replaces the
// session's previous issues wholesale.
type IssueRepository interface {
	// ReplaceForSession deletes the session's issues and inserts the
	// given set atomically.
	ReplaceForSession(ctx context.Context, sessionID string, issues []*IssueRecord) error

	// ListBySession retrieves all issues of a session.
	ListBySession(ctx context.Context, sessionID string) ([]*IssueRecord, error)

	// CountBlockers returns the number of blocker-severity issues.
	CountBlockers(ctx context.Context, sessionID string) (int, error)
}

// IssueRecord represents one validation issue.
type IssueRecord struct {
	ID        string
	SessionID string
	RowID     string
	Field     string
	Severity  string // blocker | warning
	Message   string
	CreatedAt string
}
