package secondary

import "context"

// AuditLog defines the interface for writing append-only audit events.
// Implementations extract the actor from context. Events are deduplicated
// on (entity, event type) so retried operations do not double-log.
type AuditLog interface {
	// Event records an audit event for an entity. Recording the same
	// (entityID, eventType) pair again is a silent no-op.
	Event(ctx context.Context, entityType, entityID, eventType, detail string) error

	// ListByEntity retrieves the events of one entity in record order.
	ListByEntity(ctx context.Context, entityID string) ([]*AuditEventRecord, error)
}

// AuditEventRecord represents one audit trail entry.
type AuditEventRecord struct {
	ID         string
	EntityType string
	EntityID   string
	EventType  string
	Actor      string
	Detail     string
	CreatedAt  string
}
