package schemas

import (
	"context"
	"errors"
)

// -- Store Interface --

// ErrIssueNotFound is returned by IssueStore implementations when no record
// matches the requested ID.
var ErrIssueNotFound = errors.New("issue not found")

// IssueStore defines the interface to the document store that persists issue
// records. The production store is an external collaborator; this
// abstraction keeps the triage workflow independent of the implementation
// (hosted document database, in-memory, etc.).
type IssueStore interface {
	// SaveIssue durably persists a record, inserting or replacing by ID.
	SaveIssue(ctx context.Context, rec IssueRecord) error
	// GetIssue retrieves a record by ID, or ErrIssueNotFound.
	GetIssue(ctx context.Context, id string) (IssueRecord, error)
	// ListByBuilding retrieves every record reported for a building, in a
	// stable order.
	ListByBuilding(ctx context.Context, buildingID string) ([]IssueRecord, error)
}

// -- Fan-out Interface --

// Broadcaster is the real-time fan-out boundary. Implementations deliver
// lifecycle events to subscribers scoped by the event's routing fields.
// Callers must only publish events for writes that are already durably
// persisted; the triage workflow enforces that ordering.
type Broadcaster interface {
	// Publish delivers one lifecycle event. A failed publish does not
	// invalidate the persisted write.
	Publish(ctx context.Context, event LifecycleEvent) error
}
