package schemas

import "time"

// -- Issue Lifecycle Schemas --

// IssueStatus tracks an issue through the triage workflow. The values are
// lowercase to align with document-store ENUMs.
type IssueStatus string

// Constants defining the issue workflow states.
const (
	StatusOpen       IssueStatus = "open"        // Reported, awaiting triage.
	StatusInProgress IssueStatus = "in_progress" // Assigned and being worked.
	StatusResolved   IssueStatus = "resolved"    // Work complete, pending confirmation.
	StatusClosed     IssueStatus = "closed"      // Confirmed and archived.
)

// IssueRecord is the persisted form of a reported issue: the canonical
// scoring input plus the score/priority snapshot the triage workflow stores
// alongside it. Snapshot fields are replaced wholesale on rescore, never
// mutated piecemeal.
type IssueRecord struct {
	ID       string `json:"id"`                 // Unique issue identifier.
	OrgID    string `json:"orgId,omitempty"`    // Owning organization, used for broadcast scoping.
	CampusID string `json:"campusId,omitempty"` // Campus within the organization.

	Input  PriorityInput  `json:"input"`  // Normalized scoring input as of the last write.
	Result PriorityResult `json:"result"` // Score snapshot computed from Input.

	Status    IssueStatus `json:"status"`    // Current workflow state.
	CreatedAt time.Time   `json:"createdAt"` // First persisted.
	UpdatedAt time.Time   `json:"updatedAt"` // Last persisted.
}

// Clone returns a deep copy safe to hand across goroutines or mutate.
func (r IssueRecord) Clone() IssueRecord {
	out := r
	out.Input = r.Input.Clone()
	out.Result = r.Result.Clone()
	return out
}

// Snapshot projects the record down to the fields historical analytics
// consumes.
func (r IssueRecord) Snapshot() IssueSnapshot {
	snap := IssueSnapshot{
		ID:         r.ID,
		Category:   r.Input.Category,
		Tier:       r.Result.Priority,
		BuildingID: r.Input.BuildingID,
	}
	if r.Input.Severity != nil {
		snap.Severity = *r.Input.Severity
	}
	if r.Input.ReportedAt != nil {
		snap.ReportedAt = *r.Input.ReportedAt
	}
	return snap
}

// IssueSnapshot is the slice of an issue record that historical analytics
// reads. Keeping it flat and value-typed lets analytics stay free of store
// concerns.
type IssueSnapshot struct {
	ID         string    `json:"id"`
	Category   Category  `json:"category"`
	Severity   int       `json:"severity"`
	Tier       Tier      `json:"tier"`
	BuildingID string    `json:"buildingId,omitempty"`
	ReportedAt time.Time `json:"reportedAt"`
}

// EventType labels a lifecycle broadcast.
type EventType string

// Constants for the lifecycle events the triage workflow emits.
const (
	EventIssueCreated  EventType = "issue.created"  // New issue persisted and scored.
	EventIssueUpdated  EventType = "issue.updated"  // Existing issue changed; score may have been recomputed.
	EventIssueRescored EventType = "issue.rescored" // Score snapshot recomputed on demand.
)

// LifecycleEvent is the message handed to the fan-out layer after an issue
// write is durably persisted, never before, so subscribers can only observe
// committed scores. Routing fields let the fan-out layer scope delivery by
// organization, campus, and building.
type LifecycleEvent struct {
	Type       EventType `json:"type"`
	IssueID    string    `json:"issueId"`
	OrgID      string    `json:"orgId,omitempty"`
	CampusID   string    `json:"campusId,omitempty"`
	BuildingID string    `json:"buildingId,omitempty"`
	Priority   Tier      `json:"priority"`   // Tier snapshot at the time of the write.
	Score      float64   `json:"score"`      // Score snapshot at the time of the write.
	OccurredAt time.Time `json:"occurredAt"` // When the write was persisted.
}
