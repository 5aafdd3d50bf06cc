package triage

import (
	"context"

	"go.uber.org/zap"

	"github.com/campusops/triagecore/api/schemas"
)

// LogBroadcaster is the development fan-out: every lifecycle event is written
// to the structured log with its routing fields. The production fan-out
// (websocket hub, message bus) plugs in behind the same interface.
type LogBroadcaster struct {
	log *zap.Logger
}

// NewLogBroadcaster creates a broadcaster that logs instead of delivering.
func NewLogBroadcaster(logger *zap.Logger) *LogBroadcaster {
	return &LogBroadcaster{log: logger.Named("broadcast")}
}

// Publish implements schemas.Broadcaster.
func (b *LogBroadcaster) Publish(_ context.Context, event schemas.LifecycleEvent) error {
	b.log.Info("Lifecycle event.",
		zap.String("type", string(event.Type)),
		zap.String("issue_id", event.IssueID),
		zap.String("org_id", event.OrgID),
		zap.String("campus_id", event.CampusID),
		zap.String("building_id", event.BuildingID),
		zap.String("priority", string(event.Priority)),
		zap.Float64("score", event.Score))
	return nil
}
