// Package triage implements the issue workflow on top of the scoring engine:
// create, update, and rescore persisted issues, and derive building reports
// from their history. The package owns the persist-then-broadcast ordering
// contract: a lifecycle event is only ever published for a write that is
// already durably stored.
package triage

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/campusops/triagecore/api/schemas"
	"github.com/campusops/triagecore/internal/analytics"
	"github.com/campusops/triagecore/internal/engine"
)

// Service coordinates scoring, persistence, and event fan-out. The clock is
// injected so the workflow stays deterministic under test; the engine itself
// never reads one.
type Service struct {
	engine      *engine.Engine
	store       schemas.IssueStore
	broadcaster schemas.Broadcaster
	now         func() time.Time
	log         *zap.Logger
}

// NewService wires a workflow service. A nil now defaults to time.Now.
func NewService(eng *engine.Engine, store schemas.IssueStore, broadcaster schemas.Broadcaster, now func() time.Time, logger *zap.Logger) *Service {
	if now == nil {
		now = time.Now
	}
	return &Service{
		engine:      eng,
		store:       store,
		broadcaster: broadcaster,
		now:         now,
		log:         logger.Named("triage"),
	}
}

// CreateIssue scores a new report and persists it under a fresh ID. The
// report timestamp defaults to the service clock before scoring so the
// engine sees a complete input. The issue.created event is published only
// after the record is durably stored; a failed persist produces no event.
func (s *Service) CreateIssue(ctx context.Context, input schemas.PriorityInput) (schemas.IssueRecord, error) {
	now := s.now().UTC()

	input = input.Clone()
	if input.ReportedAt == nil {
		reportedAt := now
		input.ReportedAt = &reportedAt
	}

	// The record keeps the normalized form, so the defaulted-field marks are
	// persisted alongside the values they explain.
	norm, err := s.engine.Normalize(input)
	if err != nil {
		return schemas.IssueRecord{}, err
	}
	result, err := s.engine.CalculatePriority(norm)
	if err != nil {
		return schemas.IssueRecord{}, err
	}

	rec := schemas.IssueRecord{
		ID:        uuid.NewString(),
		Input:     norm,
		Result:    result,
		Status:    schemas.StatusOpen,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.store.SaveIssue(ctx, rec); err != nil {
		return schemas.IssueRecord{}, fmt.Errorf("persisting issue: %w", err)
	}
	s.publish(ctx, schemas.EventIssueCreated, rec, now)

	s.log.Info("Issue created.",
		zap.String("issue_id", rec.ID),
		zap.String("building_id", rec.Input.BuildingID),
		zap.String("priority", string(rec.Result.Priority)),
		zap.Float64("score", rec.Result.Score))
	return rec, nil
}

// GetIssue fetches one issue by ID.
func (s *Service) GetIssue(ctx context.Context, id string) (schemas.IssueRecord, error) {
	return s.store.GetIssue(ctx, id)
}

// UpdateIssue applies a patch to a stored issue. The score snapshot is
// recomputed only when a scoring-relevant field changed; status-only patches
// leave it untouched. Persist happens before the issue.updated broadcast.
func (s *Service) UpdateIssue(ctx context.Context, id string, patch Patch) (schemas.IssueRecord, error) {
	rec, err := s.store.GetIssue(ctx, id)
	if err != nil {
		return schemas.IssueRecord{}, err
	}

	if err := patch.validate(); err != nil {
		return schemas.IssueRecord{}, err
	}

	rescore := patch.touchesScoring()
	patch.apply(&rec)

	if rescore {
		// Renormalize so patched values are clamped and the stored input
		// stays in canonical form.
		norm, err := s.engine.Normalize(rec.Input)
		if err != nil {
			return schemas.IssueRecord{}, err
		}
		rec.Input = norm

		result, err := s.engine.CalculatePriority(norm)
		if err != nil {
			return schemas.IssueRecord{}, err
		}
		rec.Result = result
	}

	now := s.now().UTC()
	rec.UpdatedAt = now

	if err := s.store.SaveIssue(ctx, rec); err != nil {
		return schemas.IssueRecord{}, fmt.Errorf("persisting issue update: %w", err)
	}
	s.publish(ctx, schemas.EventIssueUpdated, rec, now)

	s.log.Info("Issue updated.",
		zap.String("issue_id", rec.ID),
		zap.Bool("rescored", rescore),
		zap.String("status", string(rec.Status)))
	return rec, nil
}

// Rescore recomputes the score snapshot of a stored issue from its persisted
// input. The snapshot is replaced wholesale, never patched field by field.
func (s *Service) Rescore(ctx context.Context, id string) (schemas.IssueRecord, error) {
	rec, err := s.store.GetIssue(ctx, id)
	if err != nil {
		return schemas.IssueRecord{}, err
	}

	result, err := s.engine.CalculatePriority(rec.Input)
	if err != nil {
		return schemas.IssueRecord{}, err
	}
	rec.Result = result

	now := s.now().UTC()
	rec.UpdatedAt = now

	if err := s.store.SaveIssue(ctx, rec); err != nil {
		return schemas.IssueRecord{}, fmt.Errorf("persisting rescore: %w", err)
	}
	s.publish(ctx, schemas.EventIssueRescored, rec, now)

	s.log.Info("Issue rescored.",
		zap.String("issue_id", rec.ID),
		zap.String("priority", string(rec.Result.Priority)),
		zap.Float64("score", rec.Result.Score))
	return rec, nil
}

// BuildingReport loads a building's issue history and derives the analytics
// report at the given reference time. A zero asOf means the service clock.
func (s *Service) BuildingReport(ctx context.Context, buildingID string, asOf time.Time) (analytics.Report, error) {
	if asOf.IsZero() {
		asOf = s.now().UTC()
	}

	records, err := s.store.ListByBuilding(ctx, buildingID)
	if err != nil {
		return analytics.Report{}, fmt.Errorf("loading building history: %w", err)
	}

	history := make([]schemas.IssueSnapshot, 0, len(records))
	for _, rec := range records {
		history = append(history, rec.Snapshot())
	}
	return analytics.BuildReport(buildingID, history, asOf), nil
}

// publish delivers a lifecycle event for an already-persisted write. A
// publish failure is logged and swallowed: the write stands regardless of
// whether subscribers heard about it.
func (s *Service) publish(ctx context.Context, eventType schemas.EventType, rec schemas.IssueRecord, at time.Time) {
	event := schemas.LifecycleEvent{
		Type:       eventType,
		IssueID:    rec.ID,
		OrgID:      rec.OrgID,
		CampusID:   rec.CampusID,
		BuildingID: rec.Input.BuildingID,
		Priority:   rec.Result.Priority,
		Score:      rec.Result.Score,
		OccurredAt: at,
	}
	if err := s.broadcaster.Publish(ctx, event); err != nil {
		s.log.Warn("Lifecycle broadcast failed.",
			zap.String("issue_id", rec.ID),
			zap.String("event_type", string(eventType)),
			zap.Error(err))
	}
}
