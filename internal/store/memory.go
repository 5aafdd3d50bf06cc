// Package store provides the in-memory reference implementation of the issue
// store. The production document store is an external collaborator reached
// through schemas.IssueStore; this implementation backs the dev server and
// the workflow tests.
package store

import (
	"context"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/campusops/triagecore/api/schemas"
)

// Memory is a thread-safe, map-backed IssueStore. Records are deep-copied on
// the way in and out, so callers can never mutate stored state through a
// retained reference.
type Memory struct {
	log *zap.Logger

	mu     sync.RWMutex
	issues map[string]schemas.IssueRecord
}

// NewMemory creates an empty in-memory store.
func NewMemory(logger *zap.Logger) *Memory {
	return &Memory{
		log:    logger.Named("store"),
		issues: make(map[string]schemas.IssueRecord),
	}
}

// SaveIssue inserts or replaces a record by ID.
func (m *Memory) SaveIssue(ctx context.Context, rec schemas.IssueRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if rec.ID == "" {
		return &schemas.ValidationError{Field: "id", Reason: "required"}
	}

	m.mu.Lock()
	_, existed := m.issues[rec.ID]
	m.issues[rec.ID] = rec.Clone()
	m.mu.Unlock()

	m.log.Debug("Issue persisted.",
		zap.String("issue_id", rec.ID),
		zap.Bool("replaced", existed),
		zap.String("priority", string(rec.Result.Priority)))
	return nil
}

// GetIssue retrieves a record by ID, or schemas.ErrIssueNotFound.
func (m *Memory) GetIssue(ctx context.Context, id string) (schemas.IssueRecord, error) {
	if err := ctx.Err(); err != nil {
		return schemas.IssueRecord{}, err
	}

	m.mu.RLock()
	rec, ok := m.issues[id]
	m.mu.RUnlock()

	if !ok {
		return schemas.IssueRecord{}, schemas.ErrIssueNotFound
	}
	return rec.Clone(), nil
}

// ListByBuilding returns every record for a building, ordered by creation
// time and then ID so the output is stable across calls.
func (m *Memory) ListByBuilding(ctx context.Context, buildingID string) ([]schemas.IssueRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	var out []schemas.IssueRecord
	for _, rec := range m.issues {
		if rec.Input.BuildingID == buildingID {
			out = append(out, rec.Clone())
		}
	}
	m.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// Len reports the number of stored records.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.issues)
}
