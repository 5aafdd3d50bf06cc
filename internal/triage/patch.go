package triage

import (
	"github.com/campusops/triagecore/api/schemas"
)

// Patch is a partial update to a stored issue. Nil fields are left alone.
// Every field except Status is scoring-relevant: setting one triggers a
// fresh score computation. Supplying an explicit value also clears the
// field's defaulted mark, so the confidence of the recomputed score reflects
// the new evidence.
type Patch struct {
	Status *schemas.IssueStatus `json:"status,omitempty"`

	Severity               *int    `json:"severity,omitempty"`
	Description            *string `json:"description,omitempty"`
	Occupancy              *int    `json:"occupancy,omitempty"`
	BlocksAccess           *bool   `json:"blocksAccess,omitempty"`
	SafetyRisk             *bool   `json:"safetyRisk,omitempty"`
	CriticalInfrastructure *bool   `json:"criticalInfrastructure,omitempty"`
	AffectsAcademics       *bool   `json:"affectsAcademics,omitempty"`
	IsRecurring            *bool   `json:"isRecurring,omitempty"`
	PreviousOccurrences    *int    `json:"previousOccurrences,omitempty"`
}

// touchesScoring reports whether applying the patch changes any input the
// engine reads.
func (p Patch) touchesScoring() bool {
	return p.Severity != nil ||
		p.Description != nil ||
		p.Occupancy != nil ||
		p.BlocksAccess != nil ||
		p.SafetyRisk != nil ||
		p.CriticalInfrastructure != nil ||
		p.AffectsAcademics != nil ||
		p.IsRecurring != nil ||
		p.PreviousOccurrences != nil
}

func (p Patch) validate() error {
	if p.Status != nil {
		switch *p.Status {
		case schemas.StatusOpen, schemas.StatusInProgress, schemas.StatusResolved, schemas.StatusClosed:
		default:
			return &schemas.ValidationError{Field: "status", Reason: "unknown workflow state"}
		}
	}
	return nil
}

// apply writes the patch into the record's input, clearing the defaulted
// mark for each field the caller supplied explicitly.
func (p Patch) apply(rec *schemas.IssueRecord) {
	if p.Status != nil {
		rec.Status = *p.Status
	}
	if p.Severity != nil {
		v := *p.Severity
		rec.Input.Severity = &v
		rec.Input.Defaulted.Clear(schemas.FieldSeverity)
	}
	if p.Description != nil {
		rec.Input.Description = *p.Description
	}
	if p.Occupancy != nil {
		v := *p.Occupancy
		rec.Input.Occupancy = &v
		rec.Input.Defaulted.Clear(schemas.FieldOccupancy)
	}
	if p.BlocksAccess != nil {
		v := *p.BlocksAccess
		rec.Input.BlocksAccess = &v
		rec.Input.Defaulted.Clear(schemas.FieldBlocksAccess)
	}
	if p.SafetyRisk != nil {
		v := *p.SafetyRisk
		rec.Input.SafetyRisk = &v
		rec.Input.Defaulted.Clear(schemas.FieldSafetyRisk)
	}
	if p.CriticalInfrastructure != nil {
		v := *p.CriticalInfrastructure
		rec.Input.CriticalInfrastructure = &v
		rec.Input.Defaulted.Clear(schemas.FieldCriticalInfrastructure)
	}
	if p.AffectsAcademics != nil {
		v := *p.AffectsAcademics
		rec.Input.AffectsAcademics = &v
		rec.Input.Defaulted.Clear(schemas.FieldAffectsAcademics)
	}
	if p.IsRecurring != nil {
		v := *p.IsRecurring
		rec.Input.IsRecurring = &v
		rec.Input.Defaulted.Clear(schemas.FieldIsRecurring)
	}
	if p.PreviousOccurrences != nil {
		v := *p.PreviousOccurrences
		rec.Input.PreviousOccurrences = &v
		rec.Input.Defaulted.Clear(schemas.FieldPreviousOccurrences)
	}
}
