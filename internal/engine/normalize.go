package engine

import (
	"strings"
	"time"

	"github.com/campusops/triagecore/api/schemas"
)

// Normalize canonicalizes a raw input: it coerces the category, fills every
// optional field with its documented default, clamps out-of-range values,
// and records which fields it had to supply in the Defaulted set. The result
// is a fixed point: normalizing an already-normalized input returns it
// unchanged, so callers may re-run inputs through the engine freely.
//
// The only failure is a missing category; every other degradation is
// absorbed into defaults and surfaces through the confidence estimate.
func (e *Engine) Normalize(in schemas.PriorityInput) (schemas.PriorityInput, error) {
	out := in.Clone()

	raw := strings.TrimSpace(string(in.Category))
	if raw == "" {
		return schemas.PriorityInput{}, &schemas.ValidationError{Field: "category", Reason: "required"}
	}
	out.Category = schemas.ParseCategory(raw)

	out.Description = strings.TrimSpace(in.Description)
	out.BuildingID = strings.TrimSpace(in.BuildingID)
	out.RoomID = strings.TrimSpace(in.RoomID)
	out.BuildingType = schemas.ParseBuildingType(string(in.BuildingType))

	if out.Severity == nil {
		sev := e.cfg.DefaultSeverities[out.Category]
		out.Severity = &sev
		out.Defaulted.Mark(schemas.FieldSeverity)
	} else {
		*out.Severity = clampInt(*out.Severity, 1, 10)
	}

	if out.Occupancy == nil {
		out.Occupancy = intPtr(0)
		out.Defaulted.Mark(schemas.FieldOccupancy)
	} else if *out.Occupancy < 0 {
		*out.Occupancy = 0
	}

	if out.ReportedAt == nil {
		out.ReportedAt = &time.Time{}
		out.Defaulted.Mark(schemas.FieldReportedAt)
	}

	if out.IsTeachingSpace == nil {
		out.IsTeachingSpace = boolPtr(false)
		out.Defaulted.Mark(schemas.FieldIsTeachingSpace)
	}
	if out.BlocksAccess == nil {
		out.BlocksAccess = boolPtr(false)
		out.Defaulted.Mark(schemas.FieldBlocksAccess)
	}
	if out.SafetyRisk == nil {
		out.SafetyRisk = boolPtr(false)
		out.Defaulted.Mark(schemas.FieldSafetyRisk)
	}
	if out.CriticalInfrastructure == nil {
		out.CriticalInfrastructure = boolPtr(false)
		out.Defaulted.Mark(schemas.FieldCriticalInfrastructure)
	}
	if out.AffectsAcademics == nil {
		out.AffectsAcademics = boolPtr(false)
		out.Defaulted.Mark(schemas.FieldAffectsAcademics)
	}
	if out.ExamPeriod == nil {
		out.ExamPeriod = boolPtr(false)
		out.Defaulted.Mark(schemas.FieldExamPeriod)
	}
	// The semester is assumed in session unless the caller says otherwise;
	// most of the academic year is, and under-prioritizing is the worse
	// failure mode.
	if out.CurrentSemester == nil {
		out.CurrentSemester = boolPtr(true)
		out.Defaulted.Mark(schemas.FieldCurrentSemester)
	}
	if out.IsRecurring == nil {
		out.IsRecurring = boolPtr(false)
		out.Defaulted.Mark(schemas.FieldIsRecurring)
	}
	if out.PreviousOccurrences == nil {
		out.PreviousOccurrences = intPtr(0)
		out.Defaulted.Mark(schemas.FieldPreviousOccurrences)
	} else if *out.PreviousOccurrences < 0 {
		*out.PreviousOccurrences = 0
	}

	return out, nil
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func intPtr(v int) *int { return &v }

func boolPtr(v bool) *bool { return &v }
