package engine

import "github.com/campusops/triagecore/api/schemas"

// confidence measures evidence completeness, independent of the score
// itself. It starts from the configured base and adds a fixed increment per
// piece of explicitly supplied evidence, meaning a field the normalizer did not
// have to default. A result computed mostly from defaults is mechanically
// valid but comes back low-confidence so consumers can ask the reporter for
// more detail before acting on it.
func (e *Engine) confidence(in schemas.PriorityInput) float64 {
	w := e.cfg.Confidence
	v := w.Base

	if !in.Defaulted.Has(schemas.FieldSeverity) {
		v += w.ExplicitSeverity
	}
	if in.Description != "" && len(in.Description) >= w.DescriptionMinLen {
		v += w.Description
	}
	if in.BuildingID != "" {
		v += w.BuildingID
	}
	if in.RoomID != "" {
		v += w.RoomID
	}
	if !in.Defaulted.Has(schemas.FieldReportedAt) {
		v += w.ReportedAt
	}
	if !in.Defaulted.Has(schemas.FieldOccupancy) {
		v += w.Occupancy
	}
	if e.impactFlagsExplicit(in) {
		v += w.ImpactFlags
	}
	if !in.Defaulted.Has(schemas.FieldExamPeriod) {
		v += w.ExamPeriod
	}
	if !in.Defaulted.Has(schemas.FieldCurrentSemester) {
		v += w.CurrentSemester
	}
	if !in.Defaulted.Has(schemas.FieldIsRecurring) || !in.Defaulted.Has(schemas.FieldPreviousOccurrences) {
		v += w.Recurrence
	}

	return round2(clamp(v, 0, 1))
}

// impactFlagsExplicit reports whether the caller supplied at least one of
// the four impact flags. They count as one evidence group; reporters rarely
// set some flags without having considered the others.
func (e *Engine) impactFlagsExplicit(in schemas.PriorityInput) bool {
	return !in.Defaulted.Has(schemas.FieldBlocksAccess) ||
		!in.Defaulted.Has(schemas.FieldSafetyRisk) ||
		!in.Defaulted.Has(schemas.FieldCriticalInfrastructure) ||
		!in.Defaulted.Has(schemas.FieldAffectsAcademics)
}
