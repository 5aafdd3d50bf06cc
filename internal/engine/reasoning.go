package engine

import (
	"fmt"
	"sort"
	"strings"

	"github.com/campusops/triagecore/api/schemas"
)

// factor pairs one sub-score with its weighted contribution to the final
// score so the explanation is traceable back to the arithmetic.
type factor struct {
	name   string
	detail string
	points float64
}

// reasoning emits one short line per factor whose weighted contribution
// clears the materiality threshold, ordered by contribution descending.
// Ties keep the canonical factor order, so the list is fully deterministic.
// The output is advisory only; nothing parses it back into the pipeline.
func (e *Engine) reasoning(in schemas.PriorityInput, b schemas.Breakdown) []string {
	scale := 100 / (subScoreMax * e.cfg.Aggregate.Sum())
	w := e.cfg.Aggregate

	factors := []factor{
		{"category", e.categoryDetail(in), round2(w.Category * b.Category * scale)},
		{"severity", e.severityDetail(in), round2(w.Severity * b.Severity * scale)},
		{"impact", e.impactDetail(in), round2(w.Impact * b.Impact * scale)},
		{"urgency", e.urgencyDetail(in), round2(w.Urgency * b.Urgency * scale)},
		{"context", e.contextDetail(in), round2(w.Context * b.Context * scale)},
		{"historical", e.historicalDetail(in), round2(w.Historical * b.Historical * scale)},
	}

	sort.SliceStable(factors, func(i, j int) bool {
		return factors[i].points > factors[j].points
	})

	var lines []string
	for _, f := range factors {
		if f.points > e.cfg.ReasoningThreshold {
			lines = append(lines, fmt.Sprintf("%s: %s (+%.1f pts)", f.name, f.detail, f.points))
		}
	}
	return lines
}

func (e *Engine) categoryDetail(in schemas.PriorityInput) string {
	return fmt.Sprintf("%s baseline risk", in.Category)
}

func (e *Engine) severityDetail(in schemas.PriorityInput) string {
	if in.Defaulted.Has(schemas.FieldSeverity) {
		return fmt.Sprintf("severity %d of 10 (category default)", *in.Severity)
	}
	return fmt.Sprintf("severity %d of 10", *in.Severity)
}

func (e *Engine) impactDetail(in schemas.PriorityInput) string {
	var parts []string
	if *in.SafetyRisk {
		parts = append(parts, "safety risk")
	}
	if *in.BlocksAccess {
		parts = append(parts, "blocks access")
	}
	if *in.CriticalInfrastructure {
		parts = append(parts, "critical infrastructure")
	}
	if *in.AffectsAcademics {
		parts = append(parts, "affects academics")
	}
	if occ := *in.Occupancy; occ > 0 {
		parts = append(parts, fmt.Sprintf("occupancy %d", occ))
	}
	if len(parts) == 0 {
		return "no impact flags raised"
	}
	return strings.Join(parts, ", ")
}

func (e *Engine) urgencyDetail(in schemas.PriorityInput) string {
	var parts []string
	if *in.CurrentSemester {
		parts = append(parts, "semester in session")
	}
	if *in.ExamPeriod {
		parts = append(parts, "exam period")
	}
	if t := *in.ReportedAt; !t.IsZero() {
		w := e.cfg.Urgency
		if h := t.Hour(); h >= w.PeakStartHour && h < w.PeakEndHour {
			parts = append(parts, "reported during peak hours")
		}
	}
	if len(parts) == 0 {
		return "no temporal pressure"
	}
	return strings.Join(parts, ", ")
}

func (e *Engine) contextDetail(in schemas.PriorityInput) string {
	var parts []string
	if in.BuildingType != "" {
		parts = append(parts, fmt.Sprintf("%s building", in.BuildingType))
	}
	if *in.IsTeachingSpace {
		parts = append(parts, "teaching space")
	}
	if len(parts) == 0 {
		return "neutral (no location metadata)"
	}
	return strings.Join(parts, ", ")
}

func (e *Engine) historicalDetail(in schemas.PriorityInput) string {
	var parts []string
	if *in.IsRecurring {
		parts = append(parts, "recurring issue")
	}
	if n := *in.PreviousOccurrences; n > 0 {
		parts = append(parts, fmt.Sprintf("%d previous reports", n))
	}
	if len(parts) == 0 {
		return "no recurrence history"
	}
	return strings.Join(parts, ", ")
}
