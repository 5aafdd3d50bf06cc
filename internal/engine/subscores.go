package engine

import (
	"math"
	"time"

	"github.com/campusops/triagecore/api/schemas"
)

// The six calculators below are total functions over normalized inputs:
// anything out of range is clamped into [0,subScoreMax], never rejected.
// None of them reads another's output, so the breakdown stays independently
// auditable.

// categoryScore is a direct lookup in the category weight table.
func (e *Engine) categoryScore(in schemas.PriorityInput) float64 {
	return clamp(e.cfg.CategoryWeights[in.Category], 0, subScoreMax)
}

// severityScore scales the 1-10 severity grade linearly onto [0,20].
func (e *Engine) severityScore(in schemas.PriorityInput) float64 {
	return clamp(float64(*in.Severity)/10*subScoreMax, 0, subScoreMax)
}

// impactScore sums fixed boosts for each raised impact flag plus a
// logarithmic occupancy term, so a crowded lecture hall outranks an empty
// storeroom without any single factor dominating.
func (e *Engine) impactScore(in schemas.PriorityInput) float64 {
	w := e.cfg.Impact
	s := 0.0
	if *in.SafetyRisk {
		s += w.SafetyRisk
	}
	if *in.BlocksAccess {
		s += w.BlocksAccess
	}
	if *in.CriticalInfrastructure {
		s += w.CriticalInfrastructure
	}
	if *in.AffectsAcademics {
		s += w.AffectsAcademics
	}
	if occ := *in.Occupancy; occ > 0 {
		s += w.OccupancyCap * math.Log1p(float64(occ)) / math.Log1p(float64(w.OccupancyRef))
	}
	return clamp(s, 0, subScoreMax)
}

// urgencyScore derives temporal pressure from the academic calendar and the
// report clock. A zero ReportedAt earns no time-of-day or weekday boost;
// scoring must stay a pure function of the input, so the engine never
// substitutes the current time.
func (e *Engine) urgencyScore(in schemas.PriorityInput) float64 {
	w := e.cfg.Urgency
	s := 0.0
	if *in.CurrentSemester {
		s += w.CurrentSemester
	}
	if *in.ExamPeriod {
		s += w.ExamPeriod
	}
	if t := *in.ReportedAt; !t.IsZero() {
		if h := t.Hour(); h >= w.PeakStartHour && h < w.PeakEndHour {
			s += w.PeakHours
		}
		switch t.Weekday() {
		case time.Saturday, time.Sunday:
		default:
			s += w.Weekday
		}
	}
	return clamp(s, 0, subScoreMax)
}

// contextScore captures location/academic relevance independent of timing.
// With no metadata it sits exactly at the neutral base, so absence never
// drags the total toward low risk.
func (e *Engine) contextScore(in schemas.PriorityInput) float64 {
	w := e.cfg.Context
	s := w.NeutralBase
	if in.BuildingType != "" {
		s += w.BuildingTypes[in.BuildingType]
	}
	if *in.IsTeachingSpace {
		s += w.TeachingSpace
	}
	return clamp(s, 0, subScoreMax)
}

// historicalScore rewards recurrence with a fixed boost plus a contribution
// that saturates at the occurrence cap, so a chronically re-reported
// nuisance cannot ratchet its way to critical.
func (e *Engine) historicalScore(in schemas.PriorityInput) float64 {
	w := e.cfg.Historical
	s := 0.0
	if *in.IsRecurring {
		s += w.RecurringBoost
	}
	prev := *in.PreviousOccurrences
	if prev > w.OccurrenceCap {
		prev = w.OccurrenceCap
	}
	s += float64(prev) / float64(w.OccurrenceCap) * w.OccurrenceBudget
	return clamp(s, 0, subScoreMax)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// round2 rounds half away from zero to two decimals, the precision every
// exported score carries.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
