package engine

import (
	"math"

	"github.com/campusops/triagecore/api/schemas"
)

// recommendSLA maps the tier onto its response-time band and nudges the
// recommendation within the band by where the score sits inside the tier's
// score range: higher within the tier means a shorter SLA. The result never
// crosses into a neighboring tier's band and is always at least one hour.
func (e *Engine) recommendSLA(score float64, tier schemas.Tier) int {
	band := e.cfg.SLA.Band(tier)
	lo, hi := e.tierScoreRange(tier)

	pos := 0.0
	if span := hi - lo; span > 0 {
		pos = clamp((score-lo)/span, 0, 1)
	}

	hours := float64(band.Max) - pos*float64(band.Max-band.Min)
	h := int(math.Round(hours))
	if h < band.Min {
		h = band.Min
	}
	if h > band.Max {
		h = band.Max
	}
	if h < 1 {
		h = 1
	}
	return h
}

// tierScoreRange returns the score interval a tier covers. The critical
// range is closed at 100; the others are half-open at the next threshold.
func (e *Engine) tierScoreRange(tier schemas.Tier) (lo, hi float64) {
	t := e.cfg.Tiers
	switch tier {
	case schemas.TierCritical:
		return t.Critical, 100
	case schemas.TierHigh:
		return t.High, t.Critical
	case schemas.TierMedium:
		return t.Medium, t.High
	default:
		return 0, t.Medium
	}
}
