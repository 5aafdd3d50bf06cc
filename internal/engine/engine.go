// Package engine implements the deterministic priority scoring pipeline:
// normalize -> six independent sub-scores -> weighted aggregate -> tier,
// confidence, reasoning and SLA. The whole pipeline is a pure function of
// the input plus the bound ScoringConfig; it performs no I/O, reads no
// clock, and holds no mutable state, so one Engine value is safe for
// concurrent use and the same input always yields a bit-identical result.
package engine

import (
	"context"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/campusops/triagecore/api/schemas"
)

// Engine binds a validated scoring calibration. The zero value is not
// usable; construct with New.
type Engine struct {
	cfg ScoringConfig
}

// New validates cfg and returns an Engine bound to it. The config is copied
// by value; callers must not mutate the table maps afterwards.
func New(cfg ScoringConfig) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Engine{cfg: cfg}, nil
}

// Config returns the bound calibration.
func (e *Engine) Config() ScoringConfig { return e.cfg }

// CalculatePriority scores one issue. It returns a ValidationError when the
// input lacks a category; every other degradation is absorbed into defaults
// and reflected in the confidence value instead of failing; a missing score
// is operationally worse than an approximate one.
func (e *Engine) CalculatePriority(in schemas.PriorityInput) (schemas.PriorityResult, error) {
	norm, err := e.Normalize(in)
	if err != nil {
		return schemas.PriorityResult{}, err
	}

	breakdown := schemas.Breakdown{
		Category:   round2(e.categoryScore(norm)),
		Severity:   round2(e.severityScore(norm)),
		Impact:     round2(e.impactScore(norm)),
		Urgency:    round2(e.urgencyScore(norm)),
		Context:    round2(e.contextScore(norm)),
		Historical: round2(e.historicalScore(norm)),
	}

	score := e.aggregate(breakdown)
	tier := e.classify(score)

	return schemas.PriorityResult{
		Score:          score,
		Priority:       tier,
		Confidence:     e.confidence(norm),
		Breakdown:      breakdown,
		Reasoning:      e.reasoning(norm, breakdown),
		RecommendedSLA: e.recommendSLA(score, tier),
	}, nil
}

// aggregate combines the six sub-scores into the composite [0,100] score.
// Each sub-score is weighted and the total rescaled so the maximum
// attainable value is exactly 100; rescaling rather than hard-clamping
// preserves the relative order of high-risk issues. Raising any single
// sub-score can only raise the result.
func (e *Engine) aggregate(b schemas.Breakdown) float64 {
	w := e.cfg.Aggregate
	weighted := w.Category*b.Category +
		w.Severity*b.Severity +
		w.Impact*b.Impact +
		w.Urgency*b.Urgency +
		w.Context*b.Context +
		w.Historical*b.Historical
	score := weighted / (subScoreMax * w.Sum()) * 100
	return round2(clamp(score, 0, 100))
}

// classify maps a score onto its tier. Bounds are inclusive on the lower
// edge, so an exact boundary resolves to the higher tier: over-prioritizing
// beats under-prioritizing.
func (e *Engine) classify(score float64) schemas.Tier {
	t := e.cfg.Tiers
	switch {
	case score >= t.Critical:
		return schemas.TierCritical
	case score >= t.High:
		return schemas.TierHigh
	case score >= t.Medium:
		return schemas.TierMedium
	default:
		return schemas.TierLow
	}
}

// ScoreBatch scores a slice of inputs concurrently. Results come back in
// input order regardless of scheduling, so batch output is as deterministic
// as the single-input path. The first invalid input fails the whole batch
// with its index wrapped into the error.
func (e *Engine) ScoreBatch(ctx context.Context, inputs []schemas.PriorityInput) ([]schemas.PriorityResult, error) {
	results := make([]schemas.PriorityResult, len(inputs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))

	for i := range inputs {
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			res, err := e.CalculatePriority(inputs[i])
			if err != nil {
				return fmt.Errorf("input %d: %w", i, err)
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
