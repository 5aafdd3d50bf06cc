package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campusops/triagecore/api/schemas"
)

func TestDefaultScoringConfig_Valid(t *testing.T) {
	t.Parallel()
	cfg := DefaultScoringConfig()
	require.NoError(t, cfg.Validate())

	// Every known category must be calibrated, and the aggregate weights
	// must form a convex combination.
	assert.Len(t, cfg.CategoryWeights, len(schemas.Categories()))
	assert.Len(t, cfg.DefaultSeverities, len(schemas.Categories()))
	assert.InDelta(t, 1.0, cfg.Aggregate.Sum(), 1e-9)
}

func TestScoringConfig_Validate_Rejections(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		mutate  func(*ScoringConfig)
		wantErr string
	}{
		{
			name:    "version not semver",
			mutate:  func(c *ScoringConfig) { c.Version = "calibration-one" },
			wantErr: "not semver",
		},
		{
			name: "category without weight",
			mutate: func(c *ScoringConfig) {
				delete(c.CategoryWeights, schemas.CategoryPlumbing)
			},
			wantErr: "has no weight",
		},
		{
			name: "category weight above ceiling",
			mutate: func(c *ScoringConfig) {
				c.CategoryWeights[schemas.CategorySafety] = 21
			},
			wantErr: "outside [0,20]",
		},
		{
			name: "weight keyed by unknown category",
			mutate: func(c *ScoringConfig) {
				c.CategoryWeights[schemas.Category("graffiti")] = 5
			},
			wantErr: "unknown category",
		},
		{
			name: "category without default severity",
			mutate: func(c *ScoringConfig) {
				delete(c.DefaultSeverities, schemas.CategoryHVAC)
			},
			wantErr: "has no default severity",
		},
		{
			name: "default severity out of range",
			mutate: func(c *ScoringConfig) {
				c.DefaultSeverities[schemas.CategoryOther] = 11
			},
			wantErr: "outside [1,10]",
		},
		{
			name:    "negative impact boost",
			mutate:  func(c *ScoringConfig) { c.Impact.SafetyRisk = -1 },
			wantErr: "impact boost",
		},
		{
			name:    "occupancy reference not positive",
			mutate:  func(c *ScoringConfig) { c.Impact.OccupancyRef = 0 },
			wantErr: "occupancy_ref",
		},
		{
			name: "inverted peak window",
			mutate: func(c *ScoringConfig) {
				c.Urgency.PeakStartHour = 20
				c.Urgency.PeakEndHour = 7
			},
			wantErr: "peak window",
		},
		{
			name:    "context base above ceiling",
			mutate:  func(c *ScoringConfig) { c.Context.NeutralBase = 25 },
			wantErr: "neutral_base",
		},
		{
			name:    "occurrence cap below one",
			mutate:  func(c *ScoringConfig) { c.Historical.OccurrenceCap = 0 },
			wantErr: "occurrence_cap",
		},
		{
			name:    "aggregate weight not positive",
			mutate:  func(c *ScoringConfig) { c.Aggregate.Historical = 0 },
			wantErr: "must be positive",
		},
		{
			name:    "aggregate weights not summing to one",
			mutate:  func(c *ScoringConfig) { c.Aggregate.Category = 0.5 },
			wantErr: "sum to",
		},
		{
			name: "tier thresholds out of order",
			mutate: func(c *ScoringConfig) {
				c.Tiers.Medium = 70
				c.Tiers.High = 60
			},
			wantErr: "tier thresholds",
		},
		{
			name:    "critical threshold above 100",
			mutate:  func(c *ScoringConfig) { c.Tiers.Critical = 101 },
			wantErr: "tier thresholds",
		},
		{
			name:    "sla band inverted",
			mutate:  func(c *ScoringConfig) { c.SLA.High = SLABand{Min: 24, Max: 12} },
			wantErr: "1 <= min <= max",
		},
		{
			name:    "sla band below one hour",
			mutate:  func(c *ScoringConfig) { c.SLA.Critical = SLABand{Min: 0, Max: 4} },
			wantErr: "1 <= min <= max",
		},
		{
			name: "sla bands overlapping",
			mutate: func(c *ScoringConfig) {
				c.SLA.Critical = SLABand{Min: 2, Max: 13}
			},
			wantErr: "overlaps",
		},
		{
			name:    "confidence base above one",
			mutate:  func(c *ScoringConfig) { c.Confidence.Base = 1.5 },
			wantErr: "confidence base",
		},
		{
			name:    "negative confidence increment",
			mutate:  func(c *ScoringConfig) { c.Confidence.RoomID = -0.05 },
			wantErr: "confidence increment",
		},
		{
			name:    "negative description minimum length",
			mutate:  func(c *ScoringConfig) { c.Confidence.DescriptionMinLen = -1 },
			wantErr: "description_min_len",
		},
		{
			name:    "negative reasoning threshold",
			mutate:  func(c *ScoringConfig) { c.ReasoningThreshold = -2 },
			wantErr: "reasoning_threshold",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			cfg := DefaultScoringConfig()
			tc.mutate(&cfg)

			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestSLATable_Band_UnknownTierFallsBackToLow(t *testing.T) {
	t.Parallel()
	table := DefaultScoringConfig().SLA

	assert.Equal(t, table.Low, table.Band(schemas.Tier("unheard-of")))
	assert.Equal(t, table.Critical, table.Band(schemas.TierCritical))
}

func TestAggregateWeights_Sum(t *testing.T) {
	t.Parallel()
	w := AggregateWeights{Category: 1, Severity: 2, Impact: 3, Urgency: 4, Context: 5, Historical: 6}
	assert.InDelta(t, 21.0, w.Sum(), 1e-9)
}
