package engine

import (
	"fmt"
	"math"

	"github.com/Masterminds/semver/v3"

	"github.com/campusops/triagecore/api/schemas"
)

// subScoreMax is the ceiling of every sub-score. Six sub-scores at the
// ceiling aggregate to exactly 100 under any weight table that sums to one.
const subScoreMax = 20.0

// ScoringConfig carries every tunable constant of the scoring pipeline. The
// tables are deliberately data, not code: operators recalibrate them from
// the config file (scoring.*) and review them with the `tables` command
// without touching the algorithm. A config must pass Validate before an
// Engine will bind it.
type ScoringConfig struct {
	// Version identifies the calibration, semver formatted. Persisted audit
	// trails use it to tell which table produced a score.
	Version string `mapstructure:"version" yaml:"version"`

	// CategoryWeights is the per-category baseline risk, each in [0,20].
	CategoryWeights map[schemas.Category]float64 `mapstructure:"category_weights" yaml:"category_weights"`

	// DefaultSeverities supplies a severity (1-10) when the reporter gave
	// none, keyed by category.
	DefaultSeverities map[schemas.Category]int `mapstructure:"default_severities" yaml:"default_severities"`

	Impact     ImpactWeights     `mapstructure:"impact" yaml:"impact"`
	Urgency    UrgencyWeights    `mapstructure:"urgency" yaml:"urgency"`
	Context    ContextWeights    `mapstructure:"context" yaml:"context"`
	Historical HistoricalWeights `mapstructure:"historical" yaml:"historical"`
	Aggregate  AggregateWeights  `mapstructure:"aggregate" yaml:"aggregate"`
	Tiers      TierThresholds    `mapstructure:"tiers" yaml:"tiers"`
	SLA        SLATable          `mapstructure:"sla" yaml:"sla"`
	Confidence ConfidenceWeights `mapstructure:"confidence" yaml:"confidence"`

	// ReasoningThreshold is the materiality bar, in final-score points, a
	// factor must exceed to appear in the reasoning list.
	ReasoningThreshold float64 `mapstructure:"reasoning_threshold" yaml:"reasoning_threshold"`
}

// ImpactWeights are the additive boosts feeding the impact sub-score.
type ImpactWeights struct {
	SafetyRisk             float64 `mapstructure:"safety_risk" yaml:"safety_risk"`
	BlocksAccess           float64 `mapstructure:"blocks_access" yaml:"blocks_access"`
	CriticalInfrastructure float64 `mapstructure:"critical_infrastructure" yaml:"critical_infrastructure"`
	AffectsAcademics       float64 `mapstructure:"affects_academics" yaml:"affects_academics"`

	// OccupancyCap bounds the occupancy contribution; OccupancyRef is the
	// occupancy at which the logarithmic term reaches the cap.
	OccupancyCap float64 `mapstructure:"occupancy_cap" yaml:"occupancy_cap"`
	OccupancyRef int     `mapstructure:"occupancy_ref" yaml:"occupancy_ref"`
}

// UrgencyWeights are the additive boosts feeding the urgency sub-score.
type UrgencyWeights struct {
	CurrentSemester float64 `mapstructure:"current_semester" yaml:"current_semester"`
	ExamPeriod      float64 `mapstructure:"exam_period" yaml:"exam_period"`
	PeakHours       float64 `mapstructure:"peak_hours" yaml:"peak_hours"`
	Weekday         float64 `mapstructure:"weekday" yaml:"weekday"`

	// Peak window in local hours, half-open [start,end).
	PeakStartHour int `mapstructure:"peak_start_hour" yaml:"peak_start_hour"`
	PeakEndHour   int `mapstructure:"peak_end_hour" yaml:"peak_end_hour"`
}

// ContextWeights shape the context sub-score. NeutralBase is the value used
// when no location metadata was supplied, so absence never skews the total
// toward low risk.
type ContextWeights struct {
	NeutralBase   float64                          `mapstructure:"neutral_base" yaml:"neutral_base"`
	TeachingSpace float64                          `mapstructure:"teaching_space" yaml:"teaching_space"`
	BuildingTypes map[schemas.BuildingType]float64 `mapstructure:"building_types" yaml:"building_types"`
}

// HistoricalWeights shape the recurrence sub-score. OccurrenceCap bounds how
// many prior reports still move the needle; OccurrenceBudget is the maximum
// contribution of the occurrence count once saturated.
type HistoricalWeights struct {
	RecurringBoost   float64 `mapstructure:"recurring_boost" yaml:"recurring_boost"`
	OccurrenceCap    int     `mapstructure:"occurrence_cap" yaml:"occurrence_cap"`
	OccurrenceBudget float64 `mapstructure:"occurrence_budget" yaml:"occurrence_budget"`
}

// AggregateWeights combine the six sub-scores into the composite score. They
// must be positive and sum to one.
type AggregateWeights struct {
	Category   float64 `mapstructure:"category" yaml:"category"`
	Severity   float64 `mapstructure:"severity" yaml:"severity"`
	Impact     float64 `mapstructure:"impact" yaml:"impact"`
	Urgency    float64 `mapstructure:"urgency" yaml:"urgency"`
	Context    float64 `mapstructure:"context" yaml:"context"`
	Historical float64 `mapstructure:"historical" yaml:"historical"`
}

// Sum returns the weight total.
func (w AggregateWeights) Sum() float64 {
	return w.Category + w.Severity + w.Impact + w.Urgency + w.Context + w.Historical
}

// TierThresholds map the score axis onto tiers. Each bound is inclusive, so
// a score sitting exactly on a boundary resolves to the higher tier.
type TierThresholds struct {
	Critical float64 `mapstructure:"critical" yaml:"critical"`
	High     float64 `mapstructure:"high" yaml:"high"`
	Medium   float64 `mapstructure:"medium" yaml:"medium"`
}

// SLABand is one tier's response-time window in whole hours.
type SLABand struct {
	Min int `mapstructure:"min" yaml:"min"` // Hours for a score at the top of the tier.
	Max int `mapstructure:"max" yaml:"max"` // Hours for a score at the bottom of the tier.
}

// SLATable maps tiers to response-time bands.
type SLATable struct {
	Critical SLABand `mapstructure:"critical" yaml:"critical"`
	High     SLABand `mapstructure:"high" yaml:"high"`
	Medium   SLABand `mapstructure:"medium" yaml:"medium"`
	Low      SLABand `mapstructure:"low" yaml:"low"`
}

// Band returns the SLA band for a tier. Unknown tiers fall back to the low
// band so the mapper stays total.
func (t SLATable) Band(tier schemas.Tier) SLABand {
	switch tier {
	case schemas.TierCritical:
		return t.Critical
	case schemas.TierHigh:
		return t.High
	case schemas.TierMedium:
		return t.Medium
	default:
		return t.Low
	}
}

// ConfidenceWeights are the evidence-completeness increments. Base is the
// floor for an input carrying nothing but a category.
type ConfidenceWeights struct {
	Base              float64 `mapstructure:"base" yaml:"base"`
	ExplicitSeverity  float64 `mapstructure:"explicit_severity" yaml:"explicit_severity"`
	Description       float64 `mapstructure:"description" yaml:"description"`
	DescriptionMinLen int     `mapstructure:"description_min_len" yaml:"description_min_len"`
	BuildingID        float64 `mapstructure:"building_id" yaml:"building_id"`
	RoomID            float64 `mapstructure:"room_id" yaml:"room_id"`
	ReportedAt        float64 `mapstructure:"reported_at" yaml:"reported_at"`
	Occupancy         float64 `mapstructure:"occupancy" yaml:"occupancy"`
	ImpactFlags       float64 `mapstructure:"impact_flags" yaml:"impact_flags"`
	ExamPeriod        float64 `mapstructure:"exam_period" yaml:"exam_period"`
	CurrentSemester   float64 `mapstructure:"current_semester" yaml:"current_semester"`
	Recurrence        float64 `mapstructure:"recurrence" yaml:"recurrence"`
}

// DefaultScoringConfig returns the shipped calibration. The numbers are the
// reviewed baseline; deployments override individual entries via
// configuration rather than editing code.
func DefaultScoringConfig() ScoringConfig {
	return ScoringConfig{
		Version: "1.0.0",
		CategoryWeights: map[schemas.Category]float64{
			schemas.CategorySafety:      20,
			schemas.CategoryStructural:  18,
			schemas.CategoryElectrical:  16,
			schemas.CategoryPlumbing:    14,
			schemas.CategoryHVAC:        12,
			schemas.CategoryNetwork:     11,
			schemas.CategoryMaintenance: 9,
			schemas.CategoryOther:       8,
			schemas.CategoryCleanliness: 6,
			schemas.CategoryFurniture:   4,
		},
		DefaultSeverities: map[schemas.Category]int{
			schemas.CategorySafety:      7,
			schemas.CategoryStructural:  6,
			schemas.CategoryElectrical:  6,
			schemas.CategoryPlumbing:    5,
			schemas.CategoryHVAC:        4,
			schemas.CategoryNetwork:     4,
			schemas.CategoryMaintenance: 3,
			schemas.CategoryOther:       3,
			schemas.CategoryCleanliness: 2,
			schemas.CategoryFurniture:   2,
		},
		Impact: ImpactWeights{
			SafetyRisk:             12,
			BlocksAccess:           8,
			CriticalInfrastructure: 7,
			AffectsAcademics:       5,
			OccupancyCap:           6,
			OccupancyRef:           200,
		},
		Urgency: UrgencyWeights{
			CurrentSemester: 8,
			ExamPeriod:      6,
			PeakHours:       4,
			Weekday:         2,
			PeakStartHour:   7,
			PeakEndHour:     19,
		},
		Context: ContextWeights{
			NeutralBase:   10,
			TeachingSpace: 3,
			BuildingTypes: map[schemas.BuildingType]float64{
				schemas.BuildingLaboratory:     5,
				schemas.BuildingAcademic:       4,
				schemas.BuildingResidential:    2,
				schemas.BuildingAdministrative: 1,
				schemas.BuildingRecreational:   0,
				schemas.BuildingParking:        -3,
				schemas.BuildingStorage:        -4,
			},
		},
		Historical: HistoricalWeights{
			RecurringBoost:   8,
			OccurrenceCap:    5,
			OccurrenceBudget: 12,
		},
		Aggregate: AggregateWeights{
			Category:   0.25,
			Severity:   0.25,
			Impact:     0.25,
			Urgency:    0.12,
			Context:    0.07,
			Historical: 0.06,
		},
		Tiers: TierThresholds{
			Critical: 80,
			High:     60,
			Medium:   35,
		},
		SLA: SLATable{
			Critical: SLABand{Min: 2, Max: 4},
			High:     SLABand{Min: 12, Max: 24},
			Medium:   SLABand{Min: 48, Max: 72},
			Low:      SLABand{Min: 120, Max: 168},
		},
		Confidence: ConfidenceWeights{
			Base:              0.5,
			ExplicitSeverity:  0.10,
			Description:       0.10,
			DescriptionMinLen: 20,
			BuildingID:        0.10,
			RoomID:            0.05,
			ReportedAt:        0.05,
			Occupancy:         0.05,
			ImpactFlags:       0.05,
			ExamPeriod:        0.05,
			CurrentSemester:   0.05,
			Recurrence:        0.05,
		},
		ReasoningThreshold: 2.0,
	}
}

// Validate checks the config for internal consistency. It is called by
// engine.New and by the configuration layer, so a bad calibration is caught
// at startup rather than mid-request.
func (c ScoringConfig) Validate() error {
	if _, err := semver.NewVersion(c.Version); err != nil {
		return fmt.Errorf("scoring: version %q is not semver: %w", c.Version, err)
	}

	for _, cat := range schemas.Categories() {
		w, ok := c.CategoryWeights[cat]
		if !ok {
			return fmt.Errorf("scoring: category %q has no weight", cat)
		}
		if w < 0 || w > subScoreMax {
			return fmt.Errorf("scoring: category %q weight %.2f outside [0,%.0f]", cat, w, subScoreMax)
		}
		sev, ok := c.DefaultSeverities[cat]
		if !ok {
			return fmt.Errorf("scoring: category %q has no default severity", cat)
		}
		if sev < 1 || sev > 10 {
			return fmt.Errorf("scoring: category %q default severity %d outside [1,10]", cat, sev)
		}
	}
	for cat := range c.CategoryWeights {
		if !cat.Known() {
			return fmt.Errorf("scoring: weight for unknown category %q", cat)
		}
	}
	for cat := range c.DefaultSeverities {
		if !cat.Known() {
			return fmt.Errorf("scoring: default severity for unknown category %q", cat)
		}
	}

	if err := c.validateBoosts(); err != nil {
		return err
	}

	w := c.Aggregate
	for name, v := range map[string]float64{
		"category": w.Category, "severity": w.Severity, "impact": w.Impact,
		"urgency": w.Urgency, "context": w.Context, "historical": w.Historical,
	} {
		if v <= 0 {
			return fmt.Errorf("scoring: aggregate weight %q must be positive, got %v", name, v)
		}
	}
	if diff := math.Abs(w.Sum() - 1.0); diff > 1e-9 {
		return fmt.Errorf("scoring: aggregate weights sum to %v, want 1.0", w.Sum())
	}

	t := c.Tiers
	if !(0 < t.Medium && t.Medium < t.High && t.High < t.Critical && t.Critical <= 100) {
		return fmt.Errorf("scoring: tier thresholds must satisfy 0 < medium < high < critical <= 100, got %v/%v/%v",
			t.Medium, t.High, t.Critical)
	}

	if err := c.SLA.validate(); err != nil {
		return err
	}

	cf := c.Confidence
	if cf.Base < 0 || cf.Base > 1 {
		return fmt.Errorf("scoring: confidence base %v outside [0,1]", cf.Base)
	}
	for name, v := range map[string]float64{
		"explicit_severity": cf.ExplicitSeverity, "description": cf.Description,
		"building_id": cf.BuildingID, "room_id": cf.RoomID,
		"reported_at": cf.ReportedAt, "occupancy": cf.Occupancy,
		"impact_flags": cf.ImpactFlags, "exam_period": cf.ExamPeriod,
		"current_semester": cf.CurrentSemester, "recurrence": cf.Recurrence,
	} {
		if v < 0 {
			return fmt.Errorf("scoring: confidence increment %q must be non-negative, got %v", name, v)
		}
	}
	if cf.DescriptionMinLen < 0 {
		return fmt.Errorf("scoring: confidence description_min_len must be non-negative, got %d", cf.DescriptionMinLen)
	}

	if c.ReasoningThreshold < 0 {
		return fmt.Errorf("scoring: reasoning_threshold must be non-negative, got %v", c.ReasoningThreshold)
	}
	return nil
}

func (c ScoringConfig) validateBoosts() error {
	im := c.Impact
	for name, v := range map[string]float64{
		"safety_risk": im.SafetyRisk, "blocks_access": im.BlocksAccess,
		"critical_infrastructure": im.CriticalInfrastructure,
		"affects_academics":       im.AffectsAcademics,
		"occupancy_cap":           im.OccupancyCap,
	} {
		if v < 0 {
			return fmt.Errorf("scoring: impact boost %q must be non-negative, got %v", name, v)
		}
	}
	if im.OccupancyRef <= 0 {
		return fmt.Errorf("scoring: impact occupancy_ref must be positive, got %d", im.OccupancyRef)
	}

	u := c.Urgency
	for name, v := range map[string]float64{
		"current_semester": u.CurrentSemester, "exam_period": u.ExamPeriod,
		"peak_hours": u.PeakHours, "weekday": u.Weekday,
	} {
		if v < 0 {
			return fmt.Errorf("scoring: urgency boost %q must be non-negative, got %v", name, v)
		}
	}
	if u.PeakStartHour < 0 || u.PeakEndHour > 24 || u.PeakStartHour >= u.PeakEndHour {
		return fmt.Errorf("scoring: urgency peak window [%d,%d) is not a valid hour range", u.PeakStartHour, u.PeakEndHour)
	}

	if c.Context.NeutralBase < 0 || c.Context.NeutralBase > subScoreMax {
		return fmt.Errorf("scoring: context neutral_base %v outside [0,%.0f]", c.Context.NeutralBase, subScoreMax)
	}

	h := c.Historical
	if h.RecurringBoost < 0 || h.OccurrenceBudget < 0 {
		return fmt.Errorf("scoring: historical boosts must be non-negative, got recurring %v budget %v", h.RecurringBoost, h.OccurrenceBudget)
	}
	if h.OccurrenceCap < 1 {
		return fmt.Errorf("scoring: historical occurrence_cap must be at least 1, got %d", h.OccurrenceCap)
	}
	return nil
}

func (t SLATable) validate() error {
	bands := []struct {
		name string
		band SLABand
	}{
		{"critical", t.Critical},
		{"high", t.High},
		{"medium", t.Medium},
		{"low", t.Low},
	}
	for _, b := range bands {
		if b.band.Min < 1 || b.band.Max < b.band.Min {
			return fmt.Errorf("scoring: sla band %q must satisfy 1 <= min <= max, got [%d,%d]", b.name, b.band.Min, b.band.Max)
		}
	}
	// Faster tiers must promise faster responses across the whole band.
	for i := 0; i < len(bands)-1; i++ {
		if bands[i].band.Max > bands[i+1].band.Min {
			return fmt.Errorf("scoring: sla band %q [%d,%d] overlaps %q [%d,%d]",
				bands[i].name, bands[i].band.Min, bands[i].band.Max,
				bands[i+1].name, bands[i+1].band.Min, bands[i+1].band.Max)
		}
	}
	return nil
}
