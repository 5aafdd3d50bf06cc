// Package analytics derives historical-pattern signals from persisted issue
// snapshots: failure frequency, recency-weighted severity, clustering, and a
// composite building risk. Every function takes an explicit asOf reference
// time and reads no clock, so analysis over a fixed history is reproducible
// for audits.
package analytics

import (
	"math"
	"sort"
	"time"

	"github.com/campusops/triagecore/api/schemas"
)

const (
	// frequencyWindow bounds how far back the frequency score looks.
	frequencyWindow = 90 * 24 * time.Hour
	// frequencyRef is the report count at which frequency saturates at 1.
	frequencyRef = 100.0
	// recencyHalfDays controls the exponential decay of the recency-weighted
	// severity; a report loses ~63% of its weight every 30 days.
	recencyHalfDays = 30.0
	// componentSampleRef is the sample size at which a component's
	// confidence reaches 1.
	componentSampleRef = 20.0
	// componentConfidenceFloor keeps a sparse component from zeroing the
	// whole confidence product.
	componentConfidenceFloor = 0.1
)

// Composite risk weights and the logistic squash steepness.
const (
	weightFrequency  = 0.4
	weightBurstiness = 0.3
	weightRecency    = 0.3
	logisticSlope    = 5.0
)

// Risk level thresholds on the [0,1] composite axis.
const (
	riskCritical = 0.80
	riskHigh     = 0.60
	riskMedium   = 0.40
)

// PatternSummary is the per-building statistical profile.
type PatternSummary struct {
	BuildingID string       `json:"buildingId"`
	SampleSize int          `json:"sampleSize"` // Reports on or before asOf.
	AsOf       string       `json:"asOf"`       // RFC 3339 reference time.
	Frequency  float64      `json:"frequency"`  // [0,1] report-rate pressure.
	Recency    float64      `json:"recency"`    // [0,1] decay-weighted severity.
	Burstiness float64      `json:"burstiness"` // [0,1] inter-arrival irregularity.
	Recurrence float64      `json:"recurrence"` // [0,1] mean-gap recurrence rate.
	Risk       float64      `json:"risk"`       // [0,1] composite after logistic squash.
	RiskLevel  schemas.Tier `json:"riskLevel"`
	Confidence float64      `json:"confidence"` // [0,1] product of component confidences.

	// RecentCriticalCount is the number of critical-tier reports inside the
	// frequency window; the report generator uses it as a tie-break.
	RecentCriticalCount int `json:"recentCriticalCount"`
}

// Analyze computes the pattern summary for one building's history. Reports
// after asOf are ignored so replaying an old reference time yields the same
// answer it would have at the time.
func Analyze(buildingID string, history []schemas.IssueSnapshot, asOf time.Time) PatternSummary {
	obs := observedBefore(history, asOf)

	summary := PatternSummary{
		BuildingID: buildingID,
		SampleSize: len(obs),
		AsOf:       asOf.UTC().Format(time.RFC3339),
	}
	if len(obs) == 0 {
		summary.RiskLevel = schemas.TierLow
		summary.Confidence = componentConfidenceFloor
		return summary
	}

	var recentCritical int
	for _, s := range obs {
		if s.Tier == schemas.TierCritical && asOf.Sub(s.ReportedAt) <= frequencyWindow {
			recentCritical++
		}
	}
	summary.RecentCriticalCount = recentCritical

	summary.Frequency = frequencyScore(obs, asOf)
	summary.Recency = recencyWeightedSeverity(obs, asOf)

	gaps := interArrivalDays(obs)
	summary.Burstiness, summary.Recurrence = clusteringScores(gaps)

	raw := weightFrequency*summary.Frequency +
		weightBurstiness*summary.Burstiness +
		weightRecency*summary.Recency
	summary.Risk = round4(logistic(raw))
	summary.RiskLevel = riskLevel(summary.Risk)
	summary.Confidence = round4(confidence(len(obs), len(gaps)))

	return summary
}

// frequencyScore grows with the square root of the report count inside the
// window, plus a boost proportional to the share of critical reports.
// Diminishing returns keep one noisy building from pinning the scale.
func frequencyScore(obs []schemas.IssueSnapshot, asOf time.Time) float64 {
	var windowed, critical int
	for _, s := range obs {
		if asOf.Sub(s.ReportedAt) <= frequencyWindow {
			windowed++
			if s.Tier == schemas.TierCritical {
				critical++
			}
		}
	}
	if windowed == 0 {
		return 0
	}

	base := math.Min(1, math.Sqrt(float64(windowed))/math.Sqrt(frequencyRef))
	ratio := float64(critical) / float64(windowed)
	boost := math.Min(0.2, ratio*0.4)
	return round4(math.Min(1, base+boost))
}

// recencyWeightedSeverity is the exponentially decayed mean of severity/10:
// fresh reports dominate, months-old ones barely register.
func recencyWeightedSeverity(obs []schemas.IssueSnapshot, asOf time.Time) float64 {
	var weighted, total float64
	for _, s := range obs {
		days := asOf.Sub(s.ReportedAt).Hours() / 24
		w := math.Exp(-days / recencyHalfDays)
		sev := clamp01(float64(s.Severity) / 10)
		weighted += sev * w
		total += w
	}
	if total == 0 {
		return 0
	}
	return round4(clamp01(weighted / total))
}

// clusteringScores measures how irregular the report cadence is. Burstiness
// is the coefficient of variation of inter-arrival gaps (dampened by +1 so a
// short history is not automatically bursty); recurrence is the inverse mean
// gap.
func clusteringScores(gapsDays []float64) (burstiness, recurrence float64) {
	if len(gapsDays) == 0 {
		return 0, 0
	}
	mu, sigma := meanStddev(gapsDays)
	burstiness = round4(clamp01(sigma / (mu + 1)))
	recurrence = round4(clamp01(1 / (mu + 1)))
	return burstiness, recurrence
}

// confidence is the product of per-component sample confidences, each
// sample-size driven with a floor so a single sparse component cannot zero
// the result.
func confidence(samples, gaps int) float64 {
	component := func(n int) float64 {
		return math.Max(componentConfidenceFloor, math.Min(1, float64(n)/componentSampleRef))
	}
	// Frequency and recency both draw on every sample; clustering only on
	// the gaps between them.
	return clamp01(component(samples) * component(samples) * component(gaps))
}

func riskLevel(risk float64) schemas.Tier {
	switch {
	case risk >= riskCritical:
		return schemas.TierCritical
	case risk >= riskHigh:
		return schemas.TierHigh
	case risk >= riskMedium:
		return schemas.TierMedium
	default:
		return schemas.TierLow
	}
}

// observedBefore filters to reports at or before asOf, sorted by report time
// then ID for a deterministic order.
func observedBefore(history []schemas.IssueSnapshot, asOf time.Time) []schemas.IssueSnapshot {
	var obs []schemas.IssueSnapshot
	for _, s := range history {
		if !s.ReportedAt.IsZero() && !s.ReportedAt.After(asOf) {
			obs = append(obs, s)
		}
	}
	sort.Slice(obs, func(i, j int) bool {
		if !obs[i].ReportedAt.Equal(obs[j].ReportedAt) {
			return obs[i].ReportedAt.Before(obs[j].ReportedAt)
		}
		return obs[i].ID < obs[j].ID
	})
	return obs
}

// interArrivalDays returns the gaps between consecutive reports in days.
// Input must already be sorted by report time.
func interArrivalDays(sorted []schemas.IssueSnapshot) []float64 {
	if len(sorted) < 2 {
		return nil
	}
	gaps := make([]float64, 0, len(sorted)-1)
	for i := 1; i < len(sorted); i++ {
		gaps = append(gaps, sorted[i].ReportedAt.Sub(sorted[i-1].ReportedAt).Hours()/24)
	}
	return gaps
}

func meanStddev(values []float64) (mu, sigma float64) {
	if len(values) == 0 {
		return 0, 0
	}
	for _, v := range values {
		mu += v
	}
	mu /= float64(len(values))

	var variance float64
	for _, v := range values {
		d := v - mu
		variance += d * d
	}
	variance /= float64(len(values))
	return mu, math.Sqrt(variance)
}

func logistic(x float64) float64 {
	return 1 / (1 + math.Exp(-logisticSlope*(x-0.5)))
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}
