package analytics

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/campusops/triagecore/api/schemas"
)

// maxRecommendations caps the advisory list so operators get the short list,
// not a backlog dump.
const maxRecommendations = 5

// alertNamespace seeds the deterministic alert IDs. Re-running a report over
// the same history and reference time reproduces the same IDs, which lets
// downstream consumers deduplicate.
var alertNamespace = uuid.MustParse("5f1c2b6e-9a47-4f6d-8c3e-2d7b1a0e4c9d")

// Alert is an actionable notice derived from a building's risk profile.
// Only critical and high risk levels produce alerts.
type Alert struct {
	ID         string       `json:"id"`
	BuildingID string       `json:"buildingId"`
	Level      schemas.Tier `json:"level"`
	Priority   int          `json:"priority"` // 1 critical ... 4 low.
	Message    string       `json:"message"`
	CreatedAt  string       `json:"createdAt"` // RFC 3339, equals the report's asOf.
}

// Recommendation is one advisory follow-up, ordered most pressing first.
type Recommendation struct {
	Action    string  `json:"action"`
	Rationale string  `json:"rationale"`
	Risk      float64 `json:"risk"` // Composite risk that motivated it.
}

// Report is the full analytical product for one building.
type Report struct {
	Summary         PatternSummary   `json:"summary"`
	Anomalies       []Anomaly        `json:"anomalies,omitempty"`
	Alerts          []Alert          `json:"alerts,omitempty"`
	Recommendations []Recommendation `json:"recommendations,omitempty"`
}

// BuildReport assembles the summary, anomaly detections, alerts, and
// recommendations for one building at a fixed reference time.
func BuildReport(buildingID string, history []schemas.IssueSnapshot, asOf time.Time) Report {
	summary := Analyze(buildingID, history, asOf)
	anomalies := DetectAnomalies(buildingID, history, asOf)

	return Report{
		Summary:         summary,
		Anomalies:       anomalies,
		Alerts:          buildAlerts(summary, asOf),
		Recommendations: buildRecommendations(summary, anomalies),
	}
}

// BuildAlerts produces the alert set for a batch of building summaries,
// sorted by priority then building ID. Low and medium risk stay silent.
func BuildAlerts(summaries []PatternSummary, asOf time.Time) []Alert {
	var alerts []Alert
	for _, s := range summaries {
		alerts = append(alerts, buildAlerts(s, asOf)...)
	}
	sort.SliceStable(alerts, func(i, j int) bool {
		if alerts[i].Priority != alerts[j].Priority {
			return alerts[i].Priority < alerts[j].Priority
		}
		return alerts[i].BuildingID < alerts[j].BuildingID
	})
	return alerts
}

func buildAlerts(s PatternSummary, asOf time.Time) []Alert {
	var message string
	var priority int
	switch s.RiskLevel {
	case schemas.TierCritical:
		priority = 1
		message = fmt.Sprintf("Building %s is at critical maintenance risk (%.0f%%): schedule an inspection immediately.",
			s.BuildingID, s.Risk*100)
	case schemas.TierHigh:
		priority = 2
		message = fmt.Sprintf("Building %s shows elevated maintenance risk (%.0f%%): review open issues this week.",
			s.BuildingID, s.Risk*100)
	default:
		return nil
	}

	return []Alert{{
		ID:         alertID(s.BuildingID, asOf),
		BuildingID: s.BuildingID,
		Level:      s.RiskLevel,
		Priority:   priority,
		Message:    message,
		CreatedAt:  asOf.UTC().Format(time.RFC3339),
	}}
}

// alertID derives a stable UUID from the building and reference time, so the
// same report run twice emits the same alert identity.
func alertID(buildingID string, asOf time.Time) string {
	name := buildingID + "|" + asOf.UTC().Format(time.RFC3339)
	return uuid.NewSHA1(alertNamespace, []byte(name)).String()
}

// buildRecommendations turns the summary and anomalies into at most five
// advisory actions, most pressing first. Ordering is (motivating risk desc,
// fixed rule order) so the list is deterministic.
func buildRecommendations(s PatternSummary, anomalies []Anomaly) []Recommendation {
	var recs []Recommendation

	if s.RiskLevel == schemas.TierCritical || s.RiskLevel == schemas.TierHigh {
		recs = append(recs, Recommendation{
			Action:    fmt.Sprintf("Schedule a preventive maintenance inspection for building %s.", s.BuildingID),
			Rationale: fmt.Sprintf("Composite risk %.0f%% (%s).", s.Risk*100, s.RiskLevel),
			Risk:      s.Risk,
		})
	}
	if s.RecentCriticalCount > 0 {
		recs = append(recs, Recommendation{
			Action:    "Review recent critical reports for a shared root cause.",
			Rationale: fmt.Sprintf("%d critical reports in the last 90 days.", s.RecentCriticalCount),
			Risk:      s.Risk,
		})
	}
	if s.Burstiness >= 0.5 {
		recs = append(recs, Recommendation{
			Action:    "Investigate whether clustered reports describe one underlying fault.",
			Rationale: fmt.Sprintf("Report cadence is highly irregular (burstiness %.2f).", s.Burstiness),
			Risk:      s.Risk,
		})
	}
	for _, a := range anomalies {
		if a.Kind == AnomalySpike {
			recs = append(recs, Recommendation{
				Action:    fmt.Sprintf("Check the report spike on %s for a single triggering event.", a.Day),
				Rationale: a.Detail,
				Risk:      s.Risk,
			})
		}
	}
	if s.Confidence < 0.3 && s.SampleSize > 0 {
		recs = append(recs, Recommendation{
			Action:    "Treat this profile as provisional; the report history is thin.",
			Rationale: fmt.Sprintf("Only %d reports on record (confidence %.2f).", s.SampleSize, s.Confidence),
			Risk:      s.Risk,
		})
	}

	sort.SliceStable(recs, func(i, j int) bool { return recs[i].Risk > recs[j].Risk })
	if len(recs) > maxRecommendations {
		recs = recs[:maxRecommendations]
	}
	return recs
}
