package analytics

import (
	"fmt"
	"time"

	"github.com/campusops/triagecore/api/schemas"
)

// AnomalyKind labels the detection rule that fired.
type AnomalyKind string

const (
	// AnomalySpike marks a day whose report count sits more than two
	// standard deviations above the window mean.
	AnomalySpike AnomalyKind = "report_spike"
	// AnomalyClustering marks an abrupt compression of the report cadence:
	// the latest inter-arrival gap is anomalously short.
	AnomalyClustering AnomalyKind = "temporal_clustering"
)

// spikeWindowDays is the trailing window the spike detector examines.
const spikeWindowDays = 30

// Z-score cut-offs for the detectors.
const (
	spikeZThreshold          = 2.0
	clusteringZThreshold     = -2.0
	clusteringHighZThreshold = -3.0
)

// Anomaly is one fired detection with enough context to act on.
type Anomaly struct {
	Kind       AnomalyKind  `json:"kind"`
	BuildingID string       `json:"buildingId"`
	Severity   schemas.Tier `json:"severity"` // medium, or high for extreme deviations.
	Detail     string       `json:"detail"`
	ZScore     float64      `json:"zScore"`
	// Day is set for spike anomalies: the UTC date that spiked.
	Day string `json:"day,omitempty"`
}

// DetectAnomalies runs the spike and clustering detectors over one
// building's history. Results are ordered spikes-then-clustering, spikes by
// day, so the output is deterministic.
func DetectAnomalies(buildingID string, history []schemas.IssueSnapshot, asOf time.Time) []Anomaly {
	obs := observedBefore(history, asOf)

	anomalies := detectSpikes(buildingID, obs, asOf)
	if a, ok := detectClustering(buildingID, obs); ok {
		anomalies = append(anomalies, a)
	}
	return anomalies
}

// detectSpikes builds daily counts over the trailing window and flags days
// whose count exceeds mean + 2 sigma. A window with a flat cadence has sigma
// zero and can never fire, which is the intended behavior: one report on a
// quiet building is news, not noise.
func detectSpikes(buildingID string, obs []schemas.IssueSnapshot, asOf time.Time) []Anomaly {
	windowStart := asOf.Add(-spikeWindowDays * 24 * time.Hour)

	counts := make([]float64, spikeWindowDays)
	for _, s := range obs {
		if s.ReportedAt.Before(windowStart) {
			continue
		}
		idx := int(asOf.Sub(s.ReportedAt).Hours() / 24)
		if idx >= 0 && idx < spikeWindowDays {
			counts[spikeWindowDays-1-idx]++
		}
	}

	mu, sigma := meanStddev(counts)
	if sigma == 0 {
		return nil
	}

	var anomalies []Anomaly
	for i, c := range counts {
		z := (c - mu) / sigma
		if z <= spikeZThreshold {
			continue
		}
		day := asOf.Add(-time.Duration(spikeWindowDays-1-i) * 24 * time.Hour).UTC().Format("2006-01-02")
		anomalies = append(anomalies, Anomaly{
			Kind:       AnomalySpike,
			BuildingID: buildingID,
			Severity:   schemas.TierMedium,
			Detail:     fmt.Sprintf("%d reports on %s against a %.1f/day average", int(c), day, mu),
			ZScore:     round4(z),
			Day:        day,
		})
	}
	return anomalies
}

// detectClustering compares the latest inter-arrival gap against the gap
// distribution. A strongly negative z-score means reports are suddenly
// arriving much closer together than this building's norm.
func detectClustering(buildingID string, obs []schemas.IssueSnapshot) (Anomaly, bool) {
	gaps := interArrivalDays(obs)
	if len(gaps) < 3 {
		return Anomaly{}, false
	}

	mu, sigma := meanStddev(gaps)
	if sigma == 0 {
		return Anomaly{}, false
	}

	latest := gaps[len(gaps)-1]
	z := (latest - mu) / sigma
	if z >= clusteringZThreshold {
		return Anomaly{}, false
	}

	severity := schemas.TierMedium
	if z < clusteringHighZThreshold {
		severity = schemas.TierHigh
	}
	return Anomaly{
		Kind:       AnomalyClustering,
		BuildingID: buildingID,
		Severity:   severity,
		Detail: fmt.Sprintf("reports clustering: latest gap %.1f days against a %.1f-day average",
			latest, mu),
		ZScore: round4(z),
	}, true
}
