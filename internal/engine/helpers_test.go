package engine

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/campusops/triagecore/api/schemas"
)

// Shared fixtures for the engine tests. All of them run against the shipped
// default calibration so the asserted numbers double as documentation of it.

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	e, err := New(DefaultScoringConfig())
	require.NoError(t, err, "default calibration must construct an engine")
	return e
}

func timePtr(v time.Time) *time.Time { return &v }

// reasoningPoints strips the free-form detail out of each reasoning line,
// keeping only the factor name and its point contribution.
func reasoningPoints(t *testing.T, lines []string) []string {
	t.Helper()
	out := make([]string, len(lines))
	for i, line := range lines {
		name, _, ok := strings.Cut(line, ":")
		require.True(t, ok, "reasoning line %q has no factor name", line)
		open := strings.LastIndex(line, "(+")
		require.Greater(t, open, 0, "reasoning line %q has no point suffix", line)
		out[i] = name + " " + line[open:]
	}
	return out
}

// richInput carries every optional field explicitly, so nothing gets
// defaulted and the Defaulted set stays empty after normalization.
func richInput() schemas.PriorityInput {
	return schemas.PriorityInput{
		Category:               schemas.CategoryElectrical,
		Severity:               intPtr(8),
		Description:            "Exposed wiring next to the lecture hall entrance",
		BuildingID:             "SCI-04",
		RoomID:                 "B112",
		BuildingType:           schemas.BuildingAcademic,
		IsTeachingSpace:        boolPtr(true),
		Occupancy:              intPtr(140),
		ReportedAt:             timePtr(time.Date(2026, time.March, 10, 14, 30, 0, 0, time.UTC)),
		BlocksAccess:           boolPtr(true),
		SafetyRisk:             boolPtr(true),
		CriticalInfrastructure: boolPtr(false),
		AffectsAcademics:       boolPtr(true),
		ExamPeriod:             boolPtr(false),
		CurrentSemester:        boolPtr(true),
		IsRecurring:            boolPtr(false),
		PreviousOccurrences:    intPtr(0),
	}
}
