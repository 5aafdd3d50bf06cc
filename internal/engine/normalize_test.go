package engine

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campusops/triagecore/api/schemas"
)

func TestNormalize_MissingCategoryFails(t *testing.T) {
	t.Parallel()
	eng := newTestEngine(t)

	for _, raw := range []string{"", "   ", "\t\n"} {
		_, err := eng.Normalize(schemas.PriorityInput{Category: schemas.Category(raw)})
		require.Error(t, err)

		var verr *schemas.ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, "category", verr.Field)
	}
}

func TestNormalize_CategoryCoercion(t *testing.T) {
	t.Parallel()
	eng := newTestEngine(t)

	cases := []struct {
		raw  string
		want schemas.Category
	}{
		{"hvac", schemas.CategoryHVAC},
		{"  HVAC  ", schemas.CategoryHVAC},
		{"Plumbing", schemas.CategoryPlumbing},
		{"graffiti", schemas.CategoryOther}, // unknown labels degrade, never fail
	}
	for _, tc := range cases {
		norm, err := eng.Normalize(schemas.PriorityInput{Category: schemas.Category(tc.raw)})
		require.NoError(t, err, "category %q", tc.raw)
		assert.Equal(t, tc.want, norm.Category, "category %q", tc.raw)
	}
}

// A bare input must come back with every optional filled and every fill
// recorded in the Defaulted set.
func TestNormalize_DefaultsAndProvenance(t *testing.T) {
	t.Parallel()
	eng := newTestEngine(t)

	norm, err := eng.Normalize(schemas.PriorityInput{Category: schemas.CategorySafety})
	require.NoError(t, err)

	require.NotNil(t, norm.Severity)
	assert.Equal(t, 7, *norm.Severity, "safety issues default to severity 7")
	require.NotNil(t, norm.Occupancy)
	assert.Equal(t, 0, *norm.Occupancy)
	require.NotNil(t, norm.ReportedAt)
	assert.True(t, norm.ReportedAt.IsZero(), "missing timestamps stay zero, the engine never reads the clock")

	require.NotNil(t, norm.CurrentSemester)
	assert.True(t, *norm.CurrentSemester, "semester is assumed in session")
	for name, p := range map[string]*bool{
		"isTeachingSpace":        norm.IsTeachingSpace,
		"blocksAccess":           norm.BlocksAccess,
		"safetyRisk":             norm.SafetyRisk,
		"criticalInfrastructure": norm.CriticalInfrastructure,
		"affectsAcademics":       norm.AffectsAcademics,
		"examPeriod":             norm.ExamPeriod,
		"isRecurring":            norm.IsRecurring,
	} {
		require.NotNil(t, p, name)
		assert.False(t, *p, name)
	}
	require.NotNil(t, norm.PreviousOccurrences)
	assert.Equal(t, 0, *norm.PreviousOccurrences)

	for _, f := range []schemas.Field{
		schemas.FieldSeverity,
		schemas.FieldOccupancy,
		schemas.FieldReportedAt,
		schemas.FieldIsTeachingSpace,
		schemas.FieldBlocksAccess,
		schemas.FieldSafetyRisk,
		schemas.FieldCriticalInfrastructure,
		schemas.FieldAffectsAcademics,
		schemas.FieldExamPeriod,
		schemas.FieldCurrentSemester,
		schemas.FieldIsRecurring,
		schemas.FieldPreviousOccurrences,
	} {
		assert.True(t, norm.Defaulted.Has(f), "field %v must be marked defaulted", f)
	}
}

func TestNormalize_ExplicitFieldsNotMarked(t *testing.T) {
	t.Parallel()
	eng := newTestEngine(t)

	norm, err := eng.Normalize(richInput())
	require.NoError(t, err)
	assert.Empty(t, norm.Defaulted.Names(), "fully specified input must default nothing")
}

func TestNormalize_ClampsOutOfRangeValues(t *testing.T) {
	t.Parallel()
	eng := newTestEngine(t)

	in := schemas.PriorityInput{
		Category:            schemas.CategoryElectrical,
		Severity:            intPtr(42),
		Occupancy:           intPtr(-10),
		PreviousOccurrences: intPtr(-3),
	}
	norm, err := eng.Normalize(in)
	require.NoError(t, err)

	assert.Equal(t, 10, *norm.Severity)
	assert.Equal(t, 0, *norm.Occupancy)
	assert.Equal(t, 0, *norm.PreviousOccurrences)

	in.Severity = intPtr(0)
	norm, err = eng.Normalize(in)
	require.NoError(t, err)
	assert.Equal(t, 1, *norm.Severity)
}

func TestNormalize_TrimsFreeText(t *testing.T) {
	t.Parallel()
	eng := newTestEngine(t)

	norm, err := eng.Normalize(schemas.PriorityInput{
		Category:     schemas.CategoryCleanliness,
		Description:  "  spill in hallway  ",
		BuildingID:   " LIB-01 ",
		RoomID:       "\t210\n",
		BuildingType: schemas.BuildingType("warehouse"), // unknown types degrade to empty
	})
	require.NoError(t, err)

	assert.Equal(t, "spill in hallway", norm.Description)
	assert.Equal(t, "LIB-01", norm.BuildingID)
	assert.Equal(t, "210", norm.RoomID)
	assert.Equal(t, schemas.BuildingType(""), norm.BuildingType)
}

// Normalization is a fixed point: running an already normalized input
// through again must change nothing, mask included.
func TestNormalize_Idempotent(t *testing.T) {
	t.Parallel()
	eng := newTestEngine(t)

	inputs := []schemas.PriorityInput{
		{Category: schemas.CategorySafety},
		{Category: schemas.Category(" Furniture "), Severity: intPtr(2)},
		richInput(),
		{
			Category:            schemas.CategoryMaintenance,
			IsRecurring:         boolPtr(true),
			PreviousOccurrences: intPtr(50),
			ReportedAt:          timePtr(time.Date(2026, time.June, 6, 23, 0, 0, 0, time.UTC)),
		},
	}

	for i, in := range inputs {
		once, err := eng.Normalize(in)
		require.NoError(t, err, "input %d", i)
		twice, err := eng.Normalize(once)
		require.NoError(t, err, "input %d", i)

		if diff := cmp.Diff(once, twice); diff != "" {
			t.Errorf("input %d: normalization is not idempotent. Diff:\n%s", i, diff)
		}
	}
}

func TestNormalize_DoesNotMutateCaller(t *testing.T) {
	t.Parallel()
	eng := newTestEngine(t)

	in := schemas.PriorityInput{
		Category:  schemas.CategoryElectrical,
		Severity:  intPtr(42),
		Occupancy: intPtr(-10),
	}
	norm, err := eng.Normalize(in)
	require.NoError(t, err)

	assert.Equal(t, 42, *in.Severity, "caller's severity must be untouched")
	assert.Equal(t, -10, *in.Occupancy, "caller's occupancy must be untouched")
	assert.NotSame(t, in.Severity, norm.Severity, "normalized input must not alias the caller's pointers")
}
