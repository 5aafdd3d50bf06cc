package schemas

import (
	"fmt"
	"strings"
	"time"
)

// -- Priority Scoring Schemas --

// Category classifies a reported facilities issue. The values are lowercase
// to align with document-store ENUMs. The set is closed: unrecognized values
// never fail parsing, they coerce to CategoryOther so every report stays
// scoreable.
type Category string

// Constants defining the closed category set.
const (
	CategoryStructural  Category = "structural"  // Load-bearing elements, walls, roofing.
	CategoryElectrical  Category = "electrical"  // Wiring, panels, lighting circuits.
	CategoryPlumbing    Category = "plumbing"    // Water supply, drainage, fixtures.
	CategoryHVAC        Category = "hvac"        // Heating, ventilation, air conditioning.
	CategorySafety      Category = "safety"      // Fire systems, hazards, emergency egress.
	CategoryMaintenance Category = "maintenance" // General upkeep and repairs.
	CategoryCleanliness Category = "cleanliness" // Janitorial and sanitation issues.
	CategoryNetwork     Category = "network"     // Campus data and telephony infrastructure.
	CategoryFurniture   Category = "furniture"   // Desks, chairs, fittings.
	CategoryOther       Category = "other"       // Fallback for unrecognized reports.
)

// ParseCategory coerces a raw string to a member of the closed category set.
// Matching is case-insensitive and ignores surrounding whitespace; anything
// unrecognized maps to CategoryOther rather than failing.
func ParseCategory(s string) Category {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	if c.Known() {
		return c
	}
	return CategoryOther
}

// Known reports whether c is a member of the closed category set.
func (c Category) Known() bool {
	switch c {
	case CategoryStructural, CategoryElectrical, CategoryPlumbing,
		CategoryHVAC, CategorySafety, CategoryMaintenance,
		CategoryCleanliness, CategoryNetwork, CategoryFurniture,
		CategoryOther:
		return true
	}
	return false
}

// Categories returns the closed set in canonical order. Table validation and
// fingerprinting iterate this slice, so the order is load-bearing and stable.
func Categories() []Category {
	return []Category{
		CategoryStructural, CategoryElectrical, CategoryPlumbing,
		CategoryHVAC, CategorySafety, CategoryMaintenance,
		CategoryCleanliness, CategoryNetwork, CategoryFurniture,
		CategoryOther,
	}
}

// Tier is the discrete priority band derived from the composite score.
type Tier string

// Constants defining the four priority tiers.
const (
	TierLow      Tier = "low"      // Routine handling.
	TierMedium   Tier = "medium"   // Scheduled handling.
	TierHigh     Tier = "high"     // Expedited handling.
	TierCritical Tier = "critical" // Immediate response.
)

// Rank orders tiers for comparison: low is 0, critical is 3. Unknown values
// rank below low.
func (t Tier) Rank() int {
	switch t {
	case TierLow:
		return 0
	case TierMedium:
		return 1
	case TierHigh:
		return 2
	case TierCritical:
		return 3
	}
	return -1
}

// BuildingType is optional location metadata that refines the context
// sub-score. The empty value means the building type was not supplied.
type BuildingType string

// Constants for the recognized building types.
const (
	BuildingAcademic       BuildingType = "academic"       // Lecture halls and classrooms.
	BuildingLaboratory     BuildingType = "laboratory"     // Research and teaching labs.
	BuildingResidential    BuildingType = "residential"    // Dormitories and campus housing.
	BuildingAdministrative BuildingType = "administrative" // Offices and admin services.
	BuildingRecreational   BuildingType = "recreational"   // Gyms, commons, event spaces.
	BuildingParking        BuildingType = "parking"        // Parking structures and lots.
	BuildingStorage        BuildingType = "storage"        // Warehouses and storage facilities.
)

// ParseBuildingType coerces a raw string to a known BuildingType. Anything
// unrecognized maps to the empty value, which scores as neutral context.
func ParseBuildingType(s string) BuildingType {
	b := BuildingType(strings.ToLower(strings.TrimSpace(s)))
	switch b {
	case BuildingAcademic, BuildingLaboratory, BuildingResidential,
		BuildingAdministrative, BuildingRecreational, BuildingParking,
		BuildingStorage:
		return b
	}
	return ""
}

// -- Input Provenance --

// Field identifies one optional PriorityInput field for provenance tracking.
type Field uint16

// Bit assignments for the optional scoring fields.
const (
	FieldSeverity Field = 1 << iota
	FieldOccupancy
	FieldReportedAt
	FieldBlocksAccess
	FieldSafetyRisk
	FieldCriticalInfrastructure
	FieldAffectsAcademics
	FieldExamPeriod
	FieldCurrentSemester
	FieldIsRecurring
	FieldPreviousOccurrences
	FieldIsTeachingSpace
)

// fieldNames maps each Field bit to its wire name, in bit order.
var fieldNames = []struct {
	field Field
	name  string
}{
	{FieldSeverity, "severity"},
	{FieldOccupancy, "occupancy"},
	{FieldReportedAt, "reportedAt"},
	{FieldBlocksAccess, "blocksAccess"},
	{FieldSafetyRisk, "safetyRisk"},
	{FieldCriticalInfrastructure, "criticalInfrastructure"},
	{FieldAffectsAcademics, "affectsAcademics"},
	{FieldExamPeriod, "examPeriod"},
	{FieldCurrentSemester, "currentSemester"},
	{FieldIsRecurring, "isRecurring"},
	{FieldPreviousOccurrences, "previousOccurrences"},
	{FieldIsTeachingSpace, "isTeachingSpace"},
}

// FieldSet is a bitmask recording which optional fields the normalizer had
// to default. Sub-score calculators never read it; the confidence estimate
// does, so a score built mostly from defaults is flagged to consumers.
type FieldSet uint16

// Has reports whether f is marked as defaulted.
func (fs FieldSet) Has(f Field) bool { return fs&FieldSet(f) != 0 }

// Mark records f as defaulted.
func (fs *FieldSet) Mark(f Field) { *fs |= FieldSet(f) }

// Clear removes the defaulted mark from f, for callers that later supply an
// explicit value on update.
func (fs *FieldSet) Clear(f Field) { *fs &^= FieldSet(f) }

// Names returns the wire names of all marked fields in bit order.
func (fs FieldSet) Names() []string {
	var names []string
	for _, fn := range fieldNames {
		if fs.Has(fn.field) {
			names = append(names, fn.name)
		}
	}
	return names
}

// MarshalJSON encodes the set as an array of field names so the wire form is
// self-describing.
func (fs FieldSet) MarshalJSON() ([]byte, error) {
	names := fs.Names()
	if names == nil {
		return []byte("[]"), nil
	}
	var b strings.Builder
	b.WriteByte('[')
	for i, n := range names {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteByte('"')
		b.WriteString(n)
		b.WriteByte('"')
	}
	b.WriteByte(']')
	return []byte(b.String()), nil
}

// UnmarshalJSON decodes an array of field names. Unknown names are ignored
// so older records survive schema growth.
func (fs *FieldSet) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if s == "null" {
		*fs = 0
		return nil
	}
	if len(s) < 2 || s[0] != '[' || s[len(s)-1] != ']' {
		return fmt.Errorf("defaultedFields: expected a JSON array, got %q", s)
	}
	*fs = 0
	for _, part := range strings.Split(s[1:len(s)-1], ",") {
		name := strings.Trim(strings.TrimSpace(part), `"`)
		if name == "" {
			continue
		}
		for _, fn := range fieldNames {
			if fn.name == name {
				fs.Mark(fn.field)
				break
			}
		}
	}
	return nil
}

// -- Scoring Input / Output --

// PriorityInput is the canonical scoring input. Optional scalars are
// pointers so an absent field is distinguishable from an explicit zero on
// the wire; after normalization every pointer is non-nil and Defaulted
// records which values the normalizer supplied. Feeding a normalized input
// back through the normalizer returns it unchanged.
type PriorityInput struct {
	Category Category `json:"category"` // Required. Unknown values coerce to CategoryOther.

	// Severity grades the issue from 1 (cosmetic) to 10 (emergency). Absent
	// values derive from the category default-severity table; out-of-range
	// values clamp.
	Severity *int `json:"severity,omitempty"`

	Description string `json:"description,omitempty"` // Free text. Only presence and length are used, never content.
	BuildingID  string `json:"buildingId,omitempty"`  // Opaque location identifier. Confidence signal only.
	RoomID      string `json:"roomId,omitempty"`      // Opaque location identifier. Confidence signal only.

	BuildingType    BuildingType `json:"buildingType,omitempty"`    // Optional context metadata.
	IsTeachingSpace *bool        `json:"isTeachingSpace,omitempty"` // Optional context metadata.

	// Occupancy is the expected number of concurrent users of the affected
	// space. Higher occupancy raises the impact sub-score with diminishing
	// returns; negative values clamp to zero.
	Occupancy *int `json:"occupancy,omitempty"`

	// ReportedAt feeds time-of-day and day-of-week urgency signals. A zero
	// time contributes no temporal boost, which keeps scoring a pure
	// function of the input for callers that do not supply it.
	ReportedAt *time.Time `json:"reportedAt,omitempty"`

	BlocksAccess           *bool `json:"blocksAccess,omitempty"`           // Issue prevents access to the space.
	SafetyRisk             *bool `json:"safetyRisk,omitempty"`             // Issue endangers occupants.
	CriticalInfrastructure *bool `json:"criticalInfrastructure,omitempty"` // Issue degrades critical campus infrastructure.
	AffectsAcademics       *bool `json:"affectsAcademics,omitempty"`       // Issue disrupts teaching or research.

	ExamPeriod      *bool `json:"examPeriod,omitempty"`      // Campus is in an examination period.
	CurrentSemester *bool `json:"currentSemester,omitempty"` // Semester is in session. Defaults to true.

	IsRecurring         *bool `json:"isRecurring,omitempty"`         // Issue has been reported before.
	PreviousOccurrences *int  `json:"previousOccurrences,omitempty"` // Count of prior reports. Negative values clamp to zero.

	// Defaulted records which optional fields the normalizer populated.
	Defaulted FieldSet `json:"defaultedFields,omitempty"`
}

// Clone returns a deep copy: shared pointer fields are reallocated so the
// copy can be mutated without aliasing the original.
func (in PriorityInput) Clone() PriorityInput {
	out := in
	out.Severity = cloneInt(in.Severity)
	out.IsTeachingSpace = cloneBool(in.IsTeachingSpace)
	out.Occupancy = cloneInt(in.Occupancy)
	out.ReportedAt = cloneTime(in.ReportedAt)
	out.BlocksAccess = cloneBool(in.BlocksAccess)
	out.SafetyRisk = cloneBool(in.SafetyRisk)
	out.CriticalInfrastructure = cloneBool(in.CriticalInfrastructure)
	out.AffectsAcademics = cloneBool(in.AffectsAcademics)
	out.ExamPeriod = cloneBool(in.ExamPeriod)
	out.CurrentSemester = cloneBool(in.CurrentSemester)
	out.IsRecurring = cloneBool(in.IsRecurring)
	out.PreviousOccurrences = cloneInt(in.PreviousOccurrences)
	return out
}

func cloneInt(p *int) *int {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneBool(p *bool) *bool {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneTime(p *time.Time) *time.Time {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// Breakdown itemizes the six independent sub-scores, each in [0,20]. The
// calculators never read one another's output, so every entry is
// independently auditable.
type Breakdown struct {
	Category   float64 `json:"category"`   // Baseline risk of the issue category.
	Severity   float64 `json:"severity"`   // Reporter-graded severity, scaled.
	Impact     float64 `json:"impact"`     // Access, safety, infrastructure and occupancy effects.
	Urgency    float64 `json:"urgency"`    // Temporal pressure from the academic calendar and clock.
	Context    float64 `json:"context"`    // Location and academic relevance independent of timing.
	Historical float64 `json:"historical"` // Recurrence signal, capped for chronic low-grade issues.
}

// PriorityResult is the immutable outcome of scoring one PriorityInput.
// Callers persist Score and Priority as snapshot fields on the issue record
// and recompute on demand; a result is never patched in place.
type PriorityResult struct {
	Score          float64   `json:"score"`          // Composite score in [0,100], two decimals.
	Priority       Tier      `json:"priority"`       // Tier derived from Score via fixed thresholds.
	Confidence     float64   `json:"confidence"`     // Evidence completeness in [0,1]; independent of Score.
	Breakdown      Breakdown `json:"breakdown"`      // The six sub-scores, each in [0,20].
	Reasoning      []string  `json:"reasoning"`      // Material factors, highest contribution first.
	RecommendedSLA int       `json:"recommendedSLA"` // Response-time target in whole hours, always positive.
}

// Clone returns a deep copy with its own reasoning slice.
func (r PriorityResult) Clone() PriorityResult {
	out := r
	if r.Reasoning != nil {
		out.Reasoning = make([]string, len(r.Reasoning))
		copy(out.Reasoning, r.Reasoning)
	}
	return out
}

// -- Errors --

// ValidationError reports structurally invalid scoring input. It is the only
// error the scoring engine returns: unrecognized-but-well-typed values
// degrade to defaults with reduced confidence instead of failing.
type ValidationError struct {
	Field  string // Offending input field.
	Reason string // Human-readable cause.
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid input: field %q: %s", e.Field, e.Reason)
}
