package cmd

import (
	"fmt"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/cobra"

	"github.com/campusops/triagecore/api/schemas"
	"github.com/campusops/triagecore/internal/engine"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// scoreFlags collects the field-level flag values of the `score` command.
// Presence tracking matters: an unset flag must stay an absent field, not a
// zero, or the confidence accounting would be wrong.
type scoreFlags struct {
	input  string
	pretty bool

	category        string
	severity        int
	description     string
	buildingID      string
	roomID          string
	buildingType    string
	occupancy       int
	reportedAt      string
	blocksAccess    bool
	safetyRisk      bool
	criticalInfra   bool
	affectsAcademic bool
	examPeriod      bool
	currentSemester bool
	isRecurring     bool
	prevOccurrences int
	teachingSpace   bool
}

// newScoreCmd creates the `score` command: score one issue from a JSON file,
// stdin, or field flags, and print the result.
func newScoreCmd(opts *rootOptions) *cobra.Command {
	flags := &scoreFlags{}

	scoreCmd := &cobra.Command{
		Use:   "score",
		Short: "Score a single issue and print the result as JSON",
		Example: `  triagecore score --input issue.json
  cat issue.json | triagecore score --input -
  triagecore score --category safety --severity 8 --safety-risk --pretty`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			input, err := buildInput(cmd, flags)
			if err != nil {
				return err
			}

			eng, err := engine.New(opts.cfg.Scoring)
			if err != nil {
				return fmt.Errorf("binding scoring calibration: %w", err)
			}

			result, err := eng.CalculatePriority(input)
			if err != nil {
				return err
			}

			var out []byte
			if flags.pretty {
				out, err = json.MarshalIndent(result, "", "  ")
			} else {
				out, err = json.Marshal(result)
			}
			if err != nil {
				return fmt.Errorf("encoding result: %w", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return nil
		},
	}

	scoreCmd.Flags().StringVarP(&flags.input, "input", "i", "", "JSON input file, or - for stdin")
	scoreCmd.Flags().BoolVar(&flags.pretty, "pretty", false, "indent the JSON output")

	scoreCmd.Flags().StringVar(&flags.category, "category", "", "issue category (required unless --input is used)")
	scoreCmd.Flags().IntVar(&flags.severity, "severity", 0, "severity 1-10")
	scoreCmd.Flags().StringVar(&flags.description, "description", "", "free-text description")
	scoreCmd.Flags().StringVar(&flags.buildingID, "building", "", "building identifier")
	scoreCmd.Flags().StringVar(&flags.roomID, "room", "", "room identifier")
	scoreCmd.Flags().StringVar(&flags.buildingType, "building-type", "", "building type (academic, laboratory, ...)")
	scoreCmd.Flags().IntVar(&flags.occupancy, "occupancy", 0, "expected occupancy of the affected space")
	scoreCmd.Flags().StringVar(&flags.reportedAt, "reported-at", "", "report time, RFC 3339")
	scoreCmd.Flags().BoolVar(&flags.blocksAccess, "blocks-access", false, "issue blocks access to the space")
	scoreCmd.Flags().BoolVar(&flags.safetyRisk, "safety-risk", false, "issue endangers occupants")
	scoreCmd.Flags().BoolVar(&flags.criticalInfra, "critical-infrastructure", false, "issue degrades critical infrastructure")
	scoreCmd.Flags().BoolVar(&flags.affectsAcademic, "affects-academics", false, "issue disrupts teaching or research")
	scoreCmd.Flags().BoolVar(&flags.examPeriod, "exam-period", false, "campus is in an exam period")
	scoreCmd.Flags().BoolVar(&flags.currentSemester, "current-semester", true, "semester is in session")
	scoreCmd.Flags().BoolVar(&flags.isRecurring, "recurring", false, "issue has been reported before")
	scoreCmd.Flags().IntVar(&flags.prevOccurrences, "previous-occurrences", 0, "count of prior reports")
	scoreCmd.Flags().BoolVar(&flags.teachingSpace, "teaching-space", false, "affected space is used for teaching")

	return scoreCmd
}

// buildInput assembles the PriorityInput from --input or from field flags.
// Flags are only folded in when explicitly set.
func buildInput(cmd *cobra.Command, flags *scoreFlags) (schemas.PriorityInput, error) {
	var input schemas.PriorityInput

	if flags.input != "" {
		data, err := readInput(flags.input)
		if err != nil {
			return input, fmt.Errorf("reading input: %w", err)
		}
		if err := json.Unmarshal(data, &input); err != nil {
			return input, fmt.Errorf("decoding input: %w", err)
		}
		return input, nil
	}

	if flags.category == "" {
		return input, fmt.Errorf("either --input or --category is required")
	}

	input.Category = schemas.ParseCategory(flags.category)
	input.Description = flags.description
	input.BuildingID = flags.buildingID
	input.RoomID = flags.roomID
	input.BuildingType = schemas.ParseBuildingType(flags.buildingType)

	set := cmd.Flags().Changed
	if set("severity") {
		input.Severity = &flags.severity
	}
	if set("occupancy") {
		input.Occupancy = &flags.occupancy
	}
	if set("reported-at") {
		reportedAt, err := time.Parse(time.RFC3339, flags.reportedAt)
		if err != nil {
			return input, fmt.Errorf("--reported-at must be RFC 3339: %w", err)
		}
		input.ReportedAt = &reportedAt
	}
	if set("blocks-access") {
		input.BlocksAccess = &flags.blocksAccess
	}
	if set("safety-risk") {
		input.SafetyRisk = &flags.safetyRisk
	}
	if set("critical-infrastructure") {
		input.CriticalInfrastructure = &flags.criticalInfra
	}
	if set("affects-academics") {
		input.AffectsAcademics = &flags.affectsAcademic
	}
	if set("exam-period") {
		input.ExamPeriod = &flags.examPeriod
	}
	if set("current-semester") {
		input.CurrentSemester = &flags.currentSemester
	}
	if set("recurring") {
		input.IsRecurring = &flags.isRecurring
	}
	if set("previous-occurrences") {
		input.PreviousOccurrences = &flags.prevOccurrences
	}
	if set("teaching-space") {
		input.IsTeachingSpace = &flags.teachingSpace
	}
	return input, nil
}
