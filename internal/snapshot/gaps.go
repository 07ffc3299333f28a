package snapshot

import (
	"github.com/roach88/buildcheck/internal/ir"
	"github.com/roach88/buildcheck/internal/source"
)

// EasementThreshold is the share of reports that carry the recorded
// easements caveat.
const EasementThreshold = 0.40

// Data gap categories.
const (
	GapSurvey     = "survey"
	GapOrdinance  = "ordinance"
	GapSeptic     = "septic"
	GapTitle      = "title"
	GapProvenance = "provenance"
)

// dataGaps lists the completeness limits of a report in a fixed order:
// the survey and ordinance caveats, the perc-test caveat, the easements
// caveat, then one caveat per estimated input.
func dataGaps(addressKey string, a ir.WastewaterAssessment, estimated []provenance) []ir.DataGap {
	gaps := []ir.DataGap{
		{
			Category:       GapSurvey,
			Description:    "Lot dimensions and structure positions are not from a boundary survey",
			Impact:         "Setback and coverage results may shift once the lot is surveyed",
			Recommendation: "Order a boundary and topographic survey before design",
		},
		{
			Category:       GapOrdinance,
			Description:    "Zoning rules reflect the catalog version in this report and may not include recent amendments",
			Impact:         "Recently adopted code changes are not evaluated",
			Recommendation: "Confirm current standards with the permitting agency",
		},
	}

	if !a.SewerAvailable {
		gaps = append(gaps, ir.DataGap{
			Category:       GapSeptic,
			Description:    "No percolation test or soil log is on file for the parcel",
			Impact:         "Septic feasibility and system type are based on soil survey data only",
			Recommendation: "Have a licensed designer perform a soil log and perc test",
		})
	}

	if source.Stream("gaps", addressKey).Float64() < EasementThreshold {
		gaps = append(gaps, ir.DataGap{
			Category:       GapTitle,
			Description:    "Recorded easements and covenants were not reviewed",
			Impact:         "Utility or access easements may further limit the buildable area",
			Recommendation: "Obtain a title report and review recorded easements",
		})
	}

	for _, p := range estimated {
		gaps = append(gaps, ir.DataGap{
			Category:       GapProvenance,
			Description:    "The " + p.input + " data is estimated: " + p.reason,
			Impact:         "Findings that depend on " + p.input + " data may not match site conditions",
			Recommendation: "Verify the " + p.input + " data against authoritative records",
		})
	}
	return gaps
}
