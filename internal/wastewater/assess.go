// Package wastewater assesses sewer availability and on-site septic
// feasibility for a parcel.
//
// Assess is an ordered pipeline over already-resolved inputs. Feasibility
// starts at feasible and each step may only degrade it. A parcel that is
// required to connect to an available sewer skips the septic pipeline
// entirely.
package wastewater

import (
	"fmt"

	"github.com/roach88/buildcheck/internal/ir"
)

// Site thresholds for on-site sewage feasibility.
const (
	MinLotAreaSqFt       = 7500.0
	MinWaterTableDepthIn = 36.0
	SteepSlopePct        = 30.0
	ModerateSlopePct     = 15.0
)

// Issue codes.
const (
	CodeSewerRequired       = "SEWER_CONNECTION_REQUIRED"
	CodeSewerOptional       = "SEWER_AVAILABLE_OPTIONAL"
	CodeNoSewer             = "NO_SEWER_SERVICE"
	CodeLotTooSmall         = "LOT_BELOW_MINIMUM_AREA"
	CodeSoilDataMissing     = "SOIL_DATA_MISSING"
	CodeHydricSoil          = "HYDRIC_SOIL"
	CodeSoilVeryLimited     = "SOIL_VERY_LIMITED"
	CodeSoilSomewhatLimited = "SOIL_SOMEWHAT_LIMITED"
	CodePercTestRequired    = "PERC_TEST_REQUIRED"
	CodeHighWaterTable      = "HIGH_WATER_TABLE"
	CodeSteepSlope          = "STEEP_SLOPE"
	CodeModerateSlope       = "MODERATE_SLOPE"
)

// Assess evaluates wastewater options. A nil sewer means no service area
// data; a nil soil means no soil sample could be resolved.
func Assess(property ir.PropertyRecord, soil *ir.SoilData, sewer *ir.SewerServiceArea) ir.WastewaterAssessment {
	a := ir.WastewaterAssessment{
		SystemTypes:     []ir.SystemRecommendation{},
		Setbacks:        []ir.SepticSetback{},
		Issues:          []ir.Issue{},
		Recommendations: []string{},
	}
	if sewer != nil {
		a.SewerAvailable = sewer.Available
		a.SewerRequired = sewer.ConnectionRequired
		a.SewerProvider = sewer.Provider
	}

	if a.SewerAvailable && a.SewerRequired {
		return sewerRequired(a, sewer)
	}

	a.SepticRequired = true
	a.SewerStatus = sewerStatus(sewer)
	switch {
	case sewer == nil:
	case sewer.Available:
		a.Issues = append(a.Issues, ir.Issue{
			Code:      CodeSewerOptional,
			Severity:  ir.SeverityInfo,
			Message:   fmt.Sprintf("Public sewer from %s is available but connection is not required", providerName(sewer)),
			Citations: []ir.Citation{sewerCitation(sewer)},
		})
	default:
		a.Issues = append(a.Issues, ir.Issue{
			Code:      CodeNoSewer,
			Severity:  ir.SeverityInfo,
			Message:   "No public sewer serves this parcel; an on-site sewage system is required",
			Citations: []ir.Citation{sewerCitation(sewer)},
		})
	}

	feasibility, issues := siteChecks(property, soil)
	a.SepticFeasibility = feasibility
	a.SepticStatus = feasibility.Status()
	a.Issues = append(a.Issues, issues...)

	a.SystemTypes = RecommendSystems(property, soil)
	a.CostEstimate = EstimateCost(a.SystemTypes, feasibility)
	a.Setbacks = Setbacks()
	a.Recommendations = recommendations(feasibility, sewer)

	lists := [][]ir.Citation{{citeHorizontalSeparation}}
	for _, issue := range a.Issues {
		lists = append(lists, issue.Citations)
	}
	a.Citations = ir.MergeCitations(lists...)
	return a
}

// sewerRequired is the terminal branch: septic is not evaluated at all.
func sewerRequired(a ir.WastewaterAssessment, sewer *ir.SewerServiceArea) ir.WastewaterAssessment {
	cite := sewerCitation(sewer)
	a.SewerStatus = ir.StatusPass
	a.SepticRequired = false
	a.SepticFeasibility = ir.FeasibilityNotFeasible
	// Not applicable, so it never counts against utilities.
	a.SepticStatus = ir.StatusPass
	a.Issues = []ir.Issue{{
		Code:      CodeSewerRequired,
		Severity:  ir.SeverityInfo,
		Message:   fmt.Sprintf("Connection to public sewer (%s) is available and required; an on-site septic system will not be permitted", providerName(sewer)),
		Citations: []ir.Citation{cite},
	}}
	a.Recommendations = []string{
		fmt.Sprintf("Contact %s to confirm connection fees and capacity charges", providerName(sewer)),
		"Obtain a side sewer permit before construction",
		"Budget for the side sewer run from the structure to the main",
	}
	a.Citations = []ir.Citation{cite}
	return a
}

func sewerStatus(sewer *ir.SewerServiceArea) ir.Status {
	switch {
	case sewer == nil:
		return ir.StatusUnknown
	case sewer.Available:
		return ir.StatusPass
	default:
		return ir.StatusWarn
	}
}

func providerName(sewer *ir.SewerServiceArea) string {
	if sewer == nil || sewer.Provider == "" {
		return "the local sewer utility"
	}
	return sewer.Provider
}

// siteChecks runs the degradation steps in their fixed order. Every step
// still reports its issue after feasibility has reached not_feasible.
func siteChecks(property ir.PropertyRecord, soil *ir.SoilData) (ir.Feasibility, []ir.Issue) {
	f := ir.FeasibilityFeasible
	var issues []ir.Issue

	if property.LotAreaSqFt > 0 && property.LotAreaSqFt < MinLotAreaSqFt {
		f = f.Degrade(ir.FeasibilityNotFeasible)
		issues = append(issues, ir.Issue{
			Code:     CodeLotTooSmall,
			Severity: ir.SeverityCritical,
			Message: fmt.Sprintf("Lot area of %s sq ft is below the %s sq ft minimum for an on-site sewage system",
				ir.FormatDecimal(property.LotAreaSqFt), ir.FormatDecimal(MinLotAreaSqFt)),
			Citations: []ir.Citation{citeMinimumLandArea},
		})
	}

	if soil == nil {
		if f != ir.FeasibilityNotFeasible {
			f = ir.FeasibilityUnknown
		}
		issues = append(issues, ir.Issue{
			Code:      CodeSoilDataMissing,
			Severity:  ir.SeverityWarning,
			Message:   "Soil survey data is unavailable for this parcel; septic feasibility cannot be determined without a site evaluation",
			Citations: []ir.Citation{citeSoilEvaluation},
		})
		return f, issues
	}

	if soil.Hydric {
		f = f.Degrade(ir.FeasibilityNotFeasible)
		issues = append(issues, ir.Issue{
			Code:      CodeHydricSoil,
			Severity:  ir.SeverityCritical,
			Message:   "Hydric soils indicate wetland conditions; drainfields are generally prohibited",
			Citations: []ir.Citation{citeSoilEvaluation},
		})
	}

	switch soil.Suitability {
	case ir.SoilVeryLimited:
		f = f.Degrade(ir.FeasibilityChallenging)
		issues = append(issues, ir.Issue{
			Code:      CodeSoilVeryLimited,
			Severity:  ir.SeverityWarning,
			Message:   "Soils are very limited for septic absorption; an alternative treatment system will likely be required",
			Citations: []ir.Citation{citeSoilEvaluation},
		})
	case ir.SoilSomewhatLimited:
		f = f.Degrade(ir.FeasibilityConditional)
		issues = append(issues, ir.Issue{
			Code:      CodeSoilSomewhatLimited,
			Severity:  ir.SeverityWarning,
			Message:   "Soils are somewhat limited for septic absorption; system design may need pressure distribution",
			Citations: []ir.Citation{citeSoilEvaluation},
		})
	case ir.SoilNotRated:
		f = f.Degrade(ir.FeasibilityConditional)
		issues = append(issues, ir.Issue{
			Code:      CodePercTestRequired,
			Severity:  ir.SeverityWarning,
			Message:   "Soils are not rated for septic absorption; a percolation test is required to establish suitability",
			Citations: []ir.Citation{citeSoilEvaluation},
		})
	}

	if soil.WaterTableDepthIn != nil && *soil.WaterTableDepthIn < MinWaterTableDepthIn {
		f = f.Degrade(ir.FeasibilityConditional)
		issues = append(issues, ir.Issue{
			Code:     CodeHighWaterTable,
			Severity: ir.SeverityWarning,
			Message: fmt.Sprintf("Seasonal water table at %s in is shallower than %s in; vertical separation may require a mound or treatment unit",
				ir.FormatDecimal(*soil.WaterTableDepthIn), ir.FormatDecimal(MinWaterTableDepthIn)),
			Citations: []ir.Citation{citeVerticalSeparation},
		})
	}

	switch {
	case soil.SlopeHighPct > SteepSlopePct:
		f = f.Degrade(ir.FeasibilityChallenging)
		issues = append(issues, ir.Issue{
			Code:     CodeSteepSlope,
			Severity: ir.SeverityWarning,
			Message: fmt.Sprintf("Slopes up to %s%% exceed %s%%; drainfield placement is constrained",
				ir.FormatDecimal(soil.SlopeHighPct), ir.FormatDecimal(SteepSlopePct)),
			Citations: []ir.Citation{citeSoilEvaluation},
		})
	case soil.SlopeHighPct >= ModerateSlopePct:
		issues = append(issues, ir.Issue{
			Code:     CodeModerateSlope,
			Severity: ir.SeverityInfo,
			Message: fmt.Sprintf("Slopes of %s-%s%% may affect drainfield layout",
				ir.FormatDecimal(soil.SlopeLowPct), ir.FormatDecimal(soil.SlopeHighPct)),
			Citations: []ir.Citation{citeSoilEvaluation},
		})
	}

	return f, issues
}

func recommendations(f ir.Feasibility, sewer *ir.SewerServiceArea) []string {
	var out []string
	switch f {
	case ir.FeasibilityFeasible:
		out = append(out,
			"Hire a licensed on-site sewage designer to complete a soil log and system design",
			"Apply for an on-site sewage system permit with the local health department",
		)
	case ir.FeasibilityConditional, ir.FeasibilityChallenging:
		out = append(out,
			"Commission a soil and site evaluation before finalizing the building footprint",
			"Budget for an alternative or pressurized system and its maintenance contract",
		)
	case ir.FeasibilityNotFeasible:
		out = append(out,
			"An on-site septic system is unlikely to be approved; explore sewer extension or a community system",
			"Consult the local health department about variance options before purchase",
		)
	default:
		out = append(out,
			"Order a soil log and percolation test to determine septic feasibility",
		)
	}
	if sewer != nil && sewer.Available {
		out = append(out, fmt.Sprintf("Compare the cost of connecting to %s against an on-site system", providerName(sewer)))
	}
	return out
}
