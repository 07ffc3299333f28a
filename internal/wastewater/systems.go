package wastewater

import (
	"math"
	"slices"

	"github.com/roach88/buildcheck/internal/ir"
)

// Contingency factors applied to cost estimates.
const (
	ContingencyChallenging = 1.30
	ContingencyConditional = 1.15
)

// Shallow soils need vertical separation a conventional trench cannot give.
const (
	shallowDepthIn = 36.0
	moundMaxSlope  = 12.0
)

// System type identifiers.
const (
	SystemConventionalGravity  = "conventional_gravity"
	SystemPressureDistribution = "pressure_distribution"
	SystemMound                = "mound"
	SystemSandFilter           = "sand_filter"
	SystemAerobicTreatmentUnit = "aerobic_treatment_unit"
)

type siteProfile struct {
	soil     *ir.SoilData
	lotSmall bool
	shallow  bool
	slope    float64
	unrated  bool
	hydric   bool
}

func (p siteProfile) suitability(s string) bool {
	return p.soil != nil && p.soil.Suitability == s
}

type systemSpec struct {
	kind  string
	name  string
	cost  ir.CostRange
	judge func(p siteProfile) (ir.Suitability, string)
}

// systemSpecs are listed in their display order before sorting by suitability.
var systemSpecs = []systemSpec{
	{
		kind: SystemConventionalGravity,
		name: "Conventional gravity",
		cost: ir.CostRange{Min: 10000, Max: 18000},
		judge: func(p siteProfile) (ir.Suitability, string) {
			switch {
			case p.suitability(ir.SoilWellSuited) && !p.shallow && p.slope <= ModerateSlopePct:
				return ir.SuitabilityRecommended, "Well-suited soils with adequate depth support a gravity drainfield"
			case p.suitability(ir.SoilSomewhatLimited) && !p.shallow && p.slope <= SteepSlopePct:
				return ir.SuitabilityAcceptable, "Gravity distribution may work with a larger drainfield"
			default:
				return ir.SuitabilityNotRecommended, "Soil, depth or slope conditions rule out gravity distribution"
			}
		},
	},
	{
		kind: SystemPressureDistribution,
		name: "Pressure distribution",
		cost: ir.CostRange{Min: 15000, Max: 25000},
		judge: func(p siteProfile) (ir.Suitability, string) {
			switch {
			case p.slope > SteepSlopePct:
				return ir.SuitabilityNotRecommended, "Slopes are too steep for a pressurized drainfield"
			case p.suitability(ir.SoilSomewhatLimited) && !p.shallow,
				p.suitability(ir.SoilWellSuited) && p.slope > ModerateSlopePct:
				return ir.SuitabilityRecommended, "Pressure dosing spreads effluent evenly in limited or sloped soils"
			case p.suitability(ir.SoilWellSuited), p.unrated:
				return ir.SuitabilityAcceptable, "Pressure distribution is a conservative option pending design"
			default:
				return ir.SuitabilityNotRecommended, "Soil conditions require additional treatment before dispersal"
			}
		},
	},
	{
		kind: SystemMound,
		name: "Mound",
		cost: ir.CostRange{Min: 25000, Max: 45000},
		judge: func(p siteProfile) (ir.Suitability, string) {
			switch {
			case p.shallow && p.slope <= moundMaxSlope:
				return ir.SuitabilityRecommended, "A mound provides vertical separation over a shallow water table or restrictive layer"
			case p.shallow, p.suitability(ir.SoilVeryLimited):
				return ir.SuitabilityAcceptable, "A mound may be possible subject to slope and footprint"
			default:
				return ir.SuitabilityNotRecommended, "Site conditions do not require the cost of a mound"
			}
		},
	},
	{
		kind: SystemSandFilter,
		name: "Sand filter",
		cost: ir.CostRange{Min: 30000, Max: 50000},
		judge: func(p siteProfile) (ir.Suitability, string) {
			switch {
			case p.suitability(ir.SoilVeryLimited):
				return ir.SuitabilityRecommended, "Sand filtration treats effluent before it reaches very limited soils"
			case p.suitability(ir.SoilSomewhatLimited), p.shallow:
				return ir.SuitabilityAcceptable, "Sand filtration reduces the drainfield separation required"
			default:
				return ir.SuitabilityNotRecommended, "Additional treatment is not needed for these soils"
			}
		},
	},
	{
		kind: SystemAerobicTreatmentUnit,
		name: "Aerobic treatment unit",
		cost: ir.CostRange{Min: 20000, Max: 40000},
		judge: func(p siteProfile) (ir.Suitability, string) {
			switch {
			case p.slope > SteepSlopePct:
				return ir.SuitabilityRecommended, "A compact treatment unit reduces the drainfield area needed on steep ground"
			case p.shallow, p.suitability(ir.SoilVeryLimited):
				return ir.SuitabilityAcceptable, "Advanced treatment allows reduced separation to the limiting layer"
			default:
				return ir.SuitabilityNotRecommended, "Advanced treatment is not needed for these soils"
			}
		},
	},
}

// RecommendSystems ranks every system type for the site. The result is
// stably sorted recommended, acceptable, not_recommended.
func RecommendSystems(property ir.PropertyRecord, soil *ir.SoilData) []ir.SystemRecommendation {
	p := siteProfile{
		soil:     soil,
		lotSmall: property.LotAreaSqFt > 0 && property.LotAreaSqFt < MinLotAreaSqFt,
	}
	if soil != nil {
		p.slope = soil.SlopeHighPct
		p.hydric = soil.Hydric
		p.unrated = soil.Suitability == ir.SoilNotRated
		p.shallow = (soil.WaterTableDepthIn != nil && *soil.WaterTableDepthIn < shallowDepthIn) ||
			(soil.RestrictiveLayerDepthIn != nil && *soil.RestrictiveLayerDepthIn < shallowDepthIn)
	}

	out := make([]ir.SystemRecommendation, 0, len(systemSpecs))
	for _, spec := range systemSpecs {
		rec := ir.SystemRecommendation{
			Type:      spec.kind,
			Name:      spec.name,
			CostRange: spec.cost,
		}
		switch {
		case soil == nil:
			rec.Suitability = ir.SuitabilityAcceptable
			rec.Reasons = []string{"Soil data unavailable; suitability depends on a site evaluation"}
		case p.hydric:
			rec.Suitability = ir.SuitabilityNotRecommended
			rec.Reasons = []string{"Hydric soils generally prohibit on-site dispersal"}
		case p.lotSmall:
			rec.Suitability = ir.SuitabilityNotRecommended
			rec.Reasons = []string{"Lot is below the minimum land area for an on-site system"}
		default:
			suitability, reason := spec.judge(p)
			rec.Suitability = suitability
			rec.Reasons = []string{reason}
			if p.unrated {
				rec.Reasons = append(rec.Reasons, "Confirm with a percolation test; soils are not rated")
			}
		}
		out = append(out, rec)
	}

	slices.SortStableFunc(out, func(a, b ir.SystemRecommendation) int {
		return a.Suitability.Order() - b.Suitability.Order()
	})
	return out
}

// EstimateCost spans the recommended systems, or every system when none is
// recommended, and applies the contingency for the feasibility verdict.
// Bounds are rounded to whole dollars. It returns nil for an empty input.
func EstimateCost(systems []ir.SystemRecommendation, feasibility ir.Feasibility) *ir.CostRange {
	var basis []ir.SystemRecommendation
	for _, s := range systems {
		if s.Suitability == ir.SuitabilityRecommended {
			basis = append(basis, s)
		}
	}
	if len(basis) == 0 {
		basis = systems
	}
	if len(basis) == 0 {
		return nil
	}

	lo, hi := basis[0].CostRange.Min, basis[0].CostRange.Max
	for _, s := range basis[1:] {
		lo = math.Min(lo, s.CostRange.Min)
		hi = math.Max(hi, s.CostRange.Max)
	}

	factor := 1.0
	switch feasibility {
	case ir.FeasibilityChallenging:
		factor = ContingencyChallenging
	case ir.FeasibilityConditional:
		factor = ContingencyConditional
	}
	return &ir.CostRange{Min: math.Round(lo * factor), Max: math.Round(hi * factor)}
}

// Setbacks returns the fixed horizontal separation table.
func Setbacks() []ir.SepticSetback {
	rows := []struct {
		feature   string
		component string
		feet      float64
	}{
		{"property line", "septic tank", 10},
		{"property line", "drainfield", 10},
		{"well", "drainfield", 100},
		{"well", "septic tank", 50},
		{"building foundation", "septic tank", 10},
		{"building foundation", "drainfield", 20},
		{"surface water", "drainfield", 100},
		{"slopes over 40%", "drainfield", 50},
	}
	out := make([]ir.SepticSetback, len(rows))
	for i, r := range rows {
		out[i] = ir.SepticSetback{
			Feature:      r.feature,
			Component:    r.component,
			DistanceFeet: r.feet,
			Citation:     citeHorizontalSeparation,
		}
	}
	return out
}
