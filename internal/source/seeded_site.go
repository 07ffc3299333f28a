package source

import (
	"context"
	"math"
	"math/rand/v2"

	"github.com/roach88/buildcheck/internal/ir"
)

// Probabilities that an environmental screen comes back present.
const (
	FloodZoneThreshold          = 0.30
	WetlandThreshold            = 0.25
	SteepSlopeThreshold         = 0.20
	CriticalAreaBufferThreshold = 0.15
)

// HydricProbability is the share of parcels on hydric soils.
const HydricProbability = 0.08

// SewerRequiredDistanceFt is the distance to a main within which connection
// is mandatory.
const SewerRequiredDistanceFt = 200.0

// sewerCoverage is the share of parcels inside a sewer service area.
var sewerCoverage = map[string]float64{
	"R-1": 0.20,
	"R-4": 0.60,
	"R-6": 0.85,
}

const defaultSewerCoverage = 0.50

type soilUnit struct {
	symbol   string
	name     string
	drainage string
}

var soilUnits = []soilUnit{
	{"AgC", "Alderwood gravelly sandy loam, 6 to 15 percent slopes", "moderately well drained"},
	{"AgB", "Alderwood gravelly sandy loam, 0 to 6 percent slopes", "moderately well drained"},
	{"EvC", "Everett gravelly sandy loam, 5 to 15 percent slopes", "somewhat excessively drained"},
	{"InC", "Indianola loamy sand, 4 to 15 percent slopes", "somewhat excessively drained"},
	{"KpB", "Kitsap silt loam, 2 to 8 percent slopes", "moderately well drained"},
	{"No", "Norma sandy loam", "poorly drained"},
	{"Sk", "Seattle muck", "very poorly drained"},
}

type weighted struct {
	value  string
	weight float64
}

var suitabilityWeights = []weighted{
	{ir.SoilWellSuited, 0.40},
	{ir.SoilSomewhatLimited, 0.30},
	{ir.SoilVeryLimited, 0.20},
	{ir.SoilNotRated, 0.10},
}

func pick(r *rand.Rand, choices []weighted) string {
	x := r.Float64()
	for _, c := range choices {
		if x < c.weight {
			return c.value
		}
		x -= c.weight
	}
	return choices[len(choices)-1].value
}

var (
	citeSoilSurvey = ir.Citation{
		Source:  "USDA NRCS Web Soil Survey",
		Section: "Septic tank absorption fields",
		URL:     "https://websoilsurvey.nrcs.usda.gov/",
	}
	citeSewerCode = ir.Citation{
		Source:       "King County Board of Health Code",
		Section:      "BOH 13.04.050",
		Text:         "Connection to public sewer is required where a sewer is available within 200 feet.",
		URL:          "https://kingcounty.gov/en/dept/dph/about-king-county/about-public-health/board-of-health/code",
		Jurisdiction: "king-county-wa",
	}
	citeFloodMap = ir.Citation{
		Source:  "FEMA National Flood Hazard Layer",
		Section: "Special Flood Hazard Area",
		URL:     "https://msc.fema.gov/portal/home",
	}
	citeWetlands = ir.Citation{
		Source:       "King County Code",
		Section:      "KCC 21A.24.318",
		Text:         "Wetland buffers.",
		URL:          "https://kingcounty.gov/council/legislation/kc_code/24_30_Title_21A.aspx",
		Jurisdiction: "king-county-wa",
	}
	citeSteepSlopes = ir.Citation{
		Source:       "King County Code",
		Section:      "KCC 21A.24.310",
		Text:         "Steep slope hazard areas.",
		URL:          "https://kingcounty.gov/council/legislation/kc_code/24_30_Title_21A.aspx",
		Jurisdiction: "king-county-wa",
	}
	citeCriticalAreas = ir.Citation{
		Source:       "King County Code",
		Section:      "KCC 21A.24.200",
		Text:         "Critical area buffers and building setbacks.",
		URL:          "https://kingcounty.gov/council/legislation/kc_code/24_30_Title_21A.aspx",
		Jurisdiction: "king-county-wa",
	}
)

// Soil derives a soil survey sample at the parcel centroid.
func (s *Seeded) Soil(ctx context.Context, property ir.PropertyRecord) (*ir.SoilData, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r := Stream(componentSoil, ir.AddressKey(property.Address))

	unit := soilUnits[r.IntN(len(soilUnits))]
	soil := &ir.SoilData{
		MapUnit:       unit.symbol + " " + unit.name,
		Suitability:   pick(r, suitabilityWeights),
		DrainageClass: unit.drainage,
		Hydric:        r.Float64() < HydricProbability,
		Source:        citeSoilSurvey.Source,
		Confidence:    ir.ConfidenceEstimated,
	}
	if r.Float64() >= 0.5 {
		soil.WaterTableDepthIn = ir.Float(math.Round(between(r, 12, 80)))
	}
	if r.Float64() < 0.3 {
		soil.RestrictiveLayerDepthIn = ir.Float(math.Round(between(r, 20, 60)))
	}
	low := math.Round(between(r, 0, 20))
	soil.SlopeLowPct = low
	soil.SlopeHighPct = low + math.Round(between(r, 2, 25))
	return soil, nil
}

// Sewer derives sewer service coverage. Parcels inside a service area with
// a main within SewerRequiredDistanceFt must connect.
func (s *Seeded) Sewer(ctx context.Context, property ir.PropertyRecord) (*ir.SewerServiceArea, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r := Stream(componentSewer, ir.AddressKey(property.Address))

	coverage, ok := sewerCoverage[property.ZoningDistrict]
	if !ok {
		coverage = defaultSewerCoverage
	}
	if r.Float64() >= coverage {
		return &ir.SewerServiceArea{
			Provider: "None (outside sewer service area)",
			Citation: citeSewerCode,
		}, nil
	}

	providers := []string{"King County Wastewater Treatment Division", "Soos Creek Water and Sewer District", "Cedar River Water and Sewer District"}
	distance := math.Round(between(r, 20, 600))
	return &ir.SewerServiceArea{
		Provider:           providers[r.IntN(len(providers))],
		Available:          true,
		ConnectionRequired: distance <= SewerRequiredDistanceFt,
		DistanceToMainFt:   ir.Float(distance),
		Citation:           citeSewerCode,
	}, nil
}

type screen struct {
	kind      string
	threshold float64
	failing   bool
	present   string
	absent    string
	cite      ir.Citation
}

var screens = []screen{
	{
		kind:      ir.FlagFloodZone,
		threshold: FloodZoneThreshold,
		present:   "Parcel intersects a mapped special flood hazard area; elevation certificates and flood-resistant construction apply",
		absent:    "No mapped special flood hazard area on the parcel",
		cite:      citeFloodMap,
	},
	{
		kind:      ir.FlagWetland,
		threshold: WetlandThreshold,
		failing:   true,
		present:   "Wetland indicators on or adjacent to the parcel; a delineation and buffer will restrict the buildable area",
		absent:    "No mapped wetlands on the parcel",
		cite:      citeWetlands,
	},
	{
		kind:      ir.FlagSteepSlope,
		threshold: SteepSlopeThreshold,
		present:   "Slopes of 40 percent or more mapped on the parcel; a geotechnical report will be required",
		absent:    "No mapped steep slope hazard areas",
		cite:      citeSteepSlopes,
	},
	{
		kind:      ir.FlagCriticalAreaBuffer,
		threshold: CriticalAreaBufferThreshold,
		present:   "Parcel falls within a critical area buffer; additional review and building setbacks apply",
		absent:    "No critical area buffers mapped on the parcel",
		cite:      citeCriticalAreas,
	},
}

// Environment runs every environmental screen. All four flags are always
// returned so absence is reported explicitly.
func (s *Seeded) Environment(ctx context.Context, property ir.PropertyRecord) ([]ir.EnvironmentalFlag, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r := Stream(componentEnvironment, ir.AddressKey(property.Address))

	flags := make([]ir.EnvironmentalFlag, 0, len(screens))
	for _, sc := range screens {
		flag := ir.EnvironmentalFlag{
			Type:        sc.kind,
			Present:     r.Float64() < sc.threshold,
			Status:      ir.StatusPass,
			Description: sc.absent,
			Citations:   []ir.Citation{sc.cite},
		}
		if flag.Present {
			flag.Description = sc.present
			flag.Status = ir.StatusWarn
			if sc.failing {
				flag.Status = ir.StatusFail
			}
		}
		flags = append(flags, flag)
	}
	return flags, nil
}
