package ir

// RuleType identifies the kind of dimensional rule.
type RuleType string

const (
	RuleSetbackFront       RuleType = "setback_front"
	RuleSetbackSide        RuleType = "setback_side"
	RuleSetbackRear        RuleType = "setback_rear"
	RuleSetbackStreetSide  RuleType = "setback_street_side"
	RuleHeightMax          RuleType = "height_max"
	RuleHeightMaxAccessory RuleType = "height_max_accessory"
	RuleLotCoverageMax     RuleType = "lot_coverage_max"
	RuleFARMax             RuleType = "far_max"
	RuleADUAllowed         RuleType = "adu_allowed"
	RuleADUSizeMax         RuleType = "adu_size_max"
	RuleStructureSep       RuleType = "structure_separation"
	RuleAccessorySetback   RuleType = "accessory_setback"
)

// KnownRuleTypes lists the rule types the validator evaluates.
// Catalogs may carry other types; they are kept but never produce checks.
var KnownRuleTypes = map[RuleType]bool{
	RuleSetbackFront:       true,
	RuleSetbackSide:        true,
	RuleSetbackRear:        true,
	RuleSetbackStreetSide:  true,
	RuleHeightMax:          true,
	RuleHeightMaxAccessory: true,
	RuleLotCoverageMax:     true,
	RuleFARMax:             true,
	RuleADUAllowed:         true,
	RuleADUSizeMax:         true,
	RuleStructureSep:       true,
	RuleAccessorySetback:   true,
}

// Structure type tags.
const (
	StructurePrimaryDwelling = "primary_dwelling"
	StructureADU             = "adu"
	StructureDADU            = "dadu"
	StructureGarage          = "garage"
	StructureShed            = "shed"
)

// Citation points at the source backing a finding.
type Citation struct {
	Source       string `json:"source"`
	Section      string `json:"section,omitempty"`
	Text         string `json:"text,omitempty"`
	URL          string `json:"url,omitempty"`
	Jurisdiction string `json:"jurisdiction,omitempty"`
}

// Key identifies a citation for de-duplication.
func (c Citation) Key() string {
	return c.Source + "\x00" + c.Section + "\x00" + c.URL
}

// ZoningRule is one dimensional rule from a jurisdiction's code.
type ZoningRule struct {
	ID               string   `json:"id"`
	RuleType         RuleType `json:"ruleType"`
	AppliesTo        []string `json:"appliesTo"`
	ValueNumeric     *float64 `json:"valueNumeric,omitempty"`
	ValueText        string   `json:"valueText,omitempty"`
	Unit             string   `json:"unit"`
	JurisdictionID   string   `json:"jurisdictionId"`
	Districts        []string `json:"districts,omitempty"`
	OrdinanceSection string   `json:"ordinanceSection"`
	OrdinanceText    string   `json:"ordinanceText"`
	SourceURL        string   `json:"sourceUrl,omitempty"`
}

// Applies reports whether the rule covers the given structure type.
func (r ZoningRule) Applies(structureType string) bool {
	for _, t := range r.AppliesTo {
		if t == structureType {
			return true
		}
	}
	return false
}

// Citation returns the ordinance citation for the rule.
func (r ZoningRule) Citation() Citation {
	return Citation{
		Source:       "Zoning code",
		Section:      r.OrdinanceSection,
		Text:         r.OrdinanceText,
		URL:          r.SourceURL,
		Jurisdiction: r.JurisdictionID,
	}
}

// Point is a WGS-84 coordinate.
type Point struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Confidence labels how an input was resolved.
type Confidence string

const (
	ConfidenceVerified  Confidence = "verified"
	ConfidenceEstimated Confidence = "estimated"
)

// PropertyRecord is a resolved parcel.
type PropertyRecord struct {
	ParcelID       string     `json:"parcelId"`
	Address        string     `json:"address"`
	City           string     `json:"city"`
	County         string     `json:"county"`
	State          string     `json:"state"`
	JurisdictionID string     `json:"jurisdictionId"`
	ZoningDistrict string     `json:"zoningDistrict"`
	ZoningCategory string     `json:"zoningCategory"`
	LotAreaSqFt    float64    `json:"lotAreaSqFt"`
	LotWidthFt     float64    `json:"lotWidthFt"`
	LotDepthFt     float64    `json:"lotDepthFt"`
	Centroid       Point      `json:"centroid"`
	Source         string     `json:"source"`
	Confidence     Confidence `json:"confidence"`
}

// Structure is an existing or proposed building on the lot.
// Nil measurements are unknown and skip the rules that need them.
type Structure struct {
	ID                string             `json:"id" yaml:"id"`
	Type              string             `json:"type" yaml:"type"`
	FootprintSqFt     float64            `json:"footprintSqFt" yaml:"footprint_sqft"`
	HeightFeet        *float64           `json:"heightFeet,omitempty" yaml:"height_feet,omitempty"`
	Stories           int                `json:"stories" yaml:"stories"`
	SetbackFront      *float64           `json:"setbackFront,omitempty" yaml:"setback_front,omitempty"`
	SetbackSide       *float64           `json:"setbackSide,omitempty" yaml:"setback_side,omitempty"`
	SetbackRear       *float64           `json:"setbackRear,omitempty" yaml:"setback_rear,omitempty"`
	SetbackStreetSide *float64           `json:"setbackStreetSide,omitempty" yaml:"setback_street_side,omitempty"`
	Separations       map[string]float64 `json:"separations,omitempty" yaml:"separations,omitempty"`
	Proposed          bool               `json:"proposed" yaml:"proposed"`
}

// ValidationCheck is the outcome of one rule against one structure, pair, or lot.
type ValidationCheck struct {
	RuleID       string     `json:"ruleId"`
	RuleType     RuleType   `json:"ruleType"`
	StructureID  string     `json:"structureId,omitempty"`
	NeighborID   string     `json:"neighborId,omitempty"`
	Status       Status     `json:"status"`
	Measured     *float64   `json:"measured,omitempty"`
	Required     *float64   `json:"required,omitempty"`
	RequiredText string     `json:"requiredText,omitempty"`
	Unit         string     `json:"unit"`
	Margin       *float64   `json:"margin,omitempty"`
	Excess       *float64   `json:"excess,omitempty"`
	Message      string     `json:"message"`
	Citations    []Citation `json:"citations"`
}

// ValidationResult is the dimensional validator output.
type ValidationResult struct {
	Status         Status            `json:"status"`
	JurisdictionID string            `json:"jurisdictionId"`
	ZoningDistrict string            `json:"zoningDistrict"`
	Checks         []ValidationCheck `json:"checks"`
	Passed         int               `json:"passed"`
	Warnings       int               `json:"warnings"`
	Failed         int               `json:"failed"`
	Unknown        int               `json:"unknown"`
}

// Soil suitability classes for septic absorption fields.
const (
	SoilWellSuited      = "well_suited"
	SoilSomewhatLimited = "somewhat_limited"
	SoilVeryLimited     = "very_limited"
	SoilNotRated        = "not_rated"
)

// SoilData is a soil survey sample at the parcel centroid.
type SoilData struct {
	MapUnit                 string     `json:"mapUnit,omitempty" yaml:"map_unit,omitempty"`
	Suitability             string     `json:"suitability" yaml:"suitability"`
	DrainageClass           string     `json:"drainageClass,omitempty" yaml:"drainage_class,omitempty"`
	Hydric                  bool       `json:"hydric" yaml:"hydric"`
	WaterTableDepthIn       *float64   `json:"waterTableDepthIn,omitempty" yaml:"water_table_depth_in,omitempty"`
	RestrictiveLayerDepthIn *float64   `json:"restrictiveLayerDepthIn,omitempty" yaml:"restrictive_layer_depth_in,omitempty"`
	SlopeLowPct             float64    `json:"slopeLowPct" yaml:"slope_low_pct"`
	SlopeHighPct            float64    `json:"slopeHighPct" yaml:"slope_high_pct"`
	Source                  string     `json:"source,omitempty" yaml:"source,omitempty"`
	Confidence              Confidence `json:"confidence,omitempty" yaml:"confidence,omitempty"`
}

// SewerServiceArea describes public sewer coverage at the parcel.
type SewerServiceArea struct {
	Provider           string   `json:"provider" yaml:"provider"`
	Available          bool     `json:"available" yaml:"available"`
	ConnectionRequired bool     `json:"connectionRequired" yaml:"connection_required"`
	DistanceToMainFt   *float64 `json:"distanceToMainFt,omitempty" yaml:"distance_to_main_ft,omitempty"`
	Citation           Citation `json:"citation" yaml:"-"`
}

// CostRange is an inclusive dollar range.
type CostRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// SystemRecommendation ranks one on-site sewage system type.
type SystemRecommendation struct {
	Type        string      `json:"type"`
	Name        string      `json:"name"`
	Suitability Suitability `json:"suitability"`
	Reasons     []string    `json:"reasons"`
	CostRange   CostRange   `json:"costRange"`
}

// SepticSetback is one row of the fixed horizontal separation table.
type SepticSetback struct {
	Feature      string   `json:"feature"`
	Component    string   `json:"component"`
	DistanceFeet float64  `json:"distanceFeet"`
	Citation     Citation `json:"citation"`
}

// Issue is a severity-tagged wastewater finding.
type Issue struct {
	Code      string     `json:"code"`
	Severity  Severity   `json:"severity"`
	Message   string     `json:"message"`
	Citations []Citation `json:"citations"`
}

// WastewaterAssessment is the wastewater assessor output.
type WastewaterAssessment struct {
	SewerAvailable    bool                   `json:"sewerAvailable"`
	SewerRequired     bool                   `json:"sewerRequired"`
	SewerProvider     string                 `json:"sewerProvider,omitempty"`
	SewerStatus       Status                 `json:"sewerStatus"`
	SepticRequired    bool                   `json:"septicRequired"`
	SepticFeasibility Feasibility            `json:"septicFeasibility"`
	SepticStatus      Status                 `json:"septicStatus"`
	SystemTypes       []SystemRecommendation `json:"systemTypes"`
	Setbacks          []SepticSetback        `json:"setbacks"`
	CostEstimate      *CostRange             `json:"costEstimate,omitempty"`
	Issues            []Issue                `json:"issues"`
	Recommendations   []string               `json:"recommendations"`
	Citations         []Citation             `json:"citations"`
}

// Environmental flag kinds.
const (
	FlagFloodZone          = "flood_zone"
	FlagWetland            = "wetland"
	FlagSteepSlope         = "steep_slope"
	FlagCriticalAreaBuffer = "critical_area_buffer"
)

// EnvironmentalFlag is one environmental constraint screen.
type EnvironmentalFlag struct {
	Type        string     `json:"type"`
	Present     bool       `json:"present"`
	Status      Status     `json:"status"`
	Description string     `json:"description"`
	Citations   []Citation `json:"citations"`
}

// DataGap discloses a completeness limitation of the report.
type DataGap struct {
	Category       string `json:"category"`
	Description    string `json:"description"`
	Impact         string `json:"impact"`
	Recommendation string `json:"recommendation"`
}

// RiskCategory is one of the three report categories.
type RiskCategory struct {
	Status    Status     `json:"status"`
	Summary   string     `json:"summary"`
	Findings  []string   `json:"findings"`
	Citations []Citation `json:"citations"`
}

// Categories groups the report's risk categories.
type Categories struct {
	Buildability  RiskCategory `json:"buildability"`
	Utilities     RiskCategory `json:"utilities"`
	Environmental RiskCategory `json:"environmental"`
}

// SnapshotResult is the complete feasibility report for one address.
type SnapshotResult struct {
	ID                 string               `json:"id"`
	SchemaVersion      string               `json:"schemaVersion"`
	EngineVersion      string               `json:"engineVersion"`
	CatalogVersion     string               `json:"catalogVersion"`
	Address            string               `json:"address"`
	City               string               `json:"city"`
	County             string               `json:"county"`
	ZoningDistrict     string               `json:"zoningDistrict"`
	Jurisdiction       string               `json:"jurisdiction"`
	Property           PropertyRecord       `json:"property"`
	Structures         []Structure          `json:"structures"`
	Categories         Categories           `json:"categories"`
	OverallStatus      Status               `json:"overallStatus"`
	RuleChecks         []ValidationCheck    `json:"ruleChecks"`
	Validation         ValidationResult     `json:"validation"`
	Wastewater         WastewaterAssessment `json:"wastewater"`
	EnvironmentalFlags []EnvironmentalFlag  `json:"environmentalFlags"`
	DataGaps           []DataGap            `json:"dataGaps"`
	SourceCitations    []Citation           `json:"sourceCitations"`
}

// CategoryPreview is the redacted form of a RiskCategory.
type CategoryPreview struct {
	Status Status `json:"status"`
}

// SnapshotPreview is the redacted report served without a user.
type SnapshotPreview struct {
	Address        string `json:"address"`
	City           string `json:"city"`
	County         string `json:"county"`
	ZoningDistrict string `json:"zoningDistrict"`
	OverallStatus  Status `json:"overallStatus"`
	Categories     struct {
		Buildability  CategoryPreview `json:"buildability"`
		Utilities     CategoryPreview `json:"utilities"`
		Environmental CategoryPreview `json:"environmental"`
	} `json:"categories"`
}

// Preview redacts a snapshot to statuses only.
func (s SnapshotResult) Preview() SnapshotPreview {
	p := SnapshotPreview{
		Address:        s.Address,
		City:           s.City,
		County:         s.County,
		ZoningDistrict: s.ZoningDistrict,
		OverallStatus:  s.OverallStatus,
	}
	p.Categories.Buildability.Status = s.Categories.Buildability.Status
	p.Categories.Utilities.Status = s.Categories.Utilities.Status
	p.Categories.Environmental.Status = s.Categories.Environmental.Status
	return p
}

// MergeCitations returns the de-duplicated union of citation lists, keeping
// first-seen order.
func MergeCitations(lists ...[]Citation) []Citation {
	seen := make(map[string]bool)
	out := []Citation{}
	for _, list := range lists {
		for _, c := range list {
			k := c.Key()
			if seen[k] {
				continue
			}
			seen[k] = true
			out = append(out, c)
		}
	}
	return out
}

// Float returns a pointer to v. Used for optional measurements.
func Float(v float64) *float64 {
	return &v
}
