package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/roach88/buildcheck/internal/ir"
)

// Scenario pins the inputs of one report and the verdicts expected of it.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Address is the report address. Defaults to a name-derived address.
	Address string `yaml:"address,omitempty"`

	Site       Site                 `yaml:"site"`
	Structures []ir.Structure       `yaml:"structures,omitempty"`
	Soil       *ir.SoilData         `yaml:"soil,omitempty"`
	Sewer      *ir.SewerServiceArea `yaml:"sewer,omitempty"`

	// Environment lists screen results. Empty means no screens were run.
	Environment []EnvironmentFlag `yaml:"environment,omitempty"`

	Expect Expect `yaml:"expect"`
}

// Site is the lot under evaluation.
type Site struct {
	Jurisdiction   string  `yaml:"jurisdiction"`
	ZoningDistrict string  `yaml:"zoning_district"`
	City           string  `yaml:"city,omitempty"`
	County         string  `yaml:"county,omitempty"`
	LotAreaSqFt    float64 `yaml:"lot_area_sqft"`
	LotWidthFt     float64 `yaml:"lot_width_ft,omitempty"`
	LotDepthFt     float64 `yaml:"lot_depth_ft,omitempty"`
}

// EnvironmentFlag is one environmental screen result.
type EnvironmentFlag struct {
	Type        string    `yaml:"type"`
	Present     bool      `yaml:"present"`
	Status      ir.Status `yaml:"status"`
	Description string    `yaml:"description,omitempty"`
}

// Expect states the verdicts a scenario must reach.
type Expect struct {
	OverallStatus     ir.Status       `yaml:"overall_status,omitempty"`
	Categories        *CategoryExpect `yaml:"categories,omitempty"`
	ValidationStatus  ir.Status       `yaml:"validation_status,omitempty"`
	CheckCount        *int            `yaml:"check_count,omitempty"`
	Checks            []CheckExpect   `yaml:"checks,omitempty"`
	SewerStatus       ir.Status       `yaml:"sewer_status,omitempty"`
	SepticFeasibility ir.Feasibility  `yaml:"septic_feasibility,omitempty"`
	SepticStatus      ir.Status       `yaml:"septic_status,omitempty"`
	Issues            []string        `yaml:"issues,omitempty"`
	Recommended       []string        `yaml:"recommended_systems,omitempty"`
	Cost              *ir.CostRange   `yaml:"cost,omitempty"`
	NoCost            bool            `yaml:"no_cost,omitempty"`
	DataGaps          []string        `yaml:"data_gaps,omitempty"`
}

// CategoryExpect states risk category statuses. Empty fields are not checked.
type CategoryExpect struct {
	Buildability  ir.Status `yaml:"buildability,omitempty"`
	Utilities     ir.Status `yaml:"utilities,omitempty"`
	Environmental ir.Status `yaml:"environmental,omitempty"`
}

// CheckExpect matches one validation check. Empty fields match anything.
type CheckExpect struct {
	RuleID      string    `yaml:"rule_id"`
	StructureID string    `yaml:"structure_id,omitempty"`
	NeighborID  string    `yaml:"neighbor_id,omitempty"`
	Status      ir.Status `yaml:"status"`
	Measured    *float64  `yaml:"measured,omitempty"`
}

func (e Expect) empty() bool {
	return e.OverallStatus == "" && e.Categories == nil && e.ValidationStatus == "" &&
		e.CheckCount == nil && len(e.Checks) == 0 && e.SewerStatus == "" &&
		e.SepticFeasibility == "" && e.SepticStatus == "" && e.Issues == nil &&
		e.Recommended == nil && e.Cost == nil && !e.NoCost && e.DataGaps == nil
}

// LoadScenario reads and parses a scenario YAML file. Unknown fields are
// rejected so a misspelled expectation cannot silently pass.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	return parse(data, true)
}

// LoadSite reads a scenario file whose expect block may be empty. It is
// used to evaluate a site without asserting anything about the result.
func LoadSite(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read site file: %w", err)
	}
	return parse(data, false)
}

func parse(data []byte, requireExpect bool) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if err := validateScenario(&scenario, requireExpect); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

func validateScenario(s *Scenario, requireExpect bool) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if s.Site.Jurisdiction == "" {
		return fmt.Errorf("site.jurisdiction is required")
	}
	if s.Site.ZoningDistrict == "" {
		return fmt.Errorf("site.zoning_district is required")
	}
	if s.Site.LotAreaSqFt < 0 {
		return fmt.Errorf("site.lot_area_sqft must be non-negative")
	}

	ids := make(map[string]bool, len(s.Structures))
	for i, st := range s.Structures {
		if st.ID == "" {
			return fmt.Errorf("structures[%d]: id is required", i)
		}
		if st.Type == "" {
			return fmt.Errorf("structures[%d]: type is required", i)
		}
		if ids[st.ID] {
			return fmt.Errorf("structures[%d]: duplicate id %q", i, st.ID)
		}
		ids[st.ID] = true
	}
	for i, st := range s.Structures {
		for n := range st.Separations {
			if !ids[n] {
				return fmt.Errorf("structures[%d]: separation to unknown structure %q", i, n)
			}
		}
	}

	if requireExpect && s.Expect.empty() {
		return fmt.Errorf("expect must state at least one verdict")
	}
	if s.Expect.Cost != nil && s.Expect.NoCost {
		return fmt.Errorf("expect: cost and no_cost are mutually exclusive")
	}
	for i, c := range s.Expect.Checks {
		if c.RuleID == "" {
			return fmt.Errorf("expect.checks[%d]: rule_id is required", i)
		}
		if !c.Status.Valid() {
			return fmt.Errorf("expect.checks[%d]: invalid status %q", i, c.Status)
		}
	}
	for _, st := range []ir.Status{s.Expect.OverallStatus, s.Expect.ValidationStatus, s.Expect.SewerStatus, s.Expect.SepticStatus} {
		if st != "" && !st.Valid() {
			return fmt.Errorf("expect: invalid status %q", st)
		}
	}
	return nil
}
