package harness

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/buildcheck/internal/ir"
	"github.com/roach88/buildcheck/internal/snapshot"
)

// Result is the outcome of running one scenario.
type Result struct {
	// Pass is true when every stated expectation holds.
	Pass bool `json:"pass"`

	// Errors describes each failed expectation. Empty when Pass is true.
	Errors []string `json:"errors,omitempty"`

	// Snapshot is the report the pipeline produced.
	Snapshot ir.SnapshotResult `json:"snapshot"`
}

// Run evaluates a scenario against catalog. It returns an error only when
// the scenario names a jurisdiction the catalog has no rules for.
func Run(ctx context.Context, scenario *Scenario, catalog snapshot.Catalog) (*Result, error) {
	if len(catalog.Rules(scenario.Site.Jurisdiction, scenario.Site.ZoningDistrict)) == 0 {
		return nil, fmt.Errorf("catalog has no rules for %s %s", scenario.Site.Jurisdiction, scenario.Site.ZoningDistrict)
	}

	site := fixedSite{scenario: scenario}
	agg := snapshot.New(catalog,
		snapshot.WithParcelSource(site),
		snapshot.WithSoilSource(site),
		snapshot.WithSewerSource(site),
		snapshot.WithEnvironmentSource(site),
		snapshot.WithStructureSource(site),
	)
	snap, err := agg.Generate(ctx, scenario.address())
	if err != nil {
		return nil, fmt.Errorf("generate %s: %w", scenario.Name, err)
	}

	errs := evaluate(scenario.Expect, snap)
	return &Result{
		Pass:     len(errs) == 0,
		Errors:   errs,
		Snapshot: snap,
	}, nil
}

func (s *Scenario) address() string {
	if s.Address != "" {
		return s.Address
	}
	return "1 " + s.Name + " Way"
}

// fixedSite serves a scenario's inputs as verified source data.
type fixedSite struct {
	scenario *Scenario
}

func (f fixedSite) Parcel(_ context.Context, address string) (ir.PropertyRecord, error) {
	site := f.scenario.Site
	return ir.PropertyRecord{
		ParcelID:       "scenario-" + f.scenario.Name,
		Address:        ir.CleanAddress(address),
		City:           site.City,
		County:         site.County,
		JurisdictionID: site.Jurisdiction,
		ZoningDistrict: site.ZoningDistrict,
		LotAreaSqFt:    site.LotAreaSqFt,
		LotWidthFt:     site.LotWidthFt,
		LotDepthFt:     site.LotDepthFt,
		Source:         "scenario " + f.scenario.Name,
		Confidence:     ir.ConfidenceVerified,
	}, nil
}

func (f fixedSite) Soil(context.Context, ir.PropertyRecord) (*ir.SoilData, error) {
	if f.scenario.Soil == nil {
		return nil, nil
	}
	soil := *f.scenario.Soil
	if soil.Confidence == "" {
		soil.Confidence = ir.ConfidenceVerified
	}
	return &soil, nil
}

func (f fixedSite) Sewer(context.Context, ir.PropertyRecord) (*ir.SewerServiceArea, error) {
	if f.scenario.Sewer == nil {
		return nil, nil
	}
	sewer := *f.scenario.Sewer
	return &sewer, nil
}

func (f fixedSite) Environment(context.Context, ir.PropertyRecord) ([]ir.EnvironmentalFlag, error) {
	flags := make([]ir.EnvironmentalFlag, len(f.scenario.Environment))
	for i, e := range f.scenario.Environment {
		flags[i] = ir.EnvironmentalFlag{
			Type:        e.Type,
			Present:     e.Present,
			Status:      e.Status,
			Description: e.Description,
			Citations:   []ir.Citation{},
		}
	}
	return flags, nil
}

func (f fixedSite) Structures(context.Context, ir.PropertyRecord) ([]ir.Structure, error) {
	return slices.Clone(f.scenario.Structures), nil
}

// evaluate returns one message per failed expectation.
func evaluate(e Expect, snap ir.SnapshotResult) []string {
	var errs []string
	failf := func(format string, args ...any) {
		errs = append(errs, fmt.Sprintf(format, args...))
	}
	status := func(label string, want, got ir.Status) {
		if want != "" && want != got {
			failf("%s: expected %s, got %s", label, want, got)
		}
	}

	status("overall_status", e.OverallStatus, snap.OverallStatus)
	if c := e.Categories; c != nil {
		status("categories.buildability", c.Buildability, snap.Categories.Buildability.Status)
		status("categories.utilities", c.Utilities, snap.Categories.Utilities.Status)
		status("categories.environmental", c.Environmental, snap.Categories.Environmental.Status)
	}

	v := snap.Validation
	status("validation_status", e.ValidationStatus, v.Status)
	if e.CheckCount != nil && *e.CheckCount != len(v.Checks) {
		failf("check_count: expected %d, got %d", *e.CheckCount, len(v.Checks))
	}
	for _, want := range e.Checks {
		if err := assertCheck(v.Checks, want); err != nil {
			errs = append(errs, err.Error())
		}
	}

	w := snap.Wastewater
	status("sewer_status", e.SewerStatus, w.SewerStatus)
	if e.SepticFeasibility != "" && e.SepticFeasibility != w.SepticFeasibility {
		failf("septic_feasibility: expected %s, got %s", e.SepticFeasibility, w.SepticFeasibility)
	}
	status("septic_status", e.SepticStatus, w.SepticStatus)

	if e.Issues != nil {
		assertList("issues", e.Issues, issueCodes(w.Issues), failf)
	}
	if e.Recommended != nil {
		assertList("recommended_systems", e.Recommended, recommended(w.SystemTypes), failf)
	}
	switch {
	case e.NoCost && w.CostEstimate != nil:
		failf("cost: expected none, got %s", formatCost(w.CostEstimate))
	case e.Cost != nil && w.CostEstimate == nil:
		failf("cost: expected %s, got none", formatCost(e.Cost))
	case e.Cost != nil && *e.Cost != *w.CostEstimate:
		failf("cost: expected %s, got %s", formatCost(e.Cost), formatCost(w.CostEstimate))
	}

	if e.DataGaps != nil {
		got := make([]string, len(snap.DataGaps))
		for i, g := range snap.DataGaps {
			got[i] = g.Category
		}
		assertList("data_gaps", e.DataGaps, got, failf)
	}
	return errs
}

func assertList(label string, want, got []string, failf func(string, ...any)) {
	if !slices.Equal(want, got) {
		failf("%s: expected [%s], got [%s]", label, strings.Join(want, ", "), strings.Join(got, ", "))
	}
}

func issueCodes(issues []ir.Issue) []string {
	out := make([]string, len(issues))
	for i, issue := range issues {
		out[i] = issue.Code
	}
	return out
}

func recommended(systems []ir.SystemRecommendation) []string {
	out := []string{}
	for _, s := range systems {
		if s.Suitability == ir.SuitabilityRecommended {
			out = append(out, s.Type)
		}
	}
	return out
}

func formatCost(c *ir.CostRange) string {
	return fmt.Sprintf("$%s-$%s", ir.FormatDecimal(c.Min), ir.FormatDecimal(c.Max))
}
