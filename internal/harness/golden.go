package harness

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/buildcheck/internal/ir"
	"github.com/roach88/buildcheck/internal/snapshot"
)

// Digest renders the verdicts of a result as stable text, one fact per
// line. Messages and citations are left out so wording changes do not churn
// golden files.
func Digest(name string, r *Result) []byte {
	snap := r.Snapshot
	v := snap.Validation
	w := snap.Wastewater

	var buf strings.Builder
	fmt.Fprintf(&buf, "scenario: %s\n", name)
	fmt.Fprintf(&buf, "overall: %s (buildability %s, utilities %s, environmental %s)\n",
		snap.OverallStatus,
		snap.Categories.Buildability.Status,
		snap.Categories.Utilities.Status,
		snap.Categories.Environmental.Status)
	fmt.Fprintf(&buf, "validation: %s (%d pass, %d warn, %d fail, %d unknown)\n",
		v.Status, v.Passed, v.Warnings, v.Failed, v.Unknown)
	for _, c := range v.Checks {
		fmt.Fprintf(&buf, "  %s\n", checkLine(c))
	}
	fmt.Fprintf(&buf, "sewer: %s\n", w.SewerStatus)
	fmt.Fprintf(&buf, "septic: %s (%s)\n", w.SepticFeasibility, w.SepticStatus)

	systems := recommended(w.SystemTypes)
	if len(systems) == 0 {
		buf.WriteString("systems: none recommended\n")
	} else {
		fmt.Fprintf(&buf, "systems: %s\n", strings.Join(systems, ", "))
	}
	if w.CostEstimate == nil {
		buf.WriteString("cost: none\n")
	} else {
		fmt.Fprintf(&buf, "cost: %s\n", formatCost(w.CostEstimate))
	}
	codes := issueCodes(w.Issues)
	if len(codes) == 0 {
		buf.WriteString("issues: none\n")
	} else {
		fmt.Fprintf(&buf, "issues: %s\n", strings.Join(codes, ", "))
	}
	return []byte(buf.String())
}

func checkLine(c ir.ValidationCheck) string {
	var b strings.Builder
	b.WriteString(string(c.Status))
	b.WriteString(" ")
	b.WriteString(c.RuleID)
	if c.StructureID != "" {
		b.WriteString(" " + c.StructureID)
	}
	if c.NeighborID != "" {
		b.WriteString("/" + c.NeighborID)
	}
	if c.Measured != nil {
		b.WriteString(" measured=" + ir.FormatDecimal(*c.Measured))
	}
	switch {
	case c.Required != nil:
		b.WriteString(" required=" + ir.FormatDecimal(*c.Required))
	case c.RequiredText != "":
		b.WriteString(" required=" + c.RequiredText)
	}
	return b.String()
}

// RunWithGolden runs a scenario and compares its digest against
// testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, scenario *Scenario, catalog snapshot.Catalog) *Result {
	t.Helper()

	result, err := Run(context.Background(), scenario, catalog)
	if err != nil {
		t.Fatalf("run %s: %v", scenario.Name, err)
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenario.Name, Digest(scenario.Name, result))
	return result
}
