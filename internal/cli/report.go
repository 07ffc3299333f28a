package cli

import (
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/roach88/buildcheck/internal/ir"
)

// renderReport prints a full report as text.
func renderReport(f *OutputFormatter, snap ir.SnapshotResult) {
	w := f.Writer
	p := snap.Property

	fmt.Fprintf(w, "Address:  %s\n", snap.Address)
	fmt.Fprintf(w, "Parcel:   %s (%s %s, %s sq ft, %s)\n",
		p.ParcelID, snap.Jurisdiction, snap.ZoningDistrict, ir.FormatDecimal(p.LotAreaSqFt), p.Confidence)
	fmt.Fprintf(w, "Catalog:  %s\n", snap.CatalogVersion)
	fmt.Fprintf(w, "Overall:  %s\n\n", strings.ToUpper(string(snap.OverallStatus)))

	c := snap.Categories
	f.Table(table.Row{"Category", "Status", "Summary"}, []table.Row{
		{"buildability", c.Buildability.Status, c.Buildability.Summary},
		{"utilities", c.Utilities.Status, c.Utilities.Summary},
		{"environmental", c.Environmental.Status, c.Environmental.Summary},
	})

	if checks := snap.Validation.Checks; len(checks) > 0 {
		fmt.Fprintln(w)
		rows := make([]table.Row, len(checks))
		for i, ch := range checks {
			rows[i] = table.Row{ch.Status, ch.RuleID, checkSubject(ch), optional(ch.Measured), required(ch)}
		}
		f.Table(table.Row{"Status", "Rule", "Structure", "Measured", "Required"}, rows)
	}

	ww := snap.Wastewater
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Sewer:    %s", ww.SewerStatus)
	if ww.SewerProvider != "" {
		fmt.Fprintf(w, " (%s)", ww.SewerProvider)
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Septic:   %s (%s)\n", ww.SepticFeasibility, ww.SepticStatus)
	if ww.CostEstimate != nil {
		fmt.Fprintf(w, "Cost:     $%s-$%s\n", ir.FormatDecimal(ww.CostEstimate.Min), ir.FormatDecimal(ww.CostEstimate.Max))
	}
	for _, issue := range ww.Issues {
		fmt.Fprintf(w, "  %s %s: %s\n", issue.Severity, issue.Code, issue.Message)
	}

	if len(snap.DataGaps) > 0 {
		fmt.Fprintln(w)
		rows := make([]table.Row, len(snap.DataGaps))
		for i, g := range snap.DataGaps {
			rows[i] = table.Row{g.Category, g.Impact, g.Description}
		}
		f.Table(table.Row{"Data Gap", "Impact", "Description"}, rows)
	}
}

// renderPreview prints a redacted report as text.
func renderPreview(f *OutputFormatter, p ir.SnapshotPreview) {
	fmt.Fprintf(f.Writer, "Address:  %s\n", p.Address)
	fmt.Fprintf(f.Writer, "Overall:  %s\n\n", strings.ToUpper(string(p.OverallStatus)))
	f.Table(table.Row{"Category", "Status"}, []table.Row{
		{"buildability", p.Categories.Buildability.Status},
		{"utilities", p.Categories.Utilities.Status},
		{"environmental", p.Categories.Environmental.Status},
	})
}

func checkSubject(c ir.ValidationCheck) string {
	if c.NeighborID != "" {
		return c.StructureID + "/" + c.NeighborID
	}
	return c.StructureID
}

func optional(v *float64) string {
	if v == nil {
		return "-"
	}
	return ir.FormatDecimal(*v)
}

func required(c ir.ValidationCheck) string {
	if c.Required != nil {
		return ir.FormatDecimal(*c.Required)
	}
	if c.RequiredText != "" {
		return c.RequiredText
	}
	return "-"
}
