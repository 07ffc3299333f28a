package snapshot

import (
	"fmt"

	"github.com/roach88/buildcheck/internal/ir"
)

// Categorize rolls the component results up into the three risk
// categories.
func Categorize(validation ir.ValidationResult, assessment ir.WastewaterAssessment, flags []ir.EnvironmentalFlag) ir.Categories {
	return ir.Categories{
		Buildability:  buildability(validation),
		Utilities:     utilities(assessment),
		Environmental: environmental(flags),
	}
}

// Overall is the worst of the three category statuses.
func Overall(c ir.Categories) ir.Status {
	return ir.WorstOf(c.Buildability.Status, c.Utilities.Status, c.Environmental.Status)
}

// BuildabilityStatus fails on any failed check. Checks that warn or could not
// be evaluated need verification, so they warn the category.
func BuildabilityStatus(checks []ir.ValidationCheck) ir.Status {
	status := ir.StatusPass
	for _, c := range checks {
		switch c.Status {
		case ir.StatusFail:
			return ir.StatusFail
		case ir.StatusWarn, ir.StatusUnknown:
			status = ir.StatusWarn
		}
	}
	return status
}

func buildability(v ir.ValidationResult) ir.RiskCategory {
	cat := ir.RiskCategory{
		Status:   BuildabilityStatus(v.Checks),
		Findings: []string{},
	}
	lists := make([][]ir.Citation, 0, len(v.Checks))
	for _, c := range v.Checks {
		if c.Status != ir.StatusPass {
			cat.Findings = append(cat.Findings, c.Message)
		}
		lists = append(lists, c.Citations)
	}
	cat.Citations = ir.MergeCitations(lists...)

	total := len(v.Checks)
	switch {
	case total == 0:
		cat.Summary = fmt.Sprintf("No dimensional rules on file for %s in %s", districtName(v.ZoningDistrict), v.JurisdictionID)
	case v.Failed > 0:
		cat.Summary = fmt.Sprintf("%d of %d dimensional checks fail", v.Failed, total)
	case v.Warnings+v.Unknown > 0:
		cat.Summary = fmt.Sprintf("%d of %d dimensional checks need verification", v.Warnings+v.Unknown, total)
	default:
		cat.Summary = fmt.Sprintf("All %d dimensional checks pass", total)
	}
	return cat
}

func districtName(d string) string {
	if d == "" {
		return "an unknown district"
	}
	return d
}

func utilities(a ir.WastewaterAssessment) ir.RiskCategory {
	cat := ir.RiskCategory{
		Status:    ir.WorstOf(a.SewerStatus, a.SepticStatus),
		Findings:  []string{},
		Citations: ir.MergeCitations(a.Citations),
	}
	for _, issue := range a.Issues {
		if issue.Severity != ir.SeverityInfo {
			cat.Findings = append(cat.Findings, issue.Message)
		}
	}

	switch {
	case a.SewerAvailable && a.SewerRequired:
		cat.Summary = "Public sewer connection is available and required"
	case a.SepticFeasibility == ir.FeasibilityUnknown:
		cat.Summary = "Septic feasibility is unknown pending a site evaluation"
	case a.SewerAvailable:
		cat.Summary = fmt.Sprintf("Public sewer is available; septic is %s", feasibilityText(a.SepticFeasibility))
	default:
		cat.Summary = fmt.Sprintf("No public sewer; septic is %s", feasibilityText(a.SepticFeasibility))
	}
	return cat
}

func feasibilityText(f ir.Feasibility) string {
	switch f {
	case ir.FeasibilityNotFeasible:
		return "not feasible"
	case ir.FeasibilityFeasible:
		return "feasible"
	default:
		return string(f)
	}
}

func environmental(flags []ir.EnvironmentalFlag) ir.RiskCategory {
	cat := ir.RiskCategory{Findings: []string{}}
	statuses := make([]ir.Status, 0, len(flags))
	lists := make([][]ir.Citation, 0, len(flags))
	present := 0
	for _, f := range flags {
		statuses = append(statuses, f.Status)
		lists = append(lists, f.Citations)
		if f.Present {
			present++
			cat.Findings = append(cat.Findings, f.Description)
		}
	}
	cat.Status = ir.WorstOf(statuses...)
	cat.Citations = ir.MergeCitations(lists...)

	switch {
	case len(flags) == 0:
		cat.Summary = "No environmental screens were run"
	case present == 0:
		cat.Summary = "No mapped environmental constraints"
	case present == 1:
		cat.Summary = "1 environmental constraint mapped on the parcel"
	default:
		cat.Summary = fmt.Sprintf("%d environmental constraints mapped on the parcel", present)
	}
	return cat
}
