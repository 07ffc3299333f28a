package dimensional

import (
	"fmt"
	"math"

	"github.com/roach88/buildcheck/internal/ir"
)

// Decimal places kept for reported figures. Comparison uses the raw
// measurement, so 35.004 against a 35 maximum fails.
const (
	placesLength = 2
	placesRatio  = 3
)

// tolerance absorbs float noise from derived values such as ratios.
const tolerance = 1e-9

type comparator int

const (
	atMost comparator = iota
	atLeast
)

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}

// compare builds the numeric part of a check. Equality passes for both
// comparators. A rule without a numeric value yields an unknown check.
func compare(rule ir.ZoningRule, ruleType ir.RuleType, cmp comparator, measured float64, places int) ir.ValidationCheck {
	check := ir.ValidationCheck{
		RuleID:    rule.ID,
		RuleType:  ruleType,
		Measured:  ir.Float(round(measured, places)),
		Unit:      rule.Unit,
		Citations: []ir.Citation{rule.Citation()},
	}
	if rule.ValueNumeric == nil {
		check.Status = ir.StatusUnknown
		return check
	}

	req := *rule.ValueNumeric
	check.Required = ir.Float(req)
	diff := round(math.Abs(req-measured), places)

	var ok bool
	switch cmp {
	case atMost:
		ok = measured <= req+tolerance
	case atLeast:
		ok = measured >= req-tolerance
	}
	if ok {
		check.Status = ir.StatusPass
		check.Margin = ir.Float(diff)
	} else {
		check.Status = ir.StatusFail
		check.Excess = ir.Float(diff)
	}
	return check
}

// describe renders the standard message for a numeric check.
func describe(label string, check ir.ValidationCheck, cmp comparator) string {
	unit := unitSuffix(check.Unit)
	if check.Required == nil {
		return fmt.Sprintf("%s is %s%s but the rule has no adopted value; verify with the jurisdiction",
			label, ir.FormatDecimal(*check.Measured), unit)
	}
	m := ir.FormatDecimal(*check.Measured)
	r := ir.FormatDecimal(*check.Required)
	switch {
	case check.Status == ir.StatusPass && cmp == atMost:
		return fmt.Sprintf("%s of %s%s is within the %s%s maximum (margin %s%s)",
			label, m, unit, r, unit, ir.FormatDecimal(*check.Margin), unit)
	case check.Status == ir.StatusPass:
		return fmt.Sprintf("%s of %s%s meets the %s%s minimum (margin %s%s)",
			label, m, unit, r, unit, ir.FormatDecimal(*check.Margin), unit)
	case cmp == atMost:
		return fmt.Sprintf("%s of %s%s exceeds the %s%s maximum by %s%s",
			label, m, unit, r, unit, ir.FormatDecimal(*check.Excess), unit)
	default:
		return fmt.Sprintf("%s of %s%s is short of the %s%s minimum by %s%s",
			label, m, unit, r, unit, ir.FormatDecimal(*check.Excess), unit)
	}
}

func unitSuffix(unit string) string {
	switch unit {
	case "feet":
		return " ft"
	case "sqft":
		return " sq ft"
	case "percent":
		return "%"
	case "ratio", "":
		return ""
	default:
		return " " + unit
	}
}
