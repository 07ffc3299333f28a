package harness

import (
	"fmt"
	"strings"

	"github.com/roach88/buildcheck/internal/ir"
)

// AssertionError is returned when an expected check is not found. It lists
// every check for the rule to help debug the mismatch.
type AssertionError struct {
	Expected string
	Actual   string
	Checks   []ir.ValidationCheck
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "check: expected %s, got %s", e.Expected, e.Actual)
	for _, c := range e.Checks {
		fmt.Fprintf(&buf, "\n  %s", checkLine(c))
	}
	return buf.String()
}

// assertCheck finds a check matching want. Empty expectation fields match
// anything.
func assertCheck(checks []ir.ValidationCheck, want CheckExpect) error {
	var candidates []ir.ValidationCheck
	for _, c := range checks {
		if c.RuleID != want.RuleID {
			continue
		}
		if want.StructureID != "" && c.StructureID != want.StructureID {
			continue
		}
		if want.NeighborID != "" && c.NeighborID != want.NeighborID {
			continue
		}
		candidates = append(candidates, c)
		if c.Status == want.Status && measuredMatches(c, want.Measured) {
			return nil
		}
	}

	actual := "no such check"
	if len(candidates) > 0 {
		actual = fmt.Sprintf("%d non-matching check(s)", len(candidates))
	}
	return &AssertionError{
		Expected: describeExpect(want),
		Actual:   actual,
		Checks:   candidates,
	}
}

func measuredMatches(c ir.ValidationCheck, want *float64) bool {
	if want == nil {
		return true
	}
	return c.Measured != nil && *c.Measured == *want
}

func describeExpect(want CheckExpect) string {
	parts := []string{string(want.Status), want.RuleID}
	if want.StructureID != "" {
		parts = append(parts, want.StructureID)
	}
	if want.NeighborID != "" {
		parts = append(parts, "/"+want.NeighborID)
	}
	if want.Measured != nil {
		parts = append(parts, "measured="+ir.FormatDecimal(*want.Measured))
	}
	return strings.Join(parts, " ")
}
