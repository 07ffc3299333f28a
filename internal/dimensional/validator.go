// Package dimensional evaluates a lot and its structures against the zoning
// rules of the parcel's jurisdiction and district.
//
// Evaluation is pure: the same property, structures and rules always give
// the same checks in the same order. Checks are emitted per structure in
// input order (height, setbacks, ADU rules), then one per separated pair,
// then the lot-level coverage and FAR checks.
package dimensional

import (
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/buildcheck/internal/ir"
)

// RuleSource supplies the rules in force for a jurisdiction and district.
type RuleSource interface {
	Rules(jurisdictionID, district string) []ir.ZoningRule
}

// Validator evaluates structures against a rule source.
type Validator struct {
	rules RuleSource
}

// New returns a validator backed by rules.
func New(rules RuleSource) *Validator {
	return &Validator{rules: rules}
}

type setbackSide struct {
	ruleType ir.RuleType
	label    string
	measured func(ir.Structure) *float64
}

var setbackSides = []setbackSide{
	{ir.RuleSetbackFront, "front setback", func(s ir.Structure) *float64 { return s.SetbackFront }},
	{ir.RuleSetbackSide, "side setback", func(s ir.Structure) *float64 { return s.SetbackSide }},
	{ir.RuleSetbackRear, "rear setback", func(s ir.Structure) *float64 { return s.SetbackRear }},
	{ir.RuleSetbackStreetSide, "street side setback", func(s ir.Structure) *float64 { return s.SetbackStreetSide }},
}

// Evaluate checks every structure and the lot as a whole.
func (v *Validator) Evaluate(property ir.PropertyRecord, structures []ir.Structure) ir.ValidationResult {
	rules := v.rules.Rules(property.JurisdictionID, property.ZoningDistrict)

	var checks []ir.ValidationCheck
	for _, s := range structures {
		checks = append(checks, heightChecks(rules, s)...)
		checks = append(checks, setbackChecks(rules, s)...)
		checks = append(checks, aduChecks(rules, s)...)
	}
	checks = append(checks, separationChecks(rules, structures)...)
	checks = append(checks, lotChecks(rules, property, structures)...)

	return summarize(property, checks)
}

func summarize(property ir.PropertyRecord, checks []ir.ValidationCheck) ir.ValidationResult {
	result := ir.ValidationResult{
		JurisdictionID: property.JurisdictionID,
		ZoningDistrict: property.ZoningDistrict,
		Checks:         checks,
	}
	if result.Checks == nil {
		result.Checks = []ir.ValidationCheck{}
	}
	statuses := make([]ir.Status, len(checks))
	for i, c := range checks {
		statuses[i] = c.Status
		switch c.Status {
		case ir.StatusPass:
			result.Passed++
		case ir.StatusWarn:
			result.Warnings++
		case ir.StatusFail:
			result.Failed++
		default:
			result.Unknown++
		}
	}
	result.Status = ir.WorstOf(statuses...)
	return result
}

// applicable returns rules of the given type that cover the structure type.
func applicable(rules []ir.ZoningRule, ruleType ir.RuleType, structureType string) []ir.ZoningRule {
	var out []ir.ZoningRule
	for _, r := range rules {
		if r.RuleType == ruleType && r.Applies(structureType) {
			out = append(out, r)
		}
	}
	return out
}

func heightChecks(rules []ir.ZoningRule, s ir.Structure) []ir.ValidationCheck {
	if s.HeightFeet == nil {
		return nil
	}
	var checks []ir.ValidationCheck
	for _, rt := range []ir.RuleType{ir.RuleHeightMax, ir.RuleHeightMaxAccessory} {
		for _, r := range applicable(rules, rt, s.Type) {
			c := compare(r, rt, atMost, *s.HeightFeet, placesLength)
			c.StructureID = s.ID
			c.Message = describe(structureLabel(s)+" height", c, atMost)
			checks = append(checks, c)
		}
	}
	return checks
}

// setbackChecks uses the side-specific rules for the structure type and
// falls back to accessory_setback when none apply.
func setbackChecks(rules []ir.ZoningRule, s ir.Structure) []ir.ValidationCheck {
	var checks []ir.ValidationCheck
	for _, side := range setbackSides {
		measured := side.measured(s)
		if measured == nil {
			continue
		}
		matched := applicable(rules, side.ruleType, s.Type)
		if len(matched) == 0 {
			matched = applicable(rules, ir.RuleAccessorySetback, s.Type)
		}
		for _, r := range matched {
			c := compare(r, side.ruleType, atLeast, *measured, placesLength)
			c.StructureID = s.ID
			c.Message = describe(structureLabel(s)+" "+side.label, c, atLeast)
			checks = append(checks, c)
		}
	}
	return checks
}

func isADU(structureType string) bool {
	return structureType == ir.StructureADU || structureType == ir.StructureDADU
}

func aduChecks(rules []ir.ZoningRule, s ir.Structure) []ir.ValidationCheck {
	if !isADU(s.Type) {
		return nil
	}
	var checks []ir.ValidationCheck
	for _, r := range applicable(rules, ir.RuleADUAllowed, s.Type) {
		checks = append(checks, aduAllowed(r, s))
	}
	if s.FootprintSqFt > 0 {
		for _, r := range applicable(rules, ir.RuleADUSizeMax, s.Type) {
			c := compare(r, ir.RuleADUSizeMax, atMost, s.FootprintSqFt, placesLength)
			c.StructureID = s.ID
			c.Message = describe(structureLabel(s)+" size", c, atMost)
			checks = append(checks, c)
		}
	}
	return checks
}

func aduAllowed(r ir.ZoningRule, s ir.Structure) ir.ValidationCheck {
	c := ir.ValidationCheck{
		RuleID:       r.ID,
		RuleType:     ir.RuleADUAllowed,
		StructureID:  s.ID,
		RequiredText: r.ValueText,
		Unit:         r.Unit,
		Citations:    []ir.Citation{r.Citation()},
	}
	switch strings.ToLower(strings.TrimSpace(r.ValueText)) {
	case "yes", "permitted":
		c.Status = ir.StatusPass
		c.Message = fmt.Sprintf("Accessory dwelling units are permitted in %s", r.JurisdictionID)
	case "conditional":
		c.Status = ir.StatusWarn
		c.Message = "Accessory dwelling units require a conditional use approval"
	case "no", "prohibited":
		c.Status = ir.StatusFail
		c.Message = fmt.Sprintf("Accessory dwelling units are not permitted in %s", r.JurisdictionID)
	default:
		c.Status = ir.StatusUnknown
		c.Message = "ADU permission could not be determined from the rule; verify with the jurisdiction"
	}
	return c
}

// separationChecks reports one check per structure pair. A pair listed from
// both sides is checked once, using the first structure's measurement.
func separationChecks(rules []ir.ZoningRule, structures []ir.Structure) []ir.ValidationCheck {
	var checks []ir.ValidationCheck
	seen := make(map[[2]string]bool)
	for _, s := range structures {
		matched := applicable(rules, ir.RuleStructureSep, s.Type)
		if len(matched) == 0 || len(s.Separations) == 0 {
			continue
		}
		neighbors := make([]string, 0, len(s.Separations))
		for n := range s.Separations {
			neighbors = append(neighbors, n)
		}
		slices.Sort(neighbors)

		for _, n := range neighbors {
			key := [2]string{s.ID, n}
			if n < s.ID {
				key = [2]string{n, s.ID}
			}
			if seen[key] {
				continue
			}
			seen[key] = true
			for _, r := range matched {
				c := compare(r, ir.RuleStructureSep, atLeast, s.Separations[n], placesLength)
				c.StructureID = s.ID
				c.NeighborID = n
				c.Message = describe(fmt.Sprintf("Separation between %s and %s", s.ID, n), c, atLeast)
				checks = append(checks, c)
			}
		}
	}
	return checks
}

// lotChecks evaluates coverage and FAR against the first rule of each type.
func lotChecks(rules []ir.ZoningRule, property ir.PropertyRecord, structures []ir.Structure) []ir.ValidationCheck {
	if property.LotAreaSqFt <= 0 || len(structures) == 0 {
		return nil
	}
	var footprint, floorArea float64
	for _, s := range structures {
		footprint += s.FootprintSqFt
		stories := s.Stories
		if stories < 1 {
			stories = 1
		}
		floorArea += s.FootprintSqFt * float64(stories)
	}

	var checks []ir.ValidationCheck
	if r, ok := firstOfType(rules, ir.RuleLotCoverageMax); ok {
		coverage := footprint * 100 / property.LotAreaSqFt
		c := compare(r, ir.RuleLotCoverageMax, atMost, coverage, placesLength)
		c.Message = describe("Lot coverage", c, atMost)
		checks = append(checks, c)
	}
	if r, ok := firstOfType(rules, ir.RuleFARMax); ok {
		c := compare(r, ir.RuleFARMax, atMost, floorArea/property.LotAreaSqFt, placesRatio)
		c.Message = describe("Floor area ratio", c, atMost)
		checks = append(checks, c)
	}
	return checks
}

func firstOfType(rules []ir.ZoningRule, ruleType ir.RuleType) (ir.ZoningRule, bool) {
	for _, r := range rules {
		if r.RuleType == ruleType {
			return r, true
		}
	}
	return ir.ZoningRule{}, false
}

var structureNames = map[string]string{
	ir.StructurePrimaryDwelling: "Primary dwelling",
	ir.StructureADU:             "ADU",
	ir.StructureDADU:            "DADU",
	ir.StructureGarage:          "Garage",
	ir.StructureShed:            "Shed",
}

func structureLabel(s ir.Structure) string {
	name, ok := structureNames[s.Type]
	if !ok {
		name = "Structure"
	}
	return name + " " + s.ID
}
