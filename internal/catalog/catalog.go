// Package catalog holds the jurisdiction rule catalog.
//
// A Catalog is immutable once built: every accessor returns copies, so
// callers can never alter the rules another evaluation sees. Catalogs are
// authored in CUE (see default.cue for the schema) and loaded with Load or
// Default.
package catalog

import (
	"slices"
	"strings"

	"github.com/roach88/buildcheck/internal/ir"
)

// Catalog is an immutable, queryable set of zoning rules.
type Catalog struct {
	rules   []ir.ZoningRule
	version string
}

// New builds a catalog from rules. The input is copied and sorted by ID.
func New(rules []ir.ZoningRule) *Catalog {
	owned := make([]ir.ZoningRule, len(rules))
	for i, r := range rules {
		owned[i] = cloneRule(r)
	}
	slices.SortStableFunc(owned, func(a, b ir.ZoningRule) int {
		return strings.Compare(a.ID, b.ID)
	})
	return &Catalog{rules: owned, version: computeVersion(owned)}
}

// Version is a content hash of the rules. Two catalogs with the same rules
// share a version regardless of how they were authored.
func (c *Catalog) Version() string {
	return c.version
}

// Len returns the number of rules.
func (c *Catalog) Len() int {
	return len(c.rules)
}

// All returns every rule in ID order.
func (c *Catalog) All() []ir.ZoningRule {
	out := make([]ir.ZoningRule, len(c.rules))
	for i, r := range c.rules {
		out[i] = cloneRule(r)
	}
	return out
}

// Rules returns the rules in force for a jurisdiction and zoning district,
// in ID order. A rule without districts applies to every district of its
// jurisdiction.
func (c *Catalog) Rules(jurisdictionID, district string) []ir.ZoningRule {
	var out []ir.ZoningRule
	for _, r := range c.rules {
		if r.JurisdictionID != jurisdictionID {
			continue
		}
		if len(r.Districts) > 0 && !slices.Contains(r.Districts, district) {
			continue
		}
		out = append(out, cloneRule(r))
	}
	return out
}

// Jurisdictions returns the distinct jurisdiction IDs, sorted.
func (c *Catalog) Jurisdictions() []string {
	seen := make(map[string]bool)
	var out []string
	for _, r := range c.rules {
		if !seen[r.JurisdictionID] {
			seen[r.JurisdictionID] = true
			out = append(out, r.JurisdictionID)
		}
	}
	slices.Sort(out)
	return out
}

// Districts returns the districts named by any rule in a jurisdiction, sorted.
func (c *Catalog) Districts(jurisdictionID string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, r := range c.rules {
		if r.JurisdictionID != jurisdictionID {
			continue
		}
		for _, d := range r.Districts {
			if !seen[d] {
				seen[d] = true
				out = append(out, d)
			}
		}
	}
	slices.Sort(out)
	return out
}

func cloneRule(r ir.ZoningRule) ir.ZoningRule {
	r.AppliesTo = slices.Clone(r.AppliesTo)
	r.Districts = slices.Clone(r.Districts)
	if r.ValueNumeric != nil {
		r.ValueNumeric = ir.Float(*r.ValueNumeric)
	}
	return r
}

// computeVersion hashes the canonical form of the sorted rules.
func computeVersion(rules []ir.ZoningRule) string {
	arr := make([]any, len(rules))
	for i, r := range rules {
		obj := map[string]any{
			"id":                r.ID,
			"rule_type":         string(r.RuleType),
			"applies_to":        sortedCopy(r.AppliesTo),
			"districts":         sortedCopy(r.Districts),
			"value_text":        r.ValueText,
			"unit":              r.Unit,
			"jurisdiction_id":   r.JurisdictionID,
			"ordinance_section": r.OrdinanceSection,
			"ordinance_text":    r.OrdinanceText,
			"source_url":        r.SourceURL,
		}
		if r.ValueNumeric != nil {
			obj["value_numeric"] = ir.FormatDecimal(*r.ValueNumeric)
		}
		arr[i] = obj
	}
	canonical, err := ir.MarshalCanonical(arr)
	if err != nil {
		// Only strings reach the encoder.
		panic(err)
	}
	return ir.CatalogVersion(canonical)
}

func sortedCopy(s []string) []string {
	out := slices.Clone(s)
	if out == nil {
		out = []string{}
	}
	slices.Sort(out)
	return out
}
