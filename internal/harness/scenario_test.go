package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/buildcheck/internal/ir"
)

const validScenario = `
name: minimal
description: smallest valid scenario
site:
  jurisdiction: king-county-wa
  zoning_district: R-4
  lot_area_sqft: 8000
structures:
  - id: house
    type: primary_dwelling
    height_feet: 30
    setback_front: 22.5
    separations:
      shed: 8
  - id: shed
    type: shed
expect:
  validation_status: pass
`

func TestParseScenario(t *testing.T) {
	s, err := ParseScenario([]byte(validScenario))
	require.NoError(t, err)

	assert.Equal(t, "minimal", s.Name)
	assert.Equal(t, "R-4", s.Site.ZoningDistrict)
	assert.Equal(t, 8000.0, s.Site.LotAreaSqFt)
	require.Len(t, s.Structures, 2)
	require.NotNil(t, s.Structures[0].HeightFeet)
	assert.Equal(t, 30.0, *s.Structures[0].HeightFeet)
	assert.Equal(t, 22.5, *s.Structures[0].SetbackFront)
	assert.Equal(t, map[string]float64{"shed": 8}, s.Structures[0].Separations)
	assert.Nil(t, s.Soil)
	assert.Nil(t, s.Sewer)
	assert.Equal(t, ir.StatusPass, s.Expect.ValidationStatus)
}

func TestParseScenarioErrors(t *testing.T) {
	tests := []struct {
		name      string
		yaml      string
		errSubstr string
	}{
		{
			name:      "unknown field",
			yaml:      "name: a\ndescription: b\nsite: {jurisdiction: j, zoning_district: d}\nexpect: {overall_status: pass}\nexpectations: {}\n",
			errSubstr: "field expectations not found",
		},
		{
			name:      "missing name",
			yaml:      "description: b\nsite: {jurisdiction: j, zoning_district: d}\nexpect: {overall_status: pass}\n",
			errSubstr: "name is required",
		},
		{
			name:      "missing description",
			yaml:      "name: a\nsite: {jurisdiction: j, zoning_district: d}\nexpect: {overall_status: pass}\n",
			errSubstr: "description is required",
		},
		{
			name:      "missing jurisdiction",
			yaml:      "name: a\ndescription: b\nsite: {zoning_district: d}\nexpect: {overall_status: pass}\n",
			errSubstr: "site.jurisdiction is required",
		},
		{
			name:      "missing district",
			yaml:      "name: a\ndescription: b\nsite: {jurisdiction: j}\nexpect: {overall_status: pass}\n",
			errSubstr: "site.zoning_district is required",
		},
		{
			name:      "negative lot",
			yaml:      "name: a\ndescription: b\nsite: {jurisdiction: j, zoning_district: d, lot_area_sqft: -1}\nexpect: {overall_status: pass}\n",
			errSubstr: "lot_area_sqft must be non-negative",
		},
		{
			name:      "structure without id",
			yaml:      "name: a\ndescription: b\nsite: {jurisdiction: j, zoning_district: d}\nstructures: [{type: shed}]\nexpect: {overall_status: pass}\n",
			errSubstr: "structures[0]: id is required",
		},
		{
			name:      "duplicate structure",
			yaml:      "name: a\ndescription: b\nsite: {jurisdiction: j, zoning_district: d}\nstructures: [{id: x, type: shed}, {id: x, type: shed}]\nexpect: {overall_status: pass}\n",
			errSubstr: `duplicate id "x"`,
		},
		{
			name:      "dangling separation",
			yaml:      "name: a\ndescription: b\nsite: {jurisdiction: j, zoning_district: d}\nstructures: [{id: x, type: shed, separations: {y: 4}}]\nexpect: {overall_status: pass}\n",
			errSubstr: `separation to unknown structure "y"`,
		},
		{
			name:      "no expectations",
			yaml:      "name: a\ndescription: b\nsite: {jurisdiction: j, zoning_district: d}\nexpect: {}\n",
			errSubstr: "expect must state at least one verdict",
		},
		{
			name:      "cost and no_cost",
			yaml:      "name: a\ndescription: b\nsite: {jurisdiction: j, zoning_district: d}\nexpect: {cost: {min: 1, max: 2}, no_cost: true}\n",
			errSubstr: "mutually exclusive",
		},
		{
			name:      "check without rule",
			yaml:      "name: a\ndescription: b\nsite: {jurisdiction: j, zoning_district: d}\nexpect: {checks: [{status: pass}]}\n",
			errSubstr: "expect.checks[0]: rule_id is required",
		},
		{
			name:      "bad check status",
			yaml:      "name: a\ndescription: b\nsite: {jurisdiction: j, zoning_district: d}\nexpect: {checks: [{rule_id: r, status: ok}]}\n",
			errSubstr: `invalid status "ok"`,
		},
		{
			name:      "bad overall status",
			yaml:      "name: a\ndescription: b\nsite: {jurisdiction: j, zoning_district: d}\nexpect: {overall_status: green}\n",
			errSubstr: `invalid status "green"`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseScenario([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errSubstr)
		})
	}
}

func TestAssertCheck(t *testing.T) {
	checks := []ir.ValidationCheck{
		{RuleID: "r1", StructureID: "a", Status: ir.StatusPass, Measured: ir.Float(10)},
		{RuleID: "r1", StructureID: "b", Status: ir.StatusFail, Measured: ir.Float(3)},
		{RuleID: "sep", StructureID: "a", NeighborID: "b", Status: ir.StatusFail, Measured: ir.Float(4)},
	}

	tests := []struct {
		name string
		want CheckExpect
		ok   bool
	}{
		{"any structure", CheckExpect{RuleID: "r1", Status: ir.StatusFail}, true},
		{"structure and measured", CheckExpect{RuleID: "r1", StructureID: "a", Status: ir.StatusPass, Measured: ir.Float(10)}, true},
		{"wrong measured", CheckExpect{RuleID: "r1", StructureID: "a", Status: ir.StatusPass, Measured: ir.Float(11)}, false},
		{"wrong status", CheckExpect{RuleID: "r1", StructureID: "b", Status: ir.StatusPass}, false},
		{"neighbor", CheckExpect{RuleID: "sep", NeighborID: "b", Status: ir.StatusFail}, true},
		{"wrong neighbor", CheckExpect{RuleID: "sep", NeighborID: "c", Status: ir.StatusFail}, false},
		{"missing rule", CheckExpect{RuleID: "r9", Status: ir.StatusPass}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := assertCheck(checks, tt.want)
			if tt.ok {
				assert.NoError(t, err)
				return
			}
			var ae *AssertionError
			require.ErrorAs(t, err, &ae)
		})
	}
}

func TestLoadSite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "site.yaml")
	data := "name: lot\ndescription: bare lot\nsite: {jurisdiction: king-county-wa, zoning_district: R-4, lot_area_sqft: 9000}\n"
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	s, err := LoadSite(path)
	require.NoError(t, err)
	assert.Equal(t, "lot", s.Name)
	assert.True(t, s.Expect.empty())

	_, err = LoadScenario(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expect must state at least one verdict")
}
