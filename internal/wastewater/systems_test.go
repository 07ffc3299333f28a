package wastewater

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/buildcheck/internal/ir"
)

func TestEstimateCostRecommendedSubset(t *testing.T) {
	systems := []ir.SystemRecommendation{
		{Type: "a", Suitability: ir.SuitabilityRecommended, CostRange: ir.CostRange{Min: 15000, Max: 25000}},
		{Type: "b", Suitability: ir.SuitabilityNotRecommended, CostRange: ir.CostRange{Min: 30000, Max: 50000}},
	}

	got := EstimateCost(systems, ir.FeasibilityConditional)
	require.NotNil(t, got)
	assert.Equal(t, ir.CostRange{Min: 17250, Max: 28750}, *got)
}

func TestEstimateCostContingency(t *testing.T) {
	systems := []ir.SystemRecommendation{
		{Suitability: ir.SuitabilityRecommended, CostRange: ir.CostRange{Min: 10000, Max: 20000}},
		{Suitability: ir.SuitabilityRecommended, CostRange: ir.CostRange{Min: 12000, Max: 30000}},
	}

	tests := []struct {
		feasibility ir.Feasibility
		want        ir.CostRange
	}{
		{ir.FeasibilityFeasible, ir.CostRange{Min: 10000, Max: 30000}},
		{ir.FeasibilityConditional, ir.CostRange{Min: 11500, Max: 34500}},
		{ir.FeasibilityChallenging, ir.CostRange{Min: 13000, Max: 39000}},
		{ir.FeasibilityNotFeasible, ir.CostRange{Min: 10000, Max: 30000}},
		{ir.FeasibilityUnknown, ir.CostRange{Min: 10000, Max: 30000}},
	}
	for _, tt := range tests {
		t.Run(string(tt.feasibility), func(t *testing.T) {
			assert.Equal(t, tt.want, *EstimateCost(systems, tt.feasibility))
		})
	}
}

func TestEstimateCostFallsBackToAll(t *testing.T) {
	systems := []ir.SystemRecommendation{
		{Suitability: ir.SuitabilityAcceptable, CostRange: ir.CostRange{Min: 20000, Max: 40000}},
		{Suitability: ir.SuitabilityNotRecommended, CostRange: ir.CostRange{Min: 10000, Max: 18000}},
	}
	assert.Equal(t, ir.CostRange{Min: 10000, Max: 40000}, *EstimateCost(systems, ir.FeasibilityFeasible))
	assert.Nil(t, EstimateCost(nil, ir.FeasibilityFeasible))
}

func TestRecommendSystemsSorted(t *testing.T) {
	inputs := []*ir.SoilData{
		goodSoil(),
		{Suitability: ir.SoilVeryLimited, SlopeHighPct: 5},
		{Suitability: ir.SoilSomewhatLimited, WaterTableDepthIn: ir.Float(20), SlopeHighPct: 8},
		{Suitability: ir.SoilNotRated, SlopeHighPct: 40},
		nil,
	}
	for _, soil := range inputs {
		systems := RecommendSystems(bigLot, soil)
		require.Len(t, systems, 5)
		for i := 1; i < len(systems); i++ {
			assert.LessOrEqual(t, systems[i-1].Suitability.Order(), systems[i].Suitability.Order())
		}
		for _, s := range systems {
			assert.NotEmpty(t, s.Reasons)
		}
	}
}

func TestRecommendSystemsWellSuited(t *testing.T) {
	systems := RecommendSystems(bigLot, goodSoil())
	assert.Equal(t, SystemConventionalGravity, systems[0].Type)
	assert.Equal(t, ir.SuitabilityRecommended, systems[0].Suitability)
}

func TestRecommendSystemsShallowSoil(t *testing.T) {
	soil := &ir.SoilData{Suitability: ir.SoilWellSuited, RestrictiveLayerDepthIn: ir.Float(24), SlopeHighPct: 5}
	systems := RecommendSystems(bigLot, soil)

	byType := make(map[string]ir.Suitability)
	for _, s := range systems {
		byType[s.Type] = s.Suitability
	}
	assert.Equal(t, ir.SuitabilityRecommended, byType[SystemMound])
	assert.Equal(t, ir.SuitabilityNotRecommended, byType[SystemConventionalGravity])
}

func TestRecommendSystemsHydric(t *testing.T) {
	soil := goodSoil()
	soil.Hydric = true
	for _, s := range RecommendSystems(bigLot, soil) {
		assert.Equal(t, ir.SuitabilityNotRecommended, s.Suitability)
	}
}

func TestRecommendSystemsStableWithinTier(t *testing.T) {
	// With no soil data every system ties, so input order is kept.
	systems := RecommendSystems(bigLot, nil)
	want := []string{
		SystemConventionalGravity,
		SystemPressureDistribution,
		SystemMound,
		SystemSandFilter,
		SystemAerobicTreatmentUnit,
	}
	for i, s := range systems {
		assert.Equal(t, want[i], s.Type)
	}
}
