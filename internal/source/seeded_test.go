package source

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/buildcheck/internal/ir"
)

func testAddresses(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("%d SE %dth St, Kent, WA 98042", 1000+i*7, 200+i)
	}
	return out
}

func TestSeededDeterministic(t *testing.T) {
	ctx := context.Background()
	s := DefaultSeeded()
	const addr = "12345 SE 256th St, Kent, WA 98030"

	p1, err := s.Parcel(ctx, addr)
	require.NoError(t, err)
	p2, err := DefaultSeeded().Parcel(ctx, "  12345 se 256th st,  KENT, wa 98030 ")
	require.NoError(t, err)
	assert.Equal(t, p1.ParcelID, p2.ParcelID)
	assert.Equal(t, p1.LotAreaSqFt, p2.LotAreaSqFt)
	assert.Equal(t, p1.ZoningDistrict, p2.ZoningDistrict)

	soil1, err := s.Soil(ctx, p1)
	require.NoError(t, err)
	soil2, err := s.Soil(ctx, p1)
	require.NoError(t, err)
	assert.Equal(t, soil1, soil2)

	st1, err := s.Structures(ctx, p1)
	require.NoError(t, err)
	st2, err := s.Structures(ctx, p1)
	require.NoError(t, err)
	assert.Equal(t, st1, st2)
}

func TestSeededAddressesDiffer(t *testing.T) {
	ctx := context.Background()
	s := DefaultSeeded()
	ids := make(map[string]bool)
	for _, addr := range testAddresses(20) {
		p, err := s.Parcel(ctx, addr)
		require.NoError(t, err)
		ids[p.ParcelID] = true
	}
	assert.Greater(t, len(ids), 15)
}

func TestSeededParcel(t *testing.T) {
	ctx := context.Background()
	s := DefaultSeeded()
	for _, addr := range testAddresses(50) {
		p, err := s.Parcel(ctx, addr)
		require.NoError(t, err)

		assert.Contains(t, []string{"R-1", "R-4", "R-6"}, p.ZoningDistrict)
		lots := lotRanges[p.ZoningDistrict]
		assert.GreaterOrEqual(t, p.LotAreaSqFt, lots.minSqFt)
		assert.LessOrEqual(t, p.LotAreaSqFt, lots.maxSqFt)
		assert.Greater(t, p.LotDepthFt, p.LotWidthFt)
		assert.Equal(t, "Kent", p.City)
		assert.Equal(t, "king-county-wa", p.JurisdictionID)
		assert.Equal(t, ir.ConfidenceEstimated, p.Confidence)
		assert.InDelta(t, 47.5, p.Centroid.Lat, 0.2)
		assert.Len(t, p.ParcelID, 10)
	}
}

func TestSeededCityFallback(t *testing.T) {
	p, err := DefaultSeeded().Parcel(context.Background(), "400 Main Ave S")
	require.NoError(t, err)
	assert.Contains(t, seededCities, p.City)
}

func TestSeededCustomDistricts(t *testing.T) {
	s := NewSeeded("test-city", []string{"SF-5"})
	p, err := s.Parcel(context.Background(), "1 Test Way")
	require.NoError(t, err)
	assert.Equal(t, "SF-5", p.ZoningDistrict)
	assert.Equal(t, "test-city", p.JurisdictionID)
	assert.GreaterOrEqual(t, p.LotAreaSqFt, defaultLotRange.minSqFt)
}

func TestSeededSoil(t *testing.T) {
	ctx := context.Background()
	s := DefaultSeeded()
	valid := []string{ir.SoilWellSuited, ir.SoilSomewhatLimited, ir.SoilVeryLimited, ir.SoilNotRated}
	for _, addr := range testAddresses(50) {
		soil, err := s.Soil(ctx, ir.PropertyRecord{Address: addr})
		require.NoError(t, err)
		assert.Contains(t, valid, soil.Suitability)
		assert.GreaterOrEqual(t, soil.SlopeHighPct, soil.SlopeLowPct)
		assert.Equal(t, ir.ConfidenceEstimated, soil.Confidence)
		if soil.WaterTableDepthIn != nil {
			assert.GreaterOrEqual(t, *soil.WaterTableDepthIn, 12.0)
		}
	}
}

func TestSeededSewer(t *testing.T) {
	ctx := context.Background()
	s := DefaultSeeded()
	for _, addr := range testAddresses(50) {
		sewer, err := s.Sewer(ctx, ir.PropertyRecord{Address: addr, ZoningDistrict: "R-6"})
		require.NoError(t, err)
		assert.Equal(t, "BOH 13.04.050", sewer.Citation.Section)
		if !sewer.Available {
			assert.False(t, sewer.ConnectionRequired)
			assert.Nil(t, sewer.DistanceToMainFt)
			continue
		}
		require.NotNil(t, sewer.DistanceToMainFt)
		assert.Equal(t, *sewer.DistanceToMainFt <= SewerRequiredDistanceFt, sewer.ConnectionRequired)
	}
}

func TestSeededEnvironment(t *testing.T) {
	ctx := context.Background()
	s := DefaultSeeded()
	for _, addr := range testAddresses(30) {
		flags, err := s.Environment(ctx, ir.PropertyRecord{Address: addr})
		require.NoError(t, err)
		require.Len(t, flags, 4)
		for _, f := range flags {
			assert.NotEmpty(t, f.Citations)
			switch {
			case !f.Present:
				assert.Equal(t, ir.StatusPass, f.Status)
			case f.Type == ir.FlagWetland:
				assert.Equal(t, ir.StatusFail, f.Status)
			default:
				assert.Equal(t, ir.StatusWarn, f.Status)
			}
		}
	}
}

func TestSeededStructures(t *testing.T) {
	ctx := context.Background()
	s := DefaultSeeded()
	for _, addr := range testAddresses(30) {
		structures, err := s.Structures(ctx, ir.PropertyRecord{Address: addr})
		require.NoError(t, err)
		require.NotEmpty(t, structures)
		assert.Equal(t, ir.StructurePrimaryDwelling, structures[0].Type)

		byID := make(map[string]ir.Structure)
		for _, st := range structures {
			byID[st.ID] = st
		}
		// Separations are recorded symmetrically.
		for _, st := range structures {
			for other, gap := range st.Separations {
				require.Contains(t, byID, other)
				assert.Equal(t, gap, byID[other].Separations[st.ID])
			}
		}
	}
}

func TestSeededCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s := DefaultSeeded()

	_, err := s.Parcel(ctx, "1 Main St")
	assert.ErrorIs(t, err, context.Canceled)
	_, err = s.Soil(ctx, ir.PropertyRecord{})
	assert.ErrorIs(t, err, context.Canceled)
	_, err = s.Environment(ctx, ir.PropertyRecord{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPickWeights(t *testing.T) {
	r := Stream("test", "weights")
	counts := make(map[string]int)
	for range 4000 {
		counts[pick(r, suitabilityWeights)]++
	}
	assert.InDelta(t, 1600, counts[ir.SoilWellSuited], 200)
	assert.InDelta(t, 400, counts[ir.SoilNotRated], 120)
}
