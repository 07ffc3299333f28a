package snapshot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/buildcheck/internal/catalog"
	"github.com/roach88/buildcheck/internal/ir"
	"github.com/roach88/buildcheck/internal/source"
)

const testAddress = "100 Test Way, Kent, WA 98042"

// fixedSite is a verified, fully compliant R-4 lot served by sewer.
type fixedSite struct {
	parcelErr error
}

func (f fixedSite) Parcel(_ context.Context, address string) (ir.PropertyRecord, error) {
	if f.parcelErr != nil {
		return ir.PropertyRecord{}, f.parcelErr
	}
	return ir.PropertyRecord{
		ParcelID:       "0000000001",
		Address:        ir.CleanAddress(address),
		City:           "Kent",
		County:         "King",
		State:          "WA",
		JurisdictionID: "king-county-wa",
		ZoningDistrict: "R-4",
		LotAreaSqFt:    10000,
		LotWidthFt:     80,
		LotDepthFt:     125,
		Source:         "test",
		Confidence:     ir.ConfidenceVerified,
	}, nil
}

func (fixedSite) Soil(context.Context, ir.PropertyRecord) (*ir.SoilData, error) {
	return &ir.SoilData{
		Suitability:       ir.SoilWellSuited,
		WaterTableDepthIn: ir.Float(60),
		SlopeHighPct:      5,
		Confidence:        ir.ConfidenceVerified,
	}, nil
}

func (fixedSite) Sewer(context.Context, ir.PropertyRecord) (*ir.SewerServiceArea, error) {
	return &ir.SewerServiceArea{Provider: "Test Sewer District", Available: true, ConnectionRequired: true}, nil
}

func (fixedSite) Environment(context.Context, ir.PropertyRecord) ([]ir.EnvironmentalFlag, error) {
	return []ir.EnvironmentalFlag{
		{Type: ir.FlagFloodZone, Status: ir.StatusPass, Description: "none", Citations: []ir.Citation{{Source: "FEMA"}}},
		{Type: ir.FlagWetland, Status: ir.StatusPass, Description: "none", Citations: []ir.Citation{{Source: "KCC"}}},
	}, nil
}

func (fixedSite) Structures(context.Context, ir.PropertyRecord) ([]ir.Structure, error) {
	return []ir.Structure{{
		ID:            "primary",
		Type:          ir.StructurePrimaryDwelling,
		FootprintSqFt: 2000,
		Stories:       1,
		HeightFeet:    ir.Float(28),
		SetbackFront:  ir.Float(25),
		SetbackSide:   ir.Float(6),
		SetbackRear:   ir.Float(25),
	}}, nil
}

func fixedAggregator(site fixedSite) *Aggregator {
	return New(catalog.MustDefault(),
		WithParcelSource(site),
		WithSoilSource(site),
		WithSewerSource(site),
		WithEnvironmentSource(site),
		WithStructureSource(site),
	)
}

func TestGenerateFixedSite(t *testing.T) {
	res, err := fixedAggregator(fixedSite{}).Generate(context.Background(), testAddress)
	require.NoError(t, err)

	assert.Equal(t, ir.StatusPass, res.Categories.Buildability.Status)
	assert.Equal(t, ir.StatusPass, res.Categories.Utilities.Status)
	assert.Equal(t, ir.StatusPass, res.Categories.Environmental.Status)
	assert.Equal(t, ir.StatusPass, res.OverallStatus)
	assert.NotEmpty(t, res.RuleChecks)
	assert.Equal(t, res.RuleChecks, res.Validation.Checks)
	assert.Equal(t, ir.FeasibilityNotFeasible, res.Wastewater.SepticFeasibility)
	assert.False(t, res.Wastewater.SepticRequired)

	require.GreaterOrEqual(t, len(res.DataGaps), 2)
	assert.Equal(t, GapSurvey, res.DataGaps[0].Category)
	assert.Equal(t, GapOrdinance, res.DataGaps[1].Category)
	for _, g := range res.DataGaps {
		assert.NotEqual(t, GapProvenance, g.Category)
		assert.NotEqual(t, GapSeptic, g.Category)
	}

	assert.Equal(t, ir.MustSnapshotID(ir.AddressKey(testAddress), catalog.MustDefault().Version()), res.ID)
	assert.Equal(t, ir.SchemaVersion, res.SchemaVersion)
	assert.Equal(t, ir.EngineVersion, res.EngineVersion)
	assert.NotEmpty(t, res.SourceCitations)
}

func TestGenerateFixedSitePreviewGolden(t *testing.T) {
	res, err := fixedAggregator(fixedSite{}).Generate(context.Background(), testAddress)
	require.NoError(t, err)

	data, err := json.MarshalIndent(res.Preview(), "", "  ")
	require.NoError(t, err)

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "preview_fixed_site", data)
}

func TestGenerateByteIdentical(t *testing.T) {
	agg := New(catalog.MustDefault())
	for i := range 25 {
		addr := fmt.Sprintf("%d NE %dth Pl, Renton, WA 98059", 500+i*13, 100+i)
		first, err := agg.Generate(context.Background(), addr)
		require.NoError(t, err)
		second, err := New(catalog.MustDefault()).Generate(context.Background(), addr)
		require.NoError(t, err)

		a, err := json.Marshal(first)
		require.NoError(t, err)
		b, err := json.Marshal(second)
		require.NoError(t, err)
		assert.Equal(t, string(a), string(b), addr)
	}
}

func TestGenerateSeededInvariants(t *testing.T) {
	agg := New(catalog.MustDefault())
	for i := range 40 {
		addr := fmt.Sprintf("%d SE %dth St, Auburn, WA 98092", 3000+i*11, 300+i)
		res, err := agg.Generate(context.Background(), addr)
		require.NoError(t, err)

		assert.Equal(t, Overall(res.Categories), res.OverallStatus)
		assert.Equal(t, BuildabilityStatus(res.RuleChecks), res.Categories.Buildability.Status)
		assert.Equal(t, ir.WorstOf(res.Wastewater.SewerStatus, res.Wastewater.SepticStatus), res.Categories.Utilities.Status)
		assert.Len(t, res.EnvironmentalFlags, 4)

		if res.Wastewater.SewerAvailable && res.Wastewater.SewerRequired {
			assert.False(t, res.Wastewater.SepticRequired)
			assert.Len(t, res.Wastewater.Issues, 1)
		}

		provenance := 0
		perc := false
		for _, g := range res.DataGaps {
			switch g.Category {
			case GapProvenance:
				provenance++
			case GapSeptic:
				perc = true
			}
		}
		assert.Equal(t, 5, provenance, "every seeded input is disclosed")
		assert.Equal(t, !res.Wastewater.SewerAvailable, perc)
	}
}

func TestGenerateSameAddressDifferentSpelling(t *testing.T) {
	agg := New(catalog.MustDefault())
	a, err := agg.Generate(context.Background(), "42 Main St, Kent, WA")
	require.NoError(t, err)
	b, err := agg.Generate(context.Background(), "  42  MAIN st., kent,  wa ")
	require.NoError(t, err)

	assert.Equal(t, a.ID, b.ID)
	assert.Equal(t, a.OverallStatus, b.OverallStatus)
	assert.Equal(t, a.Property.ParcelID, b.Property.ParcelID)
}

func TestGenerateSourceFailureFallsBack(t *testing.T) {
	site := fixedSite{parcelErr: errors.New("assessor offline")}
	res, err := fixedAggregator(site).Generate(context.Background(), testAddress)
	require.NoError(t, err)

	assert.Equal(t, ir.ConfidenceEstimated, res.Property.Confidence)
	assert.Equal(t, source.SourceSeeded, res.Property.Source)

	var gaps []ir.DataGap
	for _, g := range res.DataGaps {
		if g.Category == GapProvenance {
			gaps = append(gaps, g)
		}
	}
	require.Len(t, gaps, 1)
	assert.Contains(t, gaps[0].Description, "parcel")
	assert.Contains(t, gaps[0].Description, "assessor offline")
}

func TestGenerateCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := New(catalog.MustDefault()).Generate(ctx, testAddress)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestWithSeededCustomJurisdiction(t *testing.T) {
	agg := New(catalog.MustDefault(), WithSeeded(source.NewSeeded("nowhere", []string{"X-1"})))
	res, err := agg.Generate(context.Background(), testAddress)
	require.NoError(t, err)

	assert.Equal(t, "nowhere", res.Jurisdiction)
	assert.Empty(t, res.RuleChecks)
	assert.NotNil(t, res.RuleChecks)
	assert.Equal(t, ir.StatusPass, res.Categories.Buildability.Status)
	assert.Contains(t, res.Categories.Buildability.Summary, "No dimensional rules")
}
