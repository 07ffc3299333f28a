// Package source resolves the inputs of a feasibility report: the parcel,
// its soil, sewer service, environmental screens and existing structures.
//
// Seeded derives every input deterministically from the address. It stands
// in for live parcel, GIS and soil services, so the same address always
// produces the same inputs. Shapefile and Oracle resolve parcels from real
// assessor data.
package source

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"strings"

	"github.com/roach88/buildcheck/internal/ir"
)

// Seed components. Each input draws from its own stream so adding a draw to
// one generator never shifts another.
const (
	componentParcel      = "parcel"
	componentSoil        = "soil"
	componentSewer       = "sewer"
	componentEnvironment = "environment"
	componentStructures  = "structures"
)

// SourceSeeded labels inputs produced by the Seeded source.
const SourceSeeded = "address-seeded estimate"

// Stream returns the deterministic random stream for one component of an
// address key.
func Stream(component, addressKey string) *rand.Rand {
	return rand.New(rand.NewPCG(
		ir.AddressSeed(component, addressKey),
		ir.AddressSeed(component+"/stream", addressKey),
	))
}

func between(r *rand.Rand, lo, hi float64) float64 {
	return lo + r.Float64()*(hi-lo)
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func round6(v float64) float64 {
	return math.Round(v*1e6) / 1e6
}

type lotRange struct {
	minSqFt, maxSqFt float64
}

// lotRanges are typical lot sizes for the default districts.
var lotRanges = map[string]lotRange{
	"R-1": {20000, 43560},
	"R-4": {7200, 15000},
	"R-6": {5000, 9000},
}

var defaultLotRange = lotRange{6000, 20000}

var seededCities = []string{"Kent", "Renton", "Auburn", "Maple Valley", "Covington", "Enumclaw", "Issaquah"}

// Seeded is the deterministic address-seeded source. It is stateless and
// safe for concurrent use.
type Seeded struct {
	jurisdiction string
	county       string
	state        string
	districts    []string
}

// NewSeeded returns a seeded source that places parcels in the given
// jurisdiction and districts.
func NewSeeded(jurisdiction string, districts []string) *Seeded {
	if len(districts) == 0 {
		districts = []string{"R-4"}
	}
	return &Seeded{
		jurisdiction: jurisdiction,
		county:       "King",
		state:        "WA",
		districts:    append([]string(nil), districts...),
	}
}

// DefaultSeeded places parcels in the default catalog's jurisdiction.
func DefaultSeeded() *Seeded {
	return NewSeeded("king-county-wa", []string{"R-1", "R-4", "R-6"})
}

// Parcel derives a parcel for the address.
func (s *Seeded) Parcel(ctx context.Context, address string) (ir.PropertyRecord, error) {
	if err := ctx.Err(); err != nil {
		return ir.PropertyRecord{}, err
	}
	key := ir.AddressKey(address)
	r := Stream(componentParcel, key)

	district := s.districts[r.IntN(len(s.districts))]
	lots, ok := lotRanges[district]
	if !ok {
		lots = defaultLotRange
	}
	area := math.Round(between(r, lots.minSqFt, lots.maxSqFt))
	// Lots run deeper than wide.
	width := round1(math.Sqrt(area / between(r, 1.5, 2.5)))
	depth := round1(area / width)

	city := cityFromAddress(address)
	pick := seededCities[r.IntN(len(seededCities))]
	if city == "" {
		city = pick
	}

	return ir.PropertyRecord{
		ParcelID:       fmt.Sprintf("%010d", r.Int64N(1e10)),
		Address:        ir.CleanAddress(address),
		City:           city,
		County:         s.county,
		State:          s.state,
		JurisdictionID: s.jurisdiction,
		ZoningDistrict: district,
		ZoningCategory: "Residential",
		LotAreaSqFt:    area,
		LotWidthFt:     width,
		LotDepthFt:     depth,
		Centroid: ir.Point{
			Lat: round6(between(r, 47.30, 47.70)),
			Lon: round6(between(r, -122.40, -121.90)),
		},
		Source:     SourceSeeded,
		Confidence: ir.ConfidenceEstimated,
	}, nil
}

// cityFromAddress takes the second comma-separated part, as in
// "123 Main St, Kent, WA 98032".
func cityFromAddress(address string) string {
	parts := strings.Split(ir.CleanAddress(address), ",")
	if len(parts) < 3 {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// Structures derives the existing primary dwelling plus an optional garage
// and proposed detached ADU.
func (s *Seeded) Structures(ctx context.Context, property ir.PropertyRecord) ([]ir.Structure, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r := Stream(componentStructures, ir.AddressKey(property.Address))

	stories := 1 + r.IntN(2)
	house := ir.Structure{
		ID:            "primary",
		Type:          ir.StructurePrimaryDwelling,
		FootprintSqFt: math.Round(between(r, 1100, 2400)),
		Stories:       stories,
		HeightFeet:    ir.Float(round1(between(r, 14, 18) * float64(stories))),
		SetbackFront:  ir.Float(round1(between(r, 18, 45))),
		SetbackSide:   ir.Float(round1(between(r, 4.5, 15))),
		SetbackRear:   ir.Float(round1(between(r, 18, 60))),
		Separations:   map[string]float64{},
	}
	structures := []ir.Structure{house}

	if r.Float64() < 0.5 {
		gap := round1(between(r, 5, 30))
		structures[0].Separations["garage"] = gap
		structures = append(structures, ir.Structure{
			ID:            "garage",
			Type:          ir.StructureGarage,
			FootprintSqFt: math.Round(between(r, 240, 600)),
			Stories:       1,
			HeightFeet:    ir.Float(round1(between(r, 10, 18))),
			SetbackSide:   ir.Float(round1(between(r, 3, 12))),
			SetbackRear:   ir.Float(round1(between(r, 4, 20))),
			Separations:   map[string]float64{"primary": gap},
		})
	}

	if r.Float64() < 0.6 {
		dadu := ir.Structure{
			ID:            "dadu",
			Type:          ir.StructureDADU,
			FootprintSqFt: math.Round(between(r, 550, 1100)),
			Stories:       1 + r.IntN(2),
			HeightFeet:    ir.Float(round1(between(r, 15, 26))),
			SetbackSide:   ir.Float(round1(between(r, 4, 10))),
			SetbackRear:   ir.Float(round1(between(r, 4, 15))),
			Separations:   map[string]float64{"primary": round1(between(r, 4, 25))},
			Proposed:      true,
		}
		structures[0].Separations["dadu"] = dadu.Separations["primary"]
		structures = append(structures, dadu)
	}

	if len(structures[0].Separations) == 0 {
		structures[0].Separations = nil
	}
	return structures, nil
}

// Estimated reports that every input from this source is an estimate.
func (s *Seeded) Estimated() bool { return true }
