package source

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	shp "github.com/jonas-p/go-shp"

	"github.com/roach88/buildcheck/internal/ir"
)

// ErrParcelNotFound is returned when a parcel source has no record for an
// address.
var ErrParcelNotFound = errors.New("parcel not found")

// Attribute columns read from a parcel shapefile. Aliases are tried in order.
var shapefileColumns = map[string][]string{
	"address":  {"ADDRESS", "SITE_ADDR", "ADDR_FULL"},
	"parcel":   {"PARCEL_ID", "PIN", "PARCEL"},
	"zoning":   {"ZONING", "ZONE", "CURRZONE"},
	"juris":    {"JURIS", "JURISDICT"},
	"city":     {"CITY", "CTYNAME"},
	"lot_area": {"LOT_SQFT", "LOTSQFT", "SQFTLOT"},
	"width":    {"LOT_WIDTH", "WIDTH"},
	"depth":    {"LOT_DEPTH", "DEPTH"},
}

// Shapefile resolves parcels from an assessor parcel shapefile. The file is
// read once at open and indexed by address key; lookups are read-only.
type Shapefile struct {
	name         string
	jurisdiction string
	parcels      map[string]ir.PropertyRecord
}

// OpenShapefile indexes the polygons in path. Parcels without a
// jurisdiction column are assigned defaultJurisdiction.
func OpenShapefile(path, defaultJurisdiction string) (*Shapefile, error) {
	r, err := shp.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening shapefile %s: %w", path, err)
	}
	defer r.Close()

	fields := r.Fields()
	columns := make(map[string]int, len(fields))
	for i, f := range fields {
		columns[strings.ToUpper(strings.TrimSpace(f.String()))] = i
	}
	column := func(name string) (int, bool) {
		for _, alias := range shapefileColumns[name] {
			if i, ok := columns[alias]; ok {
				return i, true
			}
		}
		return 0, false
	}
	if _, ok := column("address"); !ok {
		return nil, fmt.Errorf("shapefile %s: no address column", path)
	}

	s := &Shapefile{
		name:         filepath.Base(path),
		jurisdiction: defaultJurisdiction,
		parcels:      make(map[string]ir.PropertyRecord),
	}
	for r.Next() {
		idx, shape := r.Shape()
		attr := func(name string) string {
			i, ok := column(name)
			if !ok {
				return ""
			}
			return strings.TrimSpace(r.ReadAttribute(idx, i))
		}

		address := attr("address")
		if address == "" {
			continue
		}
		record := ir.PropertyRecord{
			ParcelID:       attr("parcel"),
			Address:        ir.CleanAddress(address),
			City:           attr("city"),
			County:         "King",
			State:          "WA",
			JurisdictionID: attr("juris"),
			ZoningDistrict: attr("zoning"),
			ZoningCategory: "Residential",
			LotAreaSqFt:    parseNumber(attr("lot_area")),
			LotWidthFt:     parseNumber(attr("width")),
			LotDepthFt:     parseNumber(attr("depth")),
			Source:         s.name,
			Confidence:     ir.ConfidenceVerified,
		}
		if record.JurisdictionID == "" {
			record.JurisdictionID = defaultJurisdiction
		}
		if poly, ok := shape.(*shp.Polygon); ok {
			record.Centroid = boxCenter(poly)
		}

		key := ir.AddressKey(address)
		if _, dup := s.parcels[key]; !dup {
			s.parcels[key] = record
		}
	}
	return s, nil
}

// Len returns the number of indexed parcels.
func (s *Shapefile) Len() int { return len(s.parcels) }

// Parcel returns the parcel whose address key matches.
func (s *Shapefile) Parcel(ctx context.Context, address string) (ir.PropertyRecord, error) {
	if err := ctx.Err(); err != nil {
		return ir.PropertyRecord{}, err
	}
	record, ok := s.parcels[ir.AddressKey(address)]
	if !ok {
		return ir.PropertyRecord{}, fmt.Errorf("%s: %w", s.name, ErrParcelNotFound)
	}
	return record, nil
}

// boxCenter is the center of the polygon's bounding box. X is longitude.
func boxCenter(poly *shp.Polygon) ir.Point {
	if len(poly.Points) == 0 {
		return ir.Point{}
	}
	minX, maxX := poly.Points[0].X, poly.Points[0].X
	minY, maxY := poly.Points[0].Y, poly.Points[0].Y
	for _, pt := range poly.Points[1:] {
		minX, maxX = min(minX, pt.X), max(maxX, pt.X)
		minY, maxY = min(minY, pt.Y), max(maxY, pt.Y)
	}
	return ir.Point{Lat: round6((minY + maxY) / 2), Lon: round6((minX + maxX) / 2)}
}

func parseNumber(s string) float64 {
	v, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64)
	if err != nil {
		return 0
	}
	return v
}
