package source

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"

	go_ora "github.com/sijms/go-ora/v2"

	"github.com/roach88/buildcheck/internal/ir"
)

// OracleConfig locates an assessor parcel table in Oracle.
type OracleConfig struct {
	Server   string
	Port     int
	Service  string
	User     string
	Password string
	Table    string
	// Options are passed through to the connection URL, e.g. "SSL": "true".
	Options map[string]string
}

// DSN builds the go-ora connection URL.
func (c OracleConfig) DSN() string {
	return go_ora.BuildUrl(c.Server, c.Port, c.Service, c.User, c.Password, c.Options)
}

var tableName = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_$#]*(\.[A-Za-z][A-Za-z0-9_$#]*)?$`)

// Oracle resolves parcels from an assessor table keyed by normalized
// address.
type Oracle struct {
	db           *sql.DB
	query        string
	jurisdiction string
}

// OpenOracle connects with the go-ora driver.
func OpenOracle(cfg OracleConfig, jurisdiction string) (*Oracle, error) {
	db, err := sql.Open("oracle", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("opening oracle: %w", err)
	}
	o, err := NewOracle(db, cfg.Table, jurisdiction)
	if err != nil {
		db.Close()
		return nil, err
	}
	return o, nil
}

// NewOracle wraps an open database. The table name is interpolated into the
// query, so it must be a plain or schema-qualified identifier.
func NewOracle(db *sql.DB, table, jurisdiction string) (*Oracle, error) {
	if !tableName.MatchString(table) {
		return nil, fmt.Errorf("invalid parcel table name %q", table)
	}
	return &Oracle{
		db: db,
		query: fmt.Sprintf(`SELECT parcel_id, site_address, city, zoning, lot_sqft, lot_width, lot_depth, latitude, longitude
FROM %s WHERE address_key = :1`, table),
		jurisdiction: jurisdiction,
	}, nil
}

// Close closes the underlying database.
func (o *Oracle) Close() error {
	return o.db.Close()
}

// Parcel looks up the parcel by address key.
func (o *Oracle) Parcel(ctx context.Context, address string) (ir.PropertyRecord, error) {
	var (
		parcelID, site, city, zoning sql.NullString
		area, width, depth, lat, lon sql.NullFloat64
	)
	err := o.db.QueryRowContext(ctx, o.query, ir.AddressKey(address)).
		Scan(&parcelID, &site, &city, &zoning, &area, &width, &depth, &lat, &lon)
	if errors.Is(err, sql.ErrNoRows) {
		return ir.PropertyRecord{}, fmt.Errorf("oracle: %w", ErrParcelNotFound)
	}
	if err != nil {
		return ir.PropertyRecord{}, fmt.Errorf("querying parcel: %w", err)
	}

	record := ir.PropertyRecord{
		ParcelID:       parcelID.String,
		Address:        ir.CleanAddress(address),
		City:           city.String,
		County:         "King",
		State:          "WA",
		JurisdictionID: o.jurisdiction,
		ZoningDistrict: zoning.String,
		ZoningCategory: "Residential",
		LotAreaSqFt:    area.Float64,
		LotWidthFt:     width.Float64,
		LotDepthFt:     depth.Float64,
		Centroid:       ir.Point{Lat: lat.Float64, Lon: lon.Float64},
		Source:         "oracle assessor table",
		Confidence:     ir.ConfidenceVerified,
	}
	if site.Valid && site.String != "" {
		record.Address = ir.CleanAddress(site.String)
	}
	return record, nil
}
