// Package snapshot assembles the complete feasibility report for an
// address.
//
// The aggregator resolves its inputs through provider interfaces, runs the
// dimensional validator and the wastewater assessor, and rolls the results
// up into three risk categories and an overall status. For a fixed catalog
// the report is a pure function of the address: generating it twice gives
// byte-identical JSON.
package snapshot

import (
	"context"
	"fmt"

	"github.com/roach88/buildcheck/internal/dimensional"
	"github.com/roach88/buildcheck/internal/ir"
	"github.com/roach88/buildcheck/internal/source"
	"github.com/roach88/buildcheck/internal/wastewater"
)

// Aggregator generates reports. It holds no mutable state and is safe for
// concurrent use.
type Aggregator struct {
	catalog     Catalog
	validator   *dimensional.Validator
	fallback    *source.Seeded
	parcels     ParcelSource
	soils       SoilSource
	sewers      SewerSource
	environment EnvironmentSource
	structures  StructureSource
}

// New returns an aggregator over catalog. Inputs default to the seeded
// source for the default jurisdiction.
func New(catalog Catalog, opts ...Option) *Aggregator {
	a := &Aggregator{
		catalog:   catalog,
		validator: dimensional.New(catalog),
	}
	WithSeeded(source.DefaultSeeded())(a)
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// CatalogVersion returns the version of the catalog reports are built from.
func (a *Aggregator) CatalogVersion() string {
	return a.catalog.Version()
}

// inputs are the resolved inputs of one report.
type inputs struct {
	property   ir.PropertyRecord
	soil       *ir.SoilData
	sewer      *ir.SewerServiceArea
	flags      []ir.EnvironmentalFlag
	structures []ir.Structure
	provenance []provenance
}

// provenance records an input that could only be estimated.
type provenance struct {
	input  string
	reason string
}

// Generate builds the report for address. Source failures fall back to
// seeded estimates and are disclosed as data gaps; the only error is
// cancellation of ctx.
func (a *Aggregator) Generate(ctx context.Context, address string) (ir.SnapshotResult, error) {
	in, err := a.resolve(ctx, address)
	if err != nil {
		return ir.SnapshotResult{}, err
	}

	validation := a.validator.Evaluate(in.property, in.structures)
	assessment := wastewater.Assess(in.property, in.soil, in.sewer)
	categories := Categorize(validation, assessment, in.flags)

	key := ir.AddressKey(address)
	result := ir.SnapshotResult{
		ID:                 ir.MustSnapshotID(key, a.catalog.Version()),
		SchemaVersion:      ir.SchemaVersion,
		EngineVersion:      ir.EngineVersion,
		CatalogVersion:     a.catalog.Version(),
		Address:            ir.CleanAddress(address),
		City:               in.property.City,
		County:             in.property.County,
		ZoningDistrict:     in.property.ZoningDistrict,
		Jurisdiction:       in.property.JurisdictionID,
		Property:           in.property,
		Structures:         in.structures,
		Categories:         categories,
		OverallStatus:      Overall(categories),
		RuleChecks:         validation.Checks,
		Validation:         validation,
		Wastewater:         assessment,
		EnvironmentalFlags: in.flags,
		DataGaps:           dataGaps(key, assessment, in.provenance),
		SourceCitations: ir.MergeCitations(
			categories.Buildability.Citations,
			categories.Utilities.Citations,
			categories.Environmental.Citations,
		),
	}
	if result.Structures == nil {
		result.Structures = []ir.Structure{}
	}
	if result.RuleChecks == nil {
		result.RuleChecks = []ir.ValidationCheck{}
		result.Validation.Checks = result.RuleChecks
	}
	if result.EnvironmentalFlags == nil {
		result.EnvironmentalFlags = []ir.EnvironmentalFlag{}
	}
	return result, nil
}

func (a *Aggregator) resolve(ctx context.Context, address string) (inputs, error) {
	var (
		in  inputs
		err error
	)

	in.property, err = resolveInput(ctx, &in, "parcel",
		func(ctx context.Context) (ir.PropertyRecord, error) { return a.parcels.Parcel(ctx, address) },
		func(ctx context.Context) (ir.PropertyRecord, error) { return a.fallback.Parcel(ctx, address) },
		func(p ir.PropertyRecord) bool { return p.Confidence == ir.ConfidenceEstimated })
	if err != nil {
		return in, err
	}
	p := in.property

	in.soil, err = resolveInput(ctx, &in, "soil",
		func(ctx context.Context) (*ir.SoilData, error) { return a.soils.Soil(ctx, p) },
		func(ctx context.Context) (*ir.SoilData, error) { return a.fallback.Soil(ctx, p) },
		func(s *ir.SoilData) bool { return s != nil && s.Confidence == ir.ConfidenceEstimated })
	if err != nil {
		return in, err
	}

	in.sewer, err = resolveInput(ctx, &in, "sewer",
		func(ctx context.Context) (*ir.SewerServiceArea, error) { return a.sewers.Sewer(ctx, p) },
		func(ctx context.Context) (*ir.SewerServiceArea, error) { return a.fallback.Sewer(ctx, p) },
		func(*ir.SewerServiceArea) bool { return isEstimated(a.sewers) })
	if err != nil {
		return in, err
	}

	in.flags, err = resolveInput(ctx, &in, "environment",
		func(ctx context.Context) ([]ir.EnvironmentalFlag, error) { return a.environment.Environment(ctx, p) },
		func(ctx context.Context) ([]ir.EnvironmentalFlag, error) { return a.fallback.Environment(ctx, p) },
		func([]ir.EnvironmentalFlag) bool { return isEstimated(a.environment) })
	if err != nil {
		return in, err
	}

	in.structures, err = resolveInput(ctx, &in, "structures",
		func(ctx context.Context) ([]ir.Structure, error) { return a.structures.Structures(ctx, p) },
		func(ctx context.Context) ([]ir.Structure, error) { return a.fallback.Structures(ctx, p) },
		func([]ir.Structure) bool { return isEstimated(a.structures) })
	return in, err
}

// resolveInput asks the primary source and falls back to the seeded source
// on failure. Either way an estimated value is recorded for disclosure.
func resolveInput[T any](
	ctx context.Context,
	in *inputs,
	name string,
	primary, fallback func(context.Context) (T, error),
	estimated func(T) bool,
) (T, error) {
	v, err := primary(ctx)
	if err == nil {
		if estimated(v) {
			in.provenance = append(in.provenance, provenance{name, reasonSeeded})
		}
		return v, nil
	}
	if ctx.Err() != nil {
		return v, ctx.Err()
	}
	in.provenance = append(in.provenance, provenance{name, fmt.Sprintf(reasonFallback, err)})
	return fallback(ctx)
}

const (
	reasonSeeded   = "no authoritative source is configured; the value is an address-seeded estimate"
	reasonFallback = "the source failed (%v); an address-seeded estimate was used"
)
