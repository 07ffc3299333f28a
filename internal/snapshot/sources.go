package snapshot

import (
	"context"

	"github.com/roach88/buildcheck/internal/dimensional"
	"github.com/roach88/buildcheck/internal/ir"
	"github.com/roach88/buildcheck/internal/source"
)

// ParcelSource resolves an address to a parcel.
type ParcelSource interface {
	Parcel(ctx context.Context, address string) (ir.PropertyRecord, error)
}

// SoilSource samples the soil survey at a parcel. A nil result means no
// sample exists.
type SoilSource interface {
	Soil(ctx context.Context, property ir.PropertyRecord) (*ir.SoilData, error)
}

// SewerSource resolves sewer service coverage. A nil result means no
// service area data exists.
type SewerSource interface {
	Sewer(ctx context.Context, property ir.PropertyRecord) (*ir.SewerServiceArea, error)
}

// EnvironmentSource runs the environmental screens for a parcel.
type EnvironmentSource interface {
	Environment(ctx context.Context, property ir.PropertyRecord) ([]ir.EnvironmentalFlag, error)
}

// StructureSource lists the existing and proposed structures on a parcel.
type StructureSource interface {
	Structures(ctx context.Context, property ir.PropertyRecord) ([]ir.Structure, error)
}

// Catalog is the rule set a report is evaluated against.
type Catalog interface {
	dimensional.RuleSource
	Version() string
}

// estimator is implemented by sources whose every answer is an estimate.
type estimator interface {
	Estimated() bool
}

func isEstimated(src any) bool {
	e, ok := src.(estimator)
	return ok && e.Estimated()
}

// Option configures an Aggregator.
type Option func(*Aggregator)

// WithSeeded replaces the seeded source used as the default for every input
// and as the fallback when another source fails. It resets every source,
// so pass it before the other source options.
func WithSeeded(s *source.Seeded) Option {
	return func(a *Aggregator) {
		a.fallback = s
		a.parcels, a.soils, a.sewers, a.environment, a.structures = s, s, s, s, s
	}
}

// WithParcelSource sets the parcel source.
func WithParcelSource(s ParcelSource) Option {
	return func(a *Aggregator) { a.parcels = s }
}

// WithSoilSource sets the soil source.
func WithSoilSource(s SoilSource) Option {
	return func(a *Aggregator) { a.soils = s }
}

// WithSewerSource sets the sewer source.
func WithSewerSource(s SewerSource) Option {
	return func(a *Aggregator) { a.sewers = s }
}

// WithEnvironmentSource sets the environmental screen source.
func WithEnvironmentSource(s EnvironmentSource) Option {
	return func(a *Aggregator) { a.environment = s }
}

// WithStructureSource sets the structure source.
func WithStructureSource(s StructureSource) Option {
	return func(a *Aggregator) { a.structures = s }
}
