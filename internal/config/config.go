// Package config loads buildcheck settings.
//
// Precedence, highest first: explicitly set flags, BUILDCHECK_ environment
// variables, buildcheck.yaml, defaults. Nested keys in environment variable
// names are separated by a double underscore, so
// BUILDCHECK_SERVER__READ_HEADER_TIMEOUT sets server.read_header_timeout.
package config

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/roach88/buildcheck/internal/source"
)

// Parcel source kinds.
const (
	ParcelSeeded    = "seeded"
	ParcelShapefile = "shapefile"
	ParcelOracle    = "oracle"
)

// Config is the complete runtime configuration.
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Database DatabaseConfig `koanf:"database"`
	Catalog  CatalogConfig  `koanf:"catalog"`
	Sources  SourcesConfig  `koanf:"sources"`
	Log      LogConfig      `koanf:"log"`
}

// ServerConfig configures `buildcheck serve`.
type ServerConfig struct {
	Addr              string        `koanf:"addr" validate:"required"`
	ReadHeaderTimeout time.Duration `koanf:"read_header_timeout" validate:"gt=0"`
}

// DatabaseConfig locates the SQLite store.
type DatabaseConfig struct {
	Path string `koanf:"path" validate:"required"`
}

// CatalogConfig locates rule catalog files. An empty Dir uses the built-in
// catalog.
type CatalogConfig struct {
	Dir string `koanf:"dir"`
}

// SourcesConfig selects where parcel records come from. Soil, sewer,
// environmental screens and structures are always address-seeded.
type SourcesConfig struct {
	Parcel       string          `koanf:"parcel" validate:"oneof=seeded shapefile oracle"`
	Jurisdiction string          `koanf:"jurisdiction" validate:"required"`
	Shapefile    ShapefileConfig `koanf:"shapefile"`
	Oracle       OracleConfig    `koanf:"oracle"`
}

// ShapefileConfig locates a parcel shapefile.
type ShapefileConfig struct {
	Path string `koanf:"path"`
}

// OracleConfig addresses an Oracle parcel table.
type OracleConfig struct {
	Server   string            `koanf:"server"`
	Port     int               `koanf:"port"`
	Service  string            `koanf:"service"`
	User     string            `koanf:"user"`
	Password string            `koanf:"password"`
	Table    string            `koanf:"table"`
	Options  map[string]string `koanf:"options"`
}

// Source converts to the parcel source configuration.
func (o OracleConfig) Source() source.OracleConfig {
	return source.OracleConfig{
		Server:   o.Server,
		Port:     o.Port,
		Service:  o.Service,
		User:     o.User,
		Password: o.Password,
		Table:    o.Table,
		Options:  o.Options,
	}
}

// LogConfig configures the slog handler.
type LogConfig struct {
	Level  string `koanf:"level" validate:"oneof=debug info warn error"`
	Format string `koanf:"format" validate:"oneof=text json"`
}

// SlogLevel returns the configured level.
func (l LogConfig) SlogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(l.Level)); err != nil {
		return slog.LevelInfo
	}
	return level
}

var validate = validator.New()

// Validate checks field values and the settings each parcel source needs.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	switch c.Sources.Parcel {
	case ParcelShapefile:
		if c.Sources.Shapefile.Path == "" {
			return fmt.Errorf("invalid configuration: sources.shapefile.path is required when sources.parcel is %q", ParcelShapefile)
		}
	case ParcelOracle:
		o := c.Sources.Oracle
		if o.Server == "" || o.Service == "" || o.Table == "" {
			return fmt.Errorf("invalid configuration: sources.oracle.server, service and table are required when sources.parcel is %q", ParcelOracle)
		}
	}
	return nil
}
