package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/roach88/buildcheck/internal/catalog"
	"github.com/roach88/buildcheck/internal/config"
	"github.com/roach88/buildcheck/internal/engine"
	"github.com/roach88/buildcheck/internal/snapshot"
	"github.com/roach88/buildcheck/internal/source"
	"github.com/roach88/buildcheck/internal/store"
)

// addSourceFlags registers the flags that override configuration for
// commands that generate or read reports.
func addSourceFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.String("db", "", "path to the SQLite store")
	f.String("catalog", "", "rule catalog directory (default built-in)")
	f.String("parcel-source", "", "parcel source (seeded|shapefile|oracle)")
	f.String("shapefile", "", "parcel shapefile path")
	f.String("jurisdiction", "", "jurisdiction for seeded and unlabeled parcels")
	f.String("log-level", "", "log level (debug|info|warn|error)")
	f.String("log-format", "", "log format (text|json)")
}

// app is the set of components one command runs against.
type app struct {
	cfg     *config.Config
	logger  *slog.Logger
	catalog *catalog.Catalog
	closers []io.Closer
}

func newApp(opts *RootOptions, cmd *cobra.Command) (*app, error) {
	cfg, err := config.Load(opts.ConfigFile, cmd.Flags())
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "invalid configuration", err)
	}

	a := &app{
		cfg:    cfg,
		logger: newLogger(cfg.Log, opts.Verbose, cmd.ErrOrStderr()),
	}
	a.catalog, err = loadCatalog(cfg.Catalog.Dir)
	if err != nil {
		return nil, err
	}
	a.logger.Debug("catalog loaded", "rules", a.catalog.Len(), "version", a.catalog.Version())
	return a, nil
}

func newLogger(lc config.LogConfig, verbose bool, w io.Writer) *slog.Logger {
	level := lc.SlogLevel()
	if verbose {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}
	if lc.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func loadCatalog(dir string) (*catalog.Catalog, error) {
	if dir == "" {
		cat, err := catalog.Default()
		if err != nil {
			return nil, WrapExitError(ExitCommandError, "built-in catalog", err)
		}
		return cat, nil
	}
	cat, err := catalog.Load(dir)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "loading catalog "+dir, err)
	}
	return cat, nil
}

// aggregator wires the configured parcel source over the seeded fallback.
func (a *app) aggregator() (*snapshot.Aggregator, error) {
	src := a.cfg.Sources
	j := src.Jurisdiction
	districts := a.catalog.Districts(j)
	if len(districts) == 0 {
		a.logger.Warn("catalog has no districts for jurisdiction", "jurisdiction", j)
	}
	opts := []snapshot.Option{snapshot.WithSeeded(source.NewSeeded(j, districts))}

	switch src.Parcel {
	case config.ParcelShapefile:
		shp, err := source.OpenShapefile(src.Shapefile.Path, j)
		if err != nil {
			return nil, WrapExitError(ExitCommandError, "parcel source", err)
		}
		a.logger.Info("indexed shapefile parcels", "path", src.Shapefile.Path, "parcels", shp.Len())
		opts = append(opts, snapshot.WithParcelSource(shp))
	case config.ParcelOracle:
		ora, err := source.OpenOracle(src.Oracle.Source(), j)
		if err != nil {
			return nil, WrapExitError(ExitCommandError, "parcel source", err)
		}
		a.closers = append(a.closers, ora)
		a.logger.Info("using oracle parcels", "server", src.Oracle.Server, "table", src.Oracle.Table)
		opts = append(opts, snapshot.WithParcelSource(ora))
	}
	return snapshot.New(a.catalog, opts...), nil
}

func (a *app) openStore() (*store.Store, error) {
	st, err := store.Open(a.cfg.Database.Path)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "opening store", err)
	}
	a.closers = append(a.closers, st)
	return st, nil
}

// service wires aggregator, store and engine.
func (a *app) service(ctx context.Context) (*engine.Service, error) {
	agg, err := a.aggregator()
	if err != nil {
		return nil, err
	}
	st, err := a.openStore()
	if err != nil {
		return nil, err
	}
	svc, err := engine.New(ctx, agg, st, engine.WithLogger(a.logger))
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "starting engine", err)
	}
	return svc, nil
}

// Close releases everything opened, last opened first.
func (a *app) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	if len(errs) > 0 {
		return fmt.Errorf("closing: %w", errors.Join(errs...))
	}
	return nil
}
