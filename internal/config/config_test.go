package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), FileName)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func testFlags() *pflag.FlagSet {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.String("addr", ":8080", "")
	fs.String("db", "buildcheck.db", "")
	fs.String("parcel-source", "seeded", "")
	fs.String("log-level", "info", "")
	fs.Bool("verbose", false, "")
	return fs
}

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load("", nil)
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, 5*time.Second, cfg.Server.ReadHeaderTimeout)
	assert.Equal(t, "buildcheck.db", cfg.Database.Path)
	assert.Empty(t, cfg.Catalog.Dir)
	assert.Equal(t, ParcelSeeded, cfg.Sources.Parcel)
	assert.Equal(t, "king-county-wa", cfg.Sources.Jurisdiction)
	assert.Equal(t, 1521, cfg.Sources.Oracle.Port)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
}

func TestLoadPrecedence(t *testing.T) {
	t.Chdir(t.TempDir())
	path := writeConfig(t, `
server:
  addr: ":9000"
  read_header_timeout: 2s
database:
  path: from-file.db
log:
  level: warn
`)
	t.Setenv("BUILDCHECK_DATABASE__PATH", "from-env.db")
	t.Setenv("BUILDCHECK_LOG__LEVEL", "error")

	flags := testFlags()
	require.NoError(t, flags.Parse([]string{"--log-level", "debug", "--verbose"}))

	cfg, err := Load(path, flags)
	require.NoError(t, err)

	assert.Equal(t, ":9000", cfg.Server.Addr, "file overrides default")
	assert.Equal(t, 2*time.Second, cfg.Server.ReadHeaderTimeout)
	assert.Equal(t, "from-env.db", cfg.Database.Path, "env overrides file")
	assert.Equal(t, "debug", cfg.Log.Level, "flag overrides env")
}

func TestLoadUnsetFlagsDoNotOverride(t *testing.T) {
	t.Chdir(t.TempDir())
	path := writeConfig(t, "server:\n  addr: \":7000\"\n")

	cfg, err := Load(path, testFlags())
	require.NoError(t, err)
	assert.Equal(t, ":7000", cfg.Server.Addr)
}

func TestLoadFindsFileInWorkingDir(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte("catalog:\n  dir: rules\n"), 0o644))

	cfg, err := Load("", nil)
	require.NoError(t, err)
	assert.Equal(t, "rules", cfg.Catalog.Dir)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "error reading config file")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		errSubstr string
	}{
		{"unknown parcel source", "sources:\n  parcel: gis\n", "Parcel"},
		{"bad log level", "log:\n  level: loud\n", "Level"},
		{"bad log format", "log:\n  format: xml\n", "Format"},
		{"shapefile without path", "sources:\n  parcel: shapefile\n", "sources.shapefile.path"},
		{"oracle without table", "sources:\n  parcel: oracle\n  oracle:\n    server: db\n    service: gis\n", "sources.oracle"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Chdir(t.TempDir())
			_, err := Load(writeConfig(t, tt.body), nil)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errSubstr)
		})
	}
}

func TestOracleSource(t *testing.T) {
	t.Chdir(t.TempDir())
	path := writeConfig(t, `
sources:
  parcel: oracle
  oracle:
    server: db.example.org
    service: GIS
    user: reader
    password: secret
    table: assessor.parcels
`)
	cfg, err := Load(path, nil)
	require.NoError(t, err)

	src := cfg.Sources.Oracle.Source()
	assert.Equal(t, "db.example.org", src.Server)
	assert.Equal(t, 1521, src.Port)
	assert.Equal(t, "assessor.parcels", src.Table)
	assert.Contains(t, src.DSN(), "db.example.org:1521/GIS")
}

func TestSlogLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, LogConfig{Level: "debug"}.SlogLevel())
	assert.Equal(t, slog.LevelWarn, LogConfig{Level: "warn"}.SlogLevel())
	assert.Equal(t, slog.LevelInfo, LogConfig{Level: "bogus"}.SlogLevel())
}
