package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// FileName is the config file looked up in the working directory.
const FileName = "buildcheck.yaml"

// EnvPrefix prefixes environment overrides.
const EnvPrefix = "BUILDCHECK_"

// Defaults are the lowest-precedence values.
var Defaults = map[string]any{
	"server.addr":                ":8080",
	"server.read_header_timeout": "5s",
	"database.path":              "buildcheck.db",
	"catalog.dir":                "",
	"sources.parcel":             ParcelSeeded,
	"sources.jurisdiction":       "king-county-wa",
	"sources.oracle.port":        1521,
	"log.level":                  "info",
	"log.format":                 "text",
}

// flagKeys maps CLI flag names onto config keys. Flags not listed here are
// not configuration.
var flagKeys = map[string]string{
	"addr":          "server.addr",
	"db":            "database.path",
	"catalog":       "catalog.dir",
	"parcel-source": "sources.parcel",
	"shapefile":     "sources.shapefile.path",
	"jurisdiction":  "sources.jurisdiction",
	"log-level":     "log.level",
	"log-format":    "log.format",
}

// Load reads configuration from defaults, cfgFile (or buildcheck.yaml in
// the working directory when cfgFile is empty), the environment and flags.
// A missing default file is not an error; a missing explicit file is.
func Load(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	// 1. Defaults
	if err := k.Load(confmap.Provider(Defaults, "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// 2. Config file
	path := cfgFile
	if path == "" {
		if _, err := os.Stat(FileName); err == nil {
			path = FileName
		}
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", path, err)
		}
	}

	// 3. Environment: BUILDCHECK_LOG__LEVEL -> log.level
	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	// 4. Flags that were explicitly set
	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, any) {
			key, ok := flagKeys[f.Name]
			if !ok || !f.Changed {
				return "", nil
			}
			return key, posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func envKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	return strings.ReplaceAll(s, "__", ".")
}
