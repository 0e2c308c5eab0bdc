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

// EnvPrefix prefixes every environment override.
const EnvPrefix = "ASSAY_"

// flagKeys maps command-line flags onto config keys. Flags not listed here
// are not configuration.
var flagKeys = map[string]string{
	"host":           "server.host",
	"port":           "server.port",
	"transport":      "transport.mode",
	"log-level":      "log.level",
	"log-path":       "log.path",
	"lock-timeout":   "store.lock_timeout",
	"max-depth":      "discovery.max_depth",
	"include-hidden": "discovery.include_hidden",
	"debounce":       "evals.watch_debounce",
}

// Load reads configuration. Precedence (highest to lowest): explicitly set
// flags > ASSAY_* env vars > config file > defaults. The config file comes
// from cfgFile or, if empty, ASSAY_CONFIG_PATH.
func Load(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if cfgFile == "" {
		cfgFile = os.Getenv(EnvPrefix + "CONFIG_PATH")
	}
	if cfgFile != "" {
		if err := k.Load(file.Provider(cfgFile), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", cfgFile, err)
		}
	}

	if err := k.Load(env.ProviderWithValue(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

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
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

// envKey maps ASSAY_SECTION_FIELD_NAME to section.field_name, splitting on the
// first underscore only. List values are comma separated.
func envKey(key, value string) (string, any) {
	lower := strings.ToLower(strings.TrimPrefix(key, EnvPrefix))
	section, field, ok := strings.Cut(lower, "_")
	if !ok || section == "config" {
		return "", nil
	}
	path := section + "." + field
	if path == "discovery.skip_dirs" {
		parts := strings.Split(value, ",")
		dirs := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				dirs = append(dirs, p)
			}
		}
		return path, dirs
	}
	return path, value
}

// Default returns the built-in configuration without reading files, env or
// flags.
func Default() *Config {
	k := koanf.New(".")
	_ = k.Load(confmap.Provider(defaults(), "."), nil)
	var cfg Config
	_ = k.Unmarshal("", &cfg)
	return &cfg
}
