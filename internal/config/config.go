package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/assaylabs/assay/internal/logging"
)

// Config defines process configuration.
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Transport TransportConfig `koanf:"transport"`
	Log       LogConfig       `koanf:"log"`
	Store     StoreConfig     `koanf:"store"`
	Discovery DiscoveryConfig `koanf:"discovery"`
	Evals     EvalsConfig     `koanf:"evals"`
}

type ServerConfig struct {
	Host string `koanf:"host"`
	Port int    `koanf:"port"`
}

type TransportConfig struct {
	// Mode is stdio (MCP over stdin/stdout) or http (JSON-RPC and MCP over HTTP).
	Mode string `koanf:"mode"`
}

type LogConfig struct {
	Level string `koanf:"level"`
	Path  string `koanf:"path"`
}

type StoreConfig struct {
	LockTimeout time.Duration `koanf:"lock_timeout"`
	BusyTimeout time.Duration `koanf:"busy_timeout"`
}

type DiscoveryConfig struct {
	MaxDepth      int      `koanf:"max_depth"`
	SkipDirs      []string `koanf:"skip_dirs"`
	IncludeHidden bool     `koanf:"include_hidden"`
}

type EvalsConfig struct {
	MaxFileBytes  int64         `koanf:"max_file_bytes"`
	WatchDebounce time.Duration `koanf:"watch_debounce"`
}

// Transport modes.
const (
	ModeStdio = "stdio"
	ModeHTTP  = "http"
)

func defaults() map[string]any {
	return map[string]any{
		"server.host":              "127.0.0.1",
		"server.port":              7421,
		"transport.mode":           ModeStdio,
		"log.level":                "info",
		"log.path":                 "",
		"store.lock_timeout":       "10s",
		"store.busy_timeout":       "5s",
		"discovery.max_depth":      4,
		"discovery.skip_dirs":      []string{".git", "node_modules", "vendor", ".assay"},
		"discovery.include_hidden": false,
		"evals.max_file_bytes":     int64(1 << 20),
		"evals.watch_debounce":     "250ms",
	}
}

// Validate rejects values the services cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port %d out of range", c.Server.Port))
	}
	if c.Transport.Mode != ModeStdio && c.Transport.Mode != ModeHTTP {
		errs = append(errs, fmt.Errorf("transport.mode must be %q or %q, got %q", ModeStdio, ModeHTTP, c.Transport.Mode))
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, fmt.Errorf("log.level: %w", err))
	}
	if c.Store.LockTimeout <= 0 {
		errs = append(errs, errors.New("store.lock_timeout must be positive"))
	}
	if c.Store.BusyTimeout <= 0 {
		errs = append(errs, errors.New("store.busy_timeout must be positive"))
	}
	if c.Discovery.MaxDepth < -1 {
		errs = append(errs, errors.New("discovery.max_depth must be -1 (unlimited) or more"))
	}
	if c.Evals.MaxFileBytes <= 0 {
		errs = append(errs, errors.New("evals.max_file_bytes must be positive"))
	}
	if c.Evals.WatchDebounce <= 0 {
		errs = append(errs, errors.New("evals.watch_debounce must be positive"))
	}
	return errors.Join(errs...)
}
