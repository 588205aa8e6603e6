// Package config loads server configuration from an optional TOML file,
// with flag and environment overrides applied by the caller.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// Config holds the server configuration.
type Config struct {
	Addr      string `toml:"addr"`
	DataDir   string `toml:"data_dir"`
	StaticDir string `toml:"static_dir"`

	// SyncSecret authorizes the global sync trigger endpoint. Empty
	// disables the endpoint entirely.
	SyncSecret string `toml:"sync_secret"`

	// ExportHost is the public host used when composing export URLs.
	ExportHost string `toml:"export_host"`

	SyncIntervalMin     int `toml:"sync_interval_min"`
	FetchTimeoutSeconds int `toml:"fetch_timeout_seconds"`
	SyncWorkers         int `toml:"sync_workers"`
	HoldTTLMinutes      int `toml:"hold_ttl_minutes"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Addr:                ":8099",
		DataDir:             "/data",
		StaticDir:           "./static",
		SyncIntervalMin:     15,
		FetchTimeoutSeconds: 10,
		SyncWorkers:         4,
		HoldTTLMinutes:      30,
	}
}

// Load reads configuration from the given TOML file, falling back to
// defaults for anything unset. A missing file is not an error; a file
// that exists but fails to parse is.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file %s: %w", path, err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.SyncIntervalMin <= 0 {
		return fmt.Errorf("sync_interval_min must be positive, got %d", c.SyncIntervalMin)
	}
	if c.FetchTimeoutSeconds <= 0 {
		return fmt.Errorf("fetch_timeout_seconds must be positive, got %d", c.FetchTimeoutSeconds)
	}
	if c.SyncWorkers <= 0 {
		return fmt.Errorf("sync_workers must be positive, got %d", c.SyncWorkers)
	}
	if c.HoldTTLMinutes <= 0 {
		return fmt.Errorf("hold_ttl_minutes must be positive, got %d", c.HoldTTLMinutes)
	}
	return nil
}
