// Package config loads the tunable protocol constants and network settings
// for a swimd process from a TOML file, falling back to swim.DefaultConfig's
// values when no file is given. It has no dependency on the core swim
// package's behavior, only on its Config shape.
package config

import (
	"fmt"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/kestrelmesh/swim"
)

// fileConfig mirrors the TOML file shape. Durations are strings in the file
// (TOML has no native duration type) and parsed in Load.
type fileConfig struct {
	TickPeriod          string `toml:"tick_period"`
	IndirectProbeFanout int    `toml:"indirect_probe_fanout"`
	ResponseTimeout     string `toml:"response_timeout"`
	BindAddr            string `toml:"bind_addr"`
	StatusAddr          string `toml:"status_addr"`
}

// Config is the fully resolved configuration for a swimd process: the
// in-core protocol tunables plus the two network addresses swimd binds.
type Config struct {
	swim.Config
	BindAddr   string
	StatusAddr string
}

// Default returns the configuration a swimd process uses when no config
// file is given.
func Default() Config {
	return Config{
		Config:     swim.DefaultConfig(),
		BindAddr:   "0.0.0.0:7946",
		StatusAddr: "0.0.0.0:7947",
	}
}

// Load reads and parses a TOML config file at path. Fields absent from the
// file fall back to Default's values.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	var fc fileConfig
	if _, err := toml.DecodeFile(path, &fc); err != nil {
		return Config{}, fmt.Errorf("config: decode %s: %w", path, err)
	}

	if fc.TickPeriod != "" {
		d, err := time.ParseDuration(fc.TickPeriod)
		if err != nil {
			return Config{}, fmt.Errorf("config: tick_period: %w", err)
		}
		cfg.T = d
	}
	if fc.ResponseTimeout != "" {
		d, err := time.ParseDuration(fc.ResponseTimeout)
		if err != nil {
			return Config{}, fmt.Errorf("config: response_timeout: %w", err)
		}
		cfg.ResponseTimeout = d
	}
	if fc.IndirectProbeFanout != 0 {
		cfg.K = fc.IndirectProbeFanout
	}
	if fc.BindAddr != "" {
		cfg.BindAddr = fc.BindAddr
	}
	if fc.StatusAddr != "" {
		cfg.StatusAddr = fc.StatusAddr
	}
	return cfg, nil
}
