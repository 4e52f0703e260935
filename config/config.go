// Package config loads the YAML configuration file and supplies defaults.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the complete application configuration.
type Config struct {
	Database  DatabaseConfig  `yaml:"database"`
	CallStore CallStoreConfig `yaml:"call_store"`
	Parser    ParserConfig    `yaml:"parser"`
	Ingest    IngestConfig    `yaml:"ingest"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// DatabaseConfig locates and tunes the SQLite database.
type DatabaseConfig struct {
	Path               string `yaml:"path"`
	BusyTimeoutMS      int    `yaml:"busy_timeout_ms"`
	PreflightTimeoutMS int    `yaml:"preflight_timeout_ms"`
}

// CallStoreConfig controls the per-callsign aggregate store.
type CallStoreConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// ParserConfig controls document splitting.
type ParserConfig struct {
	// TokenAwareSplit honors declared field lengths across <eor> markers.
	// Off by default: the textual split is the legacy behavior and keeps
	// malformed inputs parsing the way existing logs expect.
	TokenAwareSplit bool `yaml:"token_aware_split"`
}

// IngestConfig controls upload processing.
type IngestConfig struct {
	Review bool `yaml:"review"` // flag likely-busted callsigns after each batch
}

// LoggingConfig controls the optional daily log file.
type LoggingConfig struct {
	Dir           string `yaml:"dir"`
	RetentionDays int    `yaml:"retention_days"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Database: DatabaseConfig{
			Path:               "data/logshack.db",
			BusyTimeoutMS:      5000,
			PreflightTimeoutMS: 2000,
		},
		CallStore: CallStoreConfig{
			Enabled: true,
			Path:    "data/callstore",
		},
		Ingest: IngestConfig{
			Review: true,
		},
		Logging: LoggingConfig{
			RetentionDays: 7,
		},
	}
}

// Load reads a YAML configuration file over the defaults.
func Load(filename string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	return &cfg, nil
}
