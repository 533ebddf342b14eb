// CLAUDE:SUMMARY Defines srwatch config structs and parses YAML or TOML configuration files with defaults.
// Package config handles srwatch configuration from YAML or TOML files.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// ErrUnknownSinkType is returned by Validate for a sink type it cannot build.
var ErrUnknownSinkType = errors.New("config: unknown sink type")

// Config is the top-level srwatch configuration.
type Config struct {
	Recorder        RecorderConfig  `yaml:"recorder" toml:"recorder"`
	Ingest          IngestConfig    `yaml:"ingest" toml:"ingest"`
	Telemetry       TelemetryConfig `yaml:"telemetry" toml:"telemetry"`
	ValidateRecords bool            `yaml:"validate_records" toml:"validate_records"`
	Sinks           []SinkConfig    `yaml:"sinks" toml:"sinks"`
}

// TelemetryConfig controls the SQLite store of telemetry diagnostics.
type TelemetryConfig struct {
	Path          string `yaml:"path" toml:"path"` // empty disables
	RetentionDays int    `yaml:"retention_days" toml:"retention_days"`
}

// RecorderConfig tunes the recording pipeline.
type RecorderConfig struct {
	FullSnapshotInterval time.Duration `yaml:"full_snapshot_interval" toml:"full_snapshot_interval"`
	QueueSize            int           `yaml:"queue_size" toml:"queue_size"`
	DedupeResources      *bool         `yaml:"dedupe_resources" toml:"dedupe_resources"`
}

// IngestConfig controls how capture events reach the recorder.
type IngestConfig struct {
	Listen       string `yaml:"listen" toml:"listen"`       // empty disables HTTP ingest
	SpoolDir     string `yaml:"spool_dir" toml:"spool_dir"` // empty disables spool watching
	MaxBodyBytes int64  `yaml:"max_body_bytes" toml:"max_body_bytes"`
}

// SinkConfig defines an output backend.
type SinkConfig struct {
	Type    string `yaml:"type" toml:"type"` // stdout | webhook | sqlite
	URL     string `yaml:"url" toml:"url"`   // webhook
	Path    string `yaml:"path" toml:"path"` // sqlite
	Retries int    `yaml:"retries" toml:"retries"`

	// sqlite pragmas; zero values keep the dbopen defaults
	BusyTimeoutMs int    `yaml:"busy_timeout_ms" toml:"busy_timeout_ms"`
	Synchronous   string `yaml:"synchronous" toml:"synchronous"`
}

// Dedupe reports whether resource dedupe is enabled.
func (r RecorderConfig) Dedupe() bool {
	return r.DedupeResources == nil || *r.DedupeResources
}

// Default returns a configuration with every default applied and a single
// stdout sink.
func Default() *Config {
	cfg := &Config{Sinks: []SinkConfig{{Type: "stdout"}}}
	cfg.applyDefaults()
	return cfg
}

// LoadFile reads a configuration file. Files ending in .toml are decoded as
// TOML, everything else as YAML.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	var cfg Config
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		if _, err := toml.Decode(string(data), &cfg); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
	} else {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Recorder.FullSnapshotInterval <= 0 {
		c.Recorder.FullSnapshotInterval = time.Minute
	}
	if c.Recorder.QueueSize <= 0 {
		c.Recorder.QueueSize = 1024
	}
	if c.Ingest.MaxBodyBytes <= 0 {
		c.Ingest.MaxBodyBytes = 8 << 20
	}
	if len(c.Sinks) == 0 {
		c.Sinks = []SinkConfig{{Type: "stdout"}}
	}
	for i := range c.Sinks {
		if c.Sinks[i].Type == "webhook" && c.Sinks[i].Retries <= 0 {
			c.Sinks[i].Retries = 3
		}
	}
}

// Validate checks that every sink can be built.
func (c *Config) Validate() error {
	for i, s := range c.Sinks {
		switch s.Type {
		case "stdout":
		case "webhook":
			if s.URL == "" {
				return fmt.Errorf("config: sink[%d]: url is required", i)
			}
		case "sqlite":
			if s.Path == "" {
				return fmt.Errorf("config: sink[%d]: path is required", i)
			}
			switch strings.ToUpper(s.Synchronous) {
			case "", "OFF", "NORMAL", "FULL", "EXTRA":
			default:
				return fmt.Errorf("config: sink[%d]: synchronous %q (use OFF, NORMAL, FULL or EXTRA)", i, s.Synchronous)
			}
		default:
			return fmt.Errorf("%w: sink[%d] %q (use stdout, webhook or sqlite)", ErrUnknownSinkType, i, s.Type)
		}
	}
	return nil
}
