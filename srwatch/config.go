package srwatch

import (
	"github.com/hazyhaar/srkit/srwatch/internal/config"
)

// Config is the top-level srwatch configuration. Re-exported from internal.
type Config = config.Config

// RecorderConfig tunes the recording pipeline.
type RecorderConfig = config.RecorderConfig

// IngestConfig controls HTTP and spool ingest.
type IngestConfig = config.IngestConfig

// TelemetryConfig controls the telemetry diagnostics store.
type TelemetryConfig = config.TelemetryConfig

// SinkConfig defines an output backend.
type SinkConfig = config.SinkConfig

// ErrUnknownSinkType is returned for a sink type that cannot be built.
var ErrUnknownSinkType = config.ErrUnknownSinkType

// LoadConfigFile reads a YAML or TOML configuration file.
func LoadConfigFile(path string) (*Config, error) {
	return config.LoadFile(path)
}

// DefaultConfig returns the defaults with a single stdout sink.
func DefaultConfig() *Config {
	return config.Default()
}
