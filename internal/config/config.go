// Package config defines process configuration and its loading.
//
// Conventions:
// - New() returns a Config populated with defaults.
// - Load(ctx) layers defaults, an optional YAML file and environment variables.
// - Errors are wrapped with this package's sentinel kinds.
package config

import (
	"time"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the log encoding: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address of the front-end, e.g. ":4200".
	Addr string `koanf:"addr"`

	// BackendURL is the origin of the backend library API.
	BackendURL string `koanf:"backend_url"`

	// APIPath is the base path of the library endpoints on the backend.
	APIPath string `koanf:"api_path"`

	// RequestTimeoutMS bounds each outbound backend call.
	RequestTimeoutMS int `koanf:"request_timeout_ms"`

	// WireLog dumps outbound requests and responses at debug level.
	WireLog bool `koanf:"wire_log"`

	// ScanSchedule and ImageSchedule are cron expressions for periodic
	// library scans and image downloads. Empty disables the job.
	ScanSchedule  string `koanf:"scan_schedule"`
	ImageSchedule string `koanf:"image_schedule"`

	// MetricsNamespace prefixes every exported metric name.
	MetricsNamespace string `koanf:"metrics_namespace"`

	// MetricsLabels are constant labels added to every metric (YAML only).
	MetricsLabels map[string]string `koanf:"metrics_labels"`
}

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:         "info",
		LogFormat:        "text",
		Addr:             ":4200",
		BackendURL:       "http://localhost:8080",
		APIPath:          "/library",
		RequestTimeoutMS: 30_000,
		MetricsNamespace: "gameyfin",
	}
}

// RequestTimeout returns RequestTimeoutMS as a duration.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutMS) * time.Millisecond
}
