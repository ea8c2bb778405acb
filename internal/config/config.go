// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - New() returns a Config populated with defaults.
// - Load layers defaults, an optional YAML file and MARKS_ env vars.
// - External errors are wrapped with this package's sentinel errors.
package config

import (
	"runtime"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the handler: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// MaxUploadBytes bounds POST /datasets bodies.
	MaxUploadBytes int64 `koanf:"max_upload_bytes"`

	// WorkerCount sets the number of stage-mapping workers.
	WorkerCount int `koanf:"worker_count"`

	// ParallelThreshold is the dataset size from which mapping fans out to workers.
	ParallelThreshold int `koanf:"parallel_threshold"`

	// StageCacheSize bounds the cached stage outputs.
	StageCacheSize int `koanf:"stage_cache_size"`

	// PassingPercentage is used when a request omits one.
	PassingPercentage float64 `koanf:"passing_percentage"`

	// Caps holds default explicit caps keyed by component name, e.g. ESE: 100.
	Caps map[string]float64 `koanf:"caps"`
}

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:          "info",
		LogFormat:         "text",
		Addr:              ":9080",
		MaxUploadBytes:    10 << 20,
		WorkerCount:       runtime.NumCPU(),
		ParallelThreshold: 2_000,
		StageCacheSize:    16,
		PassingPercentage: 40,
		Caps:              map[string]float64{},
	}
}
