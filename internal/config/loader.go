package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/okian/marks/internal/domain/gate"
	"github.com/okian/marks/internal/domain/model"
)

// EnvPrefix prefixes every environment key.
const EnvPrefix = "MARKS_"

// EnvConfigFile names the variable holding the YAML config path.
const EnvConfigFile = EnvPrefix + "CONFIG"

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New())
//  2. file (YAML) if MARKS_CONFIG is set
//  3. env (prefix MARKS_), including values from a .env file
func Load(_ context.Context) (*Config, error) {
	// .env never overrides variables already set in the process.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: .env: %w", ErrLoadConfig, err)
	}

	base := New()
	k := koanf.New(".")

	if path := os.Getenv(EnvConfigFile); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrLoadConfig, path, err)
		}
	}

	// MARKS_WORKER_COUNT -> worker_count, MARKS_CAPS.ESE -> caps.ESE
	envProvider := env.Provider(EnvPrefix, ".", func(s string) string {
		s = strings.TrimPrefix(s, EnvPrefix)
		if key, comp, ok := strings.Cut(s, "."); ok {
			return strings.ToLower(key) + "." + strings.ToUpper(comp)
		}
		return strings.ToLower(s)
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: env: %w", ErrLoadConfig, err)
	}

	cfg := *base
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("%w: unmarshal: %w", ErrLoadConfig, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	}
	if c.WorkerCount <= 0 {
		return fmt.Errorf("%w: worker_count must be positive", ErrInvalidConfig)
	}
	if c.MaxUploadBytes <= 0 {
		return fmt.Errorf("%w: max_upload_bytes must be positive", ErrInvalidConfig)
	}
	if c.StageCacheSize <= 0 {
		return fmt.Errorf("%w: stage_cache_size must be positive", ErrInvalidConfig)
	}
	if _, err := gate.Threshold(c.PassingPercentage); err != nil {
		return fmt.Errorf("%w: passing_percentage: %w", ErrInvalidConfig, err)
	}
	for name := range c.Caps {
		if _, ok := model.ParseComponent(name); !ok {
			return fmt.Errorf("%w: caps: unknown component %q", ErrInvalidConfig, name)
		}
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("%w: log_format %q", ErrInvalidConfig, c.LogFormat)
	}
	return nil
}

// DefaultCaps returns the configured caps keyed by component.
func (c *Config) DefaultCaps() map[model.Component]float64 {
	out := make(map[model.Component]float64, len(c.Caps))
	for name, v := range c.Caps {
		if comp, ok := model.ParseComponent(name); ok {
			out[comp] = v
		}
	}
	return out
}
