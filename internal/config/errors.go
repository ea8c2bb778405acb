package config

import "errors"

var (
	// ErrInvalidConfig marks values that load but cannot run the service.
	ErrInvalidConfig = errors.New("invalid config")
	// ErrLoadConfig wraps failures reading .env, the YAML file or env vars.
	ErrLoadConfig = errors.New("load config failed")
)
