package config

import "errors"

// Load and Validate wrap these so callers can tell a bad file or env
// value apart from a setting the service cannot run with.
var (
	ErrInvalidConfig = errors.New("invalid config")
	ErrLoadConfig    = errors.New("load config failed")
)
