// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New(ctx) initializer to build a Config with defaults.
// - Load layers a YAML file and environment variables on top of the defaults.
// - Validation failures wrap ErrInvalidConfig.
package config

import (
	"context"
	"runtime"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFile, when set, also writes logs to a size-rotated file.
	LogFile string `koanf:"log_file"`

	// LogMaxSizeMB is the size at which LogFile rotates.
	LogMaxSizeMB int `koanf:"log_max_size_mb"`

	// LogJSON switches log output to JSON.
	LogJSON bool `koanf:"log_json"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// ModelPath points at the serialized model artifact.
	ModelPath string `koanf:"model_path"`

	// EncodingSchemaPath optionally overrides the embedded encoding schema.
	EncodingSchemaPath string `koanf:"encoding_schema_path"`

	// DatabaseURL selects the Postgres store; empty keeps history in memory.
	DatabaseURL string `koanf:"database_url"`

	// DatabaseAutoMigrate applies embedded migrations on startup.
	DatabaseAutoMigrate bool `koanf:"database_auto_migrate"`

	DatabaseMaxOpenConns int `koanf:"database_max_open_conns"`
	DatabaseMaxIdleConns int `koanf:"database_max_idle_conns"`

	// HistoryEnabled records every prediction in the store asynchronously.
	HistoryEnabled bool `koanf:"history_enabled"`

	// HistoryQueueSize bounds the in-memory history queue.
	HistoryQueueSize int `koanf:"history_queue_size"`

	// HistoryWorkerCount sets the number of history writers.
	HistoryWorkerCount int `koanf:"history_worker_count"`

	// PredictionCacheSize is the LRU capacity; 0 disables caching.
	PredictionCacheSize int `koanf:"prediction_cache_size"`

	// MaxBatchSize caps POST /predict/batch.
	MaxBatchSize int `koanf:"max_batch_size"`

	// CORSAllowedOrigins lists allowed origins; "*" allows all.
	CORSAllowedOrigins []string `koanf:"cors_allowed_origins"`

	// APIVersion is reported by /health.
	APIVersion string `koanf:"api_version"`
}

// New creates a Config with defaults. Context is accepted first to
// satisfy the project-wide convention and is currently unused.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel:             "info",
		LogMaxSizeMB:         50,
		Addr:                 ":9080",
		ModelPath:            "models/model_hr.json",
		DatabaseAutoMigrate:  true,
		DatabaseMaxOpenConns: 10,
		DatabaseMaxIdleConns: 5,
		HistoryEnabled:       true,
		HistoryQueueSize:     10_000,
		HistoryWorkerCount:   runtime.NumCPU(),
		PredictionCacheSize:  1024,
		MaxBatchSize:         1000,
		CORSAllowedOrigins:   []string{"*"},
		APIVersion:           "1.0.0",
	}
}
