package service

import (
	"time"

	"github.com/okian/attrition/internal/adapters/repository"
	"github.com/okian/attrition/internal/domain/model"
	"github.com/okian/attrition/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithModelPath sets the model artifact location.
func WithModelPath(path string) Option {
	return func(s *Service) {
		if path != "" {
			s.modelPath = path
		}
	}
}

// WithModelLoader replaces the file loader, mostly for tests.
func WithModelLoader(load model.Loader) Option {
	return func(s *Service) {
		if load != nil {
			s.loader = load
		}
	}
}

// WithSchemaPath loads the encoding schema from a YAML file instead of the
// embedded default.
func WithSchemaPath(path string) Option {
	return func(s *Service) {
		s.schemaPath = path
	}
}

// WithDatabaseURL stores history in PostgreSQL. An empty URL keeps history
// in memory.
func WithDatabaseURL(url string) Option {
	return func(s *Service) {
		s.databaseURL = url
	}
}

// WithAutoMigrate applies the database migrations at start.
func WithAutoMigrate(enabled bool) Option {
	return func(s *Service) {
		s.autoMigrate = enabled
	}
}

// WithDatabasePool sizes the PostgreSQL connection pool.
func WithDatabasePool(maxOpen, maxIdle int) Option {
	return func(s *Service) {
		if maxOpen > 0 {
			s.maxOpenConns = maxOpen
		}
		if maxIdle >= 0 {
			s.maxIdleConns = maxIdle
		}
	}
}

// WithStore uses store for history. The service does not close it.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
			s.storeKind = storeInjected
		}
	}
}

// WithHistory turns asynchronous history recording on or off.
func WithHistory(enabled bool) Option {
	return func(s *Service) {
		s.historyEnabled = enabled
	}
}

// WithWorkerCount sets the number of history writers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the maximum number of pending history entries.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithCacheSize sets the prediction cache size. Zero disables the cache.
func WithCacheSize(size int) Option {
	return func(s *Service) {
		if size >= 0 {
			s.cacheSize = size
		}
	}
}

// WithClock sets the time source for history entries.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}
