// Package service provides the core business service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/attrition/internal/adapters/cache"
	historyqueue "github.com/okian/attrition/internal/adapters/mq/queue"
	workerpool "github.com/okian/attrition/internal/adapters/mq/worker"
	"github.com/okian/attrition/internal/adapters/repository"
	"github.com/okian/attrition/internal/domain/employee"
	"github.com/okian/attrition/internal/domain/features"
	"github.com/okian/attrition/internal/domain/history"
	"github.com/okian/attrition/internal/domain/model"
	"github.com/okian/attrition/internal/domain/prediction"
	"github.com/okian/attrition/pkg/logger"
	"github.com/okian/attrition/pkg/metrics"
)

// ErrNotStarted is returned by operations that need a started service.
var ErrNotStarted = errors.New("service not started")

const (
	storeMemory   = "memory"
	storePostgres = "postgres"
	storeInjected = "injected"

	defaultModelPath = "models/model_hr.json"
	defaultQueueSize = 10_000
	defaultCacheSize = 1024
)

// Service implements the API dependencies for the attrition predictor.
type Service struct {
	mu sync.RWMutex

	// Core components
	handle    *model.Handle
	schema    *features.Schema
	predictor *prediction.Predictor
	cache     *cache.PredictionCache
	store     repository.Store
	queue     *historyqueue.InMemoryQueue
	pool      *workerpool.Pool

	// Configuration
	modelPath      string
	loader         model.Loader
	schemaPath     string
	databaseURL    string
	autoMigrate    bool
	maxOpenConns   int
	maxIdleConns   int
	historyEnabled bool
	workerCount    int
	queueSize      int
	cacheSize      int
	now            func() time.Time

	// State
	storeKind string
	started   bool
	cancel    context.CancelFunc

	served  atomic.Int64
	dropped atomic.Int64

	// Logging
	logger logger.Logger
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		modelPath:      defaultModelPath,
		autoMigrate:    true,
		maxOpenConns:   10,
		maxIdleConns:   5,
		historyEnabled: true,
		workerCount:    runtime.NumCPU(),
		queueSize:      defaultQueueSize,
		cacheSize:      defaultCacheSize,
		now:            func() time.Time { return time.Now().UTC() },
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start builds the components. The model itself is loaded on first use.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	if s.logger == nil {
		s.logger = logger.Named("service")
	}
	s.logger.Info(ctx, "starting attrition service...")

	schema, err := s.loadSchema()
	if err != nil {
		return err
	}
	s.schema = schema

	load := s.loader
	if load == nil {
		load = model.FileLoader(s.modelPath)
	}
	s.handle = model.NewHandle(load, model.WithLoadObserver(s.observeLoad))
	s.predictor = prediction.NewPredictor(s.handle, features.NewEncoder(schema))

	if s.cache, err = cache.NewPredictionCache(cache.WithSize(s.cacheSize)); err != nil {
		return err
	}

	if err := s.openStore(ctx); err != nil {
		return err
	}

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.cancel = cancel
	if s.historyEnabled {
		s.queue = historyqueue.NewInMemoryQueue(
			historyqueue.WithCapacity(s.queueSize),
			historyqueue.WithBufferSize(s.queueSize),
		)
		s.pool = workerpool.NewPool(s.workerCount, s.queue, s.store)
		s.pool.Start(runCtx)
	}

	s.started = true
	s.logger.Info(ctx, "attrition service started",
		logger.String("model_path", s.modelPath),
		logger.String("schema_version", schema.Version),
		logger.Int("schema_columns", schema.Width()),
		logger.String("store", s.storeKind),
		logger.Bool("history", s.historyEnabled),
		logger.Int("workers", s.workerCount),
		logger.Int("queue_size", s.queueSize),
		logger.Int("cache_size", s.cache.Size()),
	)

	return nil
}

func (s *Service) loadSchema() (*features.Schema, error) {
	if s.schemaPath == "" {
		return features.DefaultSchema()
	}
	schema, err := features.LoadSchema(s.schemaPath)
	if err != nil {
		return nil, fmt.Errorf("load encoding schema: %w", err)
	}
	return schema, nil
}

func (s *Service) openStore(ctx context.Context) error {
	switch {
	case s.store != nil:
		return nil
	case s.databaseURL != "":
		store, err := repository.NewPostgresStore(ctx, s.databaseURL,
			repository.WithAutoMigrate(s.autoMigrate),
			repository.WithMaxOpenConns(s.maxOpenConns),
			repository.WithMaxIdleConns(s.maxIdleConns),
		)
		if err != nil {
			return fmt.Errorf("open history store: %w", err)
		}
		s.store = store
		s.storeKind = storePostgres
	default:
		s.store = repository.NewMemoryStore()
		s.storeKind = storeMemory
	}
	return nil
}

func (s *Service) observeLoad(d time.Duration, err error) {
	ctx := context.Background()
	if err != nil {
		metrics.RecordModelLoadFailure()
		metrics.SetModelLoaded(false)
		s.logger.Error(ctx, "model load failed",
			logger.String("path", s.modelPath),
			logger.Error(err),
		)
		return
	}
	metrics.RecordModelLoad(float64(d.Microseconds()) / 1000)
	metrics.SetModelLoaded(true)
	s.logger.Info(ctx, "model loaded",
		logger.String("path", s.modelPath),
		logger.Float64("duration_ms", float64(d.Microseconds())/1000),
	)
}

// Stop drains pending history entries and releases the store.
func (s *Service) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return nil
	}

	s.logger.Info(ctx, "stopping attrition service...")

	var errs []error
	if s.pool != nil {
		if err := s.pool.Shutdown(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	if s.cancel != nil {
		s.cancel()
	}
	if s.storeKind != storeInjected && s.store != nil {
		if err := s.store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close history store: %w", err))
		}
		s.store = nil
	}

	s.started = false
	s.logger.Info(ctx, "attrition service stopped",
		logger.Int("served", int(s.served.Load())),
		logger.Int("dropped", int(s.dropped.Load())),
	)
	return errors.Join(errs...)
}

// components is what one prediction call works with, read together under
// the service lock so a concurrent Stop/Start cannot swap them mid-call.
type components struct {
	predictor *prediction.Predictor
	handle    *model.Handle
	cache     *cache.PredictionCache
	queue     *historyqueue.InMemoryQueue
}

func (s *Service) components() (components, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return components{}, ErrNotStarted
	}
	return components{
		predictor: s.predictor,
		handle:    s.handle,
		cache:     s.cache,
		queue:     s.queue,
	}, nil
}

// Predict scores one validated record and queues it for the history.
func (s *Service) Predict(ctx context.Context, requestID string, rec employee.Record) (prediction.Result, error) {
	out, err := s.predict(ctx, requestID, []employee.Record{rec}, "single")
	if err != nil {
		var re *prediction.RecordError
		if errors.As(err, &re) {
			return prediction.Result{}, re.Err
		}
		return prediction.Result{}, err
	}
	return out[0], nil
}

// PredictBatch scores validated records, reusing cached results, and queues
// each one for the history. result[i] belongs to recs[i]; any failure fails
// the whole batch.
func (s *Service) PredictBatch(ctx context.Context, requestID string, recs []employee.Record) ([]prediction.Result, error) {
	metrics.RecordBatchSize(len(recs))
	return s.predict(ctx, requestID, recs, "batch")
}

func (s *Service) predict(ctx context.Context, requestID string, recs []employee.Record, mode string) ([]prediction.Result, error) {
	start := time.Now()
	c, err := s.components()
	if err != nil {
		return nil, err
	}
	if len(recs) == 0 {
		return []prediction.Result{}, nil
	}

	clf, err := c.handle.Get(ctx)
	if err != nil {
		s.recordFailure(ctx, requestID, err)
		return nil, err
	}
	version := model.VersionOf(clf)

	results := make([]prediction.Result, len(recs))
	keys := make([]string, len(recs))
	var missIdx []int
	var misses []employee.Record
	for i, rec := range recs {
		key, ok := cache.Key(version, rec)
		if ok {
			keys[i] = key
			if res, hit := c.cache.Get(key); hit {
				results[i] = res
				continue
			}
		}
		missIdx = append(missIdx, i)
		misses = append(misses, rec)
	}

	if len(misses) > 0 {
		scored, err := c.predictor.PredictBatch(ctx, misses)
		if err != nil {
			var re *prediction.RecordError
			if errors.As(err, &re) && re.Index >= 0 && re.Index < len(missIdx) {
				err = &prediction.RecordError{Index: missIdx[re.Index], Err: re.Err}
			}
			s.recordFailure(ctx, requestID, err)
			return nil, err
		}
		for j, res := range scored {
			i := missIdx[j]
			results[i] = res
			if keys[i] != "" {
				c.cache.Add(keys[i], res)
			}
		}
	}

	metrics.RecordPredictionLatency(float64(time.Since(start).Microseconds()) / 1000)
	at := s.now()
	for i, res := range results {
		metrics.RecordPrediction(strconv.Itoa(res.Class), mode)
		metrics.RecordProbability(res.Probability)
		s.record(ctx, c.queue, history.Entry{
			RequestID:    requestID,
			Profile:      employee.ProfileFromRecord(recs[i]),
			Result:       res,
			ModelVersion: version,
			At:           at,
		})
	}
	s.served.Add(int64(len(results)))
	return results, nil
}

func (s *Service) recordFailure(ctx context.Context, requestID string, err error) {
	kind := "internal"
	switch {
	case errors.Is(err, model.ErrModelUnavailable):
		kind = "model_unavailable"
	case errors.Is(err, prediction.ErrEncodingMismatch):
		kind = "encoding_mismatch"
	case errors.Is(err, prediction.ErrModelFailure):
		kind = "model_failure"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		kind = "cancelled"
	}
	metrics.RecordPredictionError(kind)
	metrics.RecordErrorByComponent("predictor", kind)
	s.logger.Error(ctx, "prediction failed",
		logger.String("request_id", requestID),
		logger.String("kind", kind),
		logger.Error(err),
	)
}

// record queues e for the history writers. A full queue drops the entry.
func (s *Service) record(ctx context.Context, q *historyqueue.InMemoryQueue, e history.Entry) { //nolint:gocritic // hugeParam
	if q == nil {
		return
	}
	if !q.Enqueue(ctx, e) {
		s.dropped.Add(1)
		s.logger.Warn(ctx, "history entry dropped",
			logger.String("request_id", e.RequestID),
			logger.Int("queue_size", q.Len(ctx)),
		)
	}
}

// ModelLoaded reports whether the model is available, loading it if needed.
func (s *Service) ModelLoaded(ctx context.Context) bool {
	c, err := s.components()
	if err != nil {
		return false
	}
	return c.predictor.IsModelLoaded(ctx)
}

// Schema returns the encoding schema in use, nil before Start.
func (s *Service) Schema() *features.Schema {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.schema
}

func (s *Service) historyStore() (repository.Store, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started || s.store == nil {
		return nil, ErrNotStarted
	}
	return s.store, nil
}

// DatabaseStatus is "memory" for the in-process store, otherwise
// "connected" or "unavailable" depending on a ping.
func (s *Service) DatabaseStatus(ctx context.Context) string {
	store, err := s.historyStore()
	if err != nil {
		return "unavailable"
	}
	if s.storeKind == storeMemory {
		return storeMemory
	}
	if err := store.Ping(ctx); err != nil {
		s.logger.Warn(ctx, "database ping failed", logger.Error(err))
		return "unavailable"
	}
	return "connected"
}

// GetEmployee returns a stored employee.
func (s *Service) GetEmployee(ctx context.Context, id int64) (employee.Profile, error) {
	store, err := s.historyStore()
	if err != nil {
		return employee.Profile{}, err
	}
	return store.GetEmployee(ctx, id)
}

// ListEmployees lists stored employees, optionally of one department.
func (s *Service) ListEmployees(ctx context.Context, departement string, page repository.Page) ([]employee.Profile, error) {
	store, err := s.historyStore()
	if err != nil {
		return nil, err
	}
	if departement != "" {
		return store.ListEmployeesByDepartment(ctx, departement, page)
	}
	return store.ListEmployees(ctx, page)
}

// ListEmployeePredictions returns the predictions of an existing employee.
func (s *Service) ListEmployeePredictions(ctx context.Context, id int64) ([]repository.Prediction, error) {
	store, err := s.historyStore()
	if err != nil {
		return nil, err
	}
	if _, err := store.GetEmployee(ctx, id); err != nil {
		return nil, err
	}
	return store.ListPredictionsByEmployee(ctx, id)
}

// GetPrediction returns a stored prediction.
func (s *Service) GetPrediction(ctx context.Context, id int64) (repository.Prediction, error) {
	store, err := s.historyStore()
	if err != nil {
		return repository.Prediction{}, err
	}
	return store.GetPrediction(ctx, id)
}

// ListPredictions lists stored predictions, newest first.
func (s *Service) ListPredictions(ctx context.Context, page repository.Page) ([]repository.Prediction, error) {
	store, err := s.historyStore()
	if err != nil {
		return nil, err
	}
	return store.ListPredictions(ctx, page)
}

// ListHighRiskPredictions lists predictions at or above threshold.
func (s *Service) ListHighRiskPredictions(ctx context.Context, threshold float64, page repository.Page) ([]repository.Prediction, error) {
	store, err := s.historyStore()
	if err != nil {
		return nil, err
	}
	return store.ListHighRiskPredictions(ctx, threshold, page)
}

// Statistics summarises stored predictions.
func (s *Service) Statistics(ctx context.Context) (repository.Statistics, error) {
	store, err := s.historyStore()
	if err != nil {
		return repository.Statistics{}, err
	}
	return store.Statistics(ctx)
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]interface{}{
		"started":        s.started,
		"modelPath":      s.modelPath,
		"historyEnabled": s.historyEnabled,
		"workerCount":    s.workerCount,
		"queueSize":      s.queueSize,
		"cacheSize":      s.cacheSize,
		"served":         s.served.Load(),
		"dropped":        s.dropped.Load(),
	}

	if s.started {
		stats["store"] = s.storeKind
		stats["cacheLength"] = s.cache.Len()
		if s.queue != nil {
			queueLen := s.queue.Len(ctx)
			stats["queueLength"] = queueLen
			metrics.UpdateQueueSize(queueLen)
		}
		if s.pool != nil {
			stats["historyWritten"] = s.pool.Written()
			stats["historyFailed"] = s.pool.Failed()
		}
	}

	return stats
}
