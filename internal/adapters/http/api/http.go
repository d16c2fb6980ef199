// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/okian/attrition/internal/adapters/repository"
	"github.com/okian/attrition/internal/domain/employee"
	"github.com/okian/attrition/internal/domain/features"
	"github.com/okian/attrition/internal/domain/model"
	"github.com/okian/attrition/internal/domain/prediction"
	"github.com/okian/attrition/pkg/metrics"
)

const (
	defaultMaxBatchSize = 1000
	defaultVersion      = "1.0.0"
	maxBodyBytes        = 8 << 20
)

// Predictor scores records that passed validation. requestID ties the
// resulting history entries to the HTTP request.
type Predictor interface {
	Predict(ctx context.Context, requestID string, rec employee.Record) (prediction.Result, error)
	PredictBatch(ctx context.Context, requestID string, recs []employee.Record) ([]prediction.Result, error)
	ModelLoaded(ctx context.Context) bool
}

// History exposes the stored assessments.
type History interface {
	GetEmployee(ctx context.Context, id int64) (employee.Profile, error)
	ListEmployees(ctx context.Context, departement string, page repository.Page) ([]employee.Profile, error)
	ListEmployeePredictions(ctx context.Context, id int64) ([]repository.Prediction, error)
	GetPrediction(ctx context.Context, id int64) (repository.Prediction, error)
	ListPredictions(ctx context.Context, page repository.Page) ([]repository.Prediction, error)
	ListHighRiskPredictions(ctx context.Context, threshold float64, page repository.Page) ([]repository.Prediction, error)
	Statistics(ctx context.Context) (repository.Statistics, error)
	// DatabaseStatus describes the store for health reports.
	DatabaseStatus(ctx context.Context) string
}

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	Predictor
	History
}

// Config tunes the handlers.
type Config struct {
	// Schema supplies the accepted category values. The embedded default
	// schema is used when nil.
	Schema         *features.Schema
	MaxBatchSize   int
	Version        string
	AllowedOrigins []string
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler      *HealthHandler
	predictHandler     *PredictHandler
	employeesHandler   *EmployeesHandler
	predictionsHandler *PredictionsHandler
	statsHandler       *StatsHandler

	allowedOrigins []string
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, cfg Config) (*Server, error) {
	if cfg.Schema == nil {
		s, err := features.DefaultSchema()
		if err != nil {
			return nil, fmt.Errorf("load default schema: %w", err)
		}
		cfg.Schema = s
	}
	if cfg.MaxBatchSize <= 0 {
		cfg.MaxBatchSize = defaultMaxBatchSize
	}
	if cfg.Version == "" {
		cfg.Version = defaultVersion
	}
	return &Server{
		healthHandler:      NewHealthHandler(deps, cfg.Version),
		predictHandler:     NewPredictHandler(deps, NewValidator(cfg.Schema), cfg.MaxBatchSize),
		employeesHandler:   NewEmployeesHandler(deps),
		predictionsHandler: NewPredictionsHandler(deps),
		statsHandler:       NewStatsHandler(deps, statsProvider),
		allowedOrigins:     cfg.AllowedOrigins,
	}, nil
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	if mux == nil {
		panic("mux is nil")
	}

	mux.HandleFunc("GET /{$}", MetricsMiddleware(s.healthHandler.HandleRoot, "root"))
	mux.HandleFunc("GET /health", MetricsMiddleware(s.healthHandler.HandleHealth, "health"))
	mux.Handle("GET /metrics", promhttp.HandlerFor(metrics.GetRegistry(), promhttp.HandlerOpts{}))

	mux.HandleFunc("POST /predict", MetricsMiddleware(s.predictHandler.HandlePredict, "predict"))
	mux.HandleFunc("POST /predict/batch", MetricsMiddleware(s.predictHandler.HandleBatch, "predict_batch"))

	mux.HandleFunc("GET /employees", MetricsMiddleware(s.employeesHandler.HandleList, "employees"))
	mux.HandleFunc("GET /employees/{id}", MetricsMiddleware(s.employeesHandler.HandleGet, "employee"))
	mux.HandleFunc("GET /employees/{id}/predictions", MetricsMiddleware(s.employeesHandler.HandlePredictions, "employee_predictions"))

	mux.HandleFunc("GET /predictions", MetricsMiddleware(s.predictionsHandler.HandleList, "predictions"))
	mux.HandleFunc("GET /predictions/high-risk", MetricsMiddleware(s.predictionsHandler.HandleHighRisk, "predictions_high_risk"))
	mux.HandleFunc("GET /predictions/{id}", MetricsMiddleware(s.predictionsHandler.HandleGet, "prediction"))

	mux.HandleFunc("GET /stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("GET /stats/service", MetricsMiddleware(s.statsHandler.HandleServiceStats, "stats_service"))
}

// Handler wraps h with the request id and CORS middleware.
func (s *Server) Handler(h http.Handler) http.Handler {
	return RequestIDMiddleware(CORSMiddleware(s.allowedOrigins)(h))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
	Index   *int   `json:"index,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	resp := errorResponse{Code: code, Message: http.StatusText(status)}
	if err != nil {
		resp.Message = err.Error()
	}
	var fe *FieldError
	if errors.As(err, &fe) {
		resp.Message = fe.Error()
		resp.Field = fe.Field
		if fe.Index >= 0 {
			idx := fe.Index
			resp.Index = &idx
		}
	}
	var re *prediction.RecordError
	if resp.Index == nil && errors.As(err, &re) {
		idx := re.Index
		resp.Index = &idx
	}
	writeJSON(w, status, resp)
}

// writeServiceError translates domain and store errors to HTTP responses.
func writeServiceError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, ErrValidation):
		writeError(w, http.StatusUnprocessableEntity, "validation_error", err)
	case errors.Is(err, repository.ErrInvalidPage):
		writeError(w, http.StatusUnprocessableEntity, "validation_error", WrapKind(op, ErrValidation, err))
	case errors.Is(err, repository.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", WrapKind(op, ErrNotFound, err))
	case errors.Is(err, model.ErrModelUnavailable):
		writeError(w, http.StatusServiceUnavailable, "model_unavailable", Wrap(op, err))
	case errors.Is(err, prediction.ErrEncodingMismatch), errors.Is(err, prediction.ErrModelFailure):
		writeError(w, http.StatusInternalServerError, "prediction_failed", Wrap(op, err))
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", WrapKind(op, ErrInternal, err))
	}
}

// decodeJSON reads a JSON body into v keeping numbers as json.Number.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.UseNumber()
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("empty request body")
		}
		return err
	}
	return nil
}

func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id < 1 {
		return 0, &FieldError{Field: "id", Reason: "must be a positive integer", Index: -1}
	}
	return id, nil
}

func parsePage(r *http.Request) (repository.Page, error) {
	page := repository.Page{Limit: repository.DefaultLimit}
	q := r.URL.Query()
	for _, p := range []struct {
		name string
		dst  *int
	}{{"skip", &page.Skip}, {"limit", &page.Limit}} {
		raw := strings.TrimSpace(q.Get(p.name))
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			return page, &FieldError{Field: p.name, Reason: "must be an integer", Index: -1}
		}
		*p.dst = n
	}
	if page.Skip < 0 {
		return page, &FieldError{Field: "skip", Reason: "must be greater than or equal to 0", Index: -1}
	}
	if page.Limit < 1 || page.Limit > repository.MaxLimit {
		return page, &FieldError{
			Field:  "limit",
			Reason: fmt.Sprintf("must be between 1 and %d", repository.MaxLimit),
			Index:  -1,
		}
	}
	return page, nil
}
