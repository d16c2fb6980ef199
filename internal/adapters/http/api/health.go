package api

import (
	"context"
	"net/http"
)

// HealthDependencies reports model and store state.
type HealthDependencies interface {
	ModelLoaded(ctx context.Context) bool
	DatabaseStatus(ctx context.Context) string
}

// HealthHandler handles health check and root requests.
type HealthHandler struct {
	deps    HealthDependencies
	version string
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(deps HealthDependencies, version string) *HealthHandler {
	return &HealthHandler{deps: deps, version: version}
}

type healthResponse struct {
	Status      string `json:"status"`
	ModelLoaded bool   `json:"model_loaded"`
	Version     string `json:"version"`
	Database    string `json:"database"`
}

// HandleHealth handles GET /health. It answers 200 even when the model
// cannot be loaded; model_loaded tells the caller.
func (h *HealthHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Status:      "healthy",
		ModelLoaded: h.deps.ModelLoaded(r.Context()),
		Version:     h.version,
		Database:    h.deps.DatabaseStatus(r.Context()),
	})
}

type rootResponse struct {
	Message string `json:"message"`
	Docs    string `json:"docs"`
	Health  string `json:"health"`
}

// HandleRoot handles GET / with pointers to the docs and health endpoints.
func (h *HealthHandler) HandleRoot(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, rootResponse{
		Message: "HR Turnover Prediction API",
		Docs:    "/api-docs",
		Health:  "/health",
	})
}
