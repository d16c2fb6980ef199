package api

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/okian/attrition/internal/adapters/repository"
)

// PredictionsDependencies defines the interface for prediction history reads.
type PredictionsDependencies interface {
	GetPrediction(ctx context.Context, id int64) (repository.Prediction, error)
	ListPredictions(ctx context.Context, page repository.Page) ([]repository.Prediction, error)
	ListHighRiskPredictions(ctx context.Context, threshold float64, page repository.Page) ([]repository.Prediction, error)
}

// PredictionsHandler handles prediction history requests.
type PredictionsHandler struct {
	deps PredictionsDependencies
}

// NewPredictionsHandler creates a new predictions handler.
func NewPredictionsHandler(deps PredictionsDependencies) *PredictionsHandler {
	return &PredictionsHandler{deps: deps}
}

type predictionRecord struct {
	ID           int64     `json:"id"`
	EmployeeID   int64     `json:"employee_id"`
	Prediction   int       `json:"prediction"`
	Probability  float64   `json:"probability"`
	Label        string    `json:"label"`
	ModelVersion string    `json:"model_version"`
	PredictedAt  time.Time `json:"predicted_at"`
}

func toPredictionRecords(preds []repository.Prediction) []predictionRecord {
	out := make([]predictionRecord, len(preds))
	for i, p := range preds {
		out[i] = toPredictionRecord(p)
	}
	return out
}

func toPredictionRecord(p repository.Prediction) predictionRecord {
	return predictionRecord{
		ID:           p.ID,
		EmployeeID:   p.EmployeeID,
		Prediction:   p.Class,
		Probability:  p.Probability,
		Label:        p.Label,
		ModelVersion: p.ModelVersion,
		PredictedAt:  p.PredictedAt,
	}
}

// HandleList handles GET /predictions?skip=&limit=, newest first.
func (h *PredictionsHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	const op = "api.list_predictions"
	page, err := parsePage(r)
	if err != nil {
		writeServiceError(w, op, err)
		return
	}
	preds, err := h.deps.ListPredictions(r.Context(), page)
	if err != nil {
		writeServiceError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, toPredictionRecords(preds))
}

// HandleGet handles GET /predictions/{id}.
func (h *PredictionsHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_prediction"
	id, err := pathID(r)
	if err != nil {
		writeServiceError(w, op, err)
		return
	}
	p, err := h.deps.GetPrediction(r.Context(), id)
	if err != nil {
		writeServiceError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, toPredictionRecord(p))
}

// HandleHighRisk handles GET /predictions/high-risk?threshold=.
func (h *PredictionsHandler) HandleHighRisk(w http.ResponseWriter, r *http.Request) {
	const op = "api.high_risk_predictions"
	page, err := parsePage(r)
	if err != nil {
		writeServiceError(w, op, err)
		return
	}
	threshold := repository.DefaultRiskThreshold
	if raw := strings.TrimSpace(r.URL.Query().Get("threshold")); raw != "" {
		t, perr := strconv.ParseFloat(raw, 64)
		if perr != nil || t < 0 || t > 1 {
			writeServiceError(w, op, &FieldError{Field: "threshold", Reason: "must be a number between 0 and 1", Index: -1})
			return
		}
		threshold = t
	}
	preds, err := h.deps.ListHighRiskPredictions(r.Context(), threshold, page)
	if err != nil {
		writeServiceError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, toPredictionRecords(preds))
}
