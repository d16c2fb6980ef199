package api

import (
	"fmt"
	"net/http"

	"github.com/okian/attrition/internal/domain/employee"
	"github.com/okian/attrition/internal/domain/prediction"
	"github.com/okian/attrition/pkg/metrics"
)

// PredictHandler handles single and batch prediction requests.
type PredictHandler struct {
	deps         Predictor
	validator    *Validator
	maxBatchSize int
}

// NewPredictHandler creates a new predict handler.
func NewPredictHandler(deps Predictor, validator *Validator, maxBatchSize int) *PredictHandler {
	return &PredictHandler{deps: deps, validator: validator, maxBatchSize: maxBatchSize}
}

type predictionResponse struct {
	Prediction  int     `json:"prediction"`
	Probability float64 `json:"probability"`
	Label       string  `json:"label"`
}

func toPredictionResponse(r prediction.Result) predictionResponse {
	return predictionResponse{Prediction: r.Class, Probability: r.Probability, Label: r.Label}
}

type batchRequest struct {
	Employees *[]employee.Record `json:"employees"`
}

type batchResponse struct {
	Predictions []predictionResponse `json:"predictions"`
	Total       int                  `json:"total"`
}

// HandlePredict handles POST /predict.
func (h *PredictHandler) HandlePredict(w http.ResponseWriter, r *http.Request) {
	const op = "api.predict"
	var rec employee.Record
	if err := decodeJSON(w, r, &rec); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if rec == nil {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}
	if err := h.validator.Validate(rec, -1); err != nil {
		metrics.RecordPredictionError("validation")
		writeServiceError(w, op, err)
		return
	}

	res, err := h.deps.Predict(r.Context(), RequestID(r.Context()), rec)
	if err != nil {
		writeServiceError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, toPredictionResponse(res))
}

// HandleBatch handles POST /predict/batch. Results are in request order.
func (h *PredictHandler) HandleBatch(w http.ResponseWriter, r *http.Request) {
	const op = "api.predict_batch"
	var req batchRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if req.Employees == nil {
		writeServiceError(w, op, &FieldError{Field: "employees", Reason: "field required", Index: -1})
		return
	}
	recs := *req.Employees
	if len(recs) > h.maxBatchSize {
		writeServiceError(w, op, &FieldError{
			Field:  "employees",
			Reason: fmt.Sprintf("at most %d employees per request, got %d", h.maxBatchSize, len(recs)),
			Index:  -1,
		})
		return
	}
	for i, rec := range recs {
		if err := h.validator.Validate(rec, i); err != nil {
			metrics.RecordPredictionError("validation")
			writeServiceError(w, op, err)
			return
		}
	}

	results, err := h.deps.PredictBatch(r.Context(), RequestID(r.Context()), recs)
	if err != nil {
		writeServiceError(w, op, err)
		return
	}
	resp := batchResponse{Predictions: make([]predictionResponse, len(results)), Total: len(results)}
	for i, res := range results {
		resp.Predictions[i] = toPredictionResponse(res)
	}
	writeJSON(w, http.StatusOK, resp)
}
