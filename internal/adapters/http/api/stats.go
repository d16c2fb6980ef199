package api

import (
	"context"
	"net/http"

	"github.com/okian/attrition/internal/adapters/repository"
)

// StatsProvider defines the interface for getting service statistics.
type StatsProvider interface {
	GetStats() map[string]interface{}
}

// StatisticsSource summarises stored predictions.
type StatisticsSource interface {
	Statistics(ctx context.Context) (repository.Statistics, error)
}

// StatsHandler handles stats requests.
type StatsHandler struct {
	source        StatisticsSource
	statsProvider StatsProvider
}

// NewStatsHandler creates a new stats handler.
func NewStatsHandler(source StatisticsSource, statsProvider StatsProvider) *StatsHandler {
	return &StatsHandler{source: source, statsProvider: statsProvider}
}

type statsResponse struct {
	TotalPredictions int     `json:"total_predictions"`
	AtRisk           int     `json:"at_risk"`
	Stable           int     `json:"stable"`
	RiskRatio        float64 `json:"risk_ratio"`
}

// HandleStats handles GET /stats.
func (h *StatsHandler) HandleStats(w http.ResponseWriter, r *http.Request) {
	const op = "api.stats"
	s, err := h.source.Statistics(r.Context())
	if err != nil {
		writeServiceError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, statsResponse{
		TotalPredictions: s.TotalPredictions,
		AtRisk:           s.AtRisk,
		Stable:           s.Stable,
		RiskRatio:        s.RiskRatio,
	})
}

// HandleServiceStats handles GET /stats/service with operational counters.
func (h *StatsHandler) HandleServiceStats(w http.ResponseWriter, _ *http.Request) {
	if h.statsProvider == nil {
		writeJSON(w, http.StatusOK, map[string]interface{}{})
		return
	}
	writeJSON(w, http.StatusOK, h.statsProvider.GetStats())
}
