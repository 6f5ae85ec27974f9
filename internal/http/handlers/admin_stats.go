package handlers

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/trois-dimensions/site-backend/internal/leads"
	"github.com/trois-dimensions/site-backend/internal/observability/metrics"
	"github.com/trois-dimensions/site-backend/pkg/logging"
)

// AdminStatsHandler serves the counters shown on the console dashboard.
type AdminStatsHandler struct {
	repo     leads.Repository
	gatherer prometheus.Gatherer
	logger   *logging.Logger
}

func NewAdminStatsHandler(repo leads.Repository, gatherer prometheus.Gatherer, logger *logging.Logger) *AdminStatsHandler {
	if logger == nil {
		logger = logging.Default()
	}
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return &AdminStatsHandler{repo: repo, gatherer: gatherer, logger: logger}
}

// LeadCounts are stored lead totals.
type LeadCounts struct {
	Total  int                    `json:"total"`
	ByType map[leads.Category]int `json:"by_type"`
}

// StatsResponse combines stored totals with this instance's pipeline counters.
type StatsResponse struct {
	Leads    LeadCounts             `json:"leads"`
	Pipeline metrics.IntakeSnapshot `json:"pipeline"`
}

// Stats returns lead counts per category and pipeline outcomes.
// GET /admin/stats
func (h *AdminStatsHandler) Stats(w http.ResponseWriter, r *http.Request) {
	counts := LeadCounts{ByType: make(map[leads.Category]int, len(leads.Categories))}
	for _, category := range leads.Categories {
		n, err := h.repo.Count(r.Context(), category)
		if err != nil {
			h.logger.Error("failed to count leads", "error", err, "type", category)
			jsonError(w, "failed to load stats", http.StatusInternalServerError)
			return
		}
		counts.ByType[category] = n
		counts.Total += n
	}

	writeJSON(w, http.StatusOK, StatsResponse{
		Leads:    counts,
		Pipeline: metrics.Snapshot(h.gatherer),
	})
}
