package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/trois-dimensions/site-backend/internal/leads"
	"github.com/trois-dimensions/site-backend/pkg/logging"
)

// AdminLeadsHandler handles admin API endpoints for lead management.
type AdminLeadsHandler struct {
	repo   leads.Repository
	logger *logging.Logger
}

// NewAdminLeadsHandler creates a new admin leads handler.
func NewAdminLeadsHandler(repo leads.Repository, logger *logging.Logger) *AdminLeadsHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &AdminLeadsHandler{
		repo:   repo,
		logger: logger,
	}
}

// LeadsListResponse represents a page of leads.
type LeadsListResponse struct {
	Leads  []*leads.Lead `json:"leads"`
	Total  int           `json:"total"`
	Limit  int           `json:"limit"`
	Offset int           `json:"offset"`
}

// ListLeads returns leads newest first, optionally filtered by category.
// GET /admin/leads?type=&limit=&offset=
func (h *AdminLeadsHandler) ListLeads(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	var category leads.Category
	if raw := strings.TrimSpace(q.Get("type")); raw != "" && raw != "all" {
		c, ok := leads.ParseCategory(raw)
		if !ok {
			jsonError(w, leads.ErrInvalidCategory.Message, http.StatusBadRequest)
			return
		}
		category = c
	}
	limit, _ := strconv.Atoi(q.Get("limit"))
	offset, _ := strconv.Atoi(q.Get("offset"))
	filter := leads.ListFilter{Category: category, Limit: limit, Offset: offset}.Normalize()

	items, err := h.repo.List(r.Context(), filter)
	if err != nil {
		h.logger.Error("failed to list leads", "error", err, "type", category)
		jsonError(w, "failed to list leads", http.StatusInternalServerError)
		return
	}
	total, err := h.repo.Count(r.Context(), category)
	if err != nil {
		h.logger.Error("failed to count leads", "error", err, "type", category)
		jsonError(w, "failed to list leads", http.StatusInternalServerError)
		return
	}
	if items == nil {
		items = []*leads.Lead{}
	}

	writeJSON(w, http.StatusOK, LeadsListResponse{
		Leads:  items,
		Total:  total,
		Limit:  filter.Limit,
		Offset: filter.Offset,
	})
}

// GetLead returns a single lead.
// GET /admin/leads/{leadID}
func (h *AdminLeadsHandler) GetLead(w http.ResponseWriter, r *http.Request) {
	leadID := chi.URLParam(r, "leadID")
	lead, err := h.repo.GetByID(r.Context(), leadID)
	if err != nil {
		if errors.Is(err, leads.ErrLeadNotFound) {
			jsonError(w, "lead not found", http.StatusNotFound)
			return
		}
		h.logger.Error("failed to get lead", "error", err, "lead_id", leadID)
		jsonError(w, "failed to get lead", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, lead)
}

// DeleteLead permanently removes a lead.
// DELETE /admin/leads/{leadID}
func (h *AdminLeadsHandler) DeleteLead(w http.ResponseWriter, r *http.Request) {
	leadID := chi.URLParam(r, "leadID")
	if err := h.repo.Delete(r.Context(), leadID); err != nil {
		if errors.Is(err, leads.ErrLeadNotFound) {
			jsonError(w, "lead not found", http.StatusNotFound)
			return
		}
		h.logger.Error("failed to delete lead", "error", err, "lead_id", leadID)
		jsonError(w, "failed to delete lead", http.StatusInternalServerError)
		return
	}
	h.logger.Info("lead deleted", "lead_id", leadID)
	w.WriteHeader(http.StatusNoContent)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func jsonError(w http.ResponseWriter, msg string, status int) {
	writeJSON(w, status, map[string]string{"error": msg})
}
