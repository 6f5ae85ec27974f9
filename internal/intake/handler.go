package intake

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/trois-dimensions/site-backend/internal/leads"
	"github.com/trois-dimensions/site-backend/pkg/logging"
)

// DefaultMaxBodyBytes caps a submission body.
const DefaultMaxBodyBytes = 64 << 10

// AllowedHeaders mirrors what the site's client library sends on preflight.
const AllowedHeaders = "authorization, x-client-info, apikey, content-type, x-supabase-client-platform, x-supabase-client-platform-version, x-supabase-client-runtime, x-supabase-client-runtime-version"

const (
	msgMethodNotAllowed = "method not allowed"
	msgInvalidJSON      = "invalid JSON"
)

// Submitter accepts a raw submission.
type Submitter interface {
	Submit(ctx context.Context, sub leads.Submission) (*Result, error)
}

// Handler is the public form endpoint.
type Handler struct {
	submitter    Submitter
	maxBodyBytes int64
	logger       *logging.Logger
}

// NewHandler creates the intake HTTP handler.
func NewHandler(submitter Submitter, maxBodyBytes int64, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	if maxBodyBytes <= 0 {
		maxBodyBytes = DefaultMaxBodyBytes
	}
	return &Handler{submitter: submitter, maxBodyBytes: maxBodyBytes, logger: logger}
}

type response struct {
	Success bool   `json:"success"`
	LeadID  string `json:"leadId,omitempty"`
	EmailID string `json:"emailId,omitempty"`
	Error   string `json:"error,omitempty"`
}

// CORSHeaders sets the permissive headers returned on every intake response.
func CORSHeaders(h http.Header) {
	h.Set("Access-Control-Allow-Origin", "*")
	h.Set("Access-Control-Allow-Headers", AllowedHeaders)
	h.Set("Access-Control-Allow-Methods", "POST, OPTIONS")
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	CORSHeaders(w.Header())

	switch r.Method {
	case http.MethodOptions:
		w.WriteHeader(http.StatusOK)
		return
	case http.MethodPost:
	default:
		w.Header().Set("Allow", "POST, OPTIONS")
		writeJSON(w, http.StatusMethodNotAllowed, response{Error: msgMethodNotAllowed})
		return
	}

	var sub leads.Submission
	body := http.MaxBytesReader(w, r.Body, h.maxBodyBytes)
	if err := json.NewDecoder(body).Decode(&sub); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSON(w, http.StatusBadRequest, response{Error: leads.ErrInputTooLong.Message})
			return
		}
		writeJSON(w, http.StatusBadRequest, response{Error: msgInvalidJSON})
		return
	}

	result, err := h.submitter.Submit(r.Context(), sub)
	if err != nil {
		var ie *Error
		if errors.As(err, &ie) {
			writeJSON(w, ie.Status, response{Error: ie.Message})
			return
		}
		h.logger.Error("unexpected intake error", "error", err)
		writeJSON(w, http.StatusInternalServerError, response{Error: MsgStoreFailed})
		return
	}

	writeJSON(w, http.StatusOK, response{Success: true, LeadID: result.LeadID, EmailID: result.EmailID})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
