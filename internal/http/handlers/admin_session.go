package handlers

import (
	"net/http"

	"github.com/trois-dimensions/site-backend/internal/http/middleware"
	"github.com/trois-dimensions/site-backend/internal/roles"
	"github.com/trois-dimensions/site-backend/pkg/logging"
)

// AdminSessionHandler reports the signed-in user's role so the console can
// decide whether to show the dashboard after login.
type AdminSessionHandler struct {
	checker roles.Checker
	logger  *logging.Logger
}

func NewAdminSessionHandler(checker roles.Checker, logger *logging.Logger) *AdminSessionHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &AdminSessionHandler{checker: checker, logger: logger}
}

type sessionResponse struct {
	UserID  string `json:"user_id"`
	Role    string `json:"role,omitempty"`
	IsAdmin bool   `json:"is_admin"`
}

// Me returns the caller's identity and role.
// GET /admin/me
func (h *AdminSessionHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		jsonError(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	resp := sessionResponse{UserID: userID}
	if h.checker != nil {
		isAdmin, err := h.checker.HasRole(r.Context(), userID, roles.RoleAdmin)
		if err != nil {
			h.logger.Error("role lookup failed", "user_id", userID, "error", err)
			jsonError(w, "role lookup failed", http.StatusInternalServerError)
			return
		}
		if isAdmin {
			resp.Role = roles.RoleAdmin
			resp.IsAdmin = true
		}
	}
	writeJSON(w, http.StatusOK, resp)
}
