package router

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/trois-dimensions/site-backend/internal/http/handlers"
	httpmiddleware "github.com/trois-dimensions/site-backend/internal/http/middleware"
	"github.com/trois-dimensions/site-backend/internal/roles"
	"github.com/trois-dimensions/site-backend/pkg/logging"
)

// Paths the public form endpoint is served on. The first matches the path
// the site already posts to.
const (
	IntakePath    = "/functions/v1/send-contact-email"
	IntakeAPIPath = "/api/leads"
)

// Config holds router configuration
type Config struct {
	Logger             *logging.Logger
	IntakeHandler      http.Handler
	AdminLeads         *handlers.AdminLeadsHandler
	AdminSession       *handlers.AdminSessionHandler
	AdminStats         *handlers.AdminStatsHandler
	RoleChecker        roles.Checker
	AdminAuthSecret    string
	MetricsHandler     http.Handler
	CORSAllowedOrigins []string
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	r.Use(middleware.Recoverer)

	// Public endpoints
	r.Group(func(public chi.Router) {
		public.Get("/health", healthCheck)
		if cfg.MetricsHandler != nil {
			public.Handle("/metrics", cfg.MetricsHandler)
		}
		if cfg.IntakeHandler != nil {
			// The intake handler answers every method itself (preflight, 405).
			public.Handle(IntakePath, cfg.IntakeHandler)
			public.Handle(IntakeAPIPath, cfg.IntakeHandler)
		}
	})

	// Admin console API
	r.Route("/admin", func(admin chi.Router) {
		if len(cfg.CORSAllowedOrigins) > 0 {
			admin.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
		}
		admin.Use(middleware.NoCache)
		admin.Use(httpmiddleware.AdminJWT(cfg.AdminAuthSecret))

		if cfg.AdminSession != nil {
			admin.Get("/me", cfg.AdminSession.Me)
		}
		if cfg.AdminLeads != nil {
			admin.Group(func(leadsAdmin chi.Router) {
				leadsAdmin.Use(httpmiddleware.RequireRole(cfg.RoleChecker, roles.RoleAdmin, cfg.Logger))
				leadsAdmin.Get("/leads", cfg.AdminLeads.ListLeads)
				leadsAdmin.Get("/leads/{leadID}", cfg.AdminLeads.GetLead)
				leadsAdmin.Delete("/leads/{leadID}", cfg.AdminLeads.DeleteLead)
				if cfg.AdminStats != nil {
					leadsAdmin.Get("/stats", cfg.AdminStats.Stats)
				}
			})
		}
	})

	return r
}

func healthCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}
