package bootstrap

import (
	"context"
	"fmt"
	"net/http"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/trois-dimensions/site-backend/internal/api/router"
	appconfig "github.com/trois-dimensions/site-backend/internal/config"
	"github.com/trois-dimensions/site-backend/internal/http/handlers"
	"github.com/trois-dimensions/site-backend/internal/intake"
	"github.com/trois-dimensions/site-backend/internal/observability/metrics"
	"github.com/trois-dimensions/site-backend/pkg/logging"
)

// App is the fully wired HTTP surface shared by the API server and the Lambda.
type App struct {
	Handler  http.Handler
	Storage  *Storage
	Metrics  *metrics.IntakeMetrics
	Registry *prometheus.Registry
	redis    *redis.Client
}

// Close releases the Redis client and storage handles.
func (a *App) Close() {
	if a == nil {
		return
	}
	if a.redis != nil {
		_ = a.redis.Close()
		a.redis = nil
	}
	a.Storage.Close()
}

// SetupMetrics builds a registry carrying the intake metrics plus the Go
// runtime collectors, and the handler that exposes it.
func SetupMetrics() (http.Handler, *prometheus.Registry, *metrics.IntakeMetrics) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.NewIntakeMetrics(reg)
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}), reg, m
}

// NewApp opens storage, builds the email notifier and role checker, and
// mounts everything on the router. awsCfg may be nil when no AWS-backed
// component is configured.
func NewApp(ctx context.Context, cfg *appconfig.Config, awsCfg *aws.Config, logger *logging.Logger) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("bootstrap: config is required")
	}
	if logger == nil {
		logger = logging.Default()
	}

	storage, err := OpenStorage(ctx, cfg, awsCfg, logger)
	if err != nil {
		return nil, err
	}

	metricsHandler, reg, intakeMetrics := SetupMetrics()
	notifier, notifierErr := BuildLeadNotifier(cfg, awsCfg, logger)
	if notifierErr != nil {
		logger.Warn("email sender not configured; intake submissions will be refused", "error", notifierErr)
	}

	orchestrator := intake.NewOrchestrator(storage.Leads, notifier, intake.Config{
		StoreTimeout: cfg.StoreTimeout,
		EmailTimeout: cfg.EmailTimeout,
		ConfigErr:    notifierErr,
	}, intakeMetrics, logger)

	redisClient := BuildRedisClient(ctx, cfg, logger, true)
	checker := BuildRoleChecker(storage.Roles, redisClient, cfg, logger)
	if checker == nil {
		logger.Warn("no role store available; admin lead routes will refuse every caller")
	}
	if cfg.AdminJWTSecret == "" {
		logger.Warn("ADMIN_JWT_SECRET not set; admin API disabled")
	}

	handler := router.New(&router.Config{
		Logger:             logger,
		IntakeHandler:      intake.NewHandler(orchestrator, int64(cfg.MaxBodyBytes), logger),
		AdminLeads:         handlers.NewAdminLeadsHandler(storage.Leads, logger),
		AdminSession:       handlers.NewAdminSessionHandler(checker, logger),
		AdminStats:         handlers.NewAdminStatsHandler(storage.Leads, reg, logger),
		RoleChecker:        checker,
		AdminAuthSecret:    cfg.AdminJWTSecret,
		MetricsHandler:     metricsHandler,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
	})

	return &App{
		Handler:  handler,
		Storage:  storage,
		Metrics:  intakeMetrics,
		Registry: reg,
		redis:    redisClient,
	}, nil
}
