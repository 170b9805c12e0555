package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/utafrali/order-confirmation/internal/service"
	"github.com/utafrali/order-confirmation/pkg/health"
	"github.com/utafrali/order-confirmation/pkg/middleware"
)

// RouterConfig holds the router's environment-dependent settings.
type RouterConfig struct {
	Environment        string
	CORSAllowedOrigins []string
	PprofAllowedCIDRs  []string
}

// NewRouter creates a chi router with all confirmation service routes registered.
func NewRouter(
	confirmationService *service.ConfirmationService,
	healthHandler *health.Handler,
	logger *slog.Logger,
	cfg RouterConfig,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.CORS(middleware.CORSConfig{
		AllowedOrigins: cfg.CORSAllowedOrigins,
		Environment:    cfg.Environment,
	}))
	r.Use(chimw.Compress(5))
	r.Use(chimw.Timeout(30 * time.Second))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.PrometheusMetrics("order-confirmation"))
	r.Use(middleware.Tracing("order-confirmation"))
	r.Use(middleware.RequestLogger(logger))

	// Health check endpoints
	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		promhttp.Handler().ServeHTTP(w, r)
	})

	// Pprof debug endpoints with IP allowlist.
	middleware.RegisterPprof(r, cfg.PprofAllowedCIDRs, logger)

	// Confirmation API endpoints
	confirmationHandler := NewConfirmationHandler(confirmationService, logger)

	r.Route("/api/v1/confirmations", func(r chi.Router) {
		r.Use(ContentTypeJSON)

		r.Post("/", confirmationHandler.Confirm)
	})

	return r
}
