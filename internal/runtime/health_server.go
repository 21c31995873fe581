package runtime

import (
	"encoding/json"
	"fmt"
	"net"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/architeacher/svc-job-worker/internal/adapters/middleware"
	"github.com/architeacher/svc-job-worker/internal/config"
	"github.com/architeacher/svc-job-worker/internal/domain"
	"github.com/architeacher/svc-job-worker/internal/infrastructure"
	"github.com/architeacher/svc-job-worker/internal/ports"
)

const (
	healthPath  = "/healthz"
	metricsPath = "/metrics"
)

func initHealthServer(
	cfg config.HealthServerConfig,
	logger *infrastructure.Logger,
	checker ports.HealthChecker,
	metrics infrastructure.Metrics,
) *http.Server {
	server := &http.Server{
		Addr:              net.JoinHostPort(cfg.Host, fmt.Sprintf("%d", cfg.Port)),
		Handler:           newHealthRouter(cfg, logger, checker, metrics),
		ReadHeaderTimeout: cfg.ReadTimeout,
		ReadTimeout:       cfg.ReadTimeout,
	}

	logger.Info().Str("addr", server.Addr).Msg("health server created")

	return server
}

func newHealthRouter(
	cfg config.HealthServerConfig,
	logger *infrastructure.Logger,
	checker ports.HealthChecker,
	metrics infrastructure.Metrics,
) http.Handler {
	router := chi.NewRouter()

	router.Use(
		chimiddleware.RequestID,
		chimiddleware.RealIP,
		chimiddleware.Recoverer,
	)

	if cfg.AccessLog {
		router.Use(
			middleware.NewProbeFilter(cfg.LogProbes, healthPath, metricsPath).Middleware,
			middleware.NewAccessLogger(logger).Middleware,
		)
	}

	router.Get(healthPath, healthHandler(logger, checker))
	router.Handle(metricsPath, metrics.Handler())

	return otelhttp.NewHandler(router, "health-server")
}

func healthHandler(logger *infrastructure.Logger, checker ports.HealthChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		result := checker.CheckHealth(r.Context())

		statusCode := http.StatusOK
		if result.OverallStatus == domain.HealthResponseStatusUnhealthy {
			statusCode = http.StatusServiceUnavailable
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(statusCode)

		if err := json.NewEncoder(w).Encode(result); err != nil {
			logger.Error().Err(err).Msg("failed to encode health response")
		}
	}
}
