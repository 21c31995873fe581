package runtime

import (
	"context"
	"fmt"
	"net/http"

	"github.com/hashicorp/vault/api"
	"github.com/redis/go-redis/v9"

	"github.com/architeacher/svc-job-worker/internal/adapters"
	"github.com/architeacher/svc-job-worker/internal/config"
	"github.com/architeacher/svc-job-worker/internal/infrastructure"
	"github.com/architeacher/svc-job-worker/internal/ports"
	"github.com/architeacher/svc-job-worker/internal/usecases"
	"github.com/architeacher/svc-job-worker/internal/workers"
	"github.com/architeacher/svc-job-worker/pkg/queue"
)

type (
	Applications struct {
		Publisher *usecases.PublisherApplication
		Worker    *usecases.WorkerApplication
	}

	InfrastructureDeps struct {
		HealthServer        *http.Server
		SecretStorageClient *api.Client
		CacheClient         *redis.Client
		Publisher           *queue.Publisher
		Supervisor          *queue.Supervisor
		Metrics             infrastructure.Metrics
	}

	Repos struct {
		SecretStorageRepo ports.SecretsRepository
	}

	Dependencies struct {
		Apps Applications

		cfg          *config.ServiceConfig
		configLoader *config.Loader

		logger *infrastructure.Logger

		Infra    InfrastructureDeps
		Repos    Repos
		Registry *workers.Registry
		Topology workers.TopologyConfig
		Notifier ports.Notifier
		Health   *adapters.HealthChecker

		tracerShutdownFunc infrastructure.ShutdownFunc
		secretVersion      uint
	}
)

func initializeDependencies(ctx context.Context, opts ...DependencyOption) (*Dependencies, error) {
	cfg, err := config.Init()
	if err != nil {
		return nil, fmt.Errorf("unable to load service configuration: %w", err)
	}

	appLogger := infrastructure.New(config.LoggingConfig{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})

	appLogger.Info().Msg("initializing dependencies...")

	deps := &Dependencies{
		cfg:      cfg,
		logger:   appLogger,
		Topology: workers.NewTopologyConfig(cfg.Queue),
	}

	// Start with default options and append any additional options.
	options := append(defaultOptions(ctx), opts...)

	for _, opt := range options {
		if err := opt(deps); err != nil {
			return nil, fmt.Errorf("failed to apply dependency option: %w", err)
		}
	}

	deps.logger.Info().Msg("dependencies initialized successfully")

	return deps, nil
}

// release closes what every runtime context shares.
func (d *Dependencies) release(ctx context.Context) {
	if d.Infra.CacheClient != nil {
		if err := d.Infra.CacheClient.Close(); err != nil {
			d.logger.Error().Err(err).Msg("failed to close cache connection")
		}
	}

	if d.Infra.Metrics != nil {
		if err := d.Infra.Metrics.Shutdown(ctx); err != nil {
			d.logger.Error().Err(err).Msg("failed to shutdown metrics")
		}
	}

	if d.tracerShutdownFunc != nil {
		if err := d.tracerShutdownFunc(ctx); err != nil {
			d.logger.Error().Err(err).Msg("failed to shutdown tracer")
		}
	}
}
