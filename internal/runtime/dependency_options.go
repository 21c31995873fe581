package runtime

import (
	"context"
	"fmt"
	"time"

	"github.com/hashicorp/vault/api"
	"go.opentelemetry.io/otel"

	"github.com/architeacher/svc-job-worker/internal/adapters"
	"github.com/architeacher/svc-job-worker/internal/adapters/repos"
	"github.com/architeacher/svc-job-worker/internal/config"
	"github.com/architeacher/svc-job-worker/internal/infrastructure"
	"github.com/architeacher/svc-job-worker/internal/service"
	"github.com/architeacher/svc-job-worker/internal/shared/backoff"
	"github.com/architeacher/svc-job-worker/internal/usecases"
	"github.com/architeacher/svc-job-worker/internal/workers"
	"github.com/architeacher/svc-job-worker/pkg/queue"
)

const (
	chatService      = "chat"
	knowledgeService = "knowledge_extraction"
)

type (
	DependencyOption func(*Dependencies) error
)

func defaultOptions(ctx context.Context) []DependencyOption {
	return []DependencyOption{
		WithSecretStorage(),
		WithSecretStorageRepo(),
		WithConfigLoader(ctx),
		WithMetrics(ctx),
		WithTracing(ctx),
	}
}

// WithSecretStorage initializes the Vault client using ENV config.
func WithSecretStorage() DependencyOption {
	return func(d *Dependencies) error {
		cfg := d.cfg.SecretStorage

		vaultConfig := api.DefaultConfig()
		vaultConfig.Address = cfg.Address
		vaultConfig.Timeout = cfg.Timeout

		if cfg.TLSSkipVerify {
			tlsConfig := &api.TLSConfig{
				Insecure: true,
			}
			if err := vaultConfig.ConfigureTLS(tlsConfig); err != nil {
				return fmt.Errorf("failed to configure TLS: %w", err)
			}
		}

		client, err := api.NewClient(vaultConfig)
		if err != nil {
			return fmt.Errorf("failed to create Vault client: %w", err)
		}

		if cfg.Namespace != "" {
			client.SetNamespace(cfg.Namespace)
		}

		d.Infra.SecretStorageClient = client

		return nil
	}
}

func WithSecretStorageRepo() DependencyOption {
	return func(d *Dependencies) error {
		d.Repos.SecretStorageRepo = repos.NewVaultRepository(d.Infra.SecretStorageClient)

		return nil
	}
}

func WithConfigLoader(ctx context.Context) DependencyOption {
	return func(d *Dependencies) error {
		d.configLoader = config.NewLoader(d.cfg, d.Repos.SecretStorageRepo, d.secretVersion)

		if !d.cfg.SecretStorage.Enabled {
			d.logger.Info().Msg("secret storage is disabled, skipping vault configuration loading")

			return nil
		}

		version, err := d.configLoader.Load(ctx, d.Repos.SecretStorageRepo, d.cfg)
		if err != nil {
			return fmt.Errorf("unable to load service configuration: %w", err)
		}

		d.secretVersion = version
		d.Topology = workers.NewTopologyConfig(d.cfg.Queue)

		return nil
	}
}

func WithMetrics(ctx context.Context) DependencyOption {
	return func(d *Dependencies) error {
		metrics, err := infrastructure.NewMetrics(ctx, *d.cfg, d.logger)
		if err != nil {
			return fmt.Errorf("failed to initialize metrics: %w", err)
		}

		d.Infra.Metrics = metrics

		return nil
	}
}

func WithTracing(ctx context.Context) DependencyOption {
	return func(d *Dependencies) error {
		tracerShutdownFunc, err := infrastructure.InitGlobalTracer(ctx, *d.cfg, d.logger)
		if err != nil {
			d.logger.Error().Err(err).Msg("failed to initialize global tracer")

			return err
		}

		d.tracerShutdownFunc = tracerShutdownFunc

		return nil
	}
}

// WithCache connects to Redis when enabled and picks the job status notifier. A
// cache that cannot be reached is not fatal.
func WithCache(ctx context.Context) DependencyOption {
	return func(d *Dependencies) error {
		if !d.cfg.Cache.Enabled {
			d.Notifier = adapters.NewNopNotifier(d.logger)

			return nil
		}

		client, err := infrastructure.NewCacheClient(ctx, d.cfg.Cache)
		if err != nil {
			d.logger.Error().Err(err).Msg("failed to connect to cache, continuing without cache")
			d.Notifier = adapters.NewNopNotifier(d.logger)

			return nil
		}

		d.logger.Info().Str("addr", d.cfg.Cache.Addr).Msg("cache connection established")

		d.Infra.CacheClient = client
		d.Notifier = adapters.NewRedisNotifier(client, d.cfg.Cache, d.logger)

		return nil
	}
}

// WithRegistry builds the catalogue without processors; enough to publish and declare.
func WithRegistry() DependencyOption {
	return func(d *Dependencies) error {
		registry, err := workers.NewDefaultRegistry(d.cfg.Workers, workers.Processors{})
		if err != nil {
			return fmt.Errorf("failed to build worker registry: %w", err)
		}

		d.Registry = registry

		return nil
	}
}

func WithPublisher() DependencyOption {
	return func(d *Dependencies) error {
		if d.Registry == nil {
			if err := WithRegistry()(d); err != nil {
				return err
			}
		}

		d.Infra.Publisher = infrastructure.NewPublisher(*d.cfg, d.logger)

		retrier := backoff.NewRetrier(
			backoff.NewExponentialStrategy(d.cfg.Backoff),
			d.cfg.Publishing.MaxAttempts,
			backoff.WithRetryable(service.IsRetryablePublishError),
		)

		jobService := service.NewJobService(
			d.Registry,
			d.Topology,
			d.Infra.Publisher,
			d.cfg.Publishing.Source,
			retrier,
			d.logger,
			d.Infra.Metrics,
		)

		d.Apps.Publisher = usecases.NewPublisherApplication(
			jobService,
			d.logger,
			otel.GetTracerProvider(),
			d.Infra.Metrics,
		)

		return nil
	}
}

// WithWorker wires the consumer side of one named worker: processors, the
// decorated worker application, the supervisor and its health checker.
func WithWorker(ctx context.Context, name string) DependencyOption {
	return func(d *Dependencies) error {
		if d.Notifier == nil {
			if err := WithCache(ctx)(d); err != nil {
				return err
			}
		}

		registry, err := workers.NewDefaultRegistry(d.cfg.Workers, newProcessors(d))
		if err != nil {
			return fmt.Errorf("failed to build worker registry: %w", err)
		}

		d.Registry = registry

		def, err := registry.Lookup(name)
		if err != nil {
			return err
		}

		d.Apps.Worker = usecases.NewWorkerApplication(
			def.Name,
			def.Processor,
			d.logger,
			otel.GetTracerProvider(),
			d.Infra.Metrics,
		)

		def.Processor = d.Apps.Worker.Processor()

		queueLogger := d.logger.Component("queue").QueueLogger()

		factory, err := workers.NewConsumerFactory(
			def,
			d.Topology,
			infrastructure.NewQueueConfig(d.cfg.Queue),
			queue.WithConsumerLogger(queueLogger),
			queue.WithPrefetch(d.cfg.Queue.PrefetchCount),
			queue.WithDeliveryObserver(newDeliveryObserver(def.Name, d.Infra.Metrics)),
		)
		if err != nil {
			return fmt.Errorf("failed to build consumer factory: %w", err)
		}

		var health *adapters.HealthChecker

		d.Infra.Supervisor = queue.NewSupervisor(def.Name, factory,
			queue.WithSupervisorLogger(queueLogger),
			queue.WithReconnectBackoff(queue.NewReconnectBackoff(d.cfg.Queue.ReconnectInitialDelay)),
			queue.WithStateListener(func(state queue.State) {
				d.Infra.Metrics.RecordWorkerState(context.Background(), def.Name, state.String())
			}),
			queue.WithReconnectListener(func(delay time.Duration) {
				d.Infra.Metrics.RecordReconnect(context.Background(), def.Name, delay)
				health.ObserveReconnect(delay)
			}),
		)

		var cache adapters.CachePinger
		if d.Infra.CacheClient != nil {
			cache = d.Infra.CacheClient
		}

		health = adapters.NewHealthChecker(def.Name, d.Infra.Supervisor, cache)
		d.Health = health

		if d.cfg.HealthServer.Enabled {
			d.Infra.HealthServer = initHealthServer(d.cfg.HealthServer, d.logger, health, d.Infra.Metrics)
		}

		return nil
	}
}

func newProcessors(d *Dependencies) workers.Processors {
	return workers.Processors{
		Test: adapters.NewTestProcessor(d.cfg.Workers.TestCountdown, d.logger),
		Chat: adapters.NewForwardingProcessor(
			workers.ChatProcessor,
			adapters.NewHTTPForwarder(chatService, d.cfg.Downstream.Chat, d.logger, d.Infra.Metrics),
			d.Notifier,
			d.logger,
		),
		KnowledgeExtraction: adapters.NewForwardingProcessor(
			workers.KnowledgeExtractionProcessor,
			adapters.NewHTTPForwarder(knowledgeService, d.cfg.Downstream.KnowledgeExtraction, d.logger, d.Infra.Metrics),
			d.Notifier,
			d.logger,
		),
	}
}
