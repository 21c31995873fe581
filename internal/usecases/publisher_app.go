package usecases

import (
	otelTrace "go.opentelemetry.io/otel/trace"

	"github.com/architeacher/svc-job-worker/internal/infrastructure"
	"github.com/architeacher/svc-job-worker/internal/service"
	"github.com/architeacher/svc-job-worker/internal/shared/decorator"
	"github.com/architeacher/svc-job-worker/internal/usecases/commands"
)

type (
	PublisherApplication struct {
		Commands PublisherCommands
	}

	PublisherCommands struct {
		EnqueueJobHandler commands.EnqueueJobHandler
	}
)

func NewPublisherApplication(
	jobService service.JobService,
	logger *infrastructure.Logger,
	tracerProvider otelTrace.TracerProvider,
	metricsClient decorator.MetricsClient,
) *PublisherApplication {
	return &PublisherApplication{
		Commands: PublisherCommands{
			EnqueueJobHandler: commands.NewEnqueueJobHandler(
				jobService,
				logger,
				tracerProvider,
				metricsClient,
			),
		},
	}
}
