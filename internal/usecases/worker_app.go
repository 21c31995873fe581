package usecases

import (
	"context"

	otelTrace "go.opentelemetry.io/otel/trace"

	"github.com/architeacher/svc-job-worker/internal/infrastructure"
	"github.com/architeacher/svc-job-worker/internal/shared/decorator"
	"github.com/architeacher/svc-job-worker/internal/usecases/commands"
	"github.com/architeacher/svc-job-worker/pkg/queue"
)

type (
	WorkerApplication struct {
		Worker   string
		Commands WorkerCommands
	}

	WorkerCommands struct {
		ProcessJobHandler commands.ProcessJobHandler
	}
)

func NewWorkerApplication(
	worker string,
	processor queue.Processor,
	logger *infrastructure.Logger,
	tracerProvider otelTrace.TracerProvider,
	metricsClient decorator.MetricsClient,
) *WorkerApplication {
	return &WorkerApplication{
		Worker: worker,
		Commands: WorkerCommands{
			ProcessJobHandler: commands.NewProcessJobHandler(
				processor,
				logger,
				tracerProvider,
				metricsClient,
			),
		},
	}
}

// Processor exposes the decorated job handler to the queue consumer.
func (a *WorkerApplication) Processor() queue.Processor {
	return queue.ProcessorFunc(func(ctx context.Context, payload queue.Payload) error {
		_, err := a.Commands.ProcessJobHandler.Handle(ctx, commands.ProcessJobCommand{
			Worker:  a.Worker,
			Payload: payload,
		})

		return err
	})
}
