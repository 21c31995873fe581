package commands

import (
	"context"

	"go.opentelemetry.io/otel/trace"

	"github.com/architeacher/svc-job-worker/internal/infrastructure"
	"github.com/architeacher/svc-job-worker/internal/shared/decorator"
	"github.com/architeacher/svc-job-worker/pkg/queue"
)

type (
	ProcessJobCommand struct {
		Worker  string
		Payload queue.Payload
	}

	ProcessJobHandler decorator.CommandHandler[ProcessJobCommand, struct{}]

	processJobHandler struct {
		processor queue.Processor
	}
)

func NewProcessJobHandler(
	processor queue.Processor,
	logger *infrastructure.Logger,
	tracerProvider trace.TracerProvider,
	metricsClient decorator.MetricsClient,
) ProcessJobHandler {
	return decorator.ApplyCommandDecorators[ProcessJobCommand, struct{}](
		processJobHandler{
			processor: processor,
		},
		logger,
		tracerProvider,
		metricsClient,
	)
}

func (h processJobHandler) Handle(ctx context.Context, cmd ProcessJobCommand) (struct{}, error) {
	return struct{}{}, h.processor.Process(ctx, cmd.Payload)
}
