package commands

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/architeacher/svc-job-worker/internal/domain"
	"github.com/architeacher/svc-job-worker/internal/infrastructure"
	"github.com/architeacher/svc-job-worker/internal/service"
	"github.com/architeacher/svc-job-worker/internal/shared/decorator"
)

type (
	EnqueueJobCommand struct {
		Worker   string
		Payload  map[string]any
		Priority *uint8
		Delay    *time.Duration
	}

	EnqueueJobHandler decorator.CommandHandler[EnqueueJobCommand, *domain.EnqueueResult]

	enqueueJobHandler struct {
		jobService service.JobService
	}
)

func NewEnqueueJobHandler(
	jobService service.JobService,
	logger *infrastructure.Logger,
	tracerProvider trace.TracerProvider,
	metricsClient decorator.MetricsClient,
) EnqueueJobHandler {
	return decorator.ApplyCommandDecorators[EnqueueJobCommand, *domain.EnqueueResult](
		enqueueJobHandler{
			jobService: jobService,
		},
		logger,
		tracerProvider,
		metricsClient,
	)
}

func (h enqueueJobHandler) Handle(ctx context.Context, cmd EnqueueJobCommand) (*domain.EnqueueResult, error) {
	return h.jobService.Enqueue(ctx, service.EnqueueRequest{
		Worker:   cmd.Worker,
		Payload:  cmd.Payload,
		Priority: cmd.Priority,
		Delay:    cmd.Delay,
	})
}
