package adapters

import (
	"context"

	"github.com/architeacher/svc-job-worker/internal/domain"
	"github.com/architeacher/svc-job-worker/internal/infrastructure"
	"github.com/architeacher/svc-job-worker/internal/ports"
	"github.com/architeacher/svc-job-worker/internal/shared/sanitize"
	"github.com/architeacher/svc-job-worker/pkg/queue"
)

// ForwardingProcessor hands each job to a downstream service and reports
// its lifecycle through the notifier.
type ForwardingProcessor struct {
	worker    string
	forwarder ports.JobForwarder
	notifier  ports.Notifier
	logger    *infrastructure.Logger
}

func NewForwardingProcessor(
	worker string,
	forwarder ports.JobForwarder,
	notifier ports.Notifier,
	logger *infrastructure.Logger,
) *ForwardingProcessor {
	return &ForwardingProcessor{
		worker:    worker,
		forwarder: forwarder,
		notifier:  notifier,
		logger:    logger.Component("processor"),
	}
}

func (p *ForwardingProcessor) Process(ctx context.Context, payload queue.Payload) error {
	job := domain.NewJob(p.worker, payload)

	p.logger.Info().
		Str("worker", p.worker).
		Str("job_id", job.ID).
		Interface("params", sanitize.Params(payload, sanitize.WithListSummary())).
		Msg("processing job")

	p.notify(ctx, job.Event(domain.JobStatusStarted, nil))

	if err := p.forwarder.Forward(ctx, job); err != nil {
		p.notify(ctx, job.Event(domain.JobStatusFailed, err))

		return err
	}

	p.notify(ctx, job.Event(domain.JobStatusCompleted, nil))

	return nil
}

// notify never fails the job; a lost status event is only logged.
func (p *ForwardingProcessor) notify(ctx context.Context, event domain.JobEvent) {
	if err := p.notifier.Notify(ctx, event); err != nil {
		p.logger.Warn().
			Err(err).
			Str("worker", p.worker).
			Str("job_id", event.JobID).
			Str("status", string(event.Status)).
			Msg("failed to notify job status")
	}
}
