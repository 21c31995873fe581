package service

import (
	"context"
	"fmt"
	"time"

	"github.com/architeacher/svc-job-worker/internal/domain"
	"github.com/architeacher/svc-job-worker/internal/infrastructure"
	"github.com/architeacher/svc-job-worker/internal/ports"
	"github.com/architeacher/svc-job-worker/internal/shared/backoff"
	"github.com/architeacher/svc-job-worker/internal/workers"
	"github.com/architeacher/svc-job-worker/pkg/queue"
)

type (
	EnqueueRequest struct {
		Worker  string
		Payload map[string]any
		// Priority overrides the default priority of the worker.
		Priority *uint8
		// Delay defers routing of the job; only delay bound workers accept it.
		Delay *time.Duration
	}

	JobService interface {
		Enqueue(ctx context.Context, req EnqueueRequest) (*domain.EnqueueResult, error)
	}

	jobService struct {
		registry  *workers.Registry
		topology  workers.TopologyConfig
		publisher ports.JobPublisher
		source    string
		retrier   *backoff.Retrier
		logger    *infrastructure.Logger
		metrics   infrastructure.Metrics
	}
)

func NewJobService(
	registry *workers.Registry,
	topology workers.TopologyConfig,
	publisher ports.JobPublisher,
	source string,
	retrier *backoff.Retrier,
	logger *infrastructure.Logger,
	metrics infrastructure.Metrics,
) JobService {
	return jobService{
		registry:  registry,
		topology:  topology,
		publisher: publisher,
		source:    source,
		retrier:   retrier,
		logger:    logger.Component("job_service"),
		metrics:   metrics,
	}
}

func (s jobService) Enqueue(ctx context.Context, req EnqueueRequest) (*domain.EnqueueResult, error) {
	def, err := s.registry.Lookup(req.Worker)
	if err != nil {
		return nil, err
	}

	if req.Delay != nil && !def.BindToDelayExchange {
		return nil, domain.NewDelayNotSupportedError(def.Name)
	}

	payload := req.Payload
	if payload == nil {
		payload = map[string]any{}
	}

	exchange, _ := def.Exchange(s.topology)

	result := &domain.EnqueueResult{
		Worker:     def.Name,
		Exchange:   exchange,
		RoutingKey: def.PublishRoutingKey(s.source),
		Priority:   def.Priority,
	}

	if req.Priority != nil {
		result.Priority = *req.Priority
	}

	opts := []queue.PublishOption{queue.WithPriority(result.Priority)}
	if req.Delay != nil {
		result.Delay = *req.Delay
		opts = append(opts, queue.WithDelay(*req.Delay))
	}

	attempts, err := s.retrier.Do(ctx, func(ctx context.Context) error {
		return s.publisher.Publish(ctx, result.Exchange, result.RoutingKey, payload, opts...)
	})
	result.Attempts = attempts

	s.metrics.RecordPublish(ctx, result.Exchange, req.Delay != nil, err == nil)

	if err != nil {
		s.logger.Error().
			Err(err).
			Str("worker", def.Name).
			Str("exchange", result.Exchange).
			Str("routing_key", result.RoutingKey).
			Int("attempts", attempts).
			Msg("failed to enqueue job")

		if maxAttempts := s.retrier.MaxAttempts(); maxAttempts > 1 && attempts >= maxAttempts {
			return nil, &domain.MaxRetriesExceededError{
				Operation:  fmt.Sprintf("enqueue %s", def.Name),
				RetryCount: attempts,
				MaxRetries: maxAttempts,
				Cause:      err,
			}
		}

		return nil, fmt.Errorf("failed to enqueue job for worker %s: %w", def.Name, err)
	}

	s.logger.Info().
		Str("worker", def.Name).
		Str("exchange", result.Exchange).
		Str("routing_key", result.RoutingKey).
		Uint8("priority", result.Priority).
		Dur("delay", result.Delay).
		Int("attempts", attempts).
		Msg("job enqueued")

	return result, nil
}

// IsRetryablePublishError rejects broker errors that no retry can fix.
func IsRetryablePublishError(err error) bool {
	return !queue.IsFatal(err)
}
