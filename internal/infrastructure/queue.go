package infrastructure

import (
	"github.com/architeacher/svc-job-worker/internal/config"
	"github.com/architeacher/svc-job-worker/pkg/queue"
)

// NewQueueConfig maps the service configuration onto the queue connection settings.
func NewQueueConfig(cfg config.QueueConfig) queue.Config {
	return queue.Config{
		URL:            cfg.URL,
		Heartbeat:      cfg.Heartbeat,
		ConnectTimeout: cfg.ConnectTimeout,
	}
}

// NewPublisher builds the job publisher from the service configuration.
func NewPublisher(cfg config.ServiceConfig, logger *Logger) *queue.Publisher {
	return queue.NewPublisher(NewQueueConfig(cfg.Queue),
		queue.WithPublishingTimeout(cfg.Publishing.Timeout),
		queue.WithDryRun(cfg.Publishing.DryRun),
		queue.WithPublisherLogger(logger.Component("publisher").QueueLogger()),
	)
}
