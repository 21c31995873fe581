package adapters

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/architeacher/svc-job-worker/internal/config"
	"github.com/architeacher/svc-job-worker/internal/domain"
	"github.com/architeacher/svc-job-worker/internal/infrastructure"
)

type (
	redisCommander interface {
		Publish(ctx context.Context, channel string, message any) *redis.IntCmd
		Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	}

	// RedisNotifier publishes job events on a per worker channel and keeps
	// the latest status of every job under an expiring key.
	RedisNotifier struct {
		client       redisCommander
		prefix       string
		statusExpiry time.Duration
		logger       *infrastructure.Logger
	}

	// NopNotifier drops events; used when Redis is disabled.
	NopNotifier struct {
		logger *infrastructure.Logger
	}
)

func NewRedisNotifier(client redisCommander, cfg config.CacheConfig, logger *infrastructure.Logger) *RedisNotifier {
	return &RedisNotifier{
		client:       client,
		prefix:       cfg.ChannelPrefix,
		statusExpiry: cfg.StatusExpiry,
		logger:       logger.Component("notifier"),
	}
}

func (n *RedisNotifier) Notify(ctx context.Context, event domain.JobEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal job event: %w", err)
	}

	channel := n.ChannelName(event.Worker)

	if err := n.client.Publish(ctx, channel, body).Err(); err != nil {
		return errors.Join(domain.ErrNotifierUnavailable,
			fmt.Errorf("failed to publish job event to %s: %w", channel, err))
	}

	if err := n.client.Set(ctx, n.StatusKey(event.JobID), string(event.Status), n.statusExpiry).Err(); err != nil {
		return errors.Join(domain.ErrNotifierUnavailable,
			fmt.Errorf("failed to store status of job %s: %w", event.JobID, err))
	}

	n.logger.Debug().
		Str("channel", channel).
		Str("job_id", event.JobID).
		Str("status", string(event.Status)).
		Msg("job event published")

	return nil
}

func (n *RedisNotifier) ChannelName(worker string) string {
	return fmt.Sprintf("%s:events:%s", n.prefix, worker)
}

func (n *RedisNotifier) StatusKey(jobID string) string {
	return fmt.Sprintf("%s:status:%s", n.prefix, jobID)
}

func NewNopNotifier(logger *infrastructure.Logger) *NopNotifier {
	return &NopNotifier{logger: logger.Component("notifier")}
}

func (n *NopNotifier) Notify(_ context.Context, event domain.JobEvent) error {
	n.logger.Debug().
		Str("job_id", event.JobID).
		Str("status", string(event.Status)).
		Msg("job event dropped, notifier disabled")

	return nil
}
