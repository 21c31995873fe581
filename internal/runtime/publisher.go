package runtime

import (
	"context"
	"fmt"
	"maps"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/architeacher/svc-job-worker/internal/domain"
	"github.com/architeacher/svc-job-worker/internal/usecases/commands"
)

const messageNumberKey = "message_number"

// PublishRequest describes one publish run of the CLI.
type PublishRequest struct {
	Worker   string
	Payload  map[string]any
	Priority *uint8
	Delay    *time.Duration
	// Count publishes that many copies, each numbered through message_number.
	Count int
}

type PublisherCtx struct {
	deps *Dependencies

	shutdownChannel chan os.Signal

	publisherCtx      context.Context
	publisherStopFunc context.CancelFunc
}

func NewPublisher(opt ...PublisherOption) *PublisherCtx {
	pCtx := &PublisherCtx{
		shutdownChannel: make(chan os.Signal, 1),
	}

	for i := range opt {
		opt[i](pCtx)
	}

	return pCtx
}

// Run publishes the requested jobs and returns once they are all routed or the first
// one failed. A signal aborts the remaining publishes.
func (c *PublisherCtx) Run(req PublishRequest) ([]*domain.EnqueueResult, error) {
	if err := c.build(); err != nil {
		return nil, err
	}

	c.shutdownHook()
	defer c.shutdown()

	go c.watchShutdown()

	return c.publish(req)
}

func (c *PublisherCtx) build() error {
	c.publisherCtx, c.publisherStopFunc = context.WithCancel(context.Background())

	deps, err := initializeDependencies(c.publisherCtx, WithPublisher())
	if err != nil {
		c.publisherStopFunc()

		return fmt.Errorf("failed to initialize dependencies: %w", err)
	}

	c.deps = deps

	return nil
}

func (c *PublisherCtx) shutdownHook() {
	signal.Notify(c.shutdownChannel, syscall.SIGINT, syscall.SIGTERM)
}

func (c *PublisherCtx) watchShutdown() {
	select {
	case <-c.publisherCtx.Done():
	case <-c.shutdownChannel:
		c.deps.logger.Info().Msg("received shutdown signal")
		c.publisherStopFunc()
	}
}

func (c *PublisherCtx) publish(req PublishRequest) ([]*domain.EnqueueResult, error) {
	count := max(req.Count, 1)
	results := make([]*domain.EnqueueResult, 0, count)

	for i := 1; i <= count; i++ {
		result, err := c.deps.Apps.Publisher.Commands.EnqueueJobHandler.Handle(c.publisherCtx, commands.EnqueueJobCommand{
			Worker:   req.Worker,
			Payload:  numberedPayload(req.Payload, i, count),
			Priority: req.Priority,
			Delay:    req.Delay,
		})
		if err != nil {
			return results, fmt.Errorf("failed to publish message %d/%d: %w", i, count, err)
		}

		results = append(results, result)
	}

	return results, nil
}

// numberedPayload copies payload and stamps it with its position when more than one
// message is published.
func numberedPayload(payload map[string]any, number, count int) map[string]any {
	if count <= 1 {
		return payload
	}

	numbered := maps.Clone(payload)
	if numbered == nil {
		numbered = make(map[string]any, 1)
	}

	numbered[messageNumberKey] = number

	return numbered
}

func (c *PublisherCtx) shutdown() {
	signal.Stop(c.shutdownChannel)
	c.publisherStopFunc()

	ctx, cancel := context.WithTimeout(context.Background(), c.deps.cfg.Publishing.Timeout)
	defer cancel()

	c.deps.release(ctx)
}
