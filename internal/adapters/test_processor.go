package adapters

import (
	"context"
	"time"

	"github.com/architeacher/svc-job-worker/internal/infrastructure"
	"github.com/architeacher/svc-job-worker/internal/shared/sanitize"
	"github.com/architeacher/svc-job-worker/pkg/queue"
)

// TestProcessor logs the received payload and counts down before completing.
// It backs the smoke test worker bound to the delay exchange.
type TestProcessor struct {
	countdown time.Duration
	tick      time.Duration
	logger    *infrastructure.Logger
}

func NewTestProcessor(countdown time.Duration, logger *infrastructure.Logger) *TestProcessor {
	return &TestProcessor{
		countdown: countdown,
		tick:      time.Second,
		logger:    logger.Component("test_processor"),
	}
}

func (p *TestProcessor) Process(ctx context.Context, payload queue.Payload) error {
	p.logger.Info().
		Interface("params", sanitize.Params(payload)).
		Dur("countdown", p.countdown).
		Msg("test processor received payload")

	ticker := time.NewTicker(p.tick)
	defer ticker.Stop()

	for remaining := p.countdown; remaining > 0; remaining -= p.tick {
		p.logger.Info().Dur("remaining", remaining).Msg("counting down")

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}

	p.logger.Info().Msg("test processor completed")

	return nil
}
