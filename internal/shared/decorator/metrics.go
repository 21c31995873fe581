package decorator

import (
	"context"
	"time"
)

// MetricsClient records the outcome of every handled command.
type MetricsClient interface {
	RecordAction(ctx context.Context, action string, duration time.Duration, success bool)
}

type commandMetricsDecorator[C any, R any] struct {
	base   CommandHandler[C, R]
	client MetricsClient
}

func (d commandMetricsDecorator[C, R]) Handle(ctx context.Context, cmd C) (result R, err error) {
	start := time.Now()

	defer func() {
		d.client.RecordAction(ctx, "commands."+generateActionName(cmd), time.Since(start), err == nil)
	}()

	return d.base.Handle(ctx, cmd)
}
