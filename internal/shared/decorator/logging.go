package decorator

import (
	"context"

	"github.com/architeacher/svc-job-worker/internal/infrastructure"
)

type commandLoggingDecorator[C any, R any] struct {
	base   CommandHandler[C, R]
	logger *infrastructure.Logger
}

func (d commandLoggingDecorator[C, R]) Handle(ctx context.Context, cmd C) (result R, err error) {
	actionName := generateActionName(cmd)

	logger := d.logger.With().Str("command", actionName).Logger()

	logger.Debug().Msg("executing command")

	defer func() {
		if err == nil {
			logger.Info().Msg("command executed successfully")
		} else {
			logger.Error().Err(err).Msg("failed to execute command")
		}
	}()

	return d.base.Handle(ctx, cmd)
}
