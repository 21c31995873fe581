package decorator

import (
	"context"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel/trace"

	"github.com/architeacher/svc-job-worker/internal/infrastructure"
)

type CommandHandler[C any, R any] interface {
	Handle(ctx context.Context, cmd C) (R, error)
}

// ApplyCommandDecorators wraps handler with metrics, tracing and logging,
// logging being the outermost layer.
func ApplyCommandDecorators[C any, R any](
	handler CommandHandler[C, R],
	logger *infrastructure.Logger,
	tracerProvider trace.TracerProvider,
	metricsClient MetricsClient,
) CommandHandler[C, R] {
	return commandLoggingDecorator[C, R]{
		base: commandTracingDecorator[C, R]{
			base: commandMetricsDecorator[C, R]{
				base:   handler,
				client: metricsClient,
			},
			tracer: tracerProvider.Tracer(tracerName),
		},
		logger: logger,
	}
}

func generateActionName(handler any) string {
	name := fmt.Sprintf("%T", handler)

	return name[strings.LastIndex(name, ".")+1:]
}
