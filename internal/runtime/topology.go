package runtime

import (
	"context"
	"fmt"

	"github.com/architeacher/svc-job-worker/internal/infrastructure"
	"github.com/architeacher/svc-job-worker/pkg/queue"
)

// DeclareTopology declares the exchanges, queues and bindings of the named workers,
// or of every catalogue worker when no name is given, without consuming.
func DeclareTopology(ctx context.Context, names ...string) ([]queue.Topology, error) {
	deps, err := initializeDependencies(ctx, WithRegistry())
	if err != nil {
		return nil, fmt.Errorf("failed to initialize dependencies: %w", err)
	}

	defer deps.release(context.WithoutCancel(ctx))

	topologies, err := deps.Registry.Topologies(deps.Topology, names...)
	if err != nil {
		return nil, err
	}

	if err := queue.DeclareAll(ctx, infrastructure.NewQueueConfig(deps.cfg.Queue), topologies...); err != nil {
		return nil, fmt.Errorf("failed to declare topology: %w", err)
	}

	for _, t := range topologies {
		deps.logger.Info().
			Str("exchange", t.Exchange).
			Str("queue", t.Queue).
			Str("routing_key", t.RoutingKey).
			Msg("topology declared")
	}

	return topologies, nil
}

// WorkerNames lists the catalogue workers as the registry sees them.
func WorkerNames() ([]string, error) {
	deps, err := initializeDependencies(context.Background(), WithRegistry())
	if err != nil {
		return nil, fmt.Errorf("failed to initialize dependencies: %w", err)
	}

	defer deps.release(context.Background())

	return deps.Registry.Names(), nil
}
