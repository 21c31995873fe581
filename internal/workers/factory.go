package workers

import (
	"fmt"

	"github.com/architeacher/svc-job-worker/pkg/queue"
)

// NewConsumerFactory returns a factory building a fresh consumer for def on every
// supervisor attempt.
func NewConsumerFactory(
	def Definition,
	tc TopologyConfig,
	cfg queue.Config,
	opts ...queue.ConsumerOption,
) (queue.ConsumerFactory, error) {
	if def.Processor == nil {
		return nil, fmt.Errorf("%w: worker %s has no processor", ErrInvalidDefinition, def.Name)
	}

	topology := def.Topology(tc)
	if err := topology.Validate(); err != nil {
		return nil, fmt.Errorf("worker %s: %w", def.Name, err)
	}

	spec := queue.ConsumerSpec{
		Name:      def.Name,
		Topology:  topology,
		Processor: def.Processor,
	}

	return func() queue.Session {
		return queue.NewConsumer(cfg, spec, opts...)
	}, nil
}
