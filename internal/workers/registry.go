// Package workers holds the catalogue of named workers and builds their consumers.
package workers

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/architeacher/svc-job-worker/internal/config"
	"github.com/architeacher/svc-job-worker/internal/domain"
	"github.com/architeacher/svc-job-worker/pkg/queue"
)

var ErrInvalidDefinition = errors.New("invalid worker definition")

type (
	// Definition is the immutable description of one worker.
	Definition struct {
		Name       string
		Processor  queue.Processor
		Queue      string
		RoutingKey string
		// Priority is the default priority of jobs published for this worker.
		Priority            uint8
		BindToDelayExchange bool
	}

	// TopologyConfig carries the broker wide settings every worker topology shares.
	TopologyConfig struct {
		Exchange      string
		DelayExchange string
		MaxPriority   uint8
	}

	// Registry is a read-only name to definition table.
	Registry struct {
		definitions map[string]Definition
		names       []string
	}
)

func NewTopologyConfig(cfg config.QueueConfig) TopologyConfig {
	return TopologyConfig{
		Exchange:      cfg.ExchangeName,
		DelayExchange: cfg.DelayExchangeName,
		MaxPriority:   cfg.MaxPriority,
	}
}

func (d Definition) Validate() error {
	switch {
	case d.Name == "":
		return fmt.Errorf("%w: name is required", ErrInvalidDefinition)
	case d.Queue == "":
		return fmt.Errorf("%w: queue is required for %s", ErrInvalidDefinition, d.Name)
	case d.RoutingKey == "":
		return fmt.Errorf("%w: routing key is required for %s", ErrInvalidDefinition, d.Name)
	}

	return nil
}

// Exchange returns the exchange the worker is bound to and its kind. Delay bound
// workers always use the delayed exchange, the others always the plain topic one.
func (d Definition) Exchange(tc TopologyConfig) (string, queue.ExchangeKind) {
	if d.BindToDelayExchange {
		return tc.DelayExchange, queue.ExchangeDelayedTopic
	}

	return tc.Exchange, queue.ExchangeTopic
}

func (d Definition) Topology(tc TopologyConfig) queue.Topology {
	exchange, kind := d.Exchange(tc)
	maxPriority := tc.MaxPriority

	return queue.Topology{
		Exchange:     exchange,
		ExchangeKind: kind,
		Queue:        d.Queue,
		RoutingKey:   d.RoutingKey,
		MaxPriority:  &maxPriority,
	}
}

// PublishRoutingKey turns the binding pattern into a concrete routing key:
// every "*" becomes source and "#" words are dropped.
func (d Definition) PublishRoutingKey(source string) string {
	words := strings.Split(d.RoutingKey, ".")
	key := make([]string, 0, len(words))

	for _, word := range words {
		switch word {
		case "#":
		case "*":
			key = append(key, source)
		default:
			key = append(key, word)
		}
	}

	if len(key) == 0 {
		return source
	}

	return strings.Join(key, ".")
}

// NewRegistry rejects invalid and duplicated definitions.
func NewRegistry(definitions ...Definition) (*Registry, error) {
	if len(definitions) == 0 {
		return nil, fmt.Errorf("%w: at least one worker is required", ErrInvalidDefinition)
	}

	r := &Registry{
		definitions: make(map[string]Definition, len(definitions)),
		names:       make([]string, 0, len(definitions)),
	}

	for _, def := range definitions {
		if err := def.Validate(); err != nil {
			return nil, err
		}

		if _, ok := r.definitions[def.Name]; ok {
			return nil, fmt.Errorf("%w: duplicate worker %s", ErrInvalidDefinition, def.Name)
		}

		r.definitions[def.Name] = def
		r.names = append(r.names, def.Name)
	}

	slices.Sort(r.names)

	return r, nil
}

func (r *Registry) Lookup(name string) (Definition, error) {
	def, ok := r.definitions[name]
	if !ok {
		return Definition{}, domain.NewUnknownWorkerError(name)
	}

	return def, nil
}

// Names returns the registered worker names, sorted.
func (r *Registry) Names() []string {
	return slices.Clone(r.names)
}

// Topologies returns the topology of the named workers, or of every worker when
// names is empty.
func (r *Registry) Topologies(tc TopologyConfig, names ...string) ([]queue.Topology, error) {
	if len(names) == 0 {
		names = r.names
	}

	topologies := make([]queue.Topology, 0, len(names))

	for _, name := range names {
		def, err := r.Lookup(name)
		if err != nil {
			return nil, err
		}

		topologies = append(topologies, def.Topology(tc))
	}

	return topologies, nil
}
