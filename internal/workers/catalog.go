package workers

import (
	"slices"

	"github.com/architeacher/svc-job-worker/internal/config"
	"github.com/architeacher/svc-job-worker/pkg/queue"
)

const (
	TestProcessor                = "TEST_PROCESSOR"
	ChatProcessor                = "CHAT_PROCESSOR"
	KnowledgeExtractionProcessor = "KNOWLEDGE_EXTRACTION_PROCESSOR"
)

// Processors supplies the business logic of the catalogue workers. Publishing
// only needs the topology, so the processors may be left nil there.
type Processors struct {
	Test                queue.Processor
	Chat                queue.Processor
	KnowledgeExtraction queue.Processor
}

// CatalogNames lists the workers of DefaultDefinitions, sorted. Names do not
// depend on configuration, so they are known before any is loaded.
func CatalogNames() []string {
	defs := DefaultDefinitions(config.WorkersConfig{}, Processors{})

	names := make([]string, 0, len(defs))
	for _, def := range defs {
		names = append(names, def.Name)
	}

	slices.Sort(names)

	return names
}

func DefaultDefinitions(cfg config.WorkersConfig, processors Processors) []Definition {
	return []Definition{
		{
			Name:                TestProcessor,
			Processor:           processors.Test,
			Queue:               cfg.TestQueue,
			RoutingKey:          cfg.TestRoutingKey,
			Priority:            cfg.TestPriority,
			BindToDelayExchange: true,
		},
		{
			Name:       ChatProcessor,
			Processor:  processors.Chat,
			Queue:      cfg.ChatQueue,
			RoutingKey: cfg.ChatRoutingKey,
			Priority:   cfg.ChatPriority,
		},
		{
			Name:       KnowledgeExtractionProcessor,
			Processor:  processors.KnowledgeExtraction,
			Queue:      cfg.KnowledgeQueue,
			RoutingKey: cfg.KnowledgeRouting,
			Priority:   cfg.KnowledgePriority,
		},
	}
}

// NewDefaultRegistry builds the registry of the catalogue workers.
func NewDefaultRegistry(cfg config.WorkersConfig, processors Processors) (*Registry, error) {
	return NewRegistry(DefaultDefinitions(cfg, processors)...)
}
