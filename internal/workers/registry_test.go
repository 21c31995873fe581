package workers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/architeacher/svc-job-worker/internal/config"
	"github.com/architeacher/svc-job-worker/internal/domain"
	"github.com/architeacher/svc-job-worker/pkg/queue"
)

var noop = queue.ProcessorFunc(func(context.Context, queue.Payload) error { return nil })

func workersConfig() config.WorkersConfig {
	return config.WorkersConfig{
		TestQueue:         "test_queue",
		TestRoutingKey:    "*.test.processor",
		TestPriority:      255,
		ChatQueue:         "chat_queue",
		ChatRoutingKey:    "*.chat_processor",
		ChatPriority:      100,
		KnowledgeQueue:    "knowledge_extraction_processor_queue",
		KnowledgeRouting:  "*.knowledge_extraction_processor",
		KnowledgePriority: 100,
	}
}

func topologyConfig() TopologyConfig {
	return TopologyConfig{Exchange: "pencil_exchange", DelayExchange: "pencil_delay_exchange", MaxPriority: 255}
}

func TestNewRegistry(t *testing.T) {
	t.Parallel()

	valid := Definition{Name: "A", Queue: "a", RoutingKey: "*.a"}

	tests := []struct {
		name        string
		definitions []Definition
		expectErr   bool
	}{
		{"single definition", []Definition{valid}, false},
		{"no definitions", nil, true},
		{"duplicate names", []Definition{valid, valid}, true},
		{"missing name", []Definition{{Queue: "a", RoutingKey: "a"}}, true},
		{"missing queue", []Definition{{Name: "A", RoutingKey: "a"}}, true},
		{"missing routing key", []Definition{{Name: "A", Queue: "a"}}, true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			registry, err := NewRegistry(tc.definitions...)
			if tc.expectErr {
				assert.ErrorIs(t, err, ErrInvalidDefinition)
				assert.Nil(t, registry)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, []string{"A"}, registry.Names())
		})
	}
}

func TestRegistry_Lookup(t *testing.T) {
	t.Parallel()

	registry, err := NewDefaultRegistry(workersConfig(), Processors{Test: noop, Chat: noop, KnowledgeExtraction: noop})
	require.NoError(t, err)

	def, err := registry.Lookup(ChatProcessor)
	require.NoError(t, err)
	assert.Equal(t, "chat_queue", def.Queue)
	assert.Equal(t, uint8(100), def.Priority)
	assert.False(t, def.BindToDelayExchange)

	_, err = registry.Lookup("UNKNOWN")
	assert.ErrorIs(t, err, domain.ErrUnknownWorker)
}

func TestRegistry_NamesMatchCatalog(t *testing.T) {
	t.Parallel()

	registry, err := NewDefaultRegistry(workersConfig(), Processors{})
	require.NoError(t, err)

	names := registry.Names()
	assert.Equal(t, CatalogNames(), names)

	names[0] = "MUTATED"
	assert.Equal(t, CatalogNames(), registry.Names())
}

func TestCatalogNames_FollowDefinitions(t *testing.T) {
	t.Parallel()

	defs := DefaultDefinitions(workersConfig(), Processors{})

	expected := make([]string, 0, len(defs))
	for _, def := range defs {
		expected = append(expected, def.Name)
	}

	assert.ElementsMatch(t, expected, CatalogNames())
	assert.IsIncreasing(t, CatalogNames())
	assert.Equal(t, []string{ChatProcessor, KnowledgeExtractionProcessor, TestProcessor}, CatalogNames())
}

func TestDefinition_Topology(t *testing.T) {
	t.Parallel()

	registry, err := NewDefaultRegistry(workersConfig(), Processors{})
	require.NoError(t, err)

	tests := []struct {
		worker           string
		expectedExchange string
		expectedKind     queue.ExchangeKind
		expectedQueue    string
	}{
		{TestProcessor, "pencil_delay_exchange", queue.ExchangeDelayedTopic, "test_queue"},
		{ChatProcessor, "pencil_exchange", queue.ExchangeTopic, "chat_queue"},
		{KnowledgeExtractionProcessor, "pencil_exchange", queue.ExchangeTopic, "knowledge_extraction_processor_queue"},
	}

	for _, tc := range tests {
		t.Run(tc.worker, func(t *testing.T) {
			t.Parallel()

			def, err := registry.Lookup(tc.worker)
			require.NoError(t, err)

			topology := def.Topology(topologyConfig())

			assert.Equal(t, tc.expectedExchange, topology.Exchange)
			assert.Equal(t, tc.expectedKind, topology.ExchangeKind)
			assert.Equal(t, tc.expectedQueue, topology.Queue)
			assert.Equal(t, def.RoutingKey, topology.RoutingKey)
			require.NotNil(t, topology.MaxPriority)
			assert.Equal(t, uint8(255), *topology.MaxPriority)
			assert.NoError(t, topology.Validate())
		})
	}
}

func TestDefinition_PublishRoutingKey(t *testing.T) {
	t.Parallel()

	tests := []struct {
		pattern  string
		source   string
		expected string
	}{
		{"*.test.processor", "api", "api.test.processor"},
		{"*.chat_processor", "chat", "chat.chat_processor"},
		{"jobs.#", "api", "jobs"},
		{"#", "api", "api"},
		{"exact.key", "api", "exact.key"},
	}

	for _, tc := range tests {
		t.Run(tc.pattern, func(t *testing.T) {
			t.Parallel()

			def := Definition{Name: "X", Queue: "x", RoutingKey: tc.pattern}

			key := def.PublishRoutingKey(tc.source)

			assert.Equal(t, tc.expected, key)
			assert.True(t, queue.MatchTopic(tc.pattern, key), "%s must match %s", key, tc.pattern)
		})
	}
}

func TestRegistry_Topologies(t *testing.T) {
	t.Parallel()

	registry, err := NewDefaultRegistry(workersConfig(), Processors{})
	require.NoError(t, err)

	all, err := registry.Topologies(topologyConfig())
	require.NoError(t, err)
	assert.Len(t, all, 3)

	some, err := registry.Topologies(topologyConfig(), TestProcessor)
	require.NoError(t, err)
	require.Len(t, some, 1)
	assert.True(t, some[0].Delayed())

	_, err = registry.Topologies(topologyConfig(), "NOPE")
	assert.ErrorIs(t, err, domain.ErrUnknownWorker)
}

func TestNewTopologyConfig(t *testing.T) {
	t.Parallel()

	tc := NewTopologyConfig(config.QueueConfig{ExchangeName: "ex", DelayExchangeName: "dex", MaxPriority: 10})

	assert.Equal(t, TopologyConfig{Exchange: "ex", DelayExchange: "dex", MaxPriority: 10}, tc)
}
