package mq

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTopology_QueueAndBindings(t *testing.T) {
	topo := Topology{
		BotID: "generator-1",
		Keys:  []string{"test-generator", "generator-1", "", "test-generator"},
	}

	assert.Equal(t, Queue("testgen.generator-1.orders"), topo.Queue())
	assert.Equal(t, []RoutingKey{"test-generator.#", "generator-1.#"}, topo.Bindings())
}

func TestOrderRoutingKey(t *testing.T) {
	assert.Equal(t, RoutingKey("test-executor.execute_test_cases"), OrderRoutingKey("test-executor", "execute_test_cases"))
}

func TestTopologyInfo(t *testing.T) {
	info := TopologyInfo(Topology{BotID: "g1", Keys: []string{"test-generator", "g1"}})

	assert.True(t, strings.HasPrefix(info, "testgen.orders (topic)\n"))
	assert.Contains(t, info, "├── testgen.g1.orders [routing: test-generator.#]")
	assert.Contains(t, info, "└── testgen.g1.orders [routing: g1.#]")
	assert.Contains(t, info, "└── testgen.dlq.orders [routing: orders]")
}
