package bot

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shaiso/testgen/internal/bus"
	"github.com/shaiso/testgen/internal/domain"
	"github.com/shaiso/testgen/internal/natsbus"
	"github.com/shaiso/testgen/internal/telemetry"
)

func startNATS(t *testing.T) *nats.Conn {
	t.Helper()

	ns, err := server.NewServer(&server.Options{Port: -1})
	require.NoError(t, err)

	go ns.Start()
	if !ns.ReadyForConnections(10 * time.Second) {
		t.Fatal("NATS server not ready")
	}
	t.Cleanup(func() {
		ns.Shutdown()
		ns.WaitForShutdown()
	})

	nc, err := natsbus.Connect(ns.ClientURL(), "bot-test", telemetry.Discard())
	require.NoError(t, err)
	t.Cleanup(nc.Close)

	return nc
}

func TestBot_OverNATS(t *testing.T) {
	nc := startNATS(t)
	pub := natsbus.NewPublisher(nc, telemetry.Discard())

	h := newHarness(t, func(c *Config) { c.Publisher = pub })

	// исполнитель: синхронная подписка готова до первого тика
	executor, err := nc.SubscribeSync(natsbus.KeySubject("test-executor"))
	require.NoError(t, err)
	require.NoError(t, nc.Flush())

	listenCtx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	sub := natsbus.NewSubscriber(nc, telemetry.Discard(), natsbus.SubscriberConfig{
		Keys:    []string{"test-generator", "gen-1"},
		Handler: h.bot.HandleMessage,
	})
	go func() { done <- sub.Start(listenCtx) }()
	t.Cleanup(func() {
		cancel()
		assert.ErrorIs(t, <-done, context.Canceled)
	})

	// тик планировщика: контекст без дедлайна и отмены
	tickCtx := context.WithoutCancel(context.Background())
	h.bot.Tick(tickCtx)

	m, err := executor.NextMsg(5 * time.Second)
	require.NoError(t, err)
	msg, err := bus.Decode(m.Data)
	require.NoError(t, err)
	assert.Equal(t, bus.OrderExecuteTestCases, msg.Type)

	var event domain.BatchReadyEvent
	require.NoError(t, json.Unmarshal(msg.Payload, &event))
	assert.NotEmpty(t, event.BatchID)
	assert.Equal(t, h.bot.Status().LastBatch.TestClassName, event.TestClassName)

	// пауза приходит по шине; подписка бота устанавливается асинхронно
	pauseReq := map[string]any{"service": service, "until": h.clock.Now().UnixMilli() + 60_000}
	require.Eventually(t, func() bool {
		if err := pub.PublishOrder(tickCtx, "gen-1", bus.OrderPauseGeneration, pauseReq); err != nil {
			t.Errorf("publish pause: %v", err)
			return true
		}
		return h.bot.Status().Paused
	}, 5*time.Second, 20*time.Millisecond)

	h.bot.Tick(tickCtx)
	_, err = executor.NextMsg(200 * time.Millisecond)
	assert.True(t, errors.Is(err, nats.ErrTimeout), "paused tick must not publish, got %v", err)

	h.clock.Advance(61 * time.Second)
	h.bot.Tick(tickCtx)
	_, err = executor.NextMsg(5 * time.Second)
	require.NoError(t, err)
}
