package mq

import (
	"context"
	"fmt"
	"strings"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Exchange — имя обменника.
type Exchange string

// Queue — имя очереди.
type Queue string

// RoutingKey — ключ маршрутизации.
type RoutingKey string

// Exchanges.
const (
	ExchangeOrders Exchange = "testgen.orders"
	ExchangeDLQ    Exchange = "testgen.dlq"
)

// QueueDLQ — очередь отклонённых orders.
const QueueDLQ Queue = "testgen.dlq.orders"

// RoutingKeyDLQ — ключ, с которым сообщения попадают в DLQ.
const RoutingKeyDLQ RoutingKey = "orders"

// Topology — описание очереди одного бота.
type Topology struct {
	// BotID — идентификатор экземпляра бота.
	BotID string

	// Keys — ключи, адресованные этому боту (тип бота, BotID и т.п.).
	Keys []string
}

// Queue возвращает имя очереди бота.
func (t Topology) Queue() Queue {
	return Queue("testgen." + t.BotID + ".orders")
}

// Bindings возвращает шаблоны routing key для очереди бота.
// Дубликаты и пустые ключи пропускаются.
func (t Topology) Bindings() []RoutingKey {
	seen := make(map[string]bool, len(t.Keys))
	bindings := make([]RoutingKey, 0, len(t.Keys))

	for _, key := range t.Keys {
		key = strings.TrimSpace(key)
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		bindings = append(bindings, RoutingKey(key+".#"))
	}

	return bindings
}

// OrderRoutingKey возвращает routing key для order, адресованного key.
func OrderRoutingKey(key, order string) RoutingKey {
	return RoutingKey(key + "." + order)
}

// SetupTopology объявляет exchanges, очередь бота и DLQ.
func SetupTopology(ctx context.Context, conn *Connection, topo Topology) error {
	return conn.WithChannel(ctx, func(ch *amqp.Channel) error {
		if err := declareExchanges(ch); err != nil {
			return err
		}

		if err := declareQueues(ch, topo); err != nil {
			return err
		}

		return bindQueues(ch, topo)
	})
}

func declareExchanges(ch *amqp.Channel) error {
	exchanges := []struct {
		name Exchange
		kind string
	}{
		{ExchangeOrders, amqp.ExchangeTopic},
		{ExchangeDLQ, amqp.ExchangeDirect},
	}

	for _, ex := range exchanges {
		err := ch.ExchangeDeclare(
			string(ex.name), // name
			ex.kind,         // type
			true,            // durable
			false,           // auto-deleted
			false,           // internal
			false,           // no-wait
			nil,             // arguments
		)
		if err != nil {
			return fmt.Errorf("declare exchange %s: %w", ex.name, err)
		}
	}

	return nil
}

func declareQueues(ch *amqp.Channel, topo Topology) error {
	dlqArgs := amqp.Table{
		"x-dead-letter-exchange":    string(ExchangeDLQ),
		"x-dead-letter-routing-key": string(RoutingKeyDLQ),
	}

	queues := []struct {
		name Queue
		args amqp.Table
	}{
		{topo.Queue(), dlqArgs},
		{QueueDLQ, nil},
	}

	for _, q := range queues {
		_, err := ch.QueueDeclare(
			string(q.name), // name
			true,           // durable
			false,          // delete when unused
			false,          // exclusive
			false,          // no-wait
			q.args,         // arguments
		)
		if err != nil {
			return fmt.Errorf("declare queue %s: %w", q.name, err)
		}
	}

	return nil
}

func bindQueues(ch *amqp.Channel, topo Topology) error {
	type binding struct {
		queue      Queue
		routingKey RoutingKey
		exchange   Exchange
	}

	bindings := []binding{{QueueDLQ, RoutingKeyDLQ, ExchangeDLQ}}
	for _, rk := range topo.Bindings() {
		bindings = append(bindings, binding{topo.Queue(), rk, ExchangeOrders})
	}

	for _, b := range bindings {
		err := ch.QueueBind(
			string(b.queue),      // queue name
			string(b.routingKey), // routing key
			string(b.exchange),   // exchange
			false,                // no-wait
			nil,                  // arguments
		)
		if err != nil {
			return fmt.Errorf("bind queue %s to %s: %w", b.queue, b.exchange, err)
		}
	}

	return nil
}

// TopologyInfo возвращает описание топологии для логирования и CLI.
func TopologyInfo(topo Topology) string {
	var b strings.Builder

	fmt.Fprintf(&b, "%s (topic)\n", ExchangeOrders)
	bindings := topo.Bindings()
	for i, rk := range bindings {
		branch := "├──"
		if i == len(bindings)-1 {
			branch = "└──"
		}
		fmt.Fprintf(&b, "%s %s [routing: %s]\n", branch, topo.Queue(), rk)
	}
	fmt.Fprintf(&b, "        DLQ: %s\n", QueueDLQ)
	fmt.Fprintf(&b, "%s (direct)\n", ExchangeDLQ)
	fmt.Fprintf(&b, "└── %s [routing: %s]\n", QueueDLQ, RoutingKeyDLQ)

	return b.String()
}
