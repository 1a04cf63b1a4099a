// Package natsbus — транспорт orders поверх NATS core.
//
// Subject order'а: "testgen.orders.<key>.<order>". Бот подписывается на
// "testgen.orders.<key>.>" для каждого своего ключа. Конверт тот же, что
// у RabbitMQ транспорта (bus.Message).
package natsbus

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/shaiso/testgen/internal/bus"
)

// SubjectPrefix — общий префикс subject'ов orders.
const SubjectPrefix = "testgen.orders"

// flushTimeout ограничивает flush, если у ctx нет дедлайна.
const flushTimeout = nats.DefaultTimeout

// Subject возвращает subject order'а, адресованного key.
func Subject(key, order string) string {
	return SubjectPrefix + "." + key + "." + order
}

// KeySubject возвращает wildcard subject всех orders для key.
func KeySubject(key string) string {
	return SubjectPrefix + "." + key + ".>"
}

// Connect подключается к NATS с бесконечным reconnect.
func Connect(url, name string, logger *slog.Logger) (*nats.Conn, error) {
	nc, err := nats.Connect(url,
		nats.Name(name),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("nats disconnected", "error", err)
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			logger.Info("reconnected to NATS", "url", c.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}

	logger.Info("connected to NATS", "url", nc.ConnectedUrl())
	return nc, nil
}

// Publisher публикует orders в NATS.
type Publisher struct {
	nc     *nats.Conn
	logger *slog.Logger
}

// NewPublisher создаёт новый Publisher.
func NewPublisher(nc *nats.Conn, logger *slog.Logger) *Publisher {
	return &Publisher{nc: nc, logger: logger}
}

// PublishOrder публикует order и ждёт подтверждения сервера (flush).
func (p *Publisher) PublishOrder(ctx context.Context, key, order string, payload any) error {
	msg, err := bus.NewMessage(order, payload)
	if err != nil {
		return err
	}

	body, err := msg.Encode()
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	subject := Subject(key, order)
	if err := p.nc.Publish(subject, body); err != nil {
		return fmt.Errorf("publish to %s: %w", subject, err)
	}
	if err := flush(ctx, p.nc); err != nil {
		return fmt.Errorf("flush %s: %w", subject, err)
	}

	p.logger.Debug("published message",
		"subject", subject,
		"message_id", msg.ID,
		"type", msg.Type,
	)
	return nil
}

// Subscriber доставляет orders для ключей бота в handler.
//
// Сообщения обрабатываются последовательно в горутине Start.
type Subscriber struct {
	nc      *nats.Conn
	logger  *slog.Logger
	keys    []string
	handler bus.Handler
	buffer  int
}

// SubscriberConfig — конфигурация Subscriber.
type SubscriberConfig struct {
	Keys    []string
	Handler bus.Handler

	// Buffer — размер буфера входящих сообщений (default: 64).
	Buffer int
}

// NewSubscriber создаёт Subscriber.
func NewSubscriber(nc *nats.Conn, logger *slog.Logger, cfg SubscriberConfig) *Subscriber {
	buffer := cfg.Buffer
	if buffer <= 0 {
		buffer = 64
	}

	return &Subscriber{
		nc:      nc,
		logger:  logger,
		keys:    cfg.Keys,
		handler: cfg.Handler,
		buffer:  buffer,
	}
}

// Start подписывается и обрабатывает сообщения до отмены ctx. Блокирует.
func (s *Subscriber) Start(ctx context.Context) error {
	msgs := make(chan *nats.Msg, s.buffer)

	var subs []*nats.Subscription
	defer func() {
		for _, sub := range subs {
			_ = sub.Unsubscribe()
		}
	}()

	seen := make(map[string]bool, len(s.keys))
	for _, key := range s.keys {
		key = strings.TrimSpace(key)
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true

		sub, err := s.nc.ChanSubscribe(KeySubject(key), msgs)
		if err != nil {
			return fmt.Errorf("subscribe %s: %w", KeySubject(key), err)
		}
		subs = append(subs, sub)
	}

	if err := flush(ctx, s.nc); err != nil {
		return fmt.Errorf("flush subscriptions: %w", err)
	}

	s.logger.Info("subscriber started", "keys", s.keys)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case m := <-msgs:
			s.handle(ctx, m)
		}
	}
}

func (s *Subscriber) handle(ctx context.Context, m *nats.Msg) {
	msg, err := bus.Decode(m.Data)
	if err != nil {
		s.logger.Error("failed to decode message",
			"subject", m.Subject,
			"error", err,
			"body", string(m.Data),
		)
		return
	}

	if err := s.handler(ctx, msg); err != nil {
		s.logger.Error("handler failed",
			"subject", m.Subject,
			"message_id", msg.ID,
			"type", msg.Type,
			"error", err,
		)
	}
}

// flush ждёт подтверждения сервера. FlushWithContext требует дедлайн,
// а тики и слушатель работают на контекстах без него.
func flush(ctx context.Context, nc *nats.Conn) error {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, flushTimeout)
		defer cancel()
	}
	return nc.FlushWithContext(ctx)
}
