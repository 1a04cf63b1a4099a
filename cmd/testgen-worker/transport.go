package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/nats-io/nats.go"

	"github.com/shaiso/testgen/internal/bot"
	"github.com/shaiso/testgen/internal/bus"
	"github.com/shaiso/testgen/internal/config"
	"github.com/shaiso/testgen/internal/mq"
	"github.com/shaiso/testgen/internal/natsbus"
)

// transport — выбранная по BUS_URL шина.
type transport struct {
	publisher bot.Publisher
	listen    func(ctx context.Context, handler bus.Handler) error
	health    func() error
	close     func()
}

var errBusDisconnected = errors.New("bus disconnected")

func openTransport(ctx context.Context, cfg config.Config, logger *slog.Logger) (*transport, error) {
	kind, err := cfg.Transport()
	if err != nil {
		return nil, err
	}

	switch kind {
	case config.TransportNATS:
		return openNATS(cfg, logger)
	default:
		return openAMQP(ctx, cfg, logger)
	}
}

func openAMQP(ctx context.Context, cfg config.Config, logger *slog.Logger) (*transport, error) {
	conn, err := mq.NewConnection(cfg.BusURL, logger)
	if err != nil {
		return nil, fmt.Errorf("connect rabbitmq: %w", err)
	}

	topo := mq.Topology{BotID: cfg.BotID, Keys: cfg.Keys()}
	if err := mq.SetupTopology(ctx, conn, topo); err != nil {
		conn.Close()
		return nil, fmt.Errorf("setup topology: %w", err)
	}
	logger.Info("RabbitMQ connected", "queue", topo.Queue())

	return &transport{
		publisher: mq.NewPublisher(conn, logger),
		listen: func(ctx context.Context, handler bus.Handler) error {
			consumer := mq.NewConsumer(conn, logger, mq.ConsumerConfig{
				Queue:   topo.Queue(),
				Handler: handler,
			})
			return consumer.Start(ctx)
		},
		health: func() error {
			if !conn.IsConnected() {
				return errBusDisconnected
			}
			return nil
		},
		close: func() { conn.Close() },
	}, nil
}

func openNATS(cfg config.Config, logger *slog.Logger) (*transport, error) {
	nc, err := natsbus.Connect(cfg.BusURL, "testgen-"+cfg.BotID, logger)
	if err != nil {
		return nil, err
	}

	return &transport{
		publisher: natsbus.NewPublisher(nc, logger),
		listen: func(ctx context.Context, handler bus.Handler) error {
			sub := natsbus.NewSubscriber(nc, logger, natsbus.SubscriberConfig{
				Keys:    cfg.Keys(),
				Handler: handler,
			})
			return sub.Start(ctx)
		},
		health: func() error {
			if nc.Status() != nats.CONNECTED {
				return errBusDisconnected
			}
			return nil
		},
		close: func() {
			if err := nc.Drain(); err != nil {
				nc.Close()
			}
		},
	}, nil
}
