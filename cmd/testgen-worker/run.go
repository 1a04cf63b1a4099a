package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/shaiso/testgen/internal/admin"
	"github.com/shaiso/testgen/internal/bot"
	"github.com/shaiso/testgen/internal/config"
	"github.com/shaiso/testgen/internal/loader"
	"github.com/shaiso/testgen/internal/peer"
	"github.com/shaiso/testgen/internal/repo"
	"github.com/shaiso/testgen/internal/telemetry"
)

func newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the generator bot until SIGINT/SIGTERM",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runWorker(cmd.Context())
		},
	}
}

func newOnceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "once",
		Short: "Run a single generation cycle and exit",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runOnce(cmd.Context())
		},
	}
}

// setup — общая часть run и once: конфигурация, шина, бот.
type setup struct {
	cfg       config.Config
	logger    *slog.Logger
	transport *transport
	bot       *bot.Bot
	metrics   *telemetry.Metrics
	pool      *pgxpool.Pool
}

func (s *setup) close() {
	if s.transport != nil {
		s.transport.close()
	}
	if s.pool != nil {
		s.pool.Close()
	}
}

func newSetup(ctx context.Context, withLock bool) (*setup, error) {
	logger := telemetry.SetupLogger()

	cfg, err := config.FromEnv()
	if err != nil {
		return nil, err
	}
	logger = telemetry.WithBot(logger, cfg.BotID)

	ld, err := loader.Load(ctx, cfg.UserConfigPath)
	if err != nil {
		return nil, err
	}

	var proxyHost string
	if cfg.ProxyPeer != "" {
		dir, err := peer.ParseDirectory(cfg.PeerDirectory)
		if err != nil {
			return nil, err
		}
		if proxyHost, err = dir.Resolve(cfg.ProxyPeer); err != nil {
			return nil, err
		}
	}

	s := &setup{
		cfg:     cfg,
		logger:  logger,
		metrics: telemetry.NewMetrics(prometheus.DefaultRegisterer),
	}

	s.transport, err = openTransport(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	var newLocker func(service string) bot.Locker
	if withLock && cfg.DBURL != "" {
		s.pool, err = repo.NewPool(ctx, cfg.DBURL)
		if err != nil {
			s.close()
			return nil, fmt.Errorf("connect database: %w", err)
		}
		logger.Info("database connected, single-instance lock enabled")
		newLocker = func(service string) bot.Locker {
			return repo.NewAdvisoryLock(s.pool, "testgen:"+service, logger)
		}
	}

	s.bot, err = bot.New(bot.Config{
		BotID:           cfg.BotID,
		Loader:          ld,
		UserConfigPath:  cfg.UserConfigPath,
		ProxyHost:       proxyHost,
		Publisher:       s.transport.publisher,
		ExecutorKey:     cfg.ExecutorKey,
		BroadcastKey:    cfg.BroadcastKey,
		BatchIDStrategy: cfg.BatchIDStrategy,
		Schedule:        cfg.Schedule,
		RunOnStart:      cfg.RunOnStart,
		PauseEnabled:    cfg.PauseEnabled,
		NotifyEnabled:   cfg.NotifyEnabled,
		NewLocker:       newLocker,
		Metrics:         s.metrics,
		Logger:          logger,
	})
	if err != nil {
		s.close()
		return nil, err
	}

	return s, nil
}

func runWorker(parent context.Context) error {
	// graceful shutdown
	ctx, cancel := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	s, err := newSetup(ctx, true)
	if err != nil {
		return err
	}
	defer s.close()

	s.logger.Info("starting testgen-worker",
		"version", version,
		"service", s.bot.Service(),
		"schedule", s.cfg.Schedule,
	)

	server := admin.New(admin.Config{
		Addr:   s.cfg.Addr(),
		Status: s.bot,
		Health: s.transport.health,
		Logger: s.logger,
	})

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return ignoreCanceled(s.transport.listen(gctx, s.bot.HandleMessage))
	})
	g.Go(func() error {
		return s.bot.Run(gctx)
	})
	g.Go(func() error {
		return server.Run(gctx)
	})

	err = g.Wait()

	if closer, ok := s.bot.Lock().(interface{ Close(context.Context) error }); ok {
		if cerr := closer.Close(context.WithoutCancel(parent)); cerr != nil {
			s.logger.Warn("failed to release lock", "error", cerr)
		}
	}

	if err != nil {
		s.logger.Error("testgen-worker failed", "error", err)
		return err
	}
	s.logger.Info("testgen-worker stopped")
	return nil
}

func runOnce(parent context.Context) error {
	ctx, cancel := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	s, err := newSetup(ctx, false)
	if err != nil {
		return err
	}
	defer s.close()

	event, err := s.bot.RunOnce(ctx)
	if err != nil {
		return err
	}
	if event == nil {
		fmt.Fprintln(os.Stdout, "generation is paused, nothing to do")
		return nil
	}

	fmt.Fprintf(os.Stdout, "batch %s published (test class %s)\n", event.BatchID, event.TestClassName)
	return nil
}

func ignoreCanceled(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
