package bot

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/shaiso/testgen/internal/batchid"
	"github.com/shaiso/testgen/internal/bus"
	"github.com/shaiso/testgen/internal/domain"
	"github.com/shaiso/testgen/internal/generator"
	"github.com/shaiso/testgen/internal/loader"
	"github.com/shaiso/testgen/internal/notify"
	"github.com/shaiso/testgen/internal/pause"
	"github.com/shaiso/testgen/internal/proxy"
	"github.com/shaiso/testgen/internal/router"
	"github.com/shaiso/testgen/internal/scheduler"
	"github.com/shaiso/testgen/internal/telemetry"
	"github.com/shaiso/testgen/internal/testcase"
)

// announceTimeout ограничивает публикацию уведомления при остановке.
const announceTimeout = 5 * time.Second

// Publisher — транспорт исходящих orders.
type Publisher interface {
	PublishOrder(ctx context.Context, key, order string, payload any) error
}

// Locker — эксклюзивность тиков между репликами (repo.AdvisoryLock).
type Locker interface {
	TryLock(ctx context.Context) (bool, error)
	Held() bool
}

// Config — конфигурация Bot.
type Config struct {
	BotID string

	// Loader — загруженная пользовательская конфигурация.
	Loader *loader.Loader

	// UserConfigPath передаётся исполнителям (по умолчанию Loader.Path()).
	UserConfigPath string

	// ProxyHost — адрес прокси (host[:port]). Пусто — без прокси.
	ProxyHost string

	Publisher    Publisher
	ExecutorKey  string
	BroadcastKey string

	BatchIDStrategy batchid.Strategy
	Schedule        string
	RunOnStart      bool

	PauseEnabled  bool
	NotifyEnabled bool

	// NewLocker создаёт lock по идентичности сервиса. Nil — без lock.
	NewLocker func(service string) Locker

	Metrics *telemetry.Metrics
	Logger  *slog.Logger

	// Now — источник времени (по умолчанию time.Now).
	Now func() time.Time
}

// Bot — бот-генератор батчей.
type Bot struct {
	id      string
	service string
	binding *domain.ProxyBinding

	window       *pause.Window
	orchestrator *generator.Orchestrator
	router       *router.Router
	relay        *notify.Relay
	runner       *scheduler.Runner
	lock         Locker

	metrics *telemetry.Metrics
	logger  *slog.Logger
	now     func() time.Time
}

// New собирает бота. Ошибки — ошибки конфигурации, фатальные для процесса.
func New(cfg Config) (*Bot, error) {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.UserConfigPath == "" {
		cfg.UserConfigPath = cfg.Loader.Path()
	}

	ld := cfg.Loader
	endpoint := ld.Endpoint()

	b := &Bot{
		id:      cfg.BotID,
		service: endpoint.BaseURL(),
		metrics: cfg.Metrics,
		now:     cfg.Now,
	}

	if cfg.ProxyHost != "" {
		binding, err := proxy.Bind(endpoint, cfg.ProxyHost)
		if err != nil {
			return nil, err
		}
		ld.AddHeader(binding.RoutingHeader)
		b.binding = binding
		b.service = binding.OriginalHost
	}

	b.logger = telemetry.WithService(telemetry.WithBot(cfg.Logger, cfg.BotID), b.service)

	if cfg.PauseEnabled {
		b.window = pause.New(b.service, cfg.Now())
	}

	gen, err := testcase.NewGenerator(ld.Generator().Type, ld.Spec(), ld, ld.Generator().TestCasesPerOperation)
	if err != nil {
		return nil, err
	}

	orchCfg := generator.Config{
		IDs:            batchid.New(cfg.BatchIDStrategy, batchid.WithClock(cfg.Now)),
		Generator:      gen,
		Store:          generator.NewFileStore(ld.TargetDir()),
		Writer:         testcase.NewGoTestWriter(ld.TargetDir(), ld.TestPackage(), endpoint),
		Publisher:      cfg.Publisher,
		UserConfigPath: cfg.UserConfigPath,
		ClassName:      ld.TestClassName(),
		ExperimentName: ld.ExperimentName(),
		ExecutorKey:    cfg.ExecutorKey,
		Metrics:        cfg.Metrics,
		Logger:         b.logger,
		Now:            cfg.Now,
	}
	if b.window != nil {
		orchCfg.Window = b.window
	}
	b.orchestrator = generator.New(orchCfg)

	b.router = router.New(b.logger)
	if b.window != nil {
		b.router.Register(bus.OrderPauseGeneration, b.handlePause)
	}

	if cfg.NotifyEnabled {
		b.relay = notify.New(notify.Config{
			Publisher: cfg.Publisher,
			BotID:     cfg.BotID,
			Key:       cfg.BroadcastKey,
			Logger:    b.logger,
		})
	}

	if cfg.NewLocker != nil {
		b.lock = cfg.NewLocker(b.service)
	}

	b.runner, err = scheduler.New(scheduler.Config{
		Schedule:   cfg.Schedule,
		RunOnStart: cfg.RunOnStart,
		Job:        b.Tick,
		Logger:     b.logger,
	})
	if err != nil {
		return nil, err
	}

	return b, nil
}

// Run объявляет о старте, тикает по расписанию до отмены ctx,
// дожидается текущего тика и объявляет об остановке.
func (b *Bot) Run(ctx context.Context) error {
	b.logger.Info("bot started",
		"orders", b.router.Orders(),
		"proxied", b.binding != nil,
	)
	b.relay.Announce(ctx, notify.Started)

	err := b.runner.Run(ctx)

	announceCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), announceTimeout)
	defer cancel()
	b.relay.Announce(announceCtx, notify.ShuttingDown)

	b.logger.Info("bot stopped")
	return err
}

// Tick выполняет один тик: проверка lock, затем цикл генерации.
// Ошибки цикла уходят в обработчик сбоев и не останавливают бота.
func (b *Bot) Tick(ctx context.Context) {
	if b.lock != nil {
		ok, err := b.lock.TryLock(ctx)
		if err != nil {
			b.logger.Warn("lock check failed, skipping tick", "error", err)
		}
		if !ok {
			b.logger.Debug("another replica holds the lock, skipping tick")
			if b.metrics != nil {
				b.metrics.Ticks.WithLabelValues(telemetry.TickNotLeader).Inc()
			}
			return
		}
	}

	if _, err := b.orchestrator.Tick(ctx); err != nil {
		b.fault(err)
	}
}

// RunOnce выполняет один цикл вне расписания и без lock'а.
// В отличие от Tick, ошибка цикла возвращается вызывающему.
func (b *Bot) RunOnce(ctx context.Context) (*domain.BatchReadyEvent, error) {
	return b.orchestrator.Tick(ctx)
}

// HandleMessage — обработчик входящих сообщений транспорта.
//
// Всегда возвращает nil: ошибки обработки логируются, сообщение
// подтверждается, прослушивание продолжается.
func (b *Bot) HandleMessage(ctx context.Context, msg *bus.Message) error {
	if err := b.router.Dispatch(ctx, msg.Type, msg.Payload); err != nil {
		b.logger.Error("order handling failed",
			"order", msg.Type,
			"message_id", msg.ID,
			"error", err,
		)
	}
	return nil
}

// handlePause применяет запрос паузы к окну.
func (b *Bot) handlePause(_ context.Context, payload json.RawMessage) error {
	req, err := pause.ParseRequest(payload)
	if err != nil {
		b.observePause(telemetry.PauseMalformed)
		return err
	}

	if !b.window.Apply(req) {
		b.observePause(telemetry.PauseIgnored)
		b.logger.Debug("pause request for another service ignored", "target", req.Service)
		return nil
	}

	until := time.UnixMilli(req.Until)
	b.observePause(telemetry.PauseApplied)
	if b.metrics != nil {
		b.metrics.PauseExpiresAt.Set(float64(req.Until) / 1000)
	}

	if until.After(b.now()) {
		b.logger.Info("generation paused", "until", until.UTC().Format(time.RFC3339))
	} else {
		b.logger.Info("generation resumed")
	}
	return nil
}

func (b *Bot) observePause(result string) {
	if b.metrics != nil {
		b.metrics.PauseRequests.WithLabelValues(result).Inc()
	}
}

// fault — обработчик сбоев цикла генерации.
func (b *Bot) fault(err error) {
	b.logger.Error("generation cycle failed",
		"stage", stage(err),
		"error", err,
	)
}

func stage(err error) string {
	switch {
	case errors.Is(err, generator.ErrGeneration):
		return telemetry.StageGenerate
	case errors.Is(err, generator.ErrPersistence):
		return telemetry.StagePersist
	case errors.Is(err, generator.ErrWrite):
		return telemetry.StageWrite
	case errors.Is(err, generator.ErrPublish):
		return telemetry.StagePublish
	default:
		return "unknown"
	}
}
