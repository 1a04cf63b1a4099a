package generator

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/shaiso/testgen/internal/batchid"
	"github.com/shaiso/testgen/internal/bus"
	"github.com/shaiso/testgen/internal/domain"
	"github.com/shaiso/testgen/internal/telemetry"
	"github.com/shaiso/testgen/internal/testcase"
)

// Suppressor сообщает, подавлена ли генерация в момент now.
type Suppressor interface {
	IsSuppressed(now time.Time) bool
}

// IDSource выдаёт уникальные BatchID.
type IDSource interface {
	NewBatchID() domain.BatchID
}

// CaseGenerator строит тест-кейсы.
type CaseGenerator interface {
	Generate(ctx context.Context) ([]domain.TestCase, error)
}

// Store сохраняет батч и возвращает путь артефакта.
type Store interface {
	Save(ctx context.Context, id domain.BatchID, cases []domain.TestCase) (string, error)
}

// Writer пишет тестовый класс батча.
type Writer interface {
	Write(ctx context.Context, req testcase.WriteRequest) error
}

// Publisher отправляет приказ на ключ.
type Publisher interface {
	PublishOrder(ctx context.Context, key, order string, payload any) error
}

// Config — конфигурация оркестратора.
type Config struct {
	Window    Suppressor
	IDs       IDSource
	Generator CaseGenerator
	Store     Store
	Writer    Writer
	Publisher Publisher

	// UserConfigPath передаётся исполнителю в BatchReadyEvent.
	UserConfigPath string

	// ClassName — базовое имя тестового класса.
	ClassName string

	// ExperimentName — базовое имя эксперимента, к нему добавляется BatchID.
	ExperimentName string

	// ExecutorKey — ключ исполнителей.
	ExecutorKey string

	Metrics *telemetry.Metrics
	Logger  *slog.Logger

	// Now — источник времени (по умолчанию time.Now).
	Now func() time.Time
}

// Orchestrator выполняет цикл генерации.
//
// Tick не предназначен для параллельного вызова: планировщик гарантирует,
// что одновременно выполняется не более одного тика.
type Orchestrator struct {
	cfg    Config
	logger *slog.Logger

	last atomic.Pointer[domain.BatchReadyEvent]
}

// New создаёт оркестратор.
func New(cfg Config) *Orchestrator {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.ExecutorKey == "" {
		cfg.ExecutorKey = DefaultExecutorKey
	}

	return &Orchestrator{
		cfg:    cfg,
		logger: cfg.Logger.With("component", "orchestrator"),
	}
}

// DefaultExecutorKey — ключ исполнителей по умолчанию.
const DefaultExecutorKey = "test-executor"

// Tick выполняет один цикл.
//
// Возвращает (nil, nil), если генерация подавлена паузой: в этом случае
// не выдаётся BatchID и не происходит никаких побочных эффектов.
func (o *Orchestrator) Tick(ctx context.Context) (*domain.BatchReadyEvent, error) {
	started := o.cfg.Now()

	if o.cfg.Window != nil && o.cfg.Window.IsSuppressed(started) {
		o.logger.Debug("generation suppressed by pause window")
		o.observeTick(telemetry.TickSuppressed)
		return nil, nil
	}

	id := o.cfg.IDs.NewBatchID()
	logger := telemetry.WithBatchID(o.logger, id.String())

	cases, err := o.cfg.Generator.Generate(ctx)
	if err != nil {
		return nil, o.fail(telemetry.StageGenerate, fmt.Errorf("%w: batch %s: %w", ErrGeneration, id, err))
	}
	logger.Debug("test cases generated", "count", len(cases))

	path, err := o.cfg.Store.Save(ctx, id, cases)
	if err != nil {
		return nil, o.fail(telemetry.StagePersist, fmt.Errorf("%w: batch %s: %w", ErrPersistence, id, err))
	}

	className := batchid.DeriveClassName(o.cfg.ClassName, id)

	req := testcase.WriteRequest{
		ClassName:      className,
		BatchID:        id,
		ExperimentName: o.experimentName(id),
		TestCases:      cases,
	}
	if err := o.cfg.Writer.Write(ctx, req); err != nil {
		logger.Warn("batch artifact kept after write failure", "path", path)
		return nil, o.fail(telemetry.StageWrite, fmt.Errorf("%w: batch %s: %w", ErrWrite, id, err))
	}

	event := &domain.BatchReadyEvent{
		BatchID:        id,
		UserConfigPath: o.cfg.UserConfigPath,
		TestClassName:  className,
	}
	if err := o.cfg.Publisher.PublishOrder(ctx, o.cfg.ExecutorKey, bus.OrderExecuteTestCases, event); err != nil {
		return nil, o.fail(telemetry.StagePublish, fmt.Errorf("%w: batch %s: %w", ErrPublish, id, err))
	}

	o.last.Store(event)

	if m := o.cfg.Metrics; m != nil {
		m.Ticks.WithLabelValues(telemetry.TickGenerated).Inc()
		m.BatchesPublished.Inc()
		m.TestCasesGenerated.Add(float64(len(cases)))
		m.CycleDuration.Observe(o.cfg.Now().Sub(started).Seconds())
	}

	logger.Info("batch ready",
		"test_class", className,
		"test_cases", len(cases),
		"artifact", path,
		"executor_key", o.cfg.ExecutorKey,
	)

	return event, nil
}

// LastBatch возвращает последний опубликованный батч или nil.
func (o *Orchestrator) LastBatch() *domain.BatchReadyEvent {
	return o.last.Load()
}

func (o *Orchestrator) experimentName(id domain.BatchID) string {
	if o.cfg.ExperimentName == "" {
		return id.String()
	}
	return o.cfg.ExperimentName + "-" + id.String()
}

func (o *Orchestrator) fail(stage string, err error) error {
	if m := o.cfg.Metrics; m != nil {
		m.Ticks.WithLabelValues(telemetry.TickFailed).Inc()
		m.CyclesFailed.WithLabelValues(stage).Inc()
	}
	return err
}

func (o *Orchestrator) observeTick(result string) {
	if m := o.cfg.Metrics; m != nil {
		m.Ticks.WithLabelValues(result).Inc()
	}
}
