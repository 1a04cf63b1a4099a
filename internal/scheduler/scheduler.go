package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// Job — работа одного тика.
type Job func(ctx context.Context)

// Config — конфигурация Runner.
type Config struct {
	Schedule   string
	RunOnStart bool
	Job        Job
	Logger     *slog.Logger
}

// Runner запускает Job по расписанию.
type Runner struct {
	spec       string
	schedule   cron.Schedule
	runOnStart bool
	job        Job
	logger     *slog.Logger

	mu      sync.Mutex
	cron    *cron.Cron
	entryID cron.EntryID
}

// New создаёт Runner. Невалидное расписание — ошибка конфигурации.
func New(cfg Config) (*Runner, error) {
	schedule, err := ParseSchedule(cfg.Schedule)
	if err != nil {
		return nil, err
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Runner{
		spec:       cfg.Schedule,
		schedule:   schedule,
		runOnStart: cfg.RunOnStart,
		job:        cfg.Job,
		logger:     logger.With("component", "scheduler"),
	}, nil
}

// Run запускает расписание и блокируется до отмены ctx.
// После отмены дожидается завершения текущего тика.
func (r *Runner) Run(ctx context.Context) error {
	clog := cronLogger{r.logger}
	c := cron.New(cron.WithParser(cronParser), cron.WithLogger(clog))

	// Тик не наследует отмену: начатый цикл доводится до конца.
	tickCtx := context.WithoutCancel(ctx)
	job := r.chain(tickCtx)

	r.mu.Lock()
	r.cron = c
	r.entryID = c.Schedule(r.schedule, job)
	r.mu.Unlock()

	c.Start()
	r.logger.Info("scheduler started", "schedule", r.spec, "run_on_start", r.runOnStart)

	var wg sync.WaitGroup
	if r.runOnStart {
		wg.Add(1)
		go func() {
			defer wg.Done()
			job.Run()
		}()
	}

	<-ctx.Done()

	r.logger.Info("scheduler stopping, waiting for running tick")
	<-c.Stop().Done()
	wg.Wait()

	r.mu.Lock()
	r.cron = nil
	r.mu.Unlock()

	r.logger.Info("scheduler stopped")
	return nil
}

// Next возвращает время следующего тика или нулевое время, если Runner не запущен.
func (r *Runner) Next() time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.cron == nil {
		return time.Time{}
	}
	return r.cron.Entry(r.entryID).Next
}

// chain оборачивает Job: паника перехватывается, пересекающиеся тики пропускаются.
// Один и тот же обёрнутый job используется и для стартового тика, и для cron.
func (r *Runner) chain(ctx context.Context) cron.Job {
	clog := cronLogger{r.logger}
	return cron.NewChain(
		cron.Recover(clog),
		cron.SkipIfStillRunning(clog),
	).Then(cron.FuncJob(func() {
		r.job(ctx)
	}))
}

// cronLogger адаптирует slog к cron.Logger.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Error(msg, append(keysAndValues, "error", err)...)
}
