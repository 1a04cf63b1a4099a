// Package scheduler запускает цикл генерации по расписанию.
//
// Структура:
//   - scheduler.go — Runner поверх robfig/cron
//   - cron.go      — разбор расписания (cron, @every, Go duration)
//
// Использование:
//
//	runner, err := scheduler.New(scheduler.Config{
//	    Schedule:   "@every 5m",
//	    RunOnStart: true,
//	    Job:        bot.Tick,
//	    Logger:     logger,
//	})
//
//	// Блокируется до отмены ctx, затем дожидается текущего тика.
//	err = runner.Run(ctx)
//
// Одновременно выполняется не более одного тика: если предыдущий
// ещё не завершён, очередной пропускается (cron.SkipIfStillRunning).
//
// Runner не реализует leader election. Эксклюзивность между репликами
// обеспечивает bot через pg_try_advisory_lock (см. internal/repo).
package scheduler
