// Package telemetry обеспечивает наблюдаемость бота.
//
// Включает:
//   - logging.go — structured logging через slog
//   - metrics.go — Prometheus метрики циклов генерации и orders
//
// Метрики экспортируются на /metrics admin-сервера.
package telemetry
