// Package admin — служебный HTTP сервер воркера.
//
// Endpoints:
//   - GET /healthz — liveness (и проверка транспорта, если задана)
//   - GET /metrics — Prometheus
//   - GET /status  — снимок состояния бота
package admin
