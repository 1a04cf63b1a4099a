// Package bot собирает генератор батчей из независимых возможностей.
//
// Bot владеет:
//   - оркестратором цикла генерации (internal/generator)
//   - окном паузы целевого сервиса (internal/pause), если пауза включена
//   - роутером входящих orders (internal/router)
//   - уведомлениями оператору (internal/notify), если они включены
//   - расписанием тиков (internal/scheduler)
//   - опциональным advisory lock, чтобы тикала только одна реплика на сервис
//
// Привязка к прокси выполняется в New, до запуска планировщика и подписки.
package bot
