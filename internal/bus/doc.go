// Package bus описывает конверт сообщений, общий для всех транспортов.
//
// Каждое сообщение — это "order": имя (Type) и JSON payload. Транспорт
// (RabbitMQ в internal/mq или NATS в internal/natsbus) адресует сообщение
// ключу получателя (key) и доставляет конверт как есть.
//
// Orders:
//   - pause_generation    — входящий запрос паузы {service, until}
//   - execute_test_cases  — готовый батч для executor'ов
//   - broadcast_message   — уведомление операторам
package bus
