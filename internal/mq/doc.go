// Package mq — транспорт orders поверх RabbitMQ.
//
// Структура:
//   - connection.go — соединение с reconnect и graceful shutdown
//   - topology.go   — exchanges, очередь бота, bindings
//   - publisher.go  — публикация orders по ключу получателя
//   - consumer.go   — потребление orders из очереди бота
//
// Адресация:
//
//	exchange testgen.orders (topic), routing key "<key>.<order>"
//
// Каждый бот читает свою очередь testgen.<botID>.orders, привязанную
// к "<botKey>.#" и "<botID>.#". Невалидные сообщения уходят в testgen.dlq.
package mq
