package mq

import "errors"

// Ошибки транспорта.
var (
	// ErrNoChannel — AMQP канал недоступен (нет соединения).
	ErrNoChannel = errors.New("no channel available")

	// ErrDeliveriesClosed — брокер закрыл канал доставки.
	ErrDeliveriesClosed = errors.New("deliveries channel closed")
)
