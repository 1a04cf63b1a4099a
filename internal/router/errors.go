package router

import "errors"

// Ошибки маршрутизации.
var (
	// ErrMalformedPayload — payload order'а не разбирается или неполон.
	ErrMalformedPayload = errors.New("malformed payload")

	// ErrHandlerPanic — обработчик запаниковал.
	ErrHandlerPanic = errors.New("handler panicked")
)
