package loader

import "errors"

// Ошибки конфигурации. Все фатальны при старте.
var (
	// ErrInvalidConfig — файл конфигурации некорректен.
	ErrInvalidConfig = errors.New("invalid user config")

	// ErrInvalidSpec — OpenAPI спецификация не загружается или невалидна.
	ErrInvalidSpec = errors.New("invalid api specification")

	// ErrNoServers — в спецификации нет servers.
	ErrNoServers = errors.New("api specification has no servers")
)
