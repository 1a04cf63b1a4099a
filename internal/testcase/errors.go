package testcase

import "errors"

// Ошибки генерации и записи.
var (
	// ErrNoOperations — в спецификации нет ни одной операции.
	ErrNoOperations = errors.New("api specification has no operations")

	// ErrUnknownGenerator — неизвестный тип генератора в конфигурации.
	ErrUnknownGenerator = errors.New("unknown generator type")
)
