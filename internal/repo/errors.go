package repo

import "errors"

// Ошибки advisory lock.
var (
	// ErrLockQuery — запрос pg_try_advisory_lock не выполнился.
	ErrLockQuery = errors.New("advisory lock query failed")

	// ErrLockClosed — lock уже закрыт.
	ErrLockClosed = errors.New("advisory lock closed")
)
