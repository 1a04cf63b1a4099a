package batchid

import "errors"

// ErrUnknownStrategy — неизвестная стратегия генерации BatchID.
var ErrUnknownStrategy = errors.New("unknown batch id strategy")
