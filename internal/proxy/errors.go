package proxy

import "errors"

// ErrInvalidProxyHost — из имени прокси нельзя построить authority URL.
// Ошибка конфигурации: процесс не должен стартовать.
var ErrInvalidProxyHost = errors.New("invalid proxy host")
