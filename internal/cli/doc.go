// Package cli — клиентская часть testgen-worker для admin API.
//
// Client ходит в admin HTTP сервер работающего воркера и не импортирует
// внутренние пакеты бота: типы ответов продублированы.
//
// Output форматирует вывод таблицей (text/tabwriter) или JSON (--json).
// Данные выводятся в stdout, сообщения — в stderr, поэтому вывод можно
// отдавать в pipe: testgen-worker status --json | jq .
package cli
