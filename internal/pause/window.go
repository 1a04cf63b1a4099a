// Package pause реализует окно приостановки генерации для одного сервиса.
//
// Два логических состояния:
//   - ACTIVE     — now >= expiresAt, генерация разрешена;
//   - SUPPRESSED — now <  expiresAt, тики пропускаются.
//
// Начальное состояние — ACTIVE (expiresAt = момент создания). Окно меняется
// только запросами паузы, адресованными своему сервису; последняя запись
// выигрывает, в том числе запрос с моментом в прошлом (снятие паузы).
//
// expiresAt читается планировщиком и пишется обработчиком входящих
// сообщений одновременно, поэтому хранится в atomic.Int64 (Unix millis).
package pause

import (
	"sync/atomic"
	"time"

	"github.com/shaiso/testgen/internal/domain"
)

// Window — окно паузы для одного сервиса.
type Window struct {
	service   string
	expiresAt atomic.Int64
}

// New создаёт окно для сервиса service в состоянии ACTIVE.
func New(service string, now time.Time) *Window {
	w := &Window{service: service}
	w.expiresAt.Store(now.UnixMilli())
	return w
}

// Service возвращает идентификатор сервиса, к которому привязано окно.
func (w *Window) Service() string {
	return w.service
}

// Apply применяет запрос паузы.
//
// Запросы для других сервисов игнорируются (возвращает false).
// Для своего сервиса expiresAt перезаписывается безусловно.
func (w *Window) Apply(req domain.PauseRequest) bool {
	if !domain.SameService(req.Service, w.service) {
		return false
	}
	w.expiresAt.Store(req.Until)
	return true
}

// IsSuppressed сообщает, подавлена ли генерация в момент now.
func (w *Window) IsSuppressed(now time.Time) bool {
	return now.UnixMilli() < w.expiresAt.Load()
}

// ExpiresAt возвращает текущий момент окончания паузы.
func (w *Window) ExpiresAt() time.Time {
	return time.UnixMilli(w.expiresAt.Load())
}
