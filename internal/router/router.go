// Package router направляет входящие orders обработчикам по имени.
//
// Обработчики регистрируются явно при старте; незарегистрированное имя
// — документированный no-op, а не ошибка.
package router

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"sync"
)

// HandlerFunc обрабатывает payload одного order.
type HandlerFunc func(ctx context.Context, payload json.RawMessage) error

// Router — реестр обработчиков orders. Потокобезопасен.
type Router struct {
	mu       sync.RWMutex
	handlers map[string]HandlerFunc
	logger   *slog.Logger
}

// New создаёт пустой Router.
func New(logger *slog.Logger) *Router {
	if logger == nil {
		logger = slog.Default()
	}
	return &Router{
		handlers: make(map[string]HandlerFunc),
		logger:   logger,
	}
}

// Register регистрирует обработчик для order. Повторная регистрация
// заменяет предыдущий обработчик.
func (r *Router) Register(order string, h HandlerFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[order] = h
}

// Orders возвращает отсортированный список зарегистрированных orders.
func (r *Router) Orders() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	orders := make([]string, 0, len(r.handlers))
	for o := range r.handlers {
		orders = append(orders, o)
	}
	sort.Strings(orders)
	return orders
}

// Dispatch вызывает обработчик order. Неизвестный order игнорируется.
//
// Ошибка обработчика возвращается вызывающему, паника обработчика
// превращается в ошибку: цикл прослушивания не должен падать.
func (r *Router) Dispatch(ctx context.Context, order string, payload json.RawMessage) (err error) {
	r.mu.RLock()
	h, ok := r.handlers[order]
	r.mu.RUnlock()

	if !ok {
		r.logger.Debug("ignoring unknown order", "order", order)
		return nil
	}

	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("%w: order %s: %v", ErrHandlerPanic, order, p)
		}
	}()

	return h(ctx, payload)
}

// DecodeStrict разбирает payload в v. Пустой payload, невалидный JSON и
// несовпадение типов — ErrMalformedPayload.
func DecodeStrict(payload json.RawMessage, v any) error {
	if len(payload) == 0 {
		return fmt.Errorf("%w: empty payload", ErrMalformedPayload)
	}
	if err := json.Unmarshal(payload, v); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	return nil
}
