package bot

import (
	"time"

	"github.com/shaiso/testgen/internal/domain"
)

// Status — снимок состояния бота для admin API.
type Status struct {
	BotID     string                  `json:"bot_id"`
	Service   string                  `json:"service"`
	Proxy     *domain.ProxyBinding    `json:"proxy,omitempty"`
	Orders    []string                `json:"orders"`
	Paused    bool                    `json:"paused"`
	PausedTo  *time.Time              `json:"paused_until,omitempty"`
	NextTick  *time.Time              `json:"next_tick,omitempty"`
	LastBatch *domain.BatchReadyEvent `json:"last_batch,omitempty"`
	LockHeld  *bool                   `json:"lock_held,omitempty"`
}

// Status возвращает текущее состояние.
func (b *Bot) Status() Status {
	s := Status{
		BotID:     b.id,
		Service:   b.service,
		Proxy:     b.binding,
		Orders:    b.router.Orders(),
		LastBatch: b.orchestrator.LastBatch(),
	}

	if b.window != nil && b.window.IsSuppressed(b.now()) {
		until := b.window.ExpiresAt().UTC()
		s.Paused = true
		s.PausedTo = &until
	}

	if next := b.runner.Next(); !next.IsZero() {
		next = next.UTC()
		s.NextTick = &next
	}

	if b.lock != nil {
		held := b.lock.Held()
		s.LockHeld = &held
	}

	return s
}

// Service возвращает идентичность целевого сервиса (исходный URL до прокси).
func (b *Bot) Service() string { return b.service }

// Lock возвращает lock бота или nil.
func (b *Bot) Lock() Locker { return b.lock }
