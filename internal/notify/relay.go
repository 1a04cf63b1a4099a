// Package notify отправляет служебные уведомления в операторский канал.
//
// Доставка best-effort: ошибка публикации логируется и не прерывает
// ни старт, ни остановку бота.
package notify

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shaiso/testgen/internal/bus"
	"github.com/shaiso/testgen/internal/domain"
)

// Kind — тип события жизненного цикла.
type Kind int

const (
	// Started — бот запущен.
	Started Kind = iota + 1

	// ShuttingDown — бот останавливается.
	ShuttingDown
)

// String возвращает имя события.
func (k Kind) String() string {
	switch k {
	case Started:
		return "started"
	case ShuttingDown:
		return "shutting_down"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Publisher — транспорт orders (mq.Publisher, natsbus.Publisher).
type Publisher interface {
	PublishOrder(ctx context.Context, key, order string, payload any) error
}

// Relay публикует уведомления от имени бота.
type Relay struct {
	publisher Publisher
	botID     string
	key       string
	logger    *slog.Logger
}

// Config — конфигурация Relay.
type Config struct {
	Publisher Publisher

	// BotID — идентичность бота в тексте уведомления.
	BotID string

	// Key — ключ операторского канала (default: "broadcast").
	Key string

	Logger *slog.Logger
}

// New создаёт Relay.
func New(cfg Config) *Relay {
	key := cfg.Key
	if key == "" {
		key = domain.RecipientBroadcast
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Relay{
		publisher: cfg.Publisher,
		botID:     cfg.BotID,
		key:       key,
		logger:    logger,
	}
}

// Message форматирует текст уведомления.
func (r *Relay) Message(kind Kind) string {
	switch kind {
	case Started:
		return fmt.Sprintf("[%s] test case generator started", r.botID)
	case ShuttingDown:
		return fmt.Sprintf("[%s] test case generator shutting down", r.botID)
	default:
		return fmt.Sprintf("[%s] %s", r.botID, kind)
	}
}

// Announce публикует уведомление. Ошибки не возвращаются.
// Nil Relay — отключённая возможность.
func (r *Relay) Announce(ctx context.Context, kind Kind) {
	if r == nil || r.publisher == nil {
		return
	}

	payload := domain.Announcement{
		Recipient: domain.RecipientBroadcast,
		Content:   r.Message(kind),
	}

	if err := r.publisher.PublishOrder(ctx, r.key, bus.OrderBroadcast, payload); err != nil {
		r.logger.Warn("failed to publish notification",
			"kind", kind.String(),
			"error", err,
		)
		return
	}

	r.logger.Debug("notification published", "kind", kind.String())
}
