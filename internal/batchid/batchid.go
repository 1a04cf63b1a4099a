// Package batchid генерирует идентификаторы батчей и имена тестовых классов.
package batchid

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shaiso/testgen/internal/domain"
)

// Strategy — способ построения BatchID.
type Strategy string

const (
	// StrategyTimestamp — время с точностью до секунды.
	StrategyTimestamp Strategy = "timestamp"

	// StrategyUUID — укороченный случайный UUID.
	StrategyUUID Strategy = "uuid"
)

// timestampLayout не содержит ":" — идентификатор остаётся допустимым
// именем файла на любой ФС.
const timestampLayout = "2006-01-02T15-04-05"

// uuidPrefixLen — длина префикса UUID ("xxxxxxxx-xxxx").
const uuidPrefixLen = 13

// maxRandomRetries — после стольких совпадений к id добавляется счётчик.
const maxRandomRetries = 4

// ParseStrategy разбирает имя стратегии. Пустая строка — StrategyUUID.
func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(strings.ToLower(strings.TrimSpace(s))) {
	case "", StrategyUUID:
		return StrategyUUID, nil
	case StrategyTimestamp:
		return StrategyTimestamp, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownStrategy, s)
	}
}

// Generator выдаёт BatchID, которые не повторяются в пределах процесса.
//
// Потокобезопасен.
type Generator struct {
	strategy Strategy
	now      func() time.Time
	random   func() string

	mu     sync.Mutex
	issued map[domain.BatchID]struct{}
}

// Option настраивает Generator.
type Option func(*Generator)

// WithClock подменяет источник времени.
func WithClock(now func() time.Time) Option {
	return func(g *Generator) { g.now = now }
}

// WithRandom подменяет источник случайных строк.
func WithRandom(random func() string) Option {
	return func(g *Generator) { g.random = random }
}

// New создаёт Generator с указанной стратегией.
func New(strategy Strategy, opts ...Option) *Generator {
	g := &Generator{
		strategy: strategy,
		now:      time.Now,
		random:   func() string { return uuid.NewString() },
		issued:   make(map[domain.BatchID]struct{}),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// NewBatchID возвращает новый идентификатор. Не блокируется надолго и не падает.
func (g *Generator) NewBatchID() domain.BatchID {
	g.mu.Lock()
	defer g.mu.Unlock()

	var base domain.BatchID
	switch g.strategy {
	case StrategyTimestamp:
		base = domain.BatchID(g.now().Format(timestampLayout))
	default:
		base = g.randomID()
	}

	id := base
	for n := 2; g.seen(id); n++ {
		if g.strategy != StrategyTimestamp && n <= maxRandomRetries {
			id = g.randomID()
			continue
		}
		id = domain.BatchID(fmt.Sprintf("%s_%d", base, n))
	}

	g.issued[id] = struct{}{}
	return id
}

func (g *Generator) seen(id domain.BatchID) bool {
	_, ok := g.issued[id]
	return ok
}

func (g *Generator) randomID() domain.BatchID {
	s := g.random()
	if len(s) > uuidPrefixLen {
		s = s[:uuidPrefixLen]
	}
	return domain.BatchID(strings.ReplaceAll(s, "-", "_"))
}

// Sanitize заменяет каждый символ вне [A-Za-z0-9] на "_".
func Sanitize(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}

// DeriveClassName строит имя тестового класса: "<base>_<sanitized id>".
func DeriveClassName(base string, id domain.BatchID) string {
	return base + "_" + Sanitize(string(id))
}
