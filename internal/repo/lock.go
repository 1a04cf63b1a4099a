package repo

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/zeebo/xxh3"
)

// LockKey переводит имя ресурса в ключ pg_advisory_lock.
func LockKey(name string) int64 {
	return int64(xxh3.HashString(name))
}

// AdvisoryLock — сессионный pg_advisory_lock на выделенном соединении пула.
//
// Lock живёт, пока живо соединение: если соединение падает, Postgres
// отпускает lock, и следующий TryLock пытается захватить его заново.
type AdvisoryLock struct {
	pool   *pgxpool.Pool
	name   string
	key    int64
	logger *slog.Logger

	mu     sync.Mutex
	conn   *pgxpool.Conn
	held   bool
	closed bool
}

// NewAdvisoryLock создаёт lock для ресурса name.
func NewAdvisoryLock(pool *pgxpool.Pool, name string, logger *slog.Logger) *AdvisoryLock {
	if logger == nil {
		logger = slog.Default()
	}
	return &AdvisoryLock{
		pool:   pool,
		name:   name,
		key:    LockKey(name),
		logger: logger.With("component", "advisory_lock", "lock_key", LockKey(name)),
	}
}


// TryLock пытается стать владельцем (или подтвердить владение).
// Не блокируется: если lock у другого процесса, возвращает false.
func (l *AdvisoryLock) TryLock(ctx context.Context) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return false, ErrLockClosed
	}

	if l.held {
		if err := l.conn.Ping(ctx); err == nil {
			return true, nil
		}
		l.logger.Warn("lock connection lost, lock released by server")
		l.drop()
	}

	if l.conn == nil {
		conn, err := l.pool.Acquire(ctx)
		if err != nil {
			return false, fmt.Errorf("%w: acquire connection: %v", ErrLockQuery, err)
		}
		l.conn = conn
	}

	var ok bool
	if err := l.conn.QueryRow(ctx, "select pg_try_advisory_lock($1)", l.key).Scan(&ok); err != nil {
		l.drop()
		return false, fmt.Errorf("%w: %v", ErrLockQuery, err)
	}

	if !ok {
		// Не держим соединение, пока lock у другой реплики.
		l.drop()
		return false, nil
	}

	l.held = true
	l.logger.Info("advisory lock acquired", "resource", l.name)
	return true, nil
}

// Held сообщает, владеет ли процесс lock'ом.
func (l *AdvisoryLock) Held() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.held
}

// Close отпускает lock и возвращает соединение в пул.
func (l *AdvisoryLock) Close(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return nil
	}
	l.closed = true

	if !l.held {
		l.drop()
		return nil
	}

	_, err := l.conn.Exec(ctx, "select pg_advisory_unlock($1)", l.key)
	l.drop()
	if err != nil {
		return fmt.Errorf("advisory unlock: %w", err)
	}
	l.logger.Info("advisory lock released", "resource", l.name)
	return nil
}

func (l *AdvisoryLock) drop() {
	if l.conn != nil {
		l.conn.Release()
		l.conn = nil
	}
	l.held = false
}
