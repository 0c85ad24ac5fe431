package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/jackc/pgx/v5/pgxpool"
)

// DefaultLockKey — ключ pg_advisory_lock лидера scheduler'а.
const DefaultLockKey int64 = 424243

// AdvisoryLeader — лидерство через pg_try_advisory_lock.
//
// Advisory lock живёт в сессии, поэтому лидер держит выделенное соединение
// до Release. Потеря соединения — потеря лидерства; на следующем тике
// захват пробуется заново.
type AdvisoryLeader struct {
	pool   *pgxpool.Pool
	key    int64
	logger *slog.Logger

	mu   sync.Mutex
	conn *pgxpool.Conn
}

// NewAdvisoryLeader создаёт AdvisoryLeader.
func NewAdvisoryLeader(pool *pgxpool.Pool, key int64, logger *slog.Logger) *AdvisoryLeader {
	if key == 0 {
		key = DefaultLockKey
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &AdvisoryLeader{pool: pool, key: key, logger: logger}
}

// IsLeader захватывает lock или подтверждает, что он всё ещё удерживается.
func (l *AdvisoryLeader) IsLeader(ctx context.Context) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.conn != nil {
		if err := l.conn.Ping(ctx); err == nil {
			return true, nil
		}
		l.logger.Warn("leader connection lost")
		l.dropLocked(ctx)
	}

	conn, err := l.pool.Acquire(ctx)
	if err != nil {
		return false, fmt.Errorf("acquire leader connection: %w", err)
	}

	var ok bool
	if err := conn.QueryRow(ctx, "SELECT pg_try_advisory_lock($1)", l.key).Scan(&ok); err != nil {
		conn.Release()
		return false, fmt.Errorf("try advisory lock: %w", err)
	}
	if !ok {
		conn.Release()
		return false, nil
	}

	l.conn = conn
	l.logger.Info("became leader", "lock_key", l.key)
	return true, nil
}

// Release отпускает lock и соединение.
func (l *AdvisoryLeader) Release(ctx context.Context) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.conn == nil {
		return
	}
	if _, err := l.conn.Exec(ctx, "SELECT pg_advisory_unlock($1)", l.key); err != nil {
		l.logger.Warn("advisory unlock failed", "error", err)
		l.dropLocked(ctx)
		return
	}
	l.conn.Release()
	l.conn = nil
	l.logger.Info("leadership released", "lock_key", l.key)
}

// dropLocked закрывает соединение: lock снимется вместе с сессией.
func (l *AdvisoryLeader) dropLocked(ctx context.Context) {
	_ = l.conn.Conn().Close(ctx)
	l.conn.Release()
	l.conn = nil
}
