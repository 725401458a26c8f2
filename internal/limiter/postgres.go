package limiter

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PG is a PostgreSQL-backed limiter with a per-pubkey sliding window.
type PG struct {
	pool   pgxQuerier
	window time.Duration
	max    int
}

type pgxQuerier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// NewPG constructs a PostgreSQL-backed limiter allowing max publishes per window.
func NewPG(pool *pgxpool.Pool, window time.Duration, max int) *PG {
	return &PG{pool: pool, window: window, max: max}
}

// NewPGWithQuerier constructs a PostgreSQL-backed limiter over any querier (tests).
func NewPGWithQuerier(q pgxQuerier, window time.Duration, max int) *PG {
	return &PG{pool: q, window: window, max: max}
}

// Allow atomically counts the attempt against the current window and reports
// whether it fits. The window restarts once it has fully elapsed.
func (l *PG) Allow(ctx context.Context, pubkey string) (bool, time.Duration, error) {
	const q = `
INSERT INTO publish_limiter (pubkey, window_start, publish_count)
VALUES ($1, now(), 1)
ON CONFLICT (pubkey) DO UPDATE
SET
  publish_count = CASE WHEN now() - publish_limiter.window_start > $2::interval THEN 1 ELSE publish_limiter.publish_count + 1 END,
  window_start  = CASE WHEN now() - publish_limiter.window_start > $2::interval THEN now() ELSE publish_limiter.window_start END
RETURNING publish_count, window_start`
	var (
		count int
		start time.Time
	)
	if err := l.pool.QueryRow(ctx, q, pubkey, l.window).Scan(&count, &start); err != nil {
		return false, 0, err
	}
	if count > l.max {
		retry := l.window - time.Since(start)
		if retry < 0 {
			retry = 0
		}
		return false, retry, nil
	}
	return true, 0, nil
}
