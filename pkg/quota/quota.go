// Package quota enforces the per-user daily request limit.
package quota

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/modootree/searchstream/pkg/database"
)

// ErrLimitExceeded means the user has spent today's allowance.
var ErrLimitExceeded = errors.New("daily limit exceeded")

// Limiter counts requests per user per day. A nil database disables
// enforcement.
type Limiter struct {
	DB     *database.PostgresDB
	Limit  int
	Logger *slog.Logger
}

// NewLimiter creates a Limiter allowing limit requests per day.
func NewLimiter(db *database.PostgresDB, limit int, logger *slog.Logger) *Limiter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Limiter{DB: db, Limit: limit, Logger: logger}
}

// CheckAndConsume atomically takes one unit of today's allowance.
// The conditional upsert only increments while under the limit, so
// concurrent requests cannot overshoot.
func (l *Limiter) CheckAndConsume(ctx context.Context, uid string) error {
	if l.DB == nil || uid == "" {
		return nil
	}

	var count int
	err := l.DB.Pool.QueryRow(ctx, `
		INSERT INTO daily_usage (uid, day, count) VALUES ($1, CURRENT_DATE, 1)
		ON CONFLICT (uid, day) DO UPDATE SET count = daily_usage.count + 1
		WHERE daily_usage.count < $2
		RETURNING count`,
		uid, l.Limit).Scan(&count)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrLimitExceeded
	}
	if err != nil {
		return fmt.Errorf("failed to consume quota: %w", err)
	}
	return nil
}

// Refund returns one unit after a failed request so errors do not
// burn the user's allowance.
func (l *Limiter) Refund(uid string) {
	if l.DB == nil || uid == "" {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := l.DB.Pool.Exec(ctx, `
		UPDATE daily_usage SET count = GREATEST(count - 1, 0)
		WHERE uid = $1 AND day = CURRENT_DATE`,
		uid)
	if err != nil {
		l.Logger.Error("Failed to refund quota", "uid", uid, "error", err)
	}
}
