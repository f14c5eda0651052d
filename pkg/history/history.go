// Package history persists answered queries for later review.
package history

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/modootree/searchstream/pkg/database"
)

// Message is one saved query/answer pair.
type Message struct {
	ID        uuid.UUID `json:"id"`
	UID       string    `json:"uid"`
	Query     string    `json:"query"`
	Category  string    `json:"category"`
	Answer    string    `json:"answer"`
	FromCache bool      `json:"from_cache"`
	CreatedAt time.Time `json:"created_at"`
}

// Recorder writes chat history. A nil database disables persistence.
type Recorder struct {
	DB     *database.PostgresDB
	Logger *slog.Logger
}

// NewRecorder creates a Recorder. db may be nil.
func NewRecorder(db *database.PostgresDB, logger *slog.Logger) *Recorder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Recorder{DB: db, Logger: logger}
}

// Record saves one answered query. Failures are logged, never
// surfaced; history must not break the answer stream.
func (r *Recorder) Record(ctx context.Context, msg Message) {
	if r.DB == nil {
		return
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	_, err := r.DB.Pool.Exec(ctx,
		`INSERT INTO chat_messages (id, uid, query, category, answer, from_cache) VALUES ($1, $2, $3, $4, $5, $6)`,
		uuid.New(), msg.UID, msg.Query, msg.Category, msg.Answer, msg.FromCache)
	if err != nil {
		r.Logger.Error("Failed to save chat message", "uid", msg.UID, "error", err)
	}
}

// Recent returns the latest messages for a user, newest first.
func (r *Recorder) Recent(ctx context.Context, uid string, limit int) ([]Message, error) {
	if r.DB == nil {
		return nil, nil
	}
	if limit <= 0 {
		limit = 20
	}

	rows, err := r.DB.Pool.Query(ctx,
		`SELECT id, uid, query, category, answer, from_cache, created_at
		 FROM chat_messages WHERE uid = $1 ORDER BY created_at DESC LIMIT $2`,
		uid, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query chat messages: %w", err)
	}
	defer rows.Close()

	var msgs []Message
	for rows.Next() {
		var m Message
		if err := rows.Scan(&m.ID, &m.UID, &m.Query, &m.Category, &m.Answer, &m.FromCache, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan chat message: %w", err)
		}
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}
