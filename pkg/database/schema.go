package database

import (
	"context"
	"fmt"
)

func (db *PostgresDB) InitSchema(ctx context.Context) error {
	// 1. Chat Messages Table
	messagesQuery := `
		CREATE TABLE IF NOT EXISTS chat_messages (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			uid TEXT NOT NULL,
			query TEXT NOT NULL,
			category TEXT NOT NULL,
			answer TEXT,
			from_cache BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
		);
	`
	if _, err := db.Pool.Exec(ctx, messagesQuery); err != nil {
		return fmt.Errorf("failed to create chat_messages table: %w", err)
	}

	// 2. Daily Usage Table
	usageQuery := `
		CREATE TABLE IF NOT EXISTS daily_usage (
			uid TEXT NOT NULL,
			day DATE NOT NULL,
			count INTEGER NOT NULL DEFAULT 0,
			PRIMARY KEY (uid, day)
		);
	`
	if _, err := db.Pool.Exec(ctx, usageQuery); err != nil {
		return fmt.Errorf("failed to create daily_usage table: %w", err)
	}

	// Indexes for faster querying
	if _, err := db.Pool.Exec(ctx, "CREATE INDEX IF NOT EXISTS idx_chat_messages_uid ON chat_messages(uid, created_at DESC)"); err != nil {
		return fmt.Errorf("failed to create index on chat_messages: %w", err)
	}

	return nil
}
