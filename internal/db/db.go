package db

import (
	"context"
	"fmt"
	"log/slog"

	_ "github.com/glebarez/go-sqlite"
	"github.com/jmoiron/sqlx"
)

const driverName = "sqlite"

var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		username TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		created_at DATETIME NOT NULL
	);`,
	`CREATE TABLE IF NOT EXISTS game_results (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		game_id TEXT NOT NULL UNIQUE,
		session_id TEXT NOT NULL,
		player_id TEXT NOT NULL,
		human_mark TEXT NOT NULL,
		bot_mark TEXT NOT NULL,
		difficulty TEXT NOT NULL,
		outcome TEXT NOT NULL,
		winner TEXT NOT NULL DEFAULT '',
		result TEXT NOT NULL,
		board TEXT NOT NULL,
		moves INTEGER NOT NULL,
		finished_at DATETIME NOT NULL
	);`,
	`CREATE INDEX IF NOT EXISTS idx_game_results_player ON game_results (player_id, finished_at);`,
}

// Connect opens the SQLite database at path. ":memory:" gives a private
// in-memory database, pinned to a single connection so every query sees it.
func Connect(ctx context.Context, path string) (*sqlx.DB, error) {
	pool, err := sqlx.Open(driverName, path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	if path == ":memory:" {
		pool.SetMaxOpenConns(1)
	}
	if err := pool.PingContext(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping sqlite database: %w", err)
	}
	return pool, nil
}

// Migrate creates the tables if they don't exist.
func Migrate(ctx context.Context, db *sqlx.DB) error {
	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
		return fmt.Errorf("failed to enable foreign keys: %w", err)
	}
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}
	slog.InfoContext(ctx, "DB schema verified")
	return nil
}

// Open connects to path and applies the schema.
func Open(ctx context.Context, path string) (*sqlx.DB, error) {
	pool, err := Connect(ctx, path)
	if err != nil {
		return nil, err
	}
	if err := Migrate(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}
	slog.InfoContext(ctx, "Connected to sqlite database", "path", path)
	return pool, nil
}
