package db

import (
	"database/sql"
	"fmt"
)

// migrations is an ordered list of SQL migration statements.
// Each entry is applied once in order. New migrations are appended at the end.
var migrations = []string{
	// Migration 0: one row per analysis cycle
	`CREATE TABLE IF NOT EXISTS cycles (
		id                    TEXT PRIMARY KEY DEFAULT (lower(hex(randomblob(16)))),
		started_at            TEXT NOT NULL,
		duration_ms           INTEGER NOT NULL DEFAULT 0,
		outcome               TEXT NOT NULL,
		display_text          TEXT NOT NULL,
		comment               TEXT NOT NULL DEFAULT '',
		delta                 INTEGER NOT NULL DEFAULT 0,
		reason                TEXT NOT NULL DEFAULT '',
		score                 INTEGER NOT NULL DEFAULT 0,
		tier_changed          INTEGER NOT NULL DEFAULT 0,
		classification_source TEXT NOT NULL DEFAULT 'none',
		distribution          TEXT NOT NULL DEFAULT '{}',
		error                 TEXT NOT NULL DEFAULT ''
	)`,

	`CREATE INDEX IF NOT EXISTS idx_cycles_started ON cycles(started_at DESC)`,
	`CREATE INDEX IF NOT EXISTS idx_cycles_outcome ON cycles(outcome)`,

	// Migration 3: migration tracking table
	`CREATE TABLE IF NOT EXISTS schema_migrations (
		version    INTEGER PRIMARY KEY,
		applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)`,
}

// applyMigrations runs any migrations that have not yet been applied.
func applyMigrations(conn *sql.DB) error {
	// Ensure the migration tracking table exists first.
	if _, err := conn.Exec(`CREATE TABLE IF NOT EXISTS schema_migrations (
		version    INTEGER PRIMARY KEY,
		applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)`); err != nil {
		return fmt.Errorf("create schema_migrations: %w", err)
	}

	for i, stmt := range migrations {
		var count int
		row := conn.QueryRow(`SELECT COUNT(*) FROM schema_migrations WHERE version = ?`, i)
		if err := row.Scan(&count); err != nil {
			return fmt.Errorf("check migration %d: %w", i, err)
		}
		if count > 0 {
			continue
		}

		tx, err := conn.Begin()
		if err != nil {
			return fmt.Errorf("begin migration %d: %w", i, err)
		}
		if _, err := tx.Exec(stmt); err != nil {
			tx.Rollback()
			return fmt.Errorf("apply migration %d: %w", i, err)
		}
		if _, err := tx.Exec(`INSERT INTO schema_migrations (version) VALUES (?)`, i); err != nil {
			tx.Rollback()
			return fmt.Errorf("record migration %d: %w", i, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration %d: %w", i, err)
		}
	}

	return nil
}
