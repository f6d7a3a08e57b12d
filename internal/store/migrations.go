package store

import (
	"context"
	"database/sql"
	"fmt"
)

type migration struct {
	Version     int
	Description string
	SQL         string
}

var migrations = []migration{
	{
		Version:     1,
		Description: "habits: recurring goals",
		SQL: `
CREATE TABLE habits (
    id            TEXT PRIMARY KEY,
    title         TEXT NOT NULL,
    color         TEXT NOT NULL DEFAULT '',
    icon          TEXT NOT NULL DEFAULT '',
    frequency     TEXT NOT NULL,
    time_of_day   TEXT NOT NULL DEFAULT 'anytime',
    target_count  INTEGER NOT NULL DEFAULT 1 CHECK (target_count >= 1),
    created_at    INTEGER NOT NULL
);

CREATE INDEX idx_habits_created_at ON habits(created_at);
`,
	},
	{
		Version:     2,
		Description: "daily_progress: one row per habit per calendar day",
		SQL: `
CREATE TABLE daily_progress (
    id             INTEGER PRIMARY KEY,
    habit_id       TEXT NOT NULL,
    date           TEXT NOT NULL,
    current_count  INTEGER NOT NULL DEFAULT 0 CHECK (current_count >= 0),
    completed      INTEGER NOT NULL DEFAULT 0,

    UNIQUE (habit_id, date),
    FOREIGN KEY (habit_id) REFERENCES habits(id) ON DELETE CASCADE
);

CREATE INDEX idx_progress_date      ON daily_progress(date);
CREATE INDEX idx_progress_completed ON daily_progress(habit_id, completed, date DESC);
`,
	},
	{
		Version:     3,
		Description: "companion and settings: single-row aggregates",
		SQL: `
CREATE TABLE companion (
    id                INTEGER PRIMARY KEY CHECK (id = 1),
    name              TEXT NOT NULL,
    hat               TEXT,
    color             TEXT NOT NULL DEFAULT '',
    health            INTEGER NOT NULL CHECK (health >= 0),
    max_health        INTEGER NOT NULL DEFAULT 100,
    level             INTEGER NOT NULL DEFAULT 1 CHECK (level >= 1),
    xp                INTEGER NOT NULL DEFAULT 0 CHECK (xp >= 0),
    mood              TEXT NOT NULL CHECK (mood IN ('happy', 'neutral', 'sad', 'sick', 'sleeping')),
    items             TEXT NOT NULL DEFAULT '[]',
    history           TEXT NOT NULL DEFAULT '[]',
    last_interaction  INTEGER NOT NULL,

    CHECK (health <= max_health)
);

CREATE TABLE settings (
    id             INTEGER PRIMARY KEY CHECK (id = 1),
    sleep_start    TEXT NOT NULL,
    sleep_end      TEXT NOT NULL,
    notifications  INTEGER NOT NULL DEFAULT 1,
    sound          INTEGER NOT NULL DEFAULT 1,
    theme          TEXT NOT NULL DEFAULT 'auto' CHECK (theme IN ('auto', 'light', 'dark'))
);
`,
	},
	{
		Version:     4,
		Description: "companion: track how far elapsed-time decay has been applied",
		SQL: `
ALTER TABLE companion ADD COLUMN decayed_through INTEGER NOT NULL DEFAULT 0;
UPDATE companion SET decayed_through = last_interaction;
`,
	},
}

const schemaVersionsDDL = `
CREATE TABLE IF NOT EXISTS schema_versions (
	version     INTEGER PRIMARY KEY,
	description TEXT NOT NULL,
	applied_at  INTEGER NOT NULL DEFAULT (strftime('%s', 'now') * 1000)
)`

// migrate applies every migration newer than the recorded schema version.
// Each migration and its schema_versions row commit together.
func (db *DB) migrate(ctx context.Context) error {
	if _, err := db.ExecContext(ctx, schemaVersionsDDL); err != nil {
		return fmt.Errorf("create schema_versions: %w", err)
	}
	current, err := db.SchemaVersion()
	if err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}

	for _, m := range migrations {
		if m.Version <= current {
			continue
		}
		err := WithTx(ctx, db.DB, func(tx *sql.Tx) error {
			if _, err := tx.ExecContext(ctx, m.SQL); err != nil {
				return fmt.Errorf("migration %d (%s): %w", m.Version, m.Description, err)
			}
			if _, err := tx.ExecContext(ctx,
				"INSERT INTO schema_versions (version, description) VALUES (?, ?)",
				m.Version, m.Description,
			); err != nil {
				return fmt.Errorf("record migration %d: %w", m.Version, err)
			}
			return nil
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// SchemaVersion returns the newest applied migration, 0 for a fresh file.
func (db *DB) SchemaVersion() (int, error) {
	var version int
	err := db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_versions").Scan(&version)
	if err != nil {
		return 0, fmt.Errorf("schema version: %w", err)
	}
	return version, nil
}
