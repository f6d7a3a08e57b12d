package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/lazypower/habitpal/internal/model"
)

// Companion and settings are single rows pinned to id = 1. Writes upsert
// that key, so the store can never hold two.
const singletonID = 1

// Companion returns the companion, or nil if none was created.
func (db *DB) Companion(ctx context.Context) (*model.Companion, error) {
	var c model.Companion
	var hat sql.NullString
	var mood, items, history string
	var last, decayed int64
	err := db.QueryRowContext(ctx, `
		SELECT name, hat, color, health, max_health, level, xp, mood, items, history, last_interaction, decayed_through
		FROM companion WHERE id = ?
	`, singletonID).Scan(&c.Name, &hat, &c.Color, &c.Health, &c.MaxHealth, &c.Level, &c.XP,
		&mood, &items, &history, &last, &decayed)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get companion: %w", err)
	}

	c.Hat = hat.String
	c.Mood = model.Mood(mood)
	if err := json.Unmarshal([]byte(items), &c.Items); err != nil {
		return nil, fmt.Errorf("decode companion items: %w", err)
	}
	if err := json.Unmarshal([]byte(history), &c.History); err != nil {
		return nil, fmt.Errorf("decode companion history: %w", err)
	}
	c.LastInteraction = time.UnixMilli(last)
	c.DecayedThrough = time.UnixMilli(decayed)
	return &c, nil
}

// SetCompanion upserts the companion; nil deletes it.
func (db *DB) SetCompanion(ctx context.Context, c *model.Companion) error {
	if err := setCompanion(ctx, db, c); err != nil {
		return fmt.Errorf("set companion: %w", err)
	}
	return nil
}

func setCompanion(ctx context.Context, ex execer, c *model.Companion) error {
	if c == nil {
		_, err := ex.ExecContext(ctx, `DELETE FROM companion WHERE id = ?`, singletonID)
		return err
	}

	items, err := json.Marshal(nonNil(c.Items))
	if err != nil {
		return fmt.Errorf("encode items: %w", err)
	}
	history, err := json.Marshal(nonNil(c.History))
	if err != nil {
		return fmt.Errorf("encode history: %w", err)
	}
	decayed := c.DecayedThrough
	if decayed.IsZero() {
		decayed = c.LastInteraction
	}

	_, err = ex.ExecContext(ctx, `
		INSERT INTO companion (id, name, hat, color, health, max_health, level, xp, mood, items, history, last_interaction, decayed_through)
		VALUES (?, ?, NULLIF(?, ''), ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			hat = excluded.hat,
			color = excluded.color,
			health = excluded.health,
			max_health = excluded.max_health,
			level = excluded.level,
			xp = excluded.xp,
			mood = excluded.mood,
			items = excluded.items,
			history = excluded.history,
			last_interaction = excluded.last_interaction,
			decayed_through = excluded.decayed_through
	`, singletonID, c.Name, c.Hat, c.Color, c.Health, c.MaxHealth, c.Level, c.XP, string(c.Mood),
		string(items), string(history), c.LastInteraction.UnixMilli(), decayed.UnixMilli())
	return err
}

// Settings returns the stored settings, or nil if never saved.
func (db *DB) Settings(ctx context.Context) (*model.Settings, error) {
	var s model.Settings
	var notifications, sound int
	var theme string
	err := db.QueryRowContext(ctx, `
		SELECT sleep_start, sleep_end, notifications, sound, theme FROM settings WHERE id = ?
	`, singletonID).Scan(&s.SleepStart, &s.SleepEnd, &notifications, &sound, &theme)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get settings: %w", err)
	}
	s.Notifications = notifications != 0
	s.Sound = sound != 0
	s.Theme = model.Theme(theme)
	return &s, nil
}

// SetSettings upserts the settings row.
func (db *DB) SetSettings(ctx context.Context, s model.Settings) error {
	if err := setSettings(ctx, db, s); err != nil {
		return fmt.Errorf("set settings: %w", err)
	}
	return nil
}

func setSettings(ctx context.Context, ex execer, s model.Settings) error {
	theme := s.Theme
	if theme == "" {
		theme = model.ThemeAuto
	}
	_, err := ex.ExecContext(ctx, `
		INSERT INTO settings (id, sleep_start, sleep_end, notifications, sound, theme)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			sleep_start = excluded.sleep_start,
			sleep_end = excluded.sleep_end,
			notifications = excluded.notifications,
			sound = excluded.sound,
			theme = excluded.theme
	`, singletonID, s.SleepStart, s.SleepEnd, boolInt(s.Notifications), boolInt(s.Sound), string(theme))
	return err
}

// ResetAll deletes habits, progress and the companion in one transaction.
func (db *DB) ResetAll(ctx context.Context) error {
	return WithTx(ctx, db.DB, func(tx *sql.Tx) error {
		for _, q := range []string{
			`DELETE FROM daily_progress`,
			`DELETE FROM habits`,
			`DELETE FROM companion`,
		} {
			if _, err := tx.ExecContext(ctx, q); err != nil {
				return fmt.Errorf("reset: %w", err)
			}
		}
		return nil
	})
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
