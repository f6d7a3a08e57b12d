package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lazypower/habitpal/internal/model"
)

// MigrationResult reports what MigrateLegacy copied.
type MigrationResult struct {
	Skipped   bool
	Habits    int
	Progress  int
	Companion bool
	Settings  bool
}

// IsPopulated reports whether the database already holds user data.
func (db *DB) IsPopulated(ctx context.Context) (bool, error) {
	var n int
	err := db.QueryRowContext(ctx, `
		SELECT (SELECT COUNT(*) FROM habits) + (SELECT COUNT(*) FROM companion)
	`).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("check populated: %w", err)
	}
	return n > 0, nil
}

// MigrateLegacy copies everything from src into dst in one transaction.
// It is a no-op when dst is already populated, so running it twice leaves
// the same data as running it once. A failure rolls back the whole copy.
func MigrateLegacy(ctx context.Context, src Backend, dst *DB) (MigrationResult, error) {
	var res MigrationResult

	populated, err := dst.IsPopulated(ctx)
	if err != nil {
		return res, err
	}
	if populated {
		res.Skipped = true
		return res, nil
	}

	habits, err := src.Habits(ctx)
	if err != nil {
		return res, fmt.Errorf("read legacy habits: %w", err)
	}
	progress, err := src.Progress(ctx)
	if err != nil {
		return res, fmt.Errorf("read legacy progress: %w", err)
	}
	companion, err := src.Companion(ctx)
	if err != nil {
		return res, fmt.Errorf("read legacy companion: %w", err)
	}
	settings, err := src.Settings(ctx)
	if err != nil {
		return res, fmt.Errorf("read legacy settings: %w", err)
	}

	// Progress for habits that no longer exist would violate the foreign key.
	known := make(map[string]bool, len(habits))
	for _, h := range habits {
		known[h.ID] = true
	}
	kept := progress[:0:0]
	for _, p := range progress {
		if known[p.HabitID] {
			kept = append(kept, p)
		}
	}

	err = WithTx(ctx, dst.DB, func(tx *sql.Tx) error {
		for _, h := range habits {
			if err := insertHabit(ctx, tx, h); err != nil {
				return fmt.Errorf("migrate habit %s: %w", h.ID, err)
			}
		}
		if err := insertProgress(ctx, tx, kept); err != nil {
			return fmt.Errorf("migrate progress: %w", err)
		}
		if companion != nil {
			if err := setCompanion(ctx, tx, normalizeLegacyCompanion(companion)); err != nil {
				return fmt.Errorf("migrate companion: %w", err)
			}
		}
		if settings != nil {
			if err := setSettings(ctx, tx, *settings); err != nil {
				return fmt.Errorf("migrate settings: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return res, err
	}

	res.Habits = len(habits)
	res.Progress = len(kept)
	res.Companion = companion != nil
	res.Settings = settings != nil
	return res, nil
}

// normalizeLegacyCompanion fills fields the legacy format did not carry.
func normalizeLegacyCompanion(c *model.Companion) *model.Companion {
	c = c.Clone()
	if c.MaxHealth <= 0 {
		c.MaxHealth = 100
	}
	c.Health = max(0, min(c.Health, c.MaxHealth))
	if c.Level < 1 {
		c.Level = 1
	}
	if c.XP < 0 {
		c.XP = 0
	}
	if !c.Mood.Valid() {
		c.Mood = model.MoodHappy
	}
	if c.DecayedThrough.IsZero() {
		c.DecayedThrough = c.LastInteraction
	}
	return c
}
