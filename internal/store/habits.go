package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/lazypower/habitpal/internal/model"
)

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

const habitColumns = `id, title, color, icon, frequency, time_of_day, target_count, created_at`

// Habits returns all habits ordered by creation time.
func (db *DB) Habits(ctx context.Context) ([]model.Habit, error) {
	rows, err := db.QueryContext(ctx, `SELECT `+habitColumns+` FROM habits ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("get habits: %w", err)
	}
	defer rows.Close()

	var habits []model.Habit
	for rows.Next() {
		h, err := scanHabit(rows)
		if err != nil {
			return nil, err
		}
		habits = append(habits, h)
	}
	return habits, rows.Err()
}

// GetHabit returns a habit by id, or nil if not found.
func (db *DB) GetHabit(ctx context.Context, id string) (*model.Habit, error) {
	row := db.QueryRowContext(ctx, `SELECT `+habitColumns+` FROM habits WHERE id = ?`, id)
	h, err := scanHabit(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &h, nil
}

// InsertHabit stores a new habit.
func (db *DB) InsertHabit(ctx context.Context, h model.Habit) error {
	if err := insertHabit(ctx, db, h); err != nil {
		return fmt.Errorf("insert habit: %w", err)
	}
	return nil
}

// UpdateHabit overwrites the mutable fields of an existing habit.
func (db *DB) UpdateHabit(ctx context.Context, h model.Habit) error {
	freq, err := json.Marshal(h.Frequency)
	if err != nil {
		return fmt.Errorf("encode frequency: %w", err)
	}
	result, err := db.ExecContext(ctx, `
		UPDATE habits SET title = ?, color = ?, icon = ?, frequency = ?, time_of_day = ?, target_count = ?
		WHERE id = ?
	`, h.Title, h.Color, h.Icon, string(freq), string(h.TimeOfDay), targetOf(h), h.ID)
	if err != nil {
		return fmt.Errorf("update habit: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("update habit %s: %w", h.ID, ErrNotFound)
	}
	return nil
}

// DeleteHabit removes a habit; its progress rows cascade.
func (db *DB) DeleteHabit(ctx context.Context, id string) error {
	result, err := db.ExecContext(ctx, `DELETE FROM habits WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete habit: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("delete habit %s: %w", id, ErrNotFound)
	}
	return nil
}

// ReplaceHabits makes the stored habit set equal to habits in one
// transaction. Habits missing from the new set are deleted along with their
// progress; habits that stay keep their progress.
func (db *DB) ReplaceHabits(ctx context.Context, habits []model.Habit) error {
	return WithTx(ctx, db.DB, func(tx *sql.Tx) error {
		return replaceHabits(ctx, tx, habits)
	})
}

func replaceHabits(ctx context.Context, tx *sql.Tx, habits []model.Habit) error {
	keep := make(map[string]bool, len(habits))
	for _, h := range habits {
		keep[h.ID] = true
	}

	rows, err := tx.QueryContext(ctx, `SELECT id FROM habits`)
	if err != nil {
		return fmt.Errorf("replace habits: list: %w", err)
	}
	var stale []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return fmt.Errorf("replace habits: scan: %w", err)
		}
		if !keep[id] {
			stale = append(stale, id)
		}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("replace habits: list: %w", err)
	}

	for _, id := range stale {
		if _, err := tx.ExecContext(ctx, `DELETE FROM habits WHERE id = ?`, id); err != nil {
			return fmt.Errorf("replace habits: delete %s: %w", id, err)
		}
	}
	for _, h := range habits {
		if err := upsertHabit(ctx, tx, h); err != nil {
			return fmt.Errorf("replace habits: %w", err)
		}
	}
	return nil
}

func insertHabit(ctx context.Context, ex execer, h model.Habit) error {
	freq, err := json.Marshal(h.Frequency)
	if err != nil {
		return fmt.Errorf("encode frequency: %w", err)
	}
	_, err = ex.ExecContext(ctx, `
		INSERT INTO habits (`+habitColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, h.ID, h.Title, h.Color, h.Icon, string(freq), string(h.TimeOfDay), targetOf(h), h.CreatedAt.UnixMilli())
	return err
}

func upsertHabit(ctx context.Context, ex execer, h model.Habit) error {
	freq, err := json.Marshal(h.Frequency)
	if err != nil {
		return fmt.Errorf("encode frequency: %w", err)
	}
	_, err = ex.ExecContext(ctx, `
		INSERT INTO habits (`+habitColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			color = excluded.color,
			icon = excluded.icon,
			frequency = excluded.frequency,
			time_of_day = excluded.time_of_day,
			target_count = excluded.target_count
	`, h.ID, h.Title, h.Color, h.Icon, string(freq), string(h.TimeOfDay), targetOf(h), h.CreatedAt.UnixMilli())
	return err
}

func targetOf(h model.Habit) int {
	if h.TargetCount < 1 {
		return 1
	}
	return h.TargetCount
}

type scanner interface {
	Scan(dest ...any) error
}

func scanHabit(s scanner) (model.Habit, error) {
	var h model.Habit
	var freq, tod string
	var created int64
	if err := s.Scan(&h.ID, &h.Title, &h.Color, &h.Icon, &freq, &tod, &h.TargetCount, &created); err != nil {
		if err == sql.ErrNoRows {
			return h, err
		}
		return h, fmt.Errorf("scan habit: %w", err)
	}
	if err := json.Unmarshal([]byte(freq), &h.Frequency); err != nil {
		return h, fmt.Errorf("decode frequency for %s: %w", h.ID, err)
	}
	h.TimeOfDay = model.TimeOfDay(tod)
	h.CreatedAt = time.UnixMilli(created)
	return h, nil
}
