package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lazypower/habitpal/internal/model"
	"github.com/lazypower/habitpal/internal/stats"
)

const progressColumns = `id, habit_id, date, current_count, completed`

// Progress returns every progress record, oldest day first.
func (db *DB) Progress(ctx context.Context) ([]model.DailyProgress, error) {
	return db.queryProgress(ctx, "get progress",
		`SELECT `+progressColumns+` FROM daily_progress ORDER BY date, habit_id`)
}

// ProgressRange returns progress with start <= date <= end.
func (db *DB) ProgressRange(ctx context.Context, start, end string) ([]model.DailyProgress, error) {
	return db.queryProgress(ctx, "progress range", `
		SELECT `+progressColumns+` FROM daily_progress
		WHERE date >= ? AND date <= ?
		ORDER BY date, habit_id
	`, start, end)
}

// RecentProgress returns the newest limit records of one habit, newest first.
func (db *DB) RecentProgress(ctx context.Context, habitID string, limit int) ([]model.DailyProgress, error) {
	return db.queryProgress(ctx, "recent progress", `
		SELECT `+progressColumns+` FROM daily_progress
		WHERE habit_id = ?
		ORDER BY date DESC LIMIT ?
	`, habitID, limit)
}

// CountCompleted returns the number of completed days of a habit.
func (db *DB) CountCompleted(ctx context.Context, habitID string) (int, error) {
	var n int
	err := db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM daily_progress WHERE habit_id = ? AND completed = 1
	`, habitID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count completed: %w", err)
	}
	return n, nil
}

// UpsertProgress writes one record keyed by (habit_id, date). On conflict
// only current_count and completed change.
func (db *DB) UpsertProgress(ctx context.Context, p model.DailyProgress) error {
	if err := upsertProgress(ctx, db, p); err != nil {
		return fmt.Errorf("upsert progress: %w", err)
	}
	return nil
}

// ReplaceProgress deletes all progress and inserts progress in one
// transaction.
func (db *DB) ReplaceProgress(ctx context.Context, progress []model.DailyProgress) error {
	return WithTx(ctx, db.DB, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM daily_progress`); err != nil {
			return fmt.Errorf("replace progress: delete: %w", err)
		}
		return insertProgress(ctx, tx, progress)
	})
}

// HabitStats returns total completions and the current streak of a habit.
// The streak walk streams completed dates newest first and stops at the
// first gap, so it never holds more than one row of history in memory.
func (db *DB) HabitStats(ctx context.Context, habitID, today string) (model.HabitStats, error) {
	out := model.HabitStats{HabitID: habitID}

	total, err := db.CountCompleted(ctx, habitID)
	if err != nil {
		return out, err
	}
	out.TotalCompletions = total

	rows, err := db.QueryContext(ctx, `
		SELECT date FROM daily_progress
		WHERE habit_id = ? AND completed = 1 AND date <= ?
		ORDER BY date DESC
	`, habitID, today)
	if err != nil {
		return out, fmt.Errorf("streak query: %w", err)
	}
	defer rows.Close()

	w := stats.NewWalker(today)
	for rows.Next() {
		var date string
		if err := rows.Scan(&date); err != nil {
			return out, fmt.Errorf("scan streak date: %w", err)
		}
		if !w.Feed(date) {
			break
		}
	}
	if err := rows.Err(); err != nil {
		return out, fmt.Errorf("streak query: %w", err)
	}
	out.CurrentStreak = w.Count()
	return out, nil
}

func insertProgress(ctx context.Context, ex execer, progress []model.DailyProgress) error {
	for _, p := range progress {
		if err := upsertProgress(ctx, ex, p); err != nil {
			return fmt.Errorf("insert progress %s/%s: %w", p.HabitID, p.Date, err)
		}
	}
	return nil
}

func upsertProgress(ctx context.Context, ex execer, p model.DailyProgress) error {
	_, err := ex.ExecContext(ctx, `
		INSERT INTO daily_progress (habit_id, date, current_count, completed)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(habit_id, date) DO UPDATE SET
			current_count = excluded.current_count,
			completed = excluded.completed
	`, p.HabitID, p.Date, p.CurrentCount, boolInt(p.Completed))
	return err
}

func (db *DB) queryProgress(ctx context.Context, op, query string, args ...any) ([]model.DailyProgress, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var out []model.DailyProgress
	for rows.Next() {
		var p model.DailyProgress
		var completed int
		if err := rows.Scan(&p.ID, &p.HabitID, &p.Date, &p.CurrentCount, &completed); err != nil {
			return nil, fmt.Errorf("scan progress: %w", err)
		}
		p.Completed = completed != 0
		out = append(out, p)
	}
	return out, rows.Err()
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
