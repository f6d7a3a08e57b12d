// Package store persists habits, daily progress, the companion and settings.
//
// Backend is the capability every storage implementation provides:
// whole-collection reads and transactional whole-collection replacement,
// plus get/set accessors for the two singletons. Faster paths are optional
// interfaces (HabitWriter, ProgressUpserter, RangeQuerier, StatsQuerier,
// Counter, Resetter) that callers probe for with a type assertion and fall
// back from when absent.
package store

import (
	"context"
	"errors"

	"github.com/lazypower/habitpal/internal/model"
)

// ErrNotFound is returned by single-record operations on a missing id.
var ErrNotFound = errors.New("not found")

// Backend is the required storage capability.
type Backend interface {
	Habits(ctx context.Context) ([]model.Habit, error)
	ReplaceHabits(ctx context.Context, habits []model.Habit) error

	Progress(ctx context.Context) ([]model.DailyProgress, error)
	ReplaceProgress(ctx context.Context, progress []model.DailyProgress) error

	// Companion returns nil, nil when no companion exists.
	Companion(ctx context.Context) (*model.Companion, error)
	// SetCompanion stores the singleton; nil removes it.
	SetCompanion(ctx context.Context, c *model.Companion) error

	// Settings returns nil, nil when settings were never saved.
	Settings(ctx context.Context) (*model.Settings, error)
	SetSettings(ctx context.Context, s model.Settings) error
}

// HabitWriter provides atomic single-habit writes. DeleteHabit also removes
// the habit's progress.
type HabitWriter interface {
	InsertHabit(ctx context.Context, h model.Habit) error
	UpdateHabit(ctx context.Context, h model.Habit) error
	DeleteHabit(ctx context.Context, id string) error
}

// ProgressUpserter writes one progress record by its (habit, date) key,
// overwriting only the count and completed flag on conflict.
type ProgressUpserter interface {
	UpsertProgress(ctx context.Context, p model.DailyProgress) error
}

// RangeQuerier reads progress for an inclusive range of day keys.
type RangeQuerier interface {
	ProgressRange(ctx context.Context, start, end string) ([]model.DailyProgress, error)
}

// StatsQuerier computes a habit's stats inside the store.
type StatsQuerier interface {
	HabitStats(ctx context.Context, habitID, today string) (model.HabitStats, error)
}

// Counter answers aggregate progress queries without loading history.
type Counter interface {
	CountCompleted(ctx context.Context, habitID string) (int, error)
	RecentProgress(ctx context.Context, habitID string, limit int) ([]model.DailyProgress, error)
}

// Resetter clears habits, progress and the companion in one step. Settings
// survive.
type Resetter interface {
	ResetAll(ctx context.Context) error
}
