package engine

import (
	"cmp"
	"context"
	"errors"
	"slices"

	"go.uber.org/zap"

	"github.com/lazypower/habitpal/internal/model"
	"github.com/lazypower/habitpal/internal/stats"
	"github.com/lazypower/habitpal/internal/store"
)

// The helpers below probe the backend for an optional capability and fall
// back to the whole-collection equivalent when it is missing.

func (e *Engine) insertHabit(ctx context.Context, h model.Habit, all []model.Habit) error {
	if w, ok := e.backend.(store.HabitWriter); ok {
		return w.InsertHabit(ctx, h)
	}
	return e.backend.ReplaceHabits(ctx, all)
}

func (e *Engine) updateHabit(ctx context.Context, h model.Habit, all []model.Habit) error {
	w, ok := e.backend.(store.HabitWriter)
	if !ok {
		return e.backend.ReplaceHabits(ctx, all)
	}
	err := w.UpdateHabit(ctx, h)
	if errors.Is(err, store.ErrNotFound) {
		// The insert was lost to an earlier failed write.
		return w.InsertHabit(ctx, h)
	}
	return err
}

func (e *Engine) deleteHabit(ctx context.Context, id string, remaining []model.Habit) error {
	if w, ok := e.backend.(store.HabitWriter); ok {
		if err := w.DeleteHabit(ctx, id); err != nil && !errors.Is(err, store.ErrNotFound) {
			return err
		}
		return nil
	}
	if err := e.backend.ReplaceHabits(ctx, remaining); err != nil {
		return err
	}
	all, err := e.backend.Progress(ctx)
	if err != nil {
		return err
	}
	kept := slices.DeleteFunc(all, func(p model.DailyProgress) bool { return p.HabitID == id })
	return e.backend.ReplaceProgress(ctx, kept)
}

func (e *Engine) upsertProgress(ctx context.Context, p model.DailyProgress) error {
	if u, ok := e.backend.(store.ProgressUpserter); ok {
		return u.UpsertProgress(ctx, p)
	}
	all, err := e.backend.Progress(ctx)
	if err != nil {
		return err
	}
	i := slices.IndexFunc(all, func(r model.DailyProgress) bool {
		return r.HabitID == p.HabitID && r.Date == p.Date
	})
	if i >= 0 {
		all[i].CurrentCount = p.CurrentCount
		all[i].Completed = p.Completed
	} else {
		all = append(all, p)
	}
	return e.backend.ReplaceProgress(ctx, all)
}

func (e *Engine) progressRange(ctx context.Context, start, end string) ([]model.DailyProgress, error) {
	if q, ok := e.backend.(store.RangeQuerier); ok {
		return q.ProgressRange(ctx, start, end)
	}
	all, err := e.backend.Progress(ctx)
	if err != nil {
		return nil, err
	}
	return slices.DeleteFunc(all, func(p model.DailyProgress) bool {
		return p.Date < start || p.Date > end
	}), nil
}

func (e *Engine) habitStats(ctx context.Context, habitID, today string) (model.HabitStats, error) {
	if q, ok := e.backend.(store.StatsQuerier); ok {
		return q.HabitStats(ctx, habitID, today)
	}
	all, err := e.backend.Progress(ctx)
	if err != nil {
		return model.HabitStats{}, err
	}
	return stats.Compute(all, habitID, today), nil
}

func (e *Engine) resetAll(ctx context.Context) error {
	if r, ok := e.backend.(store.Resetter); ok {
		return r.ResetAll(ctx)
	}
	if err := e.backend.ReplaceProgress(ctx, nil); err != nil {
		return err
	}
	if err := e.backend.ReplaceHabits(ctx, nil); err != nil {
		return err
	}
	return e.backend.SetCompanion(ctx, nil)
}

// RecentProgress reads the newest limit records of a habit from the store,
// beyond the in-memory window if need be.
func (e *Engine) RecentProgress(ctx context.Context, habitID string, limit int) ([]model.DailyProgress, error) {
	if c, ok := e.backend.(store.Counter); ok {
		return c.RecentProgress(ctx, habitID, limit)
	}
	all, err := e.backend.Progress(ctx)
	if err != nil {
		return nil, err
	}
	out := slices.DeleteFunc(all, func(p model.DailyProgress) bool { return p.HabitID != habitID })
	slices.SortFunc(out, func(a, b model.DailyProgress) int {
		return cmp.Compare(b.Date, a.Date)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// applyStatsLocked updates a habit's mirrored stats for a progress change
// without waiting for the store. delta is the change in completed days.
// The streak is recounted from the window. A streak that reaches the oldest
// mirrored day may be longer in the store, so there the larger value is
// kept until refreshStats answers. It returns the new stats generation.
func (e *Engine) applyStatsLocked(habitID, today string, delta int) uint64 {
	records := make([]model.DailyProgress, 0, e.window)
	for k, p := range e.progress {
		if k.habitID == habitID {
			records = append(records, p)
		}
	}
	s := e.stats[habitID]
	s.HabitID = habitID
	s.TotalCompletions = max(s.TotalCompletions+delta, 0)
	streak := stats.ComputeStreak(records, habitID, today)
	if streak >= e.window-1 {
		streak = max(streak, s.CurrentStreak)
	}
	s.CurrentStreak = streak
	e.stats[habitID] = s
	e.statsGen[habitID]++
	return e.statsGen[habitID]
}

// refreshStats recomputes one habit's stats from the store. It runs on the
// writer goroutine after a progress write and is discarded when a newer
// in-memory change (gen) has happened since the write was queued.
func (e *Engine) refreshStats(ctx context.Context, habitID string, gen uint64) {
	s, err := e.habitStats(ctx, habitID, e.today())
	if err != nil {
		e.reportWrite("habit_stats", err)
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.habitIndexLocked(habitID) < 0 || e.statsGen[habitID] != gen {
		return
	}
	e.stats[habitID] = s
	e.log.Debug("stats refreshed",
		zap.String("habit_id", habitID),
		zap.Int("total", s.TotalCompletions),
		zap.Int("streak", s.CurrentStreak),
	)
}

// The push helpers copy the value to write while the lock is held.

func (e *Engine) pushProgressLocked(op string, p model.DailyProgress, gen uint64) {
	e.queue.push(op, func(ctx context.Context) error {
		if err := e.upsertProgress(ctx, p); err != nil {
			return err
		}
		e.refreshStats(ctx, p.HabitID, gen)
		return nil
	})
}

func (e *Engine) pushCompanionLocked(op string) {
	c := e.companion.Clone()
	e.queue.push(op, func(ctx context.Context) error {
		return e.backend.SetCompanion(ctx, c)
	})
}

func (e *Engine) pushSettingsLocked(op string) {
	s := e.settings
	e.queue.push(op, func(ctx context.Context) error {
		return e.backend.SetSettings(ctx, s)
	})
}

func (e *Engine) habitsSnapshotLocked() []model.Habit {
	out := make([]model.Habit, len(e.habits))
	for i, h := range e.habits {
		h.Frequency.Days = slices.Clone(h.Frequency.Days)
		out[i] = h
	}
	return out
}
