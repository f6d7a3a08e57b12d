package engine

import (
	"go.uber.org/zap"

	"github.com/lazypower/habitpal/internal/days"
	"github.com/lazypower/habitpal/internal/model"
	"github.com/lazypower/habitpal/internal/pet"
)

// LogOption modifies a LogProgress call.
type LogOption func(*logOptions)

type logOptions struct {
	mood model.Mood
}

// WithMood sets the companion's mood explicitly instead of deriving it.
// Unknown moods are ignored.
func WithMood(m model.Mood) LogOption {
	return func(o *logOptions) {
		if m.Valid() {
			o.mood = m
		}
	}
}

// LogProgress adds one to a habit's count for date ("" means today),
// capped at the habit's target. Reaching the target grants experience;
// any other increment recovers a little health. Either way the companion's
// last interaction is stamped.
//
// It reports false, changing nothing, for an unknown habit or a date
// outside the mirrored window.
func (e *Engine) LogProgress(habitID, date string, opts ...LogOption) bool {
	var o logOptions
	for _, opt := range opts {
		opt(&o)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.now()
	today := days.KeyIn(now, e.loc)

	i := e.habitIndexLocked(habitID)
	if i < 0 {
		e.log.Debug("log progress: unknown habit", zap.String("habit_id", habitID))
		return false
	}
	key, ok := e.resolveDay(date, today)
	if !ok {
		e.log.Debug("log progress: date outside window", zap.String("habit_id", habitID), zap.String("date", date))
		return false
	}

	// Owed decay is settled before the interaction resets the clock.
	e.applyDecayLocked(now, today)

	k := progressKey{habitID, key}
	p, ok := e.progress[k]
	if !ok {
		p = model.DailyProgress{HabitID: habitID, Date: key}
	}
	target := max(e.habits[i].TargetCount, 1)
	wasCompleted := p.Completed
	before := p.CurrentCount
	if p.CurrentCount < target {
		p.CurrentCount++
	}
	p.Completed = p.CurrentCount >= target
	completedNow := p.Completed && !wasCompleted
	e.progress[k] = p

	if c := e.companion; c != nil {
		v := pet.VitalsOf(c)
		switch {
		case completedNow:
			v = pet.GainExperience(v)
		case p.CurrentCount > before:
			v.Health = pet.RecoverHealth(v.Health, v.MaxHealth)
		}
		v.Apply(c)
		c.LastInteraction = now
		c.DecayedThrough = now
		if o.mood != "" {
			c.Mood = o.mood
		} else {
			c.Mood = pet.DeriveMood(c.Health, e.asleep)
		}
		pet.RecordHealth(c, today)
		e.pushCompanionLocked("log_progress")
	}

	delta := 0
	if completedNow {
		delta = 1
	}
	gen := e.applyStatsLocked(habitID, today, delta)
	e.pushProgressLocked("log_progress", p, gen)
	e.metrics.Mutations.WithLabelValues("log_progress").Inc()
	if completedNow {
		e.metrics.Completions.Inc()
		e.log.Info("habit completed", zap.String("habit_id", habitID), zap.String("date", key))
	}
	e.observeLocked()
	return true
}

// UndoProgress takes one off a habit's count for date ("" means today) and
// clears its completed flag. Undoing a completed day takes back the
// experience it granted.
//
// It reports false for an unknown habit, a date outside the window, or a
// day with nothing to undo.
func (e *Engine) UndoProgress(habitID, date string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.now()
	today := days.KeyIn(now, e.loc)

	if e.habitIndexLocked(habitID) < 0 {
		e.log.Debug("undo progress: unknown habit", zap.String("habit_id", habitID))
		return false
	}
	key, ok := e.resolveDay(date, today)
	if !ok {
		e.log.Debug("undo progress: date outside window", zap.String("habit_id", habitID), zap.String("date", date))
		return false
	}
	k := progressKey{habitID, key}
	p, ok := e.progress[k]
	if !ok || (p.CurrentCount == 0 && !p.Completed) {
		e.log.Debug("undo progress: nothing to undo", zap.String("habit_id", habitID), zap.String("date", key))
		return false
	}

	wasCompleted := p.Completed
	p.CurrentCount = max(p.CurrentCount-1, 0)
	p.Completed = false
	e.progress[k] = p

	if c := e.companion; c != nil && wasCompleted {
		v := pet.LoseExperience(pet.VitalsOf(c))
		v.Apply(c)
		c.Mood = pet.DeriveMood(c.Health, e.asleep)
		e.pushCompanionLocked("undo_progress")
	}

	delta := 0
	if wasCompleted {
		delta = -1
	}
	gen := e.applyStatsLocked(habitID, today, delta)
	e.pushProgressLocked("undo_progress", p, gen)
	e.metrics.Mutations.WithLabelValues("undo_progress").Inc()
	e.observeLocked()
	return true
}
