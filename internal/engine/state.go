package engine

import (
	"cmp"
	"maps"
	"slices"
	"time"

	"github.com/lazypower/habitpal/internal/days"
	"github.com/lazypower/habitpal/internal/model"
)

// State is the read model handed to presentation. It is a deep copy and
// may be kept or modified freely.
type State struct {
	Today        string                      `json:"today"`
	Habits       []model.Habit               `json:"habits"`
	Companion    *model.Companion            `json:"companion"`
	Progress     []model.DailyProgress       `json:"progress"`
	Stats        map[string]model.HabitStats `json:"stats"`
	Settings     model.Settings              `json:"settings"`
	IsOnboarding bool                        `json:"isOnboarding"`
	Asleep       bool                        `json:"asleep"`
}

// Reminders is what a notification scheduler needs to pick reminder times.
type Reminders struct {
	Today           string                `json:"today"`
	Enabled         bool                  `json:"notificationsEnabled"`
	Habits          []model.Habit         `json:"habits"`
	Progress        []model.DailyProgress `json:"progress"`
	Due             []string              `json:"due"`
	CompanionName   string                `json:"companionName,omitempty"`
	LastInteraction *time.Time            `json:"lastInteraction,omitempty"`
}

// Snapshot returns a copy of the current state.
func (e *Engine) Snapshot() State {
	e.mu.Lock()
	defer e.mu.Unlock()

	return State{
		Today:        e.today(),
		Habits:       e.habitsSnapshotLocked(),
		Companion:    e.companion.Clone(),
		Progress:     e.progressLocked(""),
		Stats:        maps.Clone(e.stats),
		Settings:     e.settings,
		IsOnboarding: e.companion == nil,
		Asleep:       e.asleep,
	}
}

// Reminders returns today's reminder view. Due lists the habits scheduled
// today whose target is not reached yet.
func (e *Engine) Reminders() Reminders {
	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.now()
	today := days.KeyIn(now, e.loc)
	weekday := now.In(e.loc).Weekday()

	r := Reminders{
		Today:    today,
		Enabled:  e.settings.Notifications,
		Habits:   e.habitsSnapshotLocked(),
		Progress: e.progressLocked(today),
		Due:      []string{},
	}
	for _, h := range e.habits {
		if !h.Frequency.ScheduledOn(weekday) {
			continue
		}
		if p, ok := e.progress[progressKey{h.ID, today}]; ok && p.Completed {
			continue
		}
		r.Due = append(r.Due, h.ID)
	}
	if c := e.companion; c != nil {
		r.CompanionName = c.Name
		last := c.LastInteraction
		r.LastInteraction = &last
	}
	return r
}

// HabitStats returns the cached stats of a habit.
func (e *Engine) HabitStats(habitID string) (model.HabitStats, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	s, ok := e.stats[habitID]
	return s, ok
}

// Habit returns a habit by id.
func (e *Engine) Habit(id string) (model.Habit, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	i := e.habitIndexLocked(id)
	if i < 0 {
		return model.Habit{}, false
	}
	return e.habitsSnapshotLocked()[i], true
}

// progressLocked returns mirrored progress sorted by date then habit,
// restricted to one day when day is set.
func (e *Engine) progressLocked(day string) []model.DailyProgress {
	out := make([]model.DailyProgress, 0, len(e.progress))
	for k, p := range e.progress {
		if day != "" && k.date != day {
			continue
		}
		out = append(out, p)
	}
	slices.SortFunc(out, func(a, b model.DailyProgress) int {
		if c := cmp.Compare(a.Date, b.Date); c != 0 {
			return c
		}
		return cmp.Compare(a.HabitID, b.HabitID)
	})
	return out
}
