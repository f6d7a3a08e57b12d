package engine

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/lazypower/habitpal/internal/model"
)

// ErrInvalid marks input rejected before any state changes.
var ErrInvalid = errors.New("invalid input")

// NewHabit is the input to AddHabit. Zero values get defaults: daily,
// anytime, a target of one.
type NewHabit struct {
	Title       string          `json:"title"`
	Color       string          `json:"color"`
	Icon        string          `json:"icon"`
	Frequency   model.Frequency `json:"frequency"`
	TimeOfDay   model.TimeOfDay `json:"timeOfDay"`
	TargetCount int             `json:"targetCount"`
}

// Validate checks the fields a caller must get right.
func (n NewHabit) Validate() error {
	if strings.TrimSpace(n.Title) == "" {
		return fmt.Errorf("%w: title is required", ErrInvalid)
	}
	if n.TargetCount < 0 {
		return fmt.Errorf("%w: target count must be positive", ErrInvalid)
	}
	if n.Frequency.Kind != "" {
		if err := n.Frequency.Validate(); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalid, err)
		}
	}
	return validTimeOfDay(n.TimeOfDay)
}

// HabitPatch changes the mutable fields of a habit. Nil fields are left alone.
type HabitPatch struct {
	Title       *string          `json:"title,omitempty"`
	Color       *string          `json:"color,omitempty"`
	Icon        *string          `json:"icon,omitempty"`
	Frequency   *model.Frequency `json:"frequency,omitempty"`
	TimeOfDay   *model.TimeOfDay `json:"timeOfDay,omitempty"`
	TargetCount *int             `json:"targetCount,omitempty"`
}

// Validate checks every non-nil field.
func (p HabitPatch) Validate() error {
	if p.Title != nil && strings.TrimSpace(*p.Title) == "" {
		return fmt.Errorf("%w: title is required", ErrInvalid)
	}
	if p.TargetCount != nil && *p.TargetCount < 1 {
		return fmt.Errorf("%w: target count must be positive", ErrInvalid)
	}
	if p.Frequency != nil {
		if err := p.Frequency.Validate(); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalid, err)
		}
	}
	if p.TimeOfDay != nil {
		return validTimeOfDay(*p.TimeOfDay)
	}
	return nil
}

func (p HabitPatch) apply(h *model.Habit) {
	if p.Title != nil {
		h.Title = strings.TrimSpace(*p.Title)
	}
	if p.Color != nil {
		h.Color = *p.Color
	}
	if p.Icon != nil {
		h.Icon = *p.Icon
	}
	if p.Frequency != nil {
		h.Frequency = model.Frequency{Kind: p.Frequency.Kind, Days: slices.Clone(p.Frequency.Days)}
	}
	if p.TimeOfDay != nil {
		h.TimeOfDay = *p.TimeOfDay
	}
	if p.TargetCount != nil {
		h.TargetCount = *p.TargetCount
	}
}

func validTimeOfDay(t model.TimeOfDay) error {
	switch t {
	case "", model.TimeMorning, model.TimeAfternoon, model.TimeEvening, model.TimeAnytime:
		return nil
	}
	return fmt.Errorf("%w: unknown time of day %q", ErrInvalid, t)
}

// AddHabit creates a habit with a fresh id.
func (e *Engine) AddHabit(in NewHabit) (model.Habit, error) {
	if err := in.Validate(); err != nil {
		return model.Habit{}, err
	}
	h := model.Habit{
		ID:          uuid.NewString(),
		Title:       strings.TrimSpace(in.Title),
		Color:       in.Color,
		Icon:        in.Icon,
		Frequency:   model.Frequency{Kind: in.Frequency.Kind, Days: slices.Clone(in.Frequency.Days)},
		TimeOfDay:   in.TimeOfDay,
		TargetCount: max(in.TargetCount, 1),
		CreatedAt:   e.now(),
	}
	if h.Frequency.Kind == "" {
		h.Frequency.Kind = model.FrequencyDaily
	}
	if h.TimeOfDay == "" {
		h.TimeOfDay = model.TimeAnytime
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.habits = append(e.habits, h)
	e.stats[h.ID] = model.HabitStats{HabitID: h.ID}
	all := e.habitsSnapshotLocked()
	e.queue.push("add_habit", func(ctx context.Context) error {
		return e.insertHabit(ctx, h, all)
	})
	e.metrics.Mutations.WithLabelValues("add_habit").Inc()
	e.observeLocked()
	e.log.Info("habit added", zap.String("habit_id", h.ID), zap.String("title", h.Title))
	return h, nil
}

// UpdateHabit applies p to the habit. It reports false, changing nothing,
// for an unknown id or an invalid patch.
func (e *Engine) UpdateHabit(id string, p HabitPatch) (model.Habit, bool) {
	if err := p.Validate(); err != nil {
		e.log.Debug("update habit: rejected", zap.String("habit_id", id), zap.Error(err))
		return model.Habit{}, false
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	i := e.habitIndexLocked(id)
	if i < 0 {
		e.log.Debug("update habit: unknown habit", zap.String("habit_id", id))
		return model.Habit{}, false
	}
	p.apply(&e.habits[i])
	all := e.habitsSnapshotLocked()
	h := all[i]
	e.queue.push("update_habit", func(ctx context.Context) error {
		return e.updateHabit(ctx, h, all)
	})
	e.metrics.Mutations.WithLabelValues("update_habit").Inc()
	return h, true
}

// DeleteHabit removes the habit with its progress and stats. It reports
// false for an unknown id.
func (e *Engine) DeleteHabit(id string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	i := e.habitIndexLocked(id)
	if i < 0 {
		e.log.Debug("delete habit: unknown habit", zap.String("habit_id", id))
		return false
	}
	e.habits = slices.Delete(e.habits, i, i+1)
	for k := range e.progress {
		if k.habitID == id {
			delete(e.progress, k)
		}
	}
	delete(e.stats, id)

	remaining := e.habitsSnapshotLocked()
	e.queue.push("delete_habit", func(ctx context.Context) error {
		return e.deleteHabit(ctx, id, remaining)
	})
	e.metrics.Mutations.WithLabelValues("delete_habit").Inc()
	e.observeLocked()
	e.log.Info("habit deleted", zap.String("habit_id", id))
	return true
}
