package engine

import (
	"time"

	"go.uber.org/zap"

	"github.com/lazypower/habitpal/internal/days"
	"github.com/lazypower/habitpal/internal/model"
)

// Tick is the periodic check: it trims the progress window, applies owed
// decay and moves the sleep state machine.
func (e *Engine) Tick() {
	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.now()
	today := days.KeyIn(now, e.loc)
	e.pruneLocked(today)
	e.applyDecayLocked(now, today)
	e.evaluateSleepLocked(now)
}

// Asleep reports the current state of the sleep machine.
func (e *Engine) Asleep() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.asleep
}

// evaluateSleepLocked moves between awake and asleep. The companion's mood
// is only forced on a transition, never while staying in a state, so a
// mood set during the night sticks until morning.
func (e *Engine) evaluateSleepLocked(now time.Time) {
	in, err := days.InWindow(now, e.loc, e.settings.SleepStart, e.settings.SleepEnd)
	if err != nil {
		e.log.Warn("bad sleep window",
			zap.String("start", e.settings.SleepStart),
			zap.String("end", e.settings.SleepEnd),
			zap.Error(err),
		)
		return
	}
	if in == e.asleep {
		return
	}
	e.asleep = in

	c := e.companion
	if c == nil {
		return
	}
	if in {
		c.Mood = model.MoodSleeping
		e.log.Info("companion fell asleep", zap.String("name", c.Name))
	} else {
		c.Mood = model.MoodHappy
		e.log.Info("companion woke up", zap.String("name", c.Name))
	}
	e.pushCompanionLocked("sleep")
	e.metrics.Mutations.WithLabelValues("sleep").Inc()
}
