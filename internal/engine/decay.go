package engine

import (
	"time"

	"go.uber.org/zap"

	"github.com/lazypower/habitpal/internal/days"
	"github.com/lazypower/habitpal/internal/model"
	"github.com/lazypower/habitpal/internal/pet"
)

// Decay:
//   - pet.DecayPenalty gives the total health owed since the last interaction
//     (first day free, then DecayPerDay per day).
//   - DecayedThrough records how much of that was already taken, so the
//     check can run on load, on every tick and before every interaction
//     without charging the same day twice.
//   - An interaction resets both LastInteraction and DecayedThrough to now.

// CheckDecay applies any decay owed at the current time and returns the
// health lost.
func (e *Engine) CheckDecay() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	now := e.now()
	return e.applyDecayLocked(now, days.KeyIn(now, e.loc))
}

func (e *Engine) applyDecayLocked(now time.Time, today string) int {
	c := e.companion
	if c == nil {
		return 0
	}
	through := c.DecayedThrough
	if through.Before(c.LastInteraction) {
		through = c.LastInteraction
	}
	owed := pet.DecayPenalty(c.LastInteraction, now) - pet.DecayPenalty(c.LastInteraction, through)
	if owed <= 0 {
		return 0
	}

	before := c.Health
	c.Health = max(c.Health-owed, 0)
	c.DecayedThrough = now
	if c.Mood != model.MoodSleeping {
		c.Mood = pet.DeriveMood(c.Health, e.asleep)
	}
	pet.RecordHealth(c, today)
	e.pushCompanionLocked("decay")
	e.observeLocked()

	lost := before - c.Health
	e.log.Info("companion decayed",
		zap.Int("owed", owed),
		zap.Int("health_lost", lost),
		zap.Int("health", c.Health),
		zap.Time("last_interaction", c.LastInteraction),
	)
	return lost
}
