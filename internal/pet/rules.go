// Package pet holds the companion rules: experience, level thresholds,
// health decay and recovery, and mood derivation. Everything here is a pure
// function of its arguments.
package pet

import (
	"time"

	"github.com/lazypower/habitpal/internal/days"
	"github.com/lazypower/habitpal/internal/model"
)

const (
	// XPPerCompletion is granted when a habit's daily target is reached.
	XPPerCompletion = 20

	// HealthPerCompletion is restored alongside XPPerCompletion.
	HealthPerCompletion = 10

	// HealthPerIncrement is restored by a partial (non-completing) increment.
	HealthPerIncrement = 2

	// DecayPerDay is lost for each missed day after the first.
	DecayPerDay = 10

	DefaultMaxHealth = 100

	sickBelow = 30
	sadBelow  = 60
)

// Vitals is the numeric part of a companion touched by the rules.
type Vitals struct {
	XP        int
	Level     int
	Health    int
	MaxHealth int
}

// VitalsOf extracts the vitals of c.
func VitalsOf(c *model.Companion) Vitals {
	return Vitals{XP: c.XP, Level: c.Level, Health: c.Health, MaxHealth: c.MaxHealth}
}

// Apply writes v back into c.
func (v Vitals) Apply(c *model.Companion) {
	c.XP, c.Level, c.Health, c.MaxHealth = v.XP, v.Level, v.Health, v.MaxHealth
}

// ThresholdFor returns the XP needed to leave level.
func ThresholdFor(level int) int {
	return level * 100
}

// GainExperience grants one completion's worth of XP and health. Crossing
// the level threshold levels up once and fully heals.
//
// Only a single threshold crossing is handled: XPPerCompletion is smaller
// than the lowest threshold, so one gain can never cross two.
func GainExperience(v Vitals) Vitals {
	v.XP += XPPerCompletion
	v.Health = min(v.Health+HealthPerCompletion, v.MaxHealth)

	if threshold := ThresholdFor(v.Level); v.XP >= threshold {
		v.Level++
		v.XP -= threshold
		v.Health = v.MaxHealth
	}
	return v
}

// LoseExperience reverses one GainExperience for XP and level. Health is
// not restored. The result never drops below level 1 with 0 XP.
func LoseExperience(v Vitals) Vitals {
	v.XP -= XPPerCompletion
	if v.XP >= 0 {
		return v
	}
	if v.Level <= 1 {
		v.Level = 1
		v.XP = 0
		return v
	}
	v.Level--
	v.XP += ThresholdFor(v.Level)
	if v.XP < 0 {
		v.XP = 0
	}
	return v
}

// DecayPenalty returns the health lost between last and now. The first
// elapsed day is a grace period.
func DecayPenalty(last, now time.Time) int {
	if last.IsZero() || !now.After(last) {
		return 0
	}
	elapsed := days.Between(last, now)
	if elapsed <= 1 {
		return 0
	}
	return DecayPerDay * (elapsed - 1)
}

// DecayHealth applies DecayPenalty to health, floored at 0.
func DecayHealth(last time.Time, health int, now time.Time) int {
	return max(health-DecayPenalty(last, now), 0)
}

// RecoverHealth restores a partial increment's worth of health.
func RecoverHealth(health, maxHealth int) int {
	return min(health+HealthPerIncrement, maxHealth)
}

// DeriveMood maps health and sleep state to a mood. Sleeping wins, then
// low health, then happy.
func DeriveMood(health int, sleeping bool) model.Mood {
	switch {
	case sleeping:
		return model.MoodSleeping
	case health < sickBelow:
		return model.MoodSick
	case health < sadBelow:
		return model.MoodSad
	default:
		return model.MoodHappy
	}
}

// New returns a freshly hatched companion.
func New(name, color string, now time.Time) *model.Companion {
	return &model.Companion{
		Name:            name,
		Color:           color,
		Health:          DefaultMaxHealth,
		MaxHealth:       DefaultMaxHealth,
		Level:           1,
		XP:              0,
		Mood:            model.MoodHappy,
		Items:           []string{},
		History:         []model.HealthSnapshot{},
		LastInteraction: now,
		DecayedThrough:  now,
	}
}
