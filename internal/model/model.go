// Package model defines the records shared by the store, the rules engines
// and the orchestrator.
package model

import (
	"fmt"
	"slices"
	"time"
)

// FrequencyKind is how often a habit recurs.
type FrequencyKind string

const (
	FrequencyDaily  FrequencyKind = "daily"
	FrequencyWeekly FrequencyKind = "weekly"
)

// Frequency describes a habit's schedule. Days holds weekday indices
// (0 = Sunday) and is only meaningful for weekly habits.
type Frequency struct {
	Kind FrequencyKind `json:"type"`
	Days []int         `json:"days,omitempty"`
}

// Validate checks the kind and the weekday indices.
func (f Frequency) Validate() error {
	switch f.Kind {
	case FrequencyDaily, FrequencyWeekly:
	default:
		return fmt.Errorf("invalid frequency kind: %q", f.Kind)
	}
	for _, d := range f.Days {
		if d < 0 || d > 6 {
			return fmt.Errorf("invalid weekday index: %d", d)
		}
	}
	return nil
}

// ScheduledOn reports whether the habit is due on the given weekday.
// Weekly habits with no days listed are due every day.
func (f Frequency) ScheduledOn(wd time.Weekday) bool {
	if f.Kind != FrequencyWeekly || len(f.Days) == 0 {
		return true
	}
	return slices.Contains(f.Days, int(wd))
}

// TimeOfDay is the preferred time-of-day tag of a habit.
type TimeOfDay string

const (
	TimeMorning   TimeOfDay = "morning"
	TimeAfternoon TimeOfDay = "afternoon"
	TimeEvening   TimeOfDay = "evening"
	TimeAnytime   TimeOfDay = "anytime"
)

// Habit is a recurring goal.
type Habit struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Color       string    `json:"color"`
	Icon        string    `json:"icon"`
	Frequency   Frequency `json:"frequency"`
	TimeOfDay   TimeOfDay `json:"timeOfDay"`
	TargetCount int       `json:"targetCount"`
	CreatedAt   time.Time `json:"createdAt"`
}

// DailyProgress is the progress of one habit on one calendar day.
// (HabitID, Date) is the natural key.
type DailyProgress struct {
	ID           int64  `json:"id,omitempty"`
	HabitID      string `json:"habitId"`
	Date         string `json:"date"`
	CurrentCount int    `json:"currentCount"`
	Completed    bool   `json:"completed"`
}

// Mood is the companion's displayed mood.
type Mood string

const (
	MoodHappy    Mood = "happy"
	MoodNeutral  Mood = "neutral"
	MoodSad      Mood = "sad"
	MoodSick     Mood = "sick"
	MoodSleeping Mood = "sleeping"
)

// Valid reports whether m is a known mood.
func (m Mood) Valid() bool {
	switch m {
	case MoodHappy, MoodNeutral, MoodSad, MoodSick, MoodSleeping:
		return true
	}
	return false
}

// HealthSnapshot records the companion's health on a calendar day.
type HealthSnapshot struct {
	Date   string `json:"date"`
	Health int    `json:"health"`
}

// Companion is the virtual pet. There is at most one per installation.
type Companion struct {
	Name            string           `json:"name"`
	Hat             string           `json:"hat,omitempty"`
	Color           string           `json:"color"`
	Health          int              `json:"health"`
	MaxHealth       int              `json:"maxHealth"`
	Level           int              `json:"level"`
	XP              int              `json:"xp"`
	Mood            Mood             `json:"mood"`
	Items           []string         `json:"items"`
	LastInteraction time.Time        `json:"lastInteraction"`
	DecayedThrough  time.Time        `json:"decayedThrough"`
	History         []HealthSnapshot `json:"history"`
}

// Clone returns a deep copy so callers can't alias the owner's slices.
func (c *Companion) Clone() *Companion {
	if c == nil {
		return nil
	}
	out := *c
	out.Items = slices.Clone(c.Items)
	out.History = slices.Clone(c.History)
	return &out
}

// Owns reports whether the companion owns itemID.
func (c *Companion) Owns(itemID string) bool {
	return slices.Contains(c.Items, itemID)
}

// Theme is the presentation theme preference.
type Theme string

const (
	ThemeAuto  Theme = "auto"
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

// Settings are the user's preferences. There is exactly one per installation.
type Settings struct {
	SleepStart    string `json:"sleepStart"`
	SleepEnd      string `json:"sleepEnd"`
	Notifications bool   `json:"notificationsEnabled"`
	Sound         bool   `json:"soundEnabled"`
	Theme         Theme  `json:"theme"`
}

// DefaultSettings returns the settings used when none are stored.
func DefaultSettings() Settings {
	return Settings{
		SleepStart:    "22:00",
		SleepEnd:      "07:00",
		Notifications: true,
		Sound:         true,
		Theme:         ThemeAuto,
	}
}

// HabitStats is derived from stored progress, never stored itself.
type HabitStats struct {
	HabitID          string `json:"habitId"`
	TotalCompletions int    `json:"totalCompletions"`
	CurrentStreak    int    `json:"currentStreak"`
}
