// Package days provides calendar-day keys and elapsed-time helpers.
//
// A day key is a local-calendar YYYY-MM-DD string. Keys are always derived
// from the observer's location, never from UTC, so an event at 00:30 local
// lands on the local day even when UTC is still on the previous date.
package days

import (
	"fmt"
	"math"
	"time"
)

// Layout is the day-key format.
const Layout = "2006-01-02"

const day = 24 * time.Hour

// Key returns the day key of t in the process-local time zone.
func Key(t time.Time) string {
	return KeyIn(t, time.Local)
}

// KeyIn returns the day key of t as seen from loc.
func KeyIn(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.Local
	}
	return t.In(loc).Format(Layout)
}

// Between returns the ceiling of |b-a| in whole 24h days.
// Two distinct instants within the same day are 1 day apart; identical
// instants are 0. Streak logic compares keys instead (see Gap).
func Between(a, b time.Time) int {
	d := b.Sub(a)
	if d < 0 {
		d = -d
	}
	return int(math.Ceil(float64(d) / float64(day)))
}

// Parse parses a day key. The result is midnight UTC of that calendar
// date, which keeps key arithmetic free of DST shifts.
func Parse(key string) (time.Time, error) {
	t, err := time.Parse(Layout, key)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse day key %q: %w", key, err)
	}
	return t, nil
}

// Valid reports whether key is a well-formed day key.
func Valid(key string) bool {
	_, err := time.Parse(Layout, key)
	return err == nil
}

// Add returns the key n calendar days after key (n may be negative).
func Add(key string, n int) (string, error) {
	t, err := Parse(key)
	if err != nil {
		return "", err
	}
	return t.AddDate(0, 0, n).Format(Layout), nil
}

// Gap returns the number of calendar days from older to newer.
func Gap(newer, older string) (int, error) {
	n, err := Parse(newer)
	if err != nil {
		return 0, err
	}
	o, err := Parse(older)
	if err != nil {
		return 0, err
	}
	return int(n.Sub(o) / day), nil
}
