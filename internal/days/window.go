package days

import (
	"fmt"
	"time"
)

// Clock is a local wall-clock time of day, in minutes after midnight.
type Clock int

// ParseClock parses an HH:MM string.
func ParseClock(s string) (Clock, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, fmt.Errorf("parse clock %q: %w", s, err)
	}
	return Clock(t.Hour()*60 + t.Minute()), nil
}

// ClockOf returns the wall-clock time of t in loc.
func ClockOf(t time.Time, loc *time.Location) Clock {
	if loc == nil {
		loc = time.Local
	}
	lt := t.In(loc)
	return Clock(lt.Hour()*60 + lt.Minute())
}

func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d", int(c)/60, int(c)%60)
}

// InWindow reports whether now falls inside [start, end) on the local clock.
// A window whose end is before its start wraps past midnight. An empty
// window (start == end) never matches.
func InWindow(now time.Time, loc *time.Location, start, end string) (bool, error) {
	s, err := ParseClock(start)
	if err != nil {
		return false, err
	}
	e, err := ParseClock(end)
	if err != nil {
		return false, err
	}
	c := ClockOf(now, loc)
	switch {
	case s == e:
		return false, nil
	case s < e:
		return c >= s && c < e, nil
	default:
		return c >= s || c < e, nil
	}
}
