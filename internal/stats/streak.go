// Package stats computes habit streaks.
package stats

import (
	"slices"

	"github.com/lazypower/habitpal/internal/days"
	"github.com/lazypower/habitpal/internal/model"
)

// Walker counts a streak from completed day keys fed newest first.
// It holds O(1) state so callers can stream an unbounded history and stop
// at the first gap.
//
// Keys after today are ignored. Duplicate keys count once.
type Walker struct {
	today string
	prev  string
	count int
	done  bool
}

// NewWalker returns a Walker anchored at the given local day key.
func NewWalker(today string) *Walker {
	return &Walker{today: today}
}

// Feed consumes the next completed day key. It returns false once the
// streak is settled and further keys cannot change it.
func (w *Walker) Feed(key string) bool {
	if w.done {
		return false
	}
	if key > w.today || key == w.prev {
		return true
	}

	if w.prev == "" {
		// The newest completion must be today or yesterday for the
		// streak to be live.
		gap, err := days.Gap(w.today, key)
		if err != nil || gap > 1 {
			w.done = true
			return false
		}
		w.prev = key
		w.count = 1
		return true
	}

	gap, err := days.Gap(w.prev, key)
	if err != nil || gap != 1 {
		w.done = true
		return false
	}
	w.prev = key
	w.count++
	return true
}

// Count returns the streak so far.
func (w *Walker) Count() int {
	return w.count
}

// ComputeStreak returns the current consecutive-day streak of habitID from
// an unordered, possibly duplicated set of progress records.
func ComputeStreak(records []model.DailyProgress, habitID, today string) int {
	keys := make([]string, 0, len(records))
	for _, r := range records {
		if r.HabitID == habitID && r.Completed {
			keys = append(keys, r.Date)
		}
	}
	// Day keys sort lexically in calendar order.
	slices.Sort(keys)
	keys = slices.Compact(keys)

	w := NewWalker(today)
	for i := len(keys) - 1; i >= 0; i-- {
		if !w.Feed(keys[i]) {
			break
		}
	}
	return w.Count()
}

// Compute returns totals and streak for habitID from in-memory records.
func Compute(records []model.DailyProgress, habitID, today string) model.HabitStats {
	total := 0
	for _, r := range records {
		if r.HabitID == habitID && r.Completed {
			total++
		}
	}
	return model.HabitStats{
		HabitID:          habitID,
		TotalCompletions: total,
		CurrentStreak:    ComputeStreak(records, habitID, today),
	}
}
