package engine

import (
	"context"
	"errors"
	"testing"

	"github.com/lazypower/habitpal/internal/model"
	"github.com/lazypower/habitpal/internal/store"
)

var errDisk = errors.New("disk on fire")

// failingBackend reads as empty and fails every write. It implements only
// the required capability, so the engine takes its fallback paths.
type failingBackend struct{}

func (failingBackend) Habits(context.Context) ([]model.Habit, error) { return nil, nil }
func (failingBackend) ReplaceHabits(context.Context, []model.Habit) error { return errDisk }
func (failingBackend) Progress(context.Context) ([]model.DailyProgress, error) { return nil, nil }
func (failingBackend) ReplaceProgress(context.Context, []model.DailyProgress) error { return errDisk }
func (failingBackend) Companion(context.Context) (*model.Companion, error) { return nil, nil }
func (failingBackend) SetCompanion(context.Context, *model.Companion) error { return errDisk }
func (failingBackend) Settings(context.Context) (*model.Settings, error) { return nil, nil }
func (failingBackend) SetSettings(context.Context, model.Settings) error { return errDisk }

// unreadableBackend fails the habit read on load.
type unreadableBackend struct{ failingBackend }

func (unreadableBackend) Habits(context.Context) ([]model.Habit, error) { return nil, errDisk }

func testFlat(t *testing.T) *store.FlatStore {
	t.Helper()
	f, err := store.OpenFlat(t.TempDir())
	if err != nil {
		t.Fatalf("OpenFlat: %v", err)
	}
	return f
}

func TestFlatBackendFallbacks(t *testing.T) {
	f := testFlat(t)
	e, _ := testEngine(t, f)
	ctx := context.Background()

	e.CreateCompanion("Mochi", "#fff")
	h := addHabit(t, e, 1)
	other := addHabit(t, e, 2)
	e.LogProgress(h.ID, "2024-06-09")
	e.LogProgress(h.ID, "")
	e.LogProgress(other.ID, "")
	e.LogProgress(other.ID, "")
	flush(t, e)

	progress, err := f.Progress(ctx)
	if err != nil {
		t.Fatalf("Progress: %v", err)
	}
	if len(progress) != 3 {
		t.Fatalf("flat progress = %+v, want 3 records", progress)
	}
	for _, p := range progress {
		if p.HabitID == other.ID && (p.CurrentCount != 2 || !p.Completed) {
			t.Errorf("upsert fallback lost an update: %+v", p)
		}
	}

	// Stats come from stats.Compute over the full collection.
	s, _ := e.HabitStats(h.ID)
	if s.TotalCompletions != 2 || s.CurrentStreak != 2 {
		t.Errorf("fallback stats = %+v, want 2/2", s)
	}

	recent, err := e.RecentProgress(ctx, h.ID, 1)
	if err != nil {
		t.Fatalf("RecentProgress: %v", err)
	}
	if len(recent) != 1 || recent[0].Date != "2024-06-10" {
		t.Errorf("RecentProgress = %+v, want the newest record", recent)
	}

	e.DeleteHabit(h.ID)
	flush(t, e)
	habits, _ := f.Habits(ctx)
	progress, _ = f.Progress(ctx)
	if len(habits) != 1 || habits[0].ID != other.ID {
		t.Errorf("flat habits after delete = %+v", habits)
	}
	for _, p := range progress {
		if p.HabitID == h.ID {
			t.Errorf("flat progress left for deleted habit: %+v", p)
		}
	}

	e.ResetAllData()
	flush(t, e)
	habits, _ = f.Habits(ctx)
	progress, _ = f.Progress(ctx)
	c, _ := f.Companion(ctx)
	if len(habits) != 0 || len(progress) != 0 || c != nil {
		t.Errorf("flat store after reset: %d habits, %d progress, companion %v", len(habits), len(progress), c)
	}
}

func TestFlatBackendLoadWindow(t *testing.T) {
	f := testFlat(t)
	ctx := context.Background()
	f.ReplaceHabits(ctx, []model.Habit{{ID: "h1", Title: "Walk", TargetCount: 1, Frequency: model.Frequency{Kind: model.FrequencyDaily}}})
	f.ReplaceProgress(ctx, []model.DailyProgress{
		{HabitID: "h1", Date: "2024-06-10", CurrentCount: 1, Completed: true},
		{HabitID: "h1", Date: "2024-06-09", CurrentCount: 1, Completed: true},
		{HabitID: "h1", Date: "2024-01-01", CurrentCount: 1, Completed: true},
	})

	e, _ := testEngine(t, f, WithWindowDays(30))
	s := e.Snapshot()
	if len(s.Progress) != 2 {
		t.Errorf("window = %+v, want the two recent records", s.Progress)
	}
	if st := s.Stats["h1"]; st.TotalCompletions != 3 || st.CurrentStreak != 2 {
		t.Errorf("stats = %+v, want 3 total, streak 2", st)
	}
}

func TestLoadReadFailure(t *testing.T) {
	e := New(unreadableBackend{})
	t.Cleanup(e.Stop)

	err := e.Load(context.Background())
	if !errors.Is(err, errDisk) {
		t.Fatalf("Load err = %v, want errDisk", err)
	}
	s := e.Snapshot()
	if len(s.Habits) != 0 || !s.IsOnboarding {
		t.Errorf("state after failed load = %+v", s)
	}
	// The engine stays usable.
	if _, err := e.AddHabit(NewHabit{Title: "Walk"}); err != nil {
		t.Errorf("AddHabit after failed load: %v", err)
	}
}
