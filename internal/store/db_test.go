package store

import (
	"context"
	"slices"
	"testing"
	"time"

	"github.com/lazypower/habitpal/internal/model"
)

// testDB is a helper that creates an in-memory DB for testing.
func testDB(t *testing.T) *DB {
	t.Helper()
	db, err := OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func testHabit(id string) model.Habit {
	return model.Habit{
		ID:          id,
		Title:       "Drink water " + id,
		Color:       "#3b82f6",
		Icon:        "droplet",
		Frequency:   model.Frequency{Kind: model.FrequencyDaily},
		TimeOfDay:   model.TimeMorning,
		TargetCount: 3,
		CreatedAt:   time.UnixMilli(1_700_000_000_000),
	}
}

func TestOpenMemory(t *testing.T) {
	db, err := OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	defer db.Close()

	if db.Path != ":memory:" {
		t.Errorf("Path = %q, want :memory:", db.Path)
	}
}

func TestOpenFile(t *testing.T) {
	path := t.TempDir() + "/nested/habitpal.db"
	db, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := db.InsertHabit(context.Background(), testHabit("h1")); err != nil {
		t.Fatalf("InsertHabit: %v", err)
	}
	db.Close()

	db, err = Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer db.Close()
	habits, err := db.Habits(context.Background())
	if err != nil {
		t.Fatalf("Habits: %v", err)
	}
	if len(habits) != 1 {
		t.Errorf("got %d habits after reopen, want 1", len(habits))
	}
}

func TestSchemaVersion(t *testing.T) {
	db := testDB(t)

	v, err := db.SchemaVersion()
	if err != nil {
		t.Fatalf("SchemaVersion: %v", err)
	}
	if v != len(migrations) {
		t.Errorf("SchemaVersion = %d, want %d", v, len(migrations))
	}
}

func TestTablesExist(t *testing.T) {
	db := testDB(t)

	tables := []string{"schema_versions", "habits", "daily_progress", "companion", "settings"}
	for _, table := range tables {
		var name string
		err := db.QueryRow(
			"SELECT name FROM sqlite_master WHERE type='table' AND name=?", table,
		).Scan(&name)
		if err != nil {
			t.Errorf("table %q not found: %v", table, err)
		}
	}
}

func TestProgressConstraints(t *testing.T) {
	db := testDB(t)
	db.InsertHabit(context.Background(), testHabit("h1"))

	_, err := db.Exec(`INSERT INTO daily_progress (habit_id, date, current_count, completed) VALUES ('h1', '2024-01-01', 1, 0)`)
	if err != nil {
		t.Fatalf("valid insert failed: %v", err)
	}

	// Duplicate natural key
	_, err = db.Exec(`INSERT INTO daily_progress (habit_id, date, current_count, completed) VALUES ('h1', '2024-01-01', 2, 0)`)
	if err == nil {
		t.Error("expected unique violation for duplicate (habit_id, date)")
	}

	// Orphan habit
	_, err = db.Exec(`INSERT INTO daily_progress (habit_id, date, current_count, completed) VALUES ('nope', '2024-01-01', 1, 0)`)
	if err == nil {
		t.Error("expected foreign key violation for unknown habit")
	}

	// Negative count
	_, err = db.Exec(`INSERT INTO daily_progress (habit_id, date, current_count, completed) VALUES ('h1', '2024-01-02', -1, 0)`)
	if err == nil {
		t.Error("expected check violation for negative count")
	}
}

func TestCompanionSingleRow(t *testing.T) {
	db := testDB(t)

	_, err := db.Exec(`INSERT INTO companion (id, name, health, mood, last_interaction) VALUES (2, 'x', 10, 'happy', 0)`)
	if err == nil {
		t.Error("expected check violation for second companion row")
	}
}

func TestMigrationsIdempotent(t *testing.T) {
	db := testDB(t)

	// Running migrate again should be a no-op
	if err := db.migrate(context.Background()); err != nil {
		t.Fatalf("second migrate: %v", err)
	}

	v, err := db.SchemaVersion()
	if err != nil {
		t.Fatalf("SchemaVersion: %v", err)
	}
	if v != len(migrations) {
		t.Errorf("SchemaVersion after re-migrate = %d, want %d", v, len(migrations))
	}
}

func TestFailedMigrationRollsBack(t *testing.T) {
	db := testDB(t)

	saved := migrations
	t.Cleanup(func() { migrations = saved })
	migrations = append(slices.Clone(saved), migration{
		Version:     len(saved) + 1,
		Description: "broken",
		SQL:         "CREATE TABLE half_done (id INTEGER); INSERT INTO no_such_table VALUES (1);",
	})

	if err := db.migrate(context.Background()); err == nil {
		t.Fatal("expected error from broken migration")
	}
	v, err := db.SchemaVersion()
	if err != nil {
		t.Fatalf("SchemaVersion: %v", err)
	}
	if v != len(saved) {
		t.Errorf("SchemaVersion = %d, want %d", v, len(saved))
	}
	var n int
	db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE name = 'half_done'").Scan(&n)
	if n != 0 {
		t.Error("table from the failed migration survived the rollback")
	}
}

func TestWALMode(t *testing.T) {
	db := testDB(t)

	var mode string
	err := db.QueryRow("PRAGMA journal_mode").Scan(&mode)
	if err != nil {
		t.Fatalf("PRAGMA journal_mode: %v", err)
	}
	// In-memory databases may use "memory" mode instead of WAL
	if mode != "wal" && mode != "memory" {
		t.Errorf("journal_mode = %q, want wal or memory", mode)
	}
}

func TestForeignKeysEnabled(t *testing.T) {
	db := testDB(t)

	var fk int
	err := db.QueryRow("PRAGMA foreign_keys").Scan(&fk)
	if err != nil {
		t.Fatalf("PRAGMA foreign_keys: %v", err)
	}
	if fk != 1 {
		t.Errorf("foreign_keys = %d, want 1", fk)
	}
}

func TestBackendCapabilities(t *testing.T) {
	var b Backend = testDB(t)
	if _, ok := b.(HabitWriter); !ok {
		t.Error("DB should implement HabitWriter")
	}
	if _, ok := b.(ProgressUpserter); !ok {
		t.Error("DB should implement ProgressUpserter")
	}
	if _, ok := b.(RangeQuerier); !ok {
		t.Error("DB should implement RangeQuerier")
	}
	if _, ok := b.(StatsQuerier); !ok {
		t.Error("DB should implement StatsQuerier")
	}
	if _, ok := b.(Counter); !ok {
		t.Error("DB should implement Counter")
	}
	if _, ok := b.(Resetter); !ok {
		t.Error("DB should implement Resetter")
	}

	var f Backend = &FlatStore{Dir: t.TempDir()}
	if _, ok := f.(ProgressUpserter); ok {
		t.Error("FlatStore should not implement ProgressUpserter")
	}
	if _, ok := f.(HabitWriter); ok {
		t.Error("FlatStore should not implement HabitWriter")
	}
}
