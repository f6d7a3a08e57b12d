package cli

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/lazypower/habitpal/internal/engine"
	"github.com/lazypower/habitpal/internal/store"
)

func corruptLegacyDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, store.KeyHabits+".json"), []byte("{not json"), 0644); err != nil {
		t.Fatalf("write legacy blob: %v", err)
	}
	return dir
}

func memDB(t *testing.T) *store.DB {
	t.Helper()
	db, err := store.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestImportOnStartSurvivesCorruptLegacyData(t *testing.T) {
	dir := corruptLegacyDir(t)
	db := memDB(t)
	core, logs := observer.New(zap.InfoLevel)
	m := engine.NewMetrics()

	importOnStart(context.Background(), dir, db, zap.New(core), m)

	entries := logs.FilterMessage("legacy import failed").All()
	if len(entries) != 1 {
		t.Fatalf("got %d failure logs, want 1", len(entries))
	}
	if entries[0].Level != zap.ErrorLevel {
		t.Errorf("level = %v, want error", entries[0].Level)
	}
	if got := entries[0].ContextMap()["dir"]; got != dir {
		t.Errorf("dir field = %v, want %s", got, dir)
	}
	if got := testutil.ToFloat64(m.ImportFailures); got != 1 {
		t.Errorf("import failures = %v, want 1", got)
	}

	// The database is still usable and empty, so a later import can retry.
	populated, err := db.IsPopulated(context.Background())
	if err != nil || populated {
		t.Errorf("IsPopulated = %v, %v; want false", populated, err)
	}
	eng := engine.New(db, engine.WithMetrics(m))
	t.Cleanup(eng.Stop)
	if err := eng.Load(context.Background()); err != nil {
		t.Errorf("Load after failed import: %v", err)
	}
}

func TestImportLegacyReturnsError(t *testing.T) {
	// The migrate command reports the failure to the user.
	if err := importLegacy(context.Background(), corruptLegacyDir(t), memDB(t), zap.NewNop()); err == nil {
		t.Error("expected error for corrupt legacy data")
	}
}
