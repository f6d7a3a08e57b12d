package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/lazypower/habitpal/internal/model"
)

// Keys of the four blobs in the flat format.
const (
	KeyHabits    = "habitpal.habits"
	KeyProgress  = "habitpal.progress"
	KeyCompanion = "habitpal.companion"
	KeySettings  = "habitpal.settings"
)

// FlatStore keeps each record kind as one JSON blob file in a directory.
// It is the legacy format and implements only Backend: every write
// rewrites a whole blob.
type FlatStore struct {
	Dir string
	mu  sync.Mutex
}

// OpenFlat returns a FlatStore rooted at dir, creating the directory.
func OpenFlat(dir string) (*FlatStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create flat store dir: %w", err)
	}
	return &FlatStore{Dir: dir}, nil
}

// HasData reports whether any blob exists.
func (f *FlatStore) HasData() bool {
	for _, k := range []string{KeyHabits, KeyProgress, KeyCompanion, KeySettings} {
		if _, err := os.Stat(f.path(k)); err == nil {
			return true
		}
	}
	return false
}

func (f *FlatStore) Habits(ctx context.Context) ([]model.Habit, error) {
	var out []model.Habit
	if _, err := f.read(KeyHabits, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (f *FlatStore) ReplaceHabits(ctx context.Context, habits []model.Habit) error {
	return f.write(KeyHabits, nonNil(habits))
}

func (f *FlatStore) Progress(ctx context.Context) ([]model.DailyProgress, error) {
	var out []model.DailyProgress
	if _, err := f.read(KeyProgress, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (f *FlatStore) ReplaceProgress(ctx context.Context, progress []model.DailyProgress) error {
	return f.write(KeyProgress, nonNil(progress))
}

func (f *FlatStore) Companion(ctx context.Context) (*model.Companion, error) {
	var c *model.Companion
	if _, err := f.read(KeyCompanion, &c); err != nil {
		return nil, err
	}
	return c, nil
}

func (f *FlatStore) SetCompanion(ctx context.Context, c *model.Companion) error {
	if c == nil {
		return f.remove(KeyCompanion)
	}
	return f.write(KeyCompanion, c)
}

func (f *FlatStore) Settings(ctx context.Context) (*model.Settings, error) {
	var s model.Settings
	ok, err := f.read(KeySettings, &s)
	if err != nil || !ok {
		return nil, err
	}
	return &s, nil
}

func (f *FlatStore) SetSettings(ctx context.Context, s model.Settings) error {
	return f.write(KeySettings, s)
}

func (f *FlatStore) path(key string) string {
	return filepath.Join(f.Dir, key+".json")
}

// read decodes blob key into v. A missing blob is not an error; ok is false.
func (f *FlatStore) read(key string, v any) (ok bool, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	data, err := os.ReadFile(f.path(key))
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("read %s: %w", key, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false, fmt.Errorf("decode %s: %w", key, err)
	}
	return true, nil
}

// write replaces blob key atomically via a temp file and rename.
func (f *FlatStore) write(key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	tmp, err := os.CreateTemp(f.Dir, key+".*.tmp")
	if err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write %s: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("write %s: %w", key, err)
	}
	if err := os.Rename(tmp.Name(), f.path(key)); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("write %s: %w", key, err)
	}
	return nil
}

func (f *FlatStore) remove(key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := os.Remove(f.path(key)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove %s: %w", key, err)
	}
	return nil
}
