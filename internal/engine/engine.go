// Package engine is the habit and companion orchestrator. It owns the
// in-memory mirror of habits, the companion, settings and a recent window
// of progress, applies the pet and stats rules to user actions, and hands
// persistence to a single background writer.
package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/lazypower/habitpal/internal/days"
	"github.com/lazypower/habitpal/internal/model"
	"github.com/lazypower/habitpal/internal/store"
)

const (
	// DefaultWindowDays is how many days of progress are mirrored in memory.
	DefaultWindowDays = 90

	// DefaultTickSpec drives the sleep-window and decay check.
	DefaultTickSpec = "@every 1m"
)

type progressKey struct {
	habitID string
	date    string
}

// Engine orchestrates habits, progress, the companion and settings.
type Engine struct {
	backend      store.Backend
	log          *zap.Logger
	metrics      *Metrics
	now          func() time.Time
	loc          *time.Location
	window       int
	tickSpec     string
	writeTimeout time.Duration

	mu        sync.Mutex
	habits    []model.Habit
	companion *model.Companion
	progress  map[progressKey]model.DailyProgress
	stats     map[string]model.HabitStats
	statsGen  map[string]uint64 // bumped by each in-memory stats change
	settings  model.Settings
	asleep    bool
	lastErr   error

	queue    *writeQueue
	cron     *cron.Cron
	stopOnce sync.Once
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock replaces time.Now. The function must be safe for concurrent use.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithLocation sets the calendar used for day keys and the sleep window.
func WithLocation(loc *time.Location) Option {
	return func(e *Engine) { e.loc = loc }
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) { e.log = l }
}

// WithMetrics sets the collectors. The default is a private registry.
func WithMetrics(m *Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

// WithWindowDays sets the size of the in-memory progress window.
func WithWindowDays(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.window = n
		}
	}
}

// WithTickSpec sets the cron spec of the background tick.
func WithTickSpec(spec string) Option {
	return func(e *Engine) {
		if spec != "" {
			e.tickSpec = spec
		}
	}
}

// WithWriteTimeout bounds each persistence job.
func WithWriteTimeout(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.writeTimeout = d
		}
	}
}

// New creates an Engine over backend. Call Load before use and Stop when done.
func New(backend store.Backend, opts ...Option) *Engine {
	e := &Engine{
		backend:      backend,
		log:          zap.NewNop(),
		now:          time.Now,
		loc:          time.Local,
		window:       DefaultWindowDays,
		tickSpec:     DefaultTickSpec,
		writeTimeout: DefaultWriteTimeout,
		progress:     make(map[progressKey]model.DailyProgress),
		stats:        make(map[string]model.HabitStats),
		statsGen:     make(map[string]uint64),
		settings:     model.DefaultSettings(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.metrics == nil {
		e.metrics = NewMetrics()
	}
	e.queue = newWriteQueue(e.writeTimeout, e.reportWrite)
	e.cron = cron.New(cron.WithLocation(e.loc))
	return e
}

// Metrics returns the engine's collectors.
func (e *Engine) Metrics() *Metrics {
	return e.metrics
}

// Load reads the initial state. Habits, the companion and settings are read
// concurrently; the progress window and per-habit stats follow the habit
// read, and pending decay is applied once the companion is known.
//
// Read failures are logged and leave that part of the state empty. The
// joined error is returned so callers can report it; the engine stays usable.
func (e *Engine) Load(ctx context.Context) error {
	now := e.now()
	today := days.KeyIn(now, e.loc)
	start, err := days.Add(today, -(e.window - 1))
	if err != nil {
		return fmt.Errorf("window start: %w", err)
	}

	var (
		wg        sync.WaitGroup
		habits    []model.Habit
		window    []model.DailyProgress
		stats     map[string]model.HabitStats
		companion *model.Companion
		settings  *model.Settings

		habitsErr, windowErr, companionErr, settingsErr error
		statsErrs                                       []error
	)

	wg.Add(3)
	go func() {
		defer wg.Done()
		habits, habitsErr = e.backend.Habits(ctx)
		if habitsErr != nil {
			return
		}
		window, windowErr = e.progressRange(ctx, start, today)
		stats, statsErrs = e.loadStats(ctx, habits, today)
	}()
	go func() {
		defer wg.Done()
		companion, companionErr = e.backend.Companion(ctx)
	}()
	go func() {
		defer wg.Done()
		settings, settingsErr = e.backend.Settings(ctx)
	}()
	wg.Wait()

	var errs []error
	for _, r := range []struct {
		what string
		err  error
	}{
		{"habits", habitsErr},
		{"progress window", windowErr},
		{"companion", companionErr},
		{"settings", settingsErr},
	} {
		if r.err != nil {
			e.log.Error("load failed", zap.String("what", r.what), zap.Error(r.err))
			e.metrics.PersistFailures.WithLabelValues("load").Inc()
			errs = append(errs, fmt.Errorf("load %s: %w", r.what, r.err))
		}
	}
	for _, err := range statsErrs {
		e.log.Error("load failed", zap.String("what", "stats"), zap.Error(err))
		e.metrics.PersistFailures.WithLabelValues("load").Inc()
		errs = append(errs, err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.habits = habits
	e.progress = make(map[progressKey]model.DailyProgress, len(window))
	for _, p := range window {
		e.progress[progressKey{p.HabitID, p.Date}] = p
	}
	e.stats = make(map[string]model.HabitStats, len(habits))
	for _, h := range habits {
		s, ok := stats[h.ID]
		if !ok {
			s = model.HabitStats{HabitID: h.ID}
		}
		e.stats[h.ID] = s
	}

	switch {
	case settings != nil:
		e.settings = *settings
	case settingsErr == nil:
		e.settings = model.DefaultSettings()
		e.pushSettingsLocked("init_settings")
	}

	e.companion = companion
	if companion != nil {
		e.asleep = companion.Mood == model.MoodSleeping
		if lost := e.applyDecayLocked(now, today); lost > 0 {
			e.log.Info("decay applied on load", zap.Int("health_lost", lost))
		}
	} else if in, err := days.InWindow(now, e.loc, e.settings.SleepStart, e.settings.SleepEnd); err == nil {
		e.asleep = in
	}
	e.observeLocked()

	e.log.Info("state loaded",
		zap.Int("habits", len(e.habits)),
		zap.Int("progress", len(e.progress)),
		zap.Bool("companion", e.companion != nil),
	)
	return errors.Join(errs...)
}

// loadStats fetches stats for every habit concurrently.
func (e *Engine) loadStats(ctx context.Context, habits []model.Habit, today string) (map[string]model.HabitStats, []error) {
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		out  = make(map[string]model.HabitStats, len(habits))
		errs []error
	)
	for _, h := range habits {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			s, err := e.habitStats(ctx, id, today)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, fmt.Errorf("load stats %s: %w", id, err))
				return
			}
			out[id] = s
		}(h.ID)
	}
	wg.Wait()
	return out, errs
}

// Start runs one tick immediately and then schedules it.
func (e *Engine) Start() error {
	e.Tick()
	if _, err := e.cron.AddFunc(e.tickSpec, e.Tick); err != nil {
		return fmt.Errorf("schedule tick %q: %w", e.tickSpec, err)
	}
	e.cron.Start()
	return nil
}

// Stop cancels the tick, waits for a running tick, and drains the writer.
// It is safe to call more than once.
func (e *Engine) Stop() {
	e.stopOnce.Do(func() {
		<-e.cron.Stop().Done()
		e.queue.close()
	})
}

// Flush blocks until every write issued so far has been attempted.
func (e *Engine) Flush(ctx context.Context) error {
	return e.queue.flush(ctx)
}

// LastWriteError returns the most recent persistence failure, or nil.
func (e *Engine) LastWriteError() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lastErr
}

// reportWrite runs on the writer goroutine after every job.
func (e *Engine) reportWrite(op string, err error) {
	if err == nil {
		e.metrics.Writes.WithLabelValues(op).Inc()
		return
	}
	e.log.Error("persist failed", zap.String("op", op), zap.Error(err))
	e.metrics.PersistFailures.WithLabelValues(op).Inc()

	e.mu.Lock()
	e.lastErr = fmt.Errorf("%s: %w", op, err)
	e.mu.Unlock()
}

// Now returns the engine's current time.
func (e *Engine) Now() time.Time {
	return e.now()
}

func (e *Engine) today() string {
	return days.KeyIn(e.now(), e.loc)
}

// windowStart returns the oldest day key held in memory.
func (e *Engine) windowStart(today string) string {
	start, err := days.Add(today, -(e.window - 1))
	if err != nil {
		return today
	}
	return start
}

// resolveDay maps an optional day key to one inside the window.
func (e *Engine) resolveDay(date, today string) (string, bool) {
	if date == "" {
		return today, true
	}
	if !days.Valid(date) {
		return "", false
	}
	return date, date >= e.windowStart(today) && date <= today
}

func (e *Engine) habitIndexLocked(id string) int {
	for i := range e.habits {
		if e.habits[i].ID == id {
			return i
		}
	}
	return -1
}

// pruneLocked drops mirrored progress that fell out of the window.
func (e *Engine) pruneLocked(today string) {
	start := e.windowStart(today)
	for k := range e.progress {
		if k.date < start {
			delete(e.progress, k)
		}
	}
}

func (e *Engine) observeLocked() {
	e.metrics.Habits.Set(float64(len(e.habits)))
	if c := e.companion; c != nil {
		e.metrics.Health.Set(float64(c.Health))
		e.metrics.Level.Set(float64(c.Level))
	} else {
		e.metrics.Health.Set(0)
		e.metrics.Level.Set(0)
	}
}
