package engine

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/lazypower/habitpal/internal/days"
	"github.com/lazypower/habitpal/internal/model"
)

// ValidateSettings checks the sleep window clocks and the theme.
func ValidateSettings(s model.Settings) error {
	if _, err := days.ParseClock(s.SleepStart); err != nil {
		return fmt.Errorf("%w: sleep start: %v", ErrInvalid, err)
	}
	if _, err := days.ParseClock(s.SleepEnd); err != nil {
		return fmt.Errorf("%w: sleep end: %v", ErrInvalid, err)
	}
	switch s.Theme {
	case "", model.ThemeAuto, model.ThemeLight, model.ThemeDark:
	default:
		return fmt.Errorf("%w: unknown theme %q", ErrInvalid, s.Theme)
	}
	return nil
}

// UpdateSettings replaces the settings. A changed sleep window takes effect
// immediately; crossing its edge puts the companion to sleep or wakes it.
func (e *Engine) UpdateSettings(s model.Settings) error {
	if err := ValidateSettings(s); err != nil {
		return err
	}
	if s.Theme == "" {
		s.Theme = model.ThemeAuto
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.settings = s
	e.pushSettingsLocked("update_settings")
	e.metrics.Mutations.WithLabelValues("update_settings").Inc()
	e.evaluateSleepLocked(e.now())
	e.log.Info("settings updated",
		zap.String("sleep_start", s.SleepStart),
		zap.String("sleep_end", s.SleepEnd),
		zap.String("theme", string(s.Theme)),
	)
	return nil
}
