package engine

import (
	"context"

	"go.uber.org/zap"

	"github.com/lazypower/habitpal/internal/pet"
)

// CreateCompanion hatches the first companion. It reports false if one
// already exists; use ResetCompanion to replace it.
func (e *Engine) CreateCompanion(name, color string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.companion != nil {
		e.log.Debug("create companion: already exists", zap.String("name", e.companion.Name))
		return false
	}
	e.hatchLocked(name, color, "create_companion")
	return true
}

// ResetCompanion replaces the companion with a fresh one.
func (e *Engine) ResetCompanion(name, color string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.hatchLocked(name, color, "reset_companion")
}

func (e *Engine) hatchLocked(name, color, op string) {
	c := pet.New(name, color, e.now())
	c.Mood = pet.DeriveMood(c.Health, e.asleep)
	e.companion = c
	e.pushCompanionLocked(op)
	e.metrics.Mutations.WithLabelValues(op).Inc()
	e.observeLocked()
	e.log.Info("companion hatched", zap.String("name", name), zap.String("op", op))
}

// ResetAllData clears habits, progress and the companion. Settings stay.
func (e *Engine) ResetAllData() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.habits = nil
	e.companion = nil
	clear(e.progress)
	clear(e.stats)
	e.queue.push("reset_all", func(ctx context.Context) error {
		return e.resetAll(ctx)
	})
	e.metrics.Mutations.WithLabelValues("reset_all").Inc()
	e.observeLocked()
	e.log.Info("all data reset")
}

// BuyItem spends price XP on itemID. Owning the item already counts as
// success and costs nothing. It reports false when there is no companion
// or the companion cannot afford it.
func (e *Engine) BuyItem(itemID string, price int) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	c := e.companion
	if c == nil || itemID == "" {
		e.log.Debug("buy item: no companion or item", zap.String("item", itemID))
		return false
	}
	res := pet.Buy(c, itemID, price)
	switch res {
	case pet.Bought:
		e.pushCompanionLocked("buy_item")
		e.metrics.Mutations.WithLabelValues("buy_item").Inc()
		e.log.Info("item bought", zap.String("item", itemID), zap.Int("price", price), zap.Int("xp", c.XP))
	case pet.CannotAfford:
		e.log.Debug("buy item: cannot afford", zap.String("item", itemID), zap.Int("price", price), zap.Int("xp", c.XP))
	}
	return res.OK()
}

// EquipHat sets the equipped hat; "" takes it off. It reports false when
// there is no companion.
func (e *Engine) EquipHat(hatID string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	c := e.companion
	if c == nil {
		e.log.Debug("equip hat: no companion", zap.String("hat", hatID))
		return false
	}
	c.Hat = hatID
	e.pushCompanionLocked("equip_hat")
	e.metrics.Mutations.WithLabelValues("equip_hat").Inc()
	return true
}
