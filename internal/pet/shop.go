package pet

import (
	"slices"

	"github.com/lazypower/habitpal/internal/model"
)

// HistoryDays caps the number of daily health snapshots kept.
const HistoryDays = 30

// Purchase is the outcome of Buy.
type Purchase int

const (
	// Bought means XP was debited and the item added.
	Bought Purchase = iota
	// AlreadyOwned means nothing changed; items are not consumable.
	AlreadyOwned
	// CannotAfford means XP is below the price; nothing changed.
	CannotAfford
)

// OK reports whether the purchase counts as a success.
func (p Purchase) OK() bool {
	return p == Bought || p == AlreadyOwned
}

// Buy debits price from c's XP and adds itemID to its inventory.
func Buy(c *model.Companion, itemID string, price int) Purchase {
	if c.Owns(itemID) {
		return AlreadyOwned
	}
	if price < 0 || c.XP < price {
		return CannotAfford
	}
	c.XP -= price
	c.Items = append(slices.Clone(c.Items), itemID)
	return Bought
}

// RecordHealth stores today's health in c's history. One snapshot per day;
// a later value on the same day replaces the earlier one.
func RecordHealth(c *model.Companion, dayKey string) {
	h := slices.Clone(c.History)
	if n := len(h); n > 0 && h[n-1].Date == dayKey {
		h[n-1].Health = c.Health
	} else {
		h = append(h, model.HealthSnapshot{Date: dayKey, Health: c.Health})
	}
	if len(h) > HistoryDays {
		h = h[len(h)-HistoryDays:]
	}
	c.History = h
}
