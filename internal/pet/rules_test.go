package pet

import (
	"fmt"
	"testing"
	"time"

	"github.com/lazypower/habitpal/internal/model"
)

func TestGainExperience(t *testing.T) {
	tests := []struct {
		name string
		in   Vitals
		want Vitals
	}{
		{
			name: "level up full heal",
			in:   Vitals{XP: 90, Level: 1, Health: 50, MaxHealth: 100},
			want: Vitals{XP: 10, Level: 2, Health: 100, MaxHealth: 100},
		},
		{
			name: "plain gain",
			in:   Vitals{XP: 0, Level: 1, Health: 50, MaxHealth: 100},
			want: Vitals{XP: 20, Level: 1, Health: 60, MaxHealth: 100},
		},
		{
			name: "health capped",
			in:   Vitals{XP: 40, Level: 3, Health: 95, MaxHealth: 100},
			want: Vitals{XP: 60, Level: 3, Health: 100, MaxHealth: 100},
		},
		{
			name: "exact threshold",
			in:   Vitals{XP: 180, Level: 2, Health: 20, MaxHealth: 100},
			want: Vitals{XP: 0, Level: 3, Health: 100, MaxHealth: 100},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GainExperience(tt.in); got != tt.want {
				t.Errorf("GainExperience = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestLoseExperienceRoundTrip(t *testing.T) {
	for _, start := range []Vitals{
		{XP: 0, Level: 1, Health: 50, MaxHealth: 100},
		{XP: 90, Level: 1, Health: 50, MaxHealth: 100},
		{XP: 100, Level: 2, Health: 80, MaxHealth: 100},
		{XP: 290, Level: 3, Health: 80, MaxHealth: 100},
	} {
		t.Run(fmt.Sprintf("xp%d_l%d", start.XP, start.Level), func(t *testing.T) {
			back := LoseExperience(GainExperience(start))
			if back.XP != start.XP || back.Level != start.Level {
				t.Errorf("round trip = xp %d level %d, want xp %d level %d",
					back.XP, back.Level, start.XP, start.Level)
			}
		})
	}
}

func TestLoseExperienceFloorsAtLevelOne(t *testing.T) {
	got := LoseExperience(Vitals{XP: 5, Level: 1, Health: 40, MaxHealth: 100})
	if got.XP != 0 || got.Level != 1 {
		t.Errorf("LoseExperience = %+v, want xp 0 level 1", got)
	}
	if got.Health != 40 {
		t.Errorf("health changed: %d", got.Health)
	}
}

func TestDecayHealth(t *testing.T) {
	now := time.Date(2024, 6, 10, 12, 0, 0, 0, time.UTC)

	if got := DecayHealth(now.Add(-48*time.Hour), 100, now); got != 90 {
		t.Errorf("two days = %d, want 90", got)
	}
	if got := DecayHealth(now, 100, now); got != 100 {
		t.Errorf("same instant = %d, want 100", got)
	}
	if got := DecayHealth(now.Add(-20*time.Hour), 100, now); got != 100 {
		t.Errorf("grace day = %d, want 100", got)
	}
	if got := DecayHealth(now.Add(-365*24*time.Hour), 50, now); got != 0 {
		t.Errorf("long ago = %d, want 0", got)
	}
	if got := DecayHealth(time.Time{}, 70, now); got != 70 {
		t.Errorf("zero last interaction = %d, want 70", got)
	}
}

func TestRecoverHealth(t *testing.T) {
	if got := RecoverHealth(50, 100); got != 52 {
		t.Errorf("RecoverHealth = %d, want 52", got)
	}
	if got := RecoverHealth(99, 100); got != 100 {
		t.Errorf("RecoverHealth capped = %d, want 100", got)
	}
}

func TestDeriveMood(t *testing.T) {
	tests := []struct {
		health   int
		sleeping bool
		want     model.Mood
	}{
		{10, true, model.MoodSleeping},
		{100, true, model.MoodSleeping},
		{29, false, model.MoodSick},
		{30, false, model.MoodSad},
		{59, false, model.MoodSad},
		{60, false, model.MoodHappy},
		{100, false, model.MoodHappy},
	}
	for _, tt := range tests {
		if got := DeriveMood(tt.health, tt.sleeping); got != tt.want {
			t.Errorf("DeriveMood(%d, %v) = %s, want %s", tt.health, tt.sleeping, got, tt.want)
		}
	}
}

func TestBuy(t *testing.T) {
	c := New("Mochi", "#ffaa00", time.Now())
	c.XP = 50

	if got := Buy(c, "hat-crown", 80); got != CannotAfford {
		t.Fatalf("Buy expensive = %v, want CannotAfford", got)
	}
	if c.XP != 50 || len(c.Items) != 0 {
		t.Errorf("failed purchase mutated companion: %+v", c)
	}

	if got := Buy(c, "hat-beanie", 30); got != Bought {
		t.Fatalf("Buy = %v, want Bought", got)
	}
	if c.XP != 20 || !c.Owns("hat-beanie") {
		t.Errorf("after buy: xp=%d items=%v", c.XP, c.Items)
	}

	if got := Buy(c, "hat-beanie", 30); got != AlreadyOwned || !got.OK() {
		t.Fatalf("Buy owned = %v, want AlreadyOwned", got)
	}
	if c.XP != 20 {
		t.Errorf("owned item debited again: xp=%d", c.XP)
	}
}

func TestRecordHealth(t *testing.T) {
	c := New("Mochi", "#fff", time.Now())
	c.Health = 80
	RecordHealth(c, "2024-01-01")
	c.Health = 70
	RecordHealth(c, "2024-01-01")
	if len(c.History) != 1 || c.History[0].Health != 70 {
		t.Fatalf("same-day snapshot not replaced: %+v", c.History)
	}

	for i := 2; i <= HistoryDays+5; i++ {
		RecordHealth(c, fmt.Sprintf("2024-02-%02d", i))
	}
	if len(c.History) != HistoryDays {
		t.Errorf("history len = %d, want %d", len(c.History), HistoryDays)
	}
}
