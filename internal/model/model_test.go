package model

import (
	"testing"
	"time"
)

func TestFrequencyValidate(t *testing.T) {
	tests := []struct {
		f    Frequency
		ok   bool
		name string
	}{
		{Frequency{Kind: FrequencyDaily}, true, "daily"},
		{Frequency{Kind: FrequencyWeekly, Days: []int{1, 3, 5}}, true, "weekly"},
		{Frequency{Kind: "monthly"}, false, "unknown kind"},
		{Frequency{Kind: FrequencyWeekly, Days: []int{7}}, false, "bad weekday"},
	}
	for _, tt := range tests {
		err := tt.f.Validate()
		if (err == nil) != tt.ok {
			t.Errorf("%s: Validate err = %v, want ok=%v", tt.name, err, tt.ok)
		}
	}
}

func TestScheduledOn(t *testing.T) {
	f := Frequency{Kind: FrequencyWeekly, Days: []int{1, 3}}
	if !f.ScheduledOn(time.Monday) {
		t.Error("expected Monday scheduled")
	}
	if f.ScheduledOn(time.Tuesday) {
		t.Error("expected Tuesday not scheduled")
	}
	if !(Frequency{Kind: FrequencyDaily}).ScheduledOn(time.Sunday) {
		t.Error("daily habits are due every day")
	}
}

func TestCompanionCloneDoesNotAlias(t *testing.T) {
	c := &Companion{Items: []string{"hat-red"}, History: []HealthSnapshot{{Date: "2024-01-01", Health: 90}}}
	cp := c.Clone()
	cp.Items[0] = "hat-blue"
	cp.History[0].Health = 10
	if c.Items[0] != "hat-red" || c.History[0].Health != 90 {
		t.Errorf("Clone aliased slices: %+v", c)
	}
	var nilC *Companion
	if nilC.Clone() != nil {
		t.Error("Clone of nil should be nil")
	}
}
