package days

import (
	"testing"
	"time"
)

func TestKeyInUsesLocalCalendar(t *testing.T) {
	tokyo := time.FixedZone("JST", 9*60*60)
	// 2024-03-10 20:30 UTC is already 2024-03-11 in Tokyo.
	ts := time.Date(2024, 3, 10, 20, 30, 0, 0, time.UTC)

	if got := KeyIn(ts, tokyo); got != "2024-03-11" {
		t.Errorf("KeyIn(tokyo) = %q, want 2024-03-11", got)
	}
	if got := KeyIn(ts, time.UTC); got != "2024-03-10" {
		t.Errorf("KeyIn(utc) = %q, want 2024-03-10", got)
	}

	la := time.FixedZone("PST", -8*60*60)
	early := time.Date(2024, 1, 2, 3, 0, 0, 0, time.UTC)
	if got := KeyIn(early, la); got != "2024-01-01" {
		t.Errorf("KeyIn(la) = %q, want 2024-01-01", got)
	}
}

func TestKeyZeroPadded(t *testing.T) {
	ts := time.Date(2024, 2, 5, 12, 0, 0, 0, time.UTC)
	if got := KeyIn(ts, time.UTC); got != "2024-02-05" {
		t.Errorf("KeyIn = %q, want 2024-02-05", got)
	}
}

func TestBetween(t *testing.T) {
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		name string
		b    time.Time
		want int
	}{
		{"same instant", base, 0},
		{"one minute", base.Add(time.Minute), 1},
		{"exactly one day", base.Add(24 * time.Hour), 1},
		{"just over one day", base.Add(25 * time.Hour), 2},
		{"two days", base.Add(48 * time.Hour), 2},
		{"backwards", base.Add(-72 * time.Hour), 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Between(base, tt.b); got != tt.want {
				t.Errorf("Between = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestAddAndGap(t *testing.T) {
	k, err := Add("2024-02-28", 1)
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if k != "2024-02-29" {
		t.Errorf("Add leap = %q, want 2024-02-29", k)
	}

	k, _ = Add("2024-01-01", -1)
	if k != "2023-12-31" {
		t.Errorf("Add(-1) = %q, want 2023-12-31", k)
	}

	g, err := Gap("2024-03-01", "2024-02-28")
	if err != nil {
		t.Fatalf("Gap: %v", err)
	}
	if g != 2 {
		t.Errorf("Gap = %d, want 2", g)
	}

	if _, err := Gap("nope", "2024-01-01"); err == nil {
		t.Error("expected error for malformed key")
	}
}

func TestInWindow(t *testing.T) {
	at := func(h, m int) time.Time { return time.Date(2024, 6, 1, h, m, 0, 0, time.UTC) }

	tests := []struct {
		name       string
		now        time.Time
		start, end string
		want       bool
	}{
		{"overnight late", at(23, 0), "22:00", "07:00", true},
		{"overnight early", at(6, 59), "22:00", "07:00", true},
		{"overnight end exclusive", at(7, 0), "22:00", "07:00", false},
		{"overnight day", at(12, 0), "22:00", "07:00", false},
		{"same-day inside", at(14, 0), "13:00", "15:00", true},
		{"same-day outside", at(16, 0), "13:00", "15:00", false},
		{"empty window", at(10, 0), "10:00", "10:00", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := InWindow(tt.now, time.UTC, tt.start, tt.end)
			if err != nil {
				t.Fatalf("InWindow: %v", err)
			}
			if got != tt.want {
				t.Errorf("InWindow = %v, want %v", got, tt.want)
			}
		})
	}

	if _, err := InWindow(at(1, 0), time.UTC, "25:00", "07:00"); err == nil {
		t.Error("expected error for bad clock")
	}
}
