package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/lazypower/habitpal/internal/engine"
	"github.com/lazypower/habitpal/internal/model"
)

func TestLogSendsBody(t *testing.T) {
	var gotPath string
	var gotBody progressBody
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		json.NewDecoder(r.Body).Decode(&gotBody)
		json.NewEncoder(w).Encode(Progress{
			Changed:  true,
			Progress: model.DailyProgress{HabitID: "h1", Date: "2024-06-10", CurrentCount: 1, Completed: true},
		})
	}))
	defer ts.Close()

	c := New(ts.URL+"/", time.Second)
	p, err := c.Log(context.Background(), "h1", "2024-06-10", model.MoodHappy)
	if err != nil {
		t.Fatalf("Log: %v", err)
	}
	if gotPath != "/api/habits/h1/log" {
		t.Errorf("path = %q", gotPath)
	}
	if gotBody.Date != "2024-06-10" || gotBody.Mood != model.MoodHappy {
		t.Errorf("body = %+v", gotBody)
	}
	if !p.Changed || !p.Progress.Completed {
		t.Errorf("progress = %+v", p)
	}
}

func TestStatusError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error":"habit not found"}`))
	}))
	defer ts.Close()

	_, err := New(ts.URL, 0).Undo(context.Background(), "nope", "")
	var se *StatusError
	if !errors.As(err, &se) {
		t.Fatalf("err = %v, want *StatusError", err)
	}
	if se.Code != http.StatusNotFound || se.Message != "habit not found" {
		t.Errorf("status error = %+v", se)
	}
}

func TestAddHabitAndState(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/habits", func(w http.ResponseWriter, r *http.Request) {
		var h engine.NewHabit
		json.NewDecoder(r.Body).Decode(&h)
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(model.Habit{ID: "h1", Title: h.Title, TargetCount: h.TargetCount})
	})
	mux.HandleFunc("GET /api/state", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(engine.State{Today: "2024-06-10", IsOnboarding: true})
	})
	mux.HandleFunc("GET /api/summary", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("## HabitPal 2024-06-10\n"))
	})
	ts := httptest.NewServer(mux)
	defer ts.Close()

	c := New(ts.URL, time.Second)
	ctx := context.Background()

	h, err := c.AddHabit(ctx, engine.NewHabit{Title: "Walk", TargetCount: 2})
	if err != nil {
		t.Fatalf("AddHabit: %v", err)
	}
	if h.ID != "h1" || h.Title != "Walk" || h.TargetCount != 2 {
		t.Errorf("habit = %+v", h)
	}

	st, err := c.State(ctx)
	if err != nil {
		t.Fatalf("State: %v", err)
	}
	if st.Today != "2024-06-10" || !st.IsOnboarding {
		t.Errorf("state = %+v", st)
	}

	sum, err := c.Summary(ctx)
	if err != nil || sum != "## HabitPal 2024-06-10\n" {
		t.Errorf("Summary = %q, %v", sum, err)
	}
}

func TestHealthyUnreachable(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	url := ts.URL
	ts.Close()

	if New(url, 100*time.Millisecond).Healthy(context.Background()) {
		t.Error("closed server reported healthy")
	}
}
