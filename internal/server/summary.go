package server

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/lazypower/habitpal/internal/engine"
	"github.com/lazypower/habitpal/internal/model"
	"github.com/lazypower/habitpal/internal/pet"
)

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	fmt.Fprint(w, buildSummary(s.engine.Snapshot(), s.engine.Now()))
}

// buildSummary renders today's status as markdown.
func buildSummary(st engine.State, now time.Time) string {
	var b strings.Builder

	b.WriteString("## HabitPal " + st.Today + "\n")

	if c := st.Companion; c != nil {
		b.WriteString("\n### " + c.Name + "\n")
		fmt.Fprintf(&b, "- Level %d, %d/%d XP\n", c.Level, c.XP, pet.ThresholdFor(c.Level))
		fmt.Fprintf(&b, "- Health %d/%d, %s\n", c.Health, c.MaxHealth, c.Mood)
		if !c.LastInteraction.IsZero() {
			fmt.Fprintf(&b, "- Last fed %s\n", humanize.RelTime(c.LastInteraction, now, "ago", "from now"))
		}
		if c.Hat != "" {
			fmt.Fprintf(&b, "- Wearing %s\n", c.Hat)
		}
	} else {
		b.WriteString("\nNo companion yet. Hatch one to get started.\n")
	}

	if len(st.Habits) == 0 {
		return b.String()
	}

	today := make(map[string]model.DailyProgress)
	for _, p := range st.Progress {
		if p.Date == st.Today {
			today[p.HabitID] = p
		}
	}

	b.WriteString("\n### Today\n")
	for _, h := range st.Habits {
		p := today[h.ID]
		mark := " "
		if p.Completed {
			mark = "x"
		}
		fmt.Fprintf(&b, "- [%s] %s (%d/%d)", mark, h.Title, p.CurrentCount, max(h.TargetCount, 1))
		if stats := st.Stats[h.ID]; stats.CurrentStreak > 0 {
			fmt.Fprintf(&b, ", %d-day streak", stats.CurrentStreak)
		}
		if total := st.Stats[h.ID].TotalCompletions; total > 0 {
			fmt.Fprintf(&b, ", %s total", humanize.Comma(int64(total)))
		}
		b.WriteString("\n")
	}
	return b.String()
}
