package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/lazypower/habitpal/internal/engine"
	"github.com/lazypower/habitpal/internal/model"
)

// decode reads a JSON body into v. An empty body leaves v untouched when
// optional is set.
func decode(r *http.Request, v any, optional bool) error {
	err := json.NewDecoder(r.Body).Decode(v)
	if optional && errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.engine.Snapshot())
}

func (s *Server) handleReminders(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.engine.Reminders())
}

func (s *Server) handleAddHabit(w http.ResponseWriter, r *http.Request) {
	var req engine.NewHabit
	if err := decode(r, &req, false); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	h, err := s.engine.AddHabit(req)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, h)
}

func (s *Server) handleUpdateHabit(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "habitID")

	var req engine.HabitPatch
	if err := decode(r, &req, false); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	h, ok := s.engine.UpdateHabit(id, req)
	if !ok {
		writeError(w, http.StatusNotFound, "habit not found")
		return
	}
	writeJSON(w, http.StatusOK, h)
}

func (s *Server) handleDeleteHabit(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "habitID")
	if !s.engine.DeleteHabit(id) {
		writeError(w, http.StatusNotFound, "habit not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted", "id": id})
}

type progressRequest struct {
	Date string     `json:"date"`
	Mood model.Mood `json:"mood"`
}

type progressResponse struct {
	Changed   bool                `json:"changed"`
	Progress  model.DailyProgress `json:"progress"`
	Stats     model.HabitStats    `json:"stats"`
	Companion *model.Companion    `json:"companion"`
}

func (s *Server) progressRequest(w http.ResponseWriter, r *http.Request) (string, progressRequest, bool) {
	id := chi.URLParam(r, "habitID")
	var req progressRequest
	if err := decode(r, &req, true); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return "", req, false
	}
	if req.Mood != "" && !req.Mood.Valid() {
		writeError(w, http.StatusBadRequest, "unknown mood")
		return "", req, false
	}
	if _, ok := s.engine.Habit(id); !ok {
		writeError(w, http.StatusNotFound, "habit not found")
		return "", req, false
	}
	return id, req, true
}

func (s *Server) progressResult(habitID, date string, changed bool) progressResponse {
	st := s.engine.Snapshot()
	if date == "" {
		date = st.Today
	}
	resp := progressResponse{
		Changed:   changed,
		Progress:  model.DailyProgress{HabitID: habitID, Date: date},
		Stats:     st.Stats[habitID],
		Companion: st.Companion,
	}
	for _, p := range st.Progress {
		if p.HabitID == habitID && p.Date == date {
			resp.Progress = p
			break
		}
	}
	return resp
}

func (s *Server) handleLogProgress(w http.ResponseWriter, r *http.Request) {
	id, req, ok := s.progressRequest(w, r)
	if !ok {
		return
	}
	var opts []engine.LogOption
	if req.Mood != "" {
		opts = append(opts, engine.WithMood(req.Mood))
	}
	if !s.engine.LogProgress(id, req.Date, opts...) {
		writeError(w, http.StatusUnprocessableEntity, "date outside the progress window")
		return
	}
	writeJSON(w, http.StatusOK, s.progressResult(id, req.Date, true))
}

func (s *Server) handleUndoProgress(w http.ResponseWriter, r *http.Request) {
	id, req, ok := s.progressRequest(w, r)
	if !ok {
		return
	}
	changed := s.engine.UndoProgress(id, req.Date)
	writeJSON(w, http.StatusOK, s.progressResult(id, req.Date, changed))
}

func (s *Server) handleHabitStats(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "habitID")
	st, ok := s.engine.HabitStats(id)
	if !ok {
		writeError(w, http.StatusNotFound, "habit not found")
		return
	}

	limit := 30
	if v := r.URL.Query().Get("recent"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "recent must be a non-negative integer")
			return
		}
		limit = n
	}
	recent := []model.DailyProgress{}
	if limit > 0 {
		var err error
		recent, err = s.engine.RecentProgress(r.Context(), id, limit)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"stats":  st,
		"recent": recent,
	})
}

func (s *Server) handleCompanion(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name  string `json:"name"`
		Color string `json:"color"`
		Reset bool   `json:"reset"`
	}
	if err := decode(r, &req, false); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name required")
		return
	}

	if req.Reset {
		s.engine.ResetCompanion(req.Name, req.Color)
	} else if !s.engine.CreateCompanion(req.Name, req.Color) {
		writeError(w, http.StatusConflict, "companion already exists; set reset to replace it")
		return
	}
	writeJSON(w, http.StatusCreated, s.engine.Snapshot().Companion)
}

func (s *Server) handleBuyItem(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Item  string `json:"item"`
		Price int    `json:"price"`
	}
	if err := decode(r, &req, false); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if req.Item == "" || req.Price < 0 {
		writeError(w, http.StatusBadRequest, "item and a non-negative price required")
		return
	}
	if s.engine.Snapshot().IsOnboarding {
		writeError(w, http.StatusNotFound, "no companion")
		return
	}
	if !s.engine.BuyItem(req.Item, req.Price) {
		writeError(w, http.StatusConflict, "not enough xp")
		return
	}
	writeJSON(w, http.StatusOK, s.engine.Snapshot().Companion)
}

func (s *Server) handleEquipHat(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Hat string `json:"hat"`
	}
	if err := decode(r, &req, false); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if !s.engine.EquipHat(req.Hat) {
		writeError(w, http.StatusNotFound, "no companion")
		return
	}
	writeJSON(w, http.StatusOK, s.engine.Snapshot().Companion)
}

func (s *Server) handleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	var req model.Settings
	if err := decode(r, &req, false); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if err := s.engine.UpdateSettings(req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, s.engine.Snapshot().Settings)
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	s.engine.ResetAllData()
	s.log.Info("reset requested", zap.String("remote", r.RemoteAddr))
	writeJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}
