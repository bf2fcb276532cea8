package api

import (
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/habitbloom/bloom/internal/app/habits"
	"github.com/habitbloom/bloom/internal/domain"
)

// ─── /api/habits ────────────────────────────────────────────────────────────

func (s *Server) handleListHabits(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"habits": s.habits.List(),
		"today":  s.habits.Today(),
	})
}

func (s *Server) handleAddHabit(w http.ResponseWriter, r *http.Request) {
	var req habits.NewHabit
	if err := s.decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	h, err := s.habits.Add(r.Context(), req)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, h)
}

func (s *Server) handleGetHabit(w http.ResponseWriter, r *http.Request) {
	h, err := s.habits.Get(chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h)
}

func (s *Server) handleDeleteHabit(w http.ResponseWriter, r *http.Request) {
	if err := s.habits.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type toggleRequest struct {
	Date string      `json:"date" validate:"omitempty,datetime=2006-01-02"`
	Note string      `json:"note" validate:"max=500"`
	Mood domain.Mood `json:"mood" validate:"omitempty,oneof=great good okay bad terrible"`
}

func (s *Server) handleToggle(w http.ResponseWriter, r *http.Request) {
	var req toggleRequest
	if err := s.decode(r, &req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Date == "" {
		req.Date = s.habits.Today().Date
	}
	res, err := s.habits.ToggleCompletion(r.Context(), chi.URLParam(r, "id"), req.Date, req.Note, req.Mood)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

type noteRequest struct {
	Date string      `json:"date" validate:"required,datetime=2006-01-02"`
	Note string      `json:"note" validate:"max=500"`
	Mood domain.Mood `json:"mood" validate:"omitempty,oneof=great good okay bad terrible"`
}

func (s *Server) handleNote(w http.ResponseWriter, r *http.Request) {
	var req noteRequest
	if err := s.decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	id := chi.URLParam(r, "id")
	if err := s.habits.AddNote(r.Context(), id, req.Date, req.Note, req.Mood); err != nil {
		writeDomainError(w, err)
		return
	}
	h, err := s.habits.Get(id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h)
}

// handleHabitFreeze spends a legacy freeze and, when the engine has one, an
// engine freeze for the same habit.
func (s *Server) handleHabitFreeze(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	left, err := s.habits.UseStreakFreeze(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	resp := map[string]any{"streakFreezes": left}
	ev, err := s.engine.UseStreakFreeze(r.Context(), id)
	switch {
	case err == nil:
		resp["event"] = ev
	case !errors.Is(err, domain.ErrNoFreezesAvailable):
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleTemplates(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"templates": habits.Templates()})
}

func (s *Server) handleBadges(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"badges": habits.Badges()})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	st := s.habits.Stats()
	writeJSON(w, http.StatusOK, map[string]any{
		"stats":       st,
		"nextLevelXP": habits.LegacyXPForNextLevel(st.Level),
		"today":       s.habits.Today(),
	})
}
