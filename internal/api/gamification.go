package api

import (
	"net/http"
	"time"

	"github.com/habitbloom/bloom/internal/app/engagement"
	"github.com/habitbloom/bloom/internal/domain"
)

// ─── /api/gamification ──────────────────────────────────────────────────────

// gamificationView is the state plus the values a client derives from it.
type gamificationView struct {
	domain.GamificationState
	Tier        domain.Tier `json:"tier"`
	ProgressPct float64     `json:"progressPct"`
}

func newGamificationView(st domain.GamificationState) gamificationView {
	return gamificationView{
		GamificationState: st,
		Tier:              engagement.TierForLevel(st.Level),
		ProgressPct:       engagement.ProgressPct(st),
	}
}

func (s *Server) handleGamification(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, newGamificationView(s.engine.Snapshot()))
}

type completeRequest struct {
	HabitID           string     `json:"habitId" validate:"required"`
	IsFirstTime       bool       `json:"isFirstTime"`
	CurrentStreak     int        `json:"currentStreak" validate:"gte=0"`
	CompletedToday    int        `json:"completedToday" validate:"gte=0"`
	TotalToday        int        `json:"totalToday" validate:"gte=0"`
	LastCompletedDate *time.Time `json:"lastCompletedDate"`
}

func (s *Server) handleComplete(w http.ResponseWriter, r *http.Request) {
	var req completeRequest
	if err := s.decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	res := s.engine.OnHabitComplete(r.Context(), engagement.CompletionInput(req))
	writeJSON(w, http.StatusOK, res)
}

type freezeRequest struct {
	HabitID string `json:"habitId" validate:"required"`
}

func (s *Server) handleFreeze(w http.ResponseWriter, r *http.Request) {
	var req freezeRequest
	if err := s.decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	ev, err := s.engine.UseStreakFreeze(r.Context(), req.HabitID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"event":   ev,
		"streaks": s.engine.Snapshot().Streaks,
	})
}

type xpRequest struct {
	Amount int64 `json:"amount" validate:"gt=0"`
}

func (s *Server) handleAddXP(w http.ResponseWriter, r *http.Request) {
	var req xpRequest
	if err := s.decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	earned, err := s.engine.AddXP(r.Context(), req.Amount)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"freezesEarned": earned,
		"state":         newGamificationView(s.engine.Snapshot()),
	})
}

type dayQualityRequest struct {
	Completed int `json:"completedCount" validate:"gte=0"`
	Total     int `json:"habitCount" validate:"gte=0"`
}

func (s *Server) handleDayQuality(w http.ResponseWriter, r *http.Request) {
	var req dayQualityRequest
	if err := s.decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, s.engine.UpdateDayQuality(r.Context(), req.Completed, req.Total))
}

func (s *Server) handleAchievements(w http.ResponseWriter, r *http.Request) {
	st := s.engine.Snapshot()
	writeJSON(w, http.StatusOK, map[string]any{
		"achievements": st.Achievements,
		"unlocked":     st.UnlockedCount(),
		"total":        len(st.Achievements),
	})
}

func (s *Server) handleCheckAchievements(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"unlocked": s.engine.CheckAchievements(r.Context()),
	})
}

func (s *Server) handleStreakIncrement(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.engine.IncrementStreak(r.Context()))
}

func (s *Server) handleStreakBreak(w http.ResponseWriter, r *http.Request) {
	broken := s.engine.BreakStreak(r.Context())
	writeJSON(w, http.StatusOK, map[string]any{
		"broken":  broken,
		"streaks": s.engine.Snapshot().Streaks,
	})
}

func (s *Server) handleStreakReconcile(w http.ResponseWriter, r *http.Request) {
	broken := s.engine.Reconcile(r.Context())
	writeJSON(w, http.StatusOK, map[string]any{
		"broken":  broken,
		"streaks": s.engine.Snapshot().Streaks,
	})
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, newGamificationView(s.engine.Reset(r.Context())))
}
