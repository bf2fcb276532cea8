// Package api provides the Bloom HTTP server: the gamification engine and
// the habit list as a small JSON API.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/habitbloom/bloom/internal/app/engagement"
	"github.com/habitbloom/bloom/internal/app/habits"
	"github.com/habitbloom/bloom/internal/domain"
	"github.com/habitbloom/bloom/internal/health"
	"github.com/habitbloom/bloom/internal/validate"
)

// Server is the Bloom HTTP API server.
type Server struct {
	engine         *engagement.Service
	habits         *habits.Service
	health         *health.Checker
	validate       *validator.Validate
	version        string
	corsOrigins    []string
	metricsEnabled bool
}

// NewServer creates a new API server.
func NewServer(engine *engagement.Service, habitSvc *habits.Service) *Server {
	return &Server{
		engine:   engine,
		habits:   habitSvc,
		validate: validate.New(),
		version:  "dev",
	}
}

// SetHealth attaches a checker whose latest results /health reports.
func (s *Server) SetHealth(c *health.Checker) { s.health = c }

// EnableMetrics enables the /metrics Prometheus endpoint.
func (s *Server) EnableMetrics() { s.metricsEnabled = true }

// SetVersion sets the string reported by /api/version.
func (s *Server) SetVersion(v string) { s.version = v }

// SetCORSOrigins restricts cross-origin access. Empty or "*" allows any origin.
func (s *Server) SetCORSOrigins(origins []string) { s.corsOrigins = origins }

// Handler returns the chi router with all routes mounted.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(s.corsMiddleware)

	r.Get("/health", s.handleHealth)

	r.Get("/api/version", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"version": s.version})
	})

	r.Route("/api/gamification", func(r chi.Router) {
		r.Get("/", s.handleGamification)
		r.Post("/complete", s.handleComplete)
		r.Post("/freeze", s.handleFreeze)
		r.Post("/xp", s.handleAddXP)
		r.Post("/day-quality", s.handleDayQuality)
		r.Get("/achievements", s.handleAchievements)
		r.Post("/achievements/check", s.handleCheckAchievements)
		r.Post("/streak/increment", s.handleStreakIncrement)
		r.Post("/streak/break", s.handleStreakBreak)
		r.Post("/streak/reconcile", s.handleStreakReconcile)
		r.Post("/reset", s.handleReset)
	})

	r.Route("/api/habits", func(r chi.Router) {
		r.Get("/", s.handleListHabits)
		r.Post("/", s.handleAddHabit)
		r.Get("/templates", s.handleTemplates)
		r.Get("/badges", s.handleBadges)
		r.Get("/{id}", s.handleGetHabit)
		r.Delete("/{id}", s.handleDeleteHabit)
		r.Post("/{id}/toggle", s.handleToggle)
		r.Post("/{id}/note", s.handleNote)
		r.Post("/{id}/freeze", s.handleHabitFreeze)
	})
	r.Get("/api/stats", s.handleStats)

	if s.metricsEnabled {
		r.Handle("/metrics", promhttp.Handler())
	}

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.health == nil {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		return
	}
	status, code := "ok", http.StatusOK
	if !s.health.IsHealthy() {
		status, code = "degraded", http.StatusServiceUnavailable
	}
	writeJSON(w, code, map[string]any{
		"status": status,
		"checks": s.health.Statuses(),
	})
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{
		"error": map[string]any{
			"message": msg,
			"type":    errorType(status),
		},
	})
}

// writeDomainError maps a service error to its status code.
func writeDomainError(w http.ResponseWriter, err error) {
	writeError(w, statusFor(err), err.Error())
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrHabitNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidHabit),
		errors.Is(err, domain.ErrInvalidDate),
		errors.Is(err, domain.ErrInvalidXP):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrNoFreezesAvailable):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func errorType(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "invalid_request"
	case http.StatusNotFound:
		return "not_found"
	case http.StatusConflict:
		return "conflict"
	default:
		return "error"
	}
}

// decode reads a JSON body into v and validates it.
func (s *Server) decode(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	if err := s.validate.Struct(v); err != nil {
		return errors.New(validate.FormatError(err))
	}
	return nil
}

func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		switch {
		case len(s.corsOrigins) == 0 || slices.Contains(s.corsOrigins, "*"):
			w.Header().Set("Access-Control-Allow-Origin", "*")
		case origin != "" && slices.Contains(s.corsOrigins, origin):
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Add("Vary", "Origin")
		}
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}
