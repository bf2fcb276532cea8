// Package habits manages the habit list and the legacy stats sidecar stored
// under domain.KeyHabits. Completing a habit today is forwarded to the
// gamification engine when one is attached.
package habits

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"

	"github.com/habitbloom/bloom/internal/app/engagement"
	"github.com/habitbloom/bloom/internal/domain"
	"github.com/habitbloom/bloom/internal/infra/metrics"
	"github.com/habitbloom/bloom/internal/validate"
)

// Gamification receives completion events. *engagement.Service satisfies it.
type Gamification interface {
	OnHabitComplete(ctx context.Context, in engagement.CompletionInput) engagement.CompletionResult
}

// NewHabit is the input to Add.
type NewHabit struct {
	Name       string                 `json:"name" validate:"required,max=100"`
	Icon       string                 `json:"icon" validate:"max=64"`
	Category   domain.HabitCategory   `json:"category" validate:"required,oneof=fitness study wealth mental productivity custom"`
	Difficulty domain.HabitDifficulty `json:"difficulty" validate:"required,oneof=easy medium hard"`
	Color      string                 `json:"color" validate:"max=64"`
}

// ToggleResult reports the outcome of ToggleCompletion.
type ToggleResult struct {
	Habit        domain.Habit                 `json:"habit"`
	Completed    bool                         `json:"completed"`
	XPGained     int64                        `json:"xpGained"`
	LevelUp      bool                         `json:"levelUp"`
	NewBadges    []domain.Badge               `json:"newBadges"`
	Gamification *engagement.CompletionResult `json:"gamification,omitempty"`
}

// Today counts the habits completed on the current calendar day.
type Today struct {
	Date      string `json:"date"`
	Completed int    `json:"completed"`
	Total     int    `json:"total"`
}

// Option configures a Service.
type Option func(*Service)

// WithGamification forwards today's completions to g.
func WithGamification(g Gamification) Option {
	return func(s *Service) { s.game = g }
}

// WithClock overrides the time source.
func WithClock(clock domain.Clock) Option {
	return func(s *Service) { s.clock = clock }
}

// WithLocation sets the calendar used to decide what "today" is.
func WithLocation(loc *time.Location) Option {
	return func(s *Service) { s.loc = loc }
}

// WithLogger routes log output to l.
func WithLogger(l *log.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// WithIDGenerator overrides the habit id source.
func WithIDGenerator(gen domain.IDGenerator) Option {
	return func(s *Service) { s.newID = gen }
}

// Service owns the HabitData document.
type Service struct {
	mu    sync.Mutex
	data  domain.HabitData
	store domain.KVStore
	game  Gamification

	validate *validator.Validate
	policy   *bluemonday.Policy

	clock  domain.Clock
	newID  domain.IDGenerator
	loc    *time.Location
	logger *log.Logger

	// detached skips writes after a failed initial read.
	detached bool
}

// NewService loads the habit document from store. A nil store, or one that
// fails the initial read, keeps it in memory only.
func NewService(ctx context.Context, store domain.KVStore, opts ...Option) *Service {
	s := &Service{
		store:    store,
		validate: validate.New(),
		policy:   bluemonday.StrictPolicy(),
		clock:    time.Now,
		newID:    uuid.NewString,
		loc:      time.Local,
		logger:   log.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.data = s.load(ctx)
	metrics.HabitsActive.Set(float64(len(s.data.Habits)))
	return s
}

func (s *Service) now() time.Time {
	return s.clock().In(s.loc)
}

func (s *Service) load(ctx context.Context) domain.HabitData {
	fresh := domain.HabitData{Habits: []domain.Habit{}, Stats: DefaultStats()}
	if s.store == nil {
		return fresh
	}
	raw, ok, err := s.store.Get(ctx, domain.KeyHabits)
	if err != nil {
		s.logger.Printf("[habits] WARNING: read habits: %v (starting empty, not saving until restart)", err)
		s.detached = true
		return fresh
	}
	if !ok || raw == "" {
		return fresh
	}
	var data domain.HabitData
	if err := json.Unmarshal([]byte(raw), &data); err != nil {
		s.logger.Printf("[habits] WARNING: %v: %v (starting empty)", domain.ErrStateCorrupted, err)
		return fresh
	}
	return normalize(data)
}

func normalize(d domain.HabitData) domain.HabitData {
	if d.Habits == nil {
		d.Habits = []domain.Habit{}
	}
	for i := range d.Habits {
		if d.Habits[i].Completions == nil {
			d.Habits[i].Completions = []domain.HabitCompletion{}
		}
	}
	if d.Stats.Badges == nil {
		d.Stats.Badges = []domain.Badge{}
	}
	d.Stats.Level = LegacyLevel(d.Stats.XP)
	return d
}

func (s *Service) persist(ctx context.Context) {
	if s.store == nil || s.detached {
		return
	}
	raw, err := json.Marshal(s.data)
	if err != nil {
		s.logger.Printf("[habits] ERROR: encode habits: %v", err)
		metrics.PersistFailures.WithLabelValues(domain.KeyHabits).Inc()
		return
	}
	if err := s.store.Set(ctx, domain.KeyHabits, string(raw)); err != nil {
		s.logger.Printf("[habits] ERROR: save habits: %v", err)
		metrics.PersistFailures.WithLabelValues(domain.KeyHabits).Inc()
	}
}

func (s *Service) sanitize(text string) string {
	return strings.TrimSpace(s.policy.Sanitize(strings.TrimSpace(text)))
}

func (s *Service) parseDate(date string) (time.Time, error) {
	t, err := time.ParseInLocation(domain.DateLayout, date, s.loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", domain.ErrInvalidDate, date)
	}
	return t, nil
}

func (s *Service) checkMood(mood domain.Mood) error {
	if err := s.validate.Var(string(mood), "omitempty,oneof=great good okay bad terrible"); err != nil {
		return fmt.Errorf("%w: mood must be one of great, good, okay, bad, terrible", domain.ErrInvalidHabit)
	}
	return nil
}

func (s *Service) indexOf(id string) int {
	for i, h := range s.data.Habits {
		if h.ID == id {
			return i
		}
	}
	return -1
}

func cloneHabit(h domain.Habit) domain.Habit {
	h.Completions = append([]domain.HabitCompletion{}, h.Completions...)
	return h
}

// ─── Habit CRUD ─────────────────────────────────────────────────────────────

// Add validates and stores a new habit with zeroed counters.
func (s *Service) Add(ctx context.Context, in NewHabit) (domain.Habit, error) {
	if err := s.validate.Struct(in); err != nil {
		return domain.Habit{}, fmt.Errorf("%w: %s", domain.ErrInvalidHabit, validate.FormatError(err))
	}
	name := s.sanitize(in.Name)
	if name == "" {
		return domain.Habit{}, fmt.Errorf("%w: name is empty after sanitizing", domain.ErrInvalidHabit)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	h := domain.Habit{
		ID:          s.newID(),
		Name:        name,
		Icon:        s.sanitize(in.Icon),
		Category:    in.Category,
		Difficulty:  in.Difficulty,
		Completions: []domain.HabitCompletion{},
		CreatedAt:   s.now(),
		Color:       s.sanitize(in.Color),
	}
	s.data.Habits = append(s.data.Habits, h)
	s.persist(ctx)
	metrics.HabitsActive.Set(float64(len(s.data.Habits)))
	s.logger.Printf("[habits] created %q (%s)", h.Name, h.ID)
	return cloneHabit(h), nil
}

// Delete removes a habit.
func (s *Service) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return fmt.Errorf("%w: %s", domain.ErrHabitNotFound, id)
	}
	s.data.Habits = append(s.data.Habits[:i], s.data.Habits[i+1:]...)
	s.persist(ctx)
	metrics.HabitsActive.Set(float64(len(s.data.Habits)))
	s.logger.Printf("[habits] deleted %s", id)
	return nil
}

// List returns all habits in creation order.
func (s *Service) List() []domain.Habit {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]domain.Habit, len(s.data.Habits))
	for i, h := range s.data.Habits {
		out[i] = cloneHabit(h)
	}
	return out
}

// Get returns one habit.
func (s *Service) Get(id string) (domain.Habit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return domain.Habit{}, fmt.Errorf("%w: %s", domain.ErrHabitNotFound, id)
	}
	return cloneHabit(s.data.Habits[i]), nil
}

// Stats returns the legacy stats sidecar.
func (s *Service) Stats() domain.UserStats {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.data.Stats
	st.Badges = append([]domain.Badge{}, st.Badges...)
	return st
}

// Today reports how many habits are done on the current calendar day.
func (s *Service) Today() Today {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.today(s.now().Format(domain.DateLayout))
}

func (s *Service) today(date string) Today {
	t := Today{Date: date, Total: len(s.data.Habits)}
	for _, h := range s.data.Habits {
		if c, ok := h.CompletionOn(date); ok && c.Completed {
			t.Completed++
		}
	}
	return t
}

// ─── Completions ────────────────────────────────────────────────────────────

// ToggleCompletion flips the completion of habitID on date. Completing a
// habit grants legacy XP by difficulty; completing it today also feeds the
// gamification engine.
func (s *Service) ToggleCompletion(ctx context.Context, habitID, date, note string, mood domain.Mood) (ToggleResult, error) {
	if _, err := s.parseDate(date); err != nil {
		return ToggleResult{}, err
	}
	if err := s.checkMood(mood); err != nil {
		return ToggleResult{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(habitID)
	if i < 0 {
		return ToggleResult{}, fmt.Errorf("%w: %s", domain.ErrHabitNotFound, habitID)
	}

	now := s.now()
	today := now.Format(domain.DateLayout)
	yesterday := now.AddDate(0, 0, -1).Format(domain.DateLayout)

	h := cloneHabit(s.data.Habits[i])
	res := ToggleResult{NewBadges: []domain.Badge{}}

	existing := -1
	for j, c := range h.Completions {
		if c.Date == date {
			existing = j
			break
		}
	}

	var prevLast string
	var isFirstTime bool
	if existing >= 0 {
		h.Completions = append(h.Completions[:existing], h.Completions[existing+1:]...)
		h.Streak = max(0, h.Streak-1)
	} else {
		prevLast, _ = h.LastCompletedBefore(date)
		isFirstTime = true
		for _, c := range h.Completions {
			if c.Completed {
				isFirstTime = false
				break
			}
		}

		h.Completions = append(h.Completions, domain.HabitCompletion{
			Date:      date,
			Completed: true,
			Note:      s.sanitize(note),
			Mood:      mood,
		})
		res.Completed = true
		res.XPGained = h.Difficulty.XP()
		if date == today {
			if c, ok := h.CompletionOn(yesterday); ok && c.Completed {
				h.Streak++
			} else {
				h.Streak = 1
			}
		}
	}
	h.BestStreak = max(h.BestStreak, h.Streak)
	s.data.Habits[i] = h

	if res.XPGained > 0 {
		res.LevelUp, res.NewBadges = s.creditStats(res.XPGained, date, now)
	}

	// Re-checking a day already sent to the engine must not replay its XP
	// or recovery.
	if res.Completed && date == today && s.game != nil && h.RewardedOn != today {
		h.RewardedOn = today
		s.data.Habits[i] = h
		t := s.today(today)
		in := engagement.CompletionInput{
			HabitID:        h.ID,
			IsFirstTime:    isFirstTime,
			CurrentStreak:  h.Streak,
			CompletedToday: t.Completed,
			TotalToday:     t.Total,
		}
		if prevLast != "" {
			if last, err := s.parseDate(prevLast); err == nil {
				in.LastCompletedDate = &last
			}
		}
		gr := s.game.OnHabitComplete(ctx, in)
		res.Gamification = &gr
	}

	s.persist(ctx)

	direction := "off"
	if res.Completed {
		direction = "on"
	}
	metrics.HabitCompletions.WithLabelValues(direction).Inc()
	if res.Completed {
		s.logger.Printf("[habits] %s completed on %s (+%d XP, streak %d)", h.Name, date, res.XPGained, h.Streak)
	}

	res.Habit = cloneHabit(h)
	return res, nil
}

// creditStats applies legacy XP to the stats sidecar and awards badges.
// Caller holds mu.
func (s *Service) creditStats(xp int64, date string, now time.Time) (bool, []domain.Badge) {
	st := s.data.Stats
	prevLevel := st.Level
	st.XP += xp
	st.Level = LegacyLevel(st.XP)
	st.TotalHabitsCompleted++

	st.CurrentStreak = 0
	for _, h := range s.data.Habits {
		st.CurrentStreak = max(st.CurrentStreak, h.Streak)
	}
	st.LongestStreak = max(st.LongestStreak, st.CurrentStreak)

	earned := []domain.Badge{}
	for _, b := range badges {
		if st.HasBadge(b.ID) || !s.badgeEarned(b, st, date) {
			continue
		}
		at := now
		b.EarnedAt = &at
		earned = append(earned, b)
		s.logger.Printf("[habits] badge earned: %s", b.Name)
	}
	st.Badges = append(append([]domain.Badge{}, st.Badges...), earned...)
	s.data.Stats = st

	if st.Level > prevLevel {
		s.logger.Printf("[habits] level up: %d → %d", prevLevel, st.Level)
	}
	return st.Level > prevLevel, earned
}

func (s *Service) badgeEarned(b domain.Badge, st domain.UserStats, date string) bool {
	switch b.Type {
	case domain.BadgeCompletion:
		return int64(st.TotalHabitsCompleted) >= b.Requirement
	case domain.BadgeXP:
		return st.XP >= b.Requirement
	case domain.BadgeStreak:
		return int64(st.CurrentStreak) >= b.Requirement
	case domain.BadgePerfectWeek:
		return s.perfectWeekEndingOn(date)
	default:
		return false
	}
}

// perfectWeekEndingOn reports whether every habit was completed on each of
// the seven days ending on date.
func (s *Service) perfectWeekEndingOn(date string) bool {
	if len(s.data.Habits) == 0 {
		return false
	}
	end, err := s.parseDate(date)
	if err != nil {
		return false
	}
	for d := 0; d < 7; d++ {
		if t := s.today(end.AddDate(0, 0, -d).Format(domain.DateLayout)); t.Completed < t.Total {
			return false
		}
	}
	return true
}

// AddNote annotates an existing completion. Dates without a completion are
// left untouched.
func (s *Service) AddNote(ctx context.Context, habitID, date, note string, mood domain.Mood) error {
	if _, err := s.parseDate(date); err != nil {
		return err
	}
	if err := s.checkMood(mood); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(habitID)
	if i < 0 {
		return fmt.Errorf("%w: %s", domain.ErrHabitNotFound, habitID)
	}
	h := cloneHabit(s.data.Habits[i])
	changed := false
	for j := range h.Completions {
		if h.Completions[j].Date == date {
			h.Completions[j].Note = s.sanitize(note)
			h.Completions[j].Mood = mood
			changed = true
		}
	}
	if !changed {
		return nil
	}
	s.data.Habits[i] = h
	s.persist(ctx)
	return nil
}

// UseStreakFreeze spends one legacy freeze. Returns the freezes left.
func (s *Service) UseStreakFreeze(ctx context.Context, habitID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.indexOf(habitID) < 0 {
		return 0, fmt.Errorf("%w: %s", domain.ErrHabitNotFound, habitID)
	}
	if s.data.Stats.StreakFreezes <= 0 {
		s.logger.Printf("[habits] WARNING: no streak freezes left")
		return 0, domain.ErrNoFreezesAvailable
	}
	s.data.Stats.StreakFreezes--
	s.persist(ctx)
	return s.data.Stats.StreakFreezes, nil
}
