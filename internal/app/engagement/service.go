// Package engagement implements the Bloom gamification engine: the level
// curve, day quality, recovery, XP awards, streaks and achievements, plus the
// Service that owns the single GamificationState.
//
// Transitions are pure functions over domain.GamificationState. The Service
// serializes them, swaps the published snapshot and persists it best-effort.
package engagement

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/habitbloom/bloom/internal/domain"
	"github.com/habitbloom/bloom/internal/infra/metrics"
)

// Option configures a Service.
type Option func(*Service)

// WithClock overrides the time source.
func WithClock(clock domain.Clock) Option {
	return func(s *Service) { s.clock = clock }
}

// WithIDGenerator overrides the event id source.
func WithIDGenerator(gen domain.IDGenerator) Option {
	return func(s *Service) { s.newID = gen }
}

// WithLogger routes log output to l.
func WithLogger(l *log.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// WithLocation sets the calendar used for day boundaries.
func WithLocation(loc *time.Location) Option {
	return func(s *Service) { s.loc = loc }
}

// WithDebug enables per-transition logging.
func WithDebug(debug bool) Option {
	return func(s *Service) { s.debug = debug }
}

// Service owns one GamificationState. All mutations are serialized; readers
// get deep copies, so a snapshot never changes after it is returned.
type Service struct {
	mu    sync.Mutex
	state domain.GamificationState
	store domain.KVStore

	clock  domain.Clock
	newID  domain.IDGenerator
	loc    *time.Location
	logger *log.Logger
	debug  bool

	// detached is set when the stored state could not be read. Writes are
	// skipped so the unread document is never overwritten.
	detached bool
}

// NewService loads the state stored under domain.KeyGamification, falling
// back to a fresh state when nothing is stored or the document is malformed.
// A nil store, or one that fails the initial read, keeps the state in memory
// only.
func NewService(ctx context.Context, store domain.KVStore, opts ...Option) *Service {
	s := &Service{
		store:  store,
		clock:  time.Now,
		loc:    time.Local,
		logger: log.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.state = s.load(ctx)
	s.observe(s.state)
	return s
}

func (s *Service) now() time.Time {
	return s.clock().In(s.loc)
}

func (s *Service) env() Env {
	return Env{Now: s.now(), NewID: s.newID}
}

func (s *Service) load(ctx context.Context) domain.GamificationState {
	now := s.now()
	if s.store == nil {
		return NewState(now)
	}
	raw, ok, err := s.store.Get(ctx, domain.KeyGamification)
	if err != nil {
		s.logger.Printf("[engagement] WARNING: read state: %v (starting fresh, not saving until restart)", err)
		s.detached = true
		return NewState(now)
	}
	if !ok || raw == "" {
		return NewState(now)
	}
	st, err := DecodeState([]byte(raw), now)
	if err != nil {
		s.logger.Printf("[engagement] WARNING: %v (starting fresh)", err)
		return NewState(now)
	}
	return st
}

// DecodeState parses a stored document and normalizes it.
// Returns domain.ErrStateCorrupted when the JSON cannot be decoded.
func DecodeState(raw []byte, now time.Time) (domain.GamificationState, error) {
	var st domain.GamificationState
	if err := json.Unmarshal(raw, &st); err != nil {
		return domain.GamificationState{}, fmt.Errorf("%w: %v", domain.ErrStateCorrupted, err)
	}
	return Normalize(st, now), nil
}

// persist writes st under the gamification key. Failures are logged and
// counted; the in-memory state stays authoritative.
func (s *Service) persist(ctx context.Context, st domain.GamificationState) {
	if s.store == nil {
		return
	}
	if s.detached {
		s.debugf("skip save: stored state was never read")
		return
	}
	raw, err := json.Marshal(st)
	if err != nil {
		s.logger.Printf("[engagement] ERROR: encode state: %v", err)
		metrics.PersistFailures.WithLabelValues(domain.KeyGamification).Inc()
		return
	}
	if err := s.store.Set(ctx, domain.KeyGamification, string(raw)); err != nil {
		s.logger.Printf("[engagement] ERROR: save state: %v", err)
		metrics.PersistFailures.WithLabelValues(domain.KeyGamification).Inc()
	}
}

// commit publishes next as the current state and persists it. Caller holds mu.
func (s *Service) commit(ctx context.Context, next domain.GamificationState) {
	s.state = next
	s.observe(next)
	s.persist(ctx, next)
}

func (s *Service) observe(st domain.GamificationState) {
	metrics.Level.Set(float64(st.Level))
	metrics.TotalXP.Set(float64(st.TotalXP))
	metrics.StreakCurrent.Set(float64(st.Streaks.Current))
}

func (s *Service) debugf(format string, args ...any) {
	if s.debug {
		s.logger.Printf("[engagement] "+format, args...)
	}
}

func recordUnlocks(unlocked []domain.Achievement, logger *log.Logger) {
	for _, a := range unlocked {
		metrics.AchievementsUnlocked.WithLabelValues(string(a.Tier)).Inc()
		logger.Printf("[engagement] achievement unlocked: %s (%s)", a.ID, a.Name)
	}
}

// Snapshot returns a copy of the current state.
func (s *Service) Snapshot() domain.GamificationState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}

// OnHabitComplete applies a completion event and returns what changed.
func (s *Service) OnHabitComplete(ctx context.Context, in CompletionInput) CompletionResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, res := OnHabitComplete(s.state, in, s.env())
	s.commit(ctx, next)

	metrics.XPAwarded.WithLabelValues("completion").Add(float64(res.XPAwarded))
	if res.LeveledUp() {
		metrics.LevelUps.Inc()
		s.logger.Printf("[engagement] level up: %d → %d (%s)", res.LevelBefore, res.LevelAfter, next.TierName)
	}
	if res.Recovery != nil {
		metrics.Recoveries.WithLabelValues(string(res.Recovery.Type)).Inc()
	}
	if res.FreezesEarned > 0 {
		metrics.FreezesEarned.Add(float64(res.FreezesEarned))
	}
	if res.StreakBroken {
		metrics.StreakBreaks.Inc()
	}
	recordUnlocks(res.Unlocked, s.logger)
	s.debugf("complete habit=%s xp=+%d total=%d streak=%d", in.HabitID, res.XPAwarded, next.TotalXP, next.Streaks.Current)
	return res
}

// AddXP credits a positive XP amount. Returns the freezes earned.
func (s *Service) AddXP(ctx context.Context, amount int64) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	before := s.state.Level
	next, earned, err := AddXP(s.state, amount, s.env())
	if err != nil {
		return 0, err
	}
	s.commit(ctx, next)

	metrics.XPAwarded.WithLabelValues("manual").Add(float64(amount))
	if next.Level > before {
		metrics.LevelUps.Inc()
	}
	if earned > 0 {
		metrics.FreezesEarned.Add(float64(earned))
	}
	s.debugf("add xp=+%d total=%d", amount, next.TotalXP)
	return earned, nil
}

// UseStreakFreeze spends a freeze. With none left it logs a warning and
// returns domain.ErrNoFreezesAvailable; the state is unchanged.
func (s *Service) UseStreakFreeze(ctx context.Context, habitID string) (domain.StreakFreezeEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, ev, err := UseStreakFreeze(s.state, habitID, s.env())
	if err != nil {
		if errors.Is(err, domain.ErrNoFreezesAvailable) {
			s.logger.Printf("[engagement] WARNING: no freezes available for habit %s", habitID)
		}
		return domain.StreakFreezeEvent{}, err
	}
	s.commit(ctx, next)
	metrics.FreezesUsed.Inc()
	s.debugf("freeze used habit=%s remaining=%d", habitID, next.Streaks.FreezesAvailable)
	return ev, nil
}

// IncrementStreak extends the streak by one day.
func (s *Service) IncrementStreak(ctx context.Context) domain.StreakData {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := ApplyIncrement(s.state, s.env())
	s.commit(ctx, next)
	return next.Streaks
}

// BreakStreak resets the streak. Reports false when a freeze protected it.
func (s *Service) BreakStreak(ctx context.Context) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, broken := ApplyBreak(s.state, s.env())
	if !broken {
		s.debugf("break suppressed by freeze")
		return false
	}
	s.commit(ctx, next)
	metrics.StreakBreaks.Inc()
	return true
}

// Reconcile breaks the streak if an unprotected day has been missed since
// the last completion. Reports whether it broke.
func (s *Service) Reconcile(ctx context.Context) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, broken := ApplyReconcile(s.state, s.env())
	if !broken {
		return false
	}
	s.commit(ctx, next)
	metrics.StreakBreaks.Inc()
	s.logger.Printf("[engagement] streak reset after missed day")
	return true
}

// UpdateDayQuality replaces the day quality snapshot.
func (s *Service) UpdateDayQuality(ctx context.Context, completed, total int) domain.DayQualityScore {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := UpdateDayQuality(s.state, completed, total, s.env())
	s.commit(ctx, next)
	return *next.DayQuality
}

// CheckAchievements re-evaluates achievements and returns the new unlocks.
func (s *Service) CheckAchievements(ctx context.Context) []domain.Achievement {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, unlocked := CheckAchievements(s.state, s.env())
	s.commit(ctx, next)
	recordUnlocks(unlocked, s.logger)
	return unlocked
}

// Reset discards all progress and persists a fresh state.
func (s *Service) Reset(ctx context.Context) domain.GamificationState {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := Reset(s.env())
	s.commit(ctx, next)
	s.logger.Printf("[engagement] state reset")
	return next.Clone()
}
