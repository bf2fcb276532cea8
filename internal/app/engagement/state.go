package engagement

import (
	"time"

	"github.com/google/uuid"

	"github.com/habitbloom/bloom/internal/domain"
)

// Env carries the collaborators a transition needs: the current time and an
// id source for new events.
type Env struct {
	Now   time.Time
	NewID domain.IDGenerator
}

func (e Env) id(prefix string) string {
	if e.NewID != nil {
		return prefix + "_" + e.NewID()
	}
	return prefix + "_" + uuid.NewString()
}

// CompletionInput is one habit-completion event.
type CompletionInput struct {
	HabitID           string     `json:"habitId"`
	IsFirstTime       bool       `json:"isFirstTime"`
	CurrentStreak     int        `json:"currentStreak"`
	CompletedToday    int        `json:"completedToday"`
	TotalToday        int        `json:"totalToday"`
	LastCompletedDate *time.Time `json:"lastCompletedDate"`
}

// CompletionResult summarizes what one completion changed.
type CompletionResult struct {
	XPAwarded         int64                  `json:"xpAwarded"` // habit XP + day quality bonus
	HabitXP           int64                  `json:"habitXP"`
	DayQuality        domain.DayQualityScore `json:"dayQuality"`
	LevelBefore       int                    `json:"levelBefore"`
	LevelAfter        int                    `json:"levelAfter"`
	Recovery          *domain.RecoveryEvent  `json:"recovery,omitempty"`
	FreezesEarned     int                    `json:"freezesEarned"`
	StreakIncremented bool                   `json:"streakIncremented"`
	StreakBroken      bool                   `json:"streakBroken"`
	Unlocked          []domain.Achievement   `json:"unlocked"`
}

// LeveledUp reports whether the event crossed a level boundary.
func (r CompletionResult) LeveledUp() bool { return r.LevelAfter > r.LevelBefore }

// NewState returns a freshly initialized state.
func NewState(now time.Time) domain.GamificationState {
	s := domain.GamificationState{
		Streaks: domain.StreakData{
			FreezeHistory: []domain.StreakFreezeEvent{},
		},
		Recoveries:      []domain.RecoveryEvent{},
		Achievements:    SeedAchievements(),
		FirstUseDate:    now,
		LastActiveDate:  now,
		TotalDaysActive: 1,
	}
	deriveLevel(&s)
	return s
}

// Normalize repairs a decoded state: derived fields are recomputed, missing
// collections are allocated, the catalog is merged and counters are clamped.
func Normalize(s domain.GamificationState, now time.Time) domain.GamificationState {
	s = s.Clone()
	if s.Streaks.FreezeHistory == nil {
		s.Streaks.FreezeHistory = []domain.StreakFreezeEvent{}
	}
	if s.Recoveries == nil {
		s.Recoveries = []domain.RecoveryEvent{}
	}
	s.Achievements = MergeCatalog(s.Achievements)

	if s.Streaks.Current < 0 {
		s.Streaks.Current = 0
	}
	if s.Streaks.Longest < s.Streaks.Current {
		s.Streaks.Longest = s.Streaks.Current
	}
	if s.Streaks.FreezesAvailable < 0 {
		s.Streaks.FreezesAvailable = 0
	}
	if s.Streaks.FreezesAvailable > domain.MaxFreezes {
		s.Streaks.FreezesAvailable = domain.MaxFreezes
	}
	if s.FirstUseDate.IsZero() {
		s.FirstUseDate = now
	}
	if s.LastActiveDate.IsZero() {
		s.LastActiveDate = s.FirstUseDate
	}
	if s.TotalDaysActive < 1 {
		s.TotalDaysActive = 1
	}
	deriveLevel(&s)
	return s
}

// touchActivity records activity at now, counting each new calendar day once.
func touchActivity(s *domain.GamificationState, now time.Time) {
	if DaysBetween(s.LastActiveDate, now) >= 1 {
		s.TotalDaysActive++
	}
	if now.After(s.LastActiveDate) {
		s.LastActiveDate = now
	}
}

// creditXP adds amount to the state, re-derives the level and applies the
// freeze earning delta. Returns the freezes credited.
func creditXP(s *domain.GamificationState, amount int64) int {
	prev := s.TotalXP
	s.TotalXP = addXP(prev, amount)
	deriveLevel(s)
	var earned int
	s.Streaks, earned = EarnFreezes(s.Streaks, prev, s.TotalXP)
	return earned
}

// OnHabitComplete applies one completion: day quality, recovery
// classification, XP award, level re-derivation, freeze earning, the daily
// streak update and achievement re-evaluation.
func OnHabitComplete(prev domain.GamificationState, in CompletionInput, env Env) (domain.GamificationState, CompletionResult) {
	now := env.Now
	s := prev.Clone()
	res := CompletionResult{LevelBefore: prev.Level}

	dq := EvaluateDay(in.CompletedToday, in.TotalToday)
	dq.Date = DateKey(now)
	s.DayQuality = &dq
	res.DayQuality = dq

	isRecovery := false
	gapDays := 0
	if in.LastCompletedDate != nil {
		if DaysBetween(*in.LastCompletedDate, now) > 1 {
			isRecovery = true
			gapDays = MissedDays(*in.LastCompletedDate, now)
		}
	}

	res.HabitXP = AwardXP(AwardInput{
		IsFirstTime:     in.IsFirstTime,
		CurrentStreak:   in.CurrentStreak,
		DayQuality:      dq.Quality,
		IsRecovery:      isRecovery,
		RecoveryGapDays: gapDays,
	})
	res.XPAwarded = addXP(res.HabitXP, dq.BonusXP)

	if isRecovery && gapDays > 0 {
		class := ClassifyRecovery(gapDays)
		ev := domain.RecoveryEvent{
			ID:                  env.id("recovery"),
			HabitID:             in.HabitID,
			MissedDays:          gapDays,
			RecoveryDate:        now,
			XPAwarded:           class.XP,
			AchievementUnlocked: class.Badge,
			Type:                class.Type,
		}
		s.Recoveries = append(s.Recoveries, ev)
		res.Recovery = &ev
	}

	res.FreezesEarned = creditXP(&s, res.XPAwarded)
	touchActivity(&s, now)

	s.Streaks, res.StreakBroken = ReconcileStreak(s.Streaks, now)
	if s.Streaks.LastCompletedDate == nil || !SameDay(*s.Streaks.LastCompletedDate, now) {
		s.Streaks = IncrementStreak(s.Streaks, now)
		res.StreakIncremented = true
	}

	s, res.Unlocked = Reevaluate(s, now)
	res.LevelAfter = s.Level
	return s, res
}

// AddXP credits a positive amount of XP outside the completion flow.
// Returns the freezes earned.
func AddXP(prev domain.GamificationState, amount int64, env Env) (domain.GamificationState, int, error) {
	if amount <= 0 {
		return prev, 0, domain.ErrInvalidXP
	}
	s := prev.Clone()
	earned := creditXP(&s, amount)
	touchActivity(&s, env.Now)
	return s, earned, nil
}

// UseStreakFreeze spends a freeze on behalf of habitID.
func UseStreakFreeze(prev domain.GamificationState, habitID string, env Env) (domain.GamificationState, domain.StreakFreezeEvent, error) {
	s := prev.Clone()
	streaks, err := UseFreeze(s.Streaks, habitID, env.id("freeze"), env.Now)
	if err != nil {
		return prev, domain.StreakFreezeEvent{}, err
	}
	s.Streaks = streaks
	return s, streaks.FreezeHistory[len(streaks.FreezeHistory)-1], nil
}

// ApplyIncrement extends the streak by one day.
func ApplyIncrement(prev domain.GamificationState, env Env) domain.GamificationState {
	s := prev.Clone()
	s.Streaks = IncrementStreak(s.Streaks, env.Now)
	return s
}

// ApplyBreak resets the streak unless a freeze protects today.
func ApplyBreak(prev domain.GamificationState, env Env) (domain.GamificationState, bool) {
	s := prev.Clone()
	var broken bool
	s.Streaks, broken = BreakStreak(s.Streaks, env.Now)
	if !broken {
		return prev, false
	}
	return s, true
}

// ApplyReconcile breaks the streak if an unprotected day was missed.
func ApplyReconcile(prev domain.GamificationState, env Env) (domain.GamificationState, bool) {
	s := prev.Clone()
	var broken bool
	s.Streaks, broken = ReconcileStreak(s.Streaks, env.Now)
	if !broken {
		return prev, false
	}
	return s, true
}

// UpdateDayQuality replaces the day quality snapshot without awarding XP.
func UpdateDayQuality(prev domain.GamificationState, completed, total int, env Env) domain.GamificationState {
	s := prev.Clone()
	dq := EvaluateDay(completed, total)
	dq.Date = DateKey(env.Now)
	s.DayQuality = &dq
	return s
}

// CheckAchievements re-evaluates achievements against the current state.
func CheckAchievements(prev domain.GamificationState, env Env) (domain.GamificationState, []domain.Achievement) {
	return Reevaluate(prev, env.Now)
}

// Reset discards all progress.
func Reset(env Env) domain.GamificationState {
	return NewState(env.Now)
}
