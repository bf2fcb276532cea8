// Package domain holds the pure types of the Bloom gamification engine.
// Everything here is serialized as the camelCase JSON document the web client
// already stores, so field names are part of the wire format.
package domain

import "time"

// ─── Streak Types ───────────────────────────────────────────────────────────

// FreezeReason records how a streak freeze was spent.
type FreezeReason string

const (
	FreezeManual FreezeReason = "manual"
	FreezeAuto   FreezeReason = "auto"
)

// StreakFreezeEvent is one spent freeze token.
type StreakFreezeEvent struct {
	ID            string       `json:"id"`
	UsedAt        time.Time    `json:"usedAt"`
	HabitID       string       `json:"habitId"`
	Reason        FreezeReason `json:"reason"`
	DaysProtected int          `json:"daysProtected"`
}

// StreakData tracks consecutive active days and the freeze allowance.
// Invariants: Longest >= Current, FreezesAvailable <= MaxFreezes.
type StreakData struct {
	Current           int                 `json:"current"`
	Longest           int                 `json:"longest"`
	FreezesAvailable  int                 `json:"freezesAvailable"`
	FreezesUsed       int                 `json:"freezesUsed"`
	LastCompletedDate *time.Time          `json:"lastCompletedDate"`
	IsPaused          bool                `json:"isPaused"` // paused by a freeze, not broken
	FreezeHistory     []StreakFreezeEvent `json:"freezeHistory"`
}

const (
	MaxFreezes         = 3
	FreezeDurationDays = 2
	XPPerFreeze        = 500
)

// ─── Level / XP Types ───────────────────────────────────────────────────────

const (
	BaseLevelXP     = 100
	LevelMultiplier = 1.5
	MaxLevel        = 100
)

// Tier is a named level band used for identity labels.
type Tier struct {
	Min      int    `json:"min"`
	Max      int    `json:"max"` // 0 means unbounded
	Name     string `json:"name"`
	Identity string `json:"identity"`
	Color    string `json:"color"`
}

// Contains reports whether level falls inside the tier band.
func (t Tier) Contains(level int) bool {
	return level >= t.Min && (t.Max == 0 || level <= t.Max)
}

// XP award constants.
const (
	BinaryHabitXP         = 10
	StreakBonusThreshold  = 7
	StreakBonusMultiplier = 1.2
	GoodDayBonus          = 5
	StrongDayBonus        = 10
	PerfectDayBonus       = 20
	RecoveryBonus         = 15
	ResilienceBonus       = 25
	ResilienceGapDays     = 3
)

// ─── Day Quality ────────────────────────────────────────────────────────────

// DayQuality rates a calendar day's completion ratio.
type DayQuality string

const (
	DayIncomplete DayQuality = "incomplete"
	DayGood       DayQuality = "good"    // 50–74%
	DayStrong     DayQuality = "strong"  // 75–99%
	DayPerfect    DayQuality = "perfect" // 100%
)

// IsValid reports whether q is one of the four known qualities.
func (q DayQuality) IsValid() bool {
	switch q {
	case DayIncomplete, DayGood, DayStrong, DayPerfect:
		return true
	default:
		return false
	}
}

// DayQualityScore is the evaluated snapshot for one day.
type DayQualityScore struct {
	Quality        DayQuality `json:"quality"`
	CompletionRate int        `json:"completionRate"`
	HabitCount     int        `json:"habitCount"`
	CompletedCount int        `json:"completedCount"`
	BonusXP        int64      `json:"bonusXP"`
	Message        string     `json:"message"`
	Date           string     `json:"date,omitempty"` // YYYY-MM-DD the score was computed for
}

// ─── Recovery ───────────────────────────────────────────────────────────────

// RecoveryType classifies a comeback by the length of the gap.
type RecoveryType string

const (
	RecoveryQuick     RecoveryType = "quick_return" // 1–2 missed days
	RecoveryResilient RecoveryType = "resilient"    // 3–7
	RecoveryComeback  RecoveryType = "comeback"     // 8+
)

// RecoveryEvent is appended each time a habit is completed after a gap.
type RecoveryEvent struct {
	ID                  string       `json:"id"`
	HabitID             string       `json:"habitId"`
	MissedDays          int          `json:"missedDays"`
	RecoveryDate        time.Time    `json:"recoveryDate"`
	XPAwarded           int64        `json:"xpAwarded"`
	AchievementUnlocked string       `json:"achievementUnlocked,omitempty"`
	Type                RecoveryType `json:"type"`
}

// ─── Achievement Types ──────────────────────────────────────────────────────

// AchievementCategory groups achievements by theme.
type AchievementCategory string

const (
	CatConsistency AchievementCategory = "consistency"
	CatRecovery    AchievementCategory = "recovery"
	CatDiscipline  AchievementCategory = "discipline"
	CatLongevity   AchievementCategory = "longevity"
	CatQuality     AchievementCategory = "quality"
)

// AchievementTier is the rarity band.
type AchievementTier string

const (
	TierBronze   AchievementTier = "bronze"
	TierSilver   AchievementTier = "silver"
	TierGold     AchievementTier = "gold"
	TierPlatinum AchievementTier = "platinum"
)

// CriteriaType selects how achievement progress is measured.
type CriteriaType string

const (
	CriteriaStreak         CriteriaType = "streak"
	CriteriaCompletionRate CriteriaType = "completion_rate"
	CriteriaRecovery       CriteriaType = "recovery"
	CriteriaDayQuality     CriteriaType = "day_quality"
	CriteriaLongevity      CriteriaType = "longevity"
	CriteriaCustom         CriteriaType = "custom"
)

// Timeframe is informational on most criteria.
type Timeframe string

const (
	TimeframeDaily   Timeframe = "daily"
	TimeframeWeekly  Timeframe = "weekly"
	TimeframeMonthly Timeframe = "monthly"
	TimeframeAllTime Timeframe = "all_time"
)

// AchievementCriteria is the unlock rule.
type AchievementCriteria struct {
	Type      CriteriaType `json:"type"`
	Target    int          `json:"target"`
	Timeframe Timeframe    `json:"timeframe,omitempty"`
}

// Achievement is a catalog definition plus the per-user progress.
// UnlockedAt is set exactly once and never cleared.
type Achievement struct {
	ID          string              `json:"id"`
	Name        string              `json:"name"`
	Description string              `json:"description"`
	Category    AchievementCategory `json:"category"`
	Tier        AchievementTier     `json:"tier"`
	XPReward    int64               `json:"xpReward"`
	Criteria    AchievementCriteria `json:"criteria"`
	UnlockedAt  *time.Time          `json:"unlockedAt,omitempty"`
	Progress    int                 `json:"progress"`
	Total       int                 `json:"total"`
	Icon        string              `json:"icon,omitempty"`
}

// Unlocked reports whether the achievement has been earned.
func (a Achievement) Unlocked() bool { return a.UnlockedAt != nil }

// ─── Aggregate State ────────────────────────────────────────────────────────

// DayMark pairs a calendar date with the quality reached on it.
type DayMark struct {
	Date    string     `json:"date"`
	Quality DayQuality `json:"quality"`
}

// WeeklyReflection is carried through for compatibility with stored documents.
type WeeklyReflection struct {
	WeekStart       string  `json:"weekStart"`
	WeekEnd         string  `json:"weekEnd"`
	ConsistencyRate float64 `json:"consistencyRate"`
	LongestStreak   int     `json:"longestStreak"`
	RecoveryWins    int     `json:"recoveryWins"`
	BestDay         DayMark `json:"bestDay"`
	WeakDay         DayMark `json:"weakDay"`
	Message         string  `json:"message"`
	TotalXP         int64   `json:"totalXP"`
}

// GamificationState is the single aggregate owned by the engagement service.
// Level, CurrentLevelXP, NextLevelXP, TierName and Identity are always derived
// from TotalXP after a mutation.
type GamificationState struct {
	TotalXP        int64  `json:"totalXP"`
	Level          int    `json:"level"`
	CurrentLevelXP int64  `json:"currentLevelXP"`
	NextLevelXP    int64  `json:"nextLevelXP"`
	TierName       string `json:"tierName"`
	Identity       string `json:"identity"`

	Streaks      StreakData      `json:"streaks"`
	Recoveries   []RecoveryEvent `json:"recoveries"`
	Achievements []Achievement   `json:"achievements"`

	DayQuality       *DayQualityScore  `json:"dayQuality"`
	WeeklyReflection *WeeklyReflection `json:"weeklyReflection"`

	// PerfectDayCountedOn is the last date folded into day_quality progress.
	PerfectDayCountedOn string `json:"perfectDayCountedOn,omitempty"`

	FirstUseDate    time.Time `json:"firstUseDate"`
	LastActiveDate  time.Time `json:"lastActiveDate"`
	TotalDaysActive int       `json:"totalDaysActive"`
}

// Clone returns a deep copy so transitions never alias a published snapshot.
func (s GamificationState) Clone() GamificationState {
	out := s
	if s.Streaks.LastCompletedDate != nil {
		t := *s.Streaks.LastCompletedDate
		out.Streaks.LastCompletedDate = &t
	}
	out.Streaks.FreezeHistory = append([]StreakFreezeEvent(nil), s.Streaks.FreezeHistory...)
	out.Recoveries = append([]RecoveryEvent(nil), s.Recoveries...)
	out.Achievements = make([]Achievement, len(s.Achievements))
	for i, a := range s.Achievements {
		if a.UnlockedAt != nil {
			t := *a.UnlockedAt
			a.UnlockedAt = &t
		}
		out.Achievements[i] = a
	}
	if s.DayQuality != nil {
		dq := *s.DayQuality
		out.DayQuality = &dq
	}
	if s.WeeklyReflection != nil {
		wr := *s.WeeklyReflection
		out.WeeklyReflection = &wr
	}
	return out
}

// UnlockedCount returns how many achievements are unlocked.
func (s GamificationState) UnlockedCount() int {
	n := 0
	for _, a := range s.Achievements {
		if a.Unlocked() {
			n++
		}
	}
	return n
}
