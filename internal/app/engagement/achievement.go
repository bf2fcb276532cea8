package engagement

import (
	"time"

	"github.com/habitbloom/bloom/internal/domain"
)

// Catalog returns a fresh copy of every achievement definition with zero
// progress and Total set to the criteria target.
func Catalog() []domain.Achievement {
	out := make([]domain.Achievement, len(catalog))
	for i, a := range catalog {
		a.Progress = 0
		a.Total = a.Criteria.Target
		a.UnlockedAt = nil
		out[i] = a
	}
	return out
}

// SeedAchievements returns the per-user achievement list for a fresh state.
func SeedAchievements() []domain.Achievement {
	return Catalog()
}

// MergeCatalog reconciles stored achievements with the current catalog.
// Definitions come from the catalog; progress and unlock time are kept from
// stored entries matched by id. Stored ids no longer in the catalog are dropped.
func MergeCatalog(stored []domain.Achievement) []domain.Achievement {
	byID := make(map[string]domain.Achievement, len(stored))
	for _, a := range stored {
		byID[a.ID] = a
	}

	merged := Catalog()
	for i, def := range merged {
		prev, ok := byID[def.ID]
		if !ok {
			continue
		}
		if prev.Progress > 0 {
			merged[i].Progress = prev.Progress
		}
		if prev.UnlockedAt != nil {
			t := *prev.UnlockedAt
			merged[i].UnlockedAt = &t
			merged[i].Progress = def.Criteria.Target
		}
	}
	return merged
}

// Reachable reports whether the evaluator computes progress for a criteria
// type. completion_rate and custom criteria are never evaluated, so their
// achievements stay locked.
func Reachable(c domain.AchievementCriteria) bool {
	switch c.Type {
	case domain.CriteriaStreak, domain.CriteriaRecovery,
		domain.CriteriaLongevity, domain.CriteriaDayQuality:
		return true
	default:
		return false
	}
}

// Reevaluate recomputes progress for every locked achievement and unlocks
// those that reached their target. Unlocked entries are never modified.
// Returns the new state and the achievements unlocked by this call.
func Reevaluate(prev domain.GamificationState, now time.Time) (domain.GamificationState, []domain.Achievement) {
	s := prev.Clone()

	countPerfect := false
	if dq := s.DayQuality; dq != nil && dq.Quality == domain.DayPerfect {
		day := dq.Date
		if day == "" {
			day = DateKey(now)
		}
		if day != s.PerfectDayCountedOn {
			countPerfect = true
			s.PerfectDayCountedOn = day
		}
	}

	longevity := 0
	if !s.FirstUseDate.IsZero() {
		if d := int(now.Sub(s.FirstUseDate) / (24 * time.Hour)); d > 0 {
			longevity = d
		}
	}

	var unlocked []domain.Achievement
	for i := range s.Achievements {
		a := &s.Achievements[i]
		if a.Unlocked() {
			continue
		}

		progress := a.Progress
		switch a.Criteria.Type {
		case domain.CriteriaRecovery:
			progress = len(s.Recoveries)
		case domain.CriteriaLongevity:
			progress = longevity
		case domain.CriteriaStreak:
			progress = s.Streaks.Longest
		case domain.CriteriaDayQuality:
			if countPerfect {
				progress++
			}
		default:
			progress = 0
		}
		if progress < a.Progress {
			progress = a.Progress
		}
		a.Progress = progress

		if Reachable(a.Criteria) && progress >= a.Criteria.Target {
			t := now
			a.UnlockedAt = &t
			a.Progress = a.Criteria.Target
			unlocked = append(unlocked, *a)
		}
	}
	return s, unlocked
}

// ─── Achievement Definitions ────────────────────────────────────────────────
// 24 achievements across 6 criteria types.

var catalog = []domain.Achievement{
	// ── Recovery ───────────────────────────────────────────────────────
	{
		ID: "quick_recovery", Name: "Resilient I", Description: "Returned after missing a day",
		Category: domain.CatRecovery, Tier: domain.TierBronze, XPReward: 15, Icon: "🔄",
		Criteria: domain.AchievementCriteria{Type: domain.CriteriaRecovery, Target: 1},
	},
	{
		ID: "resilient_returner", Name: "Resilient II", Description: "Recovered from 5 different gaps",
		Category: domain.CatRecovery, Tier: domain.TierSilver, XPReward: 50, Icon: "💪",
		Criteria: domain.AchievementCriteria{Type: domain.CriteriaRecovery, Target: 5},
	},
	{
		ID: "comeback_king", Name: "Phoenix", Description: "Returned after a 7+ day gap",
		Category: domain.CatRecovery, Tier: domain.TierGold, XPReward: 75, Icon: "🔥",
		Criteria: domain.AchievementCriteria{Type: domain.CriteriaRecovery, Target: 7},
	},
	{
		ID: "unstoppable", Name: "Unstoppable", Description: "Recovered 10+ times",
		Category: domain.CatRecovery, Tier: domain.TierPlatinum, XPReward: 150, Icon: "⚡",
		Criteria: domain.AchievementCriteria{Type: domain.CriteriaRecovery, Target: 10},
	},

	// ── Consistency ────────────────────────────────────────────────────
	{
		ID: "consistent_week", Name: "Steady I", Description: "80%+ consistency for 7 days",
		Category: domain.CatConsistency, Tier: domain.TierBronze, XPReward: 30, Icon: "📈",
		Criteria: domain.AchievementCriteria{Type: domain.CriteriaCompletionRate, Target: 80, Timeframe: domain.TimeframeWeekly},
	},
	{
		ID: "consistent_month", Name: "Steady Builder", Description: "80%+ consistency for 30 days",
		Category: domain.CatConsistency, Tier: domain.TierSilver, XPReward: 100, Icon: "🏗️",
		Criteria: domain.AchievementCriteria{Type: domain.CriteriaCompletionRate, Target: 80, Timeframe: domain.TimeframeMonthly},
	},
	{
		ID: "consistent_quarter", Name: "Rock Solid", Description: "75%+ consistency for 90 days",
		Category: domain.CatConsistency, Tier: domain.TierGold, XPReward: 250, Icon: "🪨",
		Criteria: domain.AchievementCriteria{Type: domain.CriteriaCompletionRate, Target: 75, Timeframe: domain.TimeframeAllTime},
	},
	{
		ID: "year_consistency", Name: "Unbreakable", Description: "70%+ consistency for 365 days",
		Category: domain.CatConsistency, Tier: domain.TierPlatinum, XPReward: 500, Icon: "💎",
		Criteria: domain.AchievementCriteria{Type: domain.CriteriaCompletionRate, Target: 70, Timeframe: domain.TimeframeAllTime},
	},

	// ── Streaks ────────────────────────────────────────────────────────
	{
		ID: "streak_7", Name: "Week Warrior", Description: "7 day streak",
		Category: domain.CatDiscipline, Tier: domain.TierBronze, XPReward: 25, Icon: "🔥",
		Criteria: domain.AchievementCriteria{Type: domain.CriteriaStreak, Target: 7},
	},
	{
		ID: "streak_30", Name: "Month Master", Description: "30 day streak",
		Category: domain.CatDiscipline, Tier: domain.TierSilver, XPReward: 100, Icon: "🌟",
		Criteria: domain.AchievementCriteria{Type: domain.CriteriaStreak, Target: 30},
	},
	{
		ID: "streak_100", Name: "Century", Description: "100 day streak",
		Category: domain.CatDiscipline, Tier: domain.TierGold, XPReward: 300, Icon: "💯",
		Criteria: domain.AchievementCriteria{Type: domain.CriteriaStreak, Target: 100},
	},
	{
		ID: "streak_365", Name: "Year Legend", Description: "365 day streak",
		Category: domain.CatDiscipline, Tier: domain.TierPlatinum, XPReward: 1000, Icon: "👑",
		Criteria: domain.AchievementCriteria{Type: domain.CriteriaStreak, Target: 365},
	},

	// ── Quality ────────────────────────────────────────────────────────
	{
		ID: "first_perfect_day", Name: "Perfectionist I", Description: "Complete all habits in one day",
		Category: domain.CatQuality, Tier: domain.TierBronze, XPReward: 20, Icon: "⭐",
		Criteria: domain.AchievementCriteria{Type: domain.CriteriaDayQuality, Target: 1, Timeframe: domain.TimeframeAllTime},
	},
	{
		ID: "quality_week", Name: "Strong Week", Description: "5+ Strong Days in a week",
		Category: domain.CatQuality, Tier: domain.TierBronze, XPReward: 30, Icon: "💪",
		Criteria: domain.AchievementCriteria{Type: domain.CriteriaDayQuality, Target: 5, Timeframe: domain.TimeframeWeekly},
	},
	{
		ID: "perfect_week", Name: "Perfectionist II", Description: "7 Perfect Days in a row",
		Category: domain.CatQuality, Tier: domain.TierSilver, XPReward: 75, Icon: "✨",
		Criteria: domain.AchievementCriteria{Type: domain.CriteriaDayQuality, Target: 7, Timeframe: domain.TimeframeWeekly},
	},
	{
		ID: "ten_perfect_days", Name: "Excellence", Description: "10 Perfect Days (total)",
		Category: domain.CatQuality, Tier: domain.TierGold, XPReward: 150, Icon: "🌟",
		Criteria: domain.AchievementCriteria{Type: domain.CriteriaDayQuality, Target: 10, Timeframe: domain.TimeframeAllTime},
	},

	// ── Longevity ──────────────────────────────────────────────────────
	{
		ID: "week_one", Name: "First Steps", Description: "Used the app for 7 days",
		Category: domain.CatLongevity, Tier: domain.TierBronze, XPReward: 10, Icon: "👣",
		Criteria: domain.AchievementCriteria{Type: domain.CriteriaLongevity, Target: 7},
	},
	{
		ID: "month_one", Name: "Foundation", Description: "Used the app for 30 days",
		Category: domain.CatLongevity, Tier: domain.TierBronze, XPReward: 50, Icon: "🌱",
		Criteria: domain.AchievementCriteria{Type: domain.CriteriaLongevity, Target: 30},
	},
	{
		ID: "quarter_one", Name: "Committed", Description: "Used the app for 90 days",
		Category: domain.CatLongevity, Tier: domain.TierSilver, XPReward: 150, Icon: "🌳",
		Criteria: domain.AchievementCriteria{Type: domain.CriteriaLongevity, Target: 90},
	},
	{
		ID: "half_year", Name: "Dedicated", Description: "Used the app for 180 days",
		Category: domain.CatLongevity, Tier: domain.TierGold, XPReward: 300, Icon: "🏔️",
		Criteria: domain.AchievementCriteria{Type: domain.CriteriaLongevity, Target: 180},
	},
	{
		ID: "year_one", Name: "Architect", Description: "Used the app for 365 days",
		Category: domain.CatLongevity, Tier: domain.TierPlatinum, XPReward: 500, Icon: "🏛️",
		Criteria: domain.AchievementCriteria{Type: domain.CriteriaLongevity, Target: 365},
	},

	// ── Discipline ─────────────────────────────────────────────────────
	{
		ID: "early_bird", Name: "Early Bird", Description: "Complete habits before 9 AM for 7 days",
		Category: domain.CatDiscipline, Tier: domain.TierBronze, XPReward: 40, Icon: "🌅",
		Criteria: domain.AchievementCriteria{Type: domain.CriteriaCustom, Target: 7},
	},
	{
		ID: "weekend_warrior", Name: "Weekend Warrior", Description: "Complete all habits on 4 consecutive weekends",
		Category: domain.CatDiscipline, Tier: domain.TierSilver, XPReward: 60, Icon: "🎯",
		Criteria: domain.AchievementCriteria{Type: domain.CriteriaCustom, Target: 4},
	},
	{
		ID: "no_excuses", Name: "No Excuses", Description: "Never used a streak freeze",
		Category: domain.CatDiscipline, Tier: domain.TierGold, XPReward: 200, Icon: "🛡️",
		Criteria: domain.AchievementCriteria{Type: domain.CriteriaCustom, Target: 0},
	},
}
