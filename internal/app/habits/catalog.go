package habits

import "github.com/habitbloom/bloom/internal/domain"

// LevelThresholds is the legacy XP ladder used by UserStats.
var LevelThresholds = []int64{0, 100, 250, 500, 1000, 2000, 3500, 5500, 8000, 11000, 15000}

// LegacyLevel returns the UserStats level for xp.
func LegacyLevel(xp int64) int {
	for i := len(LevelThresholds) - 1; i >= 0; i-- {
		if xp >= LevelThresholds[i] {
			return i + 1
		}
	}
	return 1
}

// LegacyXPForNextLevel returns the threshold of the next legacy level, or the
// top threshold once the ladder is exhausted.
func LegacyXPForNextLevel(level int) int64 {
	if level >= 0 && level < len(LevelThresholds) {
		return LevelThresholds[level]
	}
	return LevelThresholds[len(LevelThresholds)-1]
}

var templates = []domain.HabitTemplate{
	{Name: "Morning Workout", Icon: "Dumbbell", Category: domain.CategoryFitness, Difficulty: domain.DifficultyMedium, Color: "hsl(var(--chart-1))"},
	{Name: "Read for 30 min", Icon: "BookOpen", Category: domain.CategoryStudy, Difficulty: domain.DifficultyEasy, Color: "hsl(var(--chart-2))"},
	{Name: "Meditate", Icon: "Brain", Category: domain.CategoryMental, Difficulty: domain.DifficultyEasy, Color: "hsl(var(--xp))"},
	{Name: "Save $10", Icon: "PiggyBank", Category: domain.CategoryWealth, Difficulty: domain.DifficultyMedium, Color: "hsl(var(--success))"},
	{Name: "No Social Media", Icon: "Smartphone", Category: domain.CategoryProductivity, Difficulty: domain.DifficultyHard, Color: "hsl(var(--warning))"},
	{Name: "Drink 8 Glasses", Icon: "Droplets", Category: domain.CategoryFitness, Difficulty: domain.DifficultyEasy, Color: "hsl(var(--primary))"},
	{Name: "Journal Entry", Icon: "PenLine", Category: domain.CategoryMental, Difficulty: domain.DifficultyEasy, Color: "hsl(var(--chart-3))"},
	{Name: "Learn New Skill", Icon: "GraduationCap", Category: domain.CategoryStudy, Difficulty: domain.DifficultyHard, Color: "hsl(var(--chart-4))"},
}

// Templates returns the preset habits.
func Templates() []domain.HabitTemplate {
	return append([]domain.HabitTemplate(nil), templates...)
}

var badges = []domain.Badge{
	{ID: "first_step", Name: "First Step", Description: "Complete your first habit", Icon: "Footprints", Requirement: 1, Type: domain.BadgeCompletion},
	{ID: "week_warrior", Name: "Week Warrior", Description: "7-day streak", Icon: "Flame", Requirement: 7, Type: domain.BadgeStreak},
	{ID: "consistency_king", Name: "Consistency King", Description: "30-day streak", Icon: "Crown", Requirement: 30, Type: domain.BadgeStreak},
	{ID: "century", Name: "Century", Description: "Complete 100 habits", Icon: "Trophy", Requirement: 100, Type: domain.BadgeCompletion},
	{ID: "perfect_week", Name: "Perfect Week", Description: "Complete all habits for 7 days", Icon: "Star", Requirement: 1, Type: domain.BadgePerfectWeek},
	{ID: "xp_hunter", Name: "XP Hunter", Description: "Earn 1000 XP", Icon: "Zap", Requirement: 1000, Type: domain.BadgeXP},
	{ID: "xp_master", Name: "XP Master", Description: "Earn 5000 XP", Icon: "Sparkles", Requirement: 5000, Type: domain.BadgeXP},
}

// Badges returns the legacy badge catalog.
func Badges() []domain.Badge {
	return append([]domain.Badge(nil), badges...)
}

// DefaultStats is the stats sidecar of a new profile.
func DefaultStats() domain.UserStats {
	return domain.UserStats{
		Level:         1,
		Badges:        []domain.Badge{},
		StreakFreezes: 3,
	}
}
