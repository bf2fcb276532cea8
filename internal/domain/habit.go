package domain

import "time"

// ─── Habit Types ────────────────────────────────────────────────────────────

// HabitCategory groups habits for display.
type HabitCategory string

const (
	CategoryFitness      HabitCategory = "fitness"
	CategoryStudy        HabitCategory = "study"
	CategoryWealth       HabitCategory = "wealth"
	CategoryMental       HabitCategory = "mental"
	CategoryProductivity HabitCategory = "productivity"
	CategoryCustom       HabitCategory = "custom"
)

// HabitDifficulty scales the legacy XP reward.
type HabitDifficulty string

const (
	DifficultyEasy   HabitDifficulty = "easy"
	DifficultyMedium HabitDifficulty = "medium"
	DifficultyHard   HabitDifficulty = "hard"
)

// XP returns the legacy reward for completing a habit of this difficulty.
func (d HabitDifficulty) XP() int64 {
	switch d {
	case DifficultyEasy:
		return 10
	case DifficultyMedium:
		return 25
	case DifficultyHard:
		return 50
	default:
		return 0
	}
}

// Mood is an optional annotation on a completion.
type Mood string

const (
	MoodGreat    Mood = "great"
	MoodGood     Mood = "good"
	MoodOkay     Mood = "okay"
	MoodBad      Mood = "bad"
	MoodTerrible Mood = "terrible"
)

// DateLayout is the calendar-day format used for completion records.
const DateLayout = "2006-01-02"

// HabitCompletion marks one calendar day. Date is unique within a habit.
type HabitCompletion struct {
	Date      string `json:"date"`
	Completed bool   `json:"completed"`
	Note      string `json:"note,omitempty"`
	Mood      Mood   `json:"mood,omitempty"`
}

// Habit is a user-defined recurring activity.
type Habit struct {
	ID            string            `json:"id"`
	Name          string            `json:"name"`
	Icon          string            `json:"icon"`
	Category      HabitCategory     `json:"category"`
	Difficulty    HabitDifficulty   `json:"difficulty"`
	Streak        int               `json:"streak"`
	BestStreak    int               `json:"bestStreak"`
	StreakFreezes int               `json:"streakFreezes"`
	Completions   []HabitCompletion `json:"completions"`
	CreatedAt     time.Time         `json:"createdAt"`
	Color         string            `json:"color"`

	// RewardedOn is the last date whose completion reached the engine.
	RewardedOn string `json:"rewardedOn,omitempty"`
}

// CompletionOn returns the record for date, if any.
func (h Habit) CompletionOn(date string) (HabitCompletion, bool) {
	for _, c := range h.Completions {
		if c.Date == date {
			return c, true
		}
	}
	return HabitCompletion{}, false
}

// LastCompletedBefore returns the latest completion date strictly before date.
func (h Habit) LastCompletedBefore(date string) (string, bool) {
	last := ""
	for _, c := range h.Completions {
		if c.Completed && c.Date < date && c.Date > last {
			last = c.Date
		}
	}
	return last, last != ""
}

// HabitTemplate is a preset used to create habits quickly.
type HabitTemplate struct {
	Name       string          `json:"name"`
	Icon       string          `json:"icon"`
	Category   HabitCategory   `json:"category"`
	Difficulty HabitDifficulty `json:"difficulty"`
	Color      string          `json:"color"`
}

// ─── Legacy Stats ───────────────────────────────────────────────────────────

// BadgeType selects the counter a badge is measured against.
type BadgeType string

const (
	BadgeStreak      BadgeType = "streak"
	BadgeCompletion  BadgeType = "completion"
	BadgeXP          BadgeType = "xp"
	BadgePerfectWeek BadgeType = "perfect_week"
)

// Badge is a legacy reward tracked in UserStats.
type Badge struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Icon        string     `json:"icon"`
	EarnedAt    *time.Time `json:"earnedAt,omitempty"`
	Requirement int64      `json:"requirement"`
	Type        BadgeType  `json:"type"`
}

// UserStats is the legacy stats sidecar stored next to the habit list.
type UserStats struct {
	XP                   int64   `json:"xp"`
	Level                int     `json:"level"`
	TotalHabitsCompleted int     `json:"totalHabitsCompleted"`
	CurrentStreak        int     `json:"currentStreak"`
	LongestStreak        int     `json:"longestStreak"`
	Badges               []Badge `json:"badges"`
	StreakFreezes        int     `json:"streakFreezes"`
}

// HasBadge reports whether id has already been earned.
func (s UserStats) HasBadge(id string) bool {
	for _, b := range s.Badges {
		if b.ID == id {
			return true
		}
	}
	return false
}

// HabitData is the document persisted under KeyHabits.
type HabitData struct {
	Habits []Habit   `json:"habits"`
	Stats  UserStats `json:"stats"`
}
