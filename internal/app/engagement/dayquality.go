package engagement

import (
	"math"

	"github.com/habitbloom/bloom/internal/domain"
)

var dayQualityMessages = map[domain.DayQuality]string{
	domain.DayPerfect:    "Exceptional consistency",
	domain.DayStrong:     "Strong execution",
	domain.DayGood:       "Good progress",
	domain.DayIncomplete: "Room for improvement",
}

// DayQualityBonus returns the flat XP bonus for a quality.
func DayQualityBonus(q domain.DayQuality) int64 {
	switch q {
	case domain.DayPerfect:
		return domain.PerfectDayBonus
	case domain.DayStrong:
		return domain.StrongDayBonus
	case domain.DayGood:
		return domain.GoodDayBonus
	default:
		return 0
	}
}

// EvaluateDay rates a day from its completion ratio.
// A day with no habits scores 0%. completed is clamped into [0, total].
func EvaluateDay(completed, total int) domain.DayQualityScore {
	if total < 0 {
		total = 0
	}
	if completed < 0 {
		completed = 0
	}
	if completed > total {
		completed = total
	}

	rate := 0
	if total > 0 {
		rate = int(math.Round(float64(completed) / float64(total) * 100))
	}

	var q domain.DayQuality
	switch {
	case rate == 100:
		q = domain.DayPerfect
	case rate >= 75:
		q = domain.DayStrong
	case rate >= 50:
		q = domain.DayGood
	default:
		q = domain.DayIncomplete
	}

	return domain.DayQualityScore{
		Quality:        q,
		CompletionRate: rate,
		HabitCount:     total,
		CompletedCount: completed,
		BonusXP:        DayQualityBonus(q),
		Message:        dayQualityMessages[q],
	}
}
