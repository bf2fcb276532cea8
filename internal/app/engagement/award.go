package engagement

import (
	"math"

	"github.com/habitbloom/bloom/internal/domain"
)

// AwardInput describes one habit-completion event.
type AwardInput struct {
	IsFirstTime     bool
	CurrentStreak   int
	DayQuality      domain.DayQuality
	IsRecovery      bool
	RecoveryGapDays int
}

// AwardXP computes the XP for one completion.
//
// The base is compounded by 1.2 for every full week of streak, then the day
// quality bonus is added, then the recovery bonus (plus the resilience bonus
// for gaps of three days or more).
func AwardXP(in AwardInput) int64 {
	xp := int64(domain.BinaryHabitXP)

	if weeks := in.CurrentStreak / domain.StreakBonusThreshold; weeks > 0 {
		xp = floatToXP(float64(xp) * math.Pow(domain.StreakBonusMultiplier, float64(weeks)))
	}

	xp = addXP(xp, DayQualityBonus(in.DayQuality))

	if in.IsRecovery && in.RecoveryGapDays > 0 {
		xp = addXP(xp, domain.RecoveryBonus)
		if in.RecoveryGapDays >= domain.ResilienceGapDays {
			xp = addXP(xp, domain.ResilienceBonus)
		}
	}
	return xp
}
