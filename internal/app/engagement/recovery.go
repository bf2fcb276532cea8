package engagement

import (
	"time"

	"github.com/habitbloom/bloom/internal/domain"
)

// RecoveryClass is the classification of one comeback.
type RecoveryClass struct {
	Type    domain.RecoveryType `json:"type"`
	XP      int64               `json:"xp"`
	Badge   string              `json:"badge"`
	Message string              `json:"message"`
}

// ClassifyRecovery maps the number of missed days to a recovery band:
// up to 2 is a quick return, 3–7 resilient, 8 or more a comeback.
func ClassifyRecovery(missedDays int) RecoveryClass {
	switch {
	case missedDays <= 2:
		return RecoveryClass{
			Type: domain.RecoveryQuick, XP: 15, Badge: "resilient_i",
			Message: "Quick recovery! Back on track.",
		}
	case missedDays <= 7:
		return RecoveryClass{
			Type: domain.RecoveryResilient, XP: 25, Badge: "resilient_ii",
			Message: "Strong comeback after a break.",
		}
	default:
		return RecoveryClass{
			Type: domain.RecoveryComeback, XP: 50, Badge: "phoenix",
			Message: "Incredible comeback! Never too late.",
		}
	}
}

// MissedDays returns the number of whole calendar days skipped between the
// last completion and today. Completing today or on the next day yields 0.
func MissedDays(last, today time.Time) int {
	gap := DaysBetween(last, today) - 1
	if gap < 0 {
		return 0
	}
	return gap
}
