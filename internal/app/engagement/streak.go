package engagement

import (
	"time"

	"github.com/habitbloom/bloom/internal/domain"
)

// Streak transitions are pure: each returns a new StreakData and never
// mutates the freeze history of its argument.
//
// A streak counts consecutive calendar days with at least one completion.
// Freezes are earned from XP milestones and spent manually; a freeze used on
// day D protects D through D+FreezeDurationDays from breaking the streak.

// IncrementStreak extends the streak by one day.
func IncrementStreak(s domain.StreakData, now time.Time) domain.StreakData {
	s.Current++
	if s.Current > s.Longest {
		s.Longest = s.Current
	}
	t := now
	s.LastCompletedDate = &t
	s.IsPaused = false
	return s
}

// BreakStreak resets the current streak to zero. Longest is untouched.
// It is a no-op, reporting false, while a freeze window covers now.
func BreakStreak(s domain.StreakData, now time.Time) (domain.StreakData, bool) {
	if s.IsPaused && FreezeProtects(s, now) {
		return s, false
	}
	s.Current = 0
	s.IsPaused = false
	return s, true
}

// UseFreeze spends one freeze to protect the streak.
// Returns domain.ErrNoFreezesAvailable, with s unchanged, when none are left.
func UseFreeze(s domain.StreakData, habitID, id string, now time.Time) (domain.StreakData, error) {
	if s.FreezesAvailable <= 0 {
		return s, domain.ErrNoFreezesAvailable
	}
	s.FreezesAvailable--
	s.FreezesUsed++
	s.IsPaused = true

	history := make([]domain.StreakFreezeEvent, len(s.FreezeHistory), len(s.FreezeHistory)+1)
	copy(history, s.FreezeHistory)
	s.FreezeHistory = append(history, domain.StreakFreezeEvent{
		ID:            id,
		UsedAt:        now,
		HabitID:       habitID,
		Reason:        domain.FreezeManual,
		DaysProtected: domain.FreezeDurationDays,
	})
	return s, nil
}

// EarnFreezes credits one freeze per 500-XP boundary crossed between prevXP
// and newXP, capped at MaxFreezes. Returns the number actually credited.
func EarnFreezes(s domain.StreakData, prevXP, newXP int64) (domain.StreakData, int) {
	delta := newXP/domain.XPPerFreeze - prevXP/domain.XPPerFreeze
	if delta <= 0 {
		return s, 0
	}
	before := s.FreezesAvailable
	avail := int64(before) + delta
	if avail > domain.MaxFreezes {
		avail = domain.MaxFreezes
	}
	if avail < int64(before) {
		avail = int64(before)
	}
	s.FreezesAvailable = int(avail)
	return s, s.FreezesAvailable - before
}

// FreezeProtects reports whether any spent freeze covers the calendar day of t.
func FreezeProtects(s domain.StreakData, t time.Time) bool {
	for _, ev := range s.FreezeHistory {
		d := DaysBetween(ev.UsedAt, t)
		if d >= 0 && d <= ev.DaysProtected {
			return true
		}
	}
	return false
}

// ReconcileStreak breaks the streak when a calendar day between the last
// completion and now was missed and no freeze covered it. Today itself is
// never counted as missed. Reports whether the streak was broken.
func ReconcileStreak(s domain.StreakData, now time.Time) (domain.StreakData, bool) {
	if s.LastCompletedDate == nil || s.Current == 0 {
		return s, false
	}
	last := *s.LastCompletedDate
	gap := DaysBetween(last, now)
	if gap <= 1 {
		return s, false
	}

	for offset := 1; offset < gap; offset++ {
		missed := last.In(now.Location()).AddDate(0, 0, offset)
		if FreezeProtects(s, missed) {
			continue
		}
		s.Current = 0
		s.IsPaused = false
		return s, true
	}
	return s, false
}
