package domain

import "errors"

// ─── Sentinel Errors ────────────────────────────────────────────────────────
// Domain errors carry no infrastructure dependency.

var (
	// Streak errors
	ErrNoFreezesAvailable = errors.New("no streak freezes available")

	// XP errors
	ErrInvalidXP = errors.New("xp amount must be positive")

	// Habit errors
	ErrHabitNotFound = errors.New("habit not found")
	ErrInvalidHabit  = errors.New("invalid habit")
	ErrInvalidDate   = errors.New("invalid date, expected YYYY-MM-DD")

	// Persistence errors
	ErrStateCorrupted = errors.New("stored state could not be decoded")
)
