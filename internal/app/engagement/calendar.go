package engagement

import (
	"time"

	"github.com/habitbloom/bloom/internal/domain"
)

// dayNumber maps t to a day index on the calendar of loc, ignoring DST shifts.
func dayNumber(t time.Time, loc *time.Location) int64 {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC).Unix() / 86400
}

// DaysBetween returns the number of calendar days from earlier to later,
// both read on later's calendar. Negative when earlier is after later.
func DaysBetween(earlier, later time.Time) int {
	loc := later.Location()
	return int(dayNumber(later, loc) - dayNumber(earlier, loc))
}

// SameDay reports whether a and b fall on the same calendar day of b.
func SameDay(a, b time.Time) bool {
	return DaysBetween(a, b) == 0
}

// DateKey formats t as YYYY-MM-DD.
func DateKey(t time.Time) string {
	return t.Format(domain.DateLayout)
}
