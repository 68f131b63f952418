package derive

import (
	"math"
	"time"
)

const DateLayout = "2006-01-02"

// ParseDate reads the leading YYYY-MM-DD of s as a local calendar date.
func ParseDate(s string, loc *time.Location) (time.Time, bool) {
	if len(s) < len(DateLayout) {
		return time.Time{}, false
	}
	t, err := time.ParseInLocation(DateLayout, s[:len(DateLayout)], loc)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// Midnight truncates t to the start of its local day.
func Midnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// DaysBetween counts whole calendar days from a to b. Rounding absorbs DST
// shifts, which make some local days 23 or 25 hours long.
func DaysBetween(a, b time.Time) int {
	return int(math.Round(Midnight(b).Sub(Midnight(a)).Hours() / 24))
}

// Weekday keys as stored in the focus schedule, Monday first.
var WeekdayKeys = []string{"mon", "tue", "wed", "thu", "fri", "sat", "sun"}

// WeekdayKey maps t to its schedule key.
func WeekdayKey(t time.Time) string {
	wd := int(t.Weekday()) // Sunday = 0
	if wd == 0 {
		return "sun"
	}
	return WeekdayKeys[wd-1]
}
