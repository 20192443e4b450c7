// file: internals/helpers/dbtime/dbtime.go
package dbtime

import "time"

// StartOfDay truncates t to midnight in its own location.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// MonthsElapsed counts whole calendar months between start and now.
// MonthsElapsed(Jan 15, Feb 14) == 0, MonthsElapsed(Jan 15, Feb 15) == 1.
// Negative when now is before start.
func MonthsElapsed(start, now time.Time) int {
	months := (now.Year()-start.Year())*12 + int(now.Month()) - int(start.Month())
	if now.Day() < start.Day() {
		months--
	}
	return months
}

// DueIn returns the due date n days from now, at midnight.
func DueIn(now time.Time, days int) time.Time {
	return StartOfDay(now.AddDate(0, 0, days))
}

// DaysOverdue returns how many whole days due is in the past (0 when not due yet).
func DaysOverdue(due, now time.Time) int {
	d := int(StartOfDay(now).Sub(StartOfDay(due)).Hours() / 24)
	if d < 0 {
		return 0
	}
	return d
}
