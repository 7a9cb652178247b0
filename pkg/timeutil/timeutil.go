// Package timeutil provides UTC window helpers for scheduled challenges.
// All challenge dates are stored and compared in UTC; recurrence windows are
// derived from these helpers so jobs and tests agree on boundaries.
// No external dependencies - uses only standard library.
package timeutil

import "time"

// Now returns the current time in UTC.
func Now() time.Time {
	return time.Now().UTC()
}

// StartOfDay returns the start of the day (00:00:00) in UTC.
func StartOfDay(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// EndOfDay returns the last nanosecond of the day in UTC.
func EndOfDay(t time.Time) time.Time {
	return StartOfDay(t).AddDate(0, 0, 1).Add(-time.Nanosecond)
}

// StartOfWeek returns the start of the ISO week (Monday 00:00:00) in UTC.
func StartOfWeek(t time.Time) time.Time {
	u := t.UTC()
	weekday := int(u.Weekday())
	if weekday == 0 {
		weekday = 7 // Sunday
	}
	return StartOfDay(u.AddDate(0, 0, -(weekday - 1)))
}

// EndOfWeek returns the last nanosecond of the ISO week (Sunday) in UTC.
func EndOfWeek(t time.Time) time.Time {
	return EndOfDay(StartOfWeek(t).AddDate(0, 0, 6))
}

// NextDailyWindow returns the [start, end) window for the next daily
// recurrence: one day ahead of now, spanning 24 hours.
func NextDailyWindow(now time.Time) (start, end time.Time) {
	start = now.UTC().Add(24 * time.Hour)
	return start, start.Add(24 * time.Hour)
}

// NextWeeklyWindow returns the [start, end) window for the next weekly
// recurrence: seven days ahead of now, spanning seven days.
func NextWeeklyWindow(now time.Time) (start, end time.Time) {
	start = now.UTC().Add(7 * 24 * time.Hour)
	return start, start.Add(7 * 24 * time.Hour)
}

// IsSameDay checks if two times fall on the same UTC day.
func IsSameDay(t1, t2 time.Time) bool {
	a, b := t1.UTC(), t2.UTC()
	return a.Year() == b.Year() && a.YearDay() == b.YearDay()
}

// DaysBetween returns the absolute number of whole days between two times.
func DaysBetween(t1, t2 time.Time) int {
	days := int(StartOfDay(t2).Sub(StartOfDay(t1)).Hours() / 24)
	if days < 0 {
		days = -days
	}
	return days
}
