// Package dateutil holds the calendar arithmetic the scheduler is built on.
//
// A date is a time.Time at midnight UTC. Clock readings are converted with Day,
// which keeps the wall-clock calendar date of the reading and drops its zone, so
// adding days never crosses a DST transition.
package dateutil

import (
	"fmt"
	"math"
	"time"
)

// Layout is the persisted form of a date.
const Layout = "2006-01-02"

// Day returns the calendar date of t.
func Day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Parse parses a YYYY-MM-DD string into a date.
func Parse(s string) (time.Time, error) {
	t, err := time.Parse(Layout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return t, nil
}

// Format renders a date as YYYY-MM-DD.
func Format(t time.Time) string {
	return Day(t).Format(Layout)
}

// FormatPtr renders an optional date, returning "" for nil.
func FormatPtr(t *time.Time) string {
	if t == nil {
		return ""
	}
	return Format(*t)
}

// AddDays returns the date n days after t (n may be negative).
func AddDays(t time.Time, n int) time.Time {
	return Day(t).AddDate(0, 0, n)
}

// DaysBetween returns the whole number of days from a to b. Time of day is
// ignored and the result is rounded so that a 23 or 25 hour day still counts
// as one.
func DaysBetween(a, b time.Time) int {
	diff := Day(b).Sub(Day(a)).Hours() / 24
	return int(math.Round(diff))
}

// DaysInMonth returns the number of days in the given month, leap years included.
func DaysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// StartOfWeek returns the Monday of the week containing t. Sunday belongs to
// the week that started six days earlier.
func StartOfWeek(t time.Time) time.Time {
	d := Day(t)
	offset := (int(d.Weekday()) + 6) % 7
	return d.AddDate(0, 0, -offset)
}

// SameDay reports whether a and b fall on the same calendar date.
func SameDay(a, b time.Time) bool {
	return Day(a).Equal(Day(b))
}

// Ptr returns a pointer to the date of t.
func Ptr(t time.Time) *time.Time {
	d := Day(t)
	return &d
}
