// Package recurrence computes due dates from a chore's frequency rule.
package recurrence

import (
	"fmt"
	"strings"
	"time"

	"github.com/dukerupert/chorely/internal/dateutil"
	"github.com/dukerupert/chorely/internal/model"
)

const (
	DefaultIntervalDays = 3
	DefaultMonthlyDay   = 1
)

// Rule is the recurrence pattern of a chore.
type Rule struct {
	Freq         model.Frequency
	IntervalDays int            // every_x_days only; < 1 means DefaultIntervalDays
	ByDay        []time.Weekday // weekly only; empty means no weekly schedule
	MonthDay     int            // monthly only; 1-31, clamped to the month length
}

// FromChore extracts the rule from a chore's frequency fields.
func FromChore(c *model.Chore) Rule {
	r := Rule{
		Freq:         c.Frequency,
		IntervalDays: c.IntervalDays,
		MonthDay:     c.MonthlyDay,
	}
	for _, d := range c.WeeklyDays {
		r.ByDay = append(r.ByDay, time.Weekday(d))
	}
	return r
}

func (r Rule) interval() int {
	if r.IntervalDays < 1 {
		return DefaultIntervalDays
	}
	return r.IntervalDays
}

func (r Rule) monthDay() int {
	if r.MonthDay < 1 {
		return DefaultMonthlyDay
	}
	return r.MonthDay
}

func (r Rule) onDay(d time.Weekday) bool {
	for _, wd := range r.ByDay {
		if wd == d {
			return true
		}
	}
	return false
}

// InitialDue returns the first due date for a chore starting on start. The
// start date itself is eligible.
func (r Rule) InitialDue(start time.Time) time.Time {
	start = dateutil.Day(start)

	switch r.Freq {
	case model.FrequencyWeekly:
		if len(r.ByDay) == 0 {
			return start
		}
		for i := 0; i <= 7; i++ {
			candidate := start.AddDate(0, 0, i)
			if r.onDay(candidate.Weekday()) {
				return candidate
			}
		}
		return start

	case model.FrequencyMonthly:
		year, month := start.Year(), start.Month()
		if start.Day() > r.monthDay() {
			month++
		}
		return clampedDate(year, month, r.monthDay())

	default:
		return start
	}
}

// NextAfter returns the occurrence following from. The boolean is false when
// the rule has no further occurrence: a one-time chore, or a weekly rule with
// no weekdays.
func (r Rule) NextAfter(from time.Time) (time.Time, bool) {
	from = dateutil.Day(from)

	switch r.Freq {
	case model.FrequencyDaily:
		return from.AddDate(0, 0, 1), true

	case model.FrequencyEveryXDays:
		return from.AddDate(0, 0, r.interval()), true

	case model.FrequencyWeekly:
		for i := 1; i <= 7; i++ {
			candidate := from.AddDate(0, 0, i)
			if r.onDay(candidate.Weekday()) {
				return candidate, true
			}
		}
		return time.Time{}, false

	case model.FrequencyBiweekly:
		return from.AddDate(0, 0, 14), true

	case model.FrequencyMonthly:
		return clampedDate(from.Year(), from.Month()+1, r.monthDay()), true
	}

	return time.Time{}, false
}

// clampedDate builds year/month/day, pulling the day back to the last day of
// a short month instead of overflowing into the next one. month may be 13.
func clampedDate(year int, month time.Month, day int) time.Time {
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	maxDay := dateutil.DaysInMonth(first.Year(), first.Month())
	if day > maxDay {
		day = maxDay
	}
	return time.Date(first.Year(), first.Month(), day, 0, 0, 0, 0, time.UTC)
}

// Describe returns a human-readable description of the rule.
func (r Rule) Describe() string {
	switch r.Freq {
	case model.FrequencyOnce:
		return "One time"
	case model.FrequencyDaily:
		return "Repeats daily"
	case model.FrequencyEveryXDays:
		return fmt.Sprintf("Repeats every %d days", r.interval())
	case model.FrequencyWeekly:
		if len(r.ByDay) == 0 {
			return "Repeats weekly (no days selected)"
		}
		var names []string
		for _, d := range r.ByDay {
			names = append(names, d.String()[:3])
		}
		return "Repeats weekly on " + strings.Join(names, ", ")
	case model.FrequencyBiweekly:
		return "Repeats every 2 weeks"
	case model.FrequencyMonthly:
		return fmt.Sprintf("Repeats monthly on day %d", r.monthDay())
	}
	return ""
}

// InitialDue seeds nextDue for a newly created chore.
func InitialDue(c *model.Chore) time.Time {
	return FromChore(c).InitialDue(c.StartDate)
}

// NextDue returns the occurrence after from, or nil when the rule is exhausted.
func NextDue(c *model.Chore, from time.Time) *time.Time {
	next, ok := FromChore(c).NextAfter(from)
	if !ok {
		return nil
	}
	return &next
}
