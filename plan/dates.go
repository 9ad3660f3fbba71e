/*
dates.go - Calendar-day time abstraction and the editable window

PURPOSE:
  Every rule in this system keys on exact calendar-date equality. A single
  timezone slip produces off-by-one-day duplicate records, so all date
  handling goes through this file. Dates are UTC midnight, always.

KEY CONCEPTS:
  - Day:       A calendar date pinned to UTC midnight (no time-of-day)
  - DayRange:  Inclusive [Start, End] span of days
  - ValidWindow: tomorrow .. tomorrow+6, the only editable span

PARSING:
  ParseDay reads "YYYY-MM-DD" component-wise. It never goes through a
  locale-aware parser: naive parsing applies a local-timezone offset and
  shifts the date by a day on hosts west of UTC.

SEE ALSO:
  - record.go: Window enforcement on upserts
  - report.go: Month-range statistics
*/
package plan

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// =============================================================================
// DAY - A calendar date at UTC midnight
// =============================================================================

// Day is a calendar date with no meaningful time-of-day component.
// The zero value is the zero time and reports IsZero.
type Day struct {
	t time.Time
}

// NewDay constructs a Day from components.
func NewDay(year int, month time.Month, day int) Day {
	return Day{t: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DayOf truncates any instant to its UTC calendar date.
func DayOf(t time.Time) Day {
	u := t.UTC()
	return NewDay(u.Year(), u.Month(), u.Day())
}

// Today returns the current UTC calendar date.
func Today() Day {
	return DayOf(time.Now())
}

// Tomorrow returns today + 1 day.
func Tomorrow() Day {
	return Today().AddDays(1)
}

// ParseDay parses a "YYYY-MM-DD" literal into a UTC-midnight Day.
// Components are read directly; no timezone offset is ever applied.
func ParseDay(s string) (Day, error) {
	parts := strings.Split(s, "-")
	if len(parts) != 3 {
		return Day{}, &DateParseError{Input: s}
	}
	year, err1 := strconv.Atoi(parts[0])
	month, err2 := strconv.Atoi(parts[1])
	day, err3 := strconv.Atoi(parts[2])
	if err1 != nil || err2 != nil || err3 != nil {
		return Day{}, &DateParseError{Input: s}
	}
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return Day{}, &DateParseError{Input: s}
	}
	d := NewDay(year, time.Month(month), day)
	// Reject normalized overflow such as 2024-02-31.
	if d.t.Day() != day || d.t.Month() != time.Month(month) {
		return Day{}, &DateParseError{Input: s}
	}
	return d, nil
}

// Comparison
func (d Day) Before(other Day) bool        { return d.t.Before(other.t) }
func (d Day) After(other Day) bool         { return d.t.After(other.t) }
func (d Day) Equal(other Day) bool         { return d.t.Equal(other.t) }
func (d Day) BeforeOrEqual(other Day) bool { return d.Before(other) || d.Equal(other) }
func (d Day) AfterOrEqual(other Day) bool  { return d.After(other) || d.Equal(other) }

// Arithmetic
func (d Day) AddDays(n int) Day   { return Day{t: d.t.AddDate(0, 0, n)} }
func (d Day) AddMonths(n int) Day { return Day{t: d.t.AddDate(0, n, 0)} }

// Properties
func (d Day) Year() int         { return d.t.Year() }
func (d Day) Month() time.Month { return d.t.Month() }
func (d Day) DayOfMonth() int   { return d.t.Day() }
func (d Day) IsZero() bool      { return d.t.IsZero() }
func (d Day) Time() time.Time   { return d.t }

func (d Day) String() string {
	return d.t.Format("2006-01-02")
}

// =============================================================================
// DAY RANGE - Inclusive span of days
// =============================================================================

// DayRange is an inclusive [Start, End] span.
type DayRange struct {
	Start Day
	End   Day
}

// Contains reports whether d falls within the range, inclusive.
func (r DayRange) Contains(d Day) bool {
	return d.AfterOrEqual(r.Start) && d.BeforeOrEqual(r.End)
}

// Days enumerates every day in the range.
func (r DayRange) Days() []Day {
	var days []Day
	for cur := r.Start; cur.BeforeOrEqual(r.End); cur = cur.AddDays(1) {
		days = append(days, cur)
	}
	return days
}

func (r DayRange) String() string {
	return fmt.Sprintf("[%s, %s]", r.Start, r.End)
}

// =============================================================================
// WINDOWS
// =============================================================================

// ValidWindow returns the editable span [tomorrow, tomorrow+6].
// Self-service and proxy edits may only target dates inside it.
func ValidWindow() DayRange {
	return ValidWindowFrom(Today())
}

// ValidWindowFrom computes the editable window relative to a given "today".
// Engines with an injected clock use this form.
func ValidWindowFrom(today Day) DayRange {
	tomorrow := today.AddDays(1)
	return DayRange{Start: tomorrow, End: tomorrow.AddDays(6)}
}

// IsInWindow reports whether d may be edited right now.
func IsInWindow(d Day) bool {
	return ValidWindow().Contains(d)
}

// CurrentMonthRange returns [first, last] day of the current month.
func CurrentMonthRange() DayRange {
	return MonthRangeOf(Today())
}

// MonthRangeOf returns the [first, last] day of the month containing d.
func MonthRangeOf(d Day) DayRange {
	start := NewDay(d.Year(), d.Month(), 1)
	// Day 0 of next month is the last day of this month.
	end := Day{t: time.Date(d.Year(), d.Month()+1, 0, 0, 0, 0, 0, time.UTC)}
	return DayRange{Start: start, End: end}
}
