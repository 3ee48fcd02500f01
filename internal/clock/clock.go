// Package clock resolves "today" and "this month" in a fixed UTC offset and
// provides the calendar arithmetic used by the monthly views.
package clock

import (
	"fmt"
	"time"

	"kakeibo/internal/core"
)

// DefaultOffset is Japan Standard Time.
const DefaultOffset = 9 * time.Hour

// Clock reads the current instant in a fixed zone.
type Clock struct {
	loc *time.Location
	now func() time.Time
}

// New returns a clock in the zone UTC+offset.
func New(offset time.Duration) Clock {
	return Clock{loc: Zone(offset), now: time.Now}
}

// Zone builds the fixed location for offset, named like "UTC+09:00".
func Zone(offset time.Duration) *time.Location {
	sign := '+'
	abs := offset
	if offset < 0 {
		sign = '-'
		abs = -offset
	}
	name := fmt.Sprintf("UTC%c%02d:%02d", sign, int(abs.Hours()), int(abs.Minutes())%60)
	return time.FixedZone(name, int(offset.Seconds()))
}

// WithNow returns a copy of c reading time from now.
func (c Clock) WithNow(now func() time.Time) Clock {
	c.now = now
	return c
}

func (c Clock) Location() *time.Location {
	if c.loc == nil {
		return Zone(DefaultOffset)
	}
	return c.loc
}

func (c Clock) Now() time.Time {
	now := c.now
	if now == nil {
		now = time.Now
	}
	return now().In(c.Location())
}

// Today returns the current date in the clock's zone.
func (c Clock) Today() core.Date {
	return core.DateOf(c.Now())
}

// ThisMonth returns the current YYYY-MM month key in the clock's zone.
func (c Clock) ThisMonth() string {
	return c.Now().Format(core.MonthLayout)
}

// ParseMonth splits a YYYY-MM month key.
func ParseMonth(month string) (int, time.Month, error) {
	t, err := time.Parse(core.MonthLayout, month)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid month %q: %w", month, err)
	}
	return t.Year(), t.Month(), nil
}

// MonthKey formats a YYYY-MM month key.
func MonthKey(year int, month time.Month) string {
	return fmt.Sprintf("%04d-%02d", year, int(month))
}

// DaysIn returns the number of days of the month, leap years included.
func DaysIn(year int, month time.Month) int {
	// Day 0 of the next month is the last day of this one.
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// FirstWeekday returns the weekday of the 1st of the month (Sunday = 0).
func FirstWeekday(year int, month time.Month) time.Weekday {
	return time.Date(year, month, 1, 0, 0, 0, 0, time.UTC).Weekday()
}

// AddMonths shifts a month key by n months.
func AddMonths(month string, n int) (string, error) {
	year, m, err := ParseMonth(month)
	if err != nil {
		return "", err
	}
	t := time.Date(year, m+time.Month(n), 1, 0, 0, 0, 0, time.UTC)
	return MonthKey(t.Year(), t.Month()), nil
}
