package core

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	DateLayout  = "2006-01-02"
	MonthLayout = "2006-01"

	// MaxDescriptionLength bounds the free-text note of an extra income, in characters.
	MaxDescriptionLength = 50
)

type (
	// Date is a calendar date in YYYY-MM-DD form, kept as text so records
	// edited by hand round-trip unchanged.
	Date string

	// ClockTime is a wall-clock time in HH:MM form.
	ClockTime string

	// TimeRange is one worked interval of a day.
	TimeRange struct {
		StartTime ClockTime `json:"startTime"`
		EndTime   ClockTime `json:"endTime"`
	}
)

var (
	ErrInvalidDate        = errors.New("invalid date")
	ErrInvalidTime        = errors.New("invalid time")
	ErrInvalidAmount      = errors.New("invalid amount")
	ErrInvalidWage        = errors.New("invalid hourly wage")
	ErrInvalidIncome      = errors.New("invalid shift income")
	ErrUnknownCategory    = errors.New("unknown expense category")
	ErrUnknownSource      = errors.New("unknown income source")
	ErrDescriptionTooLong = fmt.Errorf("description too long (max %d characters)", MaxDescriptionLength)
)

func init() {
	// Persisted blobs carry amounts as JSON numbers, not strings.
	decimal.MarshalJSONWithoutQuotes = true
}

// NewDate creates a Date from year, month, day
func NewDate(year int, month time.Month, day int) Date {
	return Date(fmt.Sprintf("%04d-%02d-%02d", year, int(month), day))
}

// DateOf formats t as a Date in t's own location.
func DateOf(t time.Time) Date {
	return Date(t.Format(DateLayout))
}

func (d Date) String() string { return string(d) }

// Time parses the date at midnight UTC.
func (d Date) Time() (time.Time, error) {
	t, err := time.Parse(DateLayout, string(d))
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, string(d))
	}
	return t, nil
}

func (d Date) Validate() error {
	_, err := d.Time()
	return err
}

// MonthKey returns the YYYY-MM prefix of the date. It reports false when the
// prefix is not shaped like a month key.
func (d Date) MonthKey() (string, bool) {
	s := string(d)
	if len(s) < 7 || !digits(s[0:4]) || s[4] != '-' || !digits(s[5:7]) {
		return "", false
	}
	return s[:7], true
}

// DayKey returns the two-digit day of month of the date (characters 9-10).
func (d Date) DayKey() (string, bool) {
	s := string(d)
	if _, ok := d.MonthKey(); !ok {
		return "", false
	}
	if len(s) != 10 || s[7] != '-' || !digits(s[8:10]) {
		return "", false
	}
	return s[8:10], true
}

// InMonth reports whether the date falls within the YYYY-MM month key.
func (d Date) InMonth(month string) bool {
	key, ok := d.MonthKey()
	return ok && key == month
}

func digits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return s != ""
}

func (c ClockTime) String() string { return string(c) }

// Minutes returns the number of minutes since midnight.
func (c ClockTime) Minutes() (int, error) {
	h, m, ok := strings.Cut(string(c), ":")
	if !ok || len(m) != 2 || len(h) < 1 || len(h) > 2 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTime, string(c))
	}
	hours, err := strconv.Atoi(h)
	if err != nil || hours < 0 || hours > 23 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTime, string(c))
	}
	minutes, err := strconv.Atoi(m)
	if err != nil || minutes < 0 || minutes > 59 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTime, string(c))
	}
	return hours*60 + minutes, nil
}

func (c ClockTime) Validate() error {
	_, err := c.Minutes()
	return err
}

// ParseTimeRange parses "HH:MM-HH:MM".
func ParseTimeRange(s string) (TimeRange, error) {
	start, end, ok := strings.Cut(strings.TrimSpace(s), "-")
	if !ok {
		return TimeRange{}, fmt.Errorf("%w: range %q must be START-END", ErrInvalidTime, s)
	}
	r := TimeRange{StartTime: ClockTime(strings.TrimSpace(start)), EndTime: ClockTime(strings.TrimSpace(end))}
	if err := r.Validate(); err != nil {
		return TimeRange{}, err
	}
	return r, nil
}

func (r TimeRange) Validate() error {
	if err := r.StartTime.Validate(); err != nil {
		return fmt.Errorf("start time: %w", err)
	}
	if err := r.EndTime.Validate(); err != nil {
		return fmt.Errorf("end time: %w", err)
	}
	return nil
}

func (r TimeRange) String() string {
	return string(r.StartTime) + "-" + string(r.EndTime)
}
