package report

import (
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"kakeibo/internal/clock"
	"kakeibo/internal/core"
)

// DailyAggregate is the activity of one day.
type DailyAggregate struct {
	ShiftIncome     decimal.Decimal `json:"shiftIncome"`
	ExtraIncome     decimal.Decimal `json:"extraIncome"`
	Expense         decimal.Decimal `json:"expense"`
	ShiftCount      int             `json:"shiftCount"`
	HasJournalEntry bool            `json:"hasJournalEntry"`
}

// Income is the shift and extra income of the day.
func (a DailyAggregate) Income() decimal.Decimal {
	return a.ShiftIncome.Add(a.ExtraIncome)
}

// Net is the income minus the expense of the day.
func (a DailyAggregate) Net() decimal.Decimal {
	return a.Income().Sub(a.Expense)
}

// CalendarCell is one slot of the week-aligned grid. Blank cells before the
// 1st and after the last day have Day 0.
type CalendarCell struct {
	Day       int            `json:"day"`
	Date      core.Date      `json:"date,omitempty"`
	Aggregate DailyAggregate `json:"aggregate"`

	// Active is set when any record falls on the day.
	Active bool `json:"active"`
}

func (c CalendarCell) Blank() bool { return c.Day == 0 }

// Calendar is a month laid out in rows of seven cells starting on Sunday.
type Calendar struct {
	Month        string         `json:"month"`
	StartWeekday time.Weekday   `json:"startWeekday"`
	DaysInMonth  int            `json:"daysInMonth"`
	Cells        []CalendarCell `json:"cells"`
}

// JournalLookup reports whether the diary has an entry for a date.
type JournalLookup interface {
	HasEntry(date core.Date) bool
}

// BuildCalendar buckets the records of month by day and lays the days out on
// a grid whose length is a multiple of seven. An unparseable month yields a
// calendar with no cells. journal may be nil.
func BuildCalendar(month string, snap Snapshot, journal JournalLookup) Calendar {
	year, m, err := clock.ParseMonth(month)
	if err != nil {
		return Calendar{Month: month, Cells: []CalendarCell{}}
	}
	days := clock.DaysIn(year, m)
	start := clock.FirstWeekday(year, m)

	daily := DailyAggregates(month, snap)

	cells := make([]CalendarCell, 0, gridSize(int(start), days))
	for i := 0; i < int(start); i++ {
		cells = append(cells, CalendarCell{})
	}
	for day := 1; day <= days; day++ {
		date := core.NewDate(year, m, day)
		agg, active := daily[dayKey(day)]
		if journal != nil {
			agg.HasJournalEntry = journal.HasEntry(date)
		}
		cells = append(cells, CalendarCell{Day: day, Date: date, Aggregate: agg, Active: active})
	}
	for len(cells)%7 != 0 {
		cells = append(cells, CalendarCell{})
	}

	return Calendar{Month: month, StartWeekday: start, DaysInMonth: days, Cells: cells}
}

// DailyAggregates buckets the records dated in month by their two-digit day
// of month. Days without records are absent.
func DailyAggregates(month string, snap Snapshot) map[string]DailyAggregate {
	out := map[string]DailyAggregate{}
	day := func(d core.Date) (string, bool) {
		if !d.InMonth(month) {
			return "", false
		}
		return d.DayKey()
	}
	for _, s := range snap.Shifts {
		if k, ok := day(s.Date); ok {
			a := out[k]
			a.ShiftIncome = a.ShiftIncome.Add(s.TotalIncome)
			a.ShiftCount++
			out[k] = a
		}
	}
	for _, i := range snap.ExtraIncomes {
		if k, ok := day(i.Date); ok {
			a := out[k]
			a.ExtraIncome = a.ExtraIncome.Add(i.Amount)
			out[k] = a
		}
	}
	for _, e := range snap.Expenses {
		if k, ok := day(e.Date); ok {
			a := out[k]
			a.Expense = a.Expense.Add(e.Amount)
			out[k] = a
		}
	}
	return out
}

// Weeks splits the cells into rows of seven.
func (c Calendar) Weeks() [][]CalendarCell {
	weeks := make([][]CalendarCell, 0, len(c.Cells)/7)
	for i := 0; i+7 <= len(c.Cells); i += 7 {
		weeks = append(weeks, c.Cells[i:i+7])
	}
	return weeks
}

// Totals sums the day cells of the grid.
func (c Calendar) Totals() DailyAggregate {
	var t DailyAggregate
	for _, cell := range c.Cells {
		t.ShiftIncome = t.ShiftIncome.Add(cell.Aggregate.ShiftIncome)
		t.ExtraIncome = t.ExtraIncome.Add(cell.Aggregate.ExtraIncome)
		t.Expense = t.Expense.Add(cell.Aggregate.Expense)
		t.ShiftCount += cell.Aggregate.ShiftCount
	}
	return t
}

func gridSize(lead, days int) int {
	n := lead + days
	return (n + 6) / 7 * 7
}

func dayKey(day int) string {
	if day < 10 {
		return "0" + strconv.Itoa(day)
	}
	return strconv.Itoa(day)
}
