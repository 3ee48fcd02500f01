package core

import (
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

type (
	// Shift is one worked interval paid at an hourly wage.
	Shift struct {
		ID          string          `json:"id"`
		Date        Date            `json:"date"`
		StartTime   ClockTime       `json:"startTime"`
		EndTime     ClockTime       `json:"endTime"`
		HourlyWage  decimal.Decimal `json:"hourlyWage"`
		TotalIncome decimal.Decimal `json:"totalIncome"`
	}

	Expense struct {
		ID           string          `json:"id"`
		Date         Date            `json:"date"`
		Amount       decimal.Decimal `json:"amount"`
		Category     ExpenseCategory `json:"category"`
		CategoryIcon string          `json:"categoryIcon"`
		CategoryName string          `json:"categoryName"`
	}

	// ExtraIncome is non-wage income such as gifts or bonuses.
	ExtraIncome struct {
		ID          string          `json:"id"`
		Date        Date            `json:"date"`
		Amount      decimal.Decimal `json:"amount"`
		Source      IncomeSource    `json:"source"`
		SourceIcon  string          `json:"sourceIcon"`
		SourceName  string          `json:"sourceName"`
		Description string          `json:"description,omitempty"`
	}
)

// NewShift builds a shift and derives its income.
func NewShift(date Date, r TimeRange, hourlyWage decimal.Decimal) (Shift, error) {
	s := Shift{Date: date, StartTime: r.StartTime, EndTime: r.EndTime, HourlyWage: hourlyWage}
	if err := s.Derive(); err != nil {
		return Shift{}, err
	}
	return s, s.Validate()
}

// Derive recomputes TotalIncome from the times and the wage.
func (s *Shift) Derive() error {
	income, err := ShiftIncome(s.StartTime, s.EndTime, s.HourlyWage)
	if err != nil {
		return err
	}
	s.TotalIncome = income
	return nil
}

func (s Shift) Validate() error {
	if err := s.Date.Validate(); err != nil {
		return err
	}
	if err := (TimeRange{StartTime: s.StartTime, EndTime: s.EndTime}).Validate(); err != nil {
		return err
	}
	if s.HourlyWage.IsNegative() {
		return ErrInvalidWage
	}
	if s.TotalIncome.IsNegative() {
		return ErrInvalidIncome
	}
	return nil
}

func (s Shift) RecordID() string { return s.ID }

func (s Shift) WithID(id string) Shift {
	s.ID = id
	return s
}

// Range returns the worked interval of the shift.
func (s Shift) Range() TimeRange {
	return TimeRange{StartTime: s.StartTime, EndTime: s.EndTime}
}

func (e Expense) RecordID() string { return e.ID }

func (e Expense) WithID(id string) Expense {
	e.ID = id
	return e
}

// NewExpense builds an expense and captures the category label.
func NewExpense(date Date, amount decimal.Decimal, category ExpenseCategory) (Expense, error) {
	if err := category.Validate(); err != nil {
		return Expense{}, err
	}
	d := category.Display()
	e := Expense{
		Date:         date,
		Amount:       amount,
		Category:     category,
		CategoryIcon: d.Icon,
		CategoryName: d.Name,
	}
	return e, e.Validate()
}

func (e Expense) Validate() error {
	if err := e.Date.Validate(); err != nil {
		return err
	}
	if !e.Amount.IsPositive() {
		return ErrInvalidAmount
	}
	return e.Category.Validate()
}

// NewExtraIncome builds an extra income and captures the source label.
// A blank description is dropped.
func NewExtraIncome(date Date, amount decimal.Decimal, source IncomeSource, description string) (ExtraIncome, error) {
	if err := source.Validate(); err != nil {
		return ExtraIncome{}, err
	}
	d := source.Display()
	inc := ExtraIncome{
		Date:        date,
		Amount:      amount,
		Source:      source,
		SourceIcon:  d.Icon,
		SourceName:  d.Name,
		Description: strings.TrimSpace(description),
	}
	return inc, inc.Validate()
}

func (i ExtraIncome) Validate() error {
	if err := i.Date.Validate(); err != nil {
		return err
	}
	if !i.Amount.IsPositive() {
		return ErrInvalidAmount
	}
	if err := i.Source.Validate(); err != nil {
		return err
	}
	if utf8.RuneCountInString(i.Description) > MaxDescriptionLength {
		return ErrDescriptionTooLong
	}
	return nil
}

func (i ExtraIncome) RecordID() string { return i.ID }

func (i ExtraIncome) WithID(id string) ExtraIncome {
	i.ID = id
	return i
}
