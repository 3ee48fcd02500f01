package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Patches carry the fields of an update. Nil fields are left untouched.
type (
	ShiftPatch struct {
		Date       *Date
		StartTime  *ClockTime
		EndTime    *ClockTime
		HourlyWage *decimal.Decimal
	}

	ExpensePatch struct {
		Date     *Date
		Amount   *decimal.Decimal
		Category *ExpenseCategory
	}

	ExtraIncomePatch struct {
		Date        *Date
		Amount      *decimal.Decimal
		Source      *IncomeSource
		Description *string
	}
)

// Apply merges p into s. Changing the times or the wage re-derives the
// income; invalid times leave it as is and are reported by Validate.
func (p ShiftPatch) Apply(s *Shift) {
	if p.Date != nil {
		s.Date = *p.Date
	}
	if p.StartTime != nil {
		s.StartTime = *p.StartTime
	}
	if p.EndTime != nil {
		s.EndTime = *p.EndTime
	}
	if p.HourlyWage != nil {
		s.HourlyWage = *p.HourlyWage
	}
	if p.StartTime != nil || p.EndTime != nil || p.HourlyWage != nil {
		_ = s.Derive()
	}
}

// IsEmpty reports whether the patch changes nothing.
func (p ShiftPatch) IsEmpty() bool {
	return p.Date == nil && p.StartTime == nil && p.EndTime == nil && p.HourlyWage == nil
}

// Apply merges p into e. A new category re-captures its label.
func (p ExpensePatch) Apply(e *Expense) {
	if p.Date != nil {
		e.Date = *p.Date
	}
	if p.Amount != nil {
		e.Amount = *p.Amount
	}
	if p.Category != nil {
		d := p.Category.Display()
		e.Category = *p.Category
		e.CategoryIcon = d.Icon
		e.CategoryName = d.Name
	}
}

func (p ExpensePatch) IsEmpty() bool {
	return p.Date == nil && p.Amount == nil && p.Category == nil
}

func (p ExtraIncomePatch) Apply(i *ExtraIncome) {
	if p.Date != nil {
		i.Date = *p.Date
	}
	if p.Amount != nil {
		i.Amount = *p.Amount
	}
	if p.Source != nil {
		d := p.Source.Display()
		i.Source = *p.Source
		i.SourceIcon = d.Icon
		i.SourceName = d.Name
	}
	if p.Description != nil {
		i.Description = strings.TrimSpace(*p.Description)
	}
}

func (p ExtraIncomePatch) IsEmpty() bool {
	return p.Date == nil && p.Amount == nil && p.Source == nil && p.Description == nil
}
