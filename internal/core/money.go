// Package core provides money parsing and shift income derivation.
//
// Amounts are decimal.Decimal in a single currency unit. Nothing here knows
// about the currency itself; formatting lives in the render package.
package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

// IncomePrecision is the number of decimal places kept on a derived shift
// income. Incomes are rounded half away from zero to this many places when
// computed, and the rounded value is what gets stored and summed.
const IncomePrecision = 2

var minutesPerHour = decimal.NewFromInt(60)

// ParseAmount converts a decimal string to an amount.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators and rejects
// signs, zero and anything that is not a plain decimal number.
//
// Examples:
//
//	ParseAmount("1200")  -> 1200, nil
//	ParseAmount("12,5")  -> 12.5, nil
//	ParseAmount("-1")    -> 0, ErrInvalidAmount
func ParseAmount(s string) (decimal.Decimal, error) {
	d, err := parseNonNegative(s)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	if !d.IsPositive() {
		return decimal.Zero, ErrInvalidAmount
	}
	return d, nil
}

// ParseWage is like ParseAmount but accepts zero.
func ParseWage(s string) (decimal.Decimal, error) {
	d, err := parseNonNegative(s)
	if err != nil {
		return decimal.Zero, ErrInvalidWage
	}
	return d, nil
}

func parseNonNegative(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		return decimal.Zero, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	if strings.ContainsAny(s, "eE") {
		return decimal.Zero, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil || d.IsNegative() {
		return decimal.Zero, ErrInvalidAmount
	}
	return d, nil
}

// ShiftIncome derives the income of one shift: (end - start) in hours times
// the hourly wage, clamped at zero and rounded to IncomePrecision places.
// An end earlier than the start (no overnight shifts) yields zero.
func ShiftIncome(start, end ClockTime, hourlyWage decimal.Decimal) (decimal.Decimal, error) {
	from, err := start.Minutes()
	if err != nil {
		return decimal.Zero, err
	}
	to, err := end.Minutes()
	if err != nil {
		return decimal.Zero, err
	}
	if hourlyWage.IsNegative() {
		return decimal.Zero, ErrInvalidWage
	}
	worked := to - from
	if worked <= 0 {
		return decimal.Zero, nil
	}
	income := hourlyWage.Mul(decimal.NewFromInt(int64(worked))).Div(minutesPerHour)
	return income.Round(IncomePrecision), nil
}
