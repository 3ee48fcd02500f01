// Package report derives balances, monthly summaries, calendar grids and the
// transaction history from a snapshot of the three record collections.
//
// Every function here is pure. Callers pass a snapshot read after their last
// mutation; nothing is cached between calls.
package report

import (
	"github.com/shopspring/decimal"

	"kakeibo/internal/core"
)

// Snapshot is one consistent read of the three collections.
type Snapshot struct {
	Shifts       []core.Shift       `json:"shifts"`
	Expenses     []core.Expense     `json:"expenses"`
	ExtraIncomes []core.ExtraIncome `json:"extraIncomes"`
}

// Balance is the all-time position.
type Balance struct {
	ShiftIncome  decimal.Decimal `json:"shiftIncome"`
	ExtraIncome  decimal.Decimal `json:"extraIncome"`
	TotalIncome  decimal.Decimal `json:"totalIncome"`
	TotalExpense decimal.Decimal `json:"totalExpense"`
	Balance      decimal.Decimal `json:"balance"`
}

// CalculateBalance sums every record regardless of its date.
func CalculateBalance(snap Snapshot) Balance {
	var b Balance
	for _, s := range snap.Shifts {
		b.ShiftIncome = b.ShiftIncome.Add(s.TotalIncome)
	}
	for _, i := range snap.ExtraIncomes {
		b.ExtraIncome = b.ExtraIncome.Add(i.Amount)
	}
	for _, e := range snap.Expenses {
		b.TotalExpense = b.TotalExpense.Add(e.Amount)
	}
	b.TotalIncome = b.ShiftIncome.Add(b.ExtraIncome)
	b.Balance = b.TotalIncome.Sub(b.TotalExpense)
	return b
}
