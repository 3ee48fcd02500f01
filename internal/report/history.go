package report

import (
	"sort"

	"github.com/shopspring/decimal"

	"kakeibo/internal/core"
)

// Kind names the collection a transaction comes from.
type Kind string

const (
	KindShift       Kind = "shift"
	KindExtraIncome Kind = "extra"
	KindExpense     Kind = "expense"
)

// Direction filters the history by the sign of the transactions.
type Direction string

const (
	DirectionAll     Direction = "all"
	DirectionIncome  Direction = "income"
	DirectionExpense Direction = "expense"
)

// ShiftIcon and ShiftLabel describe shifts in listings.
const (
	ShiftIcon  = "⏰"
	ShiftLabel = "Trabajo"
)

// Transaction is one record of any kind in the merged history. Amount is
// negative for expenses.
type Transaction struct {
	Kind   Kind
	ID     string
	Date   core.Date
	Amount decimal.Decimal
	Icon   string
	Label  string

	// Note is the time range of a shift or the description of an extra income.
	Note string
}

func (t Transaction) Direction() Direction {
	if t.Kind == KindExpense {
		return DirectionExpense
	}
	return DirectionIncome
}

// HistoryFilter narrows the history. Zero fields match everything.
type HistoryFilter struct {
	Direction Direction
	Month     string
	Date      core.Date
}

func (f HistoryFilter) match(t Transaction) bool {
	if f.Direction != "" && f.Direction != DirectionAll && f.Direction != t.Direction() {
		return false
	}
	if f.Month != "" && !t.Date.InMonth(f.Month) {
		return false
	}
	if f.Date != "" && t.Date != f.Date {
		return false
	}
	return true
}

// History merges the three collections newest date first. Records of one
// date keep their collection order: shifts, then extra incomes, then
// expenses.
func History(snap Snapshot, filter HistoryFilter) []Transaction {
	all := transactions(snap)
	out := all[:0]
	for _, t := range all {
		if filter.match(t) {
			out = append(out, t)
		}
	}
	return out
}

// ActiveDates lists the distinct dates with any record, newest first.
func ActiveDates(snap Snapshot) []core.Date {
	seen := map[core.Date]bool{}
	var dates []core.Date
	for _, t := range transactions(snap) {
		if !seen[t.Date] {
			seen[t.Date] = true
			dates = append(dates, t.Date)
		}
	}
	return dates
}

func transactions(snap Snapshot) []Transaction {
	out := make([]Transaction, 0, len(snap.Shifts)+len(snap.ExtraIncomes)+len(snap.Expenses))
	for _, s := range snap.Shifts {
		out = append(out, Transaction{
			Kind:   KindShift,
			ID:     s.ID,
			Date:   s.Date,
			Amount: s.TotalIncome,
			Icon:   ShiftIcon,
			Label:  ShiftLabel,
			Note:   s.Range().String(),
		})
	}
	for _, i := range snap.ExtraIncomes {
		out = append(out, Transaction{
			Kind:   KindExtraIncome,
			ID:     i.ID,
			Date:   i.Date,
			Amount: i.Amount,
			Icon:   i.SourceIcon,
			Label:  i.SourceName,
			Note:   i.Description,
		})
	}
	for _, e := range snap.Expenses {
		out = append(out, Transaction{
			Kind:   KindExpense,
			ID:     e.ID,
			Date:   e.Date,
			Amount: e.Amount.Neg(),
			Icon:   e.CategoryIcon,
			Label:  e.CategoryName,
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date > out[j].Date })
	return out
}
