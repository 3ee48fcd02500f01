package report

import (
	"sort"

	"github.com/shopspring/decimal"

	"kakeibo/internal/core"
)

// MonthlySummary aggregates every record dated within one month.
type MonthlySummary struct {
	Month             string                                   `json:"month"`
	ShiftIncome       decimal.Decimal                          `json:"shiftIncome"`
	ExtraIncome       decimal.Decimal                          `json:"extraIncome"`
	TotalIncome       decimal.Decimal                          `json:"totalIncome"`
	TotalExpense      decimal.Decimal                          `json:"totalExpense"`
	Balance           decimal.Decimal                          `json:"balance"`
	ShiftCount        int                                      `json:"shiftCount"`
	ExtraIncomeCount  int                                      `json:"extraIncomeCount"`
	ExpenseCount      int                                      `json:"expenseCount"`
	ExpenseByCategory map[core.ExpenseCategory]decimal.Decimal `json:"expenseByCategory"`
}

// CategoryAmount is one line of a category breakdown.
type CategoryAmount struct {
	Category core.ExpenseCategory
	Amount   decimal.Decimal
}

// MonthlySummaries buckets the snapshot by YYYY-MM, most recent month first.
// A month with only expenses still gets a bucket. Records whose date has no
// readable month are skipped.
func MonthlySummaries(snap Snapshot) []MonthlySummary {
	buckets := map[string]*MonthlySummary{}
	bucket := func(d core.Date) *MonthlySummary {
		month, ok := d.MonthKey()
		if !ok {
			return nil
		}
		s, found := buckets[month]
		if !found {
			s = &MonthlySummary{Month: month, ExpenseByCategory: map[core.ExpenseCategory]decimal.Decimal{}}
			buckets[month] = s
		}
		return s
	}

	for _, sh := range snap.Shifts {
		if s := bucket(sh.Date); s != nil {
			s.ShiftIncome = s.ShiftIncome.Add(sh.TotalIncome)
			s.ShiftCount++
		}
	}
	for _, in := range snap.ExtraIncomes {
		if s := bucket(in.Date); s != nil {
			s.ExtraIncome = s.ExtraIncome.Add(in.Amount)
			s.ExtraIncomeCount++
		}
	}
	for _, e := range snap.Expenses {
		if s := bucket(e.Date); s != nil {
			s.TotalExpense = s.TotalExpense.Add(e.Amount)
			s.ExpenseCount++
			s.ExpenseByCategory[e.Category] = s.ExpenseByCategory[e.Category].Add(e.Amount)
		}
	}

	out := make([]MonthlySummary, 0, len(buckets))
	for _, s := range buckets {
		s.TotalIncome = s.ShiftIncome.Add(s.ExtraIncome)
		s.Balance = s.TotalIncome.Sub(s.TotalExpense)
		out = append(out, *s)
	}
	// Month keys are zero-padded, so string order is calendar order.
	sort.Slice(out, func(i, j int) bool { return out[i].Month > out[j].Month })
	return out
}

// FindMonth picks the summary of month out of summaries.
func FindMonth(summaries []MonthlySummary, month string) (MonthlySummary, bool) {
	for _, s := range summaries {
		if s.Month == month {
			return s, true
		}
	}
	return MonthlySummary{}, false
}

// CategoryBreakdown lists the month's expense categories, largest first.
// Ties keep the display order of the categories.
func (s MonthlySummary) CategoryBreakdown() []CategoryAmount {
	rank := map[core.ExpenseCategory]int{}
	for i, c := range core.ExpenseCategories() {
		rank[c] = i
	}
	out := make([]CategoryAmount, 0, len(s.ExpenseByCategory))
	for c, amount := range s.ExpenseByCategory {
		out = append(out, CategoryAmount{Category: c, Amount: amount})
	}
	sort.Slice(out, func(i, j int) bool {
		if cmp := out[i].Amount.Cmp(out[j].Amount); cmp != 0 {
			return cmp > 0
		}
		ri, iok := rank[out[i].Category]
		rj, jok := rank[out[j].Category]
		if iok != jok {
			return iok
		}
		if ri != rj {
			return ri < rj
		}
		return out[i].Category < out[j].Category
	})
	return out
}

// AverageBalance is the mean monthly balance, rounded to two places. It is
// zero when there are no months.
func AverageBalance(summaries []MonthlySummary) decimal.Decimal {
	if len(summaries) == 0 {
		return decimal.Zero
	}
	total := decimal.Zero
	for _, s := range summaries {
		total = total.Add(s.Balance)
	}
	return total.Div(decimal.NewFromInt(int64(len(summaries)))).Round(core.IncomePrecision)
}
