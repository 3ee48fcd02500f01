package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"strings"

	"github.com/google/subcommands"
	"github.com/shopspring/decimal"

	"kakeibo/internal/core"
	"kakeibo/internal/ledger"
	"kakeibo/internal/records"
	"kakeibo/internal/report"
)

// recordDate returns the -d value, or today when it is empty.
func recordDate(l *ledger.Ledger, raw string) (core.Date, error) {
	if raw == "" {
		return l.Today(), nil
	}
	d := core.Date(raw)
	if err := d.Validate(); err != nil {
		return "", err
	}
	return d, nil
}

type shiftCmd struct {
	app  *App
	date string
	wage string
}

func (*shiftCmd) Name() string     { return "shift" }
func (*shiftCmd) Synopsis() string { return "register the shifts worked on a day" }
func (*shiftCmd) Usage() string {
	return `kakeibo shift [-d YYYY-MM-DD] [-wage N] [START-END ...]

  Registers one shift per time range, e.g. 09:00-12:00 13:00-17:30. The wage
  and the ranges default to the ones registered last time.
`
}

func (c *shiftCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.date, "d", "", "date of the shifts (default today)")
	f.StringVar(&c.wage, "wage", "", "hourly wage (default: last used)")
}

func (c *shiftCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	l, err := c.app.Ledger(ctx)
	if err != nil {
		return failure(err)
	}
	date, err := recordDate(l, c.date)
	if err != nil {
		return usageError(err)
	}
	prefs, err := l.Preferences(ctx)
	if err != nil {
		return failure(err)
	}

	wage := prefs.HourlyWage
	switch {
	case c.wage != "":
		if wage, err = core.ParseWage(c.wage); err != nil {
			return usageError(err)
		}
	case !prefs.HasWage:
		return usageError(errors.New("no hourly wage given and none remembered; use -wage"))
	}

	var ranges []core.TimeRange
	for _, arg := range f.Args() {
		r, err := core.ParseTimeRange(arg)
		if err != nil {
			return usageError(err)
		}
		ranges = append(ranges, r)
	}
	if len(ranges) == 0 {
		if !prefs.HasPattern {
			return usageError(errors.New("no time ranges given and none remembered"))
		}
		ranges = prefs.ShiftPattern.Shifts
	}

	saved, err := l.RegisterShifts(ctx, date, wage, ranges)
	if err != nil {
		return failure(err)
	}
	r, err := c.app.Renderer()
	if err != nil {
		return failure(err)
	}
	total := decimal.Zero
	for _, s := range saved {
		total = total.Add(s.TotalIncome)
		c.app.printf("shift %s %s %s %s\n", s.ID, s.Date, s.Range(), r.Amount(s.TotalIncome))
	}
	c.app.printf("Registered %d shift(s) on %s: %s\n", len(saved), date, r.Amount(total))
	return subcommands.ExitSuccess
}

type expenseCmd struct {
	app      *App
	date     string
	amount   string
	category string
}

func (*expenseCmd) Name() string     { return "expense" }
func (*expenseCmd) Synopsis() string { return "record an expense" }
func (*expenseCmd) Usage() string {
	return `kakeibo expense [-d YYYY-MM-DD] -amount N -category ID

  Records an expense. Categories: ` + categoryIDs() + `.
`
}

func (c *expenseCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.date, "d", "", "date of the expense (default today)")
	f.StringVar(&c.amount, "amount", "", "amount, greater than zero")
	f.StringVar(&c.category, "category", "", "category id")
}

func (c *expenseCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	amount, err := core.ParseAmount(c.amount)
	if err != nil {
		return usageError(err)
	}
	category, err := core.ParseExpenseCategory(c.category)
	if err != nil {
		return usageError(err)
	}
	l, err := c.app.Ledger(ctx)
	if err != nil {
		return failure(err)
	}
	date, err := recordDate(l, c.date)
	if err != nil {
		return usageError(err)
	}
	e, err := core.NewExpense(date, amount, category)
	if err != nil {
		return usageError(err)
	}
	saved, err := l.AddExpense(ctx, e)
	if err != nil {
		return failure(err)
	}
	c.app.printf("expense %s %s %s %s\n", saved.ID, saved.Date, saved.CategoryIcon, saved.CategoryName)
	return subcommands.ExitSuccess
}

type incomeCmd struct {
	app    *App
	date   string
	amount string
	source string
	desc   string
}

func (*incomeCmd) Name() string     { return "income" }
func (*incomeCmd) Synopsis() string { return "record extra income" }
func (*incomeCmd) Usage() string {
	return `kakeibo income [-d YYYY-MM-DD] -amount N -source ID [-desc TEXT]

  Records non-wage income. Sources: ` + sourceIDs() + `.
`
}

func (c *incomeCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.date, "d", "", "date of the income (default today)")
	f.StringVar(&c.amount, "amount", "", "amount, greater than zero")
	f.StringVar(&c.source, "source", "", "source id")
	f.StringVar(&c.desc, "desc", "", fmt.Sprintf("description, at most %d characters", core.MaxDescriptionLength))
}

func (c *incomeCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	amount, err := core.ParseAmount(c.amount)
	if err != nil {
		return usageError(err)
	}
	source, err := core.ParseIncomeSource(c.source)
	if err != nil {
		return usageError(err)
	}
	l, err := c.app.Ledger(ctx)
	if err != nil {
		return failure(err)
	}
	date, err := recordDate(l, c.date)
	if err != nil {
		return usageError(err)
	}
	i, err := core.NewExtraIncome(date, amount, source, c.desc)
	if err != nil {
		return usageError(err)
	}
	saved, err := l.AddExtraIncome(ctx, i)
	if err != nil {
		return failure(err)
	}
	c.app.printf("extra %s %s %s %s\n", saved.ID, saved.Date, saved.SourceIcon, saved.SourceName)
	return subcommands.ExitSuccess
}

type editCmd struct {
	app  *App
	kind string
	id   string

	date     string
	start    string
	end      string
	wage     string
	amount   string
	category string
	source   string
	desc     string
}

func (*editCmd) Name() string     { return "edit" }
func (*editCmd) Synopsis() string { return "change fields of a record" }
func (*editCmd) Usage() string {
	return `kakeibo edit -kind shift|expense|extra -id ID [field flags]

  Changes only the fields given. Shifts take -d -start -end -wage; expenses
  take -d -amount -category; extra income takes -d -amount -source -desc.
`
}

func (c *editCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.kind, "kind", "", "record kind: shift, expense or extra")
	f.StringVar(&c.id, "id", "", "record id")
	f.StringVar(&c.date, "d", "", "new date")
	f.StringVar(&c.start, "start", "", "new start time (HH:MM)")
	f.StringVar(&c.end, "end", "", "new end time (HH:MM)")
	f.StringVar(&c.wage, "wage", "", "new hourly wage")
	f.StringVar(&c.amount, "amount", "", "new amount")
	f.StringVar(&c.category, "category", "", "new category id")
	f.StringVar(&c.source, "source", "", "new source id")
	f.StringVar(&c.desc, "desc", "", "new description; empty to remove")
}

func (c *editCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	kind, err := ledger.ParseKind(c.kind)
	if err != nil {
		return usageError(err)
	}
	if c.id == "" {
		return usageError(errors.New("-id is required"))
	}
	set := map[string]bool{}
	f.Visit(func(fl *flag.Flag) { set[fl.Name] = true })

	l, err := c.app.Ledger(ctx)
	if err != nil {
		return failure(err)
	}

	var summary string
	switch kind {
	case report.KindShift:
		patch, err := c.shiftPatch(set)
		if err != nil {
			return usageError(err)
		}
		s, err := l.UpdateShift(ctx, c.id, patch)
		if err != nil {
			return editFailure(err)
		}
		summary = fmt.Sprintf("shift %s %s %s", s.ID, s.Date, s.Range())
	case report.KindExpense:
		patch, err := c.expensePatch(set)
		if err != nil {
			return usageError(err)
		}
		e, err := l.UpdateExpense(ctx, c.id, patch)
		if err != nil {
			return editFailure(err)
		}
		summary = fmt.Sprintf("expense %s %s %s", e.ID, e.Date, e.CategoryName)
	case report.KindExtraIncome:
		patch, err := c.extraIncomePatch(set)
		if err != nil {
			return usageError(err)
		}
		i, err := l.UpdateExtraIncome(ctx, c.id, patch)
		if err != nil {
			return editFailure(err)
		}
		summary = fmt.Sprintf("extra %s %s %s", i.ID, i.Date, i.SourceName)
	}
	c.app.printf("Updated %s\n", summary)
	return subcommands.ExitSuccess
}

func editFailure(err error) subcommands.ExitStatus {
	if errors.Is(err, records.ErrInvalid) {
		return usageError(err)
	}
	return failure(err)
}

var errNothingToEdit = errors.New("no field to change")

func (c *editCmd) shiftPatch(set map[string]bool) (core.ShiftPatch, error) {
	var p core.ShiftPatch
	if set["d"] {
		d := core.Date(c.date)
		p.Date = &d
	}
	if set["start"] {
		t := core.ClockTime(c.start)
		p.StartTime = &t
	}
	if set["end"] {
		t := core.ClockTime(c.end)
		p.EndTime = &t
	}
	if set["wage"] {
		w, err := core.ParseWage(c.wage)
		if err != nil {
			return p, err
		}
		p.HourlyWage = &w
	}
	if p.IsEmpty() {
		return p, errNothingToEdit
	}
	return p, nil
}

func (c *editCmd) expensePatch(set map[string]bool) (core.ExpensePatch, error) {
	var p core.ExpensePatch
	if set["d"] {
		d := core.Date(c.date)
		p.Date = &d
	}
	if set["amount"] {
		a, err := core.ParseAmount(c.amount)
		if err != nil {
			return p, err
		}
		p.Amount = &a
	}
	if set["category"] {
		cat, err := core.ParseExpenseCategory(c.category)
		if err != nil {
			return p, err
		}
		p.Category = &cat
	}
	if p.IsEmpty() {
		return p, errNothingToEdit
	}
	return p, nil
}

func (c *editCmd) extraIncomePatch(set map[string]bool) (core.ExtraIncomePatch, error) {
	var p core.ExtraIncomePatch
	if set["d"] {
		d := core.Date(c.date)
		p.Date = &d
	}
	if set["amount"] {
		a, err := core.ParseAmount(c.amount)
		if err != nil {
			return p, err
		}
		p.Amount = &a
	}
	if set["source"] {
		src, err := core.ParseIncomeSource(c.source)
		if err != nil {
			return p, err
		}
		p.Source = &src
	}
	if set["desc"] {
		desc := c.desc
		p.Description = &desc
	}
	if p.IsEmpty() {
		return p, errNothingToEdit
	}
	return p, nil
}

type deleteCmd struct {
	app  *App
	kind string
	id   string
}

func (*deleteCmd) Name() string     { return "delete" }
func (*deleteCmd) Synopsis() string { return "delete a record" }
func (*deleteCmd) Usage() string {
	return `kakeibo delete -kind shift|expense|extra -id ID

  Deletes one record. Deleting an id that does not exist changes nothing.
`
}

func (c *deleteCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.kind, "kind", "", "record kind: shift, expense or extra")
	f.StringVar(&c.id, "id", "", "record id")
}

func (c *deleteCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	kind, err := ledger.ParseKind(c.kind)
	if err != nil {
		return usageError(err)
	}
	if c.id == "" {
		return usageError(errors.New("-id is required"))
	}
	l, err := c.app.Ledger(ctx)
	if err != nil {
		return failure(err)
	}
	removed, err := l.Delete(ctx, kind, c.id)
	if err != nil {
		return failure(err)
	}
	if !removed {
		c.app.printf("No %s with id %q, nothing deleted.\n", kind, c.id)
		return subcommands.ExitSuccess
	}
	c.app.printf("Deleted %s %s\n", kind, c.id)
	return subcommands.ExitSuccess
}

func categoryIDs() string {
	ids := make([]string, 0, len(core.ExpenseCategories()))
	for _, c := range core.ExpenseCategories() {
		ids = append(ids, string(c))
	}
	return strings.Join(ids, ", ")
}

func sourceIDs() string {
	ids := make([]string, 0, len(core.IncomeSources()))
	for _, s := range core.IncomeSources() {
		ids = append(ids, string(s))
	}
	return strings.Join(ids, ", ")
}
