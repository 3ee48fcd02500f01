package cli

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"

	"kakeibo/internal/clock"
	"kakeibo/internal/core"
	"kakeibo/internal/render"
	"kakeibo/internal/report"
)

// Register adds every kakeibo subcommand to c.
func Register(c *subcommands.Commander, app *App) {
	c.Register(&balanceCmd{app: app}, "reports")
	c.Register(&monthlyCmd{app: app}, "reports")
	c.Register(&calendarCmd{app: app}, "reports")
	c.Register(&historyCmd{app: app}, "reports")

	c.Register(&shiftCmd{app: app}, "records")
	c.Register(&expenseCmd{app: app}, "records")
	c.Register(&incomeCmd{app: app}, "records")
	c.Register(&editCmd{app: app}, "records")
	c.Register(&deleteCmd{app: app}, "records")

	c.Register(&prefsCmd{app: app}, "data")
	c.Register(&clearCmd{app: app}, "data")
	c.Register(&exportCmd{app: app}, "data")
	c.Register(&watchCmd{app: app}, "data")
}

func failure(err error) subcommands.ExitStatus {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	return subcommands.ExitFailure
}

func usageError(err error) subcommands.ExitStatus {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	return subcommands.ExitUsageError
}

type balanceCmd struct {
	app *App
}

func (*balanceCmd) Name() string     { return "balance" }
func (*balanceCmd) Synopsis() string { return "display the all-time balance" }
func (*balanceCmd) Usage() string {
	return `kakeibo balance

  Displays total shift income, extra income, expenses and the balance over
  the whole history.
`
}

func (*balanceCmd) SetFlags(*flag.FlagSet) {}

func (c *balanceCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	l, err := c.app.Ledger(ctx)
	if err != nil {
		return failure(err)
	}
	r, err := c.app.Renderer()
	if err != nil {
		return failure(err)
	}
	b, err := l.Balance(ctx)
	if err != nil {
		return failure(err)
	}
	c.app.printMarkdown(r.BalanceMarkdown(b))
	return subcommands.ExitSuccess
}

type monthlyCmd struct {
	app   *App
	month string
}

func (*monthlyCmd) Name() string     { return "monthly" }
func (*monthlyCmd) Synopsis() string { return "display monthly summaries" }
func (*monthlyCmd) Usage() string {
	return `kakeibo monthly [-m YYYY-MM]

  Without -m, lists every month with records, most recent first. With -m,
  details that month and its expenses by category.
`
}

func (c *monthlyCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.month, "m", "", "month to detail (YYYY-MM)")
}

func (c *monthlyCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.month != "" {
		if _, _, err := clock.ParseMonth(c.month); err != nil {
			return usageError(err)
		}
	}
	l, err := c.app.Ledger(ctx)
	if err != nil {
		return failure(err)
	}
	r, err := c.app.Renderer()
	if err != nil {
		return failure(err)
	}
	summaries, err := l.MonthlySummaries(ctx)
	if err != nil {
		return failure(err)
	}
	if c.month == "" {
		c.app.printMarkdown(r.MonthlyMarkdown(summaries))
		return subcommands.ExitSuccess
	}
	s, ok := report.FindMonth(summaries, c.month)
	if !ok {
		c.app.printf("No records in %s.\n", render.MonthTitle(c.month))
		return subcommands.ExitSuccess
	}
	c.app.printMarkdown(r.MonthMarkdown(s))
	return subcommands.ExitSuccess
}

type calendarCmd struct {
	app    *App
	month  string
	offset int
}

func (*calendarCmd) Name() string     { return "calendar" }
func (*calendarCmd) Synopsis() string { return "display a month as a calendar" }
func (*calendarCmd) Usage() string {
	return `kakeibo calendar [-m YYYY-MM] [-offset N]

  Displays the daily net amounts of a month (default: this month) on a
  week grid. Days with a diary entry are marked. -offset moves N months
  from the selected month; negative values go back.
`
}

func (c *calendarCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.month, "m", "", "month to display (YYYY-MM)")
	f.IntVar(&c.offset, "offset", 0, "months to move from the selected month")
}

func (c *calendarCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	l, err := c.app.Ledger(ctx)
	if err != nil {
		return failure(err)
	}
	r, err := c.app.Renderer()
	if err != nil {
		return failure(err)
	}
	month := c.month
	if month == "" {
		month = l.Clock().ThisMonth()
	}
	if month, err = clock.AddMonths(month, c.offset); err != nil {
		return usageError(err)
	}
	cal, err := l.Calendar(ctx, month)
	if err != nil {
		return failure(err)
	}
	c.app.printMarkdown(r.CalendarMarkdown(cal))
	return subcommands.ExitSuccess
}

type historyCmd struct {
	app       *App
	direction string
	month     string
	date      string
	dates     bool
}

func (*historyCmd) Name() string     { return "history" }
func (*historyCmd) Synopsis() string { return "list transactions, newest first" }
func (*historyCmd) Usage() string {
	return `kakeibo history [-type all|income|expense] [-m YYYY-MM] [-d YYYY-MM-DD]
kakeibo history -dates

  Lists shifts, extra income and expenses merged, newest date first. With
  -d, the diary entry of that date follows the list. -dates only lists the
  dates that carry records.
`
}

func (c *historyCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.direction, "type", string(report.DirectionAll), "all, income or expense")
	f.StringVar(&c.month, "m", "", "only this month (YYYY-MM)")
	f.StringVar(&c.date, "d", "", "only this date (YYYY-MM-DD)")
	f.BoolVar(&c.dates, "dates", false, "list the dates with records instead")
}

func (c *historyCmd) filter() (report.HistoryFilter, error) {
	filter := report.HistoryFilter{Direction: report.Direction(c.direction)}
	switch filter.Direction {
	case report.DirectionAll, report.DirectionIncome, report.DirectionExpense:
	default:
		return filter, fmt.Errorf("invalid -type %q: must be all, income or expense", c.direction)
	}
	if c.month != "" {
		if _, _, err := clock.ParseMonth(c.month); err != nil {
			return filter, err
		}
		filter.Month = c.month
	}
	if c.date != "" {
		d := core.Date(c.date)
		if err := d.Validate(); err != nil {
			return filter, err
		}
		filter.Date = d
	}
	return filter, nil
}

func (c *historyCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	filter, err := c.filter()
	if err != nil {
		return usageError(err)
	}
	l, err := c.app.Ledger(ctx)
	if err != nil {
		return failure(err)
	}
	if c.dates {
		dates, err := l.ActiveDates(ctx)
		if err != nil {
			return failure(err)
		}
		c.app.printMarkdown(render.ActiveDatesMarkdown(dates))
		return subcommands.ExitSuccess
	}
	r, err := c.app.Renderer()
	if err != nil {
		return failure(err)
	}
	txs, err := l.History(ctx, filter)
	if err != nil {
		return failure(err)
	}

	title := "Historial"
	switch {
	case filter.Date != "":
		title += " " + filter.Date.String()
	case filter.Month != "":
		title += " " + render.MonthTitle(filter.Month)
	}
	doc := r.HistoryMarkdown(title, txs)
	if filter.Date != "" {
		entry, ok, err := l.JournalEntry(ctx, filter.Date)
		if err != nil {
			return failure(err)
		}
		if ok {
			doc += "\n" + render.JournalMarkdown(entry)
		}
	}
	c.app.printMarkdown(doc)
	return subcommands.ExitSuccess
}
