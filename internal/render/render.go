// Package render turns ledger reports into markdown documents for the
// terminal. Amounts are formatted in the configured display currency.
package render

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Rhymond/go-money"
	md "github.com/nao1215/markdown"
	"github.com/shopspring/decimal"

	"kakeibo/internal/core"
	"kakeibo/internal/journal"
	"kakeibo/internal/ledger"
	"kakeibo/internal/report"
)

var (
	weekdayHeader = []string{"Dom", "Lun", "Mar", "Mié", "Jue", "Vie", "Sáb"}
	monthNames    = [...]string{
		"Enero", "Febrero", "Marzo", "Abril", "Mayo", "Junio",
		"Julio", "Agosto", "Septiembre", "Octubre", "Noviembre", "Diciembre",
	}
)

// JournalMark flags calendar days with a diary entry.
const JournalMark = "📓"

type Renderer struct {
	currency money.Currency
}

// New returns a renderer formatting amounts in the ISO-4217 currency code.
func New(code string) (*Renderer, error) {
	cur := money.GetCurrency(strings.ToUpper(code))
	if cur == nil {
		return nil, fmt.Errorf("unknown currency %q", code)
	}
	return &Renderer{currency: *cur}, nil
}

// Amount formats d in the display currency, rounded to its minor unit.
func (r *Renderer) Amount(d decimal.Decimal) string {
	minor := d.Shift(int32(r.currency.Fraction)).Round(0).IntPart()
	return r.currency.Formatter().Format(minor)
}

// Signed is Amount with an explicit sign. Zero is shown as "-".
func (r *Renderer) Signed(d decimal.Decimal) string {
	switch {
	case d.IsZero():
		return "-"
	case d.IsPositive():
		return "+" + r.Amount(d)
	}
	return r.Amount(d)
}

// MonthTitle renders a YYYY-MM key as "Marzo 2024". Unparseable keys are
// returned unchanged.
func MonthTitle(month string) string {
	t, err := time.Parse(core.MonthLayout, month)
	if err != nil {
		return month
	}
	return fmt.Sprintf("%s %d", monthNames[t.Month()-1], t.Year())
}

func (r *Renderer) BalanceMarkdown(b report.Balance) string {
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)

	doc.H1("Balance")
	doc.Table(md.TableSet{
		Header:    []string{"Concepto", "Importe"},
		Alignment: []md.TableAlignment{md.AlignLeft, md.AlignRight},
		Rows: [][]string{
			{"Trabajo", r.Amount(b.ShiftIncome)},
			{"Ingresos extra", r.Amount(b.ExtraIncome)},
			{"Total ingresos", r.Amount(b.TotalIncome)},
			{"Total gastos", r.Amount(b.TotalExpense)},
			{md.Bold("Balance"), md.Bold(r.Signed(b.Balance))},
		},
	})
	return doc.String()
}

// MonthlyMarkdown lists every month with its totals, followed by the
// average balance.
func (r *Renderer) MonthlyMarkdown(summaries []report.MonthlySummary) string {
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)

	doc.H1("Resumen mensual")
	if len(summaries) == 0 {
		doc.PlainText("Sin registros.")
		return doc.String()
	}

	rows := make([][]string, 0, len(summaries))
	for _, s := range summaries {
		rows = append(rows, []string{
			MonthTitle(s.Month),
			r.Amount(s.TotalIncome),
			r.Amount(s.TotalExpense),
			r.Signed(s.Balance),
			fmt.Sprintf("%d/%d/%d", s.ShiftCount, s.ExtraIncomeCount, s.ExpenseCount),
		})
	}
	doc.Table(md.TableSet{
		Header: []string{"Mes", "Ingresos", "Gastos", "Balance", "Turnos/Extra/Gastos"},
		Alignment: []md.TableAlignment{
			md.AlignLeft, md.AlignRight, md.AlignRight, md.AlignRight, md.AlignRight,
		},
		Rows: rows,
	})
	doc.PlainText(fmt.Sprintf("Balance medio: %s", md.Bold(r.Signed(report.AverageBalance(summaries)))))
	return doc.String()
}

// MonthMarkdown details one month, including its expense breakdown.
func (r *Renderer) MonthMarkdown(s report.MonthlySummary) string {
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)

	doc.H1(MonthTitle(s.Month))
	doc.Table(md.TableSet{
		Header:    []string{"Concepto", "Importe", "Registros"},
		Alignment: []md.TableAlignment{md.AlignLeft, md.AlignRight, md.AlignRight},
		Rows: [][]string{
			{"Trabajo", r.Amount(s.ShiftIncome), strconv.Itoa(s.ShiftCount)},
			{"Ingresos extra", r.Amount(s.ExtraIncome), strconv.Itoa(s.ExtraIncomeCount)},
			{"Gastos", r.Amount(s.TotalExpense), strconv.Itoa(s.ExpenseCount)},
			{md.Bold("Balance"), md.Bold(r.Signed(s.Balance)), ""},
		},
	})

	breakdown := s.CategoryBreakdown()
	if len(breakdown) == 0 {
		return doc.String()
	}
	doc.H2("Gastos por categoría")
	rows := make([][]string, 0, len(breakdown))
	for _, c := range breakdown {
		d := c.Category.Display()
		rows = append(rows, []string{d.Icon + " " + d.Name, r.Amount(c.Amount), share(c.Amount, s.TotalExpense)})
	}
	doc.Table(md.TableSet{
		Header:    []string{"Categoría", "Importe", "%"},
		Alignment: []md.TableAlignment{md.AlignLeft, md.AlignRight, md.AlignRight},
		Rows:      rows,
	})
	return doc.String()
}

func share(part, total decimal.Decimal) string {
	if total.IsZero() {
		return "-"
	}
	return part.Mul(decimal.NewFromInt(100)).Div(total).StringFixed(1) + "%"
}

// CalendarMarkdown lays the month out as a seven column table starting on
// Sunday. Each active day shows its net amount; days with a diary entry
// carry JournalMark.
func (r *Renderer) CalendarMarkdown(cal report.Calendar) string {
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)

	doc.H1(MonthTitle(cal.Month))
	if len(cal.Cells) == 0 {
		doc.PlainText("Mes no válido.")
		return doc.String()
	}

	weeks := cal.Weeks()
	rows := make([][]string, 0, len(weeks))
	for _, week := range weeks {
		row := make([]string, 0, len(week))
		for _, cell := range week {
			row = append(row, r.calendarCell(cell))
		}
		rows = append(rows, row)
	}
	align := make([]md.TableAlignment, len(weekdayHeader))
	for i := range align {
		align[i] = md.AlignCenter
	}
	doc.Table(md.TableSet{Header: weekdayHeader, Alignment: align, Rows: rows})

	totals := cal.Totals()
	doc.BulletList(
		fmt.Sprintf("Ingresos: %s (%d turnos)", r.Amount(totals.Income()), totals.ShiftCount),
		fmt.Sprintf("Gastos: %s", r.Amount(totals.Expense)),
		fmt.Sprintf("Neto: %s", md.Bold(r.Signed(totals.Net()))),
	)
	return doc.String()
}

func (r *Renderer) calendarCell(cell report.CalendarCell) string {
	if cell.Blank() {
		return ""
	}
	parts := []string{strconv.Itoa(cell.Day)}
	if cell.Active {
		parts = append(parts, r.Signed(cell.Aggregate.Net()))
	}
	if cell.Aggregate.HasJournalEntry {
		parts = append(parts, JournalMark)
	}
	return strings.Join(parts, " ")
}

// HistoryMarkdown lists transactions under title, newest first as given.
func (r *Renderer) HistoryMarkdown(title string, txs []report.Transaction) string {
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)

	doc.H1(title)
	if len(txs) == 0 {
		doc.PlainText("Sin movimientos.")
		return doc.String()
	}

	rows := make([][]string, 0, len(txs))
	for _, t := range txs {
		rows = append(rows, []string{
			t.Date.String(),
			t.Icon + " " + t.Label,
			t.Note,
			r.Signed(t.Amount),
			string(t.Kind) + ":" + t.ID,
		})
	}
	doc.Table(md.TableSet{
		Header: []string{"Fecha", "Concepto", "Nota", "Importe", "Id"},
		Alignment: []md.TableAlignment{
			md.AlignLeft, md.AlignLeft, md.AlignLeft, md.AlignRight, md.AlignLeft,
		},
		Rows: rows,
	})
	return doc.String()
}

// ActiveDatesMarkdown lists the dates carrying records, in the given order.
func ActiveDatesMarkdown(dates []core.Date) string {
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)

	doc.H1("Días con movimientos")
	if len(dates) == 0 {
		doc.PlainText("Sin movimientos.")
		return doc.String()
	}
	items := make([]string, 0, len(dates))
	for _, d := range dates {
		items = append(items, d.String())
	}
	doc.BulletList(items...)
	return doc.String()
}

// JournalMarkdown shows one diary entry below the history of its date.
func JournalMarkdown(e journal.Entry) string {
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)

	doc.H2(JournalMark + " " + e.Title)
	doc.PlainText(e.Content)
	return doc.String()
}

func (r *Renderer) PreferencesMarkdown(p ledger.Preferences) string {
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)

	doc.H1("Preferencias")
	if p.HasWage {
		doc.PlainText("Último salario por hora: " + md.Bold(r.Amount(p.HourlyWage)))
	} else {
		doc.PlainText("Sin salario por hora guardado.")
	}
	if !p.HasPattern || len(p.ShiftPattern.Shifts) == 0 {
		doc.PlainText("Sin horario guardado.")
		return doc.String()
	}
	doc.H2("Último horario")
	ranges := make([]string, 0, len(p.ShiftPattern.Shifts))
	for _, tr := range p.ShiftPattern.Shifts {
		ranges = append(ranges, tr.String())
	}
	doc.OrderedList(ranges...)
	return doc.String()
}
