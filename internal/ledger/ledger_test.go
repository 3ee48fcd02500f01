package ledger

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kakeibo/internal/amqp"
	"kakeibo/internal/clock"
	"kakeibo/internal/core"
	"kakeibo/internal/kv"
	"kakeibo/internal/kv/memory"
	"kakeibo/internal/records"
	"kakeibo/internal/report"
)

type recordingPublisher struct {
	mu      sync.Mutex
	changes []amqp.RecordChange
	err     error
}

func (p *recordingPublisher) PublishRecordChange(_ context.Context, c amqp.RecordChange) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.changes = append(p.changes, c)
	return p.err
}

func (p *recordingPublisher) ops() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.changes))
	for i, c := range p.changes {
		out[i] = c.Kind + ":" + c.Operation
	}
	return out
}

func sequentialIDs() records.IDFunc {
	var mu sync.Mutex
	n := 0
	return func() (string, error) {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("id-%03d", n), nil
	}
}

// 2024-03-15 03:00 UTC is 12:00 in Tokyo.
var fixedNow = time.Date(2024, 3, 15, 3, 0, 0, 0, time.UTC)

func newLedger(t *testing.T, pub Publisher) (*Ledger, *memory.Store) {
	t.Helper()
	backing := memory.New()
	opts := []Option{WithClock(clock.New(9 * time.Hour).WithNow(func() time.Time { return fixedNow }))}
	if pub != nil {
		opts = append(opts, WithPublisher(pub))
	}
	return NewWithIDs(backing, sequentialIDs(), opts...), backing
}

func expense(t *testing.T, date core.Date, amount int64, c core.ExpenseCategory) core.Expense {
	t.Helper()
	e, err := core.NewExpense(date, decimal.NewFromInt(amount), c)
	require.NoError(t, err)
	return e
}

func TestScenarioMonthlySummary(t *testing.T) {
	ctx := context.Background()
	l, _ := newLedger(t, nil)

	_, err := l.RegisterShifts(ctx, "2024-03-01", decimal.NewFromInt(1000),
		[]core.TimeRange{{StartTime: "09:00", EndTime: "17:00"}})
	require.NoError(t, err)
	_, err = l.AddExpense(ctx, expense(t, "2024-03-02", 500, core.CategoryFood))
	require.NoError(t, err)

	summaries, err := l.MonthlySummaries(ctx)
	require.NoError(t, err)
	march, ok := report.FindMonth(summaries, "2024-03")
	require.True(t, ok)
	assert.True(t, march.TotalIncome.Equal(decimal.NewFromInt(8000)))
	assert.True(t, march.TotalExpense.Equal(decimal.NewFromInt(500)))
	assert.True(t, march.Balance.Equal(decimal.NewFromInt(7500)))
	assert.True(t, march.ExpenseByCategory[core.CategoryFood].Equal(decimal.NewFromInt(500)))

	bal, err := l.Balance(ctx)
	require.NoError(t, err)
	assert.True(t, bal.Balance.Equal(decimal.NewFromInt(7500)))
}

func TestRegisterShiftsRemembersPreferences(t *testing.T) {
	ctx := context.Background()
	l, _ := newLedger(t, nil)

	ranges := []core.TimeRange{
		{StartTime: "09:00", EndTime: "12:00"},
		{StartTime: "13:00", EndTime: "18:00"},
	}
	saved, err := l.RegisterShifts(ctx, "2024-03-15", decimal.NewFromInt(1200), ranges)
	require.NoError(t, err)
	require.Len(t, saved, 2)
	assert.Equal(t, "id-001", saved[0].ID)
	assert.True(t, saved[0].TotalIncome.Equal(decimal.NewFromInt(3600)))
	assert.True(t, saved[1].TotalIncome.Equal(decimal.NewFromInt(6000)))

	p, err := l.Preferences(ctx)
	require.NoError(t, err)
	assert.True(t, p.HasWage)
	assert.True(t, p.HourlyWage.Equal(decimal.NewFromInt(1200)))
	assert.True(t, p.HasPattern)
	assert.Equal(t, ranges, p.ShiftPattern.Shifts)
	assert.Equal(t, 2, p.ShiftPattern.Count)

	cal, err := l.Calendar(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, "2024-03", cal.Month, "empty month means the current one")
}

func TestRegisterShiftsValidation(t *testing.T) {
	ctx := context.Background()
	l, backing := newLedger(t, nil)

	_, err := l.RegisterShifts(ctx, "2024-03-15", decimal.NewFromInt(1000), nil)
	assert.ErrorIs(t, err, ErrNoShifts)

	_, err = l.RegisterShifts(ctx, "2024-03-15", decimal.NewFromInt(1000),
		[]core.TimeRange{{StartTime: "09:00", EndTime: "17:00"}, {StartTime: "13:00"}})
	assert.ErrorIs(t, err, core.ErrInvalidTime)

	// A reversed range earns nothing; alone it is rejected.
	_, err = l.RegisterShifts(ctx, "2024-03-15", decimal.NewFromInt(1000),
		[]core.TimeRange{{StartTime: "17:00", EndTime: "09:00"}})
	assert.ErrorIs(t, err, ErrNoIncome)

	_, err = l.RegisterShifts(ctx, "2024-03-15", decimal.Zero,
		[]core.TimeRange{{StartTime: "09:00", EndTime: "17:00"}})
	assert.ErrorIs(t, err, ErrNoIncome)

	assert.Empty(t, backing.Keys(), "rejected registrations write nothing")
}

func TestUpdateAndDeleteAreFreshlyVisible(t *testing.T) {
	ctx := context.Background()
	l, _ := newLedger(t, nil)

	e, err := l.AddExpense(ctx, expense(t, "2024-03-02", 500, core.CategoryFood))
	require.NoError(t, err)

	amount := decimal.NewFromInt(800)
	_, err = l.UpdateExpense(ctx, e.ID, core.ExpensePatch{Amount: &amount})
	require.NoError(t, err)

	bal, err := l.Balance(ctx)
	require.NoError(t, err)
	assert.True(t, bal.TotalExpense.Equal(amount))

	removed, err := l.Delete(ctx, report.KindExpense, e.ID)
	require.NoError(t, err)
	assert.True(t, removed)

	bal, err = l.Balance(ctx)
	require.NoError(t, err)
	assert.True(t, bal.TotalExpense.IsZero())

	removed, err = l.Delete(ctx, report.KindExpense, e.ID)
	require.NoError(t, err)
	assert.False(t, removed)

	_, err = l.FindExpense(ctx, e.ID)
	assert.ErrorIs(t, err, records.ErrNotFound)

	_, err = l.Delete(ctx, report.Kind("bogus"), "x")
	assert.ErrorIs(t, err, ErrUnknownKind)
}

func TestUpdateShiftRefusesZeroIncome(t *testing.T) {
	ctx := context.Background()
	l, _ := newLedger(t, nil)

	saved, err := l.RegisterShifts(ctx, "2024-03-01", decimal.NewFromInt(1000),
		[]core.TimeRange{{StartTime: "09:00", EndTime: "17:00"}})
	require.NoError(t, err)
	id := saved[0].ID

	end := core.ClockTime("08:00")
	_, err = l.UpdateShift(ctx, id, core.ShiftPatch{EndTime: &end})
	assert.ErrorIs(t, err, ErrNoIncome)
	assert.ErrorIs(t, err, records.ErrInvalid)

	zero := decimal.Zero
	_, err = l.UpdateShift(ctx, id, core.ShiftPatch{HourlyWage: &zero})
	assert.ErrorIs(t, err, ErrNoIncome)

	got, err := l.FindShift(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, core.ClockTime("17:00"), got.EndTime, "rejected edit writes nothing")
	assert.True(t, got.TotalIncome.Equal(decimal.NewFromInt(8000)))

	end = core.ClockTime("13:00")
	updated, err := l.UpdateShift(ctx, id, core.ShiftPatch{EndTime: &end})
	require.NoError(t, err)
	assert.True(t, updated.TotalIncome.Equal(decimal.NewFromInt(4000)))
}

func TestExtraIncomeFlow(t *testing.T) {
	ctx := context.Background()
	l, _ := newLedger(t, nil)

	inc, err := core.NewExtraIncome("2024-03-10", decimal.NewFromInt(3000), core.SourceGift, "  abuela ")
	require.NoError(t, err)
	saved, err := l.AddExtraIncome(ctx, inc)
	require.NoError(t, err)
	assert.Equal(t, "abuela", saved.Description)

	bonus := core.SourceBonus
	updated, err := l.UpdateExtraIncome(ctx, saved.ID, core.ExtraIncomePatch{Source: &bonus})
	require.NoError(t, err)
	assert.Equal(t, "abuela", updated.Description)
	assert.Equal(t, core.SourceBonus.Display().Name, updated.SourceName)

	found, err := l.FindExtraIncome(ctx, saved.ID)
	require.NoError(t, err)
	assert.Equal(t, updated, found)
}

func TestPublisherReceivesChanges(t *testing.T) {
	ctx := context.Background()
	pub := &recordingPublisher{}
	l, _ := newLedger(t, pub)

	shifts, err := l.RegisterShifts(ctx, "2024-03-01", decimal.NewFromInt(1000),
		[]core.TimeRange{{StartTime: "09:00", EndTime: "10:00"}})
	require.NoError(t, err)
	e, err := l.AddExpense(ctx, expense(t, "2024-03-02", 1, core.CategoryOther))
	require.NoError(t, err)
	end := core.ClockTime("11:00")
	_, err = l.UpdateShift(ctx, shifts[0].ID, core.ShiftPatch{EndTime: &end})
	require.NoError(t, err)
	_, err = l.Delete(ctx, report.KindExpense, e.ID)
	require.NoError(t, err)
	_, err = l.Delete(ctx, report.KindExpense, e.ID)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"shift:created",
		"expense:created",
		"shift:updated",
		"expense:deleted",
	}, pub.ops(), "a no-op delete announces nothing")
}

func TestPublishFailureDoesNotFailMutation(t *testing.T) {
	ctx := context.Background()
	pub := &recordingPublisher{err: errors.New("broker down")}
	l, _ := newLedger(t, pub)

	_, err := l.AddExpense(ctx, expense(t, "2024-03-02", 1, core.CategoryOther))
	require.NoError(t, err)

	snap, err := l.Snapshot(ctx)
	require.NoError(t, err)
	assert.Len(t, snap.Expenses, 1)
}

func TestCalendarFlagsJournalEntries(t *testing.T) {
	ctx := context.Background()
	l, backing := newLedger(t, nil)
	require.NoError(t, backing.Set(ctx, kv.KeyJournalEntries,
		[]byte(`[{"id":"1","date":"2024-03-05","title":"t","content":"c","timestamp":1}]`)))

	cal, err := l.Calendar(ctx, "2024-03")
	require.NoError(t, err)
	for _, c := range cal.Cells {
		if c.Blank() {
			continue
		}
		assert.Equal(t, c.Day == 5, c.Aggregate.HasJournalEntry, "day %d", c.Day)
	}
}

func TestJournalEntryByDate(t *testing.T) {
	ctx := context.Background()
	l, backing := newLedger(t, nil)
	require.NoError(t, backing.Set(ctx, kv.KeyJournalEntries, []byte(`[
		{"id":"1","date":"2024-03-05","title":"first","content":"c","timestamp":1},
		{"id":"2","date":"2024-03-05","title":"second","content":"c","timestamp":2}]`)))

	e, ok, err := l.JournalEntry(ctx, "2024-03-05")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "first", e.Title, "first entry of the date wins")

	_, ok, err = l.JournalEntry(ctx, "2024-03-06")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestActiveDatesNewestFirst(t *testing.T) {
	ctx := context.Background()
	l, _ := newLedger(t, nil)
	_, err := l.AddExpense(ctx, expense(t, "2024-03-02", 500, core.CategoryFood))
	require.NoError(t, err)
	_, err = l.RegisterShifts(ctx, "2024-03-05", decimal.NewFromInt(1000),
		[]core.TimeRange{{StartTime: "09:00", EndTime: "10:00"}})
	require.NoError(t, err)
	_, err = l.AddExpense(ctx, expense(t, "2024-03-05", 100, core.CategoryFood))
	require.NoError(t, err)

	dates, err := l.ActiveDates(ctx)
	require.NoError(t, err)
	assert.Equal(t, []core.Date{"2024-03-05", "2024-03-02"}, dates)
}

func TestClearKeepsJournal(t *testing.T) {
	ctx := context.Background()
	pub := &recordingPublisher{}
	l, backing := newLedger(t, pub)
	require.NoError(t, backing.Set(ctx, kv.KeyJournalEntries, []byte(`[]`)))
	require.NoError(t, backing.Set(ctx, kv.KeyLegacyShiftTimes, []byte(`{}`)))

	_, err := l.RegisterShifts(ctx, "2024-03-01", decimal.NewFromInt(1000),
		[]core.TimeRange{{StartTime: "09:00", EndTime: "17:00"}})
	require.NoError(t, err)
	_, err = l.AddExpense(ctx, expense(t, "2024-03-02", 500, core.CategoryFood))
	require.NoError(t, err)

	require.NoError(t, l.Clear(ctx))
	assert.Equal(t, []string{kv.KeyJournalEntries}, backing.Keys())
	assert.Contains(t, pub.ops(), "expense:cleared")

	bal, err := l.Balance(ctx)
	require.NoError(t, err)
	assert.True(t, bal.Balance.IsZero())
}

func TestExportReturnsAllCollections(t *testing.T) {
	ctx := context.Background()
	l, backing := newLedger(t, nil)
	require.NoError(t, backing.Set(ctx, kv.KeyJournalEntries,
		[]byte(`[{"id":"1","date":"2024-03-05","title":"t","content":"c","timestamp":1}]`)))
	_, err := l.AddExpense(ctx, expense(t, "2024-03-02", 500, core.CategoryFood))
	require.NoError(t, err)

	exp, err := l.Export(ctx)
	require.NoError(t, err)
	assert.Len(t, exp.Expenses, 1)
	assert.Empty(t, exp.Shifts)
	assert.Empty(t, exp.ExtraIncomes)
	assert.Len(t, exp.JournalEntries, 1)
}

func TestParseKind(t *testing.T) {
	for in, want := range map[string]report.Kind{
		"shift":        report.KindShift,
		"expenses":     report.KindExpense,
		"income":       report.KindExtraIncome,
		"extra_income": report.KindExtraIncome,
	} {
		got, err := ParseKind(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
	}
	_, err := ParseKind("journal")
	assert.ErrorIs(t, err, ErrUnknownKind)
}
