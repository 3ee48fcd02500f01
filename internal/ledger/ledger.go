// Package ledger is the application service over the record stores. Every
// read of aggregates starts from a fresh snapshot of the stores; mutations
// are announced to an optional Publisher after they are persisted.
package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"kakeibo/internal/amqp"
	"kakeibo/internal/clock"
	"kakeibo/internal/core"
	"kakeibo/internal/journal"
	"kakeibo/internal/kv"
	"kakeibo/internal/log"
	"kakeibo/internal/prefs"
	"kakeibo/internal/records"
	"kakeibo/internal/report"
)

var (
	ErrNoShifts    = errors.New("at least one shift is required")
	ErrNoIncome    = errors.New("shifts yield no income")
	ErrUnknownKind = errors.New("unknown record kind")
)

// Publisher receives a notification after each persisted change.
type Publisher interface {
	PublishRecordChange(ctx context.Context, change amqp.RecordChange) error
}

type Ledger struct {
	shifts       *records.Store[core.Shift]
	expenses     *records.Store[core.Expense]
	extraIncomes *records.Store[core.ExtraIncome]
	prefs        *prefs.Store
	journal      *journal.Store

	clock     clock.Clock
	publisher Publisher
	logger    *log.Logger
}

type Option func(*Ledger)

func WithClock(c clock.Clock) Option {
	return func(l *Ledger) { l.clock = c }
}

// WithPublisher enables change notifications.
func WithPublisher(p Publisher) Option {
	return func(l *Ledger) { l.publisher = p }
}

func WithLogger(logger *log.Logger) Option {
	return func(l *Ledger) { l.logger = logger }
}

func New(store kv.Store, opts ...Option) *Ledger {
	return NewWithIDs(store, records.NewUUID, opts...)
}

// NewWithIDs is New with a custom id generator for the record stores.
func NewWithIDs(store kv.Store, newID records.IDFunc, opts ...Option) *Ledger {
	l := &Ledger{clock: clock.New(clock.DefaultOffset)}
	for _, opt := range opts {
		opt(l)
	}
	if l.logger == nil {
		l.logger = log.Discard()
	}

	storeOpts := []records.Option{records.WithLogger(l.logger), records.WithIDFunc(newID)}
	l.shifts = records.New[core.Shift](store, string(report.KindShift), kv.KeyShifts, storeOpts...)
	l.expenses = records.New[core.Expense](store, string(report.KindExpense), kv.KeyExpenses, storeOpts...)
	l.extraIncomes = records.New[core.ExtraIncome](store, string(report.KindExtraIncome), kv.KeyExtraIncomes, storeOpts...)
	l.prefs = prefs.New(store, l.logger)
	l.journal = journal.New(store, l.logger)
	l.logger = l.logger.WithComponent(log.ComponentLedger)
	return l
}

func (l *Ledger) Clock() clock.Clock { return l.clock }

// Today is the current date in the ledger's zone.
func (l *Ledger) Today() core.Date { return l.clock.Today() }

// Snapshot reads the three collections concurrently.
func (l *Ledger) Snapshot(ctx context.Context) (report.Snapshot, error) {
	var snap report.Snapshot
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		snap.Shifts, err = l.shifts.GetAll(ctx)
		return err
	})
	g.Go(func() (err error) {
		snap.Expenses, err = l.expenses.GetAll(ctx)
		return err
	})
	g.Go(func() (err error) {
		snap.ExtraIncomes, err = l.extraIncomes.GetAll(ctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return report.Snapshot{}, fmt.Errorf("read snapshot: %w", err)
	}
	return snap, nil
}

func (l *Ledger) Balance(ctx context.Context) (report.Balance, error) {
	snap, err := l.Snapshot(ctx)
	if err != nil {
		return report.Balance{}, err
	}
	return report.CalculateBalance(snap), nil
}

// MonthlySummaries returns one summary per month, most recent first.
func (l *Ledger) MonthlySummaries(ctx context.Context) ([]report.MonthlySummary, error) {
	snap, err := l.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return report.MonthlySummaries(snap), nil
}

// Calendar builds the grid of month, or of the current month when month is
// empty. Days with a journal entry are flagged.
func (l *Ledger) Calendar(ctx context.Context, month string) (report.Calendar, error) {
	if month == "" {
		month = l.clock.ThisMonth()
	}
	snap, err := l.Snapshot(ctx)
	if err != nil {
		return report.Calendar{}, err
	}
	idx, err := l.journal.Index(ctx)
	if err != nil {
		// The flag is decoration; the grid is still correct without it.
		l.logger.WarnContext(ctx, "Journal unavailable for calendar",
			log.FieldMonth, month, log.FieldError, err.Error())
		idx = nil
	}
	return report.BuildCalendar(month, snap, idx), nil
}

func (l *Ledger) History(ctx context.Context, filter report.HistoryFilter) ([]report.Transaction, error) {
	snap, err := l.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return report.History(snap, filter), nil
}

// ActiveDates lists the dates that carry any record, newest first.
func (l *Ledger) ActiveDates(ctx context.Context) ([]core.Date, error) {
	snap, err := l.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return report.ActiveDates(snap), nil
}

// JournalEntry returns the diary entry written for date, if any.
func (l *Ledger) JournalEntry(ctx context.Context, date core.Date) (journal.Entry, bool, error) {
	return l.journal.FindByDate(ctx, date)
}

// RegisterShifts records one shift per range on date at wage. The ranges
// must be complete and earn something in total. On success the wage and the
// ranges are remembered for the next registration.
func (l *Ledger) RegisterShifts(ctx context.Context, date core.Date, wage decimal.Decimal, ranges []core.TimeRange) ([]core.Shift, error) {
	if len(ranges) == 0 {
		return nil, ErrNoShifts
	}
	pending := make([]core.Shift, 0, len(ranges))
	total := decimal.Zero
	for i, r := range ranges {
		s, err := core.NewShift(date, r, wage)
		if err != nil {
			return nil, fmt.Errorf("shift %d: %w", i+1, err)
		}
		total = total.Add(s.TotalIncome)
		pending = append(pending, s)
	}
	if !total.IsPositive() {
		return nil, ErrNoIncome
	}

	saved := make([]core.Shift, 0, len(pending))
	for _, s := range pending {
		created, err := l.shifts.Save(ctx, s)
		if err != nil {
			return saved, err
		}
		saved = append(saved, created)
		l.publish(ctx, report.KindShift, created.ID, amqp.ChangeCreated)
	}

	if err := l.prefs.SaveHourlyWage(ctx, wage); err != nil {
		l.logger.WarnContext(ctx, "Failed to remember hourly wage", log.FieldError, err.Error())
	}
	if err := l.prefs.SaveShiftPattern(ctx, ranges); err != nil {
		l.logger.WarnContext(ctx, "Failed to remember shift pattern", log.FieldError, err.Error())
	}
	return saved, nil
}

func (l *Ledger) AddExpense(ctx context.Context, e core.Expense) (core.Expense, error) {
	saved, err := l.expenses.Save(ctx, e)
	if err != nil {
		return core.Expense{}, err
	}
	l.publish(ctx, report.KindExpense, saved.ID, amqp.ChangeCreated)
	return saved, nil
}

func (l *Ledger) AddExtraIncome(ctx context.Context, i core.ExtraIncome) (core.ExtraIncome, error) {
	saved, err := l.extraIncomes.Save(ctx, i)
	if err != nil {
		return core.ExtraIncome{}, err
	}
	l.publish(ctx, report.KindExtraIncome, saved.ID, amqp.ChangeCreated)
	return saved, nil
}

func (l *Ledger) FindShift(ctx context.Context, id string) (core.Shift, error) {
	return l.shifts.Find(ctx, id)
}

func (l *Ledger) FindExpense(ctx context.Context, id string) (core.Expense, error) {
	return l.expenses.Find(ctx, id)
}

func (l *Ledger) FindExtraIncome(ctx context.Context, id string) (core.ExtraIncome, error) {
	return l.extraIncomes.Find(ctx, id)
}

// UpdateShift merges p into the shift with id. Like RegisterShifts, it
// refuses a shift that no longer earns anything.
func (l *Ledger) UpdateShift(ctx context.Context, id string, p core.ShiftPatch) (core.Shift, error) {
	s, err := l.shifts.Update(ctx, id, p, earnsIncome)
	if err != nil {
		return core.Shift{}, err
	}
	l.publish(ctx, report.KindShift, id, amqp.ChangeUpdated)
	return s, nil
}

func (l *Ledger) UpdateExpense(ctx context.Context, id string, p core.ExpensePatch) (core.Expense, error) {
	e, err := l.expenses.Update(ctx, id, p)
	if err != nil {
		return core.Expense{}, err
	}
	l.publish(ctx, report.KindExpense, id, amqp.ChangeUpdated)
	return e, nil
}

func (l *Ledger) UpdateExtraIncome(ctx context.Context, id string, p core.ExtraIncomePatch) (core.ExtraIncome, error) {
	i, err := l.extraIncomes.Update(ctx, id, p)
	if err != nil {
		return core.ExtraIncome{}, err
	}
	l.publish(ctx, report.KindExtraIncome, id, amqp.ChangeUpdated)
	return i, nil
}

func earnsIncome(s core.Shift) error {
	if !s.TotalIncome.IsPositive() {
		return ErrNoIncome
	}
	return nil
}

// Delete removes the record of kind with id and reports whether it existed.
func (l *Ledger) Delete(ctx context.Context, kind report.Kind, id string) (bool, error) {
	var (
		removed bool
		err     error
	)
	switch kind {
	case report.KindShift:
		removed, err = l.shifts.Delete(ctx, id)
	case report.KindExpense:
		removed, err = l.expenses.Delete(ctx, id)
	case report.KindExtraIncome:
		removed, err = l.extraIncomes.Delete(ctx, id)
	default:
		return false, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
	if err != nil || !removed {
		return false, err
	}
	l.publish(ctx, kind, id, amqp.ChangeDeleted)
	return true, nil
}

// ParseKind accepts the kind names used in listings plus a few aliases.
func ParseKind(s string) (report.Kind, error) {
	switch s {
	case "shift", "shifts":
		return report.KindShift, nil
	case "expense", "expenses":
		return report.KindExpense, nil
	case "extra", "income", "extra_income", "extra-income":
		return report.KindExtraIncome, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
}

// Preferences is what the shift form is prefilled with.
type Preferences struct {
	HourlyWage   decimal.Decimal
	HasWage      bool
	ShiftPattern prefs.ShiftPattern
	HasPattern   bool
}

func (l *Ledger) Preferences(ctx context.Context) (Preferences, error) {
	var p Preferences
	var err error
	if p.HourlyWage, p.HasWage, err = l.prefs.LastHourlyWage(ctx); err != nil {
		return Preferences{}, err
	}
	if p.ShiftPattern, p.HasPattern, err = l.prefs.LastShiftPattern(ctx); err != nil {
		return Preferences{}, err
	}
	return p, nil
}

// Clear removes every ledger collection and both preferences. The journal
// is left alone.
func (l *Ledger) Clear(ctx context.Context) error {
	if err := l.shifts.Clear(ctx); err != nil {
		return err
	}
	if err := l.expenses.Clear(ctx); err != nil {
		return err
	}
	if err := l.extraIncomes.Clear(ctx); err != nil {
		return err
	}
	if err := l.prefs.Clear(ctx); err != nil {
		return err
	}
	for _, kind := range []report.Kind{report.KindShift, report.KindExpense, report.KindExtraIncome} {
		l.publish(ctx, kind, "", amqp.ChangeCleared)
	}
	l.logger.InfoContext(ctx, "Ledger cleared", log.FieldOperation, log.OpClear)
	return nil
}

// Export is every collection as stored, for backup.
type Export struct {
	Shifts         []core.Shift       `json:"shifts"`
	Expenses       []core.Expense     `json:"expenses"`
	ExtraIncomes   []core.ExtraIncome `json:"extraIncomes"`
	JournalEntries []journal.Entry    `json:"journalEntries"`
}

func (l *Ledger) Export(ctx context.Context) (Export, error) {
	snap, err := l.Snapshot(ctx)
	if err != nil {
		return Export{}, err
	}
	entries, err := l.journal.All(ctx)
	if err != nil {
		return Export{}, err
	}
	return Export{
		Shifts:         snap.Shifts,
		Expenses:       snap.Expenses,
		ExtraIncomes:   snap.ExtraIncomes,
		JournalEntries: entries,
	}, nil
}

// publish never fails the mutation that triggered it.
func (l *Ledger) publish(ctx context.Context, kind report.Kind, id, op string) {
	if l.publisher == nil {
		return
	}
	if err := l.publisher.PublishRecordChange(ctx, amqp.NewRecordChange(string(kind), id, op)); err != nil {
		log.NewStructuredLogger(l.logger).LogError(ctx, "Failed to publish record change", err,
			log.ComponentLedger, log.OpPublish, log.NewFields().WithRecord(string(kind), id))
	}
}
