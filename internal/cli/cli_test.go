package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/subcommands"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kakeibo/internal/clock"
	"kakeibo/internal/config"
	"kakeibo/internal/kv"
	"kakeibo/internal/kv/memory"
	"kakeibo/internal/ledger"
	"kakeibo/internal/report"
)

type harness struct {
	app   *App
	out   *bytes.Buffer
	store *memory.Store
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	cfg := &config.Config{
		DataBackend: config.BackendMemory,
		UTCOffset:   9 * time.Hour,
		Currency:    "JPY",
	}
	// 2024-03-15 12:00 in UTC+09:00.
	now := time.Date(2024, 3, 15, 3, 0, 0, 0, time.UTC)
	out := &bytes.Buffer{}
	store := memory.New()
	app := NewApp(cfg, nil,
		WithStore(store),
		WithOutput(out),
		WithClock(clock.New(cfg.UTCOffset).WithNow(func() time.Time { return now })),
	)
	t.Cleanup(func() { _ = app.Close() })
	return &harness{app: app, out: out, store: store}
}

// run executes one command line and returns its status and output.
func (h *harness) run(t *testing.T, args ...string) (subcommands.ExitStatus, string) {
	t.Helper()
	h.out.Reset()
	fs := flag.NewFlagSet("kakeibo", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	commander := subcommands.NewCommander(fs, "kakeibo")
	commander.Output = io.Discard
	commander.Error = io.Discard
	Register(commander, h.app)
	require.NoError(t, fs.Parse(args))
	status := commander.Execute(context.Background())
	return status, h.out.String()
}

func (h *harness) ledger(t *testing.T) *ledger.Ledger {
	t.Helper()
	l, err := h.app.Ledger(context.Background())
	require.NoError(t, err)
	return l
}

func TestExpenseThenBalance(t *testing.T) {
	h := newHarness(t)

	status, out := h.run(t, "expense", "-amount", "500", "-category", "food")
	require.Equal(t, subcommands.ExitSuccess, status)
	assert.Contains(t, out, "2024-03-15")
	assert.Contains(t, out, "Comida")

	status, out = h.run(t, "balance")
	require.Equal(t, subcommands.ExitSuccess, status)
	assert.Contains(t, out, "¥500")
}

func TestExpenseRejectsInvalidInput(t *testing.T) {
	h := newHarness(t)

	status, _ := h.run(t, "expense", "-amount", "0", "-category", "food")
	assert.Equal(t, subcommands.ExitUsageError, status)

	status, _ = h.run(t, "expense", "-amount", "100", "-category", "rent")
	assert.Equal(t, subcommands.ExitUsageError, status)

	status, _ = h.run(t, "expense", "-amount", "100", "-category", "food", "-d", "2024-02-30")
	assert.Equal(t, subcommands.ExitUsageError, status)
}

func TestShiftRemembersWageAndPattern(t *testing.T) {
	h := newHarness(t)

	status, _ := h.run(t, "shift")
	assert.Equal(t, subcommands.ExitUsageError, status, "no wage remembered yet")

	status, out := h.run(t, "shift", "-d", "2024-03-01", "-wage", "1000", "09:00-12:00", "13:00-17:00")
	require.Equal(t, subcommands.ExitSuccess, status)
	assert.Contains(t, out, "Registered 2 shift(s) on 2024-03-01: ¥7,000")

	status, out = h.run(t, "shift")
	require.Equal(t, subcommands.ExitSuccess, status)
	assert.Contains(t, out, "Registered 2 shift(s) on 2024-03-15: ¥7,000")

	status, out = h.run(t, "prefs")
	require.Equal(t, subcommands.ExitSuccess, status)
	assert.Contains(t, out, "¥1,000")
	assert.Contains(t, out, "13:00-17:00")
}

func TestShiftWithoutIncomeFails(t *testing.T) {
	h := newHarness(t)
	status, _ := h.run(t, "shift", "-wage", "1000", "17:00-09:00")
	assert.Equal(t, subcommands.ExitFailure, status)
}

func TestEditShiftWithoutIncomeIsUsageError(t *testing.T) {
	h := newHarness(t)
	h.run(t, "shift", "-d", "2024-03-01", "-wage", "1000", "09:00-17:00")
	txs, err := h.ledger(t).History(context.Background(), report.HistoryFilter{})
	require.NoError(t, err)
	require.Len(t, txs, 1)

	status, _ := h.run(t, "edit", "-kind", "shift", "-id", txs[0].ID, "-end", "08:00")
	assert.Equal(t, subcommands.ExitUsageError, status)

	got, err := h.ledger(t).FindShift(context.Background(), txs[0].ID)
	require.NoError(t, err)
	assert.Equal(t, "8000", got.TotalIncome.String())
}

func TestEditAndDelete(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	status, _ := h.run(t, "income", "-amount", "3000", "-source", "gift", "-desc", "cumpleaños")
	require.Equal(t, subcommands.ExitSuccess, status)
	txs, err := h.ledger(t).History(ctx, report.HistoryFilter{})
	require.NoError(t, err)
	require.Len(t, txs, 1)
	id := txs[0].ID

	status, _ = h.run(t, "edit", "-kind", "extra", "-id", id)
	assert.Equal(t, subcommands.ExitUsageError, status, "nothing to change")

	status, out := h.run(t, "edit", "-kind", "income", "-id", id, "-amount", "4500", "-source", "bonus")
	require.Equal(t, subcommands.ExitSuccess, status)
	assert.Contains(t, out, "Bono")

	got, err := h.ledger(t).FindExtraIncome(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "4500", got.Amount.String())
	assert.Equal(t, "cumpleaños", got.Description, "untouched field is kept")

	status, _ = h.run(t, "edit", "-kind", "extra", "-id", "missing", "-amount", "1")
	assert.Equal(t, subcommands.ExitFailure, status)

	status, out = h.run(t, "delete", "-kind", "extra", "-id", id)
	require.Equal(t, subcommands.ExitSuccess, status)
	assert.Contains(t, out, "Deleted extra "+id)

	status, out = h.run(t, "delete", "-kind", "extra", "-id", id)
	require.Equal(t, subcommands.ExitSuccess, status)
	assert.Contains(t, out, "nothing deleted")

	status, _ = h.run(t, "delete", "-kind", "loan", "-id", id)
	assert.Equal(t, subcommands.ExitUsageError, status)
}

func TestReports(t *testing.T) {
	h := newHarness(t)
	h.run(t, "shift", "-d", "2024-03-01", "-wage", "1000", "09:00-17:00")
	h.run(t, "expense", "-d", "2024-03-02", "-amount", "500", "-category", "food")
	h.run(t, "expense", "-d", "2024-02-10", "-amount", "200", "-category", "transport")

	status, out := h.run(t, "monthly")
	require.Equal(t, subcommands.ExitSuccess, status)
	assert.Contains(t, out, "Marzo 2024")
	assert.Contains(t, out, "Febrero 2024")

	status, out = h.run(t, "monthly", "-m", "2024-03")
	require.Equal(t, subcommands.ExitSuccess, status)
	assert.Contains(t, out, "+¥7,500")
	assert.Contains(t, out, "Gastos por categoría")

	status, out = h.run(t, "monthly", "-m", "2023-01")
	require.Equal(t, subcommands.ExitSuccess, status)
	assert.Contains(t, out, "No records in Enero 2023.")

	status, _ = h.run(t, "monthly", "-m", "March")
	assert.Equal(t, subcommands.ExitUsageError, status)

	status, out = h.run(t, "calendar")
	require.Equal(t, subcommands.ExitSuccess, status)
	assert.Contains(t, out, "Marzo 2024")
	assert.Contains(t, out, "1 +¥8,000")

	status, out = h.run(t, "calendar", "-m", "2024-03", "-offset", "-1")
	require.Equal(t, subcommands.ExitSuccess, status)
	assert.Contains(t, out, "Febrero 2024")

	status, out = h.run(t, "history", "-type", "expense")
	require.Equal(t, subcommands.ExitSuccess, status)
	assert.Contains(t, out, "Transporte")
	assert.NotContains(t, out, report.ShiftLabel)

	status, out = h.run(t, "history", "-d", "2024-03-01")
	require.Equal(t, subcommands.ExitSuccess, status)
	assert.Contains(t, out, "Historial 2024-03-01")
	assert.Contains(t, out, "09:00-17:00")

	status, _ = h.run(t, "history", "-type", "transfers")
	assert.Equal(t, subcommands.ExitUsageError, status)

	status, out = h.run(t, "history", "-dates")
	require.Equal(t, subcommands.ExitSuccess, status)
	assert.Contains(t, out, "Días con movimientos")
	assert.Less(t, strings.Index(out, "2024-03-02"), strings.Index(out, "2024-03-01"))
	assert.Less(t, strings.Index(out, "2024-03-01"), strings.Index(out, "2024-02-10"))
}

func TestHistoryOfDateShowsJournalEntry(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.store.Set(context.Background(), kv.KeyJournalEntries,
		[]byte(`[{"id":"1","date":"2024-03-01","title":"Primer día","content":"Todo bien.","timestamp":1}]`)))
	h.run(t, "shift", "-d", "2024-03-01", "-wage", "1000", "09:00-17:00")

	status, out := h.run(t, "history", "-d", "2024-03-01")
	require.Equal(t, subcommands.ExitSuccess, status)
	assert.Contains(t, out, "09:00-17:00")
	assert.Contains(t, out, "Primer día")
	assert.Contains(t, out, "Todo bien.")

	status, out = h.run(t, "history", "-d", "2024-03-02")
	require.Equal(t, subcommands.ExitSuccess, status)
	assert.NotContains(t, out, "Primer día")
}

func TestClearAndExport(t *testing.T) {
	h := newHarness(t)
	h.run(t, "shift", "-d", "2024-03-01", "-wage", "1000", "09:00-17:00")
	h.run(t, "expense", "-amount", "500", "-category", "food")

	path := filepath.Join(t.TempDir(), "export.json")
	status, _ := h.run(t, "export", "-o", path)
	require.Equal(t, subcommands.ExitSuccess, status)
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	var export ledger.Export
	require.NoError(t, json.Unmarshal(raw, &export))
	assert.Len(t, export.Shifts, 1)
	assert.Len(t, export.Expenses, 1)
	assert.Empty(t, export.ExtraIncomes)

	status, _ = h.run(t, "clear")
	assert.Equal(t, subcommands.ExitUsageError, status)

	status, _ = h.run(t, "clear", "-yes")
	require.Equal(t, subcommands.ExitSuccess, status)

	b, err := h.ledger(t).Balance(context.Background())
	require.NoError(t, err)
	assert.True(t, b.TotalIncome.IsZero())
	assert.True(t, b.TotalExpense.IsZero())

	p, err := h.ledger(t).Preferences(context.Background())
	require.NoError(t, err)
	assert.False(t, p.HasWage)
}

func TestWatchRequiresAMQP(t *testing.T) {
	h := newHarness(t)
	status, _ := h.run(t, "watch")
	assert.Equal(t, subcommands.ExitUsageError, status)
}

func TestLedgerFromMemoryBackend(t *testing.T) {
	cfg := &config.Config{DataBackend: config.BackendMemory, Currency: "JPY"}
	app := NewApp(cfg, nil, WithOutput(io.Discard))
	defer app.Close()

	l, err := app.Ledger(context.Background())
	require.NoError(t, err)
	again, err := app.Ledger(context.Background())
	require.NoError(t, err)
	assert.Same(t, l, again)
}
