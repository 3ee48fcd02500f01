// Package kv defines the persistent key-value port the ledger is stored in.
// Every value is a whole serialized collection; there are no partial writes.
package kv

import (
	"context"
	"errors"
)

// Well-known keys.
const (
	KeyShifts           = "kakeibo_shifts"
	KeyExpenses         = "kakeibo_expenses"
	KeyExtraIncomes     = "kakeibo_extra_incomes"
	KeyLastHourlyWage   = "kakeibo_last_hourly_wage"
	KeyLastShiftPattern = "kakeibo_last_shift_data"
	KeyJournalEntries   = "journalEntries"

	// KeyLegacyShiftTimes is an older shift pattern format, only ever removed.
	KeyLegacyShiftTimes = "kakeibo_last_shift_times"
)

// ErrNotFound is returned by Get when the key holds no value.
var ErrNotFound = errors.New("kv: key not found")

// Ports for storage adapters.
type (
	Reader interface {
		// Get returns the value stored at key, or ErrNotFound.
		Get(ctx context.Context, key string) ([]byte, error)
	}

	Writer interface {
		// Set replaces the value stored at key.
		Set(ctx context.Context, key string, value []byte) error
		// Delete removes key. Deleting a missing key is not an error.
		Delete(ctx context.Context, key string) error
	}

	Store interface {
		Reader
		Writer
	}
)

// PreferenceKeys lists the keys holding remembered shift defaults,
// including the legacy one.
func PreferenceKeys() []string {
	return []string{KeyLastHourlyWage, KeyLastShiftPattern, KeyLegacyShiftTimes}
}
