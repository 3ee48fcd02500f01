// Package prefs remembers the last used hourly wage and shift times so new
// entries can be prefilled. Nothing here is financial data.
package prefs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"kakeibo/internal/core"
	"kakeibo/internal/kv"
	"kakeibo/internal/log"
)

// ShiftPattern is the set of time ranges registered together last time.
type ShiftPattern struct {
	Shifts []core.TimeRange `json:"shifts"`
	Count  int              `json:"count"`
}

type Store struct {
	kv     kv.Store
	logger *log.Logger
}

func New(store kv.Store, logger *log.Logger) *Store {
	if logger == nil {
		logger = log.Discard()
	}
	return &Store{kv: store, logger: logger.WithComponent(log.ComponentPrefs)}
}

// LastHourlyWage returns the remembered wage. ok is false when none was
// saved or the stored value does not parse.
func (s *Store) LastHourlyWage(ctx context.Context) (wage decimal.Decimal, ok bool, err error) {
	raw, err := s.get(ctx, kv.KeyLastHourlyWage)
	if err != nil || raw == nil {
		return decimal.Zero, false, err
	}
	wage, err = decimal.NewFromString(strings.TrimSpace(string(raw)))
	if err != nil || wage.IsNegative() {
		s.logger.WarnContext(ctx, "Ignoring unreadable hourly wage",
			log.FieldKey, kv.KeyLastHourlyWage, log.FieldError, fmt.Sprint(err))
		return decimal.Zero, false, nil
	}
	return wage, true, nil
}

// SaveHourlyWage stores wage as a plain numeric string.
func (s *Store) SaveHourlyWage(ctx context.Context, wage decimal.Decimal) error {
	if wage.IsNegative() {
		return core.ErrInvalidWage
	}
	return s.set(ctx, kv.KeyLastHourlyWage, []byte(wage.String()))
}

// LastShiftPattern returns the remembered time ranges, if any.
func (s *Store) LastShiftPattern(ctx context.Context) (ShiftPattern, bool, error) {
	raw, err := s.get(ctx, kv.KeyLastShiftPattern)
	if err != nil || raw == nil {
		return ShiftPattern{}, false, err
	}
	var p ShiftPattern
	if err := json.Unmarshal(raw, &p); err != nil || len(p.Shifts) == 0 {
		s.logger.WarnContext(ctx, "Ignoring unreadable shift pattern",
			log.FieldKey, kv.KeyLastShiftPattern, log.FieldError, fmt.Sprint(err))
		return ShiftPattern{}, false, nil
	}
	p.Count = len(p.Shifts)
	return p, true, nil
}

// SaveShiftPattern remembers ranges; count always mirrors their number.
func (s *Store) SaveShiftPattern(ctx context.Context, ranges []core.TimeRange) error {
	blob, err := json.Marshal(ShiftPattern{Shifts: ranges, Count: len(ranges)})
	if err != nil {
		return err
	}
	return s.set(ctx, kv.KeyLastShiftPattern, blob)
}

// Clear forgets both preferences and the legacy shift times key.
func (s *Store) Clear(ctx context.Context) error {
	for _, key := range kv.PreferenceKeys() {
		if err := s.kv.Delete(ctx, key); err != nil {
			return fmt.Errorf("clear %s: %w", key, err)
		}
	}
	return nil
}

func (s *Store) get(ctx context.Context, key string) ([]byte, error) {
	raw, err := s.kv.Get(ctx, key)
	if errors.Is(err, kv.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", key, err)
	}
	return raw, nil
}

func (s *Store) set(ctx context.Context, key string, value []byte) error {
	if err := s.kv.Set(ctx, key, value); err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}
	return nil
}
