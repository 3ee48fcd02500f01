// Package journal reads the free-text diary kept next to the ledger. The
// ledger only asks whether a date has an entry; writing entries belongs to
// the diary itself.
package journal

import (
	"context"
	"errors"
	"strings"

	"kakeibo/internal/core"
	"kakeibo/internal/kv"
	"kakeibo/internal/log"
	"kakeibo/internal/records"
)

var ErrEmptyEntry = errors.New("journal entry needs a title and content")

// Entry is one diary entry. Timestamp is milliseconds since the epoch.
type Entry struct {
	ID        string    `json:"id"`
	Date      core.Date `json:"date"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Timestamp int64     `json:"timestamp"`
}

func (e Entry) RecordID() string { return e.ID }

func (e Entry) WithID(id string) Entry {
	e.ID = id
	return e
}

func (e Entry) Validate() error {
	if err := e.Date.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(e.Title) == "" || strings.TrimSpace(e.Content) == "" {
		return ErrEmptyEntry
	}
	return nil
}

// Store reads the journal collection.
type Store struct {
	entries *records.Store[Entry]
}

func New(store kv.Store, logger *log.Logger) *Store {
	return &Store{
		entries: records.New[Entry](store, "journal", kv.KeyJournalEntries,
			records.WithLogger(logger)),
	}
}

// All returns every entry as stored.
func (s *Store) All(ctx context.Context) ([]Entry, error) {
	return s.entries.GetAll(ctx)
}

// FindByDate returns the first entry written for date.
func (s *Store) FindByDate(ctx context.Context, date core.Date) (Entry, bool, error) {
	all, err := s.entries.GetAll(ctx)
	if err != nil {
		return Entry{}, false, err
	}
	for _, e := range all {
		if e.Date == date {
			return e, true, nil
		}
	}
	return Entry{}, false, nil
}

// Index loads the journal once and answers date lookups from memory.
func (s *Store) Index(ctx context.Context) (Index, error) {
	all, err := s.entries.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	return NewIndex(all), nil
}

// Index maps a date to its first entry.
type Index map[core.Date]Entry

func NewIndex(entries []Entry) Index {
	idx := make(Index, len(entries))
	for _, e := range entries {
		if _, seen := idx[e.Date]; !seen {
			idx[e.Date] = e
		}
	}
	return idx
}

func (idx Index) HasEntry(date core.Date) bool {
	_, ok := idx[date]
	return ok
}
