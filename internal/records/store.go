// Package records implements the per-kind record store: a whole collection
// serialized as one JSON array under one key, rewritten on every mutation.
//
// A Store serializes its own read-modify-write cycles with a mutex. Two
// processes writing the same key are last-write-wins; nothing detects it.
package records

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"kakeibo/internal/kv"
	"kakeibo/internal/log"
)

var (
	// ErrNotFound is returned by Find and Update for an unknown id.
	ErrNotFound = errors.New("record not found")
	// ErrPersistence wraps failures of the underlying kv.Store.
	ErrPersistence = errors.New("persistence failure")
	// ErrInvalid wraps validation failures of a record about to be written.
	ErrInvalid = errors.New("invalid record")
)

// Record is implemented by every persisted entity.
type Record[T any] interface {
	RecordID() string
	WithID(id string) T
	Validate() error
}

// Patch merges a partial update into a record.
type Patch[T any] interface {
	Apply(*T)
}

// IDFunc generates record ids.
type IDFunc func() (string, error)

// NewUUID returns a time-ordered UUIDv7.
func NewUUID() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

type Store[T Record[T]] struct {
	mu     sync.Mutex
	kv     kv.Store
	key    string
	kind   string
	newID  IDFunc
	logger *log.Logger
	events *log.StructuredLogger
}

// Option configures a Store.
type Option func(*options)

type options struct {
	newID  IDFunc
	logger *log.Logger
}

func WithIDFunc(fn IDFunc) Option {
	return func(o *options) { o.newID = fn }
}

func WithLogger(l *log.Logger) Option {
	return func(o *options) { o.logger = l }
}

// New returns the store of one record kind persisted under key.
func New[T Record[T]](store kv.Store, kind, key string, opts ...Option) *Store[T] {
	o := options{newID: NewUUID}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = log.Discard()
	}
	logger := o.logger.WithComponent(log.ComponentRecords).With(log.FieldKind, kind)
	return &Store[T]{
		kv:     store,
		key:    key,
		kind:   kind,
		newID:  o.newID,
		logger: logger,
		events: log.NewStructuredLogger(logger),
	}
}

// GetAll returns the whole collection in insertion order. A missing or
// unreadable blob is an empty collection.
func (s *Store[T]) GetAll(ctx context.Context) ([]T, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(ctx)
}

// Find returns the record with id, or ErrNotFound.
func (s *Store[T]) Find(ctx context.Context, id string) (T, error) {
	var zero T
	all, err := s.GetAll(ctx)
	if err != nil {
		return zero, err
	}
	if i := indexOf(all, id); i >= 0 {
		return all[i], nil
	}
	return zero, fmt.Errorf("%s %q: %w", s.kind, id, ErrNotFound)
}

// Save assigns a fresh id to rec, appends it and persists the collection.
func (s *Store[T]) Save(ctx context.Context, rec T) (T, error) {
	var zero T
	if err := rec.Validate(); err != nil {
		return zero, fmt.Errorf("%w: %w", ErrInvalid, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.load(ctx)
	if err != nil {
		return zero, err
	}
	id, err := s.uniqueID(all)
	if err != nil {
		return zero, err
	}
	rec = rec.WithID(id)
	if err := s.persist(ctx, append(all, rec), log.OpCreate); err != nil {
		return zero, err
	}
	s.events.LogRecordChanged(ctx, s.kind, id, log.OpCreate)
	return rec, nil
}

// Check is a rule the merged record must satisfy on top of Validate.
type Check[T any] func(T) error

// Update merges patch into the record with id and persists the collection.
// An unknown id returns ErrNotFound and writes nothing. A merged record
// failing Validate or one of checks is not written either.
func (s *Store[T]) Update(ctx context.Context, id string, patch Patch[T], checks ...Check[T]) (T, error) {
	var zero T

	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.load(ctx)
	if err != nil {
		return zero, err
	}
	i := indexOf(all, id)
	if i < 0 {
		return zero, fmt.Errorf("%s %q: %w", s.kind, id, ErrNotFound)
	}

	updated := all[i]
	patch.Apply(&updated)
	// The id is not patchable.
	updated = updated.WithID(id)
	if err := updated.Validate(); err != nil {
		return zero, fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	for _, check := range checks {
		if err := check(updated); err != nil {
			return zero, fmt.Errorf("%w: %w", ErrInvalid, err)
		}
	}
	all[i] = updated
	if err := s.persist(ctx, all, log.OpUpdate); err != nil {
		return zero, err
	}
	s.events.LogRecordChanged(ctx, s.kind, id, log.OpUpdate)
	return updated, nil
}

// Delete removes the record with id. It reports false, and writes nothing,
// when no record has that id.
func (s *Store[T]) Delete(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.load(ctx)
	if err != nil {
		return false, err
	}
	kept := make([]T, 0, len(all))
	for _, r := range all {
		if r.RecordID() != id {
			kept = append(kept, r)
		}
	}
	if len(kept) == len(all) {
		return false, nil
	}
	if err := s.persist(ctx, kept, log.OpDelete); err != nil {
		return false, err
	}
	s.events.LogRecordChanged(ctx, s.kind, id, log.OpDelete)
	return true, nil
}

// Clear removes the whole collection.
func (s *Store[T]) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.kv.Delete(ctx, s.key); err != nil {
		s.events.LogError(ctx, "Failed to clear collection", err, log.ComponentRecords, log.OpClear,
			log.NewFields().WithKey(s.key))
		return fmt.Errorf("%w: clear %s: %w", ErrPersistence, s.key, err)
	}
	return nil
}

func (s *Store[T]) load(ctx context.Context) ([]T, error) {
	blob, err := s.kv.Get(ctx, s.key)
	if errors.Is(err, kv.ErrNotFound) {
		return []T{}, nil
	}
	if err != nil {
		s.events.LogError(ctx, "Failed to read collection", err, log.ComponentRecords, log.OpRead,
			log.NewFields().WithKey(s.key))
		return nil, fmt.Errorf("%w: read %s: %w", ErrPersistence, s.key, err)
	}
	var all []T
	if err := json.Unmarshal(blob, &all); err != nil {
		s.logger.WarnContext(ctx, "Corrupt collection treated as empty",
			log.FieldKey, s.key, log.FieldError, err.Error())
		return []T{}, nil
	}
	if all == nil {
		all = []T{}
	}
	return all, nil
}

func (s *Store[T]) persist(ctx context.Context, all []T, op string) error {
	blob, err := json.Marshal(all)
	if err != nil {
		return fmt.Errorf("encode %s: %w", s.key, err)
	}
	if err := s.kv.Set(ctx, s.key, blob); err != nil {
		s.events.LogError(ctx, "Failed to write collection", err, log.ComponentRecords, op,
			log.NewFields().WithKey(s.key).With(log.FieldCount, len(all)))
		return fmt.Errorf("%w: write %s: %w", ErrPersistence, s.key, err)
	}
	return nil
}

// uniqueID draws ids until one is not already used in all.
func (s *Store[T]) uniqueID(all []T) (string, error) {
	const attempts = 8
	for n := 0; n < attempts; n++ {
		id, err := s.newID()
		if err != nil {
			return "", fmt.Errorf("generate id: %w", err)
		}
		if id != "" && indexOf(all, id) < 0 {
			return id, nil
		}
	}
	return "", fmt.Errorf("generate id: no unique id after %d attempts", attempts)
}

func indexOf[T Record[T]](all []T, id string) int {
	for i, r := range all {
		if r.RecordID() == id {
			return i
		}
	}
	return -1
}
