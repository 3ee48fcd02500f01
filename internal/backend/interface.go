package backend

import (
	"context"

	"kakeibo/internal/kv"
)

// CleanupFunc releases the resources held by a backend.
type CleanupFunc func() error

// Result contains the store and an optional cleanup function
type Result struct {
	Store   kv.Store
	Type    BackendType
	Cleanup CleanupFunc
}

// Close runs the cleanup function, if any.
func (r *Result) Close() error {
	if r == nil || r.Cleanup == nil {
		return nil
	}
	return r.Cleanup()
}

// Factory creates the key-value store the ledger lives in.
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*Result, error)
}

// Config holds configuration for backend creation
type Config struct {
	Type BackendType

	// SQLite specific
	SQLiteDBPath string

	// Memory backend specific: optional localStorage dump to start from
	MemorySeedFile string
}

// BackendType represents the type of backend
type BackendType string

const (
	SQLiteBackend BackendType = "sqlite"
	MemoryBackend BackendType = "memory"
)

// String implements fmt.Stringer
func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case SQLiteBackend, MemoryBackend:
		return true
	default:
		return false
	}
}
