package backend

import (
	"context"
	"fmt"

	"kakeibo/internal/kv/memory"
	"kakeibo/internal/log"
	"kakeibo/internal/storage"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *log.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *log.Logger) Factory {
	if logger == nil {
		logger = log.Discard()
	}
	return &DefaultFactory{logger: logger.WithComponent(log.ComponentBackend)}
}

// CreateBackend implements Factory.CreateBackend
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*Result, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	switch config.Type {
	case SQLiteBackend:
		return f.createSQLiteBackend(ctx, config)
	case MemoryBackend:
		return f.createMemoryBackend(ctx, config)
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}

func (f *DefaultFactory) createSQLiteBackend(ctx context.Context, config Config) (*Result, error) {
	store, err := storage.NewSQLiteStore(config.SQLiteDBPath, f.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite store: %w", err)
	}

	keys, err := store.Keys(ctx)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("failed to read SQLite store: %w", err)
	}

	f.logger.InfoContext(ctx, "Initialized SQLite backend",
		log.FieldPath, config.SQLiteDBPath,
		log.FieldCount, len(keys))

	return &Result{Store: store, Type: SQLiteBackend, Cleanup: store.Close}, nil
}

func (f *DefaultFactory) createMemoryBackend(ctx context.Context, config Config) (*Result, error) {
	store, err := memory.NewFromDump(config.MemorySeedFile)
	if err != nil {
		return nil, fmt.Errorf("failed to seed memory backend: %w", err)
	}

	f.logger.InfoContext(ctx, "Initialized memory backend",
		"seed_file", config.MemorySeedFile,
		log.FieldCount, len(store.Keys()))

	return &Result{Store: store, Type: MemoryBackend}, nil
}
