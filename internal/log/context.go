package log

import "context"

// StructuredLogger provides structured logging methods for ledger events
type StructuredLogger struct {
	logger *Logger
}

// NewStructuredLogger creates a new structured logger
func NewStructuredLogger(logger *Logger) *StructuredLogger {
	return &StructuredLogger{
		logger: logger,
	}
}

// LogRecordChanged logs a successful mutation of a ledger record
func (sl *StructuredLogger) LogRecordChanged(ctx context.Context, kind, id, operation string) {
	fields := NewFields().
		WithRecord(kind, id).
		WithOperation(operation).
		WithComponent(ComponentRecords)

	sl.logger.DebugContext(ctx, "Record persisted", fields.ToSlice()...)
}

// LogError logs an error with structured context
func (sl *StructuredLogger) LogError(ctx context.Context, msg string, err error, component string, operation string, fields LogFields) {
	if fields == nil {
		fields = NewFields()
	}
	allFields := fields.
		WithError(err).
		WithOperation(operation).
		WithComponent(component)

	sl.logger.ErrorContext(ctx, msg, allFields.ToSlice()...)
}
