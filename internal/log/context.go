package log

import (
	"context"
	"log/slog"
)

// ContextKey type for context keys
type ContextKey string

const (
	// LoggerContextKey is the context key for the logger
	LoggerContextKey ContextKey = "logger"
)

// NewContext returns a copy of ctx carrying logger.
func NewContext(ctx context.Context, logger *Logger) context.Context {
	return context.WithValue(ctx, LoggerContextKey, logger)
}

// FromContext extracts a logger from the context
func FromContext(ctx context.Context) *Logger {
	if logger, ok := ctx.Value(LoggerContextKey).(*Logger); ok {
		return logger
	}
	// Return default logger if not found
	return &Logger{
		Logger:    slog.Default(),
		component: "unknown",
	}
}

// StructuredLogger provides structured logging methods for ledger events
type StructuredLogger struct {
	logger *Logger
}

// NewStructuredLogger creates a new structured logger
func NewStructuredLogger(logger *Logger) *StructuredLogger {
	if logger == nil {
		logger = New(DefaultConfig())
	}
	return &StructuredLogger{
		logger: logger,
	}
}

// LogTransaction logs a successful transaction mutation
func (sl *StructuredLogger) LogTransaction(ctx context.Context, op, id, amount, typ, date string) {
	fields := NewFields().
		WithTransaction(id, amount, typ, date).
		WithOperation(op).
		WithComponent(ComponentLedger)

	sl.logger.Logger.InfoContext(ctx, "Transaction "+op+"d", fields.ToSlice()...)
}

// LogTag logs a successful tag mutation
func (sl *StructuredLogger) LogTag(ctx context.Context, op, id, name string) {
	fields := NewFields().
		WithTag(id, name).
		WithOperation(op).
		WithComponent(ComponentTags)

	sl.logger.Logger.InfoContext(ctx, "Tag "+op+"d", fields.ToSlice()...)
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

	sl.logger.Logger.ErrorContext(ctx, msg, allFields.ToSlice()...)
}

// Logger returns the wrapped logger.
func (sl *StructuredLogger) Logger() *Logger {
	return sl.logger
}
