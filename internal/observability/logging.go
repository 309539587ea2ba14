// Package observability provides logging, metrics, and tracing.
package observability

import (
	"context"
	"log/slog"
	"os"
)

// Logger wraps slog.Logger to provide specialized logging methods.
type Logger struct {
	*slog.Logger
}

// GlobalLogger is the default logger instance for the application.
var GlobalLogger *Logger

func init() {
	var handler slog.Handler
	if os.Getenv("APP_ENV") == "production" {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})
	} else {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})
	}
	GlobalLogger = &Logger{Logger: slog.New(handler)}
}

// LogContextKey is a type for context keys used by the logging package.
type LogContextKey string

// Context keys for logging
const (
	CorrelationID LogContextKey = "correlation_id"
	SpanID        LogContextKey = "span_id"
	TraceID       LogContextKey = "trace_id"
)

// WithCorrelationID returns a new context with the given correlation ID.
func WithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, CorrelationID, id)
}

// ExtractCorrelationID retrieves the correlation ID from the context.
func ExtractCorrelationID(ctx context.Context) string {
	if id, ok := ctx.Value(CorrelationID).(string); ok {
		return id
	}
	return ""
}

// StoreLogger provides structured logging for document store operations.
type StoreLogger struct {
	collection string
	logger     *Logger
}

// NewStoreLogger creates a new StoreLogger for the given collection.
func NewStoreLogger(collection string) *StoreLogger {
	return &StoreLogger{
		collection: collection,
		logger:     GlobalLogger,
	}
}

// LogQuery logs a one-shot store query.
func (l *StoreLogger) LogQuery(ctx context.Context, fields map[string]interface{}) {
	attrs := []any{
		slog.String("collection", l.collection),
		slog.String("operation", "query"),
		slog.String("correlation_id", ExtractCorrelationID(ctx)),
	}
	for k, v := range fields {
		attrs = append(attrs, slog.Any(k, v))
	}
	l.logger.InfoContext(ctx, "store query", attrs...)
}

// LogUpdate logs a store write.
func (l *StoreLogger) LogUpdate(ctx context.Context, fields map[string]interface{}) {
	attrs := []any{
		slog.String("collection", l.collection),
		slog.String("operation", "update"),
		slog.String("correlation_id", ExtractCorrelationID(ctx)),
	}
	for k, v := range fields {
		attrs = append(attrs, slog.Any(k, v))
	}
	l.logger.InfoContext(ctx, "store update", attrs...)
}

// LogError logs a store error.
func (l *StoreLogger) LogError(ctx context.Context, err error, operation string) {
	l.logger.ErrorContext(ctx, "store error",
		slog.String("collection", l.collection),
		slog.String("operation", operation),
		slog.String("correlation_id", ExtractCorrelationID(ctx)),
		slog.String("error", err.Error()),
	)
}

// StreamLogger provides structured logging for live view lifecycles.
type StreamLogger struct {
	name   string
	logger *Logger
}

// NewStreamLogger creates a new StreamLogger for the given stream kind.
func NewStreamLogger(name string) *StreamLogger {
	return &StreamLogger{
		name:   name,
		logger: GlobalLogger,
	}
}

// LogOpen logs a live view being opened.
func (l *StreamLogger) LogOpen(ctx context.Context, authorID string, owner bool) {
	l.logger.InfoContext(ctx, "live view opened",
		slog.String("stream", l.name),
		slog.String("author_id", authorID),
		slog.Bool("owner", owner),
		slog.String("correlation_id", ExtractCorrelationID(ctx)),
	)
}

// LogClose logs a live view being torn down.
func (l *StreamLogger) LogClose(ctx context.Context, authorID string, reason string) {
	l.logger.InfoContext(ctx, "live view closed",
		slog.String("stream", l.name),
		slog.String("author_id", authorID),
		slog.String("reason", reason),
		slog.String("correlation_id", ExtractCorrelationID(ctx)),
	)
}

// LogSnapshot logs a snapshot emission.
func (l *StreamLogger) LogSnapshot(ctx context.Context, authorID string, items int) {
	l.logger.DebugContext(ctx, "live view snapshot",
		slog.String("stream", l.name),
		slog.String("author_id", authorID),
		slog.Int("items", items),
	)
}

// LogError logs a live view delivery error.
func (l *StreamLogger) LogError(ctx context.Context, authorID string, err error) {
	l.logger.ErrorContext(ctx, "live view error",
		slog.String("stream", l.name),
		slog.String("author_id", authorID),
		slog.String("error", err.Error()),
		slog.String("correlation_id", ExtractCorrelationID(ctx)),
	)
}
