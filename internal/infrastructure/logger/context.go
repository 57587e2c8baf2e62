package logger

import (
	"context"

	"go.uber.org/zap"
)

// contextKey keeps the logger's context values from colliding with other
// packages' string keys.
type contextKey string

const (
	// LoggerKey carries the request-scoped logger.
	LoggerKey contextKey = "logger"
	// RequestIDKey carries the request id.
	RequestIDKey contextKey = "request_id"
	// SupplierIDKey carries the supplier connection id.
	SupplierIDKey contextKey = "supplier_id"
)

// WithContext attaches a logger to the context.
func WithContext(ctx context.Context, logger *zap.Logger) context.Context {
	return context.WithValue(ctx, LoggerKey, logger)
}

// FromContext returns the attached logger, or a no-op logger so callers
// never need a nil check.
func FromContext(ctx context.Context) *zap.Logger {
	if logger, ok := ctx.Value(LoggerKey).(*zap.Logger); ok {
		return logger
	}
	return zap.NewNop()
}

// WithRequestID stores the request id and returns a logger that tags every
// entry with it.
func WithRequestID(ctx context.Context, logger *zap.Logger, requestID string) (context.Context, *zap.Logger) {
	ctx = context.WithValue(ctx, RequestIDKey, requestID)
	tagged := logger.With(zap.String("request_id", requestID))
	return WithContext(ctx, tagged), tagged
}

// WithSupplierID stores the supplier connection id and returns a logger
// that tags every entry with it.
func WithSupplierID(ctx context.Context, logger *zap.Logger, supplierID string) (context.Context, *zap.Logger) {
	ctx = context.WithValue(ctx, SupplierIDKey, supplierID)
	tagged := logger.With(zap.String("supplier_id", supplierID))
	return WithContext(ctx, tagged), tagged
}

// GetRequestID returns the request id stored in the context, if any.
func GetRequestID(ctx context.Context) string {
	id, _ := ctx.Value(RequestIDKey).(string)
	return id
}

// GetSupplierID returns the supplier connection id stored in the context.
func GetSupplierID(ctx context.Context) string {
	id, _ := ctx.Value(SupplierIDKey).(string)
	return id
}
