package http

import (
	"context"
	"log/slog"

	"github.com/example/health-portal/internal/application"
	"github.com/example/health-portal/internal/logging"
)

type contextKey string

const (
	principalContextKey contextKey = "principal"
	bookingIDContextKey contextKey = "booking_id"
	recordIDContextKey  contextKey = "record_id"
)

// ContextWithPrincipal returns a derived context containing the authenticated identity.
func ContextWithPrincipal(ctx context.Context, identity application.Identity) context.Context {
	return context.WithValue(ctx, principalContextKey, identity)
}

// PrincipalFromContext extracts the authenticated identity from context if available.
func PrincipalFromContext(ctx context.Context) (application.Identity, bool) {
	identity, ok := ctx.Value(principalContextKey).(application.Identity)
	return identity, ok
}

// ContextWithBookingID injects the booking identifier resolved from the request path.
func ContextWithBookingID(ctx context.Context, bookingID string) context.Context {
	return context.WithValue(ctx, bookingIDContextKey, bookingID)
}

// BookingIDFromContext extracts a booking identifier previously associated with the context.
func BookingIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(bookingIDContextKey).(string)
	return id, ok
}

// ContextWithRecordID injects the record identifier resolved from the request path.
func ContextWithRecordID(ctx context.Context, recordID string) context.Context {
	return context.WithValue(ctx, recordIDContextKey, recordID)
}

// RecordIDFromContext extracts a record identifier previously associated with the context.
func RecordIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(recordIDContextKey).(string)
	return id, ok
}

// ContextWithLogger attaches a request-scoped logger to the context.
func ContextWithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return logging.ContextWithLogger(ctx, logger)
}

// LoggerFromContext extracts a request-scoped logger from the context.
func LoggerFromContext(ctx context.Context) *slog.Logger {
	return logging.FromContext(ctx)
}
