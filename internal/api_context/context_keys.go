package api_context

import (
	"context"
)

type ctxKey string

const (
	CorrelationIDKey ctxKey = "correlationID"
)

// WithCorrelationID returns ctx carrying the given correlation id.
func WithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, CorrelationIDKey, id)
}

// CorrelationIDFromContext extracts the request correlation id, if any.
func CorrelationIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(CorrelationIDKey).(string)
	return id, ok
}
