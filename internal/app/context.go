package app

import (
	"context"
	"strings"
)

type correlationIDKey struct{}

// WithCorrelationID attaches a request correlation id used in service logs.
func WithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, correlationIDKey{}, strings.TrimSpace(id))
}

func CorrelationID(ctx context.Context) string {
	if ctx == nil {
		return "n/a"
	}
	if id, ok := ctx.Value(correlationIDKey{}).(string); ok && id != "" {
		return id
	}
	return "n/a"
}
