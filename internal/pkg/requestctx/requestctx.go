// Package requestctx carries per-request values through context.Context.
package requestctx

import "context"

type traceIDKey struct{}

// WithTraceID returns a copy of ctx carrying the request's trace id.
func WithTraceID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, traceIDKey{}, id)
}

// TraceID returns the trace id stored in ctx, or "" if none was set.
func TraceID(ctx context.Context) string {
	id, _ := ctx.Value(traceIDKey{}).(string)
	return id
}
