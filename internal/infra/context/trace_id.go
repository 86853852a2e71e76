package context

import (
	"context"
)

const contextKeyTraceID = contextKey("traceID")

// MaxTraceIDLength bounds client supplied trace IDs.
const MaxTraceIDLength = 128

// TraceIDFromContext extracts the trace ID from the context.
// Returns the trace ID and true if present, or empty string and false if not present.
func TraceIDFromContext(ctx context.Context) (string, bool) {
	traceID, ok := ctx.Value(contextKeyTraceID).(string)

	return traceID, ok && traceID != ""
}

// WithTraceID returns a context carrying the given trace ID.
func WithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, contextKeyTraceID, traceID)
}

// ValidTraceID reports whether a client supplied trace ID may be adopted.
// Only non-empty, bounded IDs of visible ASCII characters are accepted so that
// an ID can neither forge log lines nor bloat every record of a request.
func ValidTraceID(traceID string) bool {
	if traceID == "" || len(traceID) > MaxTraceIDLength {
		return false
	}

	for i := range len(traceID) {
		if c := traceID[i]; c <= ' ' || c > '~' {
			return false
		}
	}

	return true
}
