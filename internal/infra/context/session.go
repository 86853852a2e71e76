package context

import (
	"context"

	"github.com/mkrupp/chirp/internal/domain"
)

const contextKeySession = contextKey("session")

// SessionFromContext extracts the authenticated session from the context.
// Returns false for anonymous requests.
func SessionFromContext(ctx context.Context) (domain.Session, bool) {
	session, ok := ctx.Value(contextKeySession).(domain.Session)

	return session, ok
}

// WithSession returns a context carrying the authenticated session of a request.
func WithSession(ctx context.Context, session domain.Session) context.Context {
	return context.WithValue(ctx, contextKeySession, session)
}
