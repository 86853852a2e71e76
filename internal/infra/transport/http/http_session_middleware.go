package http

import (
	"context"
	"net/http"
	"time"

	"github.com/mkrupp/chirp/internal/domain"
	context_ "github.com/mkrupp/chirp/internal/infra/context"
	"github.com/mkrupp/chirp/internal/infra/logging"
)

// SessionCookieName is the cookie holding the signed session token.
const SessionCookieName = "session"

// SessionValidator resolves a session token into the session it carries.
type SessionValidator interface {
	ValidateSession(ctx context.Context, token string) (domain.Session, error)
}

// SessionMiddleware creates middleware that resolves the session cookie.
// On success the session is added to the request context. Invalid or expired
// cookies are cleared and the request continues anonymously.
func SessionMiddleware(next http.Handler, sessions SessionValidator, log logging.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(SessionCookieName)
		if err != nil || cookie.Value == "" {
			next.ServeHTTP(w, r)

			return
		}

		session, err := sessions.ValidateSession(r.Context(), cookie.Value)
		if err != nil {
			log.DebugContext(r.Context(), "session rejected", "error", err)
			ClearSessionCookie(w)
			next.ServeHTTP(w, r)

			return
		}

		next.ServeHTTP(w, r.WithContext(context_.WithSession(r.Context(), session)))
	})
}

// RequireSession rejects anonymous requests with 401.
func RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := context_.SessionFromContext(r.Context()); !ok {
			_ = WriteError(w, http.StatusUnauthorized, "Please log in to access this page.")

			return
		}

		next.ServeHTTP(w, r)
	})
}

// RequireGuest redirects signed-in users to the feed.
func RequireGuest(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := context_.SessionFromContext(r.Context()); ok {
			http.Redirect(w, r, "/feed", http.StatusFound)

			return
		}

		next.ServeHTTP(w, r)
	})
}

// SetSessionCookie stores a session token in an HttpOnly cookie.
func SetSessionCookie(w http.ResponseWriter, token string, expires time.Time) {
	//nolint:exhaustruct
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    token,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearSessionCookie removes the session cookie from the client.
func ClearSessionCookie(w http.ResponseWriter) {
	//nolint:exhaustruct
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}
