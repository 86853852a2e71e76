package http

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	context_ "github.com/mkrupp/chirp/internal/infra/context"
	"github.com/mkrupp/chirp/internal/infra/logging"
)

// redactedSegment replaces secrets found in request paths.
const redactedSegment = "REDACTED"

// secretPathPrefixes lists routes whose next path segment is a credential.
//
//nolint:gochecknoglobals
var secretPathPrefixes = []string{"/reset_password/"}

// RedactURI returns the request path and query with credentials in the path
// replaced, so reset links never reach the logs.
func RedactURI(r *http.Request) string {
	uri := r.URL.RequestURI()

	for _, prefix := range secretPathPrefixes {
		rest, ok := strings.CutPrefix(r.URL.Path, prefix)
		if !ok || rest == "" {
			continue
		}

		redacted := prefix + redactedSegment
		if i := strings.IndexByte(rest, '/'); i >= 0 {
			redacted += rest[i:]
		}

		if r.URL.RawQuery != "" {
			redacted += "?" + r.URL.RawQuery
		}

		return redacted
	}

	return uri
}

// LoggingMiddlewareResponseWriter wraps http.ResponseWriter to capture response metrics.
type LoggingMiddlewareResponseWriter struct {
	http.ResponseWriter
	StatusCode int
	BytesSent  int
}

func (w *LoggingMiddlewareResponseWriter) WriteHeader(code int) {
	w.ResponseWriter.WriteHeader(code)
	w.StatusCode = code
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (w *LoggingMiddlewareResponseWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}

func (w *LoggingMiddlewareResponseWriter) Write(b []byte) (int, error) {
	w.BytesSent += len(b)

	n, err := w.ResponseWriter.Write(b)
	if err != nil {
		return n, fmt.Errorf("write: %w", err)
	}

	return n, nil
}

// requestAttrs describes a request for the access log: the redacted URI and
// the signed-in user, if any.
func requestAttrs(r *http.Request) []any {
	attrs := []any{
		"uri", RedactURI(r),
		"method", r.Method,
	}

	if session, ok := context_.SessionFromContext(r.Context()); ok {
		attrs = append(attrs, "username", session.Username)
	}

	return attrs
}

// LoggingMiddleware creates middleware that logs HTTP request and response details.
// Requests are logged at DEBUG; responses at ERROR for 5xx, WARN for 4xx and
// INFO otherwise.
func LoggingMiddleware(next http.Handler, log logging.Logger) http.Handler {
	//nolint:varnamelen
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attrs := requestAttrs(r)

		log.DebugContext(r.Context(), "request", slog.Group("http", attrs...))

		mw := &LoggingMiddlewareResponseWriter{
			ResponseWriter: w,
			StatusCode:     http.StatusOK,
			BytesSent:      0,
		}

		next.ServeHTTP(mw, r)

		var level logging.Level

		switch {
		case mw.StatusCode >= http.StatusInternalServerError:
			level = logging.LevelError
		case mw.StatusCode >= http.StatusBadRequest:
			level = logging.LevelWarn
		default:
			level = logging.LevelInfo
		}

		log.Log(r.Context(), level, "response", slog.Group("http", append(attrs,
			"remote_addr", r.RemoteAddr,
			"status", mw.StatusCode,
			"bytes_sent", mw.BytesSent,
		)...))
	})
}
