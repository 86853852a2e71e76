package http

import (
	"net/http"

	"github.com/mkrupp/chirp/internal/infra/logging"
)

// LimitingMiddleware creates middleware that caps the size of request bodies.
// Requests announcing a larger Content-Length are rejected with 413 right away;
// others fail with *http.MaxBytesError once they read past the limit.
func LimitingMiddleware(next http.Handler, maxBytes int64, log logging.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if maxBytes <= 0 {
			next.ServeHTTP(w, r)

			return
		}

		if r.ContentLength > maxBytes {
			log.WarnContext(r.Context(), "request too large",
				"content_length", r.ContentLength,
				"max_bytes", maxBytes,
			)
			_ = WriteError(w, http.StatusRequestEntityTooLarge, "File too large.")

			return
		}

		r.Body = http.MaxBytesReader(w, r.Body, maxBytes)

		next.ServeHTTP(w, r)
	})
}
