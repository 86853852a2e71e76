package http

import (
	"context"
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/mkrupp/chirp/internal/infra/logging"
)

// RescueingMiddleware creates middleware that recovers from panics in HTTP handlers.
// The panic is logged with its stack and the request (redacted, with the
// signed-in user), and the client gets a generic 500 JSON error.
func RescueingMiddleware(next http.Handler, log logging.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func(ctx context.Context) {
			if p := recover(); p != nil {
				if p == http.ErrAbortHandler {
					panic(p)
				}

				log.ErrorContext(ctx, "request panic",
					slog.Group("http", requestAttrs(r)...),
					slog.Group("error",
						"panic", p,
						"stack", string(debug.Stack()),
					),
				)
				_ = WriteError(w, http.StatusInternalServerError, "Something went wrong.")
			}
		}(r.Context())
		next.ServeHTTP(w, r)
	})
}
