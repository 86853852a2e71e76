package http

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/mkrupp/chirp/internal/infra/logging"
)

// HTTPTransportConfig contains configuration parameters for HTTP servers.
type HTTPTransportConfig struct {
	// Host is the interface to listen on
	Host string `env:"HOST" default:"0.0.0.0"`
	// Port is the TCP port to listen on
	Port int `env:"PORT" default:"5000"`

	ReadHeaderTimeout time.Duration `env:"HTTP_READ_HEADER_TIMEOUT" default:"5s"`
	ReadTimeout       time.Duration `env:"HTTP_READ_TIMEOUT" default:"30s"`
	WriteTimeout      time.Duration `env:"HTTP_WRITE_TIMEOUT" default:"30s"`
	ShutdownTimeout   time.Duration `env:"HTTP_SHUTDOWN_TIMEOUT" default:"5s"`

	// MaxRequestSize is the largest accepted request body in bytes
	MaxRequestSize int64 `env:"HTTP_MAX_REQUEST_SIZE" default:"16777216"` // 16MiB
}

// Addr returns the listen address.
func (cfg HTTPTransportConfig) Addr() string {
	return net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port))
}

// HTTPTransport is implemented by service transports that expose routes.
type HTTPTransport interface {
	// RegisterRoutes adds the routes of the transport to the router.
	RegisterRoutes(router *mux.Router)
}

// NewRouter creates a router serving the routes of all given transports.
func NewRouter(transports ...HTTPTransport) *mux.Router {
	router := mux.NewRouter()
	router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = WriteError(w, http.StatusNotFound, "Not found.")
	})
	router.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = WriteError(w, http.StatusMethodNotAllowed, "Method not allowed.")
	})

	for _, transport := range transports {
		transport.RegisterRoutes(router)
	}

	return router
}

// NewHandler wraps a handler with the standard middleware stack, outermost first:
// tracing, session lookup, logging, panic recovery and request size limiting.
// Sessions are resolved before logging so access log records carry the user.
func NewHandler(handler http.Handler, sessions SessionValidator, cfg HTTPTransportConfig) http.Handler {
	log := logging.GetLogger("infra.transport.http")

	handler = LimitingMiddleware(handler, cfg.MaxRequestSize, log)
	handler = RescueingMiddleware(handler, log)
	handler = LoggingMiddleware(handler, log)
	handler = SessionMiddleware(handler, sessions, log)
	handler = TracingMiddleware(handler)

	return handler
}

// ListenAndServe starts an HTTP server with the given handler and configuration.
// The server is shut down gracefully when ctx is cancelled.
// Returns an error if the server fails to start or encounters an error while running.
func ListenAndServe(ctx context.Context, handler http.Handler, cfg HTTPTransportConfig) (err error) {
	log := logging.GetLogger("infra.transport.http")

	//nolint:exhaustruct
	server := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           handler,
		ErrorLog:          logging.GetLogLogger(log, logging.LevelError),
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		ReadTimeout:       cfg.ReadTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}
	defer server.Close()

	sock, err := net.Listen("tcp", cfg.Addr())
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}

	log.InfoContext(ctx, "listening", "addr", sock.Addr().String())

	errCh := make(chan error, 1)

	go func() {
		errCh <- server.Serve(sock)
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}

		return nil
	case <-ctx.Done():
	}

	log.InfoContext(ctx, "shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cfg.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}

	return nil
}
