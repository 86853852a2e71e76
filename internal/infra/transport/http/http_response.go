package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error string `json:"error"`
}

// MessageResponse is the body of requests that only report an outcome.
type MessageResponse struct {
	Message string `json:"message"`
}

// WriteJSON writes v as JSON with the given status code.
func WriteJSON(w http.ResponseWriter, status int, v any) error {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		return fmt.Errorf("encode response: %w", err)
	}

	return nil
}

// WriteError writes a user facing notice as a JSON error body.
func WriteError(w http.ResponseWriter, status int, notice string) error {
	return WriteJSON(w, status, ErrorResponse{Error: notice})
}

// IsRequestTooLarge reports whether err was caused by a request body exceeding the size limit.
func IsRequestTooLarge(err error) bool {
	var maxBytesErr *http.MaxBytesError

	return errors.As(err, &maxBytesErr)
}
