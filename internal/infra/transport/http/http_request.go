package http

import (
	"errors"
	"fmt"
	"net/http"
)

// multipartMemory is the part of a multipart body kept in memory; the rest spills to disk.
const multipartMemory = 8 << 20

// ParseForm parses url-encoded and multipart request bodies.
// A body over the size limit yields an error for which IsRequestTooLarge is true.
func ParseForm(r *http.Request) error {
	err := r.ParseMultipartForm(multipartMemory)
	if errors.Is(err, http.ErrNotMultipart) {
		err = r.ParseForm()
	}

	if err != nil {
		return fmt.Errorf("parse form: %w", err)
	}

	return nil
}
