package upload

import (
	"context"
	"os"

	"github.com/mkrupp/chirp/internal/domain"
)

// Repository defines the interface for storing uploaded files by category.
type Repository interface {
	// Create writes data to a new file named <base><ext> in the category directory.
	// An existing file is never overwritten: on collision a counter suffix is
	// appended (<base>_1<ext>, <base>_2<ext>, ...). Returns the name actually used.
	Create(ctx context.Context, category domain.Category, base, ext string, data []byte) (string, error)

	// Replace atomically overwrites the content of an existing file.
	Replace(ctx context.Context, category domain.Category, name string, data []byte) error

	// Open opens a stored file for reading.
	// Returns domain.ErrImageNotFound if the file does not exist or the name is not a plain file name.
	Open(ctx context.Context, category domain.Category, name string) (*os.File, os.FileInfo, error)

	// Delete removes a stored file. A missing file is not an error.
	Delete(ctx context.Context, category domain.Category, name string) error
}
