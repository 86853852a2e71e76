package mediasvc

import (
	"context"

	"github.com/mkrupp/chirp/internal/domain"
)

// MediaService defines the interface for ingesting and serving uploaded images.
type MediaService interface {
	// Validate checks whether filename carries a supported image extension.
	// Returns domain.ErrUnsupportedFormat otherwise.
	Validate(filename string) error

	// Store validates, names and writes an upload to the given category, then
	// normalizes it in place. A failed normalization keeps the raw upload and is
	// reported through StoreResult.NormalizeErr instead of an error.
	Store(ctx context.Context, category domain.Category, filename string, data []byte) (domain.StoreResult, error)

	// ReplaceAvatar stores a new avatar for the user and deletes the previous one.
	// The previous avatar is left untouched when storing the new one fails.
	ReplaceAvatar(ctx context.Context, userID domain.UserID, filename string, data []byte) (domain.StoreResult, error)

	// Open opens a stored image for streaming.
	// Returns domain.ErrImageNotFound if it does not exist.
	Open(ctx context.Context, category domain.Category, filename string) (domain.Upload, error)

	// MaxSize returns the maximum allowed file size for uploaded images in bytes.
	MaxSize() int64
}
