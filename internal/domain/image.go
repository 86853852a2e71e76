package domain

import (
	"errors"
	"io"
	"time"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported image format")
	ErrUnknownCategory   = errors.New("unknown upload category")
	ErrImageNotFound     = errors.New("image not found")
	ErrImageTooLarge     = errors.New("image too large")
	ErrNoImage           = errors.New("no image")
)

// Category is a sub-namespace of the upload root.
type Category string

const (
	CategoryPosts   Category = "posts"
	CategoryAvatars Category = "avatars"
)

// Categories lists every known upload category.
func Categories() []Category {
	return []Category{CategoryPosts, CategoryAvatars}
}

// ParseCategory returns the category named s.
func ParseCategory(s string) (Category, error) {
	for _, c := range Categories() {
		if string(c) == s {
			return c, nil
		}
	}

	return "", ErrUnknownCategory
}

// String returns the directory name of the category.
func (c Category) String() string {
	return string(c)
}

// StoredImage is an uploaded image file on disk.
type StoredImage struct {
	Category Category
	Filename string // Name relative to the category directory
	Size     int64  // Bytes on disk after normalization
}

// StoreResult is the outcome of a successful upload.
// NormalizeErr is set when the image was stored but could not be normalized;
// the file then holds the raw upload.
type StoreResult struct {
	Image        StoredImage
	NormalizeErr error
}

// Degraded reports whether the raw upload was kept because normalization failed.
func (r StoreResult) Degraded() bool {
	return r.NormalizeErr != nil
}

// UploadFile is an incoming file as received from a client.
type UploadFile struct {
	Filename string
	Data     []byte
}

// Upload is an opened stored image ready to be streamed.
type Upload struct {
	io.ReadSeekCloser

	Filename string
	MIMEType string
	Size     int64
	ModTime  time.Time
}
