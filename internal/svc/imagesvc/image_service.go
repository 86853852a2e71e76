package imagesvc

import (
	"context"
)

// Normalizer rewrites uploaded images into a bounded, opaque, re-encoded form.
type Normalizer interface {
	// Normalize decodes data according to the file extension ext, flattens
	// transparency onto white, downscales it to the configured maximum dimension
	// and re-encodes it in the same format.
	// Returns an error if the image cannot be decoded or encoded; callers keep
	// the original bytes in that case.
	Normalize(ctx context.Context, ext string, data []byte) ([]byte, error)
}
