package imagesvc

import (
	"bytes"
	"context"
	"fmt"

	"golang.org/x/image/draw"

	"github.com/mkrupp/chirp/internal/infra/logging"
)

// DrawNormalizer implements Normalizer with the scalers of golang.org/x/image/draw.
type DrawNormalizer struct {
	cfg      ImageConfig
	interpol draw.Interpolator
	log      logging.Logger
}

var _ Normalizer = (*DrawNormalizer)(nil)

// NewDrawNormalizer creates a normalizer for the given configuration.
// Returns ErrUnknownInterpolator if cfg names an unsupported interpolator.
func NewDrawNormalizer(cfg ImageConfig) (*DrawNormalizer, error) {
	interpol, err := getInterpolatorByName(cfg.Interpolator)
	if err != nil {
		return nil, err
	}

	return &DrawNormalizer{
		cfg:      cfg,
		interpol: interpol,
		log:      logging.GetLogger("svc.imagesvc.draw_normalizer"),
	}, nil
}

// Normalize implements Normalizer.Normalize.
func (n *DrawNormalizer) Normalize(ctx context.Context, ext string, data []byte) (normalized []byte, err error) {
	log := n.log.With(logging.Group("image", "ext", ext, "size", len(data)))

	defer func() {
		if err != nil {
			log.DebugContext(ctx, "normalize failed", "error", err)
		} else {
			log.DebugContext(ctx, "image normalized", "normalized_size", len(normalized))
		}
	}()

	mimeType, err := MIMETypeByExt(ext)
	if err != nil {
		return nil, err
	}

	encoder, err := getEncoderByType(mimeType, n.cfg)
	if err != nil {
		return nil, err
	}

	if err := checkPixels(data, mimeType, n.cfg.MaxPixels); err != nil {
		return nil, err
	}

	original, err := decodeImage(bytes.NewReader(data), mimeType)
	if err != nil {
		return nil, err
	}

	bitmap := resizeImage(flatten(original), n.cfg.MaxDimension, n.interpol)

	normalized, err = encodeImage(bitmap, encoder)
	if err != nil {
		return nil, fmt.Errorf("encode image: %w", err)
	}

	return normalized, nil
}
