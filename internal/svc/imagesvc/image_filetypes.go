package imagesvc

import (
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"strings"

	"github.com/HugoSmits86/nativewebp"
	"golang.org/x/image/draw"
	"golang.org/x/image/webp"

	"github.com/mkrupp/chirp/internal/domain"
)

const (
	MIMETypeJPEG = "image/jpeg"
	MIMETypePNG  = "image/png"
	MIMETypeGIF  = "image/gif"
	MIMETypeWebP = "image/webp"
)

//nolint:gochecknoglobals
var (
	imageExtTypes = map[string]string{
		".jpg":  MIMETypeJPEG,
		".jpeg": MIMETypeJPEG,
		".png":  MIMETypePNG,
		".gif":  MIMETypeGIF,
		".webp": MIMETypeWebP,
	}

	imageDecoders = map[string]func(io.Reader) (image.Image, error){
		MIMETypeJPEG: jpeg.Decode,
		MIMETypePNG:  png.Decode,
		MIMETypeGIF:  gif.Decode,
		MIMETypeWebP: webp.Decode,
	}

	imageConfigDecoders = map[string]func(io.Reader) (image.Config, error){
		MIMETypeJPEG: jpeg.DecodeConfig,
		MIMETypePNG:  png.DecodeConfig,
		MIMETypeGIF:  gif.DecodeConfig,
		MIMETypeWebP: webp.DecodeConfig,
	}
)

type encoderFunc func(io.Writer, image.Image) error

// MIMETypeByExt returns the MIME type of a supported image extension.
// The lookup is case-insensitive and expects the leading dot.
func MIMETypeByExt(ext string) (string, error) {
	mimeType, ok := imageExtTypes[strings.ToLower(ext)]
	if !ok {
		return "", fmt.Errorf("%w: %q", domain.ErrUnsupportedFormat, ext)
	}

	return mimeType, nil
}

func getDecoderByType(mimeType string) (func(io.Reader) (image.Image, error), error) {
	decoder, ok := imageDecoders[mimeType]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedMIMEType, mimeType)
	}

	return decoder, nil
}

func getConfigDecoderByType(mimeType string) (func(io.Reader) (image.Config, error), error) {
	decoder, ok := imageConfigDecoders[mimeType]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedMIMEType, mimeType)
	}

	return decoder, nil
}

// getEncoderByType returns the encoder for a MIME type.
// WebP is written lossless (VP8L).
func getEncoderByType(mimeType string, cfg ImageConfig) (encoderFunc, error) {
	switch mimeType {
	case MIMETypeJPEG:
		return func(w io.Writer, i image.Image) error {
			return jpeg.Encode(w, i, &jpeg.Options{Quality: cfg.Quality})
		}, nil
	case MIMETypePNG:
		encoder := png.Encoder{CompressionLevel: png.BestCompression}

		return encoder.Encode, nil
	case MIMETypeGIF:
		return func(w io.Writer, i image.Image) error {
			return gif.Encode(w, i, &gif.Options{NumColors: 256, Drawer: draw.FloydSteinberg})
		}, nil
	case MIMETypeWebP:
		return func(w io.Writer, i image.Image) error {
			return nativewebp.Encode(w, i, &nativewebp.Options{UseExtendedFormat: cfg.WebPExtended})
		}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedMIMEType, mimeType)
	}
}
