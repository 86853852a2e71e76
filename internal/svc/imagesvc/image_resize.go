package imagesvc

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"io"
	"strings"

	"golang.org/x/image/draw"
)

var (
	// ErrUnknownInterpolator is returned when an unsupported interpolation method is specified.
	ErrUnknownInterpolator = errors.New("unknown interpolator")

	// ErrUnsupportedMIMEType is returned when trying to process an unsupported image format.
	ErrUnsupportedMIMEType = errors.New("unsupported MIME type")

	// ErrTooManyPixels is returned when an image exceeds the configured pixel limit.
	ErrTooManyPixels = errors.New("image has too many pixels")
)

//nolint:gochecknoglobals
var (
	// interpolMap maps interpolator names to their implementations.
	// Supported values: "nearestneighbor", "catmullrom", "bilinear", "approxbilinear".
	interpolMap = map[string]draw.Interpolator{
		"nearestneighbor": draw.NearestNeighbor,
		"catmullrom":      draw.CatmullRom,
		"bilinear":        draw.BiLinear,
		"approxbilinear":  draw.ApproxBiLinear,
	}
)

func getInterpolatorByName(name string) (draw.Interpolator, error) {
	interpol, ok := interpolMap[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownInterpolator, name)
	}

	return interpol, nil
}

// fitWithin returns the size of a w x h rectangle scaled down so that neither
// side exceeds maxDim. Sizes already within bounds are returned unchanged.
func fitWithin(w, h, maxDim int) (int, int) {
	if maxDim <= 0 || (w <= maxDim && h <= maxDim) {
		return w, h
	}

	ratio := min(float64(maxDim)/float64(w), float64(maxDim)/float64(h))

	return max(1, int(float64(w)*ratio)), max(1, int(float64(h)*ratio))
}

// flatten draws src over an opaque white canvas.
func flatten(src image.Image) *image.RGBA {
	bounds := src.Bounds()
	canvas := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))

	draw.Draw(canvas, canvas.Bounds(), image.White, image.Point{}, draw.Src)
	draw.Draw(canvas, canvas.Bounds(), src, bounds.Min, draw.Over)

	return canvas
}

// resizeImage scales bitmap so that it fits within maxDim while maintaining aspect ratio.
func resizeImage(bitmap *image.RGBA, maxDim int, interpol draw.Interpolator) *image.RGBA {
	width, height := fitWithin(bitmap.Bounds().Dx(), bitmap.Bounds().Dy(), maxDim)
	if width == bitmap.Bounds().Dx() && height == bitmap.Bounds().Dy() {
		return bitmap
	}

	resized := image.NewRGBA(image.Rect(0, 0, width, height))
	interpol.Scale(resized, resized.Bounds(), bitmap, bitmap.Bounds(), draw.Src, nil)

	return resized
}

// checkPixels reads the image header and fails with ErrTooManyPixels if the
// image is larger than maxPixels. A non-positive maxPixels disables the check.
func checkPixels(data []byte, mimeType string, maxPixels int64) error {
	if maxPixels <= 0 {
		return nil
	}

	decodeConfig, err := getConfigDecoderByType(mimeType)
	if err != nil {
		return err
	}

	cfg, err := decodeConfig(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("decode %s header: %w", mimeType, err)
	}

	if pixels := int64(cfg.Width) * int64(cfg.Height); pixels > maxPixels {
		return fmt.Errorf("%w: %dx%d exceeds %d", ErrTooManyPixels, cfg.Width, cfg.Height, maxPixels)
	}

	return nil
}

// decodeImage decodes a binary image into a Go image.Image object.
func decodeImage(reader io.Reader, mimeType string) (image.Image, error) {
	decoder, err := getDecoderByType(mimeType)
	if err != nil {
		return nil, err
	}

	img, err := decoder(reader)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", mimeType, err)
	}

	return img, nil
}

// encodeImage encodes a Go image.Image object into binary format.
func encodeImage(bitmap image.Image, encoder encoderFunc) ([]byte, error) {
	var buffer bytes.Buffer

	if err := encoder(&buffer, bitmap); err != nil {
		return nil, fmt.Errorf("encode: %w", err)
	}

	return buffer.Bytes(), nil
}
