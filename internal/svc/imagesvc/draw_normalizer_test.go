package imagesvc_test

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/gif"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/HugoSmits86/nativewebp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/webp"

	"github.com/mkrupp/chirp/internal/domain"
	"github.com/mkrupp/chirp/internal/svc/imagesvc"
)

func newTestNormalizer(t *testing.T) *imagesvc.DrawNormalizer {
	t.Helper()

	normalizer, err := imagesvc.NewDrawNormalizer(imagesvc.ImageConfig{
		Interpolator: "catmullrom",
		MaxDimension: 1200,
		Quality:      85,
	})
	require.NoError(t, err)

	return normalizer
}

func transparentPNG(t *testing.T, w, h int) []byte {
	t.Helper()

	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for x := range w / 2 {
		img.Set(x, 0, color.NRGBA{R: 255, A: 255})
	}

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))

	return buf.Bytes()
}

func TestNewDrawNormalizer_UnknownInterpolator(t *testing.T) {
	t.Parallel()

	_, err := imagesvc.NewDrawNormalizer(imagesvc.ImageConfig{Interpolator: "sinc"})
	require.ErrorIs(t, err, imagesvc.ErrUnknownInterpolator)
}

func TestDrawNormalizer_Normalize(t *testing.T) {
	t.Parallel()

	normalizer := newTestNormalizer(t)
	ctx := context.Background()

	t.Run("downscales wide png and flattens alpha", func(t *testing.T) {
		out, err := normalizer.Normalize(ctx, ".png", transparentPNG(t, 2400, 600))
		require.NoError(t, err)

		img, err := png.Decode(bytes.NewReader(out))
		require.NoError(t, err)
		assert.Equal(t, 1200, img.Bounds().Dx())
		assert.Equal(t, 300, img.Bounds().Dy())

		r, g, b, a := img.At(img.Bounds().Dx()-1, img.Bounds().Dy()-1).RGBA()
		assert.InDelta(t, 0xffff, a, 0x100, "transparent pixels become opaque")
		assert.InDelta(t, 0xffff, r, 0x100, "background is white")
		assert.InDelta(t, 0xffff, g, 0x100, "background is white")
		assert.InDelta(t, 0xffff, b, 0x100, "background is white")
	})

	t.Run("downscales tall images by height", func(t *testing.T) {
		out, err := normalizer.Normalize(ctx, ".PNG", transparentPNG(t, 300, 2400))
		require.NoError(t, err)

		img, err := png.Decode(bytes.NewReader(out))
		require.NoError(t, err)
		assert.Equal(t, 150, img.Bounds().Dx())
		assert.Equal(t, 1200, img.Bounds().Dy())
	})

	t.Run("keeps small jpeg dimensions", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, jpeg.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 640, 480)), nil))

		out, err := normalizer.Normalize(ctx, ".jpg", buf.Bytes())
		require.NoError(t, err)

		cfg, err := jpeg.DecodeConfig(bytes.NewReader(out))
		require.NoError(t, err)
		assert.Equal(t, 640, cfg.Width)
		assert.Equal(t, 480, cfg.Height)
	})

	t.Run("re-encodes gif", func(t *testing.T) {
		palette := color.Palette{color.Transparent, color.Black}
		src := image.NewPaletted(image.Rect(0, 0, 10, 10), palette)
		src.SetColorIndex(1, 1, 1)

		var buf bytes.Buffer
		require.NoError(t, gif.Encode(&buf, src, nil))

		out, err := normalizer.Normalize(ctx, ".gif", buf.Bytes())
		require.NoError(t, err)

		img, err := gif.Decode(bytes.NewReader(out))
		require.NoError(t, err)
		assert.Equal(t, 10, img.Bounds().Dx())
	})

	t.Run("downscales webp", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, nativewebp.Encode(&buf, image.NewNRGBA(image.Rect(0, 0, 2400, 600)), nil))

		out, err := normalizer.Normalize(ctx, ".webp", buf.Bytes())
		require.NoError(t, err)

		img, err := webp.Decode(bytes.NewReader(out))
		require.NoError(t, err)
		assert.Equal(t, 1200, img.Bounds().Dx())
		assert.Equal(t, 300, img.Bounds().Dy())

		_, _, _, a := img.At(0, 0).RGBA()
		assert.InDelta(t, 0xffff, a, 0x100, "transparent pixels become opaque")
	})

	t.Run("fails on undecodable content", func(t *testing.T) {
		_, err := normalizer.Normalize(ctx, ".png", []byte("not an image"))
		require.Error(t, err)
	})

	t.Run("fails on unsupported extension", func(t *testing.T) {
		_, err := normalizer.Normalize(ctx, ".bmp", []byte("BM"))
		require.ErrorIs(t, err, domain.ErrUnsupportedFormat)
	})
}

func TestDrawNormalizer_MaxPixels(t *testing.T) {
	t.Parallel()

	normalizer, err := imagesvc.NewDrawNormalizer(imagesvc.ImageConfig{
		Interpolator: "bilinear",
		MaxDimension: 64,
		Quality:      85,
		MaxPixels:    100 * 100,
	})
	require.NoError(t, err)

	encodePNG := func(t *testing.T, w, h int) []byte {
		t.Helper()

		var buf bytes.Buffer
		require.NoError(t, png.Encode(&buf, image.NewGray(image.Rect(0, 0, w, h))))

		return buf.Bytes()
	}

	encodeWebP := func(t *testing.T, w, h int) []byte {
		t.Helper()

		var buf bytes.Buffer
		require.NoError(t, nativewebp.Encode(&buf, image.NewNRGBA(image.Rect(0, 0, w, h)), nil))

		return buf.Bytes()
	}

	tests := []struct {
		name    string
		ext     string
		data    func(t *testing.T) []byte
		wantErr bool
	}{
		{name: "png at the limit", ext: ".png", data: func(t *testing.T) []byte { return encodePNG(t, 100, 100) }},
		{name: "png over the limit", ext: ".png", data: func(t *testing.T) []byte { return encodePNG(t, 101, 100) }, wantErr: true},
		{name: "webp over the limit", ext: ".webp", data: func(t *testing.T) []byte { return encodeWebP(t, 1, 10001) }, wantErr: true},
		{name: "webp within the limit", ext: ".webp", data: func(t *testing.T) []byte { return encodeWebP(t, 50, 50) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := normalizer.Normalize(context.Background(), tt.ext, tt.data(t))
			if tt.wantErr {
				require.ErrorIs(t, err, imagesvc.ErrTooManyPixels)

				return
			}

			require.NoError(t, err)
		})
	}
}

func TestMIMETypeByExt(t *testing.T) {
	t.Parallel()

	tests := []struct {
		ext     string
		want    string
		wantErr bool
	}{
		{ext: ".png", want: imagesvc.MIMETypePNG},
		{ext: ".JPG", want: imagesvc.MIMETypeJPEG},
		{ext: ".jpeg", want: imagesvc.MIMETypeJPEG},
		{ext: ".gif", want: imagesvc.MIMETypeGIF},
		{ext: ".WebP", want: imagesvc.MIMETypeWebP},
		{ext: ".exe", wantErr: true},
		{ext: ".bmp", wantErr: true},
		{ext: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.ext, func(t *testing.T) {
			t.Parallel()

			got, err := imagesvc.MIMETypeByExt(tt.ext)
			if tt.wantErr {
				require.ErrorIs(t, err, domain.ErrUnsupportedFormat)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
