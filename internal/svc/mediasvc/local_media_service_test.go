package mediasvc_test

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/mkrupp/chirp/internal/domain"
	"github.com/mkrupp/chirp/internal/repo/upload"
	"github.com/mkrupp/chirp/internal/repo/user/usermock"
	"github.com/mkrupp/chirp/internal/svc/imagesvc"
	"github.com/mkrupp/chirp/internal/svc/mediasvc"
)

const fixedUnix = 1700000000

type testEnv struct {
	svc   *mediasvc.LocalMediaService
	users *usermock.Repository
	root  string
}

func setupMediaService(t *testing.T, maxSize int64) testEnv {
	t.Helper()

	root := filepath.Join(t.TempDir(), "uploads")

	uploads, err := upload.NewFileSystemUploadRepository(
		context.Background(),
		upload.FileSystemUploadRepositoryConfig{Root: root},
	)
	require.NoError(t, err)

	normalizer, err := imagesvc.NewDrawNormalizer(imagesvc.ImageConfig{
		Interpolator: "bilinear",
		MaxDimension: 64,
		Quality:      85,
		MaxPixels:    512 * 512,
	})
	require.NoError(t, err)

	users := new(usermock.Repository)
	t.Cleanup(func() { users.AssertExpectations(t) })

	svc := mediasvc.NewLocalMediaService(
		uploads,
		users,
		normalizer,
		mediasvc.MediaConfig{MaxSize: maxSize},
		mediasvc.WithClock(func() time.Time { return time.Unix(fixedUnix, 0) }),
	)

	return testEnv{svc: svc, users: users, root: root}
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, h))))

	return buf.Bytes()
}

func listDir(t *testing.T, dir string) []string {
	t.Helper()

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		names = append(names, entry.Name())
	}

	return names
}

func TestLocalMediaService_Validate(t *testing.T) {
	t.Parallel()

	env := setupMediaService(t, 1<<20)

	tests := []struct {
		filename string
		wantErr  bool
	}{
		{filename: "malware.exe", wantErr: true},
		{filename: "photo.bmp", wantErr: true},
		{filename: "no_extension", wantErr: true},
		{filename: "png", wantErr: true},
		{filename: "photo.PNG"},
		{filename: "photo.jpg"},
		{filename: "photo.JPEG"},
		{filename: "anim.gif"},
		{filename: "modern.webp"},
	}

	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			t.Parallel()

			err := env.svc.Validate(tt.filename)
			if tt.wantErr {
				assert.ErrorIs(t, err, domain.ErrUnsupportedFormat)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestLocalMediaService_Store(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("rejects unsupported formats", func(t *testing.T) {
		t.Parallel()

		env := setupMediaService(t, 1<<20)

		for _, filename := range []string{"malware.exe", "photo.bmp"} {
			_, err := env.svc.Store(ctx, domain.CategoryPosts, filename, []byte("data"))
			require.ErrorIs(t, err, domain.ErrUnsupportedFormat)
		}

		assert.Empty(t, listDir(t, filepath.Join(env.root, "posts")))
	})

	t.Run("keeps extension case and timestamps name", func(t *testing.T) {
		t.Parallel()

		env := setupMediaService(t, 1<<20)

		result, err := env.svc.Store(ctx, domain.CategoryPosts, "photo.PNG", pngBytes(t, 10, 10))
		require.NoError(t, err)
		assert.False(t, result.Degraded())
		assert.Equal(t, "photo_1700000000.PNG", result.Image.Filename)
		assert.Equal(t, domain.CategoryPosts, result.Image.Category)
		assert.FileExists(t, filepath.Join(env.root, "posts", "photo_1700000000.PNG"))
	})

	t.Run("same name in the same second gets distinct files", func(t *testing.T) {
		t.Parallel()

		env := setupMediaService(t, 1<<20)

		first, err := env.svc.Store(ctx, domain.CategoryPosts, "cat.png", pngBytes(t, 4, 4))
		require.NoError(t, err)

		second, err := env.svc.Store(ctx, domain.CategoryPosts, "cat.png", pngBytes(t, 8, 8))
		require.NoError(t, err)

		assert.NotEqual(t, first.Image.Filename, second.Image.Filename)
		assert.Len(t, listDir(t, filepath.Join(env.root, "posts")), 2)
	})

	t.Run("downscales large images", func(t *testing.T) {
		t.Parallel()

		env := setupMediaService(t, 1<<20)

		result, err := env.svc.Store(ctx, domain.CategoryPosts, "big.png", pngBytes(t, 256, 128))
		require.NoError(t, err)
		require.False(t, result.Degraded())

		file, err := os.Open(filepath.Join(env.root, "posts", result.Image.Filename))
		require.NoError(t, err)
		t.Cleanup(func() { _ = file.Close() })

		cfg, err := png.DecodeConfig(file)
		require.NoError(t, err)
		assert.Equal(t, 64, cfg.Width)
		assert.Equal(t, 32, cfg.Height)
	})

	t.Run("undecodable content is kept raw", func(t *testing.T) {
		t.Parallel()

		env := setupMediaService(t, 1<<20)
		raw := []byte("definitely not a png")

		result, err := env.svc.Store(ctx, domain.CategoryPosts, "broken.png", raw)
		require.NoError(t, err)
		assert.True(t, result.Degraded())
		assert.Equal(t, int64(len(raw)), result.Image.Size)

		content, err := os.ReadFile(filepath.Join(env.root, "posts", result.Image.Filename))
		require.NoError(t, err)
		assert.Equal(t, raw, content)
	})

	t.Run("images over the pixel limit are kept raw", func(t *testing.T) {
		t.Parallel()

		env := setupMediaService(t, 1<<20)
		raw := pngBytes(t, 600, 600)

		result, err := env.svc.Store(ctx, domain.CategoryPosts, "huge.png", raw)
		require.NoError(t, err)
		assert.True(t, result.Degraded())
		require.ErrorIs(t, result.NormalizeErr, imagesvc.ErrTooManyPixels)

		content, err := os.ReadFile(filepath.Join(env.root, "posts", result.Image.Filename))
		require.NoError(t, err)
		assert.Equal(t, raw, content)
	})

	t.Run("rejects oversized uploads", func(t *testing.T) {
		t.Parallel()

		env := setupMediaService(t, 16)

		_, err := env.svc.Store(ctx, domain.CategoryPosts, "big.png", make([]byte, 17))
		require.ErrorIs(t, err, domain.ErrImageTooLarge)
	})

	t.Run("rejects unknown categories", func(t *testing.T) {
		t.Parallel()

		env := setupMediaService(t, 1<<20)

		_, err := env.svc.Store(ctx, domain.Category("docs"), "a.png", pngBytes(t, 1, 1))
		require.ErrorIs(t, err, domain.ErrUnknownCategory)
	})
}

func TestLocalMediaService_ReplaceAvatar(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("replacing twice leaves one avatar", func(t *testing.T) {
		t.Parallel()

		env := setupMediaService(t, 1<<20)
		alice := &domain.User{ID: 1, Username: "alice"}

		env.users.On("GetUserByID", mock.Anything, alice.ID).Return(alice, nil).Once()
		env.users.On("UpdateAvatar", mock.Anything, alice.ID, "me_1700000000.png").Return(nil).Once()

		first, err := env.svc.ReplaceAvatar(ctx, alice.ID, "me.png", pngBytes(t, 4, 4))
		require.NoError(t, err)

		withAvatar := &domain.User{ID: 1, Username: "alice", Avatar: first.Image.Filename}
		env.users.On("GetUserByID", mock.Anything, alice.ID).Return(withAvatar, nil).Once()
		env.users.On("UpdateAvatar", mock.Anything, alice.ID, "me_1700000000_1.png").Return(nil).Once()

		second, err := env.svc.ReplaceAvatar(ctx, alice.ID, "me.png", pngBytes(t, 4, 4))
		require.NoError(t, err)

		assert.Equal(t, []string{second.Image.Filename}, listDir(t, filepath.Join(env.root, "avatars")))
	})

	t.Run("unsupported file keeps previous avatar", func(t *testing.T) {
		t.Parallel()

		env := setupMediaService(t, 1<<20)
		bob := &domain.User{ID: 2, Username: "bob", Avatar: "old.png"}

		env.users.On("GetUserByID", mock.Anything, bob.ID).Return(bob, nil).Once()

		_, err := env.svc.ReplaceAvatar(ctx, bob.ID, "virus.exe", []byte("MZ"))
		require.ErrorIs(t, err, domain.ErrUnsupportedFormat)
		env.users.AssertNotCalled(t, "UpdateAvatar", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("failed record update removes new file", func(t *testing.T) {
		t.Parallel()

		env := setupMediaService(t, 1<<20)
		carol := &domain.User{ID: 3, Username: "carol"}
		dbErr := errors.New("database is locked")

		env.users.On("GetUserByID", mock.Anything, carol.ID).Return(carol, nil).Once()
		env.users.On("UpdateAvatar", mock.Anything, carol.ID, mock.Anything).Return(dbErr).Once()

		_, err := env.svc.ReplaceAvatar(ctx, carol.ID, "me.png", pngBytes(t, 4, 4))
		require.ErrorIs(t, err, dbErr)
		assert.Empty(t, listDir(t, filepath.Join(env.root, "avatars")))
	})

	t.Run("unknown user", func(t *testing.T) {
		t.Parallel()

		env := setupMediaService(t, 1<<20)

		env.users.On("GetUserByID", mock.Anything, domain.UserID(99)).Return(nil, domain.ErrUserNotFound).Once()

		_, err := env.svc.ReplaceAvatar(ctx, 99, "me.png", pngBytes(t, 4, 4))
		require.ErrorIs(t, err, domain.ErrUserNotFound)
	})
}

func TestLocalMediaService_Open(t *testing.T) {
	t.Parallel()

	env := setupMediaService(t, 1<<20)
	ctx := context.Background()

	result, err := env.svc.Store(ctx, domain.CategoryPosts, "dog.png", pngBytes(t, 2, 2))
	require.NoError(t, err)

	opened, err := env.svc.Open(ctx, domain.CategoryPosts, result.Image.Filename)
	require.NoError(t, err)
	t.Cleanup(func() { _ = opened.Close() })

	assert.Equal(t, imagesvc.MIMETypePNG, opened.MIMEType)
	assert.Equal(t, result.Image.Size, opened.Size)

	content, err := io.ReadAll(opened)
	require.NoError(t, err)
	assert.Len(t, content, int(opened.Size))

	_, err = env.svc.Open(ctx, domain.CategoryPosts, "missing.png")
	require.ErrorIs(t, err, domain.ErrImageNotFound)

	_, err = env.svc.Open(ctx, domain.CategoryAvatars, "../posts/"+result.Image.Filename)
	require.ErrorIs(t, err, domain.ErrImageNotFound)
}
