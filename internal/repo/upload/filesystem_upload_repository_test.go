package upload_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkrupp/chirp/internal/domain"

	. "github.com/mkrupp/chirp/internal/repo/upload"
)

func setupFileSystemUploadTestRepo(t *testing.T) (*FileSystemRepository, string) {
	t.Helper()

	root := filepath.Join(t.TempDir(), "uploads")

	repo, err := NewFileSystemUploadRepository(context.Background(), FileSystemUploadRepositoryConfig{Root: root})
	require.NoError(t, err)

	return repo, root
}

func verifyFileContent(t *testing.T, path string, want []byte) {
	t.Helper()

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, want, content)
}

func TestFileSystemUploadRepository_InitCreatesCategories(t *testing.T) {
	t.Parallel()

	_, root := setupFileSystemUploadTestRepo(t)

	for _, category := range domain.Categories() {
		info, err := os.Stat(filepath.Join(root, category.String()))
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	}
}

func TestFileSystemUploadRepository_Create(t *testing.T) {
	t.Parallel()

	repo, root := setupFileSystemUploadTestRepo(t)
	ctx := context.Background()

	first, err := repo.Create(ctx, domain.CategoryPosts, "cat_1700000000", ".png", []byte("one"))
	require.NoError(t, err)
	assert.Equal(t, "cat_1700000000.png", first)

	second, err := repo.Create(ctx, domain.CategoryPosts, "cat_1700000000", ".png", []byte("two"))
	require.NoError(t, err)
	assert.Equal(t, "cat_1700000000_1.png", second)

	third, err := repo.Create(ctx, domain.CategoryPosts, "cat_1700000000", ".png", []byte("three"))
	require.NoError(t, err)
	assert.Equal(t, "cat_1700000000_2.png", third)

	verifyFileContent(t, filepath.Join(root, "posts", first), []byte("one"))
	verifyFileContent(t, filepath.Join(root, "posts", second), []byte("two"))
	verifyFileContent(t, filepath.Join(root, "posts", third), []byte("three"))

	_, err = repo.Create(ctx, domain.Category("secrets"), "x", ".png", []byte("x"))
	require.ErrorIs(t, err, domain.ErrUnknownCategory)
}

func TestFileSystemUploadRepository_Replace(t *testing.T) {
	t.Parallel()

	repo, root := setupFileSystemUploadTestRepo(t)
	ctx := context.Background()

	name, err := repo.Create(ctx, domain.CategoryAvatars, "me", ".jpg", []byte("original content"))
	require.NoError(t, err)

	require.NoError(t, repo.Replace(ctx, domain.CategoryAvatars, name, []byte("new")))
	verifyFileContent(t, filepath.Join(root, "avatars", name), []byte("new"))

	entries, err := os.ReadDir(filepath.Join(root, "avatars"))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temp files left behind")
}

func TestFileSystemUploadRepository_Open(t *testing.T) {
	t.Parallel()

	repo, _ := setupFileSystemUploadTestRepo(t)
	ctx := context.Background()

	name, err := repo.Create(ctx, domain.CategoryPosts, "pic", ".gif", []byte("GIF89a"))
	require.NoError(t, err)

	file, info, err := repo.Open(ctx, domain.CategoryPosts, name)
	require.NoError(t, err)
	t.Cleanup(func() { _ = file.Close() })
	assert.Equal(t, int64(6), info.Size())

	tests := []struct {
		name     string
		category domain.Category
		filename string
	}{
		{name: "missing file", category: domain.CategoryPosts, filename: "nope.png"},
		{name: "wrong category", category: domain.CategoryAvatars, filename: name},
		{name: "parent traversal", category: domain.CategoryPosts, filename: "../avatars/" + name},
		{name: "dot dot", category: domain.CategoryPosts, filename: ".."},
		{name: "empty", category: domain.CategoryPosts, filename: ""},
		{name: "unknown category", category: domain.Category("etc"), filename: "passwd"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := repo.Open(ctx, tt.category, tt.filename)
			assert.ErrorIs(t, err, domain.ErrImageNotFound)
		})
	}
}

func TestFileSystemUploadRepository_Delete(t *testing.T) {
	t.Parallel()

	repo, root := setupFileSystemUploadTestRepo(t)
	ctx := context.Background()

	name, err := repo.Create(ctx, domain.CategoryAvatars, "old", ".png", []byte("x"))
	require.NoError(t, err)

	require.NoError(t, repo.Delete(ctx, domain.CategoryAvatars, name))
	assert.NoFileExists(t, filepath.Join(root, "avatars", name))

	// deleting again is fine
	require.NoError(t, repo.Delete(ctx, domain.CategoryAvatars, name))
	require.Error(t, repo.Delete(ctx, domain.CategoryAvatars, "../escape"))
}
