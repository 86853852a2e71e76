package upload

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/mkrupp/chirp/internal/domain"
	"github.com/mkrupp/chirp/internal/infra/logging"
)

var (
	ErrBytesWrittenMismatch = errors.New("bytes written mismatch")
	ErrInvalidName          = errors.New("invalid file name")
	ErrTooManyCollisions    = errors.New("too many file name collisions")
)

const maxCollisions = 1000

// FileSystemUploadRepositoryConfig holds configuration for the filesystem-based upload repository.
type FileSystemUploadRepositoryConfig struct {
	// Root is the directory holding one subdirectory per category
	Root string `env:"ROOT" default:"uploads"`
}

// FileSystemRepository implements Repository using the local filesystem.
// Files live in <root>/<category>/<name>.
type FileSystemRepository struct {
	cfg FileSystemUploadRepositoryConfig
	log logging.Logger
}

var _ Repository = (*FileSystemRepository)(nil)

// NewFileSystemUploadRepository creates the repository and the directory of every category.
func NewFileSystemUploadRepository(
	ctx context.Context,
	cfg FileSystemUploadRepositoryConfig,
) (*FileSystemRepository, error) {
	repo := &FileSystemRepository{
		cfg: cfg,
		log: logging.GetLogger("repo.upload.filesystem_repository").With(
			logging.Group("repo", "root", cfg.Root),
		),
	}

	if err := repo.initStorage(ctx); err != nil {
		return nil, fmt.Errorf("init repo: %w", err)
	}

	return repo, nil
}

func (fsRepo *FileSystemRepository) initStorage(ctx context.Context) (err error) {
	defer func() {
		if err != nil {
			fsRepo.log.ErrorContext(ctx, "init storage failed", "error", err)
		} else {
			fsRepo.log.DebugContext(ctx, "init storage")
		}
	}()

	for _, category := range domain.Categories() {
		if err := os.MkdirAll(filepath.Join(fsRepo.cfg.Root, category.String()), 0o755); err != nil {
			return fmt.Errorf("mkdir all: %w", err)
		}
	}

	return nil
}

// GetFilename returns the full filesystem path of a stored file.
func (fsRepo *FileSystemRepository) GetFilename(category domain.Category, name string) (string, error) {
	if _, err := domain.ParseCategory(category.String()); err != nil {
		return "", err
	}

	if !isPlainName(name) {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, name)
	}

	return filepath.Join(fsRepo.cfg.Root, category.String(), name), nil
}

func isPlainName(name string) bool {
	return name != "" &&
		name != "." &&
		name != ".." &&
		!strings.ContainsAny(name, `/\`) &&
		!strings.ContainsRune(name, 0)
}

// Create implements Repository.Create.
func (fsRepo *FileSystemRepository) Create(
	ctx context.Context,
	category domain.Category,
	base string,
	ext string,
	data []byte,
) (name string, err error) {
	defer func() {
		log := fsRepo.log.With(logging.Group("file", "category", category, "name", name))
		if err != nil {
			log.ErrorContext(ctx, "file create failed", "error", err)
		} else {
			log.DebugContext(ctx, "file created", "size", len(data))
		}
	}()

	for n := 0; n < maxCollisions; n++ {
		name = base + ext
		if n > 0 {
			name = base + "_" + strconv.Itoa(n) + ext
		}

		filename, err := fsRepo.GetFilename(category, name)
		if err != nil {
			return "", err
		}

		file, err := os.OpenFile(filename, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if errors.Is(err, fs.ErrExist) {
			continue
		} else if err != nil {
			return "", fmt.Errorf("open: %w", err)
		}

		if err := writeFile(file, data); err != nil {
			_ = os.Remove(filename)

			return "", err
		}

		return name, nil
	}

	return "", fmt.Errorf("%w: %s%s", ErrTooManyCollisions, base, ext)
}

// Replace implements Repository.Replace.
// The new content is written to a temporary file first and renamed over the old one.
func (fsRepo *FileSystemRepository) Replace(
	ctx context.Context,
	category domain.Category,
	name string,
	data []byte,
) (err error) {
	defer func() {
		log := fsRepo.log.With(logging.Group("file", "category", category, "name", name))
		if err != nil {
			log.ErrorContext(ctx, "file replace failed", "error", err)
		} else {
			log.DebugContext(ctx, "file replaced", "size", len(data))
		}
	}()

	filename, err := fsRepo.GetFilename(category, name)
	if err != nil {
		return err
	}

	file, err := os.CreateTemp(filepath.Dir(filename), "."+name+".*")
	if err != nil {
		return fmt.Errorf("create temp: %w", err)
	}

	if err := writeFile(file, data); err != nil {
		_ = os.Remove(file.Name())

		return err
	}

	if err := os.Chmod(file.Name(), 0o644); err != nil {
		_ = os.Remove(file.Name())

		return fmt.Errorf("chmod: %w", err)
	}

	if err := os.Rename(file.Name(), filename); err != nil {
		_ = os.Remove(file.Name())

		return fmt.Errorf("rename: %w", err)
	}

	return nil
}

func writeFile(file *os.File, data []byte) error {
	defer file.Close()

	if n, err := file.Write(data); err != nil {
		return fmt.Errorf("write: %w", err)
	} else if err := file.Sync(); err != nil {
		return fmt.Errorf("sync: %w", err)
	} else if info, err := file.Stat(); err != nil {
		return fmt.Errorf("stat: %w", err)
	} else if int64(n) != info.Size() || n != len(data) {
		return fmt.Errorf("%w: expected %d, got %d", ErrBytesWrittenMismatch, len(data), n)
	}

	return nil
}

// Open implements Repository.Open.
func (fsRepo *FileSystemRepository) Open(
	ctx context.Context,
	category domain.Category,
	name string,
) (_ *os.File, _ os.FileInfo, err error) {
	defer func() {
		log := fsRepo.log.With(logging.Group("file", "category", category, "name", name))
		if err != nil {
			log.DebugContext(ctx, "file open failed", "error", err)
		} else {
			log.DebugContext(ctx, "file opened")
		}
	}()

	filename, err := fsRepo.GetFilename(category, name)
	if err != nil {
		return nil, nil, errors.Join(domain.ErrImageNotFound, err)
	}

	file, err := os.Open(filename)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			err = errors.Join(domain.ErrImageNotFound, err)
		}

		return nil, nil, fmt.Errorf("open: %w", err)
	}

	info, err := file.Stat()
	if err != nil {
		_ = file.Close()

		return nil, nil, fmt.Errorf("stat: %w", err)
	}

	if !info.Mode().IsRegular() {
		_ = file.Close()

		return nil, nil, fmt.Errorf("%w: not a regular file", domain.ErrImageNotFound)
	}

	return file, info, nil
}

// Delete implements Repository.Delete.
func (fsRepo *FileSystemRepository) Delete(ctx context.Context, category domain.Category, name string) (err error) {
	defer func() {
		log := fsRepo.log.With(logging.Group("file", "category", category, "name", name))
		if err != nil {
			log.ErrorContext(ctx, "file delete failed", "error", err)
		} else {
			log.DebugContext(ctx, "file deleted")
		}
	}()

	filename, err := fsRepo.GetFilename(category, name)
	if err != nil {
		return err
	}

	if err := os.Remove(filename); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove: %w", err)
	}

	return nil
}
