package mediasvc

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strconv"
	"time"

	"github.com/mkrupp/chirp/internal/domain"
	"github.com/mkrupp/chirp/internal/infra/logging"
	"github.com/mkrupp/chirp/internal/repo/upload"
	"github.com/mkrupp/chirp/internal/repo/user"
	"github.com/mkrupp/chirp/internal/svc/imagesvc"
)

const defaultMIMEType = "application/octet-stream"

// LocalMediaService implements MediaService on top of a local upload repository.
type LocalMediaService struct {
	uploads    upload.Repository
	users      user.Repository
	normalizer imagesvc.Normalizer
	cfg        MediaConfig
	log        logging.Logger
	now        func() time.Time
}

var _ MediaService = (*LocalMediaService)(nil)

// Option configures a LocalMediaService.
type Option func(*LocalMediaService)

// WithClock replaces the clock used to timestamp stored file names.
func WithClock(now func() time.Time) Option {
	return func(mediaSvc *LocalMediaService) {
		mediaSvc.now = now
	}
}

// NewLocalMediaService creates a new LocalMediaService.
func NewLocalMediaService(
	uploads upload.Repository,
	users user.Repository,
	normalizer imagesvc.Normalizer,
	cfg MediaConfig,
	opts ...Option,
) *LocalMediaService {
	mediaSvc := &LocalMediaService{
		uploads:    uploads,
		users:      users,
		normalizer: normalizer,
		cfg:        cfg,
		log:        logging.GetLogger("svc.mediasvc.local_media_service"),
		now:        time.Now,
	}

	for _, opt := range opts {
		opt(mediaSvc)
	}

	return mediaSvc
}

// MaxSize implements MediaService.MaxSize.
func (mediaSvc *LocalMediaService) MaxSize() int64 {
	return mediaSvc.cfg.MaxSize
}

// Validate implements MediaService.Validate.
func (mediaSvc *LocalMediaService) Validate(filename string) error {
	if _, err := imagesvc.MIMETypeByExt(path.Ext(filename)); err != nil {
		return fmt.Errorf("validate %q: %w", filename, err)
	}

	return nil
}

// Store implements MediaService.Store.
func (mediaSvc *LocalMediaService) Store(
	ctx context.Context,
	category domain.Category,
	filename string,
	data []byte,
) (result domain.StoreResult, err error) {
	log := mediaSvc.log.With(logging.Group("media",
		"category", category,
		"filename", filename,
		"size", len(data),
	))

	defer func() {
		switch {
		case err != nil:
			log.ErrorContext(ctx, "media store failed", "error", err)
		case result.Degraded():
			log.WarnContext(ctx, "media stored without normalization",
				"name", result.Image.Filename,
				"error", result.NormalizeErr,
			)
		default:
			log.DebugContext(ctx, "media stored", "name", result.Image.Filename, "stored_size", result.Image.Size)
		}
	}()

	if err := mediaSvc.Validate(filename); err != nil {
		return result, err
	}

	if _, err := domain.ParseCategory(category.String()); err != nil {
		return result, fmt.Errorf("%w: %q", err, category)
	}

	if int64(len(data)) > mediaSvc.cfg.MaxSize {
		return result, fmt.Errorf("%w: %d exceeds %d", domain.ErrImageTooLarge, len(data), mediaSvc.cfg.MaxSize)
	}

	base, ext := splitFilename(filename)
	base += "_" + strconv.FormatInt(mediaSvc.now().Unix(), 10)

	name, err := mediaSvc.uploads.Create(ctx, category, base, ext, data)
	if err != nil {
		return result, fmt.Errorf("create upload: %w", err)
	}

	result.Image = domain.StoredImage{Category: category, Filename: name, Size: int64(len(data))}

	normalized, err := mediaSvc.normalizer.Normalize(ctx, ext, data)
	if err != nil {
		result.NormalizeErr = fmt.Errorf("normalize: %w", err)

		return result, nil
	}

	if err := mediaSvc.uploads.Replace(ctx, category, name, normalized); err != nil {
		result.NormalizeErr = fmt.Errorf("replace with normalized: %w", err)

		return result, nil
	}

	result.Image.Size = int64(len(normalized))

	return result, nil
}

// ReplaceAvatar implements MediaService.ReplaceAvatar.
// The new file is stored and referenced before the old one is deleted, so a
// failure in between leaves an orphaned file rather than a dangling reference.
func (mediaSvc *LocalMediaService) ReplaceAvatar(
	ctx context.Context,
	userID domain.UserID,
	filename string,
	data []byte,
) (result domain.StoreResult, err error) {
	log := mediaSvc.log.With(logging.Group("avatar", "user_id", userID, "filename", filename))

	defer func() {
		if err != nil {
			log.ErrorContext(ctx, "avatar replace failed", "error", err)
		} else {
			log.InfoContext(ctx, "avatar replaced", "name", result.Image.Filename)
		}
	}()

	owner, err := mediaSvc.users.GetUserByID(ctx, userID)
	if err != nil {
		return result, fmt.Errorf("get user: %w", err)
	}

	result, err = mediaSvc.Store(ctx, domain.CategoryAvatars, filename, data)
	if err != nil {
		return result, err
	}

	if err := mediaSvc.users.UpdateAvatar(ctx, userID, result.Image.Filename); err != nil {
		if derr := mediaSvc.uploads.Delete(ctx, domain.CategoryAvatars, result.Image.Filename); derr != nil {
			err = errors.Join(err, derr)
		}

		return domain.StoreResult{}, fmt.Errorf("update avatar: %w", err)
	}

	if owner.HasAvatar() && owner.Avatar != result.Image.Filename {
		if err := mediaSvc.uploads.Delete(ctx, domain.CategoryAvatars, owner.Avatar); err != nil {
			log.WarnContext(ctx, "previous avatar not deleted", "name", owner.Avatar, "error", err)
		}
	}

	return result, nil
}

// Open implements MediaService.Open.
func (mediaSvc *LocalMediaService) Open(
	ctx context.Context,
	category domain.Category,
	filename string,
) (domain.Upload, error) {
	file, info, err := mediaSvc.uploads.Open(ctx, category, filename)
	if err != nil {
		return domain.Upload{}, fmt.Errorf("open upload: %w", err)
	}

	mimeType, err := imagesvc.MIMETypeByExt(path.Ext(filename))
	if err != nil {
		mimeType = defaultMIMEType
	}

	return domain.Upload{
		ReadSeekCloser: file,
		Filename:       info.Name(),
		MIMEType:       mimeType,
		Size:           info.Size(),
		ModTime:        info.ModTime(),
	}, nil
}
