package feedsvc

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mkrupp/chirp/internal/domain"
	"github.com/mkrupp/chirp/internal/infra/logging"
	"github.com/mkrupp/chirp/internal/repo/post"
	"github.com/mkrupp/chirp/internal/repo/user"
	"github.com/mkrupp/chirp/internal/svc/mediasvc"
)

// FeedService implements posting, liking, commenting and profile pages.
type FeedService struct {
	posts    post.Repository
	users    user.Repository
	mediaSvc mediasvc.MediaService
	log      logging.Logger
}

// NewFeedService creates a new FeedService.
func NewFeedService(posts post.Repository, users user.Repository, mediaSvc mediasvc.MediaService) *FeedService {
	return &FeedService{
		posts:    posts,
		users:    users,
		mediaSvc: mediaSvc,
		log:      logging.GetLogger("svc.feedsvc.feed_service"),
	}
}

// CreatePost publishes a post with optional text and an optional image.
// Returns domain.ErrEmptyPost if both are missing, and domain.ErrUnsupportedFormat
// for images of an unsupported type.
func (s *FeedService) CreatePost(
	ctx context.Context,
	author domain.UserID,
	content string,
	image *domain.UploadFile,
) (_ *domain.Post, err error) {
	log := s.log.With(logging.Group("post", "author", author))

	defer func() {
		if err != nil {
			log.DebugContext(ctx, "create post failed", "error", err)
		} else {
			log.DebugContext(ctx, "post created")
		}
	}()

	content = strings.TrimSpace(content)

	if content == "" && image == nil {
		return nil, domain.ErrEmptyPost
	}

	var filename string

	if image != nil {
		result, err := s.mediaSvc.Store(ctx, domain.CategoryPosts, image.Filename, image.Data)
		if err != nil {
			return nil, fmt.Errorf("store image: %w", err)
		}

		filename = result.Image.Filename
	}

	created, err := s.posts.CreatePost(ctx, author, content, filename)
	if err != nil {
		return nil, fmt.Errorf("create post: %w", err)
	}

	return created, nil
}

// Feed returns all posts, newest first, as seen by viewer.
func (s *FeedService) Feed(ctx context.Context, viewer domain.UserID) ([]domain.FeedItem, error) {
	items, err := s.posts.ListPosts(ctx, post.Query{Viewer: viewer})
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}

	return items, nil
}

// ToggleLike likes a post, or removes the like if the user already likes it.
// Returns whether the post is liked afterwards and its like count.
func (s *FeedService) ToggleLike(
	ctx context.Context,
	userID domain.UserID,
	postID domain.PostID,
) (liked bool, likes int, err error) {
	defer func() {
		if err != nil {
			s.log.DebugContext(ctx, "toggle like failed", "post_id", postID, "error", err)
		} else {
			s.log.DebugContext(ctx, "like toggled", "post_id", postID, "liked", liked)
		}
	}()

	if _, err := s.posts.GetPost(ctx, postID); err != nil {
		return false, 0, fmt.Errorf("get post: %w", err)
	}

	liked, likes, err = s.posts.ToggleLike(ctx, userID, postID)
	if err != nil {
		return false, 0, fmt.Errorf("toggle like: %w", err)
	}

	return liked, likes, nil
}

// AddComment adds a comment to a post.
// Returns domain.ErrEmptyComment for blank content and domain.ErrPostNotFound for unknown posts.
func (s *FeedService) AddComment(
	ctx context.Context,
	userID domain.UserID,
	postID domain.PostID,
	content string,
) (*domain.Comment, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, domain.ErrEmptyComment
	}

	if _, err := s.posts.GetPost(ctx, postID); err != nil {
		return nil, fmt.Errorf("get post: %w", err)
	}

	author, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}

	comment, err := s.posts.CreateComment(ctx, userID, postID, content)
	if err != nil {
		return nil, fmt.Errorf("create comment: %w", err)
	}

	comment.Username = author.Username

	return comment, nil
}

// Profile returns a user and their posts.
// Returns domain.ErrUserNotFound for unknown usernames.
func (s *FeedService) Profile(ctx context.Context, viewer domain.UserID, username string) (domain.Profile, error) {
	owner, err := s.users.GetUserByUsername(ctx, username)
	if err != nil {
		if !errors.Is(err, domain.ErrUserNotFound) {
			s.log.ErrorContext(ctx, "get profile failed", "username", username, "error", err)
		}

		return domain.Profile{}, fmt.Errorf("get user: %w", err)
	}

	items, err := s.posts.ListPosts(ctx, post.Query{Author: owner.ID, Viewer: viewer})
	if err != nil {
		return domain.Profile{}, fmt.Errorf("list posts: %w", err)
	}

	return domain.Profile{User: owner.Public(), Posts: items}, nil
}
