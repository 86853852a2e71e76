package post

import (
	"context"

	"github.com/mkrupp/chirp/internal/domain"
)

// Query narrows down the posts returned by Repository.ListPosts.
type Query struct {
	// Author limits the result to posts of one user when non-zero
	Author domain.UserID
	// Viewer is used to compute FeedItem.LikedByViewer
	Viewer domain.UserID
}

// Repository defines the interface for post, like and comment persistence.
type Repository interface {
	// CreatePost stores a new post and returns it with its assigned ID.
	CreatePost(ctx context.Context, author domain.UserID, content, image string) (*domain.Post, error)

	// GetPost retrieves a post by ID, or fails with domain.ErrPostNotFound.
	GetPost(ctx context.Context, id domain.PostID) (*domain.Post, error)

	// ListPosts returns posts newest first, with authors, like counts and comments.
	ListPosts(ctx context.Context, query Query) ([]domain.FeedItem, error)

	// ToggleLike removes the like of a user on a post if present, or adds it otherwise.
	// Returns whether the post is liked afterwards and its like count.
	ToggleLike(ctx context.Context, userID domain.UserID, postID domain.PostID) (bool, int, error)

	// CreateComment stores a new comment on a post.
	CreateComment(ctx context.Context, userID domain.UserID, postID domain.PostID, content string) (*domain.Comment, error)
}
