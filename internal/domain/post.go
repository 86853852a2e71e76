package domain

import "errors"

var (
	ErrPostNotFound = errors.New("post not found")
	ErrEmptyPost    = errors.New("post needs content or an image")
	ErrEmptyComment = errors.New("comment is empty")
)

// PostID identifies a post record.
type PostID int64

// Post is a single entry of the feed.
type Post struct {
	ID        PostID `json:"id"`
	Content   string `json:"content"`
	Image     string `json:"image,omitempty"` // Stored filename under the posts category
	UserID    UserID `json:"user_id"`
	CreatedAt int64  `json:"created_at"` // Unix nanoseconds
}

// Comment is a reply to a post.
type Comment struct {
	ID        int64  `json:"id"`
	Content   string `json:"content"`
	UserID    UserID `json:"user_id"`
	Username  string `json:"username"`
	PostID    PostID `json:"post_id"`
	CreatedAt int64  `json:"created_at"`
}

// FeedItem is a post together with the data needed to display it.
type FeedItem struct {
	Post

	Author        PublicUser `json:"author"`
	Likes         int        `json:"likes"`
	LikedByViewer bool       `json:"liked"`
	Comments      []Comment  `json:"comments"`
}

// Profile is a user page.
type Profile struct {
	User  PublicUser `json:"user"`
	Posts []FeedItem `json:"posts"`
}
