package post

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mkrupp/chirp/internal/domain"
	"github.com/mkrupp/chirp/internal/infra/database"
	"github.com/mkrupp/chirp/internal/infra/logging"
)

// SQLPostRepository implements Repository on top of the SQL persistence store.
type SQLPostRepository struct {
	db  *database.DB
	log logging.Logger
	now func() time.Time
}

var _ Repository = (*SQLPostRepository)(nil)

// NewSQLPostRepository creates a post repository using the given store.
func NewSQLPostRepository(db *database.DB) *SQLPostRepository {
	return &SQLPostRepository{
		db:  db,
		log: logging.GetLogger("repo.post.sql_post_repository"),
		now: time.Now,
	}
}

// CreatePost implements Repository.CreatePost.
func (r *SQLPostRepository) CreatePost(
	ctx context.Context,
	author domain.UserID,
	content string,
	image string,
) (*domain.Post, error) {
	var (
		post  domain.Post
		saved sql.NullString
	)

	err := r.db.QueryRowContext(ctx, r.db.Rebind(
		"INSERT INTO posts (content, image, user_id, created_at) VALUES (?, ?, ?, ?) "+
			"RETURNING id, content, image, user_id, created_at"),
		content,
		sql.NullString{String: image, Valid: image != ""},
		int64(author),
		r.now().UnixNano(),
	).Scan(&post.ID, &post.Content, &saved, &post.UserID, &post.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert post: %w", err)
	}

	post.Image = saved.String

	return &post, nil
}

// GetPost implements Repository.GetPost.
func (r *SQLPostRepository) GetPost(ctx context.Context, id domain.PostID) (*domain.Post, error) {
	var (
		post  domain.Post
		image sql.NullString
	)

	err := r.db.QueryRowContext(ctx, r.db.Rebind(
		"SELECT id, content, image, user_id, created_at FROM posts WHERE id = ?"),
		int64(id),
	).Scan(&post.ID, &post.Content, &image, &post.UserID, &post.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			err = errors.Join(domain.ErrPostNotFound, err)
		}

		return nil, fmt.Errorf("query post: %w", err)
	}

	post.Image = image.String

	return &post, nil
}

// ListPosts implements Repository.ListPosts.
func (r *SQLPostRepository) ListPosts(ctx context.Context, query Query) (_ []domain.FeedItem, err error) {
	defer func() {
		if err != nil {
			r.log.ErrorContext(ctx, "list posts failed", "error", err)
		}
	}()

	stmt := `
		SELECT p.id, p.content, p.image, p.user_id, p.created_at,
		       u.username, u.avatar,
		       (SELECT COUNT(*) FROM likes l WHERE l.post_id = p.id),
		       EXISTS (SELECT 1 FROM likes l WHERE l.post_id = p.id AND l.user_id = ?)
		FROM posts p
		JOIN users u ON u.id = p.user_id`
	args := []any{int64(query.Viewer)}

	if query.Author != 0 {
		stmt += " WHERE p.user_id = ?"

		args = append(args, int64(query.Author))
	}

	stmt += " ORDER BY p.created_at DESC, p.id DESC"

	items, err := r.queryFeedItems(ctx, stmt, args...)
	if err != nil {
		return nil, err
	}

	if err := r.attachComments(ctx, query, items); err != nil {
		return nil, err
	}

	return items, nil
}

func (r *SQLPostRepository) queryFeedItems(ctx context.Context, stmt string, args ...any) ([]domain.FeedItem, error) {
	rows, err := r.db.QueryContext(ctx, r.db.Rebind(stmt), args...)
	if err != nil {
		return nil, fmt.Errorf("query posts: %w", err)
	}
	defer rows.Close()

	items := []domain.FeedItem{}

	for rows.Next() {
		var (
			item   domain.FeedItem
			image  sql.NullString
			avatar sql.NullString
		)

		if err := rows.Scan(
			&item.ID,
			&item.Content,
			&image,
			&item.UserID,
			&item.CreatedAt,
			&item.Author.Username,
			&avatar,
			&item.Likes,
			&item.LikedByViewer,
		); err != nil {
			return nil, fmt.Errorf("scan post: %w", err)
		}

		item.Image = image.String
		item.Author.ID = item.UserID
		item.Author.Avatar = avatar.String
		item.Comments = []domain.Comment{}

		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate posts: %w", err)
	}

	return items, nil
}

// attachComments loads the comments of all posts matched by query.
// The post filter is repeated as a subquery so the statement has a fixed
// number of bind variables regardless of the feed size.
func (r *SQLPostRepository) attachComments(ctx context.Context, query Query, items []domain.FeedItem) error {
	if len(items) == 0 {
		return nil
	}

	index := make(map[domain.PostID]int, len(items))
	for i, item := range items {
		index[item.ID] = i
	}

	stmt := `
		SELECT c.id, c.content, c.user_id, u.username, c.post_id, c.created_at
		FROM comments c
		JOIN users u ON u.id = c.user_id`

	var args []any

	if query.Author != 0 {
		stmt += " WHERE c.post_id IN (SELECT p.id FROM posts p WHERE p.user_id = ?)"

		args = append(args, int64(query.Author))
	}

	stmt += " ORDER BY c.created_at, c.id"

	rows, err := r.db.QueryContext(ctx, r.db.Rebind(stmt), args...)
	if err != nil {
		return fmt.Errorf("query comments: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var comment domain.Comment

		if err := rows.Scan(
			&comment.ID,
			&comment.Content,
			&comment.UserID,
			&comment.Username,
			&comment.PostID,
			&comment.CreatedAt,
		); err != nil {
			return fmt.Errorf("scan comment: %w", err)
		}

		i, ok := index[comment.PostID]
		if !ok {
			continue
		}

		items[i].Comments = append(items[i].Comments, comment)
	}

	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate comments: %w", err)
	}

	return nil
}

// ToggleLike implements Repository.ToggleLike.
func (r *SQLPostRepository) ToggleLike(
	ctx context.Context,
	userID domain.UserID,
	postID domain.PostID,
) (liked bool, likes int, err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, 0, fmt.Errorf("begin: %w", err)
	}

	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	result, err := tx.ExecContext(ctx, r.db.Rebind(
		"DELETE FROM likes WHERE user_id = ? AND post_id = ?"),
		int64(userID), int64(postID),
	)
	if err != nil {
		return false, 0, fmt.Errorf("delete like: %w", err)
	}

	removed, err := result.RowsAffected()
	if err != nil {
		return false, 0, fmt.Errorf("rows affected: %w", err)
	}

	if removed == 0 {
		if _, err := tx.ExecContext(ctx, r.db.Rebind(
			"INSERT INTO likes (user_id, post_id) VALUES (?, ?)"),
			int64(userID), int64(postID),
		); err != nil {
			return false, 0, fmt.Errorf("insert like: %w", err)
		}
	}

	if err := tx.QueryRowContext(ctx, r.db.Rebind(
		"SELECT COUNT(*) FROM likes WHERE post_id = ?"),
		int64(postID),
	).Scan(&likes); err != nil {
		return false, 0, fmt.Errorf("count likes: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return false, 0, fmt.Errorf("commit: %w", err)
	}

	return removed == 0, likes, nil
}

// CreateComment implements Repository.CreateComment.
func (r *SQLPostRepository) CreateComment(
	ctx context.Context,
	userID domain.UserID,
	postID domain.PostID,
	content string,
) (*domain.Comment, error) {
	comment := domain.Comment{
		Content:   content,
		UserID:    userID,
		PostID:    postID,
		CreatedAt: r.now().UnixNano(),
	}

	err := r.db.QueryRowContext(ctx, r.db.Rebind(
		"INSERT INTO comments (content, user_id, post_id, created_at) VALUES (?, ?, ?, ?) RETURNING id"),
		comment.Content,
		int64(comment.UserID),
		int64(comment.PostID),
		comment.CreatedAt,
	).Scan(&comment.ID)
	if err != nil {
		return nil, fmt.Errorf("insert comment: %w", err)
	}

	return &comment, nil
}
