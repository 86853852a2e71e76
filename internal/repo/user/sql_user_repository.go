package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mkrupp/chirp/internal/domain"
	"github.com/mkrupp/chirp/internal/infra/database"
	"github.com/mkrupp/chirp/internal/infra/logging"
)

const userColumns = "id, username, email, password_hash, avatar, reset_token, created_at"

// SQLUserRepository implements Repository on top of the SQL persistence store.
type SQLUserRepository struct {
	db  *database.DB
	log logging.Logger
}

var _ Repository = (*SQLUserRepository)(nil)

// NewSQLUserRepository creates a user repository using the given store.
func NewSQLUserRepository(db *database.DB) *SQLUserRepository {
	return &SQLUserRepository{
		db:  db,
		log: logging.GetLogger("repo.user.sql_user_repository"),
	}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*domain.User, error) {
	var (
		user       domain.User
		avatar     sql.NullString
		resetToken sql.NullString
	)

	if err := row.Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.PasswordHash,
		&avatar,
		&resetToken,
		&user.CreatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			err = errors.Join(domain.ErrUserNotFound, err)
		}

		return nil, err
	}

	user.Avatar = avatar.String
	user.ResetToken = domain.IssuedResetToken(resetToken.String)

	return &user, nil
}

func nullString(s string, valid bool) sql.NullString {
	return sql.NullString{String: s, Valid: valid && s != ""}
}

// CreateUser implements Repository.CreateUser.
func (r *SQLUserRepository) CreateUser(
	ctx context.Context,
	username string,
	email string,
	passwordHash []byte,
) (_ *domain.User, err error) {
	defer func() {
		if err != nil {
			r.log.ErrorContext(ctx, "insert user failed", "error", err)
		}
	}()

	user, err := scanUser(r.db.QueryRowContext(ctx, r.db.Rebind(
		"INSERT INTO users (username, email, password_hash, created_at) VALUES (?, ?, ?, ?) RETURNING "+userColumns),
		username,
		email,
		passwordHash,
		time.Now().Unix(),
	))
	if err != nil {
		if constraint, ok := database.UniqueViolation(err); ok {
			if strings.Contains(constraint, "email") {
				err = errors.Join(domain.ErrDuplicateEmail, err)
			} else {
				err = errors.Join(domain.ErrDuplicateUsername, err)
			}
		}

		return nil, fmt.Errorf("insert user: %w", err)
	}

	return user, nil
}

func (r *SQLUserRepository) getUserBy(ctx context.Context, column string, value any) (*domain.User, error) {
	user, err := scanUser(r.db.QueryRowContext(ctx, r.db.Rebind(
		"SELECT "+userColumns+" FROM users WHERE "+column+" = ?"),
		value,
	))
	if err != nil {
		return nil, fmt.Errorf("query user by %s: %w", column, err)
	}

	return user, nil
}

// GetUserByID implements Repository.GetUserByID.
func (r *SQLUserRepository) GetUserByID(ctx context.Context, id domain.UserID) (*domain.User, error) {
	return r.getUserBy(ctx, "id", int64(id))
}

// GetUserByUsername implements Repository.GetUserByUsername.
func (r *SQLUserRepository) GetUserByUsername(ctx context.Context, username string) (*domain.User, error) {
	return r.getUserBy(ctx, "username", username)
}

// GetUserByEmail implements Repository.GetUserByEmail.
func (r *SQLUserRepository) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.getUserBy(ctx, "email", email)
}

// GetUserByResetToken implements Repository.GetUserByResetToken.
func (r *SQLUserRepository) GetUserByResetToken(ctx context.Context, token string) (*domain.User, error) {
	if token == "" {
		return nil, fmt.Errorf("query user by reset_token: %w", domain.ErrUserNotFound)
	}

	return r.getUserBy(ctx, "reset_token", token)
}

func (r *SQLUserRepository) update(ctx context.Context, id domain.UserID, query string, args ...any) error {
	result, err := r.db.ExecContext(ctx, r.db.Rebind(query), append(args, int64(id))...)
	if err != nil {
		return fmt.Errorf("exec: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	} else if affected == 0 {
		return domain.ErrUserNotFound
	}

	return nil
}

// SetResetToken implements Repository.SetResetToken.
func (r *SQLUserRepository) SetResetToken(ctx context.Context, id domain.UserID, token domain.ResetToken) error {
	if err := r.update(ctx, id,
		"UPDATE users SET reset_token = ? WHERE id = ?",
		nullString(token.Value()),
	); err != nil {
		return fmt.Errorf("update reset token: %w", err)
	}

	return nil
}

// ResetPassword implements Repository.ResetPassword.
func (r *SQLUserRepository) ResetPassword(ctx context.Context, id domain.UserID, passwordHash []byte) error {
	if err := r.update(ctx, id,
		"UPDATE users SET password_hash = ?, reset_token = NULL WHERE id = ?",
		passwordHash,
	); err != nil {
		return fmt.Errorf("update password: %w", err)
	}

	return nil
}

// UpdateAvatar implements Repository.UpdateAvatar.
func (r *SQLUserRepository) UpdateAvatar(ctx context.Context, id domain.UserID, avatar string) error {
	if err := r.update(ctx, id,
		"UPDATE users SET avatar = ? WHERE id = ?",
		nullString(avatar, true),
	); err != nil {
		return fmt.Errorf("update avatar: %w", err)
	}

	return nil
}
