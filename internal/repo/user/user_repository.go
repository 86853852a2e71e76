package user

import (
	"context"

	"github.com/mkrupp/chirp/internal/domain"
)

// Repository defines the interface for user data persistence.
type Repository interface {
	// CreateUser adds a new user and returns it with its assigned ID.
	// Returns domain.ErrDuplicateUsername or domain.ErrDuplicateEmail on conflicts.
	CreateUser(ctx context.Context, username, email string, passwordHash []byte) (*domain.User, error)

	// GetUserByID retrieves a user by ID, or fails with domain.ErrUserNotFound.
	GetUserByID(ctx context.Context, id domain.UserID) (*domain.User, error)

	// GetUserByUsername retrieves a user by username, or fails with domain.ErrUserNotFound.
	GetUserByUsername(ctx context.Context, username string) (*domain.User, error)

	// GetUserByEmail retrieves a user by email, or fails with domain.ErrUserNotFound.
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)

	// GetUserByResetToken retrieves the user holding exactly this reset token,
	// or fails with domain.ErrUserNotFound.
	GetUserByResetToken(ctx context.Context, token string) (*domain.User, error)

	// SetResetToken replaces the reset token of a user.
	SetResetToken(ctx context.Context, id domain.UserID, token domain.ResetToken) error

	// ResetPassword stores a new password hash and clears the reset token in one step.
	ResetPassword(ctx context.Context, id domain.UserID, passwordHash []byte) error

	// UpdateAvatar replaces the avatar filename of a user.
	UpdateAvatar(ctx context.Context, id domain.UserID, avatar string) error
}
