package domain

import "errors"

var (
	// ErrDuplicateUsername is returned when trying to register a username that is already taken.
	ErrDuplicateUsername = errors.New("username already taken")
	// ErrDuplicateEmail is returned when trying to register an email that is already taken.
	ErrDuplicateEmail = errors.New("email already taken")
	// ErrUserNotFound is returned when looking up a non-existent user.
	ErrUserNotFound = errors.New("user not found")
	// ErrInvalidCredentials is returned when the username/password combination is incorrect.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrEmailNotFound is returned when no user is registered with the given email.
	ErrEmailNotFound = errors.New("email not found")
	// ErrPasswordMismatch is returned when a password and its confirmation differ.
	ErrPasswordMismatch = errors.New("passwords do not match")
	// ErrMissingField is returned when a required input is blank.
	ErrMissingField = errors.New("required field missing")
	// ErrPasswordTooLong is returned when a password exceeds what the hash can represent.
	ErrPasswordTooLong = errors.New("password too long")
)

// UserID identifies a user record.
type UserID int64

// User represents a registered account.
type User struct {
	ID           UserID     // Unique identifier
	Username     string     // Login username, unique
	Email        string     // Contact email, unique
	PasswordHash []byte     // bcrypt hash
	Avatar       string     // Stored avatar filename, empty if none
	ResetToken   ResetToken // Pending password reset token
	CreatedAt    int64      // Unix timestamp of account creation
}

// HasAvatar reports whether the user has uploaded an avatar.
func (u User) HasAvatar() bool {
	return u.Avatar != ""
}

// PublicUser is the representation of a user that is safe to hand out.
type PublicUser struct {
	ID       UserID `json:"id"`
	Username string `json:"username"`
	Avatar   string `json:"avatar,omitempty"`
}

// Public strips credentials from the user.
func (u User) Public() PublicUser {
	return PublicUser{
		ID:       u.ID,
		Username: u.Username,
		Avatar:   u.Avatar,
	}
}
