// Package usermock provides a testify mock of user.Repository.
package usermock

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/mkrupp/chirp/internal/domain"
	"github.com/mkrupp/chirp/internal/repo/user"
)

// Repository is a mock implementation of user.Repository.
type Repository struct {
	mock.Mock
}

var _ user.Repository = (*Repository)(nil)

func (m *Repository) userResult(args mock.Arguments) (*domain.User, error) {
	u, _ := args.Get(0).(*domain.User)

	return u, args.Error(1) //nolint:wrapcheck
}

func (m *Repository) CreateUser(ctx context.Context, username, email string, passwordHash []byte) (*domain.User, error) {
	return m.userResult(m.Called(ctx, username, email, passwordHash))
}

func (m *Repository) GetUserByID(ctx context.Context, id domain.UserID) (*domain.User, error) {
	return m.userResult(m.Called(ctx, id))
}

func (m *Repository) GetUserByUsername(ctx context.Context, username string) (*domain.User, error) {
	return m.userResult(m.Called(ctx, username))
}

func (m *Repository) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	return m.userResult(m.Called(ctx, email))
}

func (m *Repository) GetUserByResetToken(ctx context.Context, token string) (*domain.User, error) {
	return m.userResult(m.Called(ctx, token))
}

func (m *Repository) SetResetToken(ctx context.Context, id domain.UserID, token domain.ResetToken) error {
	return m.Called(ctx, id, token).Error(0) //nolint:wrapcheck
}

func (m *Repository) ResetPassword(ctx context.Context, id domain.UserID, passwordHash []byte) error {
	return m.Called(ctx, id, passwordHash).Error(0) //nolint:wrapcheck
}

func (m *Repository) UpdateAvatar(ctx context.Context, id domain.UserID, avatar string) error {
	return m.Called(ctx, id, avatar).Error(0) //nolint:wrapcheck
}
