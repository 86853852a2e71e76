package user_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkrupp/chirp/internal/domain"
	"github.com/mkrupp/chirp/internal/infra/database"
	"github.com/mkrupp/chirp/internal/repo/user"
)

func setupUserRepo(t *testing.T) *user.SQLUserRepository {
	t.Helper()

	db, err := database.Open(context.Background(), database.Config{URL: "sqlite://"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	return user.NewSQLUserRepository(db)
}

func TestSQLUserRepository_CreateUser(t *testing.T) {
	t.Parallel()

	repo := setupUserRepo(t)
	ctx := context.Background()

	alice, err := repo.CreateUser(ctx, "alice", "a@x.com", []byte("hash"))
	require.NoError(t, err)
	assert.NotZero(t, alice.ID)
	assert.Equal(t, "alice", alice.Username)
	assert.Equal(t, "a@x.com", alice.Email)
	assert.False(t, alice.ResetToken.Issued())
	assert.False(t, alice.HasAvatar())

	tests := []struct {
		name     string
		username string
		email    string
		wantErr  error
	}{
		{name: "duplicate username", username: "alice", email: "other@x.com", wantErr: domain.ErrDuplicateUsername},
		{name: "duplicate email", username: "bob", email: "a@x.com", wantErr: domain.ErrDuplicateEmail},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := repo.CreateUser(ctx, tt.username, tt.email, []byte("hash"))
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestSQLUserRepository_Lookups(t *testing.T) {
	t.Parallel()

	repo := setupUserRepo(t)
	ctx := context.Background()

	created, err := repo.CreateUser(ctx, "alice", "a@x.com", []byte("hash"))
	require.NoError(t, err)

	byID, err := repo.GetUserByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created, byID)

	byName, err := repo.GetUserByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, created.ID, byName.ID)

	byEmail, err := repo.GetUserByEmail(ctx, "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, created.ID, byEmail.ID)

	_, err = repo.GetUserByUsername(ctx, "nobody")
	require.ErrorIs(t, err, domain.ErrUserNotFound)

	_, err = repo.GetUserByEmail(ctx, "nobody@x.com")
	require.ErrorIs(t, err, domain.ErrUserNotFound)

	_, err = repo.GetUserByResetToken(ctx, "")
	require.ErrorIs(t, err, domain.ErrUserNotFound)
}

func TestSQLUserRepository_ResetTokenLifecycle(t *testing.T) {
	t.Parallel()

	repo := setupUserRepo(t)
	ctx := context.Background()

	created, err := repo.CreateUser(ctx, "alice", "a@x.com", []byte("old"))
	require.NoError(t, err)

	require.NoError(t, repo.SetResetToken(ctx, created.ID, domain.IssuedResetToken("tok-1")))

	holder, err := repo.GetUserByResetToken(ctx, "tok-1")
	require.NoError(t, err)
	assert.Equal(t, created.ID, holder.ID)

	token, issued := holder.ResetToken.Value()
	assert.True(t, issued)
	assert.Equal(t, "tok-1", token)

	require.NoError(t, repo.ResetPassword(ctx, created.ID, []byte("new")))

	_, err = repo.GetUserByResetToken(ctx, "tok-1")
	require.ErrorIs(t, err, domain.ErrUserNotFound)

	updated, err := repo.GetUserByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, []byte("new"), updated.PasswordHash)
	assert.False(t, updated.ResetToken.Issued())

	err = repo.SetResetToken(ctx, 999, domain.NoResetToken())
	require.ErrorIs(t, err, domain.ErrUserNotFound)
}

func TestSQLUserRepository_UpdateAvatar(t *testing.T) {
	t.Parallel()

	repo := setupUserRepo(t)
	ctx := context.Background()

	created, err := repo.CreateUser(ctx, "alice", "a@x.com", []byte("hash"))
	require.NoError(t, err)

	require.NoError(t, repo.UpdateAvatar(ctx, created.ID, "me_1700000000.png"))

	updated, err := repo.GetUserByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "me_1700000000.png", updated.Avatar)
	assert.True(t, updated.HasAvatar())
}
