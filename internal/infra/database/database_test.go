package database_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkrupp/chirp/internal/infra/database"
)

func TestParseURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		url         string
		wantDialect database.Dialect
		wantDSN     string
		wantErr     bool
	}{
		{url: "sqlite:///database.db", wantDialect: database.DialectSQLite, wantDSN: "database.db"},
		{url: "sqlite:////var/lib/chirp.db", wantDialect: database.DialectSQLite, wantDSN: "/var/lib/chirp.db"},
		{url: "sqlite://", wantDialect: database.DialectSQLite, wantDSN: ":memory:"},
		{url: "sqlite:///:memory:", wantDialect: database.DialectSQLite, wantDSN: ":memory:"},
		{
			url:         "postgres://chirp:pw@localhost:5432/chirp",
			wantDialect: database.DialectPostgres,
			wantDSN:     "postgres://chirp:pw@localhost:5432/chirp",
		},
		{url: "mysql://root@localhost/chirp", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			t.Parallel()

			dialect, dsn, err := database.ParseURL(tt.url)
			if tt.wantErr {
				require.ErrorIs(t, err, database.ErrUnsupportedURL)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.wantDialect, dialect)
			assert.Equal(t, tt.wantDSN, dsn)
		})
	}
}

func TestOpenMigratesSchema(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "chirp.db")

	db, err := database.Open(ctx, database.Config{URL: "sqlite:///" + path})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	assert.Equal(t, database.DialectSQLite, db.Dialect())
	assert.FileExists(t, path)

	for _, table := range []string{"users", "posts", "likes", "comments"} {
		var name string

		err := db.QueryRowContext(ctx,
			"SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?", table,
		).Scan(&name)
		require.NoError(t, err, table)
	}

	// Opening again must not re-run applied migrations.
	again, err := database.Open(ctx, database.Config{URL: "sqlite:///" + path})
	require.NoError(t, err)
	require.NoError(t, again.Close())
}

func TestUniqueViolation(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	db, err := database.Open(ctx, database.Config{URL: "sqlite://"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	insert := "INSERT INTO users (username, email, password_hash, created_at) VALUES (?, ?, ?, ?)"

	_, err = db.ExecContext(ctx, insert, "alice", "a@x.com", []byte("h"), 1)
	require.NoError(t, err)

	_, err = db.ExecContext(ctx, insert, "bob", "a@x.com", []byte("h"), 1)
	require.Error(t, err)

	constraint, ok := database.UniqueViolation(err)
	assert.True(t, ok)
	assert.Contains(t, constraint, "email")

	_, ok = database.UniqueViolation(assert.AnError)
	assert.False(t, ok)
}

func TestRebind(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	db, err := database.Open(ctx, database.Config{URL: "sqlite://"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	query := "SELECT id FROM users WHERE username = ? AND email = ?"
	assert.Equal(t, query, db.Rebind(query), "sqlite keeps question marks")
	assert.Equal(t,
		"SELECT id FROM users WHERE username = $1 AND email = $2",
		database.Rebind(database.DialectPostgres, query),
	)
}
