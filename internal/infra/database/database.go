// Package database opens the persistence store named by a connection URL and
// brings its schema up to date.
package database

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" driver
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite" // registers the "sqlite" driver

	"github.com/mkrupp/chirp/internal/infra/logging"
)

// ErrUnsupportedURL is returned for connection URLs of an unknown scheme.
var ErrUnsupportedURL = errors.New("unsupported database url")

//go:embed migrations
var migrations embed.FS

// Dialect is the SQL flavour spoken by the store.
type Dialect string

const (
	DialectSQLite   Dialect = "sqlite"
	DialectPostgres Dialect = "postgres"
)

const memoryDSN = ":memory:"

// Config holds the connection settings of the persistence store.
type Config struct {
	// URL is "sqlite:///relative.db", "sqlite:////absolute.db", "sqlite://" (in memory)
	// or a "postgres://" URL
	URL string `env:"DATABASE_URL" default:"sqlite:///var/storage/chirp.db"`

	// BusyTimeout is how long SQLite waits on a locked database
	BusyTimeout time.Duration `env:"DATABASE_BUSY_TIMEOUT" default:"5s"`
}

// DB is a migrated connection pool together with its dialect.
type DB struct {
	*sql.DB

	dialect Dialect
	log     logging.Logger
}

// ParseURL splits a connection URL into the dialect and the driver DSN.
func ParseURL(url string) (Dialect, string, error) {
	switch {
	case strings.HasPrefix(url, "sqlite://"):
		path := strings.TrimPrefix(strings.TrimPrefix(url, "sqlite://"), "/")
		if path == "" || path == memoryDSN {
			return DialectSQLite, memoryDSN, nil
		}

		return DialectSQLite, path, nil
	case strings.HasPrefix(url, "postgres://"), strings.HasPrefix(url, "postgresql://"):
		return DialectPostgres, url, nil
	default:
		return "", "", fmt.Errorf("%w: %q", ErrUnsupportedURL, redact(url))
	}
}

// Open connects to the store named by cfg.URL and runs pending migrations.
func Open(ctx context.Context, cfg Config) (_ *DB, err error) {
	dialect, dsn, err := ParseURL(cfg.URL)
	if err != nil {
		return nil, err
	}

	log := logging.GetLogger("infra.database").With(logging.Group("db",
		"dialect", dialect,
		"url", redact(cfg.URL),
	))

	defer func() {
		if err != nil {
			log.ErrorContext(ctx, "open database failed", "error", err)
		} else {
			log.DebugContext(ctx, "database opened")
		}
	}()

	var db *sql.DB

	switch dialect {
	case DialectSQLite:
		db, err = openSQLite(dsn, cfg.BusyTimeout)
	case DialectPostgres:
		db, err = sql.Open("pgx", dsn)
	}

	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()

		return nil, fmt.Errorf("ping db: %w", err)
	}

	store := &DB{DB: db, dialect: dialect, log: log}

	if err := store.migrate(ctx); err != nil {
		_ = db.Close()

		return nil, fmt.Errorf("migrate: %w", err)
	}

	return store, nil
}

func openSQLite(path string, busyTimeout time.Duration) (*sql.DB, error) {
	dsn := path

	if path != memoryDSN {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("mkdir all: %w", err)
		}

		dsn = fmt.Sprintf("file:%s?_pragma=busy_timeout(%d)&_pragma=foreign_keys(1)",
			path, busyTimeout.Milliseconds())
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// SQLite has a single writer; an in-memory database also lives and dies
	// with its only connection.
	db.SetMaxOpenConns(1)

	if path != memoryDSN {
		db.SetConnMaxLifetime(5 * time.Minute)
	}

	return db, nil
}

func (db *DB) migrate(ctx context.Context) error {
	var gooseDialect goose.Dialect

	switch db.dialect {
	case DialectSQLite:
		gooseDialect = goose.DialectSQLite3
	case DialectPostgres:
		gooseDialect = goose.DialectPostgres
	}

	fsys, err := fs.Sub(migrations, "migrations/"+string(db.dialect))
	if err != nil {
		return fmt.Errorf("sub fs: %w", err)
	}

	provider, err := goose.NewProvider(gooseDialect, db.DB, fsys)
	if err != nil {
		return fmt.Errorf("new provider: %w", err)
	}

	results, err := provider.Up(ctx)
	if err != nil {
		return fmt.Errorf("up: %w", err)
	}

	db.log.DebugContext(ctx, "migrations applied", "count", len(results))

	return nil
}

// Dialect returns the SQL flavour of the store.
func (db *DB) Dialect() Dialect {
	return db.dialect
}

// Rebind rewrites the `?` placeholders of a query into the store's bind syntax.
func (db *DB) Rebind(query string) string {
	return Rebind(db.dialect, query)
}

// Rebind rewrites the `?` placeholders of a query into the bind syntax of dialect.
func Rebind(dialect Dialect, query string) string {
	if dialect != DialectPostgres {
		return query
	}

	var (
		sb strings.Builder
		n  int
	)

	sb.Grow(len(query) + 8)

	for _, r := range query {
		if r != '?' {
			sb.WriteRune(r)

			continue
		}

		n++
		sb.WriteString("$" + strconv.Itoa(n))
	}

	return sb.String()
}

// redact hides the password of a connection URL.
func redact(url string) string {
	scheme, rest, ok := strings.Cut(url, "://")
	if !ok {
		return url
	}

	userinfo, host, ok := strings.Cut(rest, "@")
	if !ok {
		return url
	}

	if user, _, hasPassword := strings.Cut(userinfo, ":"); hasPassword {
		return scheme + "://" + user + ":***@" + host
	}

	return url
}
