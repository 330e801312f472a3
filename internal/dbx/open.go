package dbx

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	// Database drivers selected by DSN scheme.
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

// Dialect describes which database/sql driver and goose dialect a DSN maps to.
type Dialect struct {
	Name   string // "postgres" or "sqlite"
	Driver string // database/sql driver name
	Goose  string // goose dialect name
}

var (
	Postgres = Dialect{Name: "postgres", Driver: "pgx", Goose: "pgx"}
	SQLite   = Dialect{Name: "sqlite", Driver: "sqlite", Goose: "sqlite3"}
)

var ErrUnsupportedDSN = errors.New("unsupported database dsn")

const sqlitePragmas = "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"

// ParseDSN resolves the dialect for dsn and returns the connection string in
// the form the selected driver expects.
//
//	postgres://... | postgresql://...  -> pgx
//	sqlite://path  | file:path         -> modernc sqlite, foreign keys on
func ParseDSN(dsn string) (Dialect, string, error) {
	switch {
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"):
		return Postgres, dsn, nil
	case strings.HasPrefix(dsn, "sqlite://"):
		return SQLite, withPragmas("file:" + strings.TrimPrefix(dsn, "sqlite://")), nil
	case strings.HasPrefix(dsn, "file:"):
		return SQLite, withPragmas(dsn), nil
	default:
		return Dialect{}, "", fmt.Errorf("%w: %q", ErrUnsupportedDSN, redact(dsn))
	}
}

func withPragmas(dsn string) string {
	if strings.Contains(dsn, "?") {
		return dsn + "&" + sqlitePragmas
	}
	return dsn + "?" + sqlitePragmas
}

// redact hides everything after the scheme so credentials never reach logs.
func redact(dsn string) string {
	if scheme, _, ok := strings.Cut(dsn, "://"); ok {
		return scheme + "://***"
	}
	return "***"
}

// Open opens and pings a database for dsn.
func Open(dsn string) (*sql.DB, Dialect, error) {
	d, conn, err := ParseDSN(dsn)
	if err != nil {
		return nil, Dialect{}, err
	}

	db, err := sql.Open(d.Driver, conn)
	if err != nil {
		return nil, Dialect{}, fmt.Errorf("open %s: %w", d.Name, err)
	}

	if d == SQLite {
		// a single writer avoids SQLITE_BUSY under concurrent requests
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, Dialect{}, fmt.Errorf("ping %s: %w", d.Name, err)
	}

	return db, d, nil
}
