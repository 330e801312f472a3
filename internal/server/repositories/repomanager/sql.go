// Package repomanager provides a concrete RepositoryManager for the supported
// SQL dialects, wiring together repository constructors and database
// migrations (via goose).
package repomanager

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"

	"github.com/dmitrijs2005/csvbrowser/internal/dbx"
	"github.com/dmitrijs2005/csvbrowser/internal/server/migrations"
	"github.com/dmitrijs2005/csvbrowser/internal/server/repositories/files"
	"github.com/dmitrijs2005/csvbrowser/internal/server/repositories/users"
	"github.com/pressly/goose/v3"
)

// SQLRepositoryManager vends repositories bound to one dialect and exposes
// a schema migration hook.
type SQLRepositoryManager struct {
	dialect dbx.Dialect
}

// Users returns a users.Repository bound to the provided DBTX.
func (m *SQLRepositoryManager) Users(db dbx.DBTX) users.Repository {
	return users.NewSQLRepository(dbx.Rebind(db, m.dialect))
}

// Files returns a files.Repository bound to the provided DBTX.
func (m *SQLRepositoryManager) Files(db dbx.DBTX) files.Repository {
	return files.NewSQLRepository(dbx.Rebind(db, m.dialect))
}

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

func (m *SQLRepositoryManager) migrationsFS() (fs.FS, string) {
	if m.dialect == dbx.SQLite {
		return migrations.SQLite, "sqlite"
	}
	return migrations.Postgres, "postgres"
}

// RunMigrations sets up goose with the embedded migrations of the manager's
// dialect and runs them against the provided database connection.
func (m *SQLRepositoryManager) RunMigrations(ctx context.Context, db *sql.DB) error {
	fsys, dir := m.migrationsFS()

	goose.SetBaseFS(fsys)
	if err := goose.SetDialect(m.dialect.Goose); err != nil {
		return fmt.Errorf("goose dialect: %w", err)
	}
	if err := gooseUpContext(ctx, db, dir); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

// NewSQLRepositoryManager constructs a RepositoryManager for dialect.
func NewSQLRepositoryManager(dialect dbx.Dialect) (RepositoryManager, error) {
	if dialect != dbx.Postgres && dialect != dbx.SQLite {
		return nil, fmt.Errorf("%w: %q", dbx.ErrUnsupportedDSN, dialect.Name)
	}
	return &SQLRepositoryManager{dialect: dialect}, nil
}
