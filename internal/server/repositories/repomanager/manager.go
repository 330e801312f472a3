package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/csvbrowser/internal/dbx"
	"github.com/dmitrijs2005/csvbrowser/internal/server/repositories/files"
	"github.com/dmitrijs2005/csvbrowser/internal/server/repositories/users"
)

type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	Files(db dbx.DBTX) files.Repository
}
