package services

import (
	"context"
	"database/sql"
	"errors"

	"github.com/dmitrijs2005/csvbrowser/internal/common"
	"github.com/dmitrijs2005/csvbrowser/internal/dbx"
	"github.com/dmitrijs2005/csvbrowser/internal/logging"
	"github.com/dmitrijs2005/csvbrowser/internal/server/blobstore"
	"github.com/dmitrijs2005/csvbrowser/internal/server/models"
	"github.com/dmitrijs2005/csvbrowser/internal/server/repositories/repomanager"
)

// DirectoryService lists and removes accounts.
type DirectoryService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	store       blobstore.Store
	log         logging.Logger
}

func NewDirectoryService(db *sql.DB, m repomanager.RepositoryManager, store blobstore.Store, log logging.Logger) *DirectoryService {
	return &DirectoryService{db: db, repomanager: m, store: store, log: log}
}

func (s *DirectoryService) ListAll(ctx context.Context) ([]models.User, error) {
	users, err := s.repomanager.Users(s.db).List(ctx)
	if err != nil {
		s.log.Error(ctx, "list users", "error", err)
		return nil, common.ErrorInternal
	}
	return users, nil
}

// Remove deletes account id on behalf of requesterID. Self-deletion is
// refused before any storage access. The owner's file records go with the
// account by cascade; their blobs are removed afterwards on a best effort
// basis.
func (s *DirectoryService) Remove(ctx context.Context, id, requesterID int64) error {
	if id == requesterID {
		return common.ErrorSelfDeletion
	}

	var keys []string
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		var err error
		keys, err = s.repomanager.Files(tx).StorageKeysByOwner(ctx, id)
		if err != nil {
			return err
		}
		return s.repomanager.Users(tx).Delete(ctx, id)
	})
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return err
		}
		s.log.Error(ctx, "delete user", "user_id", id, "error", err)
		return common.ErrorInternal
	}

	for _, k := range keys {
		if err := s.store.Delete(ctx, k); err != nil && !errors.Is(err, common.ErrorNotFound) {
			s.log.Warn(ctx, "remove blob of deleted user", "user_id", id, "key", k, "error", err)
		}
	}

	s.log.Info(ctx, "user deleted", "user_id", id, "files", len(keys))
	return nil
}
