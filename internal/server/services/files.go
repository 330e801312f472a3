package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/dmitrijs2005/csvbrowser/internal/common"
	"github.com/dmitrijs2005/csvbrowser/internal/logging"
	"github.com/dmitrijs2005/csvbrowser/internal/server/blobstore"
	"github.com/dmitrijs2005/csvbrowser/internal/server/models"
	"github.com/dmitrijs2005/csvbrowser/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/csvbrowser/internal/server/tabular"
	"github.com/google/uuid"
)

// NewStorageKey returns a collision-free blob key that is independent of
// the display name.
func NewStorageKey() string {
	return uuid.NewString() + common.CSVExtension
}

// FileService stores CSV payloads in a blob store and their metadata in the
// database.
type FileService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	store       blobstore.Store
	log         logging.Logger
	newKey      func() string
}

func NewFileService(db *sql.DB, m repomanager.RepositoryManager, store blobstore.Store, log logging.Logger) *FileService {
	return &FileService{db: db, repomanager: m, store: store, log: log, newKey: NewStorageKey}
}

// HasCSVSuffix reports whether name ends in .csv, ignoring case.
func HasCSVSuffix(name string) bool {
	return strings.HasSuffix(strings.ToLower(name), common.CSVExtension)
}

// Upload persists r and records its metadata. The stored size is the byte
// count the blob store actually wrote. If the metadata insert fails the blob
// is removed again.
func (s *FileService) Upload(ctx context.Context, name string, r io.Reader, ownerID int64) (*models.File, error) {
	name = path.Base(strings.ReplaceAll(name, "\\", "/"))
	if !HasCSVSuffix(name) {
		return nil, fmt.Errorf("%w: file must be a CSV file", common.ErrorInvalidFormat)
	}

	key := s.newKey()
	size, err := s.store.Put(ctx, key, r)
	if err != nil {
		s.log.Error(ctx, "store upload", "key", key, "error", err)
		return nil, fmt.Errorf("%w: %v", common.ErrorStorage, err)
	}

	repo := s.repomanager.Files(s.db)
	f, err := repo.Create(ctx, &models.File{FileName: name, StorageKey: key, Size: size, UploadedBy: ownerID})
	if err != nil {
		if derr := s.store.Delete(ctx, key); derr != nil {
			s.log.Warn(ctx, "orphan blob after failed insert", "key", key, "error", derr)
		}
		s.log.Error(ctx, "insert file metadata", "error", err)
		return nil, fmt.Errorf("%w: %v", common.ErrorStorage, err)
	}

	s.log.Info(ctx, "file uploaded", "file_id", f.ID, "size", f.Size, "owner", ownerID)
	return f, nil
}

// List returns all files, newest first.
func (s *FileService) List(ctx context.Context) ([]models.File, error) {
	files, err := s.repomanager.Files(s.db).List(ctx)
	if err != nil {
		s.log.Error(ctx, "list files", "error", err)
		return nil, common.ErrorInternal
	}
	return files, nil
}

// Read loads and parses a file. A record whose bytes are gone is a storage
// failure, not a missing file.
func (s *FileService) Read(ctx context.Context, id int64) (*models.TableView, error) {
	f, err := s.repomanager.Files(s.db).Get(ctx, id)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, err
		}
		s.log.Error(ctx, "get file", "file_id", id, "error", err)
		return nil, common.ErrorInternal
	}

	rc, err := s.store.Get(ctx, f.StorageKey)
	if err != nil {
		s.log.Error(ctx, "open blob", "file_id", id, "key", f.StorageKey, "error", err)
		return nil, fmt.Errorf("%w: %v", common.ErrorStorage, err)
	}
	defer rc.Close()

	table, err := tabular.Parse(rc)
	if err != nil {
		return nil, err
	}

	return &models.TableView{
		FileName:  f.FileName,
		Headers:   table.Headers,
		Rows:      table.Rows,
		TotalRows: len(table.Rows),
	}, nil
}

// Delete removes the blob (best effort, a missing blob is fine) and then the
// metadata record. Only a missing record is reported.
func (s *FileService) Delete(ctx context.Context, id int64) error {
	repo := s.repomanager.Files(s.db)

	f, err := repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return err
		}
		s.log.Error(ctx, "get file", "file_id", id, "error", err)
		return common.ErrorInternal
	}

	s.removeBlob(ctx, f.StorageKey)

	if err := repo.Delete(ctx, id); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return err
		}
		s.log.Error(ctx, "delete file metadata", "file_id", id, "error", err)
		return common.ErrorInternal
	}

	s.log.Info(ctx, "file deleted", "file_id", id)
	return nil
}

func (s *FileService) removeBlob(ctx context.Context, key string) {
	err := s.store.Delete(ctx, key)
	if err == nil || errors.Is(err, common.ErrorNotFound) {
		return
	}
	s.log.Warn(ctx, "remove blob", "key", key, "error", err)
}
