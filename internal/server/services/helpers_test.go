package services

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"io"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/csvbrowser/internal/dbx"
	"github.com/dmitrijs2005/csvbrowser/internal/logging"
	"github.com/dmitrijs2005/csvbrowser/internal/server/auth"
	"github.com/dmitrijs2005/csvbrowser/internal/server/blobstore"
	"github.com/dmitrijs2005/csvbrowser/internal/server/repositories/repomanager"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type env struct {
	db     *sql.DB
	rm     repomanager.RepositoryManager
	store  *blobstore.LocalStore
	log    logging.Logger
	tokens *auth.TokenService
	hasher *auth.PasswordHasher
}

func newEnv(t *testing.T) *env {
	t.Helper()

	dir := t.TempDir()
	db, dialect, err := dbx.Open("sqlite://" + filepath.Join(dir, "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	rm, err := repomanager.NewSQLRepositoryManager(dialect)
	require.NoError(t, err)
	require.NoError(t, rm.RunMigrations(context.Background(), db))

	store, err := blobstore.NewLocalStore(filepath.Join(dir, "uploads"))
	require.NoError(t, err)

	tokens, err := auth.NewTokenService([]byte("test-secret"), "HS256", 30*time.Minute)
	require.NoError(t, err)

	return &env{
		db:     db,
		rm:     rm,
		store:  store,
		log:    logging.NewSlogFromConfig(io.Discard, "text", "error"),
		tokens: tokens,
		hasher: auth.NewPasswordHasher(bcrypt.MinCost),
	}
}

func (e *env) authService(t *testing.T) *AuthService {
	t.Helper()
	s, err := NewAuthService(e.db, e.rm, e.hasher, e.tokens, e.log)
	require.NoError(t, err)
	return s
}

// flakyStore wraps a real store and can be told to fail selected calls.
type flakyStore struct {
	blobstore.Store

	mu      sync.Mutex
	failGet bool
	failPut bool
	failDel bool
	badBody bool
	deleted []string
}

var errInjected = errors.New("injected")

func (f *flakyStore) Put(ctx context.Context, key string, r io.Reader) (int64, error) {
	f.mu.Lock()
	fail := f.failPut
	f.mu.Unlock()
	if fail {
		return 0, errInjected
	}
	return f.Store.Put(ctx, key, r)
}

func (f *flakyStore) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	f.mu.Lock()
	fail, bad := f.failGet, f.badBody
	f.mu.Unlock()
	if fail {
		return nil, errInjected
	}
	if bad {
		return io.NopCloser(brokenReader{}), nil
	}
	return f.Store.Get(ctx, key)
}

func (f *flakyStore) Delete(ctx context.Context, key string) error {
	f.mu.Lock()
	f.deleted = append(f.deleted, key)
	fail := f.failDel
	f.mu.Unlock()
	if fail {
		return errInjected
	}
	return f.Store.Delete(ctx, key)
}

type brokenReader struct{}

func (brokenReader) Read([]byte) (int, error) { return 0, io.ErrUnexpectedEOF }

func csvBody(s string) io.Reader { return bytes.NewBufferString(s) }
