// Package server initializes and runs the CSV browser backend.
// It opens the database and runs migrations, selects the blob storage
// backend, wires the services and serves HTTP until a shutdown signal.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrijs2005/csvbrowser/internal/dbx"
	"github.com/dmitrijs2005/csvbrowser/internal/logging"
	"github.com/dmitrijs2005/csvbrowser/internal/server/auth"
	"github.com/dmitrijs2005/csvbrowser/internal/server/blobstore"
	"github.com/dmitrijs2005/csvbrowser/internal/server/config"
	"github.com/dmitrijs2005/csvbrowser/internal/server/httpapi"
	"github.com/dmitrijs2005/csvbrowser/internal/server/metrics"
	"github.com/dmitrijs2005/csvbrowser/internal/server/notify"
	"github.com/dmitrijs2005/csvbrowser/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/csvbrowser/internal/server/services"
)

type App struct {
	config   *config.Config
	logger   logging.Logger
	db       *sql.DB
	registry *notify.Registry
	http     *httpapi.HTTPServer
}

// NewLogger builds the process logger from configuration.
func NewLogger(c *config.Config) logging.Logger {
	return logging.New(logging.Config{
		Backend: c.LogBackend,
		Format:  c.LogFormat,
		Level:   c.LogLevel,
		Output:  os.Stdout,
	})
}

// OpenStore opens the database named by c.DatabaseDSN and brings its schema
// up to date.
func OpenStore(ctx context.Context, c *config.Config) (*sql.DB, repomanager.RepositoryManager, error) {
	db, dialect, err := dbx.Open(c.DatabaseDSN)
	if err != nil {
		return nil, nil, fmt.Errorf("db init error: %w", err)
	}

	rm, err := repomanager.NewSQLRepositoryManager(dialect)
	if err != nil {
		_ = db.Close()
		return nil, nil, err
	}

	if err := rm.RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, nil, err
	}

	return db, rm, nil
}

func newBlobStore(ctx context.Context, c *config.Config) (blobstore.Store, error) {
	if c.StorageBackend == "s3" {
		return blobstore.NewS3Store(ctx, blobstore.S3Config{
			AccessKey:    c.S3RootUser,
			SecretKey:    c.S3RootPassword,
			Bucket:       c.S3Bucket,
			Region:       c.S3Region,
			BaseEndpoint: c.S3BaseEndpoint,
		})
	}
	return blobstore.NewLocalStore(c.UploadDir)
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger := NewLogger(c)

	db, rm, err := OpenStore(ctx, c)
	if err != nil {
		return nil, err
	}

	store, err := newBlobStore(ctx, c)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("storage init error: %w", err)
	}

	tokens, err := auth.NewTokenService([]byte(c.SecretKey), c.JWTAlgorithm, c.AccessTokenValidityDuration)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	hasher := auth.NewPasswordHasher(c.BcryptCost)

	authSvc, err := services.NewAuthService(db, rm, hasher, tokens, logger.With("module", "auth"))
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	svc := httpapi.Services{
		Auth:      authSvc,
		Gate:      services.NewGate(db, rm, tokens, logger.With("module", "gate")),
		Files:     services.NewFileService(db, rm, store, logger.With("module", "files")),
		Directory: services.NewDirectoryService(db, rm, store, logger.With("module", "directory")),
	}

	registry := notify.NewRegistry(logger.With("module", "notify"), notify.WithMetrics(metrics.Notify{}))

	h := httpapi.NewHTTPServer(c.HTTPAddr, logger, svc, registry, httpapi.Options{
		CORSOrigins:     c.CORSOrigins,
		MaxUploadSize:   c.MaxUploadSize,
		LoginRateLimit:  c.LoginRateLimit,
		ShutdownTimeout: c.ShutdownTimeout,
	})

	return &App{config: c, logger: logger, db: db, registry: registry, http: h}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

// Run serves until ctx is cancelled or a termination signal arrives.
func (app *App) Run(ctx context.Context) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...", "storage", app.config.StorageBackend)

	app.initSignalHandler(cancelFunc)

	err := app.http.Run(ctx)
	if err != nil {
		app.logger.Error(ctx, "http server", "error", err)
	}

	if cerr := app.db.Close(); cerr != nil {
		app.logger.Error(ctx, "close db", "error", cerr)
	}

	app.logger.Info(ctx, "Stopped")
	return err
}
