// Package httpapi exposes the CSV browser over HTTP: JSON endpoints for
// authentication, CSV files and user administration, plus the websocket
// push channel.
package httpapi

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/dmitrijs2005/csvbrowser/internal/logging"
	"github.com/dmitrijs2005/csvbrowser/internal/server/notify"
	"github.com/dmitrijs2005/csvbrowser/internal/server/services"
	"github.com/go-playground/validator/v10"
	"github.com/gorilla/websocket"
)

const (
	readHeaderTimeout = 10 * time.Second
	handshakeTimeout  = 10 * time.Second
	multipartMemory   = 8 << 20
)

// Services bundles the business logic the handlers call into.
type Services struct {
	Auth      *services.AuthService
	Gate      *services.Gate
	Files     *services.FileService
	Directory *services.DirectoryService
}

// Options are the transport level knobs taken from configuration.
type Options struct {
	CORSOrigins     []string
	MaxUploadSize   int64
	LoginRateLimit  int // requests per minute per client IP, 0 disables
	ShutdownTimeout time.Duration
}

type HTTPServer struct {
	address  string
	logger   logging.Logger
	svc      Services
	registry *notify.Registry
	opts     Options
	validate *validator.Validate
	upgrader websocket.Upgrader
}

func NewHTTPServer(addr string, l logging.Logger, svc Services, reg *notify.Registry, opts Options) *HTTPServer {
	s := &HTTPServer{
		address:  addr,
		logger:   l.With("module", "http_server"),
		svc:      svc,
		registry: reg,
		opts:     opts,
		validate: newValidator(),
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:   1024,
		WriteBufferSize:  1024,
		HandshakeTimeout: handshakeTimeout,
		CheckOrigin:      s.checkOrigin,
	}
	return s
}

// Run serves until ctx is done, then shuts down gracefully within
// Options.ShutdownTimeout. Push connections are hijacked and not covered by
// Shutdown; they are closed through the registry afterwards.
func (s *HTTPServer) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}
	return s.Serve(ctx, listen)
}

// Serve is Run on an existing listener.
func (s *HTTPServer) Serve(ctx context.Context, listen net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: readHeaderTimeout,
	}

	done := make(chan error, 1)
	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.opts.ShutdownTimeout)
		defer cancel()

		err := srv.Shutdown(shutdownCtx)
		s.registry.CloseAll()
		done <- err
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", listen.Addr().String())

	if err := srv.Serve(listen); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return <-done
}
