// Package server serves a directory tree over HTTP under a mount path.
package server

import (
	"context"
	"errors"
	"fmt"
	stdlog "log"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/dhnt/qrserve/internal/logger"
)

const (
	readHeaderTimeout = 10 * time.Second
	shutdownTimeout   = 5 * time.Second
)

type Server struct {
	cfg *ServerConfig
	log *logger.Logger
}

func New(cfg *ServerConfig, log *logger.Logger) *Server {
	return &Server{cfg: cfg, log: log}
}

// Listen binds the configured port on every interface. The wildcard
// address yields a dual-stack socket where IPv4-mapped IPv6 is supported.
func Listen(cfg *ServerConfig) (net.Listener, error) {
	ln, err := net.Listen("tcp", cfg.BindAddr())
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", cfg.BindAddr(), err)
	}
	return ln, nil
}

// Handler routes every path to the file handler, which answers 404 for
// anything outside the mount path.
func (s *Server) Handler() http.Handler {
	router := chi.NewRouter()
	router.Use(withRequestID(s.log), withAccessLog, middleware.Recoverer)

	fh := NewFileHandler(s.cfg.MountPath(), s.cfg.ServeFrom())
	router.Handle("/", fh)
	router.Handle("/*", fh)

	return router
}

// Serve accepts connections on ln until ctx is done, then shuts down
// gracefully. It returns nil after a clean shutdown.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	hs := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: readHeaderTimeout,
		ErrorLog:          stdlog.New(s.log, "", 0),
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- hs.Serve(ln)
	}()

	select {
	case <-ctx.Done():
		s.log.Info().Msg("server shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := hs.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	case err := <-errCh:
		if err == nil || errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
