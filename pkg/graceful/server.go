// Package graceful runs an HTTP server until its context ends, then drains it.
package graceful

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"
)

// Server drains in-flight requests for up to drain once its context ends.
type Server struct {
	srv   *http.Server
	log   *slog.Logger
	drain time.Duration
	addr  chan net.Addr
}

func NewServer(log *slog.Logger, srv *http.Server, drain time.Duration) *Server {
	if log == nil {
		log = slog.Default()
	}
	return &Server{srv: srv, log: log, drain: drain, addr: make(chan net.Addr, 1)}
}

// Ready delivers the bound address once, after the listener opened. Useful
// with ":0" addresses.
func (s *Server) Ready() <-chan net.Addr {
	return s.addr
}

// ListenAndServe blocks until ctx is done or the server fails. A clean drain
// returns nil.
func (s *Server) ListenAndServe(ctx context.Context) error {
	if s.srv == nil {
		return nil
	}

	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", s.srv.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.srv.Addr, err)
	}
	s.addr <- ln.Addr()
	s.log.Info("http server listening", slog.String("addr", ln.Addr().String()))

	served := make(chan error, 1)
	go func() { served <- s.srv.Serve(ln) }()

	select {
	case err := <-served:
		s.log.Error("http server stopped unexpectedly", slog.Any("error", err))
		return err
	case <-ctx.Done():
	}

	drainCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.drain)
	defer cancel()

	s.log.Info("draining http server", slog.Duration("timeout", s.drain))
	if err := s.srv.Shutdown(drainCtx); err != nil {
		return fmt.Errorf("drain http server: %w", err)
	}
	if err := <-served; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
