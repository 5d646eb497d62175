package http

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"
)

// Timeouts bound the phases of a feed connection. Zero fields take the
// value from DefaultTimeouts.
type Timeouts struct {
	// ReadHeader limits how long a client may take to send request headers.
	ReadHeader time.Duration
	// Idle limits how long a keep-alive connection waits for the next request.
	Idle time.Duration
	// Shutdown limits how long in-flight requests may drain once the
	// server is told to stop.
	Shutdown time.Duration
}

// DefaultTimeouts returns the timeouts used for unset fields. Feed
// responses are single JSON documents, so no write timeout is applied
// beyond what the handler itself bounds.
func DefaultTimeouts() Timeouts {
	return Timeouts{
		ReadHeader: 10 * time.Second,
		Idle:       120 * time.Second,
		Shutdown:   30 * time.Second,
	}
}

func (t Timeouts) withDefaults() Timeouts {
	d := DefaultTimeouts()
	if t.ReadHeader <= 0 {
		t.ReadHeader = d.ReadHeader
	}
	if t.Idle <= 0 {
		t.Idle = d.Idle
	}
	if t.Shutdown <= 0 {
		t.Shutdown = d.Shutdown
	}
	return t
}

// Server runs the feed handler until its context ends, then drains
// in-flight requests.
type Server struct {
	srv      *http.Server
	addr     string
	timeouts Timeouts
	logger   *slog.Logger
}

// ServerOption configures a Server.
type ServerOption func(*Server)

// WithAddr sets the listen address used by Run (default ":8080").
func WithAddr(addr string) ServerOption {
	return func(s *Server) { s.addr = addr }
}

// WithTimeouts sets the connection timeouts.
func WithTimeouts(t Timeouts) ServerOption {
	return func(s *Server) { s.timeouts = t }
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) ServerOption {
	return func(s *Server) { s.logger = l }
}

// NewServer creates a server for handler, normally Adapter.Handler().
func NewServer(handler http.Handler, opts ...ServerOption) *Server {
	s := &Server{addr: ":8080", logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	s.timeouts = s.timeouts.withDefaults()
	if s.logger == nil {
		s.logger = slog.Default()
	}

	s.srv = &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: s.timeouts.ReadHeader,
		IdleTimeout:       s.timeouts.Idle,
		ErrorLog:          slog.NewLogLogger(s.logger.Handler(), slog.LevelWarn),
	}
	return s
}

// Run listens on the configured address and serves until ctx ends.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", s.addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx ends or serving fails. When ctx ends it
// waits up to the shutdown timeout for in-flight requests. A server
// stopped through Shutdown returns nil.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.logger.Info("feed server listening", "addr", ln.Addr().String())

	errCh := make(chan error, 1)
	go func() { errCh <- s.srv.Serve(ln) }()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}
	return s.drain()
}

func (s *Server) drain() error {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeouts.Shutdown)
	defer cancel()

	s.logger.Info("draining in-flight requests", "timeout", s.timeouts.Shutdown)
	if err := s.srv.Shutdown(ctx); err != nil {
		s.logger.Error("shutdown incomplete", "error", err)
		return err
	}
	s.logger.Info("feed server stopped")
	return nil
}

// Shutdown stops accepting connections and waits for in-flight requests
// until ctx ends.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
