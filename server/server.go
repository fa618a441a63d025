// Package server exposes coinframe payloads over plain net/http handlers.
//
// Every handler goes through the refresh coordinator, so page views, frame
// images and OG cards share one cached payload per selector and never
// stampede the upstream API.
package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/dailyyoga/coinframe/db"
	"github.com/dailyyoga/coinframe/logger"
	"github.com/dailyyoga/coinframe/payload"
	"github.com/dailyyoga/coinframe/refresh"
	"github.com/dailyyoga/coinframe/routine"
	"go.uber.org/zap"
)

// Resolver returns the live payload for a selector and how it was obtained
type Resolver interface {
	Resolve(ctx context.Context, sel payload.Selector) (*payload.Payload, refresh.Outcome, error)
}

// Pinger reports whether the backing store is reachable
type Pinger interface {
	Ping(ctx context.Context) error
}

// History lists archived snapshots, newest first
type History interface {
	Recent(ctx context.Context, limit int) ([]db.Snapshot, error)
}

// Option configures a Server
type Option func(*Server)

// WithHistory enables /api/history
func WithHistory(h History) Option {
	return func(s *Server) {
		s.history = h
	}
}

// Server serves the coinframe HTTP routes
type Server struct {
	logger   logger.Logger
	cfg      Config
	resolver Resolver
	pinger   Pinger
	history  History
	page     *pageRenderer
}

// New creates a Server
func New(log logger.Logger, cfg *Config, resolver Resolver, pinger Pinger, opts ...Option) (*Server, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	} else {
		cfg = cfg.MergeDefaults()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if resolver == nil || pinger == nil {
		return nil, ErrInvalidConfig("resolver and pinger are required")
	}

	page, err := newPageRenderer()
	if err != nil {
		return nil, err
	}

	s := &Server{
		logger:   log,
		cfg:      *cfg,
		resolver: resolver,
		pinger:   pinger,
		page:     page,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Handler returns the route table
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /api/random-coin", s.handleRandomCoin)
	mux.HandleFunc("GET /api/frame-image", s.handleFrameImage)
	mux.HandleFunc("GET /api/og", s.handleOG)
	mux.HandleFunc("GET /api/history", s.handleHistory)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	return s.accessLog(mux)
}

// Run serves until ctx is canceled, then shuts down gracefully
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return errListen(s.cfg.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve is Run on an existing listener
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: s.cfg.ReadHeaderTimeout,
		WriteTimeout:      s.cfg.WriteTimeout,
		IdleTimeout:       s.cfg.IdleTimeout,
	}

	errCh := make(chan error, 1)
	routine.GoNamed(s.logger, "http-server", func() {
		defer close(errCh)
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	})
	s.logger.Info("http server listening", zap.String("addr", ln.Addr().String()))

	select {
	case err := <-errCh:
		if err != nil {
			return errListen(ln.Addr().String(), err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return errShutdown(err)
	}
	s.logger.Info("http server stopped")
	return nil
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.logger.Debug("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Duration("duration", time.Since(start)),
		)
	})
}
