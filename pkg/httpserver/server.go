package httpserver

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
)

// Server runs one http.Server with graceful shutdown tied to OS signals
// and the caller's context.
type Server struct {
	cfg       Config
	log       *slog.Logger
	startHook func(*slog.Logger)
	stopHook  func(*slog.Logger)

	mu       sync.Mutex
	inner    *http.Server
	shutOnce sync.Once
}

// New builds a server from cfg. Zero Config fields fall back to the env
// defaults declared on Config.
func New(cfg Config, opts ...Option) *Server {
	s := &Server{cfg: cfg.withDefaults()}
	for _, opt := range opts {
		opt(s)
	}
	if s.log == nil {
		s.log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return s
}

// Run serves handler until ctx is canceled, SIGINT or SIGTERM arrives, or
// the listener fails. Listener failures come back wrapped with ErrStart.
func (s *Server) Run(ctx context.Context, handler http.Handler) error {
	if handler == nil {
		handler = http.NotFoundHandler()
	}

	s.mu.Lock()
	if s.inner != nil {
		s.mu.Unlock()
		return errors.Join(ErrStart, errors.New("already running"))
	}
	srv := &http.Server{
		Addr:         s.cfg.Addr,
		Handler:      handler,
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
		IdleTimeout:  s.cfg.IdleTimeout,
	}
	s.inner = srv
	s.mu.Unlock()

	if s.startHook != nil {
		s.startHook(s.log)
	}

	sigCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	var err error
	select {
	case <-sigCtx.Done():
		_ = s.Shutdown(context.Background())
		err = <-errCh
	case err = <-errCh:
	}

	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Join(ErrStart, err)
	}
	return nil
}

// Shutdown drains in-flight requests within the configured shutdown window
// and then fires the stop hook. Repeated calls are no-ops.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutOnce.Do(func() {
		s.mu.Lock()
		srv := s.inner
		s.mu.Unlock()
		if srv == nil {
			return
		}

		ctx, cancel := context.WithTimeout(ctx, s.cfg.ShutdownTimeout)
		defer cancel()
		err = srv.Shutdown(ctx)

		if s.stopHook != nil {
			s.stopHook(s.log)
		}
	})

	if err != nil {
		return errors.Join(ErrShutdown, err)
	}
	return nil
}
