package httpserver

import "log/slog"

// Option tweaks runtime behavior that does not belong in Config.
type Option func(*Server)

// WithLogger sets the logger handed to lifecycle hooks. Without it hooks
// receive a discard logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.log = l
		}
	}
}

// WithStartHook runs fn right before the server starts listening.
func WithStartHook(fn func(*slog.Logger)) Option {
	return func(s *Server) { s.startHook = fn }
}

// WithStopHook runs fn after graceful shutdown completes.
func WithStopHook(fn func(*slog.Logger)) Option {
	return func(s *Server) { s.stopHook = fn }
}
