package httpserver

import "errors"

var (
	// ErrStart wraps listener failures and abnormal server exits.
	ErrStart = errors.New("http server failed to start")
	// ErrShutdown wraps errors from the graceful shutdown path.
	ErrShutdown = errors.New("http server shutdown failed")
)
