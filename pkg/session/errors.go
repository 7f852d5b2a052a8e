package session

import "errors"

var (
	// ErrSessionNotFound indicates no session exists for the presented token.
	ErrSessionNotFound = errors.New("session not found")
	// ErrSessionExpired indicates the session exists but is past its ExpiresAt.
	ErrSessionExpired = errors.New("session expired")
	// ErrInvalidSession indicates a nil or malformed session value.
	ErrInvalidSession = errors.New("invalid session")
)
