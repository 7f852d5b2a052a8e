// Package session provides cookie-backed user sessions with pluggable
// storage. A Manager issues opaque tokens, stores session state in a Store
// (in-memory or Redis) and moves the token between client and server through
// an HTTP cookie.
package session
