package session

import (
	"net/http"
	"time"

	"github.com/google/uuid"
)

// Manager issues and resolves sessions, carrying the token in an HTTP cookie.
type Manager struct {
	store      Store
	cookieName string
	ttl        time.Duration
	secure     bool
}

// NewManager creates a session manager backed by the given store.
func NewManager(store Store, cfg Config) *Manager {
	if store == nil {
		panic("session: nil store")
	}
	if cfg.CookieName == "" {
		cfg.CookieName = "session_token"
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 30 * 24 * time.Hour
	}
	return &Manager{
		store:      store,
		cookieName: cfg.CookieName,
		ttl:        cfg.TTL,
		secure:     cfg.Secure,
	}
}

// Start creates a session for the user and sets the session cookie.
func (m *Manager) Start(w http.ResponseWriter, r *http.Request, userID uuid.UUID) (*Session, error) {
	sess := New(userID, m.ttl)
	if err := m.store.Create(r.Context(), sess); err != nil {
		return nil, err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     m.cookieName,
		Value:    sess.Token,
		Path:     "/",
		MaxAge:   int(m.ttl.Seconds()),
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return sess, nil
}

// Resolve returns the session for the request's cookie, or ErrSessionNotFound.
func (m *Manager) Resolve(r *http.Request) (*Session, error) {
	c, err := r.Cookie(m.cookieName)
	if err != nil || c.Value == "" {
		return nil, ErrSessionNotFound
	}
	return m.store.Get(r.Context(), c.Value)
}

// Destroy deletes the session referenced by the request cookie and expires it
// on the client.
func (m *Manager) Destroy(w http.ResponseWriter, r *http.Request) error {
	c, err := r.Cookie(m.cookieName)
	if err == nil && c.Value != "" {
		if err := m.store.Delete(r.Context(), c.Value); err != nil {
			return err
		}
	}
	http.SetCookie(w, &http.Cookie{
		Name:     m.cookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}
