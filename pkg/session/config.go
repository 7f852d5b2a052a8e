package session

import "time"

type Config struct {
	CookieName string        `env:"SESSION_COOKIE_NAME" envDefault:"session_token"` // CookieName is the name of the session cookie.
	TTL        time.Duration `env:"SESSION_TTL" envDefault:"720h"`                  // TTL is how long a session stays valid after creation.
	Secure     bool          `env:"SESSION_COOKIE_SECURE" envDefault:"false"`       // Secure marks the cookie as HTTPS-only.
}
