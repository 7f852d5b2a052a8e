// Package billing exposes the subscription slice over HTTP: the subscribe
// endpoint, the profile page with the billing box, and the provider webhook
// receiver.
package billing

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/devdocs/payments/pkg/session"
	"github.com/devdocs/payments/svc/subscription"
	"github.com/devdocs/payments/svc/user"
)

// Module wires the subscription service into HTTP handlers.
type Module struct {
	svc      *subscription.Service
	users    user.Store
	sessions *session.Manager
	log      *slog.Logger
}

// NewModule creates the billing HTTP module.
func NewModule(svc *subscription.Service, users user.Store, sessions *session.Manager, log *slog.Logger) *Module {
	switch {
	case svc == nil:
		panic("billing: nil subscription service")
	case users == nil:
		panic("billing: nil user store")
	case sessions == nil:
		panic("billing: nil session manager")
	}
	if log == nil {
		log = slog.Default()
	}
	return &Module{svc: svc, users: users, sessions: sessions, log: log}
}

type ctxKey struct{}

// userFromContext returns the authenticated user set by requireUser.
func userFromContext(ctx context.Context) (*user.User, bool) {
	u, ok := ctx.Value(ctxKey{}).(*user.User)
	return u, ok
}

// requireUser resolves the session cookie to a user account and stores it in
// the request context. Unauthenticated requests get 401.
func (m *Module) requireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, err := m.sessions.Resolve(r)
		if err != nil {
			http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
			return
		}
		u, err := m.users.ByID(r.Context(), sess.UserID)
		if err != nil {
			http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
			return
		}
		ctx := context.WithValue(r.Context(), ctxKey{}, u)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
