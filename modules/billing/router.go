package billing

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Handle returns the module's router, ready to be mounted at the site root.
func (m *Module) Handle() http.Handler {
	r := chi.NewRouter()

	r.Group(func(r chi.Router) {
		r.Use(m.requireUser)
		r.Post("/subscriptions", m.handleSubscribe)
		r.Get("/users/{username}/edit", m.handleProfileEdit)
	})

	r.Post("/webhooks/stripe", m.handleWebhook)

	return r
}
