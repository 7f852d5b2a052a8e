package billing

import (
	"embed"
	"errors"
	"html/template"
	"io"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"github.com/devdocs/payments/pkg/billing"
	"github.com/devdocs/payments/svc/subscription"
	"github.com/devdocs/payments/svc/user"
)

//go:embed templates/*.html
var templateFS embed.FS

var profileTmpl = template.Must(template.ParseFS(templateFS, "templates/profile.html"))

// maxWebhookBody caps inbound webhook payloads; real provider events are a
// few KB at most.
const maxWebhookBody = 1 << 20

// handleSubscribe starts a paid subscription from the posted payment token
// and redirects back to the profile's subscription box.
func (m *Module) handleSubscribe(w http.ResponseWriter, r *http.Request) {
	u, ok := userFromContext(r.Context())
	if !ok {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	token := r.PostFormValue("stripe_token")
	payerEmail := r.PostFormValue("stripe_email")

	if _, err := m.svc.Subscribe(r.Context(), u, token, payerEmail); err != nil {
		switch {
		case errors.Is(err, subscription.ErrFeatureDisabled):
			http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
		case errors.Is(err, subscription.ErrMissingToken):
			http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		default:
			m.log.ErrorContext(r.Context(), "subscription creation failed",
				slog.String("user_id", u.ID.String()), slog.Any("error", err))
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		}
		return
	}

	http.Redirect(w, r, "/users/"+url.PathEscape(u.Username)+"/edit#subscription", http.StatusFound)
}

// handleProfileEdit renders the account page with the billing box. Users can
// only view their own page.
func (m *Module) handleProfileEdit(w http.ResponseWriter, r *http.Request) {
	u, ok := userFromContext(r.Context())
	if !ok {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}
	if chi.URLParam(r, "username") != u.Username {
		http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
		return
	}

	data := struct {
		User    *user.User
		Billing subscription.Overview
	}{
		User:    u,
		Billing: m.svc.Overview(r.Context(), u),
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := profileTmpl.Execute(w, data); err != nil {
		m.log.ErrorContext(r.Context(), "profile render failed",
			slog.String("user_id", u.ID.String()), slog.Any("error", err))
	}
}

// handleWebhook receives provider events. Parse, verification and
// unknown-type failures all collapse to 400; successful dispatch answers 200
// with an empty body.
func (m *Module) handleWebhook(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBody))
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	err = m.svc.ProcessEvent(r.Context(), payload, r.Header.Get("Stripe-Signature"))
	if err != nil {
		switch {
		case errors.Is(err, billing.ErrMalformedEvent),
			errors.Is(err, billing.ErrEventVerificationFailed),
			errors.Is(err, billing.ErrUnrecognizedEventType):
			// All rejection causes collapse to a bare 400; details go to
			// the log only.
			m.log.WarnContext(r.Context(), "webhook rejected", slog.Any("error", err))
			w.WriteHeader(http.StatusBadRequest)
		default:
			m.log.ErrorContext(r.Context(), "webhook processing failed", slog.Any("error", err))
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		}
		return
	}

	w.WriteHeader(http.StatusOK)
}
