package billing_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	modbilling "github.com/devdocs/payments/modules/billing"
	"github.com/devdocs/payments/pkg/billing"
	"github.com/devdocs/payments/pkg/email"
	"github.com/devdocs/payments/pkg/feature"
	"github.com/devdocs/payments/pkg/session"
	"github.com/devdocs/payments/svc/subscription"
	"github.com/devdocs/payments/svc/user"
)

type mockProvider struct {
	mock.Mock
}

func (m *mockProvider) CreateCustomerAndSubscription(ctx context.Context, req billing.SubscribeRequest) (*billing.SubscribeResult, error) {
	args := m.Called(ctx, req)
	if res := args.Get(0); res != nil {
		return res.(*billing.SubscribeResult), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockProvider) GetCustomer(ctx context.Context, customerID string) (*billing.Customer, error) {
	args := m.Called(ctx, customerID)
	if res := args.Get(0); res != nil {
		return res.(*billing.Customer), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockProvider) GetSubscriptionInfo(ctx context.Context, customerID, subscriptionID string) (*billing.SubscriptionInfo, error) {
	args := m.Called(ctx, customerID, subscriptionID)
	if res := args.Get(0); res != nil {
		return res.(*billing.SubscriptionInfo), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockProvider) ConstructEvent(payload []byte, signature string) (*billing.Event, error) {
	args := m.Called(payload, signature)
	if res := args.Get(0); res != nil {
		return res.(*billing.Event), args.Error(1)
	}
	return nil, args.Error(1)
}

type mockMailer struct {
	mock.Mock
}

func (m *mockMailer) SendEmail(ctx context.Context, params email.SendEmailParams) error {
	return m.Called(ctx, params).Error(0)
}

type mockTracker struct {
	mock.Mock
}

func (m *mockTracker) Track(ctx context.Context, category, action, label string) error {
	return m.Called(ctx, category, action, label).Error(0)
}

type env struct {
	handler  http.Handler
	sessions *session.Manager
	records  *subscription.MemoryStore
	users    *user.MemoryStore
	provider *mockProvider
	mailer   *mockMailer
	tracker  *mockTracker
}

func newEnv(t *testing.T, flagEnabled bool) *env {
	t.Helper()

	flags, err := feature.NewMemoryProvider()
	require.NoError(t, err)
	require.NoError(t, flags.SetEnabled(t.Context(), subscription.FlagSubscription, flagEnabled))

	plans, err := subscription.NewStaticSource(subscription.Plan{
		ID: "monthly", Name: "Monthly supporter", PriceID: "price_monthly", AmountUSD: 4.99, Interval: "month",
	})
	require.NoError(t, err)

	e := &env{
		records:  subscription.NewMemoryStore(),
		users:    user.NewMemoryStore(),
		provider: &mockProvider{},
		mailer:   &mockMailer{},
		tracker:  &mockTracker{},
	}
	svc := subscription.NewService(subscription.Deps{
		Flags:     flags,
		Provider:  e.provider,
		Records:   e.records,
		Users:     e.users,
		Mailer:    e.mailer,
		Tracker:   e.tracker,
		Plans:     plans,
		ManageURL: "https://example.com/users/edit",
	})
	e.sessions = session.NewManager(session.NewMemoryStore(), session.Config{CookieName: "sid", TTL: time.Hour})
	e.handler = modbilling.NewModule(svc, e.users, e.sessions, nil).Handle()
	return e
}

// login creates a user and returns the session cookie for it.
func (e *env) login(t *testing.T, username, customerID string) (*user.User, *http.Cookie) {
	t.Helper()

	u := user.New(username, username+"@example.com")
	u.BillingCustomerID = customerID
	require.NoError(t, e.users.Create(t.Context(), u))

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	_, err := e.sessions.Start(w, r, u.ID)
	require.NoError(t, err)
	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	return u, cookies[0]
}

func TestSubscribeEndpoint(t *testing.T) {
	t.Parallel()

	t.Run("requires authentication", func(t *testing.T) {
		t.Parallel()
		e := newEnv(t, true)

		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodPost, "/subscriptions", nil)
		e.handler.ServeHTTP(w, r)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("forbidden when feature disabled", func(t *testing.T) {
		t.Parallel()
		e := newEnv(t, false)
		_, cookie := e.login(t, "testuser", "")

		form := url.Values{"stripe_token": {"tok_visa"}}
		r := httptest.NewRequest(http.MethodPost, "/subscriptions", strings.NewReader(form.Encode()))
		r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		r.AddCookie(cookie)
		w := httptest.NewRecorder()
		e.handler.ServeHTTP(w, r)

		assert.Equal(t, http.StatusForbidden, w.Code)
		e.provider.AssertNotCalled(t, "CreateCustomerAndSubscription")
	})

	t.Run("missing token is a bad request", func(t *testing.T) {
		t.Parallel()
		e := newEnv(t, true)
		_, cookie := e.login(t, "testuser", "")

		r := httptest.NewRequest(http.MethodPost, "/subscriptions", strings.NewReader(""))
		r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		r.AddCookie(cookie)
		w := httptest.NewRecorder()
		e.handler.ServeHTTP(w, r)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("creates subscription and redirects to profile", func(t *testing.T) {
		t.Parallel()
		e := newEnv(t, true)
		u, cookie := e.login(t, "testuser", "")

		e.provider.On("CreateCustomerAndSubscription", mock.Anything, mock.Anything).
			Return(&billing.SubscribeResult{CustomerID: "cus_1", SubscriptionID: "sub_1"}, nil)

		form := url.Values{"stripe_token": {"tok_visa"}}
		r := httptest.NewRequest(http.MethodPost, "/subscriptions", strings.NewReader(form.Encode()))
		r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		r.AddCookie(cookie)
		w := httptest.NewRecorder()
		e.handler.ServeHTTP(w, r)

		assert.Equal(t, http.StatusFound, w.Code)
		location := w.Header().Get("Location")
		assert.Equal(t, "/users/testuser/edit#subscription", location)
		assert.True(t, strings.HasSuffix(location, "#subscription"))

		rec, err := e.records.ActiveForUser(t.Context(), u.ID)
		require.NoError(t, err)
		assert.Equal(t, "sub_1", rec.ProviderSubscriptionID)
	})

	t.Run("payer email override reaches the provider", func(t *testing.T) {
		t.Parallel()
		e := newEnv(t, true)
		u, cookie := e.login(t, "testuser", "")

		e.provider.On("CreateCustomerAndSubscription", mock.Anything, mock.MatchedBy(func(req billing.SubscribeRequest) bool {
			return req.Token == "tok_visa" && req.Email == "payer@example.com"
		})).Return(&billing.SubscribeResult{CustomerID: "cus_1", SubscriptionID: "sub_1"}, nil)

		form := url.Values{"stripe_token": {"tok_visa"}, "stripe_email": {"payer@example.com"}}
		r := httptest.NewRequest(http.MethodPost, "/subscriptions", strings.NewReader(form.Encode()))
		r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		r.AddCookie(cookie)
		w := httptest.NewRecorder()
		e.handler.ServeHTTP(w, r)

		assert.Equal(t, http.StatusFound, w.Code)
		e.provider.AssertExpectations(t)

		stored, err := e.users.ByID(t.Context(), u.ID)
		require.NoError(t, err)
		assert.Equal(t, u.Email, stored.Email, "account email must stay unchanged")
	})

	t.Run("redirect escapes unusual usernames", func(t *testing.T) {
		t.Parallel()
		e := newEnv(t, true)
		_, cookie := e.login(t, "odd/user name", "")

		e.provider.On("CreateCustomerAndSubscription", mock.Anything, mock.Anything).
			Return(&billing.SubscribeResult{CustomerID: "cus_1", SubscriptionID: "sub_1"}, nil)

		form := url.Values{"stripe_token": {"tok_visa"}}
		r := httptest.NewRequest(http.MethodPost, "/subscriptions", strings.NewReader(form.Encode()))
		r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		r.AddCookie(cookie)
		w := httptest.NewRecorder()
		e.handler.ServeHTTP(w, r)

		assert.Equal(t, http.StatusFound, w.Code)
		assert.Equal(t, "/users/"+url.PathEscape("odd/user name")+"/edit#subscription", w.Header().Get("Location"))
	})

	t.Run("provider failure is a server error", func(t *testing.T) {
		t.Parallel()
		e := newEnv(t, true)
		_, cookie := e.login(t, "testuser", "")

		e.provider.On("CreateCustomerAndSubscription", mock.Anything, mock.Anything).
			Return(nil, billing.ErrProviderUnavailable)

		form := url.Values{"stripe_token": {"tok_visa"}}
		r := httptest.NewRequest(http.MethodPost, "/subscriptions", strings.NewReader(form.Encode()))
		r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		r.AddCookie(cookie)
		w := httptest.NewRecorder()
		e.handler.ServeHTTP(w, r)

		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})
}

func TestProfileEditPage(t *testing.T) {
	t.Parallel()

	t.Run("requires authentication", func(t *testing.T) {
		t.Parallel()
		e := newEnv(t, true)

		w := httptest.NewRecorder()
		e.handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/users/testuser/edit", nil))
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("forbids other users' pages", func(t *testing.T) {
		t.Parallel()
		e := newEnv(t, true)
		_, cookie := e.login(t, "testuser", "")

		r := httptest.NewRequest(http.MethodGet, "/users/someone_else/edit", nil)
		r.AddCookie(cookie)
		w := httptest.NewRecorder()
		e.handler.ServeHTTP(w, r)
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("shows stored card", func(t *testing.T) {
		t.Parallel()
		e := newEnv(t, true)
		u, cookie := e.login(t, "testuser", "cus_1")
		require.NoError(t, e.records.Create(t.Context(), subscription.NewRecord(u.ID, "sub_1")))

		e.provider.On("GetCustomer", mock.Anything, "cus_1").Return(&billing.Customer{
			ID:            "cus_1",
			Email:         u.Email,
			DefaultSource: &billing.CardSummary{Brand: "MagicCard", Last4: "4242"},
		}, nil)
		e.provider.On("GetSubscriptionInfo", mock.Anything, "cus_1", "sub_1").
			Return(&billing.SubscriptionInfo{ID: "sub_1", CurrentPeriodEnd: time.Now().Add(30 * 24 * time.Hour)}, nil)

		r := httptest.NewRequest(http.MethodGet, "/users/testuser/edit", nil)
		r.AddCookie(cookie)
		w := httptest.NewRecorder()
		e.handler.ServeHTTP(w, r)

		require.Equal(t, http.StatusOK, w.Code)
		body := w.Body.String()
		assert.Contains(t, body, `class="card-info"`)
		assert.Contains(t, body, "MagicCard ending in 4242")
		assert.NotContains(t, body, "stripe-error")
	})

	t.Run("renders degraded box on provider failure", func(t *testing.T) {
		t.Parallel()
		e := newEnv(t, true)
		u, cookie := e.login(t, "testuser", "cus_1")
		require.NoError(t, e.records.Create(t.Context(), subscription.NewRecord(u.ID, "sub_1")))

		e.provider.On("GetCustomer", mock.Anything, "cus_1").
			Return(nil, billing.ErrProviderUnavailable)

		r := httptest.NewRequest(http.MethodGet, "/users/testuser/edit", nil)
		r.AddCookie(cookie)
		w := httptest.NewRecorder()
		e.handler.ServeHTTP(w, r)

		require.Equal(t, http.StatusOK, w.Code)
		body := w.Body.String()
		assert.Contains(t, body, `class="stripe-error"`)
		assert.NotContains(t, body, "card-info")
	})

	t.Run("offers subscribe form when not subscribed", func(t *testing.T) {
		t.Parallel()
		e := newEnv(t, true)
		_, cookie := e.login(t, "testuser", "")

		r := httptest.NewRequest(http.MethodGet, "/users/testuser/edit", nil)
		r.AddCookie(cookie)
		w := httptest.NewRecorder()
		e.handler.ServeHTTP(w, r)

		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `class="subscribe-form"`)
	})

	t.Run("hides billing box when feature disabled", func(t *testing.T) {
		t.Parallel()
		e := newEnv(t, false)
		_, cookie := e.login(t, "testuser", "")

		r := httptest.NewRequest(http.MethodGet, "/users/testuser/edit", nil)
		r.AddCookie(cookie)
		w := httptest.NewRecorder()
		e.handler.ServeHTTP(w, r)

		require.Equal(t, http.StatusOK, w.Code)
		assert.NotContains(t, w.Body.String(), "subscription-box")
	})
}

func TestWebhookEndpoint(t *testing.T) {
	t.Parallel()

	t.Run("malformed payload", func(t *testing.T) {
		t.Parallel()
		e := newEnv(t, true)

		e.provider.On("ConstructEvent", mock.Anything, mock.Anything).
			Return(nil, billing.ErrMalformedEvent)

		w := httptest.NewRecorder()
		e.handler.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/webhooks/stripe", strings.NewReader("{not json")))
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("verification failure", func(t *testing.T) {
		t.Parallel()
		e := newEnv(t, true)

		e.provider.On("ConstructEvent", mock.Anything, mock.Anything).
			Return(nil, billing.ErrEventVerificationFailed)

		w := httptest.NewRecorder()
		e.handler.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/webhooks/stripe", strings.NewReader("{}")))
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("unrecognized event type", func(t *testing.T) {
		t.Parallel()
		e := newEnv(t, true)

		e.provider.On("ConstructEvent", mock.Anything, mock.Anything).
			Return(&billing.Event{Type: billing.EventUnrecognized, RawType: "not.expected"}, nil)

		w := httptest.NewRecorder()
		e.handler.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/webhooks/stripe", strings.NewReader("{}")))
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("payment succeeded sends one email and answers 200", func(t *testing.T) {
		t.Parallel()
		e := newEnv(t, true)
		u, _ := e.login(t, "testuser", "cus_1")

		e.provider.On("ConstructEvent", mock.Anything, mock.Anything).Return(&billing.Event{
			Type:    billing.EventPaymentSucceeded,
			RawType: string(billing.EventPaymentSucceeded),
			Object: billing.EventObject{
				Customer:    "cus_1",
				Created:     1583842724,
				AmountCents: 499,
				InvoicePDF:  "https://example.com/invoice.pdf",
			},
		}, nil)
		e.mailer.On("SendEmail", mock.Anything, mock.MatchedBy(func(p email.SendEmailParams) bool {
			return p.SendTo == u.Email &&
				strings.Contains(strings.ToLower(p.Subject), "invoice") &&
				strings.Contains(p.BodyHTML, "manage monthly subscriptions")
		})).Return(nil)
		e.tracker.On("Track", mock.Anything,
			subscription.CategoryMonthlyPayments,
			subscription.ActionSubscriptionCreated,
			"4.99").Return(nil)

		w := httptest.NewRecorder()
		e.handler.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/webhooks/stripe", strings.NewReader("{}")))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Empty(t, w.Body.String())
		e.mailer.AssertNumberOfCalls(t, "SendEmail", 1)
		e.tracker.AssertExpectations(t)
	})

	t.Run("cancellation flips record and answers 200", func(t *testing.T) {
		t.Parallel()
		e := newEnv(t, true)
		u, _ := e.login(t, "testuser", "cus_1")
		require.NoError(t, e.records.Create(t.Context(), subscription.NewRecord(u.ID, "sub_1")))

		e.provider.On("ConstructEvent", mock.Anything, mock.Anything).Return(&billing.Event{
			Type:    billing.EventSubscriptionDeleted,
			RawType: string(billing.EventSubscriptionDeleted),
			Object:  billing.EventObject{Customer: "cus_1", SubscriptionID: "sub_1"},
		}, nil)
		e.tracker.On("Track", mock.Anything,
			subscription.CategoryMonthlyPayments,
			subscription.ActionSubscriptionCanceled,
			"webhook").Return(nil)

		w := httptest.NewRecorder()
		e.handler.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/webhooks/stripe", strings.NewReader("{}")))

		assert.Equal(t, http.StatusOK, w.Code)
		rec, err := e.records.Get(t.Context(), u.ID, "sub_1")
		require.NoError(t, err)
		assert.True(t, rec.Canceled)
		e.mailer.AssertNotCalled(t, "SendEmail")
	})
}
