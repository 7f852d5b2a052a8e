package subscription

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"time"

	"github.com/devdocs/payments/pkg/analytics"
	"github.com/devdocs/payments/pkg/billing"
	"github.com/devdocs/payments/pkg/email"
	"github.com/devdocs/payments/pkg/feature"
	"github.com/devdocs/payments/svc/user"
)

// FlagSubscription gates the whole paid subscription feature.
const FlagSubscription = "subscription"

// Analytics vocabulary for payment events.
const (
	CategoryMonthlyPayments    = "monthly-payments"
	ActionSubscriptionCreated  = "subscription-created"
	ActionSubscriptionCanceled = "subscription-canceled"
)

// invoiceEmailTmpl renders the payment receipt. The manage link text is load
// bearing: support docs point users at it.
var invoiceEmailTmpl = template.Must(template.New("invoice").Parse(`<p>Hi {{.Username}},</p>
<p>Thank you for supporting us. Your payment of ${{printf "%.2f" .Amount}} on {{.PaidAt.Format "January 2, 2006"}} went through.</p>
{{if .InvoicePDF}}<p><a href="{{.InvoicePDF}}">Download your invoice</a></p>{{end}}
<p>You can <a href="{{.ManageURL}}">manage monthly subscriptions</a> on your account page at any time.</p>`))

// Deps carries everything the Service needs. All fields are required except
// Log, which defaults to slog.Default().
type Deps struct {
	Flags    feature.Provider
	Provider billing.Provider
	Records  RecordStore
	Users    user.Store
	Mailer   email.EmailSender
	Tracker  analytics.Tracker
	Plans    PlanSource
	Log      *slog.Logger

	// ManageURL is the absolute URL of the page where users manage their
	// subscription; it is linked from every invoice email.
	ManageURL string
}

// Service implements the subscription slice's use cases.
type Service struct {
	deps Deps
}

// NewService validates dependencies and creates the service.
func NewService(deps Deps) *Service {
	switch {
	case deps.Flags == nil:
		panic("subscription: nil feature provider")
	case deps.Provider == nil:
		panic("subscription: nil billing provider")
	case deps.Records == nil:
		panic("subscription: nil record store")
	case deps.Users == nil:
		panic("subscription: nil user store")
	case deps.Mailer == nil:
		panic("subscription: nil mailer")
	case deps.Tracker == nil:
		panic("subscription: nil tracker")
	case deps.Plans == nil:
		panic("subscription: nil plan source")
	}
	if deps.Log == nil {
		deps.Log = slog.Default()
	}
	return &Service{deps: deps}
}

// Enabled reports whether the subscription feature is on. A missing flag
// counts as disabled.
func (s *Service) Enabled(ctx context.Context) bool {
	enabled, err := s.deps.Flags.IsEnabled(ctx, FlagSubscription)
	if err != nil {
		if !errors.Is(err, feature.ErrFlagNotFound) {
			s.deps.Log.WarnContext(ctx, "feature flag lookup failed",
				slog.String("flag", FlagSubscription), slog.Any("error", err))
		}
		return false
	}
	return enabled
}

// Subscribe creates a provider subscription for the user from a one-time
// payment token, persists the local record and links the provider customer
// to the user account. A non-empty payerEmail overrides the account email
// on the provider side only; the local account is untouched.
func (s *Service) Subscribe(ctx context.Context, u *user.User, token, payerEmail string) (*Record, error) {
	if !s.Enabled(ctx) {
		return nil, ErrFeatureDisabled
	}
	if token == "" && !u.HasBillingAccount() {
		return nil, ErrMissingToken
	}

	billingEmail := payerEmail
	if billingEmail == "" {
		billingEmail = u.Email
	}

	plan := s.deps.Plans.Default()
	result, err := s.deps.Provider.CreateCustomerAndSubscription(ctx, billing.SubscribeRequest{
		Token:      token,
		Email:      billingEmail,
		CustomerID: u.BillingCustomerID,
		PriceID:    plan.PriceID,
	})
	if err != nil {
		return nil, err
	}

	if u.BillingCustomerID != result.CustomerID {
		u.BillingCustomerID = result.CustomerID
		if err := s.deps.Users.Update(ctx, u); err != nil {
			return nil, err
		}
	}

	rec := NewRecord(u.ID, result.SubscriptionID)
	if err := s.deps.Records.Create(ctx, rec); err != nil {
		return nil, err
	}

	s.deps.Log.InfoContext(ctx, "subscription created",
		slog.String("user_id", u.ID.String()),
		slog.String("subscription_id", rec.ProviderSubscriptionID))
	return rec, nil
}

// Overview is the billing state rendered on the profile page.
type Overview struct {
	Enabled       bool                 // feature flag state
	Subscribed    bool                 // user has a live subscription record
	Card          *billing.CardSummary // stored payment card, nil when unknown
	NextPayment   time.Time            // zero when unknown
	Plan          Plan
	ProviderError bool // provider lookup failed; render the degraded box
}

// Overview assembles the billing state for one user. Provider failures do
// not fail the page: the returned Overview carries ProviderError instead so
// the profile can render a degraded billing box.
func (s *Service) Overview(ctx context.Context, u *user.User) Overview {
	out := Overview{
		Enabled: s.Enabled(ctx),
		Plan:    s.deps.Plans.Default(),
	}
	if !out.Enabled {
		return out
	}

	rec, err := s.deps.Records.ActiveForUser(ctx, u.ID)
	if err != nil {
		if !errors.Is(err, ErrRecordNotFound) {
			s.deps.Log.ErrorContext(ctx, "subscription record lookup failed",
				slog.String("user_id", u.ID.String()), slog.Any("error", err))
			out.ProviderError = true
		}
		return out
	}
	out.Subscribed = true

	cus, err := s.deps.Provider.GetCustomer(ctx, u.BillingCustomerID)
	if err != nil {
		s.deps.Log.ErrorContext(ctx, "billing customer lookup failed",
			slog.String("user_id", u.ID.String()),
			slog.String("customer_id", u.BillingCustomerID),
			slog.Any("error", err))
		out.ProviderError = true
		return out
	}
	out.Card = cus.DefaultSource

	info, err := s.deps.Provider.GetSubscriptionInfo(ctx, u.BillingCustomerID, rec.ProviderSubscriptionID)
	if err != nil {
		s.deps.Log.ErrorContext(ctx, "subscription info lookup failed",
			slog.String("user_id", u.ID.String()),
			slog.String("subscription_id", rec.ProviderSubscriptionID),
			slog.Any("error", err))
		out.ProviderError = true
		return out
	}
	out.NextPayment = info.CurrentPeriodEnd

	return out
}

// ProcessEvent verifies and dispatches one inbound webhook payload.
//
// Parse and verification failures surface as billing sentinel errors for the
// transport layer to map. Lookup misses inside a recognized event are logged
// and acknowledged so the provider stops retrying a payload we can never
// match.
func (s *Service) ProcessEvent(ctx context.Context, payload []byte, signature string) error {
	event, err := s.deps.Provider.ConstructEvent(payload, signature)
	if err != nil {
		return err
	}

	switch event.Type {
	case billing.EventPaymentSucceeded:
		return s.handlePaymentSucceeded(ctx, event)
	case billing.EventSubscriptionDeleted:
		return s.handleSubscriptionDeleted(ctx, event)
	default:
		return fmt.Errorf("%w: %q", billing.ErrUnrecognizedEventType, event.RawType)
	}
}

func (s *Service) handlePaymentSucceeded(ctx context.Context, event *billing.Event) error {
	u, err := s.deps.Users.ByBillingCustomerID(ctx, event.Object.Customer)
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			s.deps.Log.WarnContext(ctx, "payment event for unknown customer",
				slog.String("customer_id", event.Object.Customer))
			return nil
		}
		return err
	}

	paidAt := time.Unix(event.Object.Created, 0).UTC()
	amount := event.Object.Amount()
	if amount <= 0 {
		amount = s.deps.Plans.Default().AmountUSD
	}
	var body bytes.Buffer
	if err := invoiceEmailTmpl.Execute(&body, struct {
		Username   string
		Amount     float64
		PaidAt     time.Time
		InvoicePDF string
		ManageURL  string
	}{
		Username:   u.Username,
		Amount:     amount,
		PaidAt:     paidAt,
		InvoicePDF: event.Object.InvoicePDF,
		ManageURL:  s.deps.ManageURL,
	}); err != nil {
		return err
	}

	if err := s.deps.Mailer.SendEmail(ctx, email.SendEmailParams{
		SendTo:   u.Email,
		Subject:  fmt.Sprintf("Your invoice from %s", paidAt.Format("January 2, 2006")),
		BodyHTML: body.String(),
		Tag:      "subscription-invoice",
	}); err != nil {
		return err
	}

	// The analytics value is the configured contribution amount, not the
	// invoice total, so reporting stays comparable across currencies.
	return s.deps.Tracker.Track(ctx, CategoryMonthlyPayments, ActionSubscriptionCreated,
		fmt.Sprintf("%.2f", s.deps.Plans.Default().AmountUSD))
}

func (s *Service) handleSubscriptionDeleted(ctx context.Context, event *billing.Event) error {
	u, err := s.deps.Users.ByBillingCustomerID(ctx, event.Object.Customer)
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			s.deps.Log.WarnContext(ctx, "cancellation event for unknown customer",
				slog.String("customer_id", event.Object.Customer))
			return nil
		}
		return err
	}

	rec, err := s.deps.Records.Get(ctx, u.ID, event.Object.SubscriptionID)
	if err != nil {
		if errors.Is(err, ErrRecordNotFound) {
			s.deps.Log.WarnContext(ctx, "cancellation event for unknown subscription",
				slog.String("user_id", u.ID.String()),
				slog.String("subscription_id", event.Object.SubscriptionID))
			return nil
		}
		return err
	}

	if rec.Cancel() {
		if err := s.deps.Records.Save(ctx, rec); err != nil {
			return err
		}
	}

	return s.deps.Tracker.Track(ctx, CategoryMonthlyPayments, ActionSubscriptionCanceled, "webhook")
}
