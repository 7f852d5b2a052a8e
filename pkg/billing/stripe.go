package billing

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/client"
	"github.com/stripe/stripe-go/v82/webhook"
)

// StripeConfig holds Stripe-specific settings.
// WebhookSecret is optional: when empty, inbound events are parsed without
// signature verification, which is only acceptable behind a trusted proxy or
// in development.
type StripeConfig struct {
	APIKey        string `env:"STRIPE_SECRET_KEY,required"`
	PriceID       string `env:"STRIPE_PRICE_ID,required"`
	WebhookSecret string `env:"STRIPE_WEBHOOK_SECRET"`
}

// StripeProvider implements Provider on top of stripe-go.
type StripeProvider struct {
	api *client.API
	cfg StripeConfig
}

// NewStripeProvider creates a Stripe-backed billing provider.
// The API key is per-instance rather than set on the SDK's global state so
// tests and multi-account setups stay isolated.
func NewStripeProvider(cfg StripeConfig) (*StripeProvider, error) {
	if cfg.APIKey == "" {
		return nil, ErrMissingAPIKey
	}
	if cfg.PriceID == "" {
		return nil, ErrMissingPriceID
	}

	api := &client.API{}
	api.Init(cfg.APIKey, nil)

	return &StripeProvider{api: api, cfg: cfg}, nil
}

// CreateCustomerAndSubscription implements Provider.
func (p *StripeProvider) CreateCustomerAndSubscription(ctx context.Context, req SubscribeRequest) (*SubscribeResult, error) {
	customerID := req.CustomerID

	if customerID == "" {
		if req.Token == "" {
			return nil, ErrMissingToken
		}
		cparams := &stripe.CustomerParams{
			Email:  stripe.String(req.Email),
			Source: stripe.String(req.Token),
		}
		cparams.Context = ctx

		cus, err := p.api.Customers.New(cparams)
		if err != nil {
			return nil, wrapStripeError(err)
		}
		customerID = cus.ID
	}

	priceID := req.PriceID
	if priceID == "" {
		priceID = p.cfg.PriceID
	}

	sparams := &stripe.SubscriptionParams{
		Customer: stripe.String(customerID),
		Items: []*stripe.SubscriptionItemsParams{
			{Price: stripe.String(priceID)},
		},
	}
	sparams.Context = ctx

	sub, err := p.api.Subscriptions.New(sparams)
	if err != nil {
		return nil, wrapStripeError(err)
	}

	return &SubscribeResult{CustomerID: customerID, SubscriptionID: sub.ID}, nil
}

// GetCustomer implements Provider.
func (p *StripeProvider) GetCustomer(ctx context.Context, customerID string) (*Customer, error) {
	params := &stripe.CustomerParams{}
	params.Context = ctx
	params.AddExpand("default_source")

	cus, err := p.api.Customers.Get(customerID, params)
	if err != nil {
		return nil, wrapStripeError(err)
	}

	out := &Customer{ID: cus.ID, Email: cus.Email}
	if cus.DefaultSource != nil && cus.DefaultSource.Card != nil {
		card := cus.DefaultSource.Card
		out.DefaultSource = &CardSummary{
			Brand:    string(card.Brand),
			Last4:    card.Last4,
			ExpMonth: card.ExpMonth,
			ExpYear:  card.ExpYear,
		}
	}
	return out, nil
}

// GetSubscriptionInfo implements Provider.
func (p *StripeProvider) GetSubscriptionInfo(ctx context.Context, customerID, subscriptionID string) (*SubscriptionInfo, error) {
	params := &stripe.SubscriptionParams{}
	params.Context = ctx

	sub, err := p.api.Subscriptions.Get(subscriptionID, params)
	if err != nil {
		return nil, wrapStripeError(err)
	}
	if sub.Customer != nil && sub.Customer.ID != customerID {
		return nil, ErrSubscriptionNotFound
	}

	// Stripe moved current_period_end onto subscription items; a monthly
	// subscription has exactly one, but take the latest to be safe.
	var periodEnd int64
	if sub.Items != nil {
		for _, item := range sub.Items.Data {
			if item.CurrentPeriodEnd > periodEnd {
				periodEnd = item.CurrentPeriodEnd
			}
		}
	}

	return &SubscriptionInfo{
		ID:               sub.ID,
		CurrentPeriodEnd: time.Unix(periodEnd, 0).UTC(),
	}, nil
}

// ConstructEvent implements Provider.
//
// With a webhook secret configured the Stripe-Signature header is verified
// via the SDK; any verification failure is reported as
// ErrEventVerificationFailed. Without a secret the payload is parsed as a
// bare event envelope, matching Stripe's test-mode delivery.
func (p *StripeProvider) ConstructEvent(payload []byte, signature string) (*Event, error) {
	var event stripe.Event

	if p.cfg.WebhookSecret != "" {
		verified, err := webhook.ConstructEventWithOptions(payload, signature, p.cfg.WebhookSecret,
			webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
		if err != nil {
			return nil, errors.Join(ErrEventVerificationFailed, err)
		}
		event = verified
	} else if err := json.Unmarshal(payload, &event); err != nil {
		return nil, errors.Join(ErrMalformedEvent, err)
	}

	var obj struct {
		Customer     string `json:"customer"`
		ID           string `json:"id"`
		Subscription string `json:"subscription"`
		Created      int64  `json:"created"`
		Total        int64  `json:"total"`
		InvoicePDF   string `json:"invoice_pdf"`
	}
	if event.Data != nil && len(event.Data.Raw) > 0 {
		if err := json.Unmarshal(event.Data.Raw, &obj); err != nil {
			return nil, errors.Join(ErrMalformedEvent, err)
		}
	}

	// For invoice events the subscription id is a reference field; for
	// subscription events the object itself is the subscription.
	subscriptionID := obj.Subscription
	if subscriptionID == "" {
		subscriptionID = obj.ID
	}

	rawType := string(event.Type)
	return &Event{
		Type:    ParseEventType(rawType),
		RawType: rawType,
		Object: EventObject{
			Customer:       obj.Customer,
			SubscriptionID: subscriptionID,
			Created:        obj.Created,
			AmountCents:    obj.Total,
			InvoicePDF:     obj.InvoicePDF,
		},
	}, nil
}

// wrapStripeError converts SDK errors to package sentinels so callers can
// branch without importing stripe-go.
func wrapStripeError(err error) error {
	if err == nil {
		return nil
	}

	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) && stripeErr.Code == stripe.ErrorCodeResourceMissing {
		return errors.Join(ErrCustomerNotFound, err)
	}
	return errors.Join(ErrProviderUnavailable, err)
}
