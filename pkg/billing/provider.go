package billing

import (
	"context"
	"time"
)

// Provider defines the minimal interface for payment provider integrations.
// Implementations should use the official provider SDK and keep all
// provider-specific quirks internal. Nothing outside this package sees SDK
// types; callers work with the plain records below.
type Provider interface {
	// CreateCustomerAndSubscription creates a customer from a card token and
	// attaches a recurring subscription to it in one call. When
	// req.CustomerID is set, the existing customer is reused and only a
	// subscription is created.
	CreateCustomerAndSubscription(ctx context.Context, req SubscribeRequest) (*SubscribeResult, error)

	// GetCustomer fetches customer details including the default payment
	// source summary for display.
	GetCustomer(ctx context.Context, customerID string) (*Customer, error)

	// GetSubscriptionInfo fetches the current state of one subscription.
	GetSubscriptionInfo(ctx context.Context, customerID, subscriptionID string) (*SubscriptionInfo, error)

	// ConstructEvent parses and, when a webhook secret is configured,
	// verifies an inbound webhook payload. It fails with ErrMalformedEvent
	// on invalid JSON and ErrEventVerificationFailed on any provider-side
	// verification error.
	ConstructEvent(payload []byte, signature string) (*Event, error)
}

// SubscribeRequest carries what the provider needs to start a subscription.
type SubscribeRequest struct {
	Token      string // one-time card token from the client-side payment form
	Email      string // billing email, may differ from the account email
	CustomerID string // optional existing provider customer to reuse
	PriceID    string // optional override of the provider's default price
}

// SubscribeResult is the pair of opaque identifiers the provider issued.
type SubscribeResult struct {
	CustomerID     string
	SubscriptionID string
}

// Customer is the provider's view of a paying user.
type Customer struct {
	ID            string
	Email         string
	DefaultSource *CardSummary // nil when no payment source is attached
}

// CardSummary describes the stored payment card, enough for a profile page.
type CardSummary struct {
	Brand    string
	Last4    string
	ExpMonth int64
	ExpYear  int64
}

// SubscriptionInfo describes one recurring billing agreement.
type SubscriptionInfo struct {
	ID               string
	CurrentPeriodEnd time.Time
}

// EventType is the closed vocabulary of webhook events this slice handles.
// Provider implementations map their raw event names onto it; anything else
// becomes EventUnrecognized.
type EventType string

const (
	EventPaymentSucceeded    EventType = "invoice.payment_succeeded"
	EventSubscriptionDeleted EventType = "customer.subscription.deleted"
	EventUnrecognized        EventType = ""
)

// ParseEventType maps a raw provider event name to the closed vocabulary.
func ParseEventType(raw string) EventType {
	switch raw {
	case string(EventPaymentSucceeded):
		return EventPaymentSucceeded
	case string(EventSubscriptionDeleted):
		return EventSubscriptionDeleted
	default:
		return EventUnrecognized
	}
}

// Event is a normalized webhook event envelope.
type Event struct {
	Type    EventType
	RawType string // original provider event name, kept for logging
	Object  EventObject
}

// EventObject carries the payload fields the dispatcher consumes. Which
// fields are populated depends on the event type.
type EventObject struct {
	Customer       string // provider customer id
	SubscriptionID string // provider subscription id (cancellation events)
	Created        int64  // unix timestamp (payment events)
	AmountCents    int64  // invoice total in the currency's smallest unit (payment events)
	InvoicePDF     string // invoice download URL (payment events)
}

// Amount returns the invoice total in major currency units.
func (o EventObject) Amount() float64 {
	return float64(o.AmountCents) / 100
}
