// Package billing abstracts the payment provider behind a narrow interface so
// the rest of the application never touches provider SDK types.
//
// The Provider interface covers the four operations the subscription slice
// needs: creating a customer with a recurring subscription from a card token,
// fetching customer and subscription details for display, and constructing a
// webhook event from a raw request body. Provider outputs are plain domain
// records (Customer, CardSummary, SubscriptionInfo, Event), which keeps
// handlers and services testable with simple doubles.
//
// The production implementation is backed by Stripe via stripe-go:
//
//	provider, err := billing.NewStripeProvider(billing.StripeConfig{
//		APIKey:  "sk_test_...",
//		PriceID: "price_...",
//	})
//
// Webhook events form a closed vocabulary. Anything outside it maps to
// EventUnrecognized, which callers are expected to reject.
package billing
