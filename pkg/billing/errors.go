package billing

import "errors"

var (
	ErrMissingAPIKey  = errors.New("billing provider API key is required")
	ErrMissingPriceID = errors.New("billing provider price ID is required")
	ErrMissingToken   = errors.New("payment token is required")

	ErrMalformedEvent          = errors.New("malformed webhook event payload")
	ErrEventVerificationFailed = errors.New("webhook event verification failed")
	ErrUnrecognizedEventType   = errors.New("unrecognized webhook event type")

	ErrCustomerNotFound     = errors.New("billing customer not found")
	ErrSubscriptionNotFound = errors.New("billing subscription not found")
	ErrProviderUnavailable  = errors.New("billing provider request failed")
)
