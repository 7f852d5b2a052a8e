package subscription

import "errors"

var (
	// ErrFeatureDisabled indicates the subscription feature flag is off for
	// this deployment.
	ErrFeatureDisabled = errors.New("subscription feature is disabled")
	// ErrRecordNotFound indicates no record matches the lookup key.
	ErrRecordNotFound = errors.New("subscription record not found")
	// ErrMissingToken indicates a subscribe attempt without a payment token.
	ErrMissingToken = errors.New("payment token is required")
)
