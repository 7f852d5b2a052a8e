// Package subscription implements the paid subscription slice: starting a
// subscription through the payment provider, rendering billing state for the
// profile page, and reacting to provider webhook events.
package subscription

import (
	"time"

	"github.com/google/uuid"
)

// Record tracks one provider subscription owned by a user. Records are
// append-only history; cancellation flips the flag instead of deleting the
// row, so a user can hold several canceled records and at most rely on the
// newest active one.
type Record struct {
	UserID                 uuid.UUID
	ProviderSubscriptionID string
	Canceled               bool
	CreatedAt              time.Time
	UpdatedAt              time.Time
}

// NewRecord creates an active record for the given user and provider
// subscription id.
func NewRecord(userID uuid.UUID, providerSubscriptionID string) *Record {
	now := time.Now().UTC()
	return &Record{
		UserID:                 userID,
		ProviderSubscriptionID: providerSubscriptionID,
		CreatedAt:              now,
		UpdatedAt:              now,
	}
}

// Cancel marks the record canceled. It reports whether the state changed,
// so repeated cancellation events stay idempotent.
func (r *Record) Cancel() bool {
	if r.Canceled {
		return false
	}
	r.Canceled = true
	r.UpdatedAt = time.Now().UTC()
	return true
}

// IsActive reports whether the record still represents a live subscription.
func (r *Record) IsActive() bool {
	return r != nil && !r.Canceled
}
