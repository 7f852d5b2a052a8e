// Package user holds the user account model and its persistence layer.
package user

import (
	"time"

	"github.com/google/uuid"
)

// User represents an account that can hold a paid subscription.
type User struct {
	ID                uuid.UUID
	Username          string
	Email             string
	BillingCustomerID string // payment provider's customer ID (cus_xxx), empty until first subscription
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// New creates a user with a fresh ID and timestamps.
func New(username, email string) *User {
	now := time.Now().UTC()
	return &User{
		ID:        uuid.New(),
		Username:  username,
		Email:     email,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// HasBillingAccount reports whether the user is linked to a provider customer.
func (u *User) HasBillingAccount() bool {
	return u != nil && u.BillingCustomerID != ""
}
