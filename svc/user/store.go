package user

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var (
	// ErrUserNotFound indicates no user matches the lookup key.
	ErrUserNotFound = errors.New("user not found")
	// ErrUsernameTaken indicates a create with an already used username.
	ErrUsernameTaken = errors.New("username already taken")
)

// Store defines user persistence.
type Store interface {
	// ByID retrieves a user by primary key.
	ByID(ctx context.Context, id uuid.UUID) (*User, error)

	// ByUsername retrieves a user by username.
	ByUsername(ctx context.Context, username string) (*User, error)

	// ByBillingCustomerID retrieves a user by the provider's customer ID.
	ByBillingCustomerID(ctx context.Context, customerID string) (*User, error)

	// Create persists a new user.
	Create(ctx context.Context, u *User) error

	// Update persists changes to an existing user.
	Update(ctx context.Context, u *User) error
}
