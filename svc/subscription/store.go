package subscription

import (
	"context"

	"github.com/google/uuid"
)

// RecordStore defines subscription record persistence.
type RecordStore interface {
	// Create persists a new record.
	Create(ctx context.Context, rec *Record) error

	// Get retrieves one record by its composite key.
	Get(ctx context.Context, userID uuid.UUID, providerSubscriptionID string) (*Record, error)

	// Save persists changes to an existing record.
	Save(ctx context.Context, rec *Record) error

	// ListByUser returns all records for a user, newest first.
	ListByUser(ctx context.Context, userID uuid.UUID) ([]Record, error)

	// ActiveForUser returns the newest non-canceled record for a user, or
	// ErrRecordNotFound when the user has no live subscription.
	ActiveForUser(ctx context.Context, userID uuid.UUID) (*Record, error)
}
