package analytics

import "context"

// Tracker reports a single product event.
type Tracker interface {
	// Track sends one event. Category groups related events, action names
	// what happened, label carries a free-form value (an amount, a source).
	Track(ctx context.Context, category, action, label string) error
}

// NoopTracker discards all events. Used when no tracking id is configured
// and as a default in tests.
type NoopTracker struct{}

func (NoopTracker) Track(ctx context.Context, category, action, label string) error {
	return nil
}
