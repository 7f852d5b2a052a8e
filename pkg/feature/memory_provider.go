package feature

import (
	"context"
	"errors"
	"sync"
	"time"
)

// MemoryProvider is an in-memory implementation of the Provider interface.
// It's useful for testing and applications whose flags are fixed at startup.
type MemoryProvider struct {
	flags map[string]*Flag
	mu    sync.RWMutex
}

// NewMemoryProvider creates a new in-memory feature flag provider.
func NewMemoryProvider(initialFlags ...*Flag) (*MemoryProvider, error) {
	provider := &MemoryProvider{
		flags: make(map[string]*Flag),
	}

	for _, flag := range initialFlags {
		if flag == nil {
			continue
		}
		if flag.Name == "" {
			return nil, errors.Join(ErrInvalidFlag, errors.New("flag name cannot be empty"))
		}

		flagCopy := *flag
		if flagCopy.CreatedAt.IsZero() {
			flagCopy.CreatedAt = time.Now()
		}
		if flagCopy.UpdatedAt.IsZero() {
			flagCopy.UpdatedAt = flagCopy.CreatedAt
		}
		provider.flags[flag.Name] = &flagCopy
	}

	return provider, nil
}

// IsEnabled checks if a flag is enabled.
func (m *MemoryProvider) IsEnabled(ctx context.Context, flagName string) (bool, error) {
	m.mu.RLock()
	flag, exists := m.flags[flagName]
	var enabled bool
	if exists {
		enabled = flag.Enabled
	}
	m.mu.RUnlock()

	if !exists {
		return false, ErrFlagNotFound
	}
	return enabled, nil
}

// GetFlag retrieves a flag by name.
func (m *MemoryProvider) GetFlag(ctx context.Context, flagName string) (*Flag, error) {
	m.mu.RLock()
	flag, exists := m.flags[flagName]
	var flagCopy Flag
	if exists {
		// Copy under the lock to prevent external modification and to stay
		// safe against concurrent writers.
		flagCopy = *flag
	}
	m.mu.RUnlock()

	if !exists {
		return nil, ErrFlagNotFound
	}
	return &flagCopy, nil
}

// SetEnabled flips a flag, creating it on first use.
func (m *MemoryProvider) SetEnabled(ctx context.Context, flagName string, enabled bool) error {
	if flagName == "" {
		return errors.Join(ErrInvalidFlag, errors.New("flag name cannot be empty"))
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	if existing, exists := m.flags[flagName]; exists {
		// Replace the entry with a copy; mutating the shared pointer in
		// place would race with readers that hold it outside the lock.
		updated := *existing
		updated.Enabled = enabled
		updated.UpdatedAt = now
		m.flags[flagName] = &updated
		return nil
	}

	m.flags[flagName] = &Flag{
		Name:      flagName,
		Enabled:   enabled,
		CreatedAt: now,
		UpdatedAt: now,
	}
	return nil
}

// DeleteFlag removes a flag.
func (m *MemoryProvider) DeleteFlag(ctx context.Context, flagName string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.flags[flagName]; !exists {
		return ErrFlagNotFound
	}
	delete(m.flags, flagName)
	return nil
}

// Close releases any resources. For the memory provider, this is a no-op.
func (m *MemoryProvider) Close() error {
	return nil
}
