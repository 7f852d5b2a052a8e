package subscription

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

type recordKey struct {
	userID uuid.UUID
	subID  string
}

// MemoryStore is an in-memory RecordStore for development and tests.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[recordKey]Record
}

// NewMemoryStore creates an empty in-memory record store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[recordKey]Record)}
}

func (s *MemoryStore) Create(_ context.Context, rec *Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[recordKey{rec.UserID, rec.ProviderSubscriptionID}] = *rec
	return nil
}

func (s *MemoryStore) Get(_ context.Context, userID uuid.UUID, providerSubscriptionID string) (*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[recordKey{userID, providerSubscriptionID}]
	if !ok {
		return nil, ErrRecordNotFound
	}
	cp := rec
	return &cp, nil
}

func (s *MemoryStore) Save(_ context.Context, rec *Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := recordKey{rec.UserID, rec.ProviderSubscriptionID}
	if _, ok := s.records[key]; !ok {
		return ErrRecordNotFound
	}
	rec.UpdatedAt = time.Now().UTC()
	s.records[key] = *rec
	return nil
}

func (s *MemoryStore) ListByUser(_ context.Context, userID uuid.UUID) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Record
	for key, rec := range s.records {
		if key.userID == userID {
			out = append(out, rec)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *MemoryStore) ActiveForUser(ctx context.Context, userID uuid.UUID) (*Record, error) {
	records, err := s.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	for _, rec := range records {
		if !rec.Canceled {
			cp := rec
			return &cp, nil
		}
	}
	return nil, ErrRecordNotFound
}
