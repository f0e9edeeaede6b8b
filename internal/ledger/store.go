package ledger

import (
	"context"
	"sync"
	"time"
)

// Store persists records per key in append order.
type Store interface {
	Append(ctx context.Context, rec Record) error
	Latest(ctx context.Context, key Key) (Record, error)
	History(ctx context.Context, key Key) ([]Record, error)
	// Prune drops records for key recorded strictly before cutoff.
	Prune(ctx context.Context, key Key, cutoff time.Time) error
	Ping(ctx context.Context) error
}

// InMemory implements Store with in-process concurrency safety.
type InMemory struct {
	mu      sync.RWMutex
	records map[Key][]Record
}

var _ Store = (*InMemory)(nil)

// NewInMemory creates an empty store.
func NewInMemory() *InMemory {
	return &InMemory{records: make(map[Key][]Record)}
}

func (s *InMemory) Append(_ context.Context, rec Record) error {
	if rec.Key == "" {
		return ErrEmptyKey
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[rec.Key] = append(s.records[rec.Key], rec)
	return nil
}

func (s *InMemory) Latest(_ context.Context, key Key) (Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	recs := s.records[key]
	if len(recs) == 0 {
		return Record{}, ErrNotFound
	}
	return recs[len(recs)-1], nil
}

func (s *InMemory) History(_ context.Context, key Key) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	recs := s.records[key]
	out := make([]Record, len(recs))
	copy(out, recs)
	return out, nil
}

func (s *InMemory) Prune(_ context.Context, key Key, cutoff time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	recs := s.records[key]
	i := 0
	for i < len(recs) && recs[i].RecordedAt.Before(cutoff) {
		i++
	}
	if i == 0 {
		return nil
	}
	if i == len(recs) {
		delete(s.records, key)
		return nil
	}
	s.records[key] = append([]Record(nil), recs[i:]...)
	return nil
}

func (s *InMemory) Ping(context.Context) error { return nil }
