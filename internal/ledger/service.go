package ledger

import (
	"context"
	"errors"
	"hash/fnv"
	"sync"
	"time"

	"github.com/connectus/newcon-mock/internal/ids"
)

const (
	// DefaultGracePeriod is how long a consultation suppresses fresh bureau queries.
	DefaultGracePeriod = 30 * 24 * time.Hour

	lockStripes = 64
)

// Ledger is the per-subject consultation history with grace-period lookup.
type Ledger struct {
	store     Store
	now       func() time.Time
	grace     time.Duration
	retention time.Duration
	locks     [lockStripes]sync.Mutex
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithClock overrides the time source used to stamp records.
func WithClock(fn func() time.Time) Option {
	return func(l *Ledger) {
		if fn != nil {
			l.now = fn
		}
	}
}

// WithGracePeriod overrides the 30-day window.
func WithGracePeriod(d time.Duration) Option {
	return func(l *Ledger) {
		if d > 0 {
			l.grace = d
		}
	}
}

// WithRetention drops records older than d. Zero keeps everything.
func WithRetention(d time.Duration) Option {
	return func(l *Ledger) {
		if d >= 0 {
			l.retention = d
		}
	}
}

// New wraps store. A nil store gets an in-memory one.
func New(store Store, opts ...Option) *Ledger {
	if store == nil {
		store = NewInMemory()
	}
	l := &Ledger{store: store, now: time.Now, grace: DefaultGracePeriod}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Now returns the ledger clock reading.
func (l *Ledger) Now() time.Time { return l.now().UTC() }

// GracePeriod returns the configured window.
func (l *Ledger) GracePeriod() time.Duration { return l.grace }

// Lock serializes callers working on the same key and returns the unlock func.
// Different keys may share a stripe; that only costs parallelism.
func (l *Ledger) Lock(key Key) func() {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	mu := &l.locks[h.Sum32()%lockStripes]
	mu.Lock()
	return mu.Unlock
}

// HasRecentRecord reports whether the latest record for key is younger than the
// grace period at now. No record means no grace period.
func (l *Ledger) HasRecentRecord(ctx context.Context, key Key, now time.Time) (bool, error) {
	rec, ok, err := l.Latest(ctx, key)
	if err != nil || !ok {
		return false, err
	}
	return now.Sub(rec.RecordedAt) < l.grace, nil
}

// Append stamps c with the ledger clock and stores it at the end of key's history.
func (l *Ledger) Append(ctx context.Context, key Key, c Consultation) (Record, error) {
	if key == "" {
		return Record{}, ErrEmptyKey
	}
	now := l.Now()
	rec := Record{
		ID:           ids.NewAt(now),
		Key:          key,
		Consultation: c,
		RecordedAt:   now,
	}
	rec.Timestamp = nil
	if err := l.store.Append(ctx, rec); err != nil {
		return Record{}, err
	}
	if l.retention > 0 {
		if err := l.store.Prune(ctx, key, now.Add(-l.retention)); err != nil {
			return Record{}, err
		}
	}
	return rec, nil
}

// Latest returns the most recently appended record for key.
func (l *Ledger) Latest(ctx context.Context, key Key) (Record, bool, error) {
	rec, err := l.store.Latest(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return Record{}, false, nil
	}
	if err != nil {
		return Record{}, false, err
	}
	if l.expired(rec) {
		return Record{}, false, nil
	}
	return rec, true, nil
}

// History returns key's records oldest first, or just the latest when onlyLatest.
func (l *Ledger) History(ctx context.Context, key Key, onlyLatest bool) ([]Record, error) {
	if onlyLatest {
		rec, ok, err := l.Latest(ctx, key)
		if err != nil {
			return nil, err
		}
		if !ok {
			return []Record{}, nil
		}
		return []Record{rec}, nil
	}
	recs, err := l.store.History(ctx, key)
	if err != nil {
		return nil, err
	}
	out := recs[:0]
	for _, rec := range recs {
		if !l.expired(rec) {
			out = append(out, rec)
		}
	}
	if out == nil {
		out = []Record{}
	}
	return out, nil
}

// Ping checks the backing store.
func (l *Ledger) Ping(ctx context.Context) error { return l.store.Ping(ctx) }

func (l *Ledger) expired(rec Record) bool {
	return l.retention > 0 && l.Now().Sub(rec.RecordedAt) > l.retention
}
