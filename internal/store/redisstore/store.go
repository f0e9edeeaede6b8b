// Package redisstore keeps consultation history in Redis lists, one list per subject.
package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/connectus/newcon-mock/internal/ledger"
)

const DefaultPrefix = "newcon:consultas:"

type Store struct {
	client *redis.Client
	prefix string
}

var _ ledger.Store = (*Store)(nil)

// Open parses a redis:// URL and connects lazily.
func Open(url, prefix string) (*Store, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return New(redis.NewClient(opt), prefix), nil
}

func New(client *redis.Client, prefix string) *Store {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &Store{client: client, prefix: prefix}
}

func (s *Store) Client() *redis.Client { return s.client }

func (s *Store) Close() error { return s.client.Close() }

func (s *Store) key(k ledger.Key) string { return s.prefix + string(k) }

// entry is the list element layout.
type entry struct {
	ID           string              `json:"id"`
	RecordedAt   time.Time           `json:"recorded_at"`
	Consultation ledger.Consultation `json:"consultation"`
}

func (s *Store) Append(ctx context.Context, rec ledger.Record) error {
	if rec.Key == "" {
		return ledger.ErrEmptyKey
	}
	b, err := json.Marshal(entry{ID: rec.ID, RecordedAt: rec.RecordedAt.UTC(), Consultation: rec.Consultation})
	if err != nil {
		return fmt.Errorf("encode consultation: %w", err)
	}
	return s.client.RPush(ctx, s.key(rec.Key), b).Err()
}

func (s *Store) Latest(ctx context.Context, key ledger.Key) (ledger.Record, error) {
	raw, err := s.client.LIndex(ctx, s.key(key), -1).Result()
	if errors.Is(err, redis.Nil) {
		return ledger.Record{}, ledger.ErrNotFound
	}
	if err != nil {
		return ledger.Record{}, err
	}
	return decode(key, raw)
}

func (s *Store) History(ctx context.Context, key ledger.Key) ([]ledger.Record, error) {
	raws, err := s.client.LRange(ctx, s.key(key), 0, -1).Result()
	if err != nil {
		return nil, err
	}
	out := make([]ledger.Record, 0, len(raws))
	for _, raw := range raws {
		rec, err := decode(key, raw)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

// Prune trims the head of the list. Records are appended in clock order so the
// expired ones are always a prefix.
func (s *Store) Prune(ctx context.Context, key ledger.Key, cutoff time.Time) error {
	recs, err := s.History(ctx, key)
	if err != nil {
		return err
	}
	n := sort.Search(len(recs), func(i int) bool { return !recs[i].RecordedAt.Before(cutoff) })
	if n == 0 {
		return nil
	}
	return s.client.LTrim(ctx, s.key(key), int64(n), -1).Err()
}

func (s *Store) Ping(ctx context.Context) error { return s.client.Ping(ctx).Err() }

func decode(key ledger.Key, raw string) (ledger.Record, error) {
	var e entry
	if err := json.Unmarshal([]byte(raw), &e); err != nil {
		return ledger.Record{}, fmt.Errorf("decode consultation: %w", err)
	}
	e.Consultation.Timestamp = nil
	return ledger.Record{
		ID:           e.ID,
		Key:          key,
		Consultation: e.Consultation,
		RecordedAt:   e.RecordedAt.UTC(),
	}, nil
}
