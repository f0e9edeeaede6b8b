package auth

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// RevocationSet remembers token ids (jti) that must no longer be honoured.
// Entries only need to live until the token would have expired anyway.
//
// Revoke marks jti as used and reports whether this call was the one that did
// it. Check and mark are one atomic step, so of several concurrent callers
// with the same jti exactly one sees true.
type RevocationSet interface {
	Revoke(ctx context.Context, jti string, until time.Time) (bool, error)
}

// MemoryRevocations is an in-process RevocationSet.
type MemoryRevocations struct {
	mu      sync.Mutex
	entries map[string]time.Time
	now     func() time.Time
}

// NewMemoryRevocations creates an empty set. now may be nil.
func NewMemoryRevocations(now func() time.Time) *MemoryRevocations {
	if now == nil {
		now = time.Now
	}
	return &MemoryRevocations{entries: make(map[string]time.Time), now: now}
}

func (m *MemoryRevocations) Revoke(_ context.Context, jti string, until time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sweepLocked()
	if _, seen := m.entries[jti]; seen {
		return false, nil
	}
	m.entries[jti] = until
	return true, nil
}

func (m *MemoryRevocations) sweepLocked() {
	now := m.now()
	for k, until := range m.entries {
		if now.After(until) {
			delete(m.entries, k)
		}
	}
}

// RedisRevocations stores revoked ids as expiring keys, shared between replicas.
type RedisRevocations struct {
	client *redis.Client
	prefix string
	now    func() time.Time
}

// NewRedisRevocations wraps an existing client.
func NewRedisRevocations(client *redis.Client, prefix string) *RedisRevocations {
	if prefix == "" {
		prefix = "newcon:revoked:"
	}
	return &RedisRevocations{client: client, prefix: prefix, now: time.Now}
}

func (r *RedisRevocations) Revoke(ctx context.Context, jti string, until time.Time) (bool, error) {
	// Keep at least a second so a token at its expiry instant still marks.
	ttl := until.Sub(r.now())
	if ttl < time.Second {
		ttl = time.Second
	}
	return r.client.SetNX(ctx, r.prefix+jti, "1", ttl).Result()
}
