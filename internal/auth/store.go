package auth

import (
	"context"
	"fmt"
)

// CredentialStore answers identity lookups over a fixed set.
type CredentialStore interface {
	FindByLoginCode(ctx context.Context, code int) (Identity, error)
	FindByID(ctx context.Context, id int) (Identity, error)
}

// MemoryStore is a read-only CredentialStore built once at startup.
type MemoryStore struct {
	byCode map[int]Identity
	byID   map[int]Identity
}

var _ CredentialStore = (*MemoryStore)(nil)

// StoreOption configures MemoryStore construction.
type StoreOption func(*storeConfig)

type storeConfig struct {
	hashCost int
}

// WithHashCost sets the bcrypt cost used to hash seed secrets.
func WithHashCost(cost int) StoreOption {
	return func(c *storeConfig) { c.hashCost = cost }
}

// NewMemoryStore hashes every seed secret and indexes the identities.
// Duplicate login codes or ids are rejected.
func NewMemoryStore(seeds []Seed, opts ...StoreOption) (*MemoryStore, error) {
	var cfg storeConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	s := &MemoryStore{
		byCode: make(map[int]Identity, len(seeds)),
		byID:   make(map[int]Identity, len(seeds)),
	}
	for _, seed := range seeds {
		if _, dup := s.byCode[seed.LoginCode]; dup {
			return nil, fmt.Errorf("auth: duplicate login code %d", seed.LoginCode)
		}
		if _, dup := s.byID[seed.ID]; dup {
			return nil, fmt.Errorf("auth: duplicate identity id %d", seed.ID)
		}
		hash, err := HashPassword(seed.Secret, cfg.hashCost)
		if err != nil {
			return nil, fmt.Errorf("auth: hash secret for %d: %w", seed.LoginCode, err)
		}
		status := seed.Status
		if status == "" {
			status = StatusActive
		}
		id := Identity{
			ID:          seed.ID,
			LoginCode:   seed.LoginCode,
			DisplayName: seed.DisplayName,
			Email:       seed.Email,
			SecretHash:  hash,
			Status:      status,
		}
		s.byCode[id.LoginCode] = id
		s.byID[id.ID] = id
	}
	return s, nil
}

func (s *MemoryStore) FindByLoginCode(_ context.Context, code int) (Identity, error) {
	id, ok := s.byCode[code]
	if !ok {
		return Identity{}, ErrNotFound
	}
	return id, nil
}

func (s *MemoryStore) FindByID(_ context.Context, id int) (Identity, error) {
	ident, ok := s.byID[id]
	if !ok {
		return Identity{}, ErrNotFound
	}
	return ident, nil
}
