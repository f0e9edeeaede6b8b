package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	defaultAccessTTL  = time.Hour
	defaultRefreshTTL = 7 * 24 * time.Hour
)

// Service authenticates identities and issues/verifies stateless JWT sessions.
type Service struct {
	store   CredentialStore
	revoked RevocationSet
	now     func() time.Time

	secret     []byte
	issuer     string
	accessTTL  time.Duration
	refreshTTL time.Duration
}

// ServiceOption configures Service behavior.
type ServiceOption func(*Service) error

// WithIssuer overrides the token issuer claim.
func WithIssuer(issuer string) ServiceOption {
	return func(s *Service) error {
		if issuer = strings.TrimSpace(issuer); issuer != "" {
			s.issuer = issuer
		}
		return nil
	}
}

// WithAccessTTL configures access token lifetime.
func WithAccessTTL(ttl time.Duration) ServiceOption {
	return func(s *Service) error {
		if ttl > 0 {
			s.accessTTL = ttl
		}
		return nil
	}
}

// WithRefreshTTL configures refresh token lifetime.
func WithRefreshTTL(ttl time.Duration) ServiceOption {
	return func(s *Service) error {
		if ttl > 0 {
			s.refreshTTL = ttl
		}
		return nil
	}
}

// WithClock overrides time source (useful for tests).
func WithClock(fn func() time.Time) ServiceOption {
	return func(s *Service) error {
		if fn != nil {
			s.now = fn
		}
		return nil
	}
}

// WithRevocations makes Renew retire the presented refresh token. Without it
// an old refresh token stays usable until its own expiry.
func WithRevocations(set RevocationSet) ServiceOption {
	return func(s *Service) error {
		s.revoked = set
		return nil
	}
}

// NewService constructs Service signing with the given HS256 secret.
func NewService(store CredentialStore, secret string, opts ...ServiceOption) (*Service, error) {
	if store == nil {
		return nil, errors.New("auth: credential store is required")
	}
	if strings.TrimSpace(secret) == "" {
		return nil, errors.New("auth: signing secret is required")
	}
	svc := &Service{
		store:      store,
		now:        time.Now,
		secret:     []byte(secret),
		issuer:     DefaultIssuer,
		accessTTL:  defaultAccessTTL,
		refreshTTL: defaultRefreshTTL,
	}
	for _, opt := range opts {
		if err := opt(svc); err != nil {
			return nil, err
		}
	}
	return svc, nil
}

// AccessTTL reports the configured access token lifetime.
func (s *Service) AccessTTL() time.Duration { return s.accessTTL }

// Authenticate checks existence, then status, then secret.
func (s *Service) Authenticate(ctx context.Context, loginCode int, secret string) (Identity, error) {
	id, err := s.store.FindByLoginCode(ctx, loginCode)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Identity{}, ErrInvalidCredentials
		}
		return Identity{}, err
	}
	if !id.Active() {
		return Identity{}, ErrInactiveAccount
	}
	if err := VerifyPassword(id.SecretHash, secret); err != nil {
		return Identity{}, ErrWrongSecret
	}
	return id, nil
}

// IssueSession signs a fresh access/refresh pair for id.
func (s *Service) IssueSession(id Identity) (Session, error) {
	now := s.now().UTC()
	access := accessClaims(id, s.issuer, now, s.accessTTL)
	refresh := refreshClaims(id, s.issuer, now, s.refreshTTL)

	accessToken, err := sign(access, s.secret)
	if err != nil {
		return Session{}, err
	}
	refreshToken, err := sign(refresh, s.secret)
	if err != nil {
		return Session{}, err
	}
	return Session{
		AccessToken:      accessToken,
		RefreshToken:     refreshToken,
		AccessExpiresAt:  access.ExpiresAt.Time,
		RefreshExpiresAt: refresh.ExpiresAt.Time,
	}, nil
}

// Login authenticates and issues a session in one step.
func (s *Service) Login(ctx context.Context, loginCode int, secret string) (Session, Identity, error) {
	id, err := s.Authenticate(ctx, loginCode, secret)
	if err != nil {
		return Session{}, Identity{}, err
	}
	session, err := s.IssueSession(id)
	if err != nil {
		return Session{}, Identity{}, err
	}
	return session, id, nil
}

// VerifyAccess validates an access token. Tokens are accepted up to and
// including their expiry instant.
func (s *Service) VerifyAccess(token string) (*Claims, error) {
	claims, err := parse(token, s.secret)
	if err != nil {
		return nil, err
	}
	if err := validateClaims(claims, s.issuer, s.now().UTC()); err != nil {
		return nil, err
	}
	if claims.Type != TokenTypeAccess {
		return nil, fmt.Errorf("%w: not an access token", ErrTokenInvalid)
	}
	return claims, nil
}

// Renew exchanges a refresh token for a new pair. With a RevocationSet
// configured each refresh token is honoured once.
func (s *Service) Renew(ctx context.Context, refreshToken string) (Session, Identity, error) {
	claims, err := parse(refreshToken, s.secret)
	if err != nil {
		return Session{}, Identity{}, ErrRefreshInvalid
	}
	now := s.now().UTC()
	if err := validateClaims(claims, s.issuer, now); err != nil {
		return Session{}, Identity{}, ErrRefreshInvalid
	}
	if claims.Type != TokenTypeRefresh {
		return Session{}, Identity{}, ErrRefreshInvalid
	}

	id, err := s.store.FindByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Session{}, Identity{}, ErrUnknownSubject
		}
		return Session{}, Identity{}, err
	}

	if s.revoked != nil {
		if claims.ID == "" {
			return Session{}, Identity{}, ErrRefreshInvalid
		}
		first, err := s.revoked.Revoke(ctx, claims.ID, claims.ExpiresAt.Time)
		if err != nil {
			return Session{}, Identity{}, fmt.Errorf("auth: revoke refresh token: %w", err)
		}
		if !first {
			return Session{}, Identity{}, ErrRefreshInvalid
		}
	}
	session, err := s.IssueSession(id)
	if err != nil {
		return Session{}, Identity{}, err
	}
	return session, id, nil
}
