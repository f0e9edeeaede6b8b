package auth

import (
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	DefaultIssuer = "newcon-api"

	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"

	bearer = "Bearer "
)

// Claims is the JWT payload for both token types. Refresh tokens only carry
// UserID and Type besides the registered claims.
type Claims struct {
	UserID      int    `json:"id"`
	LoginCode   int    `json:"cod_usuario,omitempty"`
	DisplayName string `json:"usuario,omitempty"`
	Email       string `json:"email,omitempty"`
	Type        string `json:"type"`
	jwt.RegisteredClaims
}

// BearerToken extracts the token from an Authorization header value.
func BearerToken(header string) (string, error) {
	header = strings.TrimSpace(header)
	if header == "" || !strings.HasPrefix(header, bearer) {
		return "", ErrTokenMissing
	}
	token := strings.TrimSpace(header[len(bearer):])
	if token == "" {
		return "", ErrTokenMissing
	}
	return token, nil
}

func accessClaims(id Identity, issuer string, now time.Time, ttl time.Duration) Claims {
	return Claims{
		UserID:      id.ID,
		LoginCode:   id.LoginCode,
		DisplayName: id.DisplayName,
		Email:       id.Email,
		Type:        TokenTypeAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        uuid.NewString(),
		},
	}
}

func refreshClaims(id Identity, issuer string, now time.Time, ttl time.Duration) Claims {
	return Claims{
		UserID: id.ID,
		Type:   TokenTypeRefresh,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        uuid.NewString(),
		},
	}
}

func sign(claims Claims, secret []byte) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// parse verifies the signature and structure only. Time-based checks are done by
// validateClaims against the service clock.
func parse(token string, secret []byte) (*Claims, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrTokenMissing
	}
	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(t *jwt.Token) (any, error) {
		return secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithoutClaimsValidation(),
	)
	if err != nil {
		return nil, ErrTokenInvalid
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}

func validateClaims(claims *Claims, issuer string, now time.Time) error {
	if claims.Issuer != issuer {
		return fmt.Errorf("%w: unexpected issuer %q", ErrTokenInvalid, claims.Issuer)
	}
	if claims.UserID == 0 {
		return fmt.Errorf("%w: subject missing", ErrTokenInvalid)
	}
	if claims.ExpiresAt == nil || claims.IssuedAt == nil {
		return fmt.Errorf("%w: timestamps missing", ErrTokenInvalid)
	}
	if claims.ExpiresAt.Time.Before(claims.IssuedAt.Time) {
		return fmt.Errorf("%w: expiry precedes issued-at", ErrTokenInvalid)
	}
	if now.After(claims.ExpiresAt.Time) {
		return ErrTokenExpired
	}
	// Allow a small clock skew of 5 seconds when validating issued-at.
	if claims.IssuedAt.Time.After(now.Add(5 * time.Second)) {
		return fmt.Errorf("%w: token issued in the future", ErrTokenInvalid)
	}
	return nil
}
