package auth

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

var errEmptySecret = errors.New("secret is empty")

// HashPassword hashes a seed secret with bcrypt. Cost 0 means bcrypt.DefaultCost.
func HashPassword(secret string, cost int) (string, error) {
	if secret == "" {
		return "", errEmptySecret
	}
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(secret), cost)
	if err != nil {
		return "", fmt.Errorf("hash secret: %w", err)
	}
	return string(hash), nil
}

// VerifyPassword reports ErrWrongSecret when secret does not match hash.
func VerifyPassword(hash, secret string) error {
	if hash == "" {
		return errors.New("secret hash is empty")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(secret)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return ErrWrongSecret
		}
		return err
	}
	return nil
}
