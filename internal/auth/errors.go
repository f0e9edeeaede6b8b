package auth

import "errors"

var (
	ErrInvalidCredentials = errors.New("auth: unknown login code")
	ErrInactiveAccount    = errors.New("auth: account inactive")
	ErrWrongSecret        = errors.New("auth: wrong secret")

	ErrTokenMissing   = errors.New("auth: bearer token missing")
	ErrTokenInvalid   = errors.New("auth: token invalid")
	ErrTokenExpired   = errors.New("auth: token expired")
	ErrRefreshInvalid = errors.New("auth: refresh token invalid")
	ErrUnknownSubject = errors.New("auth: token subject no longer exists")

	ErrNotFound = errors.New("auth: not found")
)

// IsAuthenticationError reports whether err is one of the login failures.
func IsAuthenticationError(err error) bool {
	return errors.Is(err, ErrInvalidCredentials) ||
		errors.Is(err, ErrInactiveAccount) ||
		errors.Is(err, ErrWrongSecret)
}

// IsRefreshError reports whether err is a rejected refresh token, as opposed
// to a backend failure while renewing.
func IsRefreshError(err error) bool {
	return errors.Is(err, ErrRefreshInvalid) ||
		errors.Is(err, ErrUnknownSubject)
}

// Reason returns a short, secret-free label for metrics and logs.
func Reason(err error) string {
	switch {
	case errors.Is(err, ErrInvalidCredentials):
		return "invalid_credentials"
	case errors.Is(err, ErrInactiveAccount):
		return "inactive_account"
	case errors.Is(err, ErrWrongSecret):
		return "wrong_secret"
	case errors.Is(err, ErrTokenMissing):
		return "token_missing"
	case errors.Is(err, ErrTokenExpired):
		return "token_expired"
	case errors.Is(err, ErrTokenInvalid):
		return "token_invalid"
	case errors.Is(err, ErrRefreshInvalid):
		return "refresh_invalid"
	case errors.Is(err, ErrUnknownSubject):
		return "unknown_subject"
	default:
		return "internal"
	}
}
