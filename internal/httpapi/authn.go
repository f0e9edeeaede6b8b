package httpapi

import (
	"errors"
	"net/http"

	"github.com/connectus/newcon-mock/internal/audit"
	"github.com/connectus/newcon-mock/internal/auth"
	"github.com/connectus/newcon-mock/internal/obs"
)

const authHeader = "Authorization"

// withAuth admits requests carrying a valid access token and puts its claims
// on the context.
func (a *API) withAuth(next http.Handler) http.Handler {
	if a == nil || a.auth == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodOptions {
			next.ServeHTTP(w, r)
			return
		}

		token, err := auth.BearerToken(r.Header.Get(authHeader))
		if err != nil {
			a.rejectToken(w, r, err, "")
			return
		}
		claims, err := a.auth.VerifyAccess(token)
		if err != nil {
			a.rejectToken(w, r, err, token)
			return
		}

		next.ServeHTTP(w, r.WithContext(auth.ContextWithClaims(r.Context(), claims)))
	})
}

func (a *API) rejectToken(w http.ResponseWriter, r *http.Request, err error, token string) {
	reason := auth.Reason(err)
	obs.RecordAuthFailure(reason)
	fields := map[string]any{"reason": reason, "path": r.URL.Path}
	if token != "" {
		fields["token"] = audit.TokenPrefix(token)
	}
	_ = audit.LogEvent(r.Context(), "auth.token.rejected", fields)

	w.Header().Set("WWW-Authenticate", `Bearer realm="newcon"`)
	switch {
	case errors.Is(err, auth.ErrTokenMissing):
		writeError(w, r, http.StatusUnauthorized, "Token não fornecido", map[string]any{
			"message": "Header Authorization deve conter: Bearer <token>",
		})
	case errors.Is(err, auth.ErrTokenExpired):
		writeError(w, r, http.StatusUnauthorized, "Token inválido ou expirado", map[string]any{
			"message": "token expirado",
		})
	case errors.Is(err, auth.ErrTokenInvalid):
		writeError(w, r, http.StatusUnauthorized, "Token inválido ou expirado", map[string]any{
			"message": "token inválido",
		})
	default:
		writeError(w, r, http.StatusInternalServerError, "Erro interno do servidor")
	}
}
