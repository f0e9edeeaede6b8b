package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/connectus/newcon-mock/internal/audit"
	"github.com/connectus/newcon-mock/internal/auth"
	"github.com/connectus/newcon-mock/internal/obs"
)

// loginCode accepts cod_usuario as a JSON number or a numeric string.
type loginCode string

func (c *loginCode) UnmarshalJSON(b []byte) error {
	var n json.Number
	if err := json.Unmarshal(b, &n); err == nil {
		*c = loginCode(n.String())
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return errors.New("cod_usuario must be a number or string")
	}
	*c = loginCode(s)
	return nil
}

// missing treats blank and zero codes alike: no account has code 0.
func (c loginCode) missing() bool {
	v := strings.TrimSpace(string(c))
	if v == "" {
		return true
	}
	n, err := strconv.ParseFloat(v, 64)
	return err == nil && n == 0
}

type loginRequest struct {
	LoginCode loginCode `json:"cod_usuario"`
	Password  string    `json:"password"`
}

type userView struct {
	ID          int         `json:"id"`
	LoginCode   int         `json:"cod_usuario"`
	DisplayName string      `json:"usuario"`
	Email       string      `json:"email"`
	Status      auth.Status `json:"status"`
}

type tokenResponse struct {
	Token        string    `json:"token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresIn    int64     `json:"expires_in"`
	TokenType    string    `json:"token_type"`
	User         *userView `json:"usuario,omitempty"`
	StatusCode   int       `json:"status_code"`
}

const loginFailedMessage = "Credenciais inválidas"

func (a *API) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}

	req, err := decodeLogin(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if req.LoginCode.missing() || req.Password == "" {
		writeError(w, r, http.StatusBadRequest, "cod_usuario e password são obrigatórios")
		return
	}

	code, err := strconv.Atoi(strings.TrimSpace(string(req.LoginCode)))
	if err != nil {
		a.loginFailed(w, r, string(req.LoginCode), auth.ErrInvalidCredentials)
		return
	}

	session, id, err := a.auth.Login(r.Context(), code, req.Password)
	if err != nil {
		if auth.IsAuthenticationError(err) {
			a.loginFailed(w, r, strconv.Itoa(code), err)
			return
		}
		obs.Error("login failed", map[string]any{"error": err.Error(), "request_id": RequestIDFromContext(r.Context())})
		writeError(w, r, http.StatusInternalServerError, "Erro interno do servidor")
		return
	}

	_ = audit.LogEvent(r.Context(), "auth.login.succeeded", map[string]any{
		"cod_usuario": id.LoginCode,
		"expires_at":  session.AccessExpiresAt.Format(time.RFC3339),
	})
	writeJSON(w, http.StatusOK, tokenResponse{
		Token:        session.AccessToken,
		RefreshToken: session.RefreshToken,
		ExpiresIn:    int64(a.auth.AccessTTL() / time.Second),
		TokenType:    "Bearer",
		User: &userView{
			ID:          id.ID,
			LoginCode:   id.LoginCode,
			DisplayName: id.DisplayName,
			Email:       id.Email,
			Status:      id.Status,
		},
		StatusCode: http.StatusOK,
	})
}

func (a *API) loginFailed(w http.ResponseWriter, r *http.Request, code string, err error) {
	reason := auth.Reason(err)
	obs.RecordAuthFailure(reason)
	_ = audit.LogEvent(r.Context(), "auth.login.failed", map[string]any{
		"cod_usuario": code,
		"reason":      reason,
	})
	writeError(w, r, http.StatusUnauthorized, loginFailedMessage)
}

func (a *API) handleRefreshToken(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}

	token, err := auth.BearerToken(r.Header.Get(authHeader))
	if err != nil {
		obs.RecordAuthFailure(auth.Reason(err))
		writeError(w, r, http.StatusUnauthorized, "Refresh token não fornecido")
		return
	}

	session, id, err := a.auth.Renew(r.Context(), token)
	if err != nil {
		if auth.IsRefreshError(err) {
			reason := auth.Reason(err)
			obs.RecordAuthFailure(reason)
			_ = audit.LogEvent(r.Context(), "auth.token.rejected", map[string]any{
				"reason": reason,
				"token":  audit.TokenPrefix(token),
				"path":   r.URL.Path,
			})
			writeError(w, r, http.StatusUnauthorized, "Refresh token inválido")
			return
		}
		obs.Error("refresh failed", map[string]any{"error": err.Error(), "request_id": RequestIDFromContext(r.Context())})
		writeError(w, r, http.StatusInternalServerError, "Erro interno do servidor")
		return
	}

	_ = audit.LogEvent(r.Context(), "auth.token.refreshed", map[string]any{
		"cod_usuario": id.LoginCode,
		"expires_at":  session.AccessExpiresAt.Format(time.RFC3339),
	})
	writeJSON(w, http.StatusOK, tokenResponse{
		Token:        session.AccessToken,
		RefreshToken: session.RefreshToken,
		ExpiresIn:    int64(a.auth.AccessTTL() / time.Second),
		TokenType:    "Bearer",
		StatusCode:   http.StatusOK,
	})
}

// decodeLogin reads a JSON or form-urlencoded body.
func decodeLogin(r *http.Request) (loginRequest, error) {
	var req loginRequest
	ct, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if ct == "application/x-www-form-urlencoded" || ct == "multipart/form-data" {
		if err := r.ParseForm(); err != nil {
			return req, err
		}
		req.LoginCode = loginCode(r.PostForm.Get("cod_usuario"))
		req.Password = r.PostForm.Get("password")
		return req, nil
	}
	if err := decodeJSON(r, &req); err != nil {
		return req, err
	}
	return req, nil
}

func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return errors.New("request body too large")
		}
		return errors.New("invalid JSON body")
	}
	return nil
}
