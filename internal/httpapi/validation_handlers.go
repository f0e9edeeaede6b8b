package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"github.com/connectus/newcon-mock/internal/ledger"
	"github.com/connectus/newcon-mock/internal/obs"
	"github.com/connectus/newcon-mock/internal/validation"
)

type validaDocsRequest struct {
	CPFCNPJ  string `json:"cpf_cnpj"`
	Optional string `json:"consulta_opc_SN"`
}

type historyResponse struct {
	CPFCNPJ    string          `json:"cpf_cnpj"`
	Records    []ledger.Record `json:"consultas"`
	Total      int             `json:"total_consultas"`
	StatusCode int             `json:"status_code"`
}

func (a *API) handleValidaDocs(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}

	var req validaDocsRequest
	if isForm(r) {
		if err := r.ParseForm(); err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		req.CPFCNPJ = r.PostForm.Get("cpf_cnpj")
		req.Optional = r.PostForm.Get("consulta_opc_SN")
	} else if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	result, _, err := a.validation.Validate(r.Context(), strings.TrimSpace(req.CPFCNPJ), validation.QueryBureaus(req.Optional))
	if err != nil {
		handleValidationError(w, r, req.CPFCNPJ, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (a *API) handleHistorico(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}

	q := r.URL.Query()
	subject := strings.TrimSpace(q.Get("cpf_cnpj"))
	records, err := a.validation.History(r.Context(), subject, q.Get("ultimaConsultaSN") == "S")
	if err != nil {
		handleValidationError(w, r, subject, err)
		return
	}
	writeJSON(w, http.StatusOK, historyResponse{
		CPFCNPJ:    subject,
		Records:    records,
		Total:      len(records),
		StatusCode: http.StatusOK,
	})
}

func handleValidationError(w http.ResponseWriter, r *http.Request, subject string, err error) {
	switch {
	case errors.Is(err, validation.ErrMissingSubject):
		writeError(w, r, http.StatusBadRequest, validation.ErrMissingSubject.Error())
	default:
		obs.Error("validation failed", map[string]any{
			"error":      err.Error(),
			"path":       r.URL.Path,
			"subject":    ledger.NormalizeKey(subject).Masked(),
			"request_id": RequestIDFromContext(r.Context()),
		})
		writeError(w, r, http.StatusInternalServerError, "Erro interno do servidor")
	}
}

func isForm(r *http.Request) bool {
	return strings.HasPrefix(r.Header.Get("Content-Type"), "application/x-www-form-urlencoded")
}
