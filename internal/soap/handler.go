package soap

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/connectus/newcon-mock/internal/audit"
	"github.com/connectus/newcon-mock/internal/customer"
	"github.com/connectus/newcon-mock/internal/ledger"
	"github.com/connectus/newcon-mock/internal/obs"
)

// Path is where the endpoint is mounted.
const Path = "/ws/ws_newcon.asmx"

const contentTypeXML = "text/xml; charset=utf-8"

//go:embed wsdl.xml
var wsdlTemplate string

// Shortcut is returned verbatim to callers that ask for JSON.
type Shortcut struct {
	TaxID      string `json:"cpf_cnpj"`
	Name       string `json:"nome"`
	Income     string `json:"renda"`
	PersonType string `json:"tipo_pessoa"`
	Status     string `json:"status"`
}

var jsonShortcut = Shortcut{
	TaxID:      "12345678901",
	Name:       "João Silva Santos",
	Income:     "R$ 5.500",
	PersonType: "F",
	Status:     "Regular",
}

// Lookup resolves a client; customer.Directory satisfies it.
type Lookup interface {
	Lookup(rawTaxID, personType string) (customer.Client, error)
}

type Handler struct {
	clients Lookup
	wsdl    []byte
}

// NewHandler serves cnsCliente from clients. baseURL is the public origin
// advertised in the WSDL service address.
func NewHandler(clients Lookup, baseURL string) *Handler {
	endpoint := strings.TrimRight(baseURL, "/") + Path
	return &Handler{
		clients: clients,
		wsdl:    []byte(strings.Replace(wsdlTemplate, "{{ENDPOINT}}", endpoint, 1)),
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.ServeWSDL(w, r)
	case http.MethodPost:
		h.ServeOperation(w, r)
	default:
		w.Header().Set("Allow", "GET, POST")
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// ServeWSDL writes the service description.
func (h *Handler) ServeWSDL(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", contentTypeXML)
	w.Header().Set("Cache-Control", "public, max-age=3600")
	_, _ = w.Write(h.wsdl)
}

// ServeOperation handles a cnsCliente envelope.
func (h *Handler) ServeOperation(w http.ResponseWriter, r *http.Request) {
	if strings.Contains(r.Header.Get("Accept"), "application/json") {
		obs.RecordSOAP("json_shortcut")
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		_ = json.NewEncoder(w).Encode(jsonShortcut)
		return
	}
	if !strings.Contains(r.Header.Get("Content-Type"), "text/xml") {
		obs.RecordSOAP("bad_request")
		plainError(w, "Content-Type deve ser text/xml para requisições SOAP")
		return
	}

	params, err := ParseRequest(r.Body)
	if err != nil {
		obs.RecordSOAP("bad_request")
		var maxErr *http.MaxBytesError
		switch {
		case errors.As(err, &maxErr):
			http.Error(w, "request body too large", http.StatusRequestEntityTooLarge)
		case errors.Is(err, ErrMissingOperation):
			plainError(w, ErrMissingOperation.Error())
		default:
			plainError(w, err.Error())
		}
		return
	}
	req := params.Request()

	var (
		payload []byte
		result  = "found"
	)
	client, err := h.clients.Lookup(req.TaxID, req.PersonType)
	switch {
	case err == nil:
		payload, err = SuccessEnvelope(client)
	case errors.Is(err, customer.ErrNotFound):
		result = "not_found"
		payload, err = FaultEnvelope(NotFoundMessage)
	}
	if err != nil {
		h.internalError(w, r.Context(), err)
		return
	}

	obs.RecordSOAP(result)
	_ = audit.LogEvent(r.Context(), "soap.cns_cliente", map[string]any{
		"subject":    ledger.NormalizeKey(req.TaxID).Masked(),
		"tipo":       req.Type,
		"pessoa":     req.PersonType,
		"tipo_grupo": req.GroupType,
		"result":     result,
	})

	w.Header().Set("Content-Type", contentTypeXML)
	w.Header().Set("SOAPAction", `""`)
	_, _ = w.Write(payload)
}

func (h *Handler) internalError(w http.ResponseWriter, ctx context.Context, cause error) {
	obs.RecordSOAP("error")
	obs.Error("soap.cns_cliente failed", map[string]any{
		"error":      cause.Error(),
		"request_id": audit.RequestIDFromContext(ctx),
	})
	body, err := FaultEnvelope(fmt.Sprintf("Erro interno: %v", cause))
	if err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", contentTypeXML)
	w.WriteHeader(http.StatusInternalServerError)
	_, _ = w.Write(body)
}

func plainError(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusBadRequest)
	_, _ = w.Write([]byte(msg))
}
