package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/connectus/newcon-mock/internal/auth"
	"github.com/connectus/newcon-mock/internal/obs"
	"github.com/connectus/newcon-mock/internal/soap"
	"github.com/connectus/newcon-mock/internal/stream"
	"github.com/connectus/newcon-mock/internal/validation"
)

// Pinger is anything whose backend can be probed, e.g. the consultation ledger.
type Pinger interface {
	Ping(ctx context.Context) error
}

// ReadyProbe: простая проверка готовности (ping хранилища консультаций).
type ReadyProbe struct {
	Store Pinger
}

func (rp ReadyProbe) Check(ctx context.Context) error {
	if rp.Store == nil {
		return nil
	}
	return rp.Store.Ping(ctx)
}

type readinessChecker interface {
	Check(ctx context.Context) error
}

// Deps are the collaborators the HTTP layer dispatches to.
type Deps struct {
	Auth       *auth.Service
	Validation *validation.Service
	SOAP       http.Handler
	Stream     *stream.Stream
	Ready      readinessChecker
}

// API: HTTP слой.
type API struct {
	mux        *http.ServeMux
	auth       *auth.Service
	validation *validation.Service
	stream     *stream.Stream
	ready      readinessChecker
	version    string
	now        func() time.Time

	rateBurst    int
	ratePerSec   int
	maxBodyBytes int64
	corsOrigins  []string
}

type Option func(*API)

// WithRateLimit sets the per-client token bucket.
func WithRateLimit(burst, perSecond int) Option {
	return func(a *API) {
		if burst > 0 && perSecond > 0 {
			a.rateBurst, a.ratePerSec = burst, perSecond
		}
	}
}

// WithMaxBodyBytes caps request bodies.
func WithMaxBodyBytes(n int64) Option {
	return func(a *API) {
		if n > 0 {
			a.maxBodyBytes = n
		}
	}
}

// WithCORSOrigins restricts the allowed origins; "*" allows any.
func WithCORSOrigins(origins ...string) Option {
	return func(a *API) {
		if len(origins) > 0 {
			a.corsOrigins = origins
		}
	}
}

// WithClock overrides the time source for response timestamps.
func WithClock(fn func() time.Time) Option {
	return func(a *API) {
		if fn != nil {
			a.now = fn
		}
	}
}

func New(deps Deps, version string, opts ...Option) *API {
	a := &API{
		mux:          http.NewServeMux(),
		auth:         deps.Auth,
		validation:   deps.Validation,
		stream:       deps.Stream,
		ready:        deps.Ready,
		version:      version,
		now:          time.Now,
		rateBurst:    50,
		ratePerSec:   25,
		maxBodyBytes: 1 << 20,
		corsOrigins:  []string{"*"},
	}
	if a.ready == nil {
		a.ready = ReadyProbe{}
	}
	for _, opt := range opts {
		opt(a)
	}

	// health/ready
	a.mux.HandleFunc("/health", a.Health)
	a.mux.HandleFunc("/readyz", a.Ready)

	// Prometheus metrics
	a.mux.Handle("/metrics", obs.Handler())

	// REST
	a.mux.HandleFunc("/login", a.handleLogin)
	a.mux.HandleFunc("/refreshtoken", a.handleRefreshToken)
	a.mux.Handle("/valida_docs", a.withAuth(http.HandlerFunc(a.handleValidaDocs)))
	a.mux.Handle("/historicoConsultaCliente", a.withAuth(http.HandlerFunc(a.handleHistorico)))
	a.mux.Handle("/consultas/stream", a.withAuth(http.HandlerFunc(a.Stream)))

	// SOAP
	if deps.SOAP != nil {
		a.mux.Handle(soap.Path, deps.SOAP)
	}

	a.mux.HandleFunc("/", a.notFound)

	return a
}

// Handler returns the fully wrapped handler for the server.
func (a *API) Handler() http.Handler {
	var h http.Handler = a.mux
	h = MaxBodyBytes(h, a.maxBodyBytes)
	h = RateLimit(h, a.rateBurst, a.ratePerSec)
	h = CORS(h, a.corsOrigins...)
	h = SecurityHeaders(h)
	h = Recover(h)
	h = LoggingJSON(h)
	h = RequestID(h)
	return obs.Instrument(h)
}

// --- Handlers ---

type healthResponse struct {
	Status    string            `json:"status"`
	Timestamp time.Time         `json:"timestamp"`
	Message   string            `json:"message"`
	Version   string            `json:"version"`
	Services  map[string]string `json:"services"`
}

func (a *API) Health(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	writeJSON(w, http.StatusOK, healthResponse{
		Status:    "OK",
		Timestamp: a.now().UTC(),
		Message:   "Mock Server Newcon",
		Version:   a.version,
		Services: map[string]string{
			"soap": "cnsCliente",
			"rest": "valida_docs",
			"auth": "JWT",
		},
	})
}

func (a *API) Ready(w http.ResponseWriter, r *http.Request) {
	if err := a.ready.Check(r.Context()); err != nil {
		obs.SetReady(false)
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status": "not_ready",
			"error":  err.Error(),
		})
		return
	}
	obs.SetReady(true)
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ready",
	})
}

func (a *API) notFound(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusNotFound, map[string]any{
		"error":  "Endpoint não encontrado",
		"path":   r.URL.Path,
		"method": r.Method,
	})
}

// --- helpers ---

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError emits {error, status_code, request_id}. Extra fields are merged in.
func writeError(w http.ResponseWriter, r *http.Request, code int, msg string, extra ...map[string]any) {
	payload := map[string]any{
		"error":       msg,
		"status_code": code,
	}
	for _, m := range extra {
		for k, v := range m {
			payload[k] = v
		}
	}
	if rid := RequestIDFromContext(r.Context()); rid != "" {
		payload["request_id"] = rid
	}
	writeJSON(w, code, payload)
}

func methodNotAllowed(w http.ResponseWriter, r *http.Request, allowed ...string) {
	w.Header().Set("Allow", strings.Join(allowed, ", "))
	writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
}
