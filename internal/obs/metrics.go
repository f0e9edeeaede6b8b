package obs

import (
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Общие HTTP-метрики
var (
	initOnce sync.Once

	httpInFlight = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "http_in_flight_requests",
		Help: "In-flight HTTP requests.",
	})

	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latencies in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	readyGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "newcon_ready",
		Help: "1 when the consultation ledger store answers pings.",
	})

	consultationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "newcon_consultations_total",
			Help: "Document validations recorded in the ledger, by outcome.",
		},
		[]string{"outcome"},
	)

	authFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "newcon_auth_failures_total",
			Help: "Rejected logins and tokens, by reason.",
		},
		[]string{"reason"},
	)

	soapRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "newcon_soap_requests_total",
			Help: "cnsCliente SOAP calls, by result.",
		},
		[]string{"result"},
	)
)

// knownPaths keeps the path label bounded; anything else is reported as unmatched.
var knownPaths = map[string]struct{}{
	"/":                         {},
	"/health":                   {},
	"/readyz":                   {},
	"/metrics":                  {},
	"/login":                    {},
	"/refreshtoken":             {},
	"/valida_docs":              {},
	"/historicoConsultaCliente": {},
	"/consultas/stream":         {},
	"/ws/ws_newcon.asmx":        {},
}

// Init registers metrics in the default registry. Safe to call more than once.
func Init() {
	initOnce.Do(func() {
		prometheus.MustRegister(
			httpInFlight, httpRequestsTotal, httpRequestDuration,
			readyGauge, consultationsTotal, authFailuresTotal, soapRequestsTotal,
		)
	})
}

// Handler exposes the Prometheus scrape endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// CanonicalPath maps a request path onto a bounded label value.
func CanonicalPath(raw string) string {
	if i := strings.IndexByte(raw, '?'); i >= 0 {
		raw = raw[:i]
	}
	if raw == "" {
		return "/"
	}
	if _, ok := knownPaths[raw]; ok {
		return raw
	}
	return "/:unmatched"
}

// Instrument wraps next with RPS/latency/in-flight measurements.
func Instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := CanonicalPath(r.URL.Path)
		method := r.Method

		httpInFlight.Inc()
		start := time.Now()

		sw := &statusWriter{ResponseWriter: w, code: 200}
		next.ServeHTTP(sw, r)

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(sw.code)

		httpRequestDuration.WithLabelValues(method, path, status).Observe(duration)
		httpRequestsTotal.WithLabelValues(method, path, status).Inc()
		httpInFlight.Dec()
	})
}

// SetReady flips the readiness gauge.
func SetReady(ready bool) {
	if ready {
		readyGauge.Set(1)
		return
	}
	readyGauge.Set(0)
}

// RecordConsultation counts a ledger append by outcome.
func RecordConsultation(outcome string) {
	consultationsTotal.WithLabelValues(outcome).Inc()
}

// RecordAuthFailure counts a rejected credential or token.
func RecordAuthFailure(reason string) {
	authFailuresTotal.WithLabelValues(reason).Inc()
}

// RecordSOAP counts a handled cnsCliente call.
func RecordSOAP(result string) {
	soapRequestsTotal.WithLabelValues(result).Inc()
}

// statusWriter: локальная копия, чтобы знать код ответа.
type statusWriter struct {
	http.ResponseWriter
	code int
}

func (w *statusWriter) WriteHeader(code int) {
	w.code = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}
