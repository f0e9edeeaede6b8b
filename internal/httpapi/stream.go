package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/connectus/newcon-mock/internal/obs"
)

const (
	sseEventName = "consulta"
	sseRetryMs   = 3000
	sseKeepAlive = 15 * time.Second
)

// Stream serves GET /consultas/stream: one SSE "consulta" event per recorded
// consultation, with a comment line every sseKeepAlive so proxies keep the
// connection open.
func (a *API) Stream(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	if a.stream == nil {
		writeError(w, r, http.StatusServiceUnavailable, "Stream de consultas desabilitado")
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, r, http.StatusInternalServerError, "Streaming não suportado")
		return
	}

	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")

	events := a.stream.Subscribe(r.Context())
	obs.Info("stream subscriber connected", map[string]any{
		"request_id":  RequestIDFromContext(r.Context()),
		"subscribers": a.stream.Subscribers(),
	})

	fmt.Fprintf(w, ": consultas\nretry: %d\n\n", sseRetryMs)
	flusher.Flush()

	ticker := time.NewTicker(sseKeepAlive)
	defer ticker.Stop()

	var seq uint64
	for {
		select {
		case evt, open := <-events:
			if !open {
				return
			}
			payload, err := json.Marshal(evt)
			if err != nil {
				obs.Warn("stream encode failed", map[string]any{"err": err.Error()})
				continue
			}
			seq++
			fmt.Fprintf(w, "id: %d\nevent: %s\ndata: %s\n\n", seq, sseEventName, payload)
			flusher.Flush()
		case <-ticker.C:
			_, _ = w.Write([]byte(": ping\n\n"))
			flusher.Flush()
		}
	}
}
