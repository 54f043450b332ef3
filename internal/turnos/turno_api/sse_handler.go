package turno_api

import (
	"fmt"
	"net/http"
	"time"
)

const keepAlivePeriod = 30 * time.Second

// StreamEvents is the read-only counterpart of /ws for displays that only
// need to know when to reload.
func (h *Handler) StreamEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	// The server-wide WriteTimeout would otherwise cut the stream.
	if err := http.NewResponseController(w).SetWriteDeadline(time.Time{}); err != nil {
		h.Logger.Debug("SSE", fmt.Sprintf("Could not clear write deadline: %v", err))
	}

	h.setupSSEHeaders(w)
	w.WriteHeader(http.StatusOK)

	ctx := r.Context()
	id, events := h.Emitter.Subscribe(ctx)
	h.Logger.LogRealtime("SSE_CONNECT", fmt.Sprintf("client %s subscribed", id))

	fmt.Fprint(w, ": connected\n\n")
	flusher.Flush()

	keepAlive := time.NewTicker(keepAlivePeriod)
	defer keepAlive.Stop()

	for {
		select {
		case event, ok := <-events:
			if !ok {
				return
			}
			fmt.Fprintf(w, "event: %s\ndata: {}\n\n", event.Name)
			flusher.Flush()

		case <-keepAlive.C:
			fmt.Fprint(w, ": ping\n\n")
			flusher.Flush()

		case <-ctx.Done():
			h.Logger.LogRealtime("SSE_DISCONNECT", fmt.Sprintf("client %s left", id))
			return
		}
	}
}

func (h *Handler) setupSSEHeaders(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/event-stream;charset=UTF-8")
	w.Header().Set("Cache-Control", "no-cache, no-store, max-age=0, must-revalidate")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Header().Set("X-Accel-Buffering", "no")
}
