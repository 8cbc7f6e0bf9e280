package api

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// AlertStream handles GET /api/v1/alerts/stream, a server-sent events feed of
// the caller's alerts. Admin users listed in the config receive every user's
// events. The subscription ends when the client disconnects.
func (h *Handlers) AlertStream(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("userId")
	if userID == "" {
		writeError(w, http.StatusBadRequest, "userId is required", "VALIDATION")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming not supported", "NO_STREAMING")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	// Initial comment so proxies and clients see the stream is live.
	fmt.Fprint(w, ": connected\n\n")
	flusher.Flush()

	sub := h.alerts.Subscribe(userID)
	defer h.alerts.Unsubscribe(sub)

	for {
		select {
		case <-r.Context().Done():
			return
		case alert, open := <-sub.Events():
			if !open {
				return
			}
			data, err := json.Marshal(alert)
			if err != nil {
				continue
			}
			if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", alert.Channel, data); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}
