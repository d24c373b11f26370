package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/torisu/jimaku/internal/service"
)

type SSEHandler struct {
	hub *service.Hub
}

func NewSSEHandler(hub *service.Hub) *SSEHandler {
	return &SSEHandler{hub: hub}
}

// sseWrite writes an SSE event with a JSON payload.
func sseWrite(w http.ResponseWriter, event service.Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(w, "event: %s\n", event.Type)
	_, _ = fmt.Fprintf(w, "data: %s\n\n", payload)
	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
	return nil
}

// sendKeepAlive writes an SSE comment to keep the connection active.
func sendKeepAlive(w http.ResponseWriter) {
	_, _ = fmt.Fprint(w, ": keep-alive\n\n")
	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
}

func (h *SSEHandler) Events() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		w.Header().Set("X-Accel-Buffering", "no")

		ch := h.hub.Subscribe()
		defer h.hub.Unsubscribe(ch)

		ctx := r.Context()
		keepAlive := time.NewTicker(15 * time.Second)
		defer keepAlive.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-keepAlive.C:
				sendKeepAlive(w)
			case event, ok := <-ch:
				if !ok {
					return
				}
				if err := sseWrite(w, event); err != nil {
					return
				}
			}
		}
	}
}
