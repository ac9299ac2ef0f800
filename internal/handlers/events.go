package handlers

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/jjudge-oj/workbench/internal/events"
)

const (
	streamBuffer    = 16
	streamKeepAlive = 25 * time.Second
)

// EventsHandler streams solved events to the signed-in user's views.
type EventsHandler struct {
	bus       *events.Bus
	keepAlive time.Duration
	logger    *slog.Logger

	done      chan struct{}
	closeOnce sync.Once
}

// NewEventsHandler constructs a handler over bus.
func NewEventsHandler(bus *events.Bus, logger *slog.Logger) *EventsHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &EventsHandler{
		bus:       bus,
		keepAlive: streamKeepAlive,
		logger:    logger,
		done:      make(chan struct{}),
	}
}

// Close ends every open stream.
func (h *EventsHandler) Close() {
	h.closeOnce.Do(func() { close(h.done) })
}

// Solved holds the connection open as a server-sent event stream. The
// subscription lives exactly as long as the connection.
func (h *EventsHandler) Solved(w http.ResponseWriter, r *http.Request) {
	principal, ok := principalFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	sub := h.bus.Subscribe(streamBuffer, events.ForUser(principal.UserID))
	defer sub.Close()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ticker := time.NewTicker(h.keepAlive)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-h.done:
			return
		case <-ticker.C:
			if _, err := fmt.Fprint(w, ": keep-alive\n\n"); err != nil {
				return
			}
			flusher.Flush()
		case ev, ok := <-sub.C():
			if !ok {
				return
			}
			payload, err := json.Marshal(ev)
			if err != nil {
				h.logger.Error("encode solved event", "error", err)
				continue
			}
			if _, err := fmt.Fprintf(w, "event: solved\ndata: %s\n\n", payload); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}
