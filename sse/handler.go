package sse

import (
	"net/http"
	"time"

	"github.com/kbukum/taskflow/logger"
)

// KeepAliveInterval is how often an idle stream gets a comment line. It
// stays below common proxy idle timeouts.
var KeepAliveInterval = 30 * time.Second

// ServeSSE streams the client's frames until the request ends or the hub
// stops. It registers the client with hub and unregisters it on return.
func ServeSSE(hub *Hub, w http.ResponseWriter, r *http.Request, client *Client) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		logger.Error("streaming not supported", logger.Fields("client_id", client.ID()))
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	// Streams outlive the server's write timeout.
	rc := http.NewResponseController(w)
	if err := rc.SetWriteDeadline(time.Time{}); err != nil {
		logger.Debug("could not clear write deadline", logger.Fields(
			"client_id", client.ID(),
			logger.FieldError, err.Error(),
		))
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	hub.Register(client)
	defer hub.Unregister(client)

	connected, err := Event{Type: EventConnected, Data: map[string]string{
		"client_id": client.ID(),
		"filter":    client.Filter(),
	}}.Frame()
	if err == nil {
		_, _ = w.Write(connected)
		flusher.Flush()
	}

	keepAlive := time.NewTicker(KeepAliveInterval)
	defer keepAlive.Stop()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case frame, ok := <-client.Events():
			if !ok {
				return
			}
			if _, err := w.Write(frame); err != nil {
				return
			}
			flusher.Flush()
		case <-keepAlive.C:
			if _, err := w.Write([]byte(": keepalive\n\n")); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

func logEncodeError(ev Event, err error) {
	logger.Error("unable to encode event", logger.Fields(
		"type", ev.Type,
		logger.FieldRunID, ev.RunID,
		logger.FieldError, err.Error(),
	))
}
