package events

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/kbukum/flowkit/logger"
)

// ServeOption configures an SSE connection.
type ServeOption func(*serveOptions)

type serveOptions struct {
	subscriberID string
	buffer       int
	heartbeat    time.Duration
}

// WithSubscriberID pins the hub subscription id for this connection.
// The default is a fresh UUID per connection.
func WithSubscriberID(id string) ServeOption {
	return func(o *serveOptions) { o.subscriberID = id }
}

// WithBuffer sets the subscriber channel capacity for this connection.
func WithBuffer(n int) ServeOption {
	return func(o *serveOptions) { o.buffer = n }
}

// WithHeartbeat sets the keep-alive comment interval. Keep it below
// proxy idle timeouts, which are commonly 60s.
func WithHeartbeat(d time.Duration) ServeOption {
	return func(o *serveOptions) { o.heartbeat = d }
}

// ServeSSE streams hub events to one HTTP client as Server-Sent Events.
// It subscribes to the hub, writes each event as an `event:`/`data:`
// frame with a JSON body, and sends heartbeat comments to keep the
// connection alive through proxies. It blocks until the client
// disconnects or the hub closes.
func ServeSSE(hub *Hub, w http.ResponseWriter, r *http.Request, opts ...ServeOption) {
	o := &serveOptions{heartbeat: 30 * time.Second}
	for _, opt := range opts {
		opt(o)
	}
	if o.subscriberID == "" {
		o.subscriberID = uuid.NewString()
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		logger.Error("sse streaming not supported", map[string]interface{}{
			"subscriber": o.subscriberID,
		})
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	// SSE connections are long-lived; the server's WriteTimeout must not
	// apply to them.
	rc := http.NewResponseController(w)
	if err := rc.SetWriteDeadline(time.Time{}); err != nil {
		logger.Warn("sse could not disable write deadline", map[string]interface{}{
			"subscriber": o.subscriberID,
			"error":      err.Error(),
		})
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	sub := hub.Subscribe(o.subscriberID, o.buffer)
	defer hub.Unsubscribe(o.subscriberID)

	_, _ = fmt.Fprintf(w, ": connected %s\n\n", o.subscriberID)
	flusher.Flush()

	logger.Debug("sse subscriber connected", map[string]interface{}{
		"subscriber":  o.subscriberID,
		"remote_addr": r.RemoteAddr,
	})

	heartbeat := time.NewTicker(o.heartbeat)
	defer heartbeat.Stop()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			logger.Debug("sse subscriber disconnected", map[string]interface{}{
				"subscriber": o.subscriberID,
				"reason":     ctx.Err().Error(),
			})
			return

		case e, open := <-sub.Events():
			if !open {
				return
			}
			data, err := json.Marshal(e)
			if err != nil {
				logger.Error("sse event marshal failed", map[string]interface{}{
					"subscriber": o.subscriberID,
					"error":      err.Error(),
				})
				continue
			}
			_, _ = fmt.Fprintf(w, "event: %s\n", e.Type)
			_, _ = fmt.Fprintf(w, "data: %s\n\n", data)
			flusher.Flush()

		case <-heartbeat.C:
			_, _ = fmt.Fprintf(w, ": heartbeat %d\n\n", time.Now().Unix())
			flusher.Flush()
		}
	}
}
