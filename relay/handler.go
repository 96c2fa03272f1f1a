package relay

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/relaykit/relayd/logger"
)

// HandlerConfig configures the attach endpoint.
type HandlerConfig struct {
	// HeartbeatInterval is the idle keep-alive period. A ":ping" comment
	// frame is written when no event frame went out for a full interval.
	HeartbeatInterval time.Duration `yaml:"heartbeat_interval" mapstructure:"heartbeat_interval"`
}

// ApplyDefaults sets sensible default values for unset fields.
func (c *HandlerConfig) ApplyDefaults() {
	if c.HeartbeatInterval == 0 {
		c.HeartbeatInterval = 25 * time.Second
	}
}

// AttachHandler returns the long-lived streaming attach endpoint. Each
// request becomes one consumer: attached on arrival, active once headers
// are flushed, detached when the client goes away, the hub evicts it, or
// the broker shuts down.
func AttachHandler(hub *Hub, cfg HandlerConfig) gin.HandlerFunc {
	cfg.ApplyDefaults()
	log := logger.WithComponent("attach")

	return func(c *gin.Context) {
		w := c.Writer
		flusher, ok := w.(http.Flusher)
		if !ok {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "streaming not supported"})
			return
		}

		// Long-lived response: the server's WriteTimeout must not apply.
		rc := http.NewResponseController(w)
		if err := rc.SetWriteDeadline(time.Time{}); err != nil {
			log.Warn("Could not disable write deadline", logger.ErrorFields("attach", err))
		}

		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		w.Header().Set("X-Accel-Buffering", "no")

		registry := hub.Registry()
		consumer := registry.Attach()
		defer registry.Detach(consumer.ID())

		fields := map[string]interface{}{
			logger.FieldConsumerID: consumer.ID(),
			"remote_addr":          c.Request.RemoteAddr,
		}
		// Resume hint only; there is no retroactive delivery.
		if lastID := c.Request.Header.Get("Last-Event-ID"); lastID != "" {
			fields["last_event_id"] = lastID
		}
		log.Debug("Consumer connected", fields)

		w.WriteHeader(http.StatusOK)
		flusher.Flush()
		registry.Activate(consumer)

		heartbeat := time.NewTicker(cfg.HeartbeatInterval)
		defer heartbeat.Stop()

		lastWrite := time.Now()
		ctx := c.Request.Context()
		for {
			select {
			case <-ctx.Done():
				log.Debug("Consumer disconnected", map[string]interface{}{
					logger.FieldConsumerID: consumer.ID(),
					"reason":               ctx.Err().Error(),
				})
				return

			case <-consumer.Done():
				log.Debug("Consumer closed by broker", map[string]interface{}{
					logger.FieldConsumerID: consumer.ID(),
				})
				return

			case frame := <-consumer.Frames():
				if err := writeFrame(w, frame); err != nil {
					log.Debug("Consumer write failed", logger.ErrorFields("write", err))
					return
				}
				flusher.Flush()
				lastWrite = time.Now()

			case <-heartbeat.C:
				if time.Since(lastWrite) < cfg.HeartbeatInterval {
					continue
				}
				// Comment frame: ignored by conforming event parsers.
				if _, err := fmt.Fprint(w, ":ping\n\n"); err != nil {
					log.Debug("Consumer heartbeat failed", logger.ErrorFields("heartbeat", err))
					return
				}
				flusher.Flush()
			}
		}
	}
}

// writeFrame writes one named SSE frame.
func writeFrame(w http.ResponseWriter, f Frame) error {
	if f.Name != "" {
		if _, err := fmt.Fprintf(w, "event: %s\n", f.Name); err != nil {
			return err
		}
	}
	if f.ID != "" {
		if _, err := fmt.Fprintf(w, "id: %s\n", f.ID); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintf(w, "data: %s\n\n", f.Data)
	return err
}
