package relay

import (
	"context"
	"sync"

	"github.com/relaykit/relayd/logger"
)

// EventName is the SSE event name carried by relayed event frames.
const EventName = "message"

// HubConfig configures the broadcast hub.
type HubConfig struct {
	// BufferSize is the hub input channel buffer between the upstream
	// manager and the broadcast loop.
	BufferSize int `yaml:"buffer_size" mapstructure:"buffer_size"`
	// QueueSize bounds each consumer's outbound queue. A consumer whose
	// queue is full when a broadcast arrives is evicted.
	QueueSize int `yaml:"queue_size" mapstructure:"queue_size"`
}

// ApplyDefaults sets sensible default values for unset fields.
func (c *HubConfig) ApplyDefaults() {
	if c.BufferSize == 0 {
		c.BufferSize = 256
	}
	if c.QueueSize == 0 {
		c.QueueSize = 64
	}
}

// DefaultHubConfig returns a config with defaults applied.
func DefaultHubConfig() HubConfig {
	cfg := HubConfig{}
	cfg.ApplyDefaults()
	return cfg
}

// Hub receives events from the upstream subscription and fans each one
// out to every active consumer. One Run loop consumes the input channel,
// so broadcasts are strictly ordered and never concurrent.
type Hub struct {
	registry *Registry
	input    chan Event
	done     chan struct{}
	stopped  bool
	mu       sync.Mutex
	log      *logger.Logger
	metrics  *hubMetrics
}

// NewHub creates a hub with its own consumer registry.
func NewHub(cfg HubConfig) *Hub {
	cfg.ApplyDefaults()
	return &Hub{
		registry: NewRegistry(cfg.QueueSize),
		input:    make(chan Event, cfg.BufferSize),
		done:     make(chan struct{}),
		log:      logger.WithComponent("hub"),
		metrics:  newHubMetrics(),
	}
}

// Registry returns the hub's consumer registry.
func (h *Hub) Registry() *Registry { return h.registry }

// Run drives the broadcast loop until Stop is called. Run in a goroutine.
func (h *Hub) Run() {
	for {
		select {
		case <-h.done:
			h.registry.CloseAll()
			return
		case ev := <-h.input:
			h.broadcast(ev)
		}
	}
}

// Stop signals the loop to shut down and close every consumer.
// Safe to call multiple times.
func (h *Hub) Stop() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.stopped {
		h.stopped = true
		close(h.done)
	}
}

// Publish hands an event to the broadcast loop, blocking while the input
// buffer is full. Returns false if the hub is stopped; the event is then
// discarded.
func (h *Hub) Publish(ev Event) bool {
	select {
	case <-h.done:
		return false
	case h.input <- ev:
		return true
	}
}

// ConsumerCount returns the number of attached consumers.
func (h *Hub) ConsumerCount() int {
	return h.registry.Len()
}

// broadcast serializes the event once and offers it to the point-in-time
// snapshot of active consumers. A consumer with a full queue is evicted;
// other consumers are unaffected.
func (h *Hub) broadcast(ev Event) {
	data, err := ev.Envelope()
	if err != nil {
		h.log.Error("Dropping unserializable event", map[string]interface{}{
			logger.FieldChannel:  ev.Channel,
			logger.FieldReplayID: ev.ReplayID,
			logger.FieldError:    err.Error(),
		})
		return
	}

	frame := Frame{Name: EventName, ID: ev.ReplayID, Data: data}
	ctx := context.Background()

	delivered := int64(0)
	for _, c := range h.registry.Snapshot() {
		if c.enqueue(frame) {
			delivered++
			continue
		}
		if c.State() != StateActive {
			// Lost the race with a detach; nothing to evict.
			continue
		}
		h.metrics.recordDropped(ctx, ev.Channel)
		h.evict(ctx, c)
	}

	h.metrics.recordRelayed(ctx, ev.Channel, delivered)
	h.log.Debug("Event broadcast", map[string]interface{}{
		logger.FieldChannel:  ev.Channel,
		logger.FieldReplayID: ev.ReplayID,
		"delivered":          delivered,
	})
}

// evict applies the slow-consumer policy: detach the consumer so its
// transport closes, bounding memory instead of stalling the loop.
func (h *Hub) evict(ctx context.Context, c *Consumer) {
	h.log.Warn("Evicting slow consumer", map[string]interface{}{
		logger.FieldConsumerID: c.ID(),
	})
	h.registry.Detach(c.ID())
	h.metrics.recordEvicted(ctx)
}
