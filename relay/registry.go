package relay

import (
	"sync"

	"github.com/relaykit/relayd/logger"
)

// Registry is the thread-safe set of attached consumers. It is the only
// state mutated by more than one actor (attach/detach callers and the
// broadcast loop) and therefore the broker's sole synchronization point.
type Registry struct {
	mu        sync.RWMutex
	consumers map[string]*Consumer
	queueSize int
	log       *logger.Logger
}

// NewRegistry creates an empty registry. queueSize bounds each consumer's
// outbound queue.
func NewRegistry(queueSize int) *Registry {
	if queueSize <= 0 {
		queueSize = 64
	}
	return &Registry{
		consumers: make(map[string]*Consumer),
		queueSize: queueSize,
		log:       logger.WithComponent("registry"),
	}
}

// Attach creates a consumer in ATTACHING and inserts it. The caller
// activates it with Activate once the transport is ready to receive.
func (r *Registry) Attach() *Consumer {
	c := newConsumer(r.queueSize)

	r.mu.Lock()
	r.consumers[c.id] = c
	total := len(r.consumers)
	r.mu.Unlock()

	r.log.Debug("Consumer attached", map[string]interface{}{
		logger.FieldConsumerID: c.id,
		"total_consumers":      total,
	})
	return c
}

// Activate transitions the consumer to ACTIVE so broadcasts reach it.
func (r *Registry) Activate(c *Consumer) {
	if c.activate() {
		r.log.Debug("Consumer active", map[string]interface{}{
			logger.FieldConsumerID: c.id,
		})
	}
}

// Detach removes the consumer and signals its transport to close.
// Removal is synchronous with the close signal: a CLOSED consumer is
// never present in the registry. Idempotent; unknown IDs are a no-op.
func (r *Registry) Detach(id string) {
	r.mu.Lock()
	c, ok := r.consumers[id]
	if ok {
		delete(r.consumers, id)
	}
	total := len(r.consumers)
	r.mu.Unlock()

	if !ok {
		return
	}
	c.close()

	r.log.Debug("Consumer detached", map[string]interface{}{
		logger.FieldConsumerID: id,
		"total_consumers":      total,
	})
}

// Snapshot returns the consumers that are ACTIVE at this instant. The
// broadcast loop iterates the returned slice without holding the lock, so
// attach/detach proceed concurrently with delivery.
func (r *Registry) Snapshot() []*Consumer {
	r.mu.RLock()
	defer r.mu.RUnlock()

	active := make([]*Consumer, 0, len(r.consumers))
	for _, c := range r.consumers {
		if c.State() == StateActive {
			active = append(active, c)
		}
	}
	return active
}

// Len returns the number of attached consumers in any state.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.consumers)
}

// CloseAll detaches every consumer, used at shutdown.
func (r *Registry) CloseAll() {
	r.mu.Lock()
	all := make([]*Consumer, 0, len(r.consumers))
	for _, c := range r.consumers {
		all = append(all, c)
	}
	r.consumers = make(map[string]*Consumer)
	r.mu.Unlock()

	for _, c := range all {
		c.close()
	}
}
