package relay

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// ConsumerState is the lifecycle state of a downstream connection.
type ConsumerState int32

const (
	// StateAttaching means the consumer exists but its transport is not
	// yet ready to receive.
	StateAttaching ConsumerState = iota
	// StateActive means the consumer receives broadcasts.
	StateActive
	// StateClosing means the consumer is being removed.
	StateClosing
	// StateClosed means the consumer is gone; never present in a registry.
	StateClosed
)

// String returns the state name.
func (s ConsumerState) String() string {
	switch s {
	case StateAttaching:
		return "ATTACHING"
	case StateActive:
		return "ACTIVE"
	case StateClosing:
		return "CLOSING"
	case StateClosed:
		return "CLOSED"
	default:
		return "UNKNOWN"
	}
}

// Frame is one unit on a consumer's outbound queue: a serialized event
// envelope with its SSE framing metadata.
type Frame struct {
	// Name is the SSE event name ("message" for relayed events).
	Name string
	// ID is the replay token carried in the SSE id field.
	ID string
	// Data is the serialized envelope.
	Data []byte
}

// Consumer represents one downstream streaming connection. The registry
// owns its membership; the transport handler owns its physical connection
// and drains Frames until Done is closed.
type Consumer struct {
	id           string
	queue        chan Frame
	done         chan struct{}
	state        atomic.Int32
	lastActivity atomic.Int64
	closeOnce    sync.Once
}

// newConsumer creates a consumer in ATTACHING with a bounded queue.
func newConsumer(queueSize int) *Consumer {
	c := &Consumer{
		id:    uuid.New().String(),
		queue: make(chan Frame, queueSize),
		done:  make(chan struct{}),
	}
	c.state.Store(int32(StateAttaching))
	c.touch()
	return c
}

// ID returns the consumer's unique identifier, minted per attach.
func (c *Consumer) ID() string { return c.id }

// State returns the consumer's current lifecycle state.
func (c *Consumer) State() ConsumerState {
	return ConsumerState(c.state.Load())
}

// Frames returns the outbound queue. The transport handler reads from it
// until Done is closed.
func (c *Consumer) Frames() <-chan Frame { return c.queue }

// Done is closed when the consumer is detached. The transport handler
// must stop draining and close its connection.
func (c *Consumer) Done() <-chan struct{} { return c.done }

// LastActivity returns the time of the last successful enqueue.
func (c *Consumer) LastActivity() time.Time {
	return time.Unix(0, c.lastActivity.Load())
}

// activate transitions ATTACHING to ACTIVE. Called by the registry once
// the transport is ready to receive.
func (c *Consumer) activate() bool {
	return c.state.CompareAndSwap(int32(StateAttaching), int32(StateActive))
}

// enqueue offers a frame without blocking. Returns false if the queue is
// full or the consumer is no longer active; a full queue is the signal
// for slow-consumer eviction.
func (c *Consumer) enqueue(f Frame) bool {
	if c.State() != StateActive {
		return false
	}
	select {
	case c.queue <- f:
		c.touch()
		return true
	default:
		return false
	}
}

// close transitions through CLOSING to CLOSED and signals the transport.
// Idempotent. The queue channel itself is never closed so a racing
// enqueue can never panic; pending frames are simply abandoned.
func (c *Consumer) close() {
	c.closeOnce.Do(func() {
		c.state.Store(int32(StateClosing))
		close(c.done)
		c.state.Store(int32(StateClosed))
	})
}

func (c *Consumer) touch() {
	c.lastActivity.Store(time.Now().UnixNano())
}
