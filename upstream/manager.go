package upstream

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"

	"github.com/relaykit/relayd/logger"
	"github.com/relaykit/relayd/relay"
	"github.com/relaykit/relayd/resilience"
)

// ConnectionState is the upstream link state. Exactly one instance exists
// per broker process.
type ConnectionState int32

const (
	StateDisconnected ConnectionState = iota
	StateConnecting
	StateSubscribed
	StateFailing
)

// String returns the state name.
func (s ConnectionState) String() string {
	switch s {
	case StateDisconnected:
		return "DISCONNECTED"
	case StateConnecting:
		return "CONNECTING"
	case StateSubscribed:
		return "SUBSCRIBED"
	case StateFailing:
		return "FAILING"
	default:
		return "UNKNOWN"
	}
}

// Sink receives normalized events in arrival order. Publish returns false
// when the sink has shut down.
type Sink interface {
	Publish(relay.Event) bool
}

// Manager owns the broker's single logical subscription. It reconnects on
// any transport failure with jittered exponential backoff, resuming from
// the replay cursor, and pushes each normalized event to the sink.
//
// The cursor advances strictly after an event is handed to the sink, so a
// crash between receive and hand-off re-requests that event on resume:
// at-least-once, never at-most-once.
type Manager struct {
	channelName string
	channel     Channel
	sink        Sink
	backoff     *resilience.Backoff
	log         *logger.Logger

	state atomic.Int32

	mu     sync.Mutex
	cursor relay.Cursor

	reconnects metric.Int64Counter
}

// NewManager creates a manager subscribing to channelName from the given
// initial cursor.
func NewManager(channelName string, initial relay.Cursor, channel Channel, sink Sink, backoff BackoffConfig) *Manager {
	m := &Manager{
		channelName: channelName,
		channel:     channel,
		sink:        sink,
		cursor:      initial,
		backoff:     resilience.NewBackoff(backoff.Initial, backoff.Max, backoff.Factor),
		log:         logger.WithComponent("upstream"),
	}
	m.state.Store(int32(StateDisconnected))

	meter := otel.Meter("relaykit.dev/upstream")
	counter, err := meter.Int64Counter("relay.upstream.reconnects",
		metric.WithDescription("Upstream resubscription attempts after a failure"))
	if err != nil {
		m.log.Warn("Failed to create counter", logger.ErrorFields("relay.upstream.reconnects", err))
	} else {
		m.reconnects = counter
	}
	return m
}

// State returns the current connection state.
func (m *Manager) State() ConnectionState {
	return ConnectionState(m.state.Load())
}

// Cursor returns the current replay cursor.
func (m *Manager) Cursor() relay.Cursor {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cursor
}

// Run drives the subscription until the context is canceled. All failures
// after startup are transient: the loop never returns on its own.
func (m *Manager) Run(ctx context.Context) error {
	defer m.setState(StateDisconnected)

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		m.setState(StateConnecting)
		cursor := m.Cursor()
		stream, err := m.channel.Subscribe(ctx, m.channelName, cursor)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			m.setState(StateFailing)
			if !m.waitBackoff(ctx, err) {
				return ctx.Err()
			}
			continue
		}

		m.setState(StateSubscribed)
		m.backoff.Reset()
		m.log.Info("Subscribed", map[string]interface{}{
			logger.FieldChannel: m.channelName,
			"cursor":            cursor.String(),
		})

		err = m.pump(ctx, stream)
		_ = stream.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}

		m.setState(StateFailing)
		m.log.Warn("Upstream stream ended", map[string]interface{}{
			logger.FieldChannel: m.channelName,
			logger.FieldError:   errString(err),
		})
		if !m.waitBackoff(ctx, err) {
			return ctx.Err()
		}
	}
}

// pump reads the stream until it fails, normalizing and publishing each
// message. Malformed messages are dropped with a diagnostic.
func (m *Manager) pump(ctx context.Context, stream EventStream) error {
	for {
		msg, err := stream.Recv()
		if err != nil {
			if stderrors.Is(err, ErrMalformedMessage) {
				m.log.Warn("Dropping malformed upstream message", map[string]interface{}{
					logger.FieldChannel: m.channelName,
					logger.FieldError:   err.Error(),
				})
				continue
			}
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		ev, ok := m.normalize(msg)
		if !ok {
			continue
		}
		if !m.sink.Publish(ev) {
			// Sink shut down; nothing left to deliver to.
			return context.Canceled
		}

		// Strictly after hand-off, so a crash in between re-requests the
		// event rather than skipping it.
		m.advance(ev)
	}
}

// normalize converts a raw provider message into a relay event. Returns
// false for messages that fail normalization; they are dropped with a
// diagnostic and do not stop the subscription.
func (m *Manager) normalize(msg Message) (relay.Event, bool) {
	if len(msg.Payload) == 0 || !json.Valid(msg.Payload) {
		m.log.Warn("Dropping event with invalid payload", map[string]interface{}{
			logger.FieldChannel:  m.channelName,
			logger.FieldReplayID: msg.ReplayID,
		})
		return relay.Event{}, false
	}

	channel := msg.Channel
	if channel == "" {
		channel = m.channelName
	}
	createdAt := msg.CreatedDate
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	return relay.NewEvent(msg.ReplayID, channel, msg.Schema, createdAt, msg.Payload), true
}

func (m *Manager) advance(ev relay.Event) {
	m.mu.Lock()
	m.cursor = m.cursor.Advance(ev)
	m.mu.Unlock()
}

// waitBackoff sleeps for the next backoff delay, context-aware. Returns
// false when the context was canceled.
func (m *Manager) waitBackoff(ctx context.Context, cause error) bool {
	delay := m.backoff.Next()
	if m.reconnects != nil {
		m.reconnects.Add(ctx, 1)
	}
	m.log.Info("Reconnecting after backoff", map[string]interface{}{
		logger.FieldChannel: m.channelName,
		logger.FieldAttempt: m.backoff.Attempt(),
		"delay":             delay.String(),
		logger.FieldError:   errString(cause),
	})

	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

func (m *Manager) setState(s ConnectionState) {
	old := ConnectionState(m.state.Swap(int32(s)))
	if old != s {
		m.log.Debug("Connection state changed", map[string]interface{}{
			"from": old.String(),
			"to":   s.String(),
		})
	}
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
