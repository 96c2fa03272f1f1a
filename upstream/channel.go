package upstream

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/relaykit/relayd/relay"
)

// ErrMalformedMessage marks a received message that could not be decoded.
// The subscription survives it; the manager drops the message and reads on.
var ErrMalformedMessage = errors.New("malformed upstream message")

// Message is a raw provider message before normalization.
type Message struct {
	ReplayID    string          `json:"replayId"`
	Channel     string          `json:"channel"`
	Schema      string          `json:"schema"`
	CreatedDate time.Time       `json:"createdDate"`
	Payload     json.RawMessage `json:"payload"`
}

// EventStream yields provider messages for one subscription.
type EventStream interface {
	// Recv blocks until the next message arrives. It returns
	// ErrMalformedMessage (wrapped) for undecodable messages, io.EOF when
	// the provider closes the stream, and other errors on transport
	// failure.
	Recv() (Message, error)

	// Close releases the underlying transport.
	Close() error
}

// Channel is the opaque link to the event source.
type Channel interface {
	// Subscribe opens a stream on the named channel starting at the
	// cursor position. Implementations handle their own session
	// negotiation; any error is transient from the caller's view.
	Subscribe(ctx context.Context, channel string, cursor relay.Cursor) (EventStream, error)
}
