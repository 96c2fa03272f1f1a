package relay

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Event is a normalized upstream event. Immutable once constructed.
type Event struct {
	// ReplayID is the upstream replay-position token. When the provider
	// did not supply one it is synthesized locally and Resumable is false.
	ReplayID string
	// Channel is the upstream channel the event arrived on.
	Channel string
	// CreatedAt is the provider-reported creation time.
	CreatedAt time.Time
	// SchemaID identifies the payload schema, opaque to the relay.
	SchemaID string
	// Payload is the raw structured payload, passed through untouched.
	Payload json.RawMessage
	// Resumable reports whether ReplayID came from the provider and can
	// be used in a resume cursor.
	Resumable bool
}

// NewEvent constructs an Event, synthesizing a local replay ID when the
// provider omitted one.
func NewEvent(replayID, channel, schemaID string, createdAt time.Time, payload json.RawMessage) Event {
	resumable := replayID != ""
	if replayID == "" {
		replayID = "local-" + uuid.New().String()
	}
	return Event{
		ReplayID:  replayID,
		Channel:   channel,
		CreatedAt: createdAt,
		SchemaID:  schemaID,
		Payload:   payload,
		Resumable: resumable,
	}
}

// envelope is the wire form delivered to consumers.
type envelope struct {
	Channel string          `json:"channel"`
	Payload json.RawMessage `json:"payload"`
	Event   envelopeMeta    `json:"event"`
	Schema  string          `json:"schema,omitempty"`
}

type envelopeMeta struct {
	ReplayID    string `json:"replayId"`
	CreatedDate string `json:"createdDate"`
}

// Envelope serializes the event into the consumer wire envelope
// { channel, payload, event: { replayId, createdDate }, schema }.
func (e Event) Envelope() ([]byte, error) {
	return json.Marshal(envelope{
		Channel: e.Channel,
		Payload: e.Payload,
		Event: envelopeMeta{
			ReplayID:    e.ReplayID,
			CreatedDate: e.CreatedAt.UTC().Format(time.RFC3339),
		},
		Schema: e.SchemaID,
	})
}
