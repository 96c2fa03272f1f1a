package relay

import "fmt"

// CursorPosition selects where a subscription starts in the upstream
// event sequence.
type CursorPosition int

const (
	// PositionLatest requests only events published after subscription start.
	PositionLatest CursorPosition = iota
	// PositionEarliest requests the full retained backlog.
	PositionEarliest
	// PositionAt resumes after a specific prior replay token.
	PositionAt
)

// String returns the position name.
func (p CursorPosition) String() string {
	switch p {
	case PositionLatest:
		return "LATEST"
	case PositionEarliest:
		return "EARLIEST"
	case PositionAt:
		return "AT"
	default:
		return fmt.Sprintf("CursorPosition(%d)", int(p))
	}
}

// Cursor is a resumable position marker into the upstream event sequence
// for one channel. Mutated only by the subscription manager, strictly
// after an event has been handed to the hub.
type Cursor struct {
	Channel  string
	Position CursorPosition
	// Token is the replay token to resume after; set only for PositionAt.
	Token string
}

// CursorLatest returns a cursor requesting only new events.
func CursorLatest(channel string) Cursor {
	return Cursor{Channel: channel, Position: PositionLatest}
}

// CursorEarliest returns a cursor requesting the full retained backlog.
func CursorEarliest(channel string) Cursor {
	return Cursor{Channel: channel, Position: PositionEarliest}
}

// CursorAt returns a cursor resuming after the given replay token.
func CursorAt(channel, token string) Cursor {
	return Cursor{Channel: channel, Position: PositionAt, Token: token}
}

// Advance returns the cursor positioned after the given event. Events with
// synthesized replay IDs do not move the cursor: their IDs are not valid
// resume targets.
func (c Cursor) Advance(e Event) Cursor {
	if !e.Resumable {
		return c
	}
	return Cursor{Channel: c.Channel, Position: PositionAt, Token: e.ReplayID}
}

// String renders the cursor for logs.
func (c Cursor) String() string {
	if c.Position == PositionAt {
		return fmt.Sprintf("%s@AT(%s)", c.Channel, c.Token)
	}
	return fmt.Sprintf("%s@%s", c.Channel, c.Position)
}
