package upstream

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/relaykit/relayd/errors"
	"github.com/relaykit/relayd/relay"
)

// sseFrame is a single decoded server-sent event.
type sseFrame struct {
	Event string
	Data  string
	ID    string
}

// sseReader decodes server-sent events from a byte stream.
type sseReader struct {
	scanner *bufio.Scanner
	body    io.ReadCloser
}

func newSSEReader(body io.ReadCloser) *sseReader {
	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	return &sseReader{scanner: scanner, body: body}
}

// next returns the next event. Comment-only frames are skipped. Returns
// io.EOF when the stream ends.
func (r *sseReader) next() (*sseFrame, error) {
	var frame sseFrame
	var hasData bool

	for r.scanner.Scan() {
		line := r.scanner.Text()

		// Blank line terminates a frame.
		if line == "" {
			if hasData {
				return &frame, nil
			}
			continue
		}

		if strings.HasPrefix(line, ":") {
			continue
		}

		field, value := parseSSELine(line)
		switch field {
		case "data":
			if hasData {
				frame.Data += "\n" + value
			} else {
				frame.Data = value
				hasData = true
			}
		case "event":
			frame.Event = value
		case "id":
			frame.ID = value
		}
	}

	if err := r.scanner.Err(); err != nil {
		return nil, err
	}
	if hasData {
		return &frame, nil
	}
	return nil, io.EOF
}

func (r *sseReader) close() error {
	return r.body.Close()
}

// parseSSELine splits a field line, stripping the single optional space
// after the colon per the SSE format.
func parseSSELine(line string) (field, value string) {
	idx := strings.IndexByte(line, ':')
	if idx < 0 {
		return line, ""
	}
	field = line[:idx]
	value = line[idx+1:]
	if value != "" && value[0] == ' ' {
		value = value[1:]
	}
	return field, value
}

// HTTPChannel is the packaged Channel implementation: HTTP streaming with
// lazy session negotiation. A failed or expired session is renewed on the
// next Subscribe.
type HTTPChannel struct {
	cfg    Config
	client *http.Client

	mu      sync.Mutex
	session *Session
}

// NewHTTPChannel creates a channel using the given HTTP client, or
// http.DefaultClient when nil.
func NewHTTPChannel(cfg Config, client *http.Client) *HTTPChannel {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPChannel{cfg: cfg, client: client}
}

var _ Channel = (*HTTPChannel)(nil)

// Subscribe opens a streaming request for the channel at the cursor
// position, logging in first when no live session exists.
func (hc *HTTPChannel) Subscribe(ctx context.Context, channel string, cursor relay.Cursor) (EventStream, error) {
	session, err := hc.currentSession(ctx)
	if err != nil {
		return nil, err
	}

	u, err := subscribeURL(session.Endpoint, channel, cursor)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("building subscribe request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+session.AccessToken)
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := hc.client.Do(req)
	if err != nil {
		return nil, errors.UpstreamUnavailable(session.Endpoint).WithCause(err)
	}

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusUnauthorized:
		resp.Body.Close()
		hc.dropSession()
		return nil, errors.SessionExpired()
	default:
		resp.Body.Close()
		return nil, errors.SubscribeFailed(channel).
			WithDetail("status", resp.StatusCode)
	}

	return &sseStream{reader: newSSEReader(resp.Body)}, nil
}

// currentSession returns the cached session or logs in for a new one.
func (hc *HTTPChannel) currentSession(ctx context.Context) (*Session, error) {
	hc.mu.Lock()
	defer hc.mu.Unlock()

	if !hc.session.Expired() {
		return hc.session, nil
	}
	session, err := Login(ctx, hc.cfg, hc.client)
	if err != nil {
		return nil, err
	}
	hc.session = session
	return session, nil
}

// dropSession discards the cached session so the next Subscribe re-logs-in.
func (hc *HTTPChannel) dropSession() {
	hc.mu.Lock()
	hc.session = nil
	hc.mu.Unlock()
}

// subscribeURL builds the stream URL with the replay position encoded as
// query parameters.
func subscribeURL(endpoint, channel string, cursor relay.Cursor) (string, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return "", errors.InvalidConfig("upstream.endpoint is not a valid URL").WithCause(err)
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/channels/" + url.PathEscape(channel) + "/stream"

	q := u.Query()
	switch cursor.Position {
	case relay.PositionEarliest:
		q.Set("replay", "earliest")
	case relay.PositionAt:
		q.Set("replay", "after")
		q.Set("replayId", cursor.Token)
	default:
		q.Set("replay", "latest")
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// sseStream adapts the SSE reader into an EventStream of provider messages.
type sseStream struct {
	reader *sseReader
}

var _ EventStream = (*sseStream)(nil)

// Recv returns the next provider message. Undecodable frames yield a
// wrapped ErrMalformedMessage; the stream remains readable.
func (s *sseStream) Recv() (Message, error) {
	frame, err := s.reader.next()
	if err != nil {
		return Message{}, err
	}

	var msg Message
	if err := json.Unmarshal([]byte(frame.Data), &msg); err != nil {
		return Message{}, fmt.Errorf("%w: %v", ErrMalformedMessage, err)
	}
	// A frame-level id wins over one embedded in the body.
	if frame.ID != "" {
		msg.ReplayID = frame.ID
	}
	return msg, nil
}

// Close releases the underlying response body.
func (s *sseStream) Close() error {
	return s.reader.close()
}
