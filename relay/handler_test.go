package relay

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func newTestStream(t *testing.T, heartbeat time.Duration) (*Hub, *httptest.Server) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	hub := NewHub(HubConfig{BufferSize: 8, QueueSize: 8})
	go hub.Run()
	t.Cleanup(hub.Stop)

	engine := gin.New()
	engine.GET("/events", AttachHandler(hub, HandlerConfig{HeartbeatInterval: heartbeat}))

	srv := httptest.NewServer(engine)
	t.Cleanup(srv.Close)
	return hub, srv
}

func openStream(t *testing.T, ctx context.Context, url string, header http.Header) (*bufio.Scanner, func()) {
	t.Helper()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		t.Fatalf("building request: %v", err)
	}
	for k, v := range header {
		req.Header[k] = v
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("connecting: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("expected text/event-stream, got %q", ct)
	}
	return bufio.NewScanner(resp.Body), func() { resp.Body.Close() }
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func TestAttachHandler_DeliversEventFrame(t *testing.T) {
	hub, srv := newTestStream(t, time.Minute)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	scanner, closeBody := openStream(t, ctx, srv.URL+"/events", nil)
	defer closeBody()

	waitFor(t, time.Second, func() bool { return hub.ConsumerCount() == 1 })

	hub.Publish(NewEvent("1", "Orders__e", "", time.Now(), json.RawMessage(`{"total":42}`)))

	var lines []string
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			break
		}
		lines = append(lines, line)
	}

	joined := strings.Join(lines, "\n")
	if !strings.Contains(joined, "event: message") {
		t.Errorf("missing event name in frame:\n%s", joined)
	}
	if !strings.Contains(joined, "id: 1") {
		t.Errorf("missing id field in frame:\n%s", joined)
	}
	if !strings.Contains(joined, `"total":42`) {
		t.Errorf("missing payload in frame:\n%s", joined)
	}
}

func TestAttachHandler_HeartbeatComment(t *testing.T) {
	_, srv := newTestStream(t, 30*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	scanner, closeBody := openStream(t, ctx, srv.URL+"/events", nil)
	defer closeBody()

	// No events published: the stream must stay alive on comment frames
	// alone, and those frames must parse as SSE comments.
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		if !strings.HasPrefix(line, ":") {
			t.Fatalf("expected comment frame, got %q", line)
		}
		if line != ":ping" {
			t.Fatalf("expected ':ping', got %q", line)
		}
		return
	}
	t.Fatal("stream ended without a heartbeat")
}

func TestAttachHandler_ClientDisconnectDetaches(t *testing.T) {
	hub, srv := newTestStream(t, time.Minute)

	ctx, cancel := context.WithCancel(context.Background())
	_, closeBody := openStream(t, ctx, srv.URL+"/events", nil)

	waitFor(t, time.Second, func() bool { return hub.ConsumerCount() == 1 })

	cancel()
	closeBody()

	waitFor(t, time.Second, func() bool { return hub.ConsumerCount() == 0 })
}

func TestAttachHandler_BrokerStopClosesStream(t *testing.T) {
	hub, srv := newTestStream(t, time.Minute)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	scanner, closeBody := openStream(t, ctx, srv.URL+"/events", nil)
	defer closeBody()

	waitFor(t, time.Second, func() bool { return hub.ConsumerCount() == 1 })

	hub.Stop()

	done := make(chan struct{})
	go func() {
		for scanner.Scan() {
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("stream did not close after broker stop")
	}
}

func TestAttachHandler_LastEventIDAccepted(t *testing.T) {
	hub, srv := newTestStream(t, time.Minute)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	header := http.Header{}
	header.Set("Last-Event-ID", "41")
	_, closeBody := openStream(t, ctx, srv.URL+"/events", header)
	defer closeBody()

	// The header is a diagnostics hint only; the attach must succeed and
	// no replayed events may arrive.
	waitFor(t, time.Second, func() bool { return hub.ConsumerCount() == 1 })
}
