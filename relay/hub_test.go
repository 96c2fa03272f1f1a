package relay

import (
	"encoding/json"
	"fmt"
	"strings"
	"testing"
	"time"
)

func testEvent(id string) Event {
	return NewEvent(id, "Orders__e", "", time.Now(), json.RawMessage(`{"total":42}`))
}

// drain collects frames from a consumer until no frame arrives for the
// given quiet period.
func drain(c *Consumer, quiet time.Duration) []Frame {
	var frames []Frame
	for {
		select {
		case f := <-c.Frames():
			frames = append(frames, f)
		case <-time.After(quiet):
			return frames
		}
	}
}

func TestHub_BroadcastReachesActiveConsumers(t *testing.T) {
	hub := NewHub(HubConfig{BufferSize: 8, QueueSize: 8})
	go hub.Run()
	defer hub.Stop()

	c1 := hub.Registry().Attach()
	hub.Registry().Activate(c1)
	c2 := hub.Registry().Attach()
	hub.Registry().Activate(c2)

	if !hub.Publish(testEvent("1")) {
		t.Fatal("publish failed")
	}
	time.Sleep(20 * time.Millisecond)

	for i, c := range []*Consumer{c1, c2} {
		frames := drain(c, 10*time.Millisecond)
		if len(frames) != 1 {
			t.Fatalf("consumer %d: expected 1 frame, got %d", i, len(frames))
		}
		if !strings.Contains(string(frames[0].Data), `"total":42`) {
			t.Errorf("consumer %d: payload missing from frame: %s", i, frames[0].Data)
		}
		if frames[0].ID != "1" {
			t.Errorf("consumer %d: expected frame ID '1', got %q", i, frames[0].ID)
		}
	}
}

func TestHub_LateAttacherMissesEarlierEvents(t *testing.T) {
	hub := NewHub(HubConfig{BufferSize: 8, QueueSize: 8})
	go hub.Run()
	defer hub.Stop()

	early := hub.Registry().Attach()
	hub.Registry().Activate(early)

	hub.Publish(testEvent("1"))
	time.Sleep(20 * time.Millisecond)

	late := hub.Registry().Attach()
	hub.Registry().Activate(late)
	time.Sleep(20 * time.Millisecond)

	if got := len(drain(early, 10*time.Millisecond)); got != 1 {
		t.Errorf("early consumer: expected 1 frame, got %d", got)
	}
	if got := len(drain(late, 10*time.Millisecond)); got != 0 {
		t.Errorf("late consumer: expected 0 frames, got %d", got)
	}
}

func TestHub_DeliveryOrderPerConsumer(t *testing.T) {
	hub := NewHub(HubConfig{BufferSize: 64, QueueSize: 64})
	go hub.Run()
	defer hub.Stop()

	c := hub.Registry().Attach()
	hub.Registry().Activate(c)

	for i := 1; i <= 20; i++ {
		hub.Publish(testEvent(fmt.Sprintf("%d", i)))
	}
	time.Sleep(50 * time.Millisecond)

	frames := drain(c, 10*time.Millisecond)
	if len(frames) != 20 {
		t.Fatalf("expected 20 frames, got %d", len(frames))
	}
	for i, f := range frames {
		want := fmt.Sprintf("%d", i+1)
		if f.ID != want {
			t.Errorf("frame[%d].ID = %q, want %q", i, f.ID, want)
		}
	}
}

func TestHub_SlowConsumerEvicted(t *testing.T) {
	hub := NewHub(HubConfig{BufferSize: 64, QueueSize: 4})
	go hub.Run()
	defer hub.Stop()

	stalled := hub.Registry().Attach()
	hub.Registry().Activate(stalled)

	healthy := hub.Registry().Attach()
	hub.Registry().Activate(healthy)
	received := make(chan Frame, 64)
	go func() {
		for {
			select {
			case f := <-healthy.Frames():
				received <- f
			case <-healthy.Done():
				return
			}
		}
	}()

	// Queue capacity 4: the stalled consumer must be evicted well within
	// 50 broadcasts, while the healthy one receives all of them.
	for i := 1; i <= 50; i++ {
		hub.Publish(testEvent(fmt.Sprintf("%d", i)))
	}
	time.Sleep(100 * time.Millisecond)

	if stalled.State() != StateClosed {
		t.Errorf("expected stalled consumer CLOSED, got %s", stalled.State())
	}
	if hub.ConsumerCount() != 1 {
		t.Errorf("expected 1 consumer left, got %d", hub.ConsumerCount())
	}
	if got := len(received); got != 50 {
		t.Errorf("healthy consumer: expected 50 frames, got %d", got)
	}

	select {
	case <-stalled.Done():
	default:
		t.Error("expected eviction to signal the stalled consumer's transport")
	}
}

func TestHub_PublishAfterStop(t *testing.T) {
	hub := NewHub(DefaultHubConfig())
	go hub.Run()
	hub.Stop()
	time.Sleep(10 * time.Millisecond)

	if hub.Publish(testEvent("1")) {
		t.Error("expected publish to fail after stop")
	}
}

func TestHub_StopClosesAllConsumers(t *testing.T) {
	hub := NewHub(DefaultHubConfig())
	go hub.Run()

	c := hub.Registry().Attach()
	hub.Registry().Activate(c)

	hub.Stop()
	time.Sleep(20 * time.Millisecond)

	if c.State() != StateClosed {
		t.Errorf("expected consumer CLOSED after hub stop, got %s", c.State())
	}
	if hub.ConsumerCount() != 0 {
		t.Errorf("expected 0 consumers, got %d", hub.ConsumerCount())
	}
}

func TestHub_StopIdempotent(t *testing.T) {
	hub := NewHub(DefaultHubConfig())
	go hub.Run()
	hub.Stop()
	hub.Stop()
}
