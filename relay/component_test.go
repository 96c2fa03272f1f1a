package relay

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/relaykit/relayd/component"
)

func TestComponent_Lifecycle(t *testing.T) {
	c := NewComponent(DefaultHubConfig())

	if c.Name() != "hub" {
		t.Errorf("expected name 'hub', got %q", c.Name())
	}
	if err := c.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	consumer := c.Hub().Registry().Attach()
	c.Hub().Registry().Activate(consumer)

	if err := c.Stop(context.Background()); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}
	if consumer.State() != StateClosed {
		t.Errorf("expected consumer closed after Stop, got %s", consumer.State())
	}
}

func TestComponent_Health(t *testing.T) {
	c := NewComponent(DefaultHubConfig())
	if err := c.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer func() { _ = c.Stop(context.Background()) }()

	consumer := c.Hub().Registry().Attach()
	c.Hub().Registry().Activate(consumer)
	time.Sleep(10 * time.Millisecond)

	h := c.Health(context.Background())
	if h.Status != component.StatusHealthy {
		t.Errorf("expected healthy, got %s", h.Status)
	}
	if !strings.Contains(h.Message, "1 consumers") {
		t.Errorf("expected consumer count in message, got %q", h.Message)
	}
}
