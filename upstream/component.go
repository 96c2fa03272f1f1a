package upstream

import (
	"context"
	"fmt"
	"sync"

	"github.com/relaykit/relayd/component"
)

// Component wraps the Manager as a lifecycle-managed component.
type Component struct {
	manager *Manager

	mu     sync.Mutex
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

var _ component.Component = (*Component)(nil)

// NewComponent creates the subscription component from config, using the
// packaged HTTP channel.
func NewComponent(cfg Config, sink Sink) *Component {
	channel := NewHTTPChannel(cfg, nil)
	return &Component{
		manager: NewManager(cfg.Channel, cfg.InitialCursor(), channel, sink, cfg.Backoff),
	}
}

// NewComponentWithChannel creates the subscription component over a
// caller-supplied channel, for tests and alternative transports.
func NewComponentWithChannel(cfg Config, channel Channel, sink Sink) *Component {
	return &Component{
		manager: NewManager(cfg.Channel, cfg.InitialCursor(), channel, sink, cfg.Backoff),
	}
}

// Manager returns the underlying subscription manager.
func (c *Component) Manager() *Manager { return c.manager }

// Name returns the component name.
func (c *Component) Name() string { return "upstream" }

// Start launches the subscription loop in a background goroutine.
func (c *Component) Start(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	runCtx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		_ = c.manager.Run(runCtx)
	}()
	return nil
}

// Stop cancels the subscription and waits for the loop to return.
func (c *Component) Stop(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cancel != nil {
		c.cancel()
	}
	c.wg.Wait()
	return nil
}

// Health maps the connection state: SUBSCRIBED is healthy, the transient
// states are degraded (the manager is reconnecting), DISCONNECTED is
// unhealthy.
func (c *Component) Health(_ context.Context) component.Health {
	state := c.manager.State()
	status := component.StatusDegraded
	switch state {
	case StateSubscribed:
		status = component.StatusHealthy
	case StateDisconnected:
		status = component.StatusUnhealthy
	}
	return component.Health{
		Name:    c.Name(),
		Status:  status,
		Message: fmt.Sprintf("%s cursor=%s", state, c.manager.Cursor()),
	}
}
