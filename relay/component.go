package relay

import (
	"context"
	"fmt"
	"sync"

	"github.com/relaykit/relayd/component"
)

// Component wraps the Hub as a lifecycle-managed component.
type Component struct {
	hub *Hub
	wg  sync.WaitGroup
	mu  sync.Mutex
}

var _ component.Component = (*Component)(nil)

// NewComponent creates a hub component from config.
func NewComponent(cfg HubConfig) *Component {
	return &Component{hub: NewHub(cfg)}
}

// Hub returns the underlying hub for publishing and attach handling.
func (c *Component) Hub() *Hub { return c.hub }

// Name returns the component name.
func (c *Component) Name() string { return "hub" }

// Start launches the broadcast loop in a background goroutine.
func (c *Component) Start(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		c.hub.Run()
	}()
	return nil
}

// Stop signals the loop to shut down and waits for Run to return.
// Every attached consumer is closed.
func (c *Component) Stop(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.hub.Stop()
	c.wg.Wait()
	return nil
}

// Health reports the number of attached consumers.
func (c *Component) Health(_ context.Context) component.Health {
	return component.Health{
		Name:    c.Name(),
		Status:  component.StatusHealthy,
		Message: fmt.Sprintf("%d consumers attached", c.hub.ConsumerCount()),
	}
}
