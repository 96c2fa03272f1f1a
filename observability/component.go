package observability

import (
	"context"
	"fmt"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/relaykit/relayd/component"
)

// Component manages the telemetry provider lifecycle.
type Component struct {
	cfg Config

	meterProvider  *sdkmetric.MeterProvider
	tracerProvider *sdktrace.TracerProvider
}

var _ component.Component = (*Component)(nil)

// NewComponent creates the telemetry component.
func NewComponent(cfg Config) *Component {
	return &Component{cfg: cfg}
}

// Name returns the component name.
func (c *Component) Name() string { return "telemetry" }

// Start initializes the exporters when telemetry is enabled. Disabled
// telemetry is a no-op start.
func (c *Component) Start(ctx context.Context) error {
	if !c.cfg.Enabled {
		return nil
	}

	mp, err := InitMeter(ctx, c.cfg)
	if err != nil {
		return fmt.Errorf("telemetry: %w", err)
	}
	c.meterProvider = mp

	tp, err := InitTracer(ctx, c.cfg)
	if err != nil {
		return fmt.Errorf("telemetry: %w", err)
	}
	c.tracerProvider = tp
	return nil
}

// Stop flushes and shuts down the providers.
func (c *Component) Stop(ctx context.Context) error {
	var firstErr error
	if c.tracerProvider != nil {
		if err := c.tracerProvider.Shutdown(ctx); err != nil {
			firstErr = err
		}
		c.tracerProvider = nil
	}
	if c.meterProvider != nil {
		if err := c.meterProvider.Shutdown(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
		c.meterProvider = nil
	}
	return firstErr
}

// Health reports healthy; a failed exporter surfaces at Start.
func (c *Component) Health(_ context.Context) component.Health {
	msg := "disabled"
	if c.cfg.Enabled {
		msg = "exporting to " + c.cfg.Endpoint
	}
	return component.Health{
		Name:    c.Name(),
		Status:  component.StatusHealthy,
		Message: msg,
	}
}
