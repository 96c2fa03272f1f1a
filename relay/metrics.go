package relay

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/relaykit/relayd/logger"
)

// hubMetrics holds the hub's OpenTelemetry instruments. When no meter
// provider is configured the global provider is a no-op, so recording
// is always safe.
type hubMetrics struct {
	eventsRelayed    metric.Int64Counter
	eventsDropped    metric.Int64Counter
	consumersEvicted metric.Int64Counter
}

func newHubMetrics() *hubMetrics {
	meter := otel.Meter("relaykit.dev/relay")
	m := &hubMetrics{}
	var err error

	m.eventsRelayed, err = meter.Int64Counter("relay.events.relayed",
		metric.WithDescription("Events delivered to consumer queues"))
	if err != nil {
		logger.Warn("Failed to create counter", logger.ErrorFields("relay.events.relayed", err))
	}
	m.eventsDropped, err = meter.Int64Counter("relay.events.dropped",
		metric.WithDescription("Events dropped for individual consumers"))
	if err != nil {
		logger.Warn("Failed to create counter", logger.ErrorFields("relay.events.dropped", err))
	}
	m.consumersEvicted, err = meter.Int64Counter("relay.consumers.evicted",
		metric.WithDescription("Consumers evicted by the slow-consumer policy"))
	if err != nil {
		logger.Warn("Failed to create counter", logger.ErrorFields("relay.consumers.evicted", err))
	}
	return m
}

func (m *hubMetrics) recordRelayed(ctx context.Context, channel string, n int64) {
	if m.eventsRelayed != nil {
		m.eventsRelayed.Add(ctx, n, metric.WithAttributes(attribute.String("channel", channel)))
	}
}

func (m *hubMetrics) recordDropped(ctx context.Context, channel string) {
	if m.eventsDropped != nil {
		m.eventsDropped.Add(ctx, 1, metric.WithAttributes(attribute.String("channel", channel)))
	}
}

func (m *hubMetrics) recordEvicted(ctx context.Context) {
	if m.consumersEvicted != nil {
		m.consumersEvicted.Add(ctx, 1)
	}
}
