// Package observability wires OpenTelemetry metrics and tracing for the
// broker.
//
// Telemetry is opt-in: with no exporter configured the global providers
// stay no-ops, and the instrument calls scattered through the relay and
// upstream packages cost nothing.
//
//	telemetry := observability.NewComponent(cfg)
//	registry.Register(telemetry)
package observability
