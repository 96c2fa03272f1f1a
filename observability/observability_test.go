package observability

import (
	"context"
	"testing"
	"time"
)

func TestConfigApplyDefaults(t *testing.T) {
	var cfg Config
	cfg.ApplyDefaults()

	if cfg.Endpoint != "localhost:4318" {
		t.Errorf("expected default endpoint, got %q", cfg.Endpoint)
	}
	if cfg.Interval != 15*time.Second {
		t.Errorf("expected 15s interval, got %v", cfg.Interval)
	}
	if cfg.SampleRate != 1.0 {
		t.Errorf("expected sample rate 1.0, got %v", cfg.SampleRate)
	}
}

func TestComponentDisabledIsNoop(t *testing.T) {
	c := NewComponent(Config{Enabled: false})

	if err := c.Start(context.Background()); err != nil {
		t.Fatalf("disabled Start should not fail: %v", err)
	}
	if err := c.Stop(context.Background()); err != nil {
		t.Fatalf("disabled Stop should not fail: %v", err)
	}

	health := c.Health(context.Background())
	if health.Status != "healthy" {
		t.Errorf("expected healthy, got %q", health.Status)
	}
	if health.Message != "disabled" {
		t.Errorf("expected 'disabled' message, got %q", health.Message)
	}
}

func TestMeterReturnsNamedMeter(t *testing.T) {
	if Meter("relaykit.dev/test") == nil {
		t.Error("expected a meter from the global provider")
	}
	if Tracer("relaykit.dev/test") == nil {
		t.Error("expected a tracer from the global provider")
	}
}
