package main

import (
	"github.com/relaykit/relayd/config"
	"github.com/relaykit/relayd/observability"
	"github.com/relaykit/relayd/relay"
	"github.com/relaykit/relayd/server"
	"github.com/relaykit/relayd/upstream"
	"github.com/relaykit/relayd/version"
)

// Config is the full broker configuration.
type Config struct {
	config.ServiceConfig `yaml:",inline" mapstructure:",squash"`

	Server    server.Config        `yaml:"server" mapstructure:"server"`
	Upstream  upstream.Config      `yaml:"upstream" mapstructure:"upstream"`
	Relay     RelayConfig          `yaml:"relay" mapstructure:"relay"`
	Telemetry observability.Config `yaml:"telemetry" mapstructure:"telemetry"`
}

// RelayConfig groups the fan-out settings.
type RelayConfig struct {
	Hub    relay.HubConfig     `yaml:"hub" mapstructure:"hub"`
	Stream relay.HandlerConfig `yaml:"stream" mapstructure:"stream"`
}

// ApplyDefaults fills unset fields across all sections.
func (c *Config) ApplyDefaults() {
	if c.Name == "" {
		c.Name = "relayd"
	}
	if c.Version == "" {
		c.Version = version.Get().Version
	}
	c.ServiceConfig.ApplyDefaults()
	c.Server.ApplyDefaults()
	c.Upstream.ApplyDefaults()
	c.Relay.Hub.ApplyDefaults()
	c.Relay.Stream.ApplyDefaults()
	c.Telemetry.ApplyDefaults()

	c.Telemetry.ServiceName = c.Name
	c.Telemetry.ServiceVersion = c.Version
	c.Telemetry.Environment = c.Environment
}

// Validate checks all sections. An upstream without credentials fails
// here, before any component starts.
func (c *Config) Validate() error {
	if err := c.ServiceConfig.Validate(); err != nil {
		return err
	}
	if err := c.Server.Validate(); err != nil {
		return err
	}
	return c.Upstream.Validate()
}
