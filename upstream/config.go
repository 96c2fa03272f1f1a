package upstream

import (
	"time"

	"github.com/relaykit/relayd/errors"
	"github.com/relaykit/relayd/relay"
	"github.com/relaykit/relayd/validation"
)

// BackoffConfig configures the reconnect backoff.
type BackoffConfig struct {
	Initial time.Duration `yaml:"initial" mapstructure:"initial"`
	Max     time.Duration `yaml:"max" mapstructure:"max"`
	Factor  float64       `yaml:"factor" mapstructure:"factor"`
}

// Config holds the upstream connection configuration.
type Config struct {
	// Endpoint is the streaming API base URL.
	Endpoint string `yaml:"endpoint" mapstructure:"endpoint" validate:"required,url"`
	// TokenURL is the session negotiation (login) endpoint.
	TokenURL string `yaml:"token_url" mapstructure:"token_url" validate:"required,url"`
	// ClientID identifies the broker to the provider.
	ClientID string `yaml:"client_id" mapstructure:"client_id" validate:"required"`
	// ClientSecret authenticates via the client-credentials grant.
	// Exactly one of ClientSecret and PrivateKey must be set.
	ClientSecret string `yaml:"client_secret" mapstructure:"client_secret"`
	// PrivateKey is a PEM-encoded RSA key for the JWT-bearer grant.
	PrivateKey string `yaml:"private_key" mapstructure:"private_key"`
	// Audience is the aud claim for JWT-bearer assertions; defaults to TokenURL.
	Audience string `yaml:"audience" mapstructure:"audience"`
	// Channel is the upstream channel to subscribe to.
	Channel string `yaml:"channel" mapstructure:"channel" validate:"required"`
	// Replay selects the initial cursor position: "latest" or "earliest".
	Replay string `yaml:"replay" mapstructure:"replay" validate:"oneof=latest earliest"`
	// Backoff configures reconnect delays.
	Backoff BackoffConfig `yaml:"backoff" mapstructure:"backoff"`
}

// ApplyDefaults sets sensible default values for unset fields.
func (c *Config) ApplyDefaults() {
	if c.Replay == "" {
		c.Replay = "latest"
	}
	if c.Audience == "" {
		c.Audience = c.TokenURL
	}
	if c.Backoff.Initial == 0 {
		c.Backoff.Initial = 500 * time.Millisecond
	}
	if c.Backoff.Max == 0 {
		c.Backoff.Max = 30 * time.Second
	}
	if c.Backoff.Factor == 0 {
		c.Backoff.Factor = 2.0
	}
}

// Validate checks the configuration. Missing credentials are a startup
// precondition failure: the process must not come up without them.
func (c *Config) Validate() error {
	if err := validation.Validate(c); err != nil {
		return err
	}
	if c.ClientSecret == "" && c.PrivateKey == "" {
		return errors.InvalidConfig("upstream credentials missing: set client_secret or private_key")
	}
	if c.ClientSecret != "" && c.PrivateKey != "" {
		return errors.InvalidConfig("upstream credentials ambiguous: set only one of client_secret and private_key")
	}
	return nil
}

// InitialCursor returns the configured starting cursor for the channel.
func (c *Config) InitialCursor() relay.Cursor {
	if c.Replay == "earliest" {
		return relay.CursorEarliest(c.Channel)
	}
	return relay.CursorLatest(c.Channel)
}
