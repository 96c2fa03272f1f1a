package bootstrap

import (
	"github.com/relaykit/relayd/config"
)

// Config is the constraint for application configuration types. Any
// struct embedding config.ServiceConfig satisfies it via promoted
// methods once it overrides ApplyDefaults and Validate.
type Config interface {
	GetServiceConfig() *config.ServiceConfig
	ApplyDefaults()
	Validate() error
}
