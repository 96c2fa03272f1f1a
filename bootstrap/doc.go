// Package bootstrap runs the broker's lifecycle: config validation,
// logger setup, component startup in registration order, signal-driven
// shutdown in reverse order.
package bootstrap
