// Package component defines the lifecycle contract shared by the broker's
// long-running pieces (HTTP server, broadcast hub, upstream subscription)
// and a registry that starts them in order and stops them in reverse.
package component
