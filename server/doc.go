// Package server provides the broker's HTTP front.
//
// A Gin engine carries the probe endpoints and the consumer attach
// route; the engine sits behind an h2c wrapper so consumers can hold
// long-lived streams over HTTP/2 cleartext. Additional http.Handlers
// can be mounted beside Gin on the same port.
package server
