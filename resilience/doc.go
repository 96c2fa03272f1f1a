// Package resilience provides retry and backoff primitives used by the
// upstream subscription manager: bounded retry for one-shot operations
// (login, subscribe) and an unbounded exponential backoff with full
// jitter for the reconnect loop.
package resilience
