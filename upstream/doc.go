// Package upstream maintains the broker's single subscription to the
// provider's publish/subscribe feed.
//
// The Channel interface abstracts the provider transport; the packaged
// implementation speaks HTTP streaming (server-sent events) with
// OAuth-style session negotiation. The Manager owns the one logical
// subscription for the broker's lifetime: it reconnects with jittered
// exponential backoff, resumes from the replay cursor, normalizes raw
// provider messages, and hands them to the broadcast hub in arrival
// order. Provider redeliveries after a reconnect are passed through
// unchanged; deduplication is the consumer's concern.
package upstream
