// Package relay implements the event relay core: fan-out of upstream
// events to long-lived streaming consumers.
//
//   - Event: the normalized upstream event with its replay position
//   - Cursor: a resumable position in the upstream event sequence
//   - Consumer: one downstream connection with a bounded outbound queue
//   - Registry: thread-safe consumer membership under attach/detach races
//   - Hub: the broadcast loop pushing each event to every active consumer
//
// # Delivery semantics
//
// The hub offers each event to the point-in-time snapshot of active
// consumers, in arrival order, at most once per consumer. A consumer whose
// queue is full is evicted rather than blocking the loop or growing
// memory. There is no replay to late attachers and no cross-restart
// persistence.
//
// # Usage
//
//	hub := relay.NewHub(relay.DefaultHubConfig())
//	go hub.Run()
//	router.GET("/events", relay.AttachHandler(hub))
//	hub.Publish(event)
package relay
