package resilience

import (
	"math/rand"
	"time"
)

// Backoff produces delays for an unbounded reconnect loop: exponential
// growth from Initial to Max, with full jitter (each delay drawn uniformly
// from [0, ceiling)). Not safe for concurrent use; each reconnect loop
// owns its own Backoff.
type Backoff struct {
	// Initial is the first ceiling value.
	Initial time.Duration
	// Max caps the ceiling.
	Max time.Duration
	// Factor is the ceiling multiplier per attempt.
	Factor float64

	attempt int
	rng     *rand.Rand
}

// NewBackoff creates a Backoff with the given parameters, applying
// defaults for unset fields.
func NewBackoff(initial, max time.Duration, factor float64) *Backoff {
	if initial <= 0 {
		initial = 500 * time.Millisecond
	}
	if max <= 0 {
		max = 30 * time.Second
	}
	if factor <= 1 {
		factor = 2.0
	}
	return &Backoff{
		Initial: initial,
		Max:     max,
		Factor:  factor,
		rng:     rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Next returns the delay before the next attempt and advances the attempt
// counter. The delay is uniform in [0, ceiling) where the ceiling grows
// exponentially and is capped at Max.
func (b *Backoff) Next() time.Duration {
	ceiling := exponentialDelay(b.attempt+1, b.Initial, b.Max, b.Factor)
	b.attempt++
	if ceiling <= 0 {
		return 0
	}
	return time.Duration(b.rng.Int63n(int64(ceiling)))
}

// Attempt returns the number of delays handed out since the last Reset.
func (b *Backoff) Attempt() int {
	return b.attempt
}

// Reset restarts the progression; call it after a successful connection.
func (b *Backoff) Reset() {
	b.attempt = 0
}
