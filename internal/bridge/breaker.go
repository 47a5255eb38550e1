package bridge

import (
	"errors"
	"sync"
	"time"
)

// BreakerState represents the state of the overlay error breaker
type BreakerState int

const (
	// BreakerClosed indicates overlays dispatch normally
	BreakerClosed BreakerState = iota
	// BreakerOpen indicates overlay dispatch is suppressed
	BreakerOpen
	// BreakerHalfOpen indicates the next overlay is allowed as a probe
	BreakerHalfOpen
)

// String returns the string representation of BreakerState
func (s BreakerState) String() string {
	switch s {
	case BreakerClosed:
		return "closed"
	case BreakerOpen:
		return "open"
	case BreakerHalfOpen:
		return "half_open"
	default:
		return "unknown"
	}
}

// ErrOverlaysSuppressed indicates the breaker is open and overlay commands
// are being dropped.
var ErrOverlaysSuppressed = errors.New("overlay dispatch suppressed after repeated media failures")

// Breaker suppresses overlay dispatch for a session after repeated media
// failures. A page whose overlay media keeps erroring (blocked CDN, dead
// asset URLs) would otherwise pause the host video over and over for
// overlays that never appear; after the threshold the session drops overlay
// commands until the cooldown elapses, then probes with the next one.
type Breaker struct {
	threshold int
	cooldown  time.Duration

	mu              sync.Mutex
	state           BreakerState
	failures        int
	lastFailureTime time.Time
}

// NewBreaker creates a breaker that opens after threshold consecutive
// failures and probes again after cooldown.
func NewBreaker(threshold int, cooldown time.Duration) *Breaker {
	return &Breaker{
		threshold: threshold,
		cooldown:  cooldown,
		state:     BreakerClosed,
	}
}

// Allow reports whether an overlay command may go out right now.
func (b *Breaker) Allow() bool {
	state := b.State()
	return state == BreakerClosed || state == BreakerHalfOpen
}

// RecordSuccess records an overlay that rendered and ended normally.
func (b *Breaker) RecordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures = 0
	if b.state == BreakerHalfOpen {
		b.state = BreakerClosed
	}
}

// RecordFailure records an overlay media failure.
func (b *Breaker) RecordFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures++
	b.lastFailureTime = time.Now()
	if b.failures >= b.threshold {
		b.state = BreakerOpen
	}
}

// State returns the breaker's current state, transitioning open to
// half-open once the cooldown has elapsed.
func (b *Breaker) State() BreakerState {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state == BreakerOpen && time.Since(b.lastFailureTime) >= b.cooldown {
		b.state = BreakerHalfOpen
		b.failures = 0
	}
	return b.state
}

// Failures returns the current consecutive failure count.
func (b *Breaker) Failures() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.failures
}

// Reset restores the breaker to its initial state.
func (b *Breaker) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.state = BreakerClosed
	b.failures = 0
	b.lastFailureTime = time.Time{}
}
