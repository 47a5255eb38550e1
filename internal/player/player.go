// Package player abstracts the host page's video element. The engine only
// ever talks to this interface; in production the implementation relays
// commands to the content script over the bridge, and in tests a simulated
// player stands in.
package player

import "context"

// EventType identifies a host video event.
type EventType string

// Host video event constants, mirroring the HTMLMediaElement events the
// content script forwards.
const (
	EventPlay         EventType = "play"
	EventPause        EventType = "pause"
	EventSeeking      EventType = "seeking"
	EventTimeUpdate   EventType = "timeupdate"
	EventVolumeChange EventType = "volumechange"
)

// Event is one host video event. Seconds is populated for timeupdate and
// seeking; Muted and Volume for volumechange.
type Event struct {
	Type    EventType
	Seconds float64
	Muted   bool
	Volume  float64
}

// Handler receives host video events. Handlers are invoked synchronously in
// event order; they must not block.
type Handler func(Event)

// Player exposes standard media element semantics for the single host video.
// Command methods return the transport error, which callers are expected to
// log and swallow: playback control is best-effort.
type Player interface {
	// Play resumes host video playback.
	Play(ctx context.Context) error
	// Pause pauses the host video.
	Pause(ctx context.Context) error
	// Seek sets the host video's current time, in seconds.
	Seek(ctx context.Context, seconds float64) error
	// SetMuted mutes or unmutes the host video.
	SetMuted(ctx context.Context, muted bool) error

	// CurrentTime returns the last known playback position in seconds.
	CurrentTime() float64
	// Duration returns the host video duration in seconds, 0 if unknown.
	Duration() float64
	// Paused reports whether the host video is currently paused.
	Paused() bool
	// Muted reports whether the host video is currently muted.
	Muted() bool

	// Subscribe registers an event handler and returns its disposer.
	// Subscribing is idempotent per handler registration; disposers are
	// safe to call more than once.
	Subscribe(h Handler) (unsubscribe func())
}
