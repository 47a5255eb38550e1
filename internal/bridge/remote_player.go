package bridge

import (
	"context"
	"sync"

	"github.com/cueline/cueline/internal/player"
)

// commandWriter sends one command envelope to the content script.
type commandWriter interface {
	writeCommand(event string, payload any) error
}

// RemotePlayer implements player.Player against the host page's video
// element. Commands go out over the session's WebSocket; the observable
// state is a mirror updated from the events the content script relays, so
// reads never block on the network.
type RemotePlayer struct {
	writer commandWriter

	mu          sync.Mutex
	currentTime float64
	duration    float64
	paused      bool
	muted       bool
	volume      float64

	handlers      map[int]player.Handler
	nextHandlerID int
}

// NewRemotePlayer creates a remote player seeded from the session's hello
// payload.
func NewRemotePlayer(writer commandWriter, hello HelloPayload) *RemotePlayer {
	return &RemotePlayer{
		writer:      writer,
		currentTime: hello.Seconds,
		duration:    hello.Duration,
		paused:      hello.Paused,
		muted:       hello.Muted,
		volume:      hello.Volume,
		handlers:    make(map[int]player.Handler),
	}
}

// Play resumes host video playback.
func (p *RemotePlayer) Play(_ context.Context) error {
	return p.writer.writeCommand(CommandPlay, nil)
}

// Pause pauses the host video.
func (p *RemotePlayer) Pause(_ context.Context) error {
	return p.writer.writeCommand(CommandPause, nil)
}

// Seek sets the host video's current time, in seconds.
func (p *RemotePlayer) Seek(_ context.Context, seconds float64) error {
	return p.writer.writeCommand(CommandSeek, TimePayload{Seconds: seconds})
}

// SetMuted mutes or unmutes the host video.
func (p *RemotePlayer) SetMuted(_ context.Context, muted bool) error {
	return p.writer.writeCommand(CommandSetMuted, MutedPayload{Muted: muted})
}

// CurrentTime returns the last relayed playback position in seconds.
func (p *RemotePlayer) CurrentTime() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.currentTime
}

// Duration returns the host video duration in seconds.
func (p *RemotePlayer) Duration() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.duration
}

// Paused reports whether the host video is paused, as of the last relayed
// event.
func (p *RemotePlayer) Paused() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.paused
}

// Muted reports whether the host video is muted.
func (p *RemotePlayer) Muted() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.muted
}

// Subscribe registers an event handler and returns its disposer.
func (p *RemotePlayer) Subscribe(h player.Handler) func() {
	p.mu.Lock()
	id := p.nextHandlerID
	p.nextHandlerID++
	p.handlers[id] = h
	p.mu.Unlock()

	return func() {
		p.mu.Lock()
		delete(p.handlers, id)
		p.mu.Unlock()
	}
}

// apply folds one relayed host video event into the mirror and notifies
// subscribers. The session calls this from its read loop, so delivery is
// serialized in wire order.
func (p *RemotePlayer) apply(ev player.Event) {
	p.mu.Lock()
	switch ev.Type {
	case player.EventTimeUpdate, player.EventSeeking:
		p.currentTime = ev.Seconds
	case player.EventPlay:
		p.paused = false
	case player.EventPause:
		p.paused = true
	case player.EventVolumeChange:
		p.muted = ev.Muted
		p.volume = ev.Volume
	}
	handlers := make([]player.Handler, 0, len(p.handlers))
	for _, h := range p.handlers {
		handlers = append(handlers, h)
	}
	p.mu.Unlock()

	for _, h := range handlers {
		h(ev)
	}
}

// setDuration records a duration learned after the hello, e.g. when the
// host page's metadata loads late.
func (p *RemotePlayer) setDuration(seconds float64) {
	p.mu.Lock()
	p.duration = seconds
	p.mu.Unlock()
}
