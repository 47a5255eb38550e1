package player

import (
	"context"
	"sync"
)

// Sim is an in-memory Player used by the engine tests and the editor's
// preview mode. Ticks are driven explicitly via Tick; Seek emits the
// seeking event followed by a timeupdate, matching browser behavior.
type Sim struct {
	mu       sync.Mutex
	current  float64
	duration float64
	paused   bool
	muted    bool
	volume   float64

	nextHandlerID int
	handlers      map[int]Handler
}

// NewSim creates a simulated player with the given duration in seconds.
// The player starts paused at time zero.
func NewSim(duration float64) *Sim {
	return &Sim{
		duration: duration,
		paused:   true,
		volume:   1.0,
		handlers: make(map[int]Handler),
	}
}

// Play unpauses the simulated video.
func (s *Sim) Play(_ context.Context) error {
	s.mu.Lock()
	if !s.paused {
		s.mu.Unlock()
		return nil
	}
	s.paused = false
	s.mu.Unlock()
	s.emit(Event{Type: EventPlay})
	return nil
}

// Pause pauses the simulated video.
func (s *Sim) Pause(_ context.Context) error {
	s.mu.Lock()
	if s.paused {
		s.mu.Unlock()
		return nil
	}
	s.paused = true
	s.mu.Unlock()
	s.emit(Event{Type: EventPause})
	return nil
}

// Seek jumps to the given position and emits seeking then timeupdate,
// the same ordering a real media element produces.
func (s *Sim) Seek(_ context.Context, seconds float64) error {
	s.mu.Lock()
	if seconds < 0 {
		seconds = 0
	}
	if s.duration > 0 && seconds > s.duration {
		seconds = s.duration
	}
	s.current = seconds
	s.mu.Unlock()
	s.emit(Event{Type: EventSeeking, Seconds: seconds})
	s.emit(Event{Type: EventTimeUpdate, Seconds: seconds})
	return nil
}

// SetMuted mutes or unmutes the simulated video.
func (s *Sim) SetMuted(_ context.Context, muted bool) error {
	s.mu.Lock()
	changed := s.muted != muted
	s.muted = muted
	volume := s.volume
	s.mu.Unlock()
	if changed {
		s.emit(Event{Type: EventVolumeChange, Muted: muted, Volume: volume})
	}
	return nil
}

// CurrentTime returns the current playback position in seconds.
func (s *Sim) CurrentTime() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Duration returns the simulated video duration.
func (s *Sim) Duration() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.duration
}

// Paused reports whether the simulated video is paused.
func (s *Sim) Paused() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.paused
}

// Muted reports whether the simulated video is muted.
func (s *Sim) Muted() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.muted
}

// Subscribe registers an event handler and returns its disposer.
func (s *Sim) Subscribe(h Handler) func() {
	s.mu.Lock()
	id := s.nextHandlerID
	s.nextHandlerID++
	s.handlers[id] = h
	s.mu.Unlock()
	return func() {
		s.mu.Lock()
		delete(s.handlers, id)
		s.mu.Unlock()
	}
}

// Tick advances playback to the given position and emits a timeupdate.
// Ticks are only emitted while playing, like a real video element.
func (s *Sim) Tick(seconds float64) {
	s.mu.Lock()
	if s.paused {
		s.mu.Unlock()
		return
	}
	s.current = seconds
	s.mu.Unlock()
	s.emit(Event{Type: EventTimeUpdate, Seconds: seconds})
}

func (s *Sim) emit(ev Event) {
	s.mu.Lock()
	handlers := make([]Handler, 0, len(s.handlers))
	for _, h := range s.handlers {
		handlers = append(handlers, h)
	}
	s.mu.Unlock()
	for _, h := range handlers {
		h(ev)
	}
}
