package overlay

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"github.com/cueline/cueline/internal/cue"
	"github.com/cueline/cueline/internal/logger"
)

// activeOverlay tracks one displayed overlay and what is needed to tear it
// down: its spec for reflow, the expiry timer if one is running, and the
// optional ended callback the engine registered.
type activeOverlay struct {
	spec    Spec
	timer   clockwork.Timer
	onEnded func()
}

// Renderer owns overlay lifecycle for one session. Multiple overlays may be
// active concurrently; each is keyed by id and torn down independently.
// Hide is strictly idempotent: expiry can race between the duration timer,
// the media ended event, and the engine's own end-time safety net, and all
// of those paths collapse to a single teardown.
type Renderer struct {
	mu          sync.Mutex
	sink        Sink
	clock       clockwork.Clock
	designWidth float64
	videoWidth  float64
	active      map[string]*activeOverlay
	log         zerolog.Logger
}

// NewRenderer creates a renderer emitting to the given sink. A nil clock
// uses the real clock.
func NewRenderer(sink Sink, clock clockwork.Clock, designWidth float64) *Renderer {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if designWidth <= 0 {
		designWidth = cue.DesignWidth
	}
	return &Renderer{
		sink:        sink,
		clock:       clock,
		designWidth: designWidth,
		active:      make(map[string]*activeOverlay),
		log:         logger.With("overlay"),
	}
}

// Show displays an overlay. If an overlay with the same id is already
// active it is replaced. onEnded, if non-nil, fires once when the overlay
// expires on its own (duration timer, media ended, or media error), but not
// on an explicit Hide.
//
// Expiry ownership: image and text overlays always run a duration timer
// (they have no natural end). Media overlays run a timer only when an
// explicit duration is set; that timer supersedes the natural ended event.
// With no duration, expiry waits for HandleEnded.
func (r *Renderer) Show(spec Spec, onEnded func()) {
	r.mu.Lock()

	if prev, ok := r.active[spec.ID]; ok {
		r.teardownLocked(spec.ID, prev)
	}

	factor := Factor(r.videoWidth, r.designWidth)
	cmd := ShowCommand{
		ID:     spec.ID,
		Kind:   spec.Kind,
		URL:    spec.URL,
		Text:   spec.Text,
		Bounds: ScaleRect(spec.Position, factor),
		Mute:   spec.Mute,
	}
	if spec.Style != nil {
		scaled := ScaleStyle(*spec.Style, factor)
		cmd.Style = &scaled
	}

	entry := &activeOverlay{spec: spec, onEnded: onEnded}

	needsTimer := spec.Duration > 0 && (spec.Kind == cue.KindImage || spec.Kind == cue.KindText)
	if !needsTimer && spec.Duration > 0 {
		// explicit duration on a media overlay supersedes its natural end
		needsTimer = true
	}
	if needsTimer {
		id := spec.ID
		entry.timer = r.clock.AfterFunc(secondsToDuration(spec.Duration), func() {
			r.expire(id)
		})
	}

	r.active[spec.ID] = entry
	r.mu.Unlock()

	if err := r.sink.ShowOverlay(cmd); err != nil {
		r.log.Error().Err(err).Str("overlay_id", spec.ID).Msg("Failed to show overlay")
		r.expire(spec.ID)
		return
	}

	r.log.Debug().
		Str("overlay_id", spec.ID).
		Str("kind", string(spec.Kind)).
		Float64("duration", spec.Duration).
		Msg("Overlay shown")
}

// Hide tears down exactly the overlay with the given id. It is a no-op when
// the id is not active, and never fires the ended callback.
func (r *Renderer) Hide(id string) {
	r.mu.Lock()
	entry, ok := r.active[id]
	if ok {
		r.teardownLocked(id, entry)
	}
	r.mu.Unlock()

	if ok {
		r.log.Debug().Str("overlay_id", id).Msg("Overlay hidden")
	}
}

// HideAll tears down every active overlay. Used on session teardown.
func (r *Renderer) HideAll() {
	r.mu.Lock()
	ids := make([]string, 0, len(r.active))
	for id := range r.active {
		ids = append(ids, id)
	}
	r.mu.Unlock()

	for _, id := range ids {
		r.Hide(id)
	}
}

// HandleEnded processes a media ended event relayed from the client for the
// overlay with the given id. No-op for unknown ids, which covers the race
// where the duration timer already expired the overlay.
func (r *Renderer) HandleEnded(id string) {
	r.expire(id)
}

// HandleError processes a media error relayed from the client. The overlay
// is torn down immediately rather than left stuck; the ended callback still
// fires so a paused host video is not held paused by a dead overlay.
func (r *Renderer) HandleError(id string, message string) {
	r.log.Warn().
		Str("overlay_id", id).
		Str("error", message).
		Msg("Overlay media failed, tearing down")
	r.expire(id)
}

// Resize records the host video's new on-screen width and reflows every
// active overlay's geometry and text sizing with the new scale factor.
func (r *Renderer) Resize(videoWidth float64) {
	r.mu.Lock()
	r.videoWidth = videoWidth
	factor := Factor(r.videoWidth, r.designWidth)

	updates := make([]UpdateCommand, 0, len(r.active))
	for id, entry := range r.active {
		upd := UpdateCommand{
			ID:     id,
			Bounds: ScaleRect(entry.spec.Position, factor),
		}
		if entry.spec.Style != nil {
			scaled := ScaleStyle(*entry.spec.Style, factor)
			upd.Style = &scaled
		}
		updates = append(updates, upd)
	}
	r.mu.Unlock()

	for _, upd := range updates {
		if err := r.sink.UpdateOverlay(upd); err != nil {
			r.log.Error().Err(err).Str("overlay_id", upd.ID).Msg("Failed to reflow overlay")
		}
	}
}

// ActiveCount returns the number of currently displayed overlays.
func (r *Renderer) ActiveCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.active)
}

// IsActive reports whether the overlay with the given id is displayed.
func (r *Renderer) IsActive(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.active[id]
	return ok
}

// expire tears down an overlay through the self-expiry path, firing the
// ended callback. Safe to call from racing paths: only the first wins.
func (r *Renderer) expire(id string) {
	r.mu.Lock()
	entry, ok := r.active[id]
	if ok {
		r.teardownLocked(id, entry)
	}
	r.mu.Unlock()

	if !ok {
		return
	}
	if entry.onEnded != nil {
		entry.onEnded()
	}
	r.log.Debug().Str("overlay_id", id).Msg("Overlay expired")
}

// teardownLocked removes the entry, stops its timer, and emits the hide
// command. Caller holds r.mu.
func (r *Renderer) teardownLocked(id string, entry *activeOverlay) {
	delete(r.active, id)
	if entry.timer != nil {
		entry.timer.Stop()
		entry.timer = nil
	}
	if err := r.sink.HideOverlay(id); err != nil {
		r.log.Error().Err(err).Str("overlay_id", id).Msg("Failed to hide overlay")
	}
}

func secondsToDuration(seconds float64) time.Duration {
	return time.Duration(seconds * float64(time.Second))
}
