package engine

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"github.com/cueline/cueline/internal/cue"
	"github.com/cueline/cueline/internal/logger"
	"github.com/cueline/cueline/internal/overlay"
	"github.com/cueline/cueline/internal/player"
)

const (
	// defaultFirstTickLookBehind widens the match window after a bind or a
	// seek, when the previous tick is not a usable lower bound. Windows
	// between ordinary ticks use the exact previous tick.
	defaultFirstTickLookBehind = 280 * time.Millisecond
)

// Controller is the playback state machine. It subscribes to host video
// events, matches elapsed time against the cue snapshot, and executes
// matched cues: seeking for skips, pausing with timed resume, and
// delegating overlay display to the renderer.
//
// All state transitions happen synchronously inside the event handler
// before any player command is issued, so a re-entrant tick observes
// updated state immediately. Every failure is logged and swallowed: the
// controller never propagates an error to the page, the only caller-visible
// degradation is an overlay that did not appear.
type Controller struct {
	mu    sync.Mutex
	log   zerolog.Logger
	clock clockwork.Clock

	renderer   *overlay.Renderer
	lookBehind float64 // seconds, applied after bind and seek

	player      player.Player
	unsubscribe func()

	cues      cue.Set
	lastCueID string  // dedup cursor, cleared on seek
	prevTime  float64 // exact previous tick in seconds, < 0 when unknown

	activeOverlayID  string
	activeOverlayEnd float64 // host timeline seconds

	resumeTimer clockwork.Timer
	pausedByCue bool

	state     State
	destroyed bool

	listeners      map[int]func(currentTimeMs float64)
	nextListenerID int
}

// Option configures a Controller.
type Option func(*Controller)

// WithClock substitutes the clock used for resume timers. Tests pass a fake
// clock; production uses the real one.
func WithClock(clock clockwork.Clock) Option {
	return func(c *Controller) { c.clock = clock }
}

// WithFirstTickLookBehind overrides the window widening applied to the
// first tick after a bind or a seek.
func WithFirstTickLookBehind(d time.Duration) Option {
	return func(c *Controller) { c.lookBehind = d.Seconds() }
}

// NewController creates a controller emitting overlays through the given
// renderer. The controller starts idle; call Bind to attach a host video.
func NewController(renderer *overlay.Renderer, opts ...Option) *Controller {
	c := &Controller{
		log:        logger.With("engine"),
		clock:      clockwork.NewRealClock(),
		renderer:   renderer,
		lookBehind: defaultFirstTickLookBehind.Seconds(),
		prevTime:   -1,
		state:      StateIdle,
		listeners:  make(map[int]func(float64)),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Bind attaches the controller to a host video. Rebinding disposes the
// previous subscription and pending timers first, so Bind is idempotent.
func (c *Controller) Bind(p player.Player) {
	c.mu.Lock()
	if c.destroyed {
		c.mu.Unlock()
		return
	}
	if c.unsubscribe != nil {
		c.unsubscribe()
		c.unsubscribe = nil
	}
	c.cancelResumeTimerLocked()
	c.player = p
	c.prevTime = -1
	c.lastCueID = ""
	if p == nil {
		c.setStateLocked(StateIdle)
		c.mu.Unlock()
		return
	}
	if p.Paused() {
		c.setStateLocked(StatePaused)
	} else {
		c.setStateLocked(StatePlaying)
	}
	c.unsubscribe = p.Subscribe(c.onEvent)
	c.mu.Unlock()

	c.log.Debug().Msg("Host video bound")
}

// SetCues replaces the working cue snapshot and resets the dedup cursor.
// Must be called with the full list on every edit; the controller holds no
// diffing logic.
func (c *Controller) SetCues(set cue.Set) {
	c.mu.Lock()
	c.cues = set
	c.lastCueID = ""
	c.mu.Unlock()

	c.log.Debug().Int("cue_count", set.Len()).Msg("Cue snapshot replaced")
}

// SeekTo seeks the host video to the given millisecond position. Used by
// the instruction editor's preview. No-op without a bound video.
func (c *Controller) SeekTo(ms float64) {
	c.mu.Lock()
	p := c.player
	c.mu.Unlock()
	if p == nil {
		return
	}
	if err := p.Seek(context.Background(), ms/1000.0); err != nil {
		c.log.Error().Err(err).Float64("ms", ms).Msg("Seek failed")
	}
}

// CurrentTimeMs returns the host video position in milliseconds, 0 when no
// video is bound.
func (c *Controller) CurrentTimeMs() float64 {
	c.mu.Lock()
	p := c.player
	c.mu.Unlock()
	if p == nil {
		return 0
	}
	return p.CurrentTime() * 1000.0
}

// DurationMs returns the host video duration in milliseconds, 0 when no
// video is bound or the duration is unknown.
func (c *Controller) DurationMs() float64 {
	c.mu.Lock()
	p := c.player
	c.mu.Unlock()
	if p == nil {
		return 0
	}
	return p.Duration() * 1000.0
}

// AddTimeUpdateListener registers an observer that receives the current
// playback time in milliseconds on every tick and returns its listener id.
func (c *Controller) AddTimeUpdateListener(fn func(currentTimeMs float64)) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := c.nextListenerID
	c.nextListenerID++
	c.listeners[id] = fn
	return id
}

// RemoveTimeUpdateListener unregisters a time-update observer. No-op for
// unknown ids.
func (c *Controller) RemoveTimeUpdateListener(id int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.listeners, id)
}

// HideCue force-expires any overlay the cue with the given id may have
// spawned, used when a cue is deleted or edited mid-playback. If that
// overlay was holding the host video paused with no resume timer pending,
// playback resumes so the page is not left frozen by a deleted cue.
func (c *Controller) HideCue(id string) {
	c.mu.Lock()
	var resume bool
	if c.activeOverlayID == id {
		c.activeOverlayID = ""
		c.activeOverlayEnd = 0
		resume = c.pausedByCue && c.resumeTimer == nil
		if resume {
			c.pausedByCue = false
		}
	}
	p := c.player
	c.mu.Unlock()

	c.renderer.Hide(id)

	if resume && p != nil && p.Paused() {
		if err := p.Play(context.Background()); err != nil {
			c.log.Error().Err(err).Str("cue_id", id).Msg("Failed to resume after hiding cue")
		}
	}
}

// LastCueID returns the dedup cursor: the id of the most recently executed
// cue, empty after a seek.
func (c *Controller) LastCueID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastCueID
}

// State returns the controller's current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Status returns a point-in-time snapshot for the sessions API.
func (c *Controller) Status() Status {
	c.mu.Lock()
	st := Status{
		State:           c.state,
		CueCount:        c.cues.Len(),
		LastCueID:       c.lastCueID,
		ActiveOverlayID: c.activeOverlayID,
	}
	p := c.player
	c.mu.Unlock()

	if p != nil {
		st.CurrentTimeMs = p.CurrentTime() * 1000.0
		st.DurationMs = p.Duration() * 1000.0
	}
	return st
}

// Destroy disposes the subscription, cancels pending timers, and tears down
// all active overlays. The controller is unusable afterwards.
func (c *Controller) Destroy() {
	c.mu.Lock()
	if c.destroyed {
		c.mu.Unlock()
		return
	}
	c.destroyed = true
	if c.unsubscribe != nil {
		c.unsubscribe()
		c.unsubscribe = nil
	}
	c.cancelResumeTimerLocked()
	c.player = nil
	c.setStateLocked(StateIdle)
	c.mu.Unlock()

	c.renderer.HideAll()
	c.log.Debug().Msg("Controller destroyed")
}

// onEvent is the single entry point for host video events.
func (c *Controller) onEvent(ev player.Event) {
	switch ev.Type {
	case player.EventTimeUpdate:
		c.handleTick(ev.Seconds)
	case player.EventSeeking:
		c.handleSeeking(ev.Seconds)
	case player.EventPlay:
		c.handlePlay()
	case player.EventPause:
		c.handlePause()
	case player.EventVolumeChange:
		c.log.Debug().Bool("muted", ev.Muted).Float64("volume", ev.Volume).Msg("Host volume changed")
	}
}

// handleTick processes one timeupdate: computes the match window against
// the previous tick, fires matched cues at most once each, runs the
// active-overlay end-time safety net, and notifies time listeners.
func (c *Controller) handleTick(t float64) {
	c.mu.Lock()
	if c.destroyed || c.player == nil {
		c.mu.Unlock()
		return
	}

	last := c.prevTime
	if last < 0 {
		// first tick after bind: widen the window backwards so a cue
		// sitting just before the first observed tick is not missed
		last = t - c.lookBehind
	}

	var matched []cue.Cue
	if t < last {
		// backward jump that bypassed the seeking event: treat as a seek
		c.lastCueID = ""
	} else {
		matched = MatchWindow(last, t, c.cues.All())
	}
	c.prevTime = t

	// safety net independent of the renderer's own expiry; Hide is
	// idempotent so the two paths cannot double-tear-down
	var expiredOverlay string
	if c.activeOverlayID != "" && t >= c.activeOverlayEnd {
		expiredOverlay = c.activeOverlayID
		c.activeOverlayID = ""
		c.activeOverlayEnd = 0
	}

	// advance the dedup cursor synchronously before dispatching anything,
	// so a re-entrant tick never re-selects the same cue
	var run []cue.Cue
	for _, m := range matched {
		if m.ID == c.lastCueID {
			continue
		}
		c.lastCueID = m.ID
		run = append(run, m)
	}

	notify := make([]func(float64), 0, len(c.listeners))
	for _, fn := range c.listeners {
		notify = append(notify, fn)
	}
	c.mu.Unlock()

	if expiredOverlay != "" {
		c.renderer.Hide(expiredOverlay)
	}
	for _, m := range run {
		c.dispatch(m)
	}
	for _, fn := range notify {
		fn(t * 1000.0)
	}
}

// handleSeeking reconciles the controller after a user seek: the dedup
// cursor is cleared so a previously-executed cue can re-fire on a new
// forward pass, the next window opens a look-behind before the seek target
// so a cue sitting exactly on the target still fires, and any pending
// resume timer is canceled. Active overlays are deliberately left alone to
// avoid flicker while the user scrubs; they expire on their own.
func (c *Controller) handleSeeking(t float64) {
	c.mu.Lock()
	c.lastCueID = ""
	c.prevTime = t - c.lookBehind
	c.cancelResumeTimerLocked()
	c.pausedByCue = false
	c.mu.Unlock()

	c.log.Debug().Float64("seconds", t).Msg("Seek detected, dedup cursor reset")
}

func (c *Controller) handlePlay() {
	c.mu.Lock()
	// the user (or a resume) unpaused; a pending auto-resume must not
	// fire against their explicit action
	c.cancelResumeTimerLocked()
	c.pausedByCue = false
	if c.activeOverlayID != "" {
		c.setStateLocked(StateOverlayActive)
	} else {
		c.setStateLocked(StatePlaying)
	}
	c.mu.Unlock()
}

func (c *Controller) handlePause() {
	c.mu.Lock()
	if c.activeOverlayID != "" {
		c.setStateLocked(StateOverlayActive)
	} else {
		c.setStateLocked(StatePaused)
	}
	c.mu.Unlock()
}

// dispatch executes one matched cue by type.
func (c *Controller) dispatch(m cue.Cue) {
	c.log.Info().
		Str("cue_id", m.ID).
		Str("type", m.Type.String()).
		Int64("trigger_ms", m.TriggerTime).
		Msg("Cue triggered")

	switch m.Type {
	case cue.TypeSkip:
		c.dispatchSkip(m)
	case cue.TypePause:
		if m.HasOverlay() {
			// legacy combined pause+overlay cue
			c.dispatchOverlay(m, true)
		} else {
			c.dispatchPause(m)
		}
	case cue.TypeOverlay, cue.TypeTextOverlay:
		c.dispatchOverlay(m, m.PauseMainVideo)
	default:
		c.log.Warn().Str("cue_id", m.ID).Str("type", m.Type.String()).Msg("Unknown cue type, skipping")
	}
}

// dispatchSkip seeks the host video. Skips only apply during active
// playback: firing one while the user has manually paused or is scrubbing
// would be a surprising jump, so it is silently dropped.
func (c *Controller) dispatchSkip(m cue.Cue) {
	c.mu.Lock()
	p := c.player
	c.mu.Unlock()
	if p == nil || p.Paused() {
		c.log.Debug().Str("cue_id", m.ID).Msg("Skip dropped, video not playing")
		return
	}

	target := float64(m.SkipToTime) / 1000.0
	if err := p.Seek(context.Background(), target); err != nil {
		c.log.Error().Err(err).Str("cue_id", m.ID).Msg("Skip seek failed")
		return
	}
	c.log.Debug().Str("cue_id", m.ID).Float64("to_seconds", target).Msg("Skipped")
}

// dispatchPause pauses the host video for the cue's pause duration, then
// auto-resumes, unless the user already resumed in the meantime.
func (c *Controller) dispatchPause(m cue.Cue) {
	c.mu.Lock()
	p := c.player
	c.mu.Unlock()
	if p == nil || p.Paused() {
		c.log.Debug().Str("cue_id", m.ID).Msg("Pause cue dropped, video not playing")
		return
	}

	if err := p.Pause(context.Background()); err != nil {
		c.log.Error().Err(err).Str("cue_id", m.ID).Msg("Pause failed")
		return
	}

	c.mu.Lock()
	c.pausedByCue = true
	c.setStateLocked(StatePaused)
	c.scheduleResumeLocked(m.PauseDuration)
	c.mu.Unlock()
}

// dispatchOverlay shows the cue's overlay, pausing the host video first
// when requested. Overlay cues, like skips, require active playback
// context and are dropped while the video is paused.
func (c *Controller) dispatchOverlay(m cue.Cue, pauseVideo bool) {
	c.mu.Lock()
	p := c.player
	c.mu.Unlock()
	if p == nil || p.Paused() {
		c.log.Debug().Str("cue_id", m.ID).Msg("Overlay cue dropped, video not playing")
		return
	}

	kind := m.Kind()
	duration := m.EffectiveDuration()

	spec := overlay.Spec{
		ID:       m.ID,
		Kind:     kind,
		Position: m.Position(),
		Mute:     m.MuteOverlayMedia,
		Duration: duration,
	}
	switch kind {
	case cue.KindText:
		if m.TextOverlay != nil {
			spec.Text = m.TextOverlay.Text
			style := m.TextOverlay.Style
			spec.Style = &style
		}
	default:
		if m.OverlayMedia != nil {
			spec.URL = m.OverlayMedia.URL
		}
	}
	// media overlays playing out their natural length expire on the ended
	// event instead of a timer; the server does not know the media length
	if m.UseOverlayDuration && (kind == cue.KindVideo || kind == cue.KindAudio) {
		spec.Duration = 0
	}

	// bookkeeping first: a nested tick must see the active overlay slot
	// populated before any command goes out
	c.mu.Lock()
	c.activeOverlayID = m.ID
	c.activeOverlayEnd = m.TriggerSeconds() + duration
	c.setStateLocked(StateOverlayActive)

	var onEnded func()
	if pauseVideo {
		c.pausedByCue = true
		if m.UseOverlayDuration {
			// overlay end drives the resume instead of a fixed timer
			onEnded = func() { c.resumeAfterOverlay(m.ID) }
		} else {
			pauseFor := m.PauseDuration
			if pauseFor <= 0 {
				pauseFor = duration
			}
			c.scheduleResumeLocked(pauseFor)
		}
	}
	c.mu.Unlock()

	if pauseVideo {
		if err := p.Pause(context.Background()); err != nil {
			c.log.Error().Err(err).Str("cue_id", m.ID).Msg("Pause for overlay failed")
		}
	}

	c.renderer.Show(spec, onEnded)
}

// resumeAfterOverlay resumes playback when an overlay that paused the video
// expires. Does nothing if the user already resumed.
func (c *Controller) resumeAfterOverlay(id string) {
	c.mu.Lock()
	if c.activeOverlayID == id {
		c.activeOverlayID = ""
		c.activeOverlayEnd = 0
	}
	shouldResume := c.pausedByCue
	c.pausedByCue = false
	p := c.player
	c.mu.Unlock()

	if !shouldResume || p == nil || !p.Paused() {
		return
	}
	if err := p.Play(context.Background()); err != nil {
		c.log.Error().Err(err).Str("cue_id", id).Msg("Failed to resume after overlay")
	}
}

// scheduleResumeLocked arms the auto-resume timer. Caller holds c.mu.
func (c *Controller) scheduleResumeLocked(seconds float64) {
	c.cancelResumeTimerLocked()
	if seconds <= 0 {
		return
	}
	c.resumeTimer = c.clock.AfterFunc(time.Duration(seconds*float64(time.Second)), c.autoResume)
}

// autoResume fires when a pause cue's duration elapses. It guards against
// a user who manually resumed before the timer: in that case the video is
// no longer paused and the timer does nothing.
func (c *Controller) autoResume() {
	c.mu.Lock()
	c.resumeTimer = nil
	shouldResume := c.pausedByCue
	c.pausedByCue = false
	p := c.player
	destroyed := c.destroyed
	c.mu.Unlock()

	if destroyed || !shouldResume || p == nil || !p.Paused() {
		return
	}
	if err := p.Play(context.Background()); err != nil {
		c.log.Error().Err(err).Msg("Auto-resume failed")
	}
}

// cancelResumeTimerLocked stops a pending auto-resume. Caller holds c.mu.
func (c *Controller) cancelResumeTimerLocked() {
	if c.resumeTimer != nil {
		c.resumeTimer.Stop()
		c.resumeTimer = nil
	}
}

// setStateLocked records a state transition. Caller holds c.mu. The host
// page drives transitions, so unexpected ones are logged, not rejected.
func (c *Controller) setStateLocked(newState State) {
	if c.state == newState {
		return
	}
	if !c.state.CanTransitionTo(newState) && c.state != "" {
		c.log.Debug().
			Str("from", c.state.String()).
			Str("to", newState.String()).
			Msg("Unexpected state transition")
	}
	c.state = newState
}
