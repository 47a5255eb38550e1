package engine

// State represents the observable state of a playback controller
type State string

// Controller state constants
const (
	StateIdle          State = "idle"           // no host video bound
	StatePlaying       State = "playing"        // video unpaused, ticks arriving
	StatePaused        State = "paused"         // video paused, by the user or by a cue
	StateOverlayActive State = "overlay_active" // one or more overlays shown
)

// String returns the string representation of the controller state
func (s State) String() string {
	return string(s)
}

// IsValid checks if the controller state is a known valid value
func (s State) IsValid() bool {
	switch s {
	case StateIdle, StatePlaying, StatePaused, StateOverlayActive:
		return true
	default:
		return false
	}
}

// CanTransitionTo checks if a transition from the current state to newState
// is expected. The host page drives these transitions, so an unexpected one
// is logged rather than rejected; this exists to surface event-ordering
// bugs in tests and logs.
func (s State) CanTransitionTo(newState State) bool {
	switch s {
	case StateIdle:
		return newState == StatePlaying || newState == StatePaused
	case StatePlaying:
		return newState == StatePaused || newState == StateOverlayActive || newState == StateIdle
	case StatePaused:
		return newState == StatePlaying || newState == StateOverlayActive || newState == StateIdle
	case StateOverlayActive:
		// overlays can outlive a pause or expire back into either state
		return newState == StatePlaying || newState == StatePaused || newState == StateIdle
	default:
		return false
	}
}

// Status is a point-in-time snapshot of a controller, exposed through the
// sessions API for the editing UI's scrubber and status display.
type Status struct {
	State           State   `json:"state"`
	CurrentTimeMs   float64 `json:"current_time_ms"`
	DurationMs      float64 `json:"duration_ms"`
	CueCount        int     `json:"cue_count"`
	LastCueID       string  `json:"last_cue_id,omitempty"`
	ActiveOverlayID string  `json:"active_overlay_id,omitempty"`
}
