// Package overlay manages the presentation lifecycle of overlays shown on
// top of the host video: concurrent display tracked by id, duration and
// media-ended expiry, and reflow when the host player resizes.
package overlay

import "github.com/cueline/cueline/internal/cue"

// Spec describes one overlay to display. Geometry is in the design frame;
// the renderer converts it to pixels against the current video width.
type Spec struct {
	ID       string
	Kind     cue.MediaKind
	URL      string         // media overlays
	Text     string         // text overlays
	Style    *cue.TextStyle // text overlays
	Position cue.Rect
	Duration float64 // seconds; 0 means expiry is driven by the media ended event
	Mute     bool
}

// ShowCommand instructs the client to mount an overlay element.
type ShowCommand struct {
	ID     string         `json:"id"`
	Kind   cue.MediaKind  `json:"kind"`
	URL    string         `json:"url,omitempty"`
	Text   string         `json:"text,omitempty"`
	Style  *cue.TextStyle `json:"style,omitempty"` // already scaled to pixels
	Bounds Bounds         `json:"bounds"`
	Mute   bool           `json:"mute,omitempty"`
}

// UpdateCommand instructs the client to reflow an already-mounted overlay.
type UpdateCommand struct {
	ID     string         `json:"id"`
	Bounds Bounds         `json:"bounds"`
	Style  *cue.TextStyle `json:"style,omitempty"`
}

// Sink receives render commands. The bridge session implements Sink by
// forwarding the commands to the content script; tests use a recording
// sink. Errors are logged and swallowed by the renderer: rendering is
// best-effort and must never stall the engine.
type Sink interface {
	ShowOverlay(cmd ShowCommand) error
	UpdateOverlay(cmd UpdateCommand) error
	HideOverlay(id string) error
}
