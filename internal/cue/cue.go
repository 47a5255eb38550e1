// Package cue defines the timed instruction model that drives playback
// synchronization: pause, skip, media overlay, and text overlay cues
// anchored to millisecond trigger times on a video timeline.
package cue

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Type identifies the cue variant.
type Type string

// Cue type constants
const (
	TypePause       Type = "pause"
	TypeSkip        Type = "skip"
	TypeOverlay     Type = "overlay"
	TypeTextOverlay Type = "text-overlay"
)

// IsValid checks if the cue type is a known valid value
func (t Type) IsValid() bool {
	switch t {
	case TypePause, TypeSkip, TypeOverlay, TypeTextOverlay:
		return true
	default:
		return false
	}
}

// String returns the string representation of the cue type
func (t Type) String() string {
	return string(t)
}

// MediaKind classifies overlay media by how it is rendered and how it ends.
type MediaKind string

// Media kind constants
const (
	KindVideo MediaKind = "video"
	KindAudio MediaKind = "audio"
	KindImage MediaKind = "image"
	KindText  MediaKind = "text"
)

// KindForMIME maps an overlay media MIME type to its render kind.
// Anything that is not video/* or audio/* renders as a static image.
func KindForMIME(mime string) MediaKind {
	switch {
	case strings.HasPrefix(mime, "video/"):
		return KindVideo
	case strings.HasPrefix(mime, "audio/"):
		return KindAudio
	default:
		return KindImage
	}
}

// Rect is a rectangle expressed in the design reference frame (see
// DesignWidth). All overlay geometry is authored in this frame and rescaled
// to the host video's on-screen size at render time.
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// DesignWidth is the width of the reference frame overlay positions are
// authored in. Rendered geometry scales by actualVideoWidth / DesignWidth.
const DesignWidth = 320.0

// OverlayMedia describes a media payload (video, audio, or image) shown on
// top of the host video.
type OverlayMedia struct {
	URL      string  `json:"url"`
	Duration float64 `json:"duration"` // natural/admin-set duration in seconds
	MIME     string  `json:"type"`
	Position Rect    `json:"position"`
}

// TextStyle holds the visual styling of a text overlay. Size-like fields
// (FontSize, Padding, BorderRadius) are in design-frame units and scale
// with the video, everything else passes through untouched.
type TextStyle struct {
	FontFamily      string  `json:"fontFamily"`
	FontSize        float64 `json:"fontSize"`
	Color           string  `json:"color"`
	BackgroundColor string  `json:"backgroundColor"`
	TextAlign       string  `json:"textAlign"`
	Opacity         float64 `json:"opacity"`
	Animation       string  `json:"animation"`
	TextShadow      string  `json:"textShadow"`
	Padding         float64 `json:"padding"`
	BorderRadius    float64 `json:"borderRadius"`
}

// TextOverlay describes a styled text block shown on top of the host video.
type TextOverlay struct {
	Text     string    `json:"text"`
	Style    TextStyle `json:"style"`
	Position Rect      `json:"position"`
}

// Cue is one timed instruction on a timeline. Exactly one variant payload is
// populated, selected by Type. A cue is immutable once handed to the engine;
// edits replace the whole snapshot.
type Cue struct {
	ID          string `json:"id"`
	TriggerTime int64  `json:"triggerTime"` // ms from video start

	Type Type `json:"type"`

	// pause variant
	PauseDuration float64 `json:"pauseDuration,omitempty"` // seconds

	// skip variant
	SkipToTime int64 `json:"skipToTime,omitempty"` // ms

	// overlay variant (also carried by legacy pause cues with media)
	OverlayMedia    *OverlayMedia `json:"overlayMedia,omitempty"`
	OverlayDuration float64       `json:"overlayDuration,omitempty"` // seconds, fallback

	// text-overlay variant
	TextOverlay *TextOverlay `json:"textOverlay,omitempty"`

	// behavior flags
	PauseMainVideo     bool `json:"pauseMainVideo,omitempty"`
	UseOverlayDuration bool `json:"useOverlayDuration,omitempty"`
	MuteOverlayMedia   bool `json:"muteOverlayMedia,omitempty"`
}

// TriggerSeconds returns the trigger time in seconds.
func (c Cue) TriggerSeconds() float64 {
	return float64(c.TriggerTime) / 1000.0
}

// DefaultOverlayDuration is the fallback overlay display time when a cue
// carries neither a media duration nor an explicit overlay duration.
const DefaultOverlayDuration = 5.0

// EffectiveDuration returns how long the overlay spawned by this cue stays
// visible, in seconds: the media's own duration when UseOverlayDuration is
// set, otherwise the cue's fallback duration, defaulting to
// DefaultOverlayDuration when neither is present.
func (c Cue) EffectiveDuration() float64 {
	if c.UseOverlayDuration && c.OverlayMedia != nil && c.OverlayMedia.Duration > 0 {
		return c.OverlayMedia.Duration
	}
	if c.OverlayDuration > 0 {
		return c.OverlayDuration
	}
	return DefaultOverlayDuration
}

// Kind returns the render kind of the overlay this cue spawns, or "" when
// the cue spawns no overlay (plain skip, plain pause).
func (c Cue) Kind() MediaKind {
	switch c.Type {
	case TypeTextOverlay:
		return KindText
	case TypeOverlay:
		if c.OverlayMedia != nil {
			return KindForMIME(c.OverlayMedia.MIME)
		}
	case TypePause:
		// legacy combined pause+overlay path
		if c.OverlayMedia != nil {
			return KindForMIME(c.OverlayMedia.MIME)
		}
	}
	return ""
}

// HasOverlay reports whether executing this cue shows an overlay.
func (c Cue) HasOverlay() bool {
	return c.Kind() != ""
}

// Position returns the design-frame rectangle of the overlay this cue
// spawns. Returns the zero Rect for cues without an overlay.
func (c Cue) Position() Rect {
	if c.TextOverlay != nil {
		return c.TextOverlay.Position
	}
	if c.OverlayMedia != nil {
		return c.OverlayMedia.Position
	}
	return Rect{}
}

// Decode parses a cue from its JSON encoding.
func Decode(data []byte) (Cue, error) {
	var c Cue
	if err := json.Unmarshal(data, &c); err != nil {
		return Cue{}, fmt.Errorf("failed to decode cue: %w", err)
	}
	if !c.Type.IsValid() {
		return Cue{}, fmt.Errorf("unknown cue type %q", c.Type)
	}
	return c, nil
}

// Encode serializes a cue to JSON.
func Encode(c Cue) ([]byte, error) {
	data, err := json.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("failed to encode cue: %w", err)
	}
	return data, nil
}
