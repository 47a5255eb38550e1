// Package bridge carries the WebSocket link between the server and the
// content script injected into the host page. The content script is a thin
// relay: it forwards host video events upward and applies player and
// overlay commands downward, while all playback decisions stay server-side.
package bridge

import (
	"encoding/json"
	"fmt"
)

// Envelope is the wire format in both directions: an event name and an
// event-specific payload.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Events sent by the content script.
const (
	EventHello        = "hello"
	EventTimeUpdate   = "timeupdate"
	EventPlay         = "play"
	EventPause        = "pause"
	EventSeeking      = "seeking"
	EventVolumeChange = "volumechange"
	EventDuration     = "durationchange"
	EventResize       = "resize"
	EventEnded        = "overlay_ended"
	EventError        = "overlay_error"
)

// Events sent to the content script.
const (
	CommandPlay          = "play"
	CommandPause         = "pause"
	CommandSeek          = "seek"
	CommandSetMuted      = "set_muted"
	CommandOverlayShow   = "overlay_show"
	CommandOverlayUpdate = "overlay_update"
	CommandOverlayHide   = "overlay_hide"
)

// HelloPayload is the first message of every session: it identifies the
// host page and describes the video element the content script found.
type HelloPayload struct {
	SourceURL  string  `json:"sourceUrl"`
	VideoWidth float64 `json:"videoWidth"`
	Duration   float64 `json:"duration"`
	Seconds    float64 `json:"currentTime"`
	Paused     bool    `json:"paused"`
	Muted      bool    `json:"muted"`
	Volume     float64 `json:"volume"`
}

// TimePayload carries a playback position, in seconds.
type TimePayload struct {
	Seconds float64 `json:"seconds"`
}

// VolumePayload carries the host video's volume state.
type VolumePayload struct {
	Muted  bool    `json:"muted"`
	Volume float64 `json:"volume"`
}

// ResizePayload carries the host video's new on-screen width, in pixels.
type ResizePayload struct {
	VideoWidth float64 `json:"videoWidth"`
}

// OverlayEventPayload identifies the overlay a media ended or error event
// belongs to.
type OverlayEventPayload struct {
	ID      string `json:"id"`
	Message string `json:"message,omitempty"`
}

// MutedPayload carries a mute command.
type MutedPayload struct {
	Muted bool `json:"muted"`
}

// HidePayload identifies the overlay to unmount.
type HidePayload struct {
	ID string `json:"id"`
}

// encodeEnvelope wraps a payload in an envelope and marshals it.
func encodeEnvelope(event string, payload any) ([]byte, error) {
	env := Envelope{Event: event}
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to encode %s payload: %w", event, err)
		}
		env.Data = data
	}
	data, err := json.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s envelope: %w", event, err)
	}
	return data, nil
}

// decodeEnvelope parses one inbound wire message.
func decodeEnvelope(data []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return Envelope{}, fmt.Errorf("failed to decode envelope: %w", err)
	}
	if env.Event == "" {
		return Envelope{}, fmt.Errorf("envelope missing event")
	}
	return env, nil
}

// decodePayload unmarshals an envelope's payload into dst.
func decodePayload(env Envelope, dst any) error {
	if len(env.Data) == 0 {
		return fmt.Errorf("missing %s payload", env.Event)
	}
	if err := json.Unmarshal(env.Data, dst); err != nil {
		return fmt.Errorf("failed to decode %s payload: %w", env.Event, err)
	}
	return nil
}
