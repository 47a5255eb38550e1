package bridge

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/cueline/cueline/internal/engine"
	"github.com/cueline/cueline/internal/overlay"
	"github.com/cueline/cueline/internal/player"
)

// writeTimeout bounds each command write so one stuck client cannot wedge
// the engine's dispatch path.
const writeTimeout = 5 * time.Second

// Session is one connected content script: a WebSocket, the remote player
// mirroring its host video, and the engine instance playing its timeline.
// The session is the overlay renderer's sink, forwarding render commands to
// the page, and the read loop is the single source of inbound events.
type Session struct {
	ID         uuid.UUID
	SourceURL  string
	TimelineID uuid.UUID
	StartedAt  time.Time

	conn    *websocket.Conn
	writeMu sync.Mutex

	player     *RemotePlayer
	renderer   *overlay.Renderer
	controller *engine.Controller
	breaker    *Breaker

	log zerolog.Logger
}

// writeCommand marshals and sends one command envelope. All writes funnel
// through here under writeMu: the websocket allows one concurrent writer,
// and commands can originate from the read loop, resume timers, and API
// handlers at once.
func (s *Session) writeCommand(event string, payload any) error {
	data, err := encodeEnvelope(event, payload)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()

	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if err := s.conn.Write(ctx, websocket.MessageText, data); err != nil {
		return fmt.Errorf("failed to send %s: %w", event, err)
	}
	return nil
}

// ShowOverlay forwards a mount command, unless the breaker has suppressed
// overlays for this session.
func (s *Session) ShowOverlay(cmd overlay.ShowCommand) error {
	if !s.breaker.Allow() {
		s.log.Warn().Str("overlay_id", cmd.ID).Msg("Overlay dropped, dispatch suppressed")
		return ErrOverlaysSuppressed
	}
	return s.writeCommand(CommandOverlayShow, cmd)
}

// UpdateOverlay forwards a reflow command.
func (s *Session) UpdateOverlay(cmd overlay.UpdateCommand) error {
	return s.writeCommand(CommandOverlayUpdate, cmd)
}

// HideOverlay forwards an unmount command.
func (s *Session) HideOverlay(id string) error {
	return s.writeCommand(CommandOverlayHide, HidePayload{ID: id})
}

// Controller returns the engine driving this session.
func (s *Session) Controller() *engine.Controller {
	return s.controller
}

// Status reports the session for the sessions API.
func (s *Session) Status() SessionStatus {
	return SessionStatus{
		ID:         s.ID,
		SourceURL:  s.SourceURL,
		TimelineID: s.TimelineID,
		StartedAt:  s.StartedAt,
		Breaker:    s.breaker.State().String(),
		Playback:   s.controller.Status(),
	}
}

// SessionStatus is the API representation of a live session.
type SessionStatus struct {
	ID         uuid.UUID     `json:"id"`
	SourceURL  string        `json:"source_url"`
	TimelineID uuid.UUID     `json:"timeline_id"`
	StartedAt  time.Time     `json:"started_at"`
	Breaker    string        `json:"breaker"`
	Playback   engine.Status `json:"playback"`
}

// readLoop consumes inbound envelopes until the connection closes. Every
// event is handled synchronously so the engine observes them in wire order.
func (s *Session) readLoop(ctx context.Context) {
	for {
		_, data, err := s.conn.Read(ctx)
		if err != nil {
			status := websocket.CloseStatus(err)
			if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway || errors.Is(err, context.Canceled) {
				s.log.Debug().Msg("Session closed")
			} else {
				s.log.Info().Err(err).Msg("Session read ended")
			}
			return
		}

		env, err := decodeEnvelope(data)
		if err != nil {
			s.log.Warn().Err(err).Msg("Dropping malformed message")
			continue
		}
		s.handleEvent(env)
	}
}

// handleEvent routes one inbound envelope. Unknown events are logged and
// dropped so older content scripts stay compatible.
func (s *Session) handleEvent(env Envelope) {
	switch env.Event {
	case EventTimeUpdate:
		var p TimePayload
		if err := decodePayload(env, &p); err != nil {
			s.log.Warn().Err(err).Msg("Bad timeupdate payload")
			return
		}
		s.player.apply(player.Event{Type: player.EventTimeUpdate, Seconds: p.Seconds})

	case EventSeeking:
		var p TimePayload
		if err := decodePayload(env, &p); err != nil {
			s.log.Warn().Err(err).Msg("Bad seeking payload")
			return
		}
		s.player.apply(player.Event{Type: player.EventSeeking, Seconds: p.Seconds})

	case EventPlay:
		s.player.apply(player.Event{Type: player.EventPlay})

	case EventPause:
		s.player.apply(player.Event{Type: player.EventPause})

	case EventVolumeChange:
		var p VolumePayload
		if err := decodePayload(env, &p); err != nil {
			s.log.Warn().Err(err).Msg("Bad volumechange payload")
			return
		}
		s.player.apply(player.Event{Type: player.EventVolumeChange, Muted: p.Muted, Volume: p.Volume})

	case EventDuration:
		var p TimePayload
		if err := decodePayload(env, &p); err != nil {
			s.log.Warn().Err(err).Msg("Bad durationchange payload")
			return
		}
		s.player.setDuration(p.Seconds)

	case EventResize:
		var p ResizePayload
		if err := decodePayload(env, &p); err != nil {
			s.log.Warn().Err(err).Msg("Bad resize payload")
			return
		}
		s.renderer.Resize(p.VideoWidth)

	case EventEnded:
		var p OverlayEventPayload
		if err := decodePayload(env, &p); err != nil {
			s.log.Warn().Err(err).Msg("Bad overlay_ended payload")
			return
		}
		s.breaker.RecordSuccess()
		s.renderer.HandleEnded(p.ID)

	case EventError:
		var p OverlayEventPayload
		if err := decodePayload(env, &p); err != nil {
			s.log.Warn().Err(err).Msg("Bad overlay_error payload")
			return
		}
		s.breaker.RecordFailure()
		s.renderer.HandleError(p.ID, p.Message)

	default:
		s.log.Debug().Str("event", env.Event).Msg("Unknown event ignored")
	}
}

// close tears down the engine and the connection.
func (s *Session) close(status websocket.StatusCode, reason string) {
	s.controller.Destroy()
	_ = s.conn.Close(status, reason) // nolint:errcheck // already closing
}
