package bridge

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"github.com/cueline/cueline/internal/config"
	"github.com/cueline/cueline/internal/cue"
	"github.com/cueline/cueline/internal/engine"
	"github.com/cueline/cueline/internal/logger"
	"github.com/cueline/cueline/internal/models"
	"github.com/cueline/cueline/internal/overlay"
)

// helloTimeout bounds how long a freshly accepted connection may take to
// identify itself before it is dropped.
const helloTimeout = 10 * time.Second

// TimelineResolver resolves which timeline a connecting page plays and
// loads its cue snapshot.
type TimelineResolver interface {
	GetBySourceURL(ctx context.Context, sourceURL string) (*models.Timeline, error)
	Snapshot(ctx context.Context, timelineID uuid.UUID) (cue.Set, error)
}

// Manager owns the live sessions: one per connected content script. It
// accepts WebSocket connections, boots an engine per session, and pushes
// fresh cue snapshots into running sessions when their timeline is edited.
type Manager struct {
	resolver TimelineResolver
	playback config.PlaybackConfig
	clock    clockwork.Clock

	mu       sync.RWMutex
	sessions map[uuid.UUID]*Session

	log zerolog.Logger
}

// NewManager creates a session manager. A nil clock uses the real clock;
// tests inject a fake one that flows into every session's engine timers.
func NewManager(resolver TimelineResolver, playback config.PlaybackConfig, clock clockwork.Clock) *Manager {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Manager{
		resolver: resolver,
		playback: playback,
		clock:    clock,
		sessions: make(map[uuid.UUID]*Session),
		log:      logger.With("bridge"),
	}
}

// HandleWebSocket upgrades a content script connection and runs its session
// until the connection closes. The first message must be a hello that names
// the host page; a page with no authored timeline is rejected so the
// content script can go dormant.
func (m *Manager) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		m.log.Error().Err(err).Msg("WebSocket accept failed")
		return
	}

	hello, err := m.readHello(conn)
	if err != nil {
		m.log.Info().Err(err).Msg("Session handshake failed")
		_ = conn.Close(websocket.StatusPolicyViolation, "hello required") // nolint:errcheck // already rejecting
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), helloTimeout)
	timeline, err := m.resolver.GetBySourceURL(ctx, hello.SourceURL)
	if err != nil {
		cancel()
		m.log.Debug().Str("source_url", hello.SourceURL).Msg("No timeline for page, rejecting session")
		_ = conn.Close(websocket.StatusNormalClosure, "no timeline for page") // nolint:errcheck // already rejecting
		return
	}
	snapshot, err := m.resolver.Snapshot(ctx, timeline.ID)
	cancel()
	if err != nil {
		m.log.Error().Err(err).Str("timeline_id", timeline.ID.String()).Msg("Failed to load cue snapshot")
		_ = conn.Close(websocket.StatusInternalError, "snapshot load failed") // nolint:errcheck // already rejecting
		return
	}

	session := m.buildSession(conn, hello, timeline.ID, snapshot)

	m.mu.Lock()
	m.sessions[session.ID] = session
	count := len(m.sessions)
	m.mu.Unlock()

	m.log.Info().
		Str("session_id", session.ID.String()).
		Str("source_url", session.SourceURL).
		Str("timeline_id", session.TimelineID.String()).
		Int("cue_count", snapshot.Len()).
		Int("active_sessions", count).
		Msg("Session started")

	// r.Context() dies when this handler returns, so the read loop runs on
	// the background context and ends when the connection does
	session.readLoop(context.Background())

	m.mu.Lock()
	delete(m.sessions, session.ID)
	m.mu.Unlock()

	session.close(websocket.StatusNormalClosure, "")
	m.log.Info().Str("session_id", session.ID.String()).Msg("Session ended")
}

// readHello reads and validates the session's opening message.
func (m *Manager) readHello(conn *websocket.Conn) (HelloPayload, error) {
	ctx, cancel := context.WithTimeout(context.Background(), helloTimeout)
	defer cancel()

	_, data, err := conn.Read(ctx)
	if err != nil {
		return HelloPayload{}, fmt.Errorf("failed to read hello: %w", err)
	}
	env, err := decodeEnvelope(data)
	if err != nil {
		return HelloPayload{}, err
	}
	if env.Event != EventHello {
		return HelloPayload{}, fmt.Errorf("expected hello, got %q", env.Event)
	}
	var hello HelloPayload
	if err := decodePayload(env, &hello); err != nil {
		return HelloPayload{}, err
	}
	if hello.SourceURL == "" {
		return HelloPayload{}, fmt.Errorf("hello missing source url")
	}
	return hello, nil
}

// buildSession assembles the per-session object graph: session as sink,
// renderer on top of it, remote player mirroring the host video, and the
// engine bound to the player.
func (m *Manager) buildSession(conn *websocket.Conn, hello HelloPayload, timelineID uuid.UUID, snapshot cue.Set) *Session {
	id := uuid.New()
	s := &Session{
		ID:         id,
		SourceURL:  hello.SourceURL,
		TimelineID: timelineID,
		StartedAt:  time.Now().UTC(),
		conn:       conn,
		breaker:    NewBreaker(m.playback.OverlayErrorThreshold, m.playback.OverlayErrorCooldown),
		log:        logger.With("session").With().Str("session_id", id.String()).Logger(),
	}

	s.renderer = overlay.NewRenderer(s, m.clock, float64(m.playback.DesignWidth))
	s.renderer.Resize(hello.VideoWidth)

	s.player = NewRemotePlayer(s, hello)

	s.controller = engine.NewController(s.renderer,
		engine.WithClock(m.clock),
		engine.WithFirstTickLookBehind(m.playback.FirstTickLookBehind),
	)
	s.controller.SetCues(snapshot)
	s.controller.Bind(s.player)

	return s
}

// Get returns the session with the given id.
func (m *Manager) Get(id uuid.UUID) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	return s, ok
}

// List returns a snapshot of all live sessions.
func (m *Manager) List() []*Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		out = append(out, s)
	}
	return out
}

// ByTimeline returns the live sessions playing the given timeline.
func (m *Manager) ByTimeline(timelineID uuid.UUID) []*Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*Session
	for _, s := range m.sessions {
		if s.TimelineID == timelineID {
			out = append(out, s)
		}
	}
	return out
}

// Count returns the number of live sessions.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// PushTimeline reloads a timeline's cue snapshot into every session playing
// it. Called after any cue edit so running pages pick up changes without
// reconnecting.
func (m *Manager) PushTimeline(ctx context.Context, timelineID uuid.UUID) error {
	sessions := m.ByTimeline(timelineID)
	if len(sessions) == 0 {
		return nil
	}

	snapshot, err := m.resolver.Snapshot(ctx, timelineID)
	if err != nil {
		return fmt.Errorf("failed to load cue snapshot: %w", err)
	}

	for _, s := range sessions {
		s.controller.SetCues(snapshot)
	}

	m.log.Info().
		Str("timeline_id", timelineID.String()).
		Int("sessions", len(sessions)).
		Int("cue_count", snapshot.Len()).
		Msg("Cue snapshot pushed to live sessions")
	return nil
}

// HideCue force-expires a deleted cue's overlay in every session playing
// the timeline.
func (m *Manager) HideCue(timelineID uuid.UUID, cueID string) {
	for _, s := range m.ByTimeline(timelineID) {
		s.controller.HideCue(cueID)
	}
}

// Shutdown closes every live session.
func (m *Manager) Shutdown() {
	m.mu.Lock()
	sessions := make([]*Session, 0, len(m.sessions))
	for id, s := range m.sessions {
		sessions = append(sessions, s)
		delete(m.sessions, id)
	}
	m.mu.Unlock()

	for _, s := range sessions {
		s.close(websocket.StatusGoingAway, "server shutting down")
	}
	if len(sessions) > 0 {
		m.log.Info().Int("sessions", len(sessions)).Msg("All sessions closed")
	}
}
