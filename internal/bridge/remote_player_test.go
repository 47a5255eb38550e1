package bridge

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cueline/cueline/internal/player"
)

type sentCommand struct {
	event   string
	payload any
}

// recordingWriter captures outgoing commands without a real connection.
type recordingWriter struct {
	sent []sentCommand
}

func (w *recordingWriter) writeCommand(event string, payload any) error {
	w.sent = append(w.sent, sentCommand{event: event, payload: payload})
	return nil
}

func newTestPlayer() (*RemotePlayer, *recordingWriter) {
	w := &recordingWriter{}
	p := NewRemotePlayer(w, HelloPayload{
		SourceURL:  "https://videos.example/watch?v=abc",
		VideoWidth: 640,
		Duration:   300,
		Seconds:    10,
		Paused:     true,
		Muted:      false,
		Volume:     1,
	})
	return p, w
}

func TestRemotePlayer_SeededFromHello(t *testing.T) {
	p, _ := newTestPlayer()

	assert.Equal(t, 10.0, p.CurrentTime())
	assert.Equal(t, 300.0, p.Duration())
	assert.True(t, p.Paused())
	assert.False(t, p.Muted())
}

func TestRemotePlayer_CommandsGoOverTheWire(t *testing.T) {
	p, w := newTestPlayer()
	ctx := context.Background()

	require.NoError(t, p.Play(ctx))
	require.NoError(t, p.Pause(ctx))
	require.NoError(t, p.Seek(ctx, 42.5))
	require.NoError(t, p.SetMuted(ctx, true))

	require.Len(t, w.sent, 4)
	assert.Equal(t, CommandPlay, w.sent[0].event)
	assert.Equal(t, CommandPause, w.sent[1].event)
	assert.Equal(t, CommandSeek, w.sent[2].event)
	assert.Equal(t, TimePayload{Seconds: 42.5}, w.sent[2].payload)
	assert.Equal(t, CommandSetMuted, w.sent[3].event)
	assert.Equal(t, MutedPayload{Muted: true}, w.sent[3].payload)
}

func TestRemotePlayer_CommandsDoNotMutateMirror(t *testing.T) {
	p, _ := newTestPlayer()

	// the mirror only changes when the content script echoes the event back
	require.NoError(t, p.Play(context.Background()))
	assert.True(t, p.Paused())

	p.apply(player.Event{Type: player.EventPlay})
	assert.False(t, p.Paused())
}

func TestRemotePlayer_ApplyFoldsEvents(t *testing.T) {
	p, _ := newTestPlayer()

	p.apply(player.Event{Type: player.EventTimeUpdate, Seconds: 15.5})
	assert.Equal(t, 15.5, p.CurrentTime())

	p.apply(player.Event{Type: player.EventSeeking, Seconds: 99})
	assert.Equal(t, 99.0, p.CurrentTime())

	p.apply(player.Event{Type: player.EventPlay})
	assert.False(t, p.Paused())

	p.apply(player.Event{Type: player.EventPause})
	assert.True(t, p.Paused())

	p.apply(player.Event{Type: player.EventVolumeChange, Muted: true, Volume: 0.3})
	assert.True(t, p.Muted())
}

func TestRemotePlayer_SubscribeReceivesEventsInOrder(t *testing.T) {
	p, _ := newTestPlayer()

	var got []player.Event
	unsubscribe := p.Subscribe(func(ev player.Event) {
		got = append(got, ev)
	})

	p.apply(player.Event{Type: player.EventPlay})
	p.apply(player.Event{Type: player.EventTimeUpdate, Seconds: 1.5})

	require.Len(t, got, 2)
	assert.Equal(t, player.EventPlay, got[0].Type)
	assert.Equal(t, player.EventTimeUpdate, got[1].Type)
	assert.Equal(t, 1.5, got[1].Seconds)

	unsubscribe()
	p.apply(player.Event{Type: player.EventPause})
	assert.Len(t, got, 2)
}

func TestRemotePlayer_UnsubscribeIsIdempotent(t *testing.T) {
	p, _ := newTestPlayer()

	calls := 0
	unsubscribe := p.Subscribe(func(player.Event) { calls++ })

	unsubscribe()
	unsubscribe()

	p.apply(player.Event{Type: player.EventPlay})
	assert.Zero(t, calls)
}

func TestRemotePlayer_MirrorUpdatedBeforeHandlers(t *testing.T) {
	p, _ := newTestPlayer()

	var seen float64
	p.Subscribe(func(ev player.Event) {
		// handlers reading back through the interface must observe the
		// position the event carried
		seen = p.CurrentTime()
	})

	p.apply(player.Event{Type: player.EventTimeUpdate, Seconds: 33})
	assert.Equal(t, 33.0, seen)
}

func TestRemotePlayer_SetDuration(t *testing.T) {
	p, _ := newTestPlayer()

	p.setDuration(1234)
	assert.Equal(t, 1234.0, p.Duration())
}
