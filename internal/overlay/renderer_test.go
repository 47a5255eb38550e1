package overlay

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cueline/cueline/internal/cue"
)

// recordingSink captures emitted commands for assertions. showErr, when set,
// is returned from ShowOverlay to exercise the failure path.
type recordingSink struct {
	mu      sync.Mutex
	shown   []ShowCommand
	updated []UpdateCommand
	hidden  []string
	showErr error
}

func (s *recordingSink) ShowOverlay(cmd ShowCommand) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.showErr != nil {
		return s.showErr
	}
	s.shown = append(s.shown, cmd)
	return nil
}

func (s *recordingSink) UpdateOverlay(cmd UpdateCommand) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.updated = append(s.updated, cmd)
	return nil
}

func (s *recordingSink) HideOverlay(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hidden = append(s.hidden, id)
	return nil
}

func (s *recordingSink) shownCmds() []ShowCommand {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]ShowCommand(nil), s.shown...)
}

func (s *recordingSink) updatedCmds() []UpdateCommand {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]UpdateCommand(nil), s.updated...)
}

func (s *recordingSink) hiddenIDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.hidden...)
}

// endedCounter is a concurrency-safe onEnded callback.
type endedCounter struct {
	mu sync.Mutex
	n  int
}

func (e *endedCounter) fn() func() {
	return func() {
		e.mu.Lock()
		e.n++
		e.mu.Unlock()
	}
}

func (e *endedCounter) count() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.n
}

func newTestRenderer(t *testing.T) (*Renderer, *recordingSink, *clockwork.FakeClock) {
	t.Helper()
	sink := &recordingSink{}
	clock := clockwork.NewFakeClock()
	r := NewRenderer(sink, clock, cue.DesignWidth)
	return r, sink, clock
}

func imageSpec(id string, duration float64) Spec {
	return Spec{
		ID:       id,
		Kind:     cue.KindImage,
		URL:      "/api/v1/media/files/" + id + ".png",
		Position: cue.Rect{X: 10, Y: 20, Width: 100, Height: 50},
		Duration: duration,
	}
}

func videoSpec(id string, duration float64) Spec {
	return Spec{
		ID:       id,
		Kind:     cue.KindVideo,
		URL:      "/api/v1/media/files/" + id + ".mp4",
		Position: cue.Rect{X: 0, Y: 0, Width: 320, Height: 180},
		Duration: duration,
	}
}

func TestRenderer_ShowEmitsScaledBounds(t *testing.T) {
	r, sink, _ := newTestRenderer(t)
	r.Resize(640)

	r.Show(imageSpec("img1", 5), nil)

	shown := sink.shownCmds()
	require.Len(t, shown, 1)
	assert.Equal(t, "img1", shown[0].ID)
	assert.Equal(t, cue.KindImage, shown[0].Kind)
	assert.Equal(t, Bounds{Left: 20, Top: 40, Width: 200, Height: 100}, shown[0].Bounds)
	assert.True(t, r.IsActive("img1"))
	assert.Equal(t, 1, r.ActiveCount())
}

func TestRenderer_ShowTextScalesStyle(t *testing.T) {
	r, sink, _ := newTestRenderer(t)
	r.Resize(640)

	r.Show(Spec{
		ID:       "txt1",
		Kind:     cue.KindText,
		Text:     "hello",
		Style:    &cue.TextStyle{FontSize: 12, Padding: 4, BorderRadius: 2, Color: "#fff"},
		Position: cue.Rect{X: 0, Y: 0, Width: 160, Height: 40},
		Duration: 3,
	}, nil)

	shown := sink.shownCmds()
	require.Len(t, shown, 1)
	require.NotNil(t, shown[0].Style)
	assert.Equal(t, "hello", shown[0].Text)
	assert.Equal(t, 24.0, shown[0].Style.FontSize)
	assert.Equal(t, 8.0, shown[0].Style.Padding)
	assert.Equal(t, 4.0, shown[0].Style.BorderRadius)
	assert.Equal(t, "#fff", shown[0].Style.Color)
}

func TestRenderer_DurationTimerExpires(t *testing.T) {
	r, sink, clock := newTestRenderer(t)
	ended := &endedCounter{}

	r.Show(imageSpec("img1", 5), ended.fn())
	require.True(t, r.IsActive("img1"))

	clock.Advance(5 * time.Second)

	require.Eventually(t, func() bool {
		return ended.count() == 1
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, []string{"img1"}, sink.hiddenIDs())
	assert.False(t, r.IsActive("img1"))
}

func TestRenderer_HideIsIdempotent(t *testing.T) {
	r, sink, _ := newTestRenderer(t)
	ended := &endedCounter{}

	r.Show(imageSpec("img1", 5), ended.fn())

	r.Hide("img1")
	r.Hide("img1")

	assert.Equal(t, []string{"img1"}, sink.hiddenIDs())
	assert.False(t, r.IsActive("img1"))
	// explicit hide never fires the ended callback
	assert.Zero(t, ended.count())
}

func TestRenderer_HideUnknownIDIsNoop(t *testing.T) {
	r, sink, _ := newTestRenderer(t)

	r.Hide("never-shown")

	assert.Empty(t, sink.hiddenIDs())
}

func TestRenderer_HideStopsExpiryTimer(t *testing.T) {
	r, sink, clock := newTestRenderer(t)
	ended := &endedCounter{}

	r.Show(imageSpec("img1", 2), ended.fn())
	r.Hide("img1")

	clock.Advance(5 * time.Second)
	time.Sleep(20 * time.Millisecond)

	assert.Equal(t, []string{"img1"}, sink.hiddenIDs())
	assert.Zero(t, ended.count())
}

func TestRenderer_MediaEndedExpires(t *testing.T) {
	r, sink, _ := newTestRenderer(t)
	ended := &endedCounter{}

	// no duration: expiry is owned by the client's ended event
	r.Show(videoSpec("vid1", 0), ended.fn())

	r.HandleEnded("vid1")

	assert.Equal(t, []string{"vid1"}, sink.hiddenIDs())
	assert.Equal(t, 1, ended.count())
	assert.False(t, r.IsActive("vid1"))
}

func TestRenderer_EndedAfterTimerExpiryIsNoop(t *testing.T) {
	r, sink, clock := newTestRenderer(t)
	ended := &endedCounter{}

	// explicit duration on a media overlay supersedes the natural ended event
	r.Show(videoSpec("vid1", 2), ended.fn())

	clock.Advance(2 * time.Second)
	require.Eventually(t, func() bool {
		return ended.count() == 1
	}, time.Second, 5*time.Millisecond)

	// the late ended event from the client must not tear down twice
	r.HandleEnded("vid1")

	assert.Equal(t, []string{"vid1"}, sink.hiddenIDs())
	assert.Equal(t, 1, ended.count())
}

func TestRenderer_MediaErrorTearsDownAndFiresEnded(t *testing.T) {
	r, sink, _ := newTestRenderer(t)
	ended := &endedCounter{}

	r.Show(videoSpec("vid1", 0), ended.fn())

	r.HandleError("vid1", "network error")

	assert.Equal(t, []string{"vid1"}, sink.hiddenIDs())
	assert.Equal(t, 1, ended.count())
}

func TestRenderer_ShowReplacesSameID(t *testing.T) {
	r, sink, _ := newTestRenderer(t)
	firstEnded := &endedCounter{}

	r.Show(imageSpec("img1", 5), firstEnded.fn())
	r.Show(imageSpec("img1", 5), nil)

	// old instance hidden, new one shown, and replacement is not an expiry
	assert.Equal(t, []string{"img1"}, sink.hiddenIDs())
	assert.Len(t, sink.shownCmds(), 2)
	assert.Zero(t, firstEnded.count())
	assert.Equal(t, 1, r.ActiveCount())
}

func TestRenderer_ConcurrentOverlays(t *testing.T) {
	r, sink, _ := newTestRenderer(t)

	r.Show(imageSpec("a", 5), nil)
	r.Show(videoSpec("b", 0), nil)

	assert.Equal(t, 2, r.ActiveCount())

	r.Hide("a")

	assert.Equal(t, 1, r.ActiveCount())
	assert.False(t, r.IsActive("a"))
	assert.True(t, r.IsActive("b"))
	assert.Equal(t, []string{"a"}, sink.hiddenIDs())
}

func TestRenderer_HideAll(t *testing.T) {
	r, sink, _ := newTestRenderer(t)
	ended := &endedCounter{}

	r.Show(imageSpec("a", 5), ended.fn())
	r.Show(videoSpec("b", 0), ended.fn())

	r.HideAll()

	assert.Zero(t, r.ActiveCount())
	assert.ElementsMatch(t, []string{"a", "b"}, sink.hiddenIDs())
	assert.Zero(t, ended.count())
}

func TestRenderer_ResizeReflowsActiveOverlays(t *testing.T) {
	r, sink, _ := newTestRenderer(t)
	r.Resize(320)

	r.Show(imageSpec("img1", 5), nil)
	require.Len(t, sink.updatedCmds(), 0)

	r.Resize(640)

	updates := sink.updatedCmds()
	require.Len(t, updates, 1)
	assert.Equal(t, "img1", updates[0].ID)
	assert.Equal(t, Bounds{Left: 20, Top: 40, Width: 200, Height: 100}, updates[0].Bounds)
}

func TestRenderer_ResizeRescalesTextStyle(t *testing.T) {
	r, sink, _ := newTestRenderer(t)
	r.Resize(320)

	r.Show(Spec{
		ID:       "txt1",
		Kind:     cue.KindText,
		Text:     "hi",
		Style:    &cue.TextStyle{FontSize: 10, Padding: 2},
		Position: cue.Rect{X: 0, Y: 0, Width: 100, Height: 30},
		Duration: 3,
	}, nil)

	r.Resize(160)

	updates := sink.updatedCmds()
	require.Len(t, updates, 1)
	require.NotNil(t, updates[0].Style)
	assert.Equal(t, 5.0, updates[0].Style.FontSize)
	assert.Equal(t, 1.0, updates[0].Style.Padding)
	assert.Equal(t, Bounds{Left: 0, Top: 0, Width: 50, Height: 15}, updates[0].Bounds)
}

func TestRenderer_ShowFailureExpiresImmediately(t *testing.T) {
	r, sink, _ := newTestRenderer(t)
	sink.showErr = errors.New("connection closed")
	ended := &endedCounter{}

	r.Show(videoSpec("vid1", 0), ended.fn())

	// the overlay must not be left registered with nothing on screen
	assert.False(t, r.IsActive("vid1"))
	assert.Equal(t, 1, ended.count())
}
