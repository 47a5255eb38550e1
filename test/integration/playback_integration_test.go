//go:build integration
// +build integration

package integration

import (
	"context"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cueline/cueline/internal/cue"
	"github.com/cueline/cueline/internal/engine"
	"github.com/cueline/cueline/internal/overlay"
	"github.com/cueline/cueline/internal/player"
	"github.com/cueline/cueline/internal/timeline"
)

// TestPlaybackFromStoredTimeline drives the full path a live session takes:
// cues persisted through the service, loaded as a snapshot, and executed by
// the engine against a simulated host video.
func TestPlaybackFromStoredTimeline(t *testing.T) {
	_, repos, cleanup := setupTestDB(t)
	defer cleanup()

	service := timeline.NewTimelineService(repos)
	ctx := context.Background()

	timelineID := seedTimeline(t, service,
		cue.Cue{
			TriggerTime: 2000,
			Type:        cue.TypeOverlay,
			OverlayMedia: &cue.OverlayMedia{
				URL:      "/api/v1/media/files/banner.png",
				MIME:     "image/png",
				Position: cue.Rect{X: 10, Y: 10, Width: 100, Height: 40},
			},
			OverlayDuration: 3,
		},
		cue.Cue{
			TriggerTime: 5000,
			Type:        cue.TypeSkip,
			SkipToTime:  30000,
		},
	)

	snapshot, err := service.Snapshot(ctx, timelineID)
	require.NoError(t, err)
	require.Equal(t, 2, snapshot.Len())

	clock := clockwork.NewFakeClock()
	sink := &recordingSink{}
	renderer := overlay.NewRenderer(sink, clock, cue.DesignWidth)
	controller := engine.NewController(renderer, engine.WithClock(clock))
	controller.SetCues(snapshot)
	defer controller.Destroy()

	sim := player.NewSim(600)
	controller.Bind(sim)
	require.NoError(t, sim.Play(ctx))

	// playback reaches the overlay cue
	sim.Tick(1.0)
	sim.Tick(2.1)

	require.Len(t, sink.shownIDs(), 1)
	assert.Equal(t, engine.StateOverlayActive, controller.State())

	// playback reaches the skip cue, which jumps the host video forward
	sim.Tick(5.0)
	assert.Equal(t, 30.0, sim.CurrentTime())
}

// TestPauseCueAutoResumesSim verifies a stored pause cue freezes the
// simulated host video and releases it when its duration elapses.
func TestPauseCueAutoResumesSim(t *testing.T) {
	_, repos, cleanup := setupTestDB(t)
	defer cleanup()

	service := timeline.NewTimelineService(repos)

	timelineID := seedTimeline(t, service, cue.Cue{
		TriggerTime:   3000,
		Type:          cue.TypePause,
		PauseDuration: 2,
	})

	snapshot, err := service.Snapshot(context.Background(), timelineID)
	require.NoError(t, err)

	clock := clockwork.NewFakeClock()
	sink := &recordingSink{}
	renderer := overlay.NewRenderer(sink, clock, cue.DesignWidth)
	controller := engine.NewController(renderer, engine.WithClock(clock))
	controller.SetCues(snapshot)
	defer controller.Destroy()

	ctx := context.Background()
	sim := player.NewSim(600)
	controller.Bind(sim)
	require.NoError(t, sim.Play(ctx))

	sim.Tick(2.5)
	sim.Tick(3.0)

	require.True(t, sim.Paused())

	clock.Advance(2 * time.Second)
	require.Eventually(t, func() bool {
		return !sim.Paused()
	}, time.Second, 5*time.Millisecond)
}
