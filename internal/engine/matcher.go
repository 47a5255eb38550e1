// Package engine implements the playback synchronization core: a window
// matcher that maps elapsed playback time onto triggered cues, and a
// controller state machine that executes them against the host video.
package engine

import "github.com/cueline/cueline/internal/cue"

// MatchWindow returns the cues whose trigger time falls inside the playback
// window (lastTime, currentTime], both in seconds. Order of the input list
// is preserved, so cues sharing a trigger time execute in authored order.
//
// timeupdate ticks arrive irregularly (typically every 150-300 ms); range
// matching over the window between consecutive ticks guarantees each
// trigger instant is evaluated exactly once per forward pass, independent
// of tick density. The lower bound is exclusive so a cue sitting exactly on
// the previous tick's time does not fire twice across adjacent windows.
//
// A backward window (currentTime < lastTime, i.e. a seek that bypassed the
// seeking event) is invalid and matches nothing.
func MatchWindow(lastTime, currentTime float64, cues []cue.Cue) []cue.Cue {
	if currentTime < lastTime {
		return nil
	}

	var matched []cue.Cue
	for _, c := range cues {
		t := c.TriggerSeconds()
		if t > lastTime && t <= currentTime {
			matched = append(matched, c)
		}
	}
	return matched
}
